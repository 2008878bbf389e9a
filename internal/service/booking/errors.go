package booking

import "errors"

var (
	// ErrInvalidDateRange covers a missing or inverted range, and a start
	// date in the past for a brand-new submission.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrCommittedOverlap is returned when an edit would commit a segment
	// over a range another committed segment already occupies.
	ErrCommittedOverlap = errors.New("range is already committed")

	ErrMissingOwner  = errors.New("booking owner is missing")
	ErrNotFound      = errors.New("booking not found")
	ErrForbidden     = errors.New("operation not permitted")
	ErrInvalidStatus = errors.New("invalid booking status")
)
