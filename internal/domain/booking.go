package domain

import (
	"time"

	"github.com/MikeHotel0815/casa-belegung-app/internal/dateutil"
)

// PropertyID identifies the single managed vacation home.
const PropertyID = "ferienhaus1"

type SegmentStatus string

const (
	StatusReserved  SegmentStatus = "reserved"
	StatusConfirmed SegmentStatus = "confirmed"
	StatusAnfrage   SegmentStatus = "anfrage"
)

// Committed reports whether the status occupies the calendar and blocks
// other committed claims. Anfrage segments are unresolved and block nothing.
func (s SegmentStatus) Committed() bool {
	return s == StatusReserved || s == StatusConfirmed
}

func (s SegmentStatus) Valid() bool {
	switch s {
	case StatusReserved, StatusConfirmed, StatusAnfrage:
		return true
	}
	return false
}

// Segment is one contiguous date-range record with a single status and owner.
// All segments produced from one submission share an OriginalRequestID.
type Segment struct {
	ID                string
	OriginalRequestID string
	UserID            string
	UserName          string
	StartDate         dateutil.Date
	EndDate           dateutil.Date
	Status            SegmentStatus
	PropertyID        string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Overlaps reports whether the segment's inclusive range shares a day with [start, end].
func (s Segment) Overlaps(start, end dateutil.Date) bool {
	return dateutil.Overlaps(s.StartDate, s.EndDate, start, end)
}

// Covers reports whether day falls inside the segment's inclusive range.
func (s Segment) Covers(day dateutil.Date) bool {
	return dateutil.RangeContains(s.StartDate, s.EndDate, day)
}
