package booking

import (
	"github.com/MikeHotel0815/casa-belegung-app/internal/dateutil"
	"github.com/MikeHotel0815/casa-belegung-app/internal/domain"
	"github.com/google/uuid"
)

// Owner is the identity a reconciled request is booked for.
type Owner struct {
	ID   string
	Name string
}

// Reconcile classifies every day of the inclusive range [start, end] against
// the existing segment set and emits contiguous same-status segments sharing
// one fresh OriginalRequestID.
//
// A day is obstructed when any committed (reserved or confirmed) segment
// covers it; anfrage segments never obstruct. On an obstructed day the
// requested status is forced down to anfrage, so a submission never fails on
// overlap and never lands a committed day on top of an existing commitment.
// A multi-week request straddling someone else's booking therefore splits
// into committed runs around a pending middle.
//
// The emitted segments are ordered, contiguous and partition [start, end]
// exactly. IDs and timestamps are left for the store to assign.
func Reconcile(start, end dateutil.Date, requested domain.SegmentStatus, owner Owner, existing []domain.Segment) ([]domain.Segment, error) {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return nil, ErrInvalidDateRange
	}

	requestID := uuid.NewString()

	var segments []domain.Segment
	for day := start; !day.After(end); day = day.Next() {
		status := requested
		if obstructed(day, existing) {
			status = domain.StatusAnfrage
		}

		if n := len(segments); n > 0 && segments[n-1].Status == status {
			segments[n-1].EndDate = day
			continue
		}
		segments = append(segments, domain.Segment{
			OriginalRequestID: requestID,
			UserID:            owner.ID,
			UserName:          owner.Name,
			StartDate:         day,
			EndDate:           day,
			Status:            status,
			PropertyID:        domain.PropertyID,
		})
	}
	return segments, nil
}

func obstructed(day dateutil.Date, existing []domain.Segment) bool {
	for _, seg := range existing {
		if seg.Status.Committed() && seg.Covers(day) {
			return true
		}
	}
	return false
}
