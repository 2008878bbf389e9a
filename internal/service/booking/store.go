package booking

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/MikeHotel0815/casa-belegung-app/internal/dateutil"
	"github.com/MikeHotel0815/casa-belegung-app/internal/domain"
	"github.com/MikeHotel0815/casa-belegung-app/internal/repository"
	"github.com/google/uuid"
)

// SegmentPatch carries the fields an update may change. Nil pointers leave
// the current value in place.
type SegmentPatch struct {
	StartDate *dateutil.Date
	EndDate   *dateutil.Date
	Status    *domain.SegmentStatus
	Owner     *Owner
}

// Store owns the segment collection. Every mutation runs as one atomic step
// under a single lock: the reconciler reads the full committed set to
// classify days, so an interleaved add could let two submissions both see a
// day as unobstructed and both commit it. Mutations persist through the
// repository before touching the in-memory set, so a persistence failure
// leaves the published state unchanged.
type Store struct {
	mu       sync.RWMutex
	repo     repository.SegmentRepository
	clock    dateutil.Clock
	segments map[string]domain.Segment
}

func NewStore(repo repository.SegmentRepository, clock dateutil.Clock) *Store {
	return &Store{
		repo:     repo,
		clock:    clock,
		segments: make(map[string]domain.Segment),
	}
}

// Load seeds the collection from the repository. Called once at startup.
func (s *Store) Load(ctx context.Context) error {
	loaded, err := s.repo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load segments: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.segments = make(map[string]domain.Segment, len(loaded))
	for _, seg := range loaded {
		s.segments[seg.ID] = seg
	}
	return nil
}

// Add reconciles the requested range against the current set and appends the
// resulting segments. Overlap never fails an add: obstructed days degrade to
// anfrage inside the reconciler.
func (s *Store) Add(ctx context.Context, start, end dateutil.Date, status domain.SegmentStatus, owner Owner) ([]domain.Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created, err := Reconcile(start, end, status, owner, s.listLocked())
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	for i := range created {
		created[i].ID = uuid.NewString()
		created[i].CreatedAt = now
		created[i].UpdatedAt = now
	}

	if err := s.repo.InsertSegments(ctx, created); err != nil {
		return nil, fmt.Errorf("persist segments: %w", err)
	}
	for _, seg := range created {
		s.segments[seg.ID] = seg
	}
	return created, nil
}

// Update merges patch onto the segment matching id. The store performs no
// overlap validation here; committing edits are pre-checked by the caller.
func (s *Store) Update(ctx context.Context, id string, patch SegmentPatch) (domain.Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seg, ok := s.segments[id]
	if !ok {
		return domain.Segment{}, ErrNotFound
	}

	if patch.StartDate != nil {
		seg.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		seg.EndDate = *patch.EndDate
	}
	if patch.Status != nil {
		seg.Status = *patch.Status
	}
	if patch.Owner != nil {
		seg.UserID = patch.Owner.ID
		seg.UserName = patch.Owner.Name
	}
	if seg.EndDate.Before(seg.StartDate) {
		return domain.Segment{}, ErrInvalidDateRange
	}
	seg.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateSegment(ctx, seg); err != nil {
		return domain.Segment{}, fmt.Errorf("persist segment update: %w", err)
	}
	s.segments[id] = seg
	return seg, nil
}

// Delete removes the segment matching id. When the segment belongs to a
// request group, the entire group is removed: a split request is one booking
// from the user's perspective, and partial deletion would leave fragments no
// owner action could repair.
func (s *Store) Delete(ctx context.Context, id string) ([]domain.Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.segments[id]
	if !ok {
		return nil, ErrNotFound
	}

	removed := []domain.Segment{target}
	if target.OriginalRequestID != "" {
		removed = removed[:0]
		for _, seg := range s.segments {
			if seg.OriginalRequestID == target.OriginalRequestID {
				removed = append(removed, seg)
			}
		}
	}

	ids := make([]string, 0, len(removed))
	for _, seg := range removed {
		ids = append(ids, seg.ID)
	}
	if err := s.repo.DeleteSegments(ctx, ids); err != nil {
		return nil, fmt.Errorf("persist segment delete: %w", err)
	}
	for _, segID := range ids {
		delete(s.segments, segID)
	}

	sortSegments(removed)
	return removed, nil
}

func (s *Store) Get(id string) (domain.Segment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seg, ok := s.segments[id]
	return seg, ok
}

// List returns a snapshot of all segments ordered by start date.
func (s *Store) List() []domain.Segment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked()
}

// IsRangeAvailable scans committed segments only and reports whether the
// inclusive range [start, end] is free of them. The segment matching
// excludeID is skipped so an edit never collides with itself.
func (s *Store) IsRangeAvailable(start, end dateutil.Date, excludeID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, seg := range s.segments {
		if seg.ID == excludeID {
			continue
		}
		if seg.Status.Committed() && seg.Overlaps(start, end) {
			return false
		}
	}
	return true
}

// Count returns the number of stored segments.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.segments)
}

func (s *Store) listLocked() []domain.Segment {
	out := make([]domain.Segment, 0, len(s.segments))
	for _, seg := range s.segments {
		out = append(out, seg)
	}
	sortSegments(out)
	return out
}

func sortSegments(segments []domain.Segment) {
	sort.Slice(segments, func(i, j int) bool {
		if !segments[i].StartDate.Equal(segments[j].StartDate) {
			return segments[i].StartDate.Before(segments[j].StartDate)
		}
		return segments[i].ID < segments[j].ID
	})
}
