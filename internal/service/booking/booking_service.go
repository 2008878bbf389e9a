package booking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MikeHotel0815/casa-belegung-app/internal/dateutil"
	"github.com/MikeHotel0815/casa-belegung-app/internal/domain"
	"github.com/MikeHotel0815/casa-belegung-app/internal/kafka"
	"github.com/MikeHotel0815/casa-belegung-app/internal/repository"
)

// Actor is the authenticated identity performing an operation.
type Actor struct {
	ID   string
	Name string
	Role domain.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == domain.RoleAdmin
}

type BookingUseCase interface {
	CreateBooking(ctx context.Context, actor Actor, input CreateBookingInput) ([]domain.Segment, error)
	UpdateBooking(ctx context.Context, actor Actor, segmentID string, patch UpdateBookingInput) (*domain.Segment, error)
	DeleteBooking(ctx context.Context, actor Actor, segmentID string) ([]domain.Segment, error)
	ListBookings(ctx context.Context, filter ListFilter) ([]domain.Segment, error)
	MonthCalendar(ctx context.Context, year int, month time.Month) (*Calendar, error)
	IsRangeAvailable(ctx context.Context, start, end dateutil.Date, excludeID string) (bool, error)
}

type Cache interface {
	GetSegments(ctx context.Context) ([]domain.Segment, error)
	SetSegments(ctx context.Context, segments []domain.Segment) error
	Invalidate(ctx context.Context) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type CreateBookingInput struct {
	StartDate dateutil.Date
	EndDate   dateutil.Date
	Status    domain.SegmentStatus
	// UserID selects the booking owner. Admins must set it; everyone else
	// may only book for themselves.
	UserID string
}

type UpdateBookingInput struct {
	StartDate *dateutil.Date
	EndDate   *dateutil.Date
	Status    *domain.SegmentStatus
	UserID    *string
}

type ListFilter struct {
	Status domain.SegmentStatus
	Query  string
}

type Calendar struct {
	Year  int
	Month time.Month
	Days  []CalendarDay
}

type CalendarDay struct {
	Date     dateutil.Date
	Segments []domain.Segment
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

type BookingService struct {
	store              *Store
	users              repository.UserRepository
	cache              Cache
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	clock              dateutil.Clock
	logger             *slog.Logger
}

func NewBookingService(
	store *Store,
	users repository.UserRepository,
	cache Cache,
	producer Producer,
	bookingTopic string,
	clock dateutil.Clock,
	logger *slog.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		store:        store,
		users:        users,
		cache:        cache,
		producer:     producer,
		bookingTopic: bookingTopic,
		clock:        clock,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking reconciles a requested range into the store. It never fails
// on overlap: obstructed days land as anfrage and await admin resolution.
func (s *BookingService) CreateBooking(ctx context.Context, actor Actor, input CreateBookingInput) ([]domain.Segment, error) {
	if actor.ID == "" {
		return nil, ErrMissingOwner
	}

	status := input.Status
	if status == "" {
		status = domain.StatusReserved
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	owner, err := s.resolveOwner(ctx, actor, input.UserID, status)
	if err != nil {
		return nil, err
	}

	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return nil, ErrInvalidDateRange
	}
	if input.StartDate.Before(dateutil.Today(s.clock)) {
		return nil, ErrInvalidDateRange
	}

	created, err := s.store.Add(ctx, input.StartDate, input.EndDate, status, owner)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "booking_created", created)
	s.invalidateCache(ctx)
	return created, nil
}

// UpdateBooking merges patch onto one segment. Admins may force any state,
// including committing directly over an occupied range to resolve an
// anfrage in place; non-admin edits that end in a committed status must pass
// the availability check first.
func (s *BookingService) UpdateBooking(ctx context.Context, actor Actor, segmentID string, patch UpdateBookingInput) (*domain.Segment, error) {
	if actor.ID == "" {
		return nil, ErrMissingOwner
	}

	current, ok := s.store.Get(segmentID)
	if !ok {
		return nil, ErrNotFound
	}

	if !actor.IsAdmin() {
		if current.UserID != actor.ID {
			return nil, ErrForbidden
		}
		// Anfrage resolution is reserved for admins.
		if current.Status == domain.StatusAnfrage {
			return nil, ErrForbidden
		}
		if patch.UserID != nil && *patch.UserID != actor.ID {
			return nil, ErrForbidden
		}
	}

	newStart, newEnd, newStatus := current.StartDate, current.EndDate, current.Status
	if patch.StartDate != nil {
		newStart = *patch.StartDate
	}
	if patch.EndDate != nil {
		newEnd = *patch.EndDate
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		if !actor.IsAdmin() && *patch.Status == domain.StatusAnfrage {
			return nil, ErrForbidden
		}
		newStatus = *patch.Status
	}
	if newStart.IsZero() || newEnd.IsZero() || newEnd.Before(newStart) {
		return nil, ErrInvalidDateRange
	}

	if !actor.IsAdmin() && newStatus.Committed() {
		if !s.store.IsRangeAvailable(newStart, newEnd, segmentID) {
			return nil, ErrCommittedOverlap
		}
	}

	storePatch := SegmentPatch{
		StartDate: patch.StartDate,
		EndDate:   patch.EndDate,
		Status:    patch.Status,
	}
	if patch.UserID != nil && *patch.UserID != current.UserID {
		target, err := s.users.GetByID(ctx, *patch.UserID)
		if err != nil {
			return nil, fmt.Errorf("%w: user %s", ErrMissingOwner, *patch.UserID)
		}
		storePatch.Owner = &Owner{ID: target.ID, Name: target.Name}
	}

	updated, err := s.store.Update(ctx, segmentID, storePatch)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "booking_updated", []domain.Segment{updated})
	s.invalidateCache(ctx)
	return &updated, nil
}

// DeleteBooking removes the segment, or the whole request group when the
// segment carries an OriginalRequestID.
func (s *BookingService) DeleteBooking(ctx context.Context, actor Actor, segmentID string) ([]domain.Segment, error) {
	if actor.ID == "" {
		return nil, ErrMissingOwner
	}

	current, ok := s.store.Get(segmentID)
	if !ok {
		return nil, ErrNotFound
	}
	if !actor.IsAdmin() && current.UserID != actor.ID {
		return nil, ErrForbidden
	}

	removed, err := s.store.Delete(ctx, segmentID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "booking_deleted", removed)
	s.invalidateCache(ctx)
	return removed, nil
}

func (s *BookingService) ListBookings(ctx context.Context, filter ListFilter) ([]domain.Segment, error) {
	segments := s.store.List()

	if filter.Status == "" && filter.Query == "" {
		return segments, nil
	}

	query := strings.ToLower(filter.Query)
	filtered := make([]domain.Segment, 0, len(segments))
	for _, seg := range segments {
		if filter.Status != "" && seg.Status != filter.Status {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(seg.UserName), query) &&
			!strings.HasPrefix(strings.ToLower(seg.ID), query) {
			continue
		}
		filtered = append(filtered, seg)
	}
	return filtered, nil
}

// MonthCalendar renders per-day segment lists for the month grid, reading
// through the segment cache when one is configured.
func (s *BookingService) MonthCalendar(ctx context.Context, year int, month time.Month) (*Calendar, error) {
	segments := s.cachedSegments(ctx)

	first := dateutil.NewDate(year, month, 1)
	last := first.AddDays(-1 + daysInMonth(year, month))

	cal := &Calendar{Year: year, Month: month}
	for day := first; !day.After(last); day = day.Next() {
		entry := CalendarDay{Date: day, Segments: make([]domain.Segment, 0)}
		for _, seg := range segments {
			if seg.Covers(day) {
				entry.Segments = append(entry.Segments, seg)
			}
		}
		cal.Days = append(cal.Days, entry)
	}
	return cal, nil
}

func (s *BookingService) IsRangeAvailable(ctx context.Context, start, end dateutil.Date, excludeID string) (bool, error) {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return false, ErrInvalidDateRange
	}
	return s.store.IsRangeAvailable(start, end, excludeID), nil
}

func (s *BookingService) resolveOwner(ctx context.Context, actor Actor, targetUserID string, status domain.SegmentStatus) (Owner, error) {
	if actor.IsAdmin() {
		if targetUserID == "" {
			return Owner{}, ErrMissingOwner
		}
		target, err := s.users.GetByID(ctx, targetUserID)
		if err != nil {
			return Owner{}, fmt.Errorf("%w: user %s", ErrMissingOwner, targetUserID)
		}
		return Owner{ID: target.ID, Name: target.Name}, nil
	}

	if targetUserID != "" && targetUserID != actor.ID {
		return Owner{}, ErrForbidden
	}
	if status == domain.StatusAnfrage {
		return Owner{}, ErrForbidden
	}
	return Owner{ID: actor.ID, Name: actor.Name}, nil
}

func (s *BookingService) cachedSegments(ctx context.Context) []domain.Segment {
	if s.cache != nil {
		if cached, err := s.cache.GetSegments(ctx); err == nil && cached != nil {
			return cached
		}
	}
	segments := s.store.List()
	if s.cache != nil {
		_ = s.cache.SetSegments(ctx, segments)
	}
	return segments
}

func (s *BookingService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("invalidate segment cache", "error", err)
	}
}

func (s *BookingService) publish(ctx context.Context, eventType string, group []domain.Segment) {
	if s.producer == nil || s.bookingTopic == "" || len(group) == 0 {
		return
	}

	ids := make([]string, 0, len(group))
	for _, seg := range group {
		ids = append(ids, seg.ID)
	}
	event := kafka.BookingEvent{
		Type:       eventType,
		RequestID:  group[0].OriginalRequestID,
		SegmentIDs: ids,
		UserID:     group[0].UserID,
		UserName:   group[0].UserName,
		StartDate:  group[0].StartDate.String(),
		EndDate:    group[len(group)-1].EndDate.String(),
		Status:     string(group[0].Status),
		PropertyID: group[0].PropertyID,
	}

	key := event.RequestID
	if key == "" {
		key = ids[0]
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, key, event); err != nil {
		s.logger.Warn("publish booking event", "type", eventType, "error", err)
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, key, event); err != nil {
			s.logger.Warn("publish notification event", "type", eventType, "error", err)
		}
	}
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

var _ BookingUseCase = (*BookingService)(nil)
