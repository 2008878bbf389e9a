package booking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/MikeHotel0815/casa-belegung-app/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSegmentRepository struct {
	mock.Mock
}

func (m *MockSegmentRepository) LoadAll(ctx context.Context) ([]domain.Segment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Segment), args.Error(1)
}

func (m *MockSegmentRepository) InsertSegments(ctx context.Context, segments []domain.Segment) error {
	args := m.Called(ctx, segments)
	return args.Error(0)
}

func (m *MockSegmentRepository) UpdateSegment(ctx context.Context, segment domain.Segment) error {
	args := m.Called(ctx, segment)
	return args.Error(0)
}

func (m *MockSegmentRepository) DeleteSegments(ctx context.Context, ids []string) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetSegments(ctx context.Context) ([]domain.Segment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Segment), args.Error(1)
}

func (m *MockCache) SetSegments(ctx context.Context, segments []domain.Segment) error {
	args := m.Called(ctx, segments)
	return args.Error(0)
}

func (m *MockCache) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

var testClock = fixedClock{now: time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T, seed []domain.Segment) (*Store, *MockSegmentRepository) {
	t.Helper()
	repo := &MockSegmentRepository{}
	repo.On("LoadAll", mock.Anything).Return(seed, nil).Once()
	store := NewStore(repo, testClock)
	require.NoError(t, store.Load(context.Background()))
	return store, repo
}

func newTestService(store *Store, users *MockUserRepository) *BookingService {
	return NewBookingService(store, users, nil, nil, "", testClock, testLogger())
}

var (
	selfActor  = Actor{ID: "user1", Name: "Max Mustermann", Role: domain.RoleUser}
	adminActor = Actor{ID: "admin1", Name: "Verwalter", Role: domain.RoleAdmin}
)

func TestBookingService_CreateBooking_Success(t *testing.T) {
	store, repo := newTestStore(t, nil)
	service := newTestService(store, &MockUserRepository{})
	repo.On("InsertSegments", mock.Anything, mock.Anything).Return(nil)

	created, err := service.CreateBooking(context.Background(), selfActor, CreateBookingInput{
		StartDate: day(t, "2025-07-01"),
		EndDate:   day(t, "2025-07-07"),
	})

	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, domain.StatusReserved, created[0].Status)
	assert.Equal(t, "user1", created[0].UserID)
	assert.Equal(t, "Max Mustermann", created[0].UserName)
	assert.NotEmpty(t, created[0].ID)
	assert.Equal(t, testClock.now, created[0].CreatedAt)
	assert.Equal(t, 1, store.Count())
	repo.AssertExpectations(t)
}

func TestBookingService_CreateBooking_OverlapDegradesToAnfrage(t *testing.T) {
	seed := []domain.Segment{
		existingSegment(t, "user2", "2025-07-03", "2025-07-05", domain.StatusConfirmed),
	}
	store, repo := newTestStore(t, seed)
	service := newTestService(store, &MockUserRepository{})
	repo.On("InsertSegments", mock.Anything, mock.Anything).Return(nil)

	created, err := service.CreateBooking(context.Background(), selfActor, CreateBookingInput{
		StartDate: day(t, "2025-07-01"),
		EndDate:   day(t, "2025-07-07"),
		Status:    domain.StatusConfirmed,
	})

	require.NoError(t, err)
	require.Len(t, created, 3)
	assert.Equal(t, domain.StatusConfirmed, created[0].Status)
	assert.Equal(t, domain.StatusAnfrage, created[1].Status)
	assert.Equal(t, domain.StatusConfirmed, created[2].Status)
	assert.Equal(t, 4, store.Count())
}

func TestBookingService_CreateBooking_PersistFailureLeavesStoreUnchanged(t *testing.T) {
	store, repo := newTestStore(t, nil)
	service := newTestService(store, &MockUserRepository{})
	repo.On("InsertSegments", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	_, err := service.CreateBooking(context.Background(), selfActor, CreateBookingInput{
		StartDate: day(t, "2025-07-01"),
		EndDate:   day(t, "2025-07-07"),
	})

	require.Error(t, err)
	assert.Equal(t, 0, store.Count())
}

func TestBookingService_CreateBooking_BackdatedRejected(t *testing.T) {
	store, repo := newTestStore(t, nil)
	service := newTestService(store, &MockUserRepository{})

	_, err := service.CreateBooking(context.Background(), selfActor, CreateBookingInput{
		StartDate: day(t, "2025-05-20"),
		EndDate:   day(t, "2025-05-25"),
	})

	assert.ErrorIs(t, err, ErrInvalidDateRange)
	repo.AssertNotCalled(t, "InsertSegments", mock.Anything, mock.Anything)
}

func TestBookingService_CreateBooking_InvalidStatus(t *testing.T) {
	store, _ := newTestStore(t, nil)
	service := newTestService(store, &MockUserRepository{})

	_, err := service.CreateBooking(context.Background(), selfActor, CreateBookingInput{
		StartDate: day(t, "2025-07-01"),
		EndDate:   day(t, "2025-07-07"),
		Status:    "blocked",
	})

	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestBookingService_CreateBooking_NonAdminCannotBookForOthers(t *testing.T) {
	store, _ := newTestStore(t, nil)
	service := newTestService(store, &MockUserRepository{})

	_, err := service.CreateBooking(context.Background(), selfActor, CreateBookingInput{
		StartDate: day(t, "2025-07-01"),
		EndDate:   day(t, "2025-07-07"),
		UserID:    "user2",
	})

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestBookingService_CreateBooking_NonAdminCannotRequestAnfrage(t *testing.T) {
	store, _ := newTestStore(t, nil)
	service := newTestService(store, &MockUserRepository{})

	_, err := service.CreateBooking(context.Background(), selfActor, CreateBookingInput{
		StartDate: day(t, "2025-07-01"),
		EndDate:   day(t, "2025-07-07"),
		Status:    domain.StatusAnfrage,
	})

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestBookingService_CreateBooking_AdminRequiresTargetOwner(t *testing.T) {
	store, _ := newTestStore(t, nil)
	service := newTestService(store, &MockUserRepository{})

	_, err := service.CreateBooking(context.Background(), adminActor, CreateBookingInput{
		StartDate: day(t, "2025-07-01"),
		EndDate:   day(t, "2025-07-07"),
	})

	assert.ErrorIs(t, err, ErrMissingOwner)
}

func TestBookingService_CreateBooking_AdminBooksForUser(t *testing.T) {
	store, repo := newTestStore(t, nil)
	users := &MockUserRepository{}
	users.On("GetByID", mock.Anything, "user2").Return(&domain.User{
		ID:   "user2",
		Name: "Erika Musterfrau",
		Role: domain.RoleUser,
	}, nil)
	service := newTestService(store, users)
	repo.On("InsertSegments", mock.Anything, mock.Anything).Return(nil)

	created, err := service.CreateBooking(context.Background(), adminActor, CreateBookingInput{
		StartDate: day(t, "2025-07-01"),
		EndDate:   day(t, "2025-07-07"),
		UserID:    "user2",
	})

	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "user2", created[0].UserID)
	assert.Equal(t, "Erika Musterfrau", created[0].UserName)
	users.AssertExpectations(t)
}

func TestBookingService_CreateBooking_PublishesEventsAndInvalidatesCache(t *testing.T) {
	store, repo := newTestStore(t, nil)
	repo.On("InsertSegments", mock.Anything, mock.Anything).Return(nil)
	cache := &MockCache{}
	cache.On("Invalidate", mock.Anything).Return(nil)
	producer := &MockProducer{}
	producer.On("Publish", mock.Anything, "booking-events", mock.Anything, mock.Anything).Return(nil)
	producer.On("Publish", mock.Anything, "booking-notifications", mock.Anything, mock.Anything).Return(nil)

	service := NewBookingService(store, &MockUserRepository{}, cache, producer, "booking-events",
		testClock, testLogger(), WithNotificationsTopic("booking-notifications"))

	_, err := service.CreateBooking(context.Background(), selfActor, CreateBookingInput{
		StartDate: day(t, "2025-07-01"),
		EndDate:   day(t, "2025-07-07"),
	})

	require.NoError(t, err)
	cache.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestBookingService_UpdateBooking_NonAdminCommitIntoOccupiedRange(t *testing.T) {
	own := existingSegment(t, "user1", "2025-07-01", "2025-07-05", domain.StatusReserved)
	other := existingSegment(t, "user2", "2025-07-08", "2025-07-10", domain.StatusConfirmed)
	store, repo := newTestStore(t, []domain.Segment{own, other})
	service := newTestService(store, &MockUserRepository{})

	newEnd := day(t, "2025-07-09")
	_, err := service.UpdateBooking(context.Background(), selfActor, own.ID, UpdateBookingInput{
		EndDate: &newEnd,
	})

	assert.ErrorIs(t, err, ErrCommittedOverlap)
	repo.AssertNotCalled(t, "UpdateSegment", mock.Anything, mock.Anything)
	unchanged, ok := store.Get(own.ID)
	require.True(t, ok)
	assert.True(t, unchanged.EndDate.Equal(own.EndDate))
}

func TestBookingService_UpdateBooking_SelfOverlapExcluded(t *testing.T) {
	own := existingSegment(t, "user1", "2025-07-01", "2025-07-05", domain.StatusConfirmed)
	store, repo := newTestStore(t, []domain.Segment{own})
	service := newTestService(store, &MockUserRepository{})
	repo.On("UpdateSegment", mock.Anything, mock.Anything).Return(nil)

	newEnd := day(t, "2025-07-06")
	updated, err := service.UpdateBooking(context.Background(), selfActor, own.ID, UpdateBookingInput{
		EndDate: &newEnd,
	})

	require.NoError(t, err)
	assert.Equal(t, "2025-07-06", updated.EndDate.String())
}

func TestBookingService_UpdateBooking_AdminResolvesAnfrageInPlace(t *testing.T) {
	pending := existingSegment(t, "user1", "2025-07-03", "2025-07-05", domain.StatusAnfrage)
	blocker := existingSegment(t, "user2", "2025-07-01", "2025-07-10", domain.StatusConfirmed)
	store, repo := newTestStore(t, []domain.Segment{pending, blocker})
	service := newTestService(store, &MockUserRepository{})
	repo.On("UpdateSegment", mock.Anything, mock.Anything).Return(nil)

	confirmed := domain.StatusConfirmed
	updated, err := service.UpdateBooking(context.Background(), adminActor, pending.ID, UpdateBookingInput{
		Status: &confirmed,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, updated.Status)
}

func TestBookingService_UpdateBooking_NonAdminForeignSegment(t *testing.T) {
	foreign := existingSegment(t, "user2", "2025-07-01", "2025-07-05", domain.StatusReserved)
	store, _ := newTestStore(t, []domain.Segment{foreign})
	service := newTestService(store, &MockUserRepository{})

	confirmed := domain.StatusConfirmed
	_, err := service.UpdateBooking(context.Background(), selfActor, foreign.ID, UpdateBookingInput{
		Status: &confirmed,
	})

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestBookingService_UpdateBooking_NonAdminCannotTouchOwnAnfrage(t *testing.T) {
	pending := existingSegment(t, "user1", "2025-07-03", "2025-07-05", domain.StatusAnfrage)
	store, _ := newTestStore(t, []domain.Segment{pending})
	service := newTestService(store, &MockUserRepository{})

	confirmed := domain.StatusConfirmed
	_, err := service.UpdateBooking(context.Background(), selfActor, pending.ID, UpdateBookingInput{
		Status: &confirmed,
	})

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestBookingService_UpdateBooking_AdminRetargetsOwner(t *testing.T) {
	seg := existingSegment(t, "user1", "2025-07-01", "2025-07-05", domain.StatusReserved)
	store, repo := newTestStore(t, []domain.Segment{seg})
	users := &MockUserRepository{}
	users.On("GetByID", mock.Anything, "user2").Return(&domain.User{
		ID:   "user2",
		Name: "Erika Musterfrau",
	}, nil)
	service := newTestService(store, users)
	repo.On("UpdateSegment", mock.Anything, mock.Anything).Return(nil)

	target := "user2"
	updated, err := service.UpdateBooking(context.Background(), adminActor, seg.ID, UpdateBookingInput{
		UserID: &target,
	})

	require.NoError(t, err)
	assert.Equal(t, "user2", updated.UserID)
	assert.Equal(t, "Erika Musterfrau", updated.UserName)
}

func TestBookingService_UpdateBooking_NotFound(t *testing.T) {
	store, _ := newTestStore(t, nil)
	service := newTestService(store, &MockUserRepository{})

	_, err := service.UpdateBooking(context.Background(), adminActor, "missing", UpdateBookingInput{})

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBookingService_DeleteBooking_RemovesWholeRequestGroup(t *testing.T) {
	group, err := Reconcile(
		day(t, "2025-07-01"), day(t, "2025-07-07"),
		domain.StatusConfirmed,
		Owner{ID: "user1", Name: "Max Mustermann"},
		[]domain.Segment{existingSegment(t, "user2", "2025-07-03", "2025-07-04", domain.StatusConfirmed)},
	)
	require.NoError(t, err)
	require.Len(t, group, 3)
	for i := range group {
		group[i].ID = group[i].StartDate.String()
	}

	store, repo := newTestStore(t, group)
	service := newTestService(store, &MockUserRepository{})
	repo.On("DeleteSegments", mock.Anything, mock.MatchedBy(func(ids []string) bool {
		return len(ids) == 3
	})).Return(nil)

	removed, err := service.DeleteBooking(context.Background(), selfActor, group[1].ID)

	require.NoError(t, err)
	assert.Len(t, removed, 3)
	assert.Equal(t, 0, store.Count())
	repo.AssertExpectations(t)
}

func TestBookingService_DeleteBooking_NonAdminForeignSegment(t *testing.T) {
	foreign := existingSegment(t, "user2", "2025-07-01", "2025-07-05", domain.StatusReserved)
	store, _ := newTestStore(t, []domain.Segment{foreign})
	service := newTestService(store, &MockUserRepository{})

	_, err := service.DeleteBooking(context.Background(), selfActor, foreign.ID)

	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, 1, store.Count())
}

func TestBookingService_ListBookings_Filters(t *testing.T) {
	seed := []domain.Segment{
		{ID: "a1", UserID: "user1", UserName: "Max Mustermann", StartDate: day(t, "2025-07-01"), EndDate: day(t, "2025-07-05"), Status: domain.StatusReserved},
		{ID: "b2", UserID: "user2", UserName: "Erika Musterfrau", StartDate: day(t, "2025-07-06"), EndDate: day(t, "2025-07-10"), Status: domain.StatusAnfrage},
		{ID: "c3", UserID: "user2", UserName: "Erika Musterfrau", StartDate: day(t, "2025-08-01"), EndDate: day(t, "2025-08-05"), Status: domain.StatusConfirmed},
	}
	store, _ := newTestStore(t, seed)
	service := newTestService(store, &MockUserRepository{})

	all, err := service.ListBookings(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	pending, err := service.ListBookings(context.Background(), ListFilter{Status: domain.StatusAnfrage})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "b2", pending[0].ID)

	erika, err := service.ListBookings(context.Background(), ListFilter{Query: "erika"})
	require.NoError(t, err)
	assert.Len(t, erika, 2)

	byID, err := service.ListBookings(context.Background(), ListFilter{Query: "a1"})
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, "a1", byID[0].ID)
}

func TestBookingService_MonthCalendar_CacheMiss(t *testing.T) {
	seg := existingSegment(t, "user1", "2025-07-10", "2025-07-12", domain.StatusConfirmed)
	store, _ := newTestStore(t, []domain.Segment{seg})
	cache := &MockCache{}
	cache.On("GetSegments", mock.Anything).Return(nil, nil)
	cache.On("SetSegments", mock.Anything, mock.Anything).Return(nil)

	service := NewBookingService(store, &MockUserRepository{}, cache, nil, "", testClock, testLogger())

	cal, err := service.MonthCalendar(context.Background(), 2025, time.July)

	require.NoError(t, err)
	assert.Equal(t, 2025, cal.Year)
	assert.Equal(t, time.July, cal.Month)
	require.Len(t, cal.Days, 31)
	assert.Empty(t, cal.Days[8].Segments)
	require.Len(t, cal.Days[9].Segments, 1)
	assert.Equal(t, seg.ID, cal.Days[9].Segments[0].ID)
	require.Len(t, cal.Days[11].Segments, 1)
	assert.Empty(t, cal.Days[12].Segments)
	cache.AssertExpectations(t)
}

func TestBookingService_MonthCalendar_CacheHit(t *testing.T) {
	store, _ := newTestStore(t, nil)
	cached := []domain.Segment{existingSegment(t, "user1", "2025-07-01", "2025-07-01", domain.StatusReserved)}
	cache := &MockCache{}
	cache.On("GetSegments", mock.Anything).Return(cached, nil)

	service := NewBookingService(store, &MockUserRepository{}, cache, nil, "", testClock, testLogger())

	cal, err := service.MonthCalendar(context.Background(), 2025, time.July)

	require.NoError(t, err)
	require.Len(t, cal.Days[0].Segments, 1)
	cache.AssertNotCalled(t, "SetSegments", mock.Anything, mock.Anything)
}

func TestBookingService_IsRangeAvailable(t *testing.T) {
	committed := existingSegment(t, "user2", "2025-07-05", "2025-07-10", domain.StatusConfirmed)
	pending := existingSegment(t, "user3", "2025-07-15", "2025-07-20", domain.StatusAnfrage)
	store, _ := newTestStore(t, []domain.Segment{committed, pending})
	service := newTestService(store, &MockUserRepository{})

	available, err := service.IsRangeAvailable(context.Background(), day(t, "2025-07-08"), day(t, "2025-07-12"), "")
	require.NoError(t, err)
	assert.False(t, available)

	available, err = service.IsRangeAvailable(context.Background(), day(t, "2025-07-08"), day(t, "2025-07-12"), committed.ID)
	require.NoError(t, err)
	assert.True(t, available)

	available, err = service.IsRangeAvailable(context.Background(), day(t, "2025-07-15"), day(t, "2025-07-20"), "")
	require.NoError(t, err)
	assert.True(t, available)

	_, err = service.IsRangeAvailable(context.Background(), day(t, "2025-07-12"), day(t, "2025-07-08"), "")
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}
