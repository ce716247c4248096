package reservation

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ilia-darchiashvili/bike-rentals/internal/interval"
	"github.com/ilia-darchiashvili/bike-rentals/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Init()

	code := m.Run()
	os.Exit(code)
}

// Mock repository and mailer
type MockRepo struct{ mock.Mock }
type MockMailer struct{ mock.Mock }

func (m *MockRepo) Reserve(ctx context.Context, bikeID, userID int, iv interval.Interval) (*ReserveResult, error) {
	args := m.Called(ctx, bikeID, userID, iv)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ReserveResult), args.Error(1)
}

func (m *MockRepo) Cancel(ctx context.Context, bikeID int, reservationID string, userID int) (*CancelResult, error) {
	args := m.Called(ctx, bikeID, reservationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CancelResult), args.Error(1)
}

func (m *MockRepo) GetByBike(ctx context.Context, bikeID int) ([]Reservation, error) {
	args := m.Called(ctx, bikeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Reservation), args.Error(1)
}

func (m *MockRepo) GetByID(ctx context.Context, reservationID string) (*Reservation, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Reservation), args.Error(1)
}

func (m *MockMailer) SendReservationConfirmation(ctx context.Context, email, name, bikeModel string, from, to time.Time) error {
	return m.Called(ctx, email, name, bikeModel, from, to).Error(0)
}

func (m *MockMailer) SendReservationCancellation(ctx context.Context, email, name, bikeModel string) error {
	return m.Called(ctx, email, name, bikeModel).Error(0)
}

func ts(hour, min int) time.Time {
	return time.Date(2024, 5, 14, hour, min, 0, 0, time.UTC)
}

func TestReserve_Success(t *testing.T) {
	repo := new(MockRepo)
	mailer := new(MockMailer)
	svc := NewService(repo, mailer)

	created := Reservation{ID: "res-1", BikeID: 1, UserID: 7, From: ts(10, 0), To: ts(12, 0)}
	result := &ReserveResult{
		Reservations: []Reservation{created},
		Created:      created,
		BikeModel:    "Mountain Pro",
		UserName:     "Ana",
		UserEmail:    "ana@example.com",
	}

	repo.On("GetByBike", mock.Anything, 1).Return([]Reservation{}, nil)
	repo.On("Reserve", mock.Anything, 1, 7, mock.Anything).Return(result, nil)
	mailer.On("SendReservationConfirmation", mock.Anything, "ana@example.com", "Ana", "Mountain Pro", ts(10, 0), ts(12, 0)).Return(nil)

	reservations, err := svc.Reserve(context.Background(), 1, 7, ts(10, 0), ts(12, 0))
	require.NoError(t, err)
	assert.Len(t, reservations, 1)
	assert.Equal(t, "res-1", reservations[0].ID)

	repo.AssertExpectations(t)
	mailer.AssertExpectations(t)
}

func TestReserve_OverlapRejected(t *testing.T) {
	repo := new(MockRepo)
	svc := NewService(repo, nil)

	existing := []Reservation{
		{ID: "res-1", BikeID: 1, UserID: 2, From: ts(11, 0), To: ts(12, 0)},
	}
	repo.On("GetByBike", mock.Anything, 1).Return(existing, nil)

	_, err := svc.Reserve(context.Background(), 1, 7, ts(10, 30), ts(11, 30))
	assert.ErrorIs(t, err, ErrConflict)

	repo.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReserve_TouchingIntervalsAccepted(t *testing.T) {
	repo := new(MockRepo)
	svc := NewService(repo, nil)

	existing := []Reservation{
		{ID: "res-1", BikeID: 1, UserID: 2, From: ts(10, 0), To: ts(11, 0)},
	}
	created := Reservation{ID: "res-2", BikeID: 1, UserID: 7, From: ts(11, 0), To: ts(12, 0)}
	result := &ReserveResult{
		Reservations: append(existing, created),
		Created:      created,
		BikeModel:    "City Cruiser",
		UserName:     "Ana",
		UserEmail:    "ana@example.com",
	}

	repo.On("GetByBike", mock.Anything, 1).Return(existing, nil)
	repo.On("Reserve", mock.Anything, 1, 7, mock.Anything).Return(result, nil)

	reservations, err := svc.Reserve(context.Background(), 1, 7, ts(11, 0), ts(12, 0))
	require.NoError(t, err)
	assert.Len(t, reservations, 2)
}

func TestReserve_InvalidInterval(t *testing.T) {
	repo := new(MockRepo)
	svc := NewService(repo, nil)

	_, err := svc.Reserve(context.Background(), 1, 7, ts(12, 0), ts(10, 0))
	assert.ErrorIs(t, err, interval.ErrInvalidInterval)

	_, err = svc.Reserve(context.Background(), 1, 7, ts(10, 0), ts(10, 0))
	assert.ErrorIs(t, err, interval.ErrInvalidInterval)

	repo.AssertNotCalled(t, "GetByBike", mock.Anything, mock.Anything)
}

func TestReserve_ConflictFromRepository(t *testing.T) {
	repo := new(MockRepo)
	svc := NewService(repo, nil)

	// Admission check passes, the in-transaction re-check loses the race.
	repo.On("GetByBike", mock.Anything, 1).Return([]Reservation{}, nil)
	repo.On("Reserve", mock.Anything, 1, 7, mock.Anything).Return(nil, ErrConflict)

	_, err := svc.Reserve(context.Background(), 1, 7, ts(10, 0), ts(12, 0))
	assert.ErrorIs(t, err, ErrConflict)
}

func TestReserve_BikeNotFound(t *testing.T) {
	repo := new(MockRepo)
	svc := NewService(repo, nil)

	repo.On("GetByBike", mock.Anything, 99).Return([]Reservation{}, nil)
	repo.On("Reserve", mock.Anything, 99, 7, mock.Anything).Return(nil, ErrBikeNotFound)

	_, err := svc.Reserve(context.Background(), 99, 7, ts(10, 0), ts(12, 0))
	assert.ErrorIs(t, err, ErrBikeNotFound)
}

func TestReserve_MailerFailureDoesNotFailBooking(t *testing.T) {
	repo := new(MockRepo)
	mailer := new(MockMailer)
	svc := NewService(repo, mailer)

	created := Reservation{ID: "res-1", BikeID: 1, UserID: 7, From: ts(10, 0), To: ts(12, 0)}
	result := &ReserveResult{
		Reservations: []Reservation{created},
		Created:      created,
		BikeModel:    "Mountain Pro",
		UserName:     "Ana",
		UserEmail:    "ana@example.com",
	}

	repo.On("GetByBike", mock.Anything, 1).Return([]Reservation{}, nil)
	repo.On("Reserve", mock.Anything, 1, 7, mock.Anything).Return(result, nil)
	mailer.On("SendReservationConfirmation", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

	reservations, err := svc.Reserve(context.Background(), 1, 7, ts(10, 0), ts(12, 0))
	require.NoError(t, err)
	assert.Len(t, reservations, 1)
}

func TestCancel_RemovesReservation(t *testing.T) {
	repo := new(MockRepo)
	mailer := new(MockMailer)
	svc := NewService(repo, mailer)

	removed := Reservation{ID: "res-1", BikeID: 1, UserID: 7, From: ts(10, 0), To: ts(12, 0)}
	result := &CancelResult{
		Reservations: []Reservation{},
		Removed:      &removed,
		BikeModel:    "Mountain Pro",
		UserName:     "Ana",
		UserEmail:    "ana@example.com",
	}

	repo.On("Cancel", mock.Anything, 1, "res-1", 7).Return(result, nil)
	mailer.On("SendReservationCancellation", mock.Anything, "ana@example.com", "Ana", "Mountain Pro").Return(nil)

	reservations, err := svc.Cancel(context.Background(), 1, "res-1", 7)
	require.NoError(t, err)
	assert.Empty(t, reservations)

	mailer.AssertExpectations(t)
}

func TestCancel_UnknownIDIsNoop(t *testing.T) {
	repo := new(MockRepo)
	mailer := new(MockMailer)
	svc := NewService(repo, mailer)

	existing := []Reservation{
		{ID: "res-1", BikeID: 1, UserID: 7, From: ts(10, 0), To: ts(12, 0)},
	}
	result := &CancelResult{
		Reservations: existing,
		Removed:      nil,
		BikeModel:    "Mountain Pro",
		UserName:     "Ana",
		UserEmail:    "ana@example.com",
	}

	repo.On("Cancel", mock.Anything, 1, "no-such-id", 7).Return(result, nil)

	reservations, err := svc.Cancel(context.Background(), 1, "no-such-id", 7)
	require.NoError(t, err)
	assert.Equal(t, existing, reservations)

	// Nothing was removed, nobody gets mail.
	mailer.AssertNotCalled(t, "SendReservationCancellation", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCancel_BikeNotFound(t *testing.T) {
	repo := new(MockRepo)
	svc := NewService(repo, nil)

	repo.On("Cancel", mock.Anything, 99, "res-1", 7).Return(nil, ErrBikeNotFound)

	_, err := svc.Cancel(context.Background(), 99, "res-1", 7)
	assert.ErrorIs(t, err, ErrBikeNotFound)
}

// fakeRepo keeps reservations in memory behind a mutex and enforces the
// overlap rule the way the database transaction does, so concurrent bookings
// serialize on one bike.
type fakeRepo struct {
	mu           sync.Mutex
	reservations []Reservation
}

func (f *fakeRepo) Reserve(ctx context.Context, bikeID, userID int, iv interval.Interval) (*ReserveResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !interval.CanAccept(Intervals(f.reservations), iv) {
		return nil, ErrConflict
	}

	created := Reservation{
		ID:     uuid.NewString(),
		BikeID: bikeID,
		UserID: userID,
		From:   iv.From,
		To:     iv.To,
	}
	f.reservations = append(f.reservations, created)

	out := make([]Reservation, len(f.reservations))
	copy(out, f.reservations)
	return &ReserveResult{Reservations: out, Created: created}, nil
}

func (f *fakeRepo) Cancel(ctx context.Context, bikeID int, reservationID string, userID int) (*CancelResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var removed *Reservation
	kept := f.reservations[:0]
	for _, res := range f.reservations {
		if res.ID == reservationID {
			r := res
			removed = &r
			continue
		}
		kept = append(kept, res)
	}
	f.reservations = kept

	out := make([]Reservation, len(f.reservations))
	copy(out, f.reservations)
	return &CancelResult{Reservations: out, Removed: removed}, nil
}

func (f *fakeRepo) GetByBike(ctx context.Context, bikeID int) ([]Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Reservation, len(f.reservations))
	copy(out, f.reservations)
	return out, nil
}

func (f *fakeRepo) GetByID(ctx context.Context, reservationID string) (*Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, res := range f.reservations {
		if res.ID == reservationID {
			r := res
			return &r, nil
		}
	}
	return nil, ErrReservationNotFound
}

func TestReserve_ConcurrentRequestsAdmitOne(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, nil)

	const workers = 16
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = svc.Reserve(context.Background(), 1, n+1, ts(10, 0), ts(12, 0))
		}(i)
	}
	wg.Wait()

	booked := 0
	for _, err := range errs {
		if err == nil {
			booked++
		} else {
			assert.ErrorIs(t, err, ErrConflict)
		}
	}
	assert.Equal(t, 1, booked)

	final, err := repo.GetByBike(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, final, 1)
}

func TestReserveCancelRoundTrip(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, nil)

	reservations, err := svc.Reserve(context.Background(), 1, 7, ts(10, 0), ts(12, 0))
	require.NoError(t, err)
	require.Len(t, reservations, 1)
	id := reservations[0].ID

	// Same window is taken while the reservation stands.
	_, err = svc.Reserve(context.Background(), 1, 8, ts(10, 0), ts(12, 0))
	require.ErrorIs(t, err, ErrConflict)

	reservations, err = svc.Cancel(context.Background(), 1, id, 7)
	require.NoError(t, err)
	assert.Empty(t, reservations)

	// Cancelling again is a no-op.
	reservations, err = svc.Cancel(context.Background(), 1, id, 7)
	require.NoError(t, err)
	assert.Empty(t, reservations)

	// The window is free again.
	reservations, err = svc.Reserve(context.Background(), 1, 8, ts(10, 0), ts(12, 0))
	require.NoError(t, err)
	assert.Len(t, reservations, 1)
}
