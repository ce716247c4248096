package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/ilia-darchiashvili/bike-rentals/internal/interval"
	"github.com/ilia-darchiashvili/bike-rentals/internal/logger"
	"github.com/ilia-darchiashvili/bike-rentals/internal/metrics"
)

var (
	ErrBikeNotFound        = errors.New("bike not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrConflict            = errors.New("reservation overlaps an existing one")
)

// Mailer delivers reservation notifications. Failures are logged, never
// surfaced: the booking committed, the email is best effort.
type Mailer interface {
	SendReservationConfirmation(ctx context.Context, email, name, bikeModel string, from, to time.Time) error
	SendReservationCancellation(ctx context.Context, email, name, bikeModel string) error
}

type Service interface {
	Reserve(ctx context.Context, bikeID, userID int, from, to time.Time) ([]Reservation, error)
	Cancel(ctx context.Context, bikeID int, reservationID string, userID int) ([]Reservation, error)
	GetByBike(ctx context.Context, bikeID int) ([]Reservation, error)
	GetByID(ctx context.Context, reservationID string) (*Reservation, error)
}

type service struct {
	repo   Repository
	mailer Mailer
}

func NewService(repo Repository, mailer Mailer) Service {
	return &service{
		repo:   repo,
		mailer: mailer,
	}
}

func (s *service) Reserve(ctx context.Context, bikeID, userID int, from, to time.Time) ([]Reservation, error) {
	iv, err := interval.New(from, to)
	if err != nil {
		return nil, err
	}

	// Admission check. The repository re-validates under the bike lock, this
	// just rejects obvious conflicts without opening a transaction.
	existing, err := s.repo.GetByBike(ctx, bikeID)
	if err != nil {
		return nil, err
	}
	if !interval.CanAccept(Intervals(existing), iv) {
		metrics.RecordReservation("conflict")
		return nil, ErrConflict
	}

	result, err := s.repo.Reserve(ctx, bikeID, userID, iv)
	if err != nil {
		switch {
		case errors.Is(err, ErrConflict):
			metrics.RecordReservation("conflict")
		case errors.Is(err, ErrBikeNotFound), errors.Is(err, ErrUserNotFound):
			metrics.RecordReservation("not_found")
		default:
			metrics.RecordReservation("error")
		}
		return nil, err
	}

	metrics.RecordReservation("booked")
	logger.Info("bike reserved",
		"bike_id", bikeID,
		"user_id", userID,
		"reservation_id", result.Created.ID,
	)

	if s.mailer != nil {
		if err := s.mailer.SendReservationConfirmation(ctx, result.UserEmail, result.UserName, result.BikeModel, iv.From, iv.To); err != nil {
			logger.Error("failed to queue confirmation email", "error", err, "user_id", userID)
		}
	}

	return result.Reservations, nil
}

func (s *service) Cancel(ctx context.Context, bikeID int, reservationID string, userID int) ([]Reservation, error) {
	result, err := s.repo.Cancel(ctx, bikeID, reservationID, userID)
	if err != nil {
		return nil, err
	}

	if result.Removed != nil {
		metrics.RecordCancellation()
		logger.Info("reservation cancelled",
			"bike_id", bikeID,
			"user_id", userID,
			"reservation_id", reservationID,
		)

		if s.mailer != nil {
			if err := s.mailer.SendReservationCancellation(ctx, result.UserEmail, result.UserName, result.BikeModel); err != nil {
				logger.Error("failed to queue cancellation email", "error", err, "user_id", userID)
			}
		}
	}

	return result.Reservations, nil
}

func (s *service) GetByBike(ctx context.Context, bikeID int) ([]Reservation, error) {
	return s.repo.GetByBike(ctx, bikeID)
}

func (s *service) GetByID(ctx context.Context, reservationID string) (*Reservation, error) {
	return s.repo.GetByID(ctx, reservationID)
}
