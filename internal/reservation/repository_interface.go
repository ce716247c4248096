package reservation

import (
	"context"

	"github.com/ilia-darchiashvili/bike-rentals/internal/interval"
)

type Repository interface {
	// Reserve runs the two-sided booking as one transaction: it locks the bike
	// row, re-validates non-overlap against the current reservation list, inserts
	// the reservation and appends a bike-snapshot back-reference to the user.
	Reserve(ctx context.Context, bikeID, userID int, iv interval.Interval) (*ReserveResult, error)

	// Cancel runs the two-sided removal as one transaction. A reservation id
	// that matches nothing is a no-op and still succeeds.
	Cancel(ctx context.Context, bikeID int, reservationID string, userID int) (*CancelResult, error)

	GetByBike(ctx context.Context, bikeID int) ([]Reservation, error)
	GetByID(ctx context.Context, reservationID string) (*Reservation, error)
}
