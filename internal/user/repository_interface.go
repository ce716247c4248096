package user

import (
	"context"

	"github.com/ilia-darchiashvili/bike-rentals/internal/reservation"
)

type Repository interface {
	Create(ctx context.Context, name, email, passwordHash string, isManager bool) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	GetAll(ctx context.Context) ([]User, error)
	Update(ctx context.Context, u *User) (*User, error)

	// Delete removes the user together with every reservation they hold on any
	// bike and all of their back-reference rows, in one transaction.
	Delete(ctx context.Context, id int) error

	// GetReservedBikes returns the user's denormalized bike snapshots, one per
	// booking, oldest first.
	GetReservedBikes(ctx context.Context, userID int) ([]reservation.BikeSnapshot, error)
}
