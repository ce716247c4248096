package bike

import (
	"time"

	"github.com/ilia-darchiashvili/bike-rentals/internal/reservation"
)

type Location struct {
	Lat float64 `db:"lat" json:"lat"`
	Lng float64 `db:"lng" json:"lng"`
}

// Bike is a manager-controlled listing. IsAvailable is the listing state and
// says nothing about the reservation calendar: a listed bike can be fully
// booked and a delisted one can still carry reservations.
type Bike struct {
	ID           int                       `db:"id" json:"id"`
	Model        string                    `db:"model" json:"model"`
	Color        string                    `db:"color" json:"color"`
	Address      string                    `db:"address" json:"address"`
	Rating       *float64                  `db:"rating" json:"rating,omitempty"`
	Image        *string                   `db:"image" json:"image,omitempty"`
	Location     Location                  `db:"location" json:"location"`
	IsAvailable  bool                      `db:"is_available" json:"isAvailable"`
	CreatedAt    time.Time                 `db:"created_at" json:"-"`
	Reservations []reservation.Reservation `db:"-" json:"reservations"`
}

type CreateBikeRequest struct {
	Model       string   `json:"model" binding:"required"`
	Color       string   `json:"color" binding:"required"`
	Address     string   `json:"address" binding:"required"`
	Rating      *float64 `json:"rating" binding:"omitempty,gte=0,lte=5"`
	IsAvailable *bool    `json:"isAvailable" binding:"required"`
}

type UpdateBikeRequest struct {
	Model       string   `json:"model" binding:"required"`
	Color       string   `json:"color" binding:"required"`
	Address     string   `json:"address" binding:"required"`
	Rating      *float64 `json:"rating" binding:"omitempty,gte=0,lte=5"`
	IsAvailable *bool    `json:"isAvailable" binding:"required"`
}

// Filters narrows the availability listing. Empty fields are skipped; set
// fields combine with AND. Rating is an exact match.
type Filters struct {
	Model   string
	Color   string
	Address string
	Rating  *float64
}
