package reservation

import (
	"time"

	"github.com/ilia-darchiashvili/bike-rentals/internal/interval"
)

// Reservation is owned by its bike. The user email is a denormalized copy kept
// for display without a join.
type Reservation struct {
	ID        string    `db:"id" json:"id"`
	BikeID    int       `db:"bike_id" json:"-"`
	UserID    int       `db:"user_id" json:"userId"`
	UserEmail string    `db:"user_email" json:"userEmail,omitempty"`
	From      time.Time `db:"from_time" json:"from"`
	To        time.Time `db:"to_time" json:"to"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}

func (r Reservation) Interval() interval.Interval {
	return interval.Interval{From: r.From.UTC(), To: r.To.UTC()}
}

func Intervals(reservations []Reservation) []interval.Interval {
	out := make([]interval.Interval, 0, len(reservations))
	for _, r := range reservations {
		out = append(out, r.Interval())
	}
	return out
}

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// BikeSnapshot is the denormalized bike document stored as a back-reference in
// the reserving user's collection, one row per booking. It freezes the bike and
// its reservation list as they were at booking time.
type BikeSnapshot struct {
	ID           int           `json:"id"`
	Model        string        `json:"model"`
	Color        string        `json:"color"`
	Address      string        `json:"address"`
	Rating       *float64      `json:"rating,omitempty"`
	Image        *string       `json:"image,omitempty"`
	Location     Location      `json:"location"`
	IsAvailable  bool          `json:"isAvailable"`
	Reservations []Reservation `json:"reservations"`
}

// HasReservation reports whether the snapshot's frozen reservation list carries
// the given reservation id.
func (s BikeSnapshot) HasReservation(reservationID string) bool {
	for _, r := range s.Reservations {
		if r.ID == reservationID {
			return true
		}
	}
	return false
}

// ReserveResult carries everything the booking transaction observed, so the
// service can notify the user without further reads.
type ReserveResult struct {
	Reservations []Reservation
	Created      Reservation
	BikeModel    string
	UserName     string
	UserEmail    string
}

// CancelResult mirrors ReserveResult for cancellations. Removed is nil when the
// reservation id did not match anything (the idempotent no-op path).
type CancelResult struct {
	Reservations []Reservation
	Removed      *Reservation
	BikeModel    string
	UserName     string
	UserEmail    string
}
