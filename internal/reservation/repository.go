package reservation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ilia-darchiashvili/bike-rentals/internal/interval"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

type bikeRow struct {
	ID          int      `db:"id"`
	Model       string   `db:"model"`
	Color       string   `db:"color"`
	Address     string   `db:"address"`
	Rating      *float64 `db:"rating"`
	Image       *string  `db:"image"`
	Lat         float64  `db:"lat"`
	Lng         float64  `db:"lng"`
	IsAvailable bool     `db:"is_available"`
}

type userRow struct {
	ID    int    `db:"id"`
	Name  string `db:"name"`
	Email string `db:"email"`
}

const reservationColumns = `id, bike_id, user_id, user_email, from_time, to_time, created_at`

// lockBike reads the full bike row under FOR UPDATE. Every booking and
// cancellation on a bike goes through this lock, so its reservation list can
// only change under one transaction at a time.
func lockBike(ctx context.Context, tx *sqlx.Tx, bikeID int) (*bikeRow, error) {
	var bike bikeRow
	err := tx.GetContext(ctx, &bike, `
		SELECT id, model, color, address, rating, image, lat, lng, is_available
		FROM bikes
		WHERE id = $1
		FOR UPDATE
	`, bikeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBikeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &bike, nil
}

func getUser(ctx context.Context, tx *sqlx.Tx, userID int) (*userRow, error) {
	var usr userRow
	err := tx.GetContext(ctx, &usr, `SELECT id, name, email FROM users WHERE id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &usr, nil
}

func listByBike(ctx context.Context, q sqlx.QueryerContext, bikeID int) ([]Reservation, error) {
	var reservations []Reservation
	err := sqlx.SelectContext(ctx, q, &reservations, fmt.Sprintf(`
		SELECT %s
		FROM reservations
		WHERE bike_id = $1
		ORDER BY from_time ASC
	`, reservationColumns), bikeID)
	if err != nil {
		return nil, err
	}
	if reservations == nil {
		reservations = []Reservation{}
	}
	return reservations, nil
}

func (r *repository) Reserve(ctx context.Context, bikeID, userID int, iv interval.Interval) (*ReserveResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	bike, err := lockBike(ctx, tx, bikeID)
	if err != nil {
		return nil, err
	}

	usr, err := getUser(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	existing, err := listByBike(ctx, tx, bikeID)
	if err != nil {
		return nil, err
	}

	// Re-validation under the bike lock. The service already ran the admission
	// check, but a concurrent booking may have committed since.
	if !interval.CanAccept(Intervals(existing), iv) {
		return nil, ErrConflict
	}

	var created Reservation
	err = tx.GetContext(ctx, &created, fmt.Sprintf(`
		INSERT INTO reservations (id, bike_id, user_id, user_email, from_time, to_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s
	`, reservationColumns), uuid.NewString(), bikeID, userID, usr.Email, iv.From, iv.To)
	if err != nil {
		return nil, err
	}

	updated, err := listByBike(ctx, tx, bikeID)
	if err != nil {
		return nil, err
	}

	snapshot, err := json.Marshal(BikeSnapshot{
		ID:           bike.ID,
		Model:        bike.Model,
		Color:        bike.Color,
		Address:      bike.Address,
		Rating:       bike.Rating,
		Image:        bike.Image,
		Location:     Location{Lat: bike.Lat, Lng: bike.Lng},
		IsAvailable:  bike.IsAvailable,
		Reservations: updated,
	})
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reserved_bikes (user_id, bike_id, snapshot)
		VALUES ($1, $2, $3)
	`, userID, bikeID, snapshot)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &ReserveResult{
		Reservations: updated,
		Created:      created,
		BikeModel:    bike.Model,
		UserName:     usr.Name,
		UserEmail:    usr.Email,
	}, nil
}

func (r *repository) Cancel(ctx context.Context, bikeID int, reservationID string, userID int) (*CancelResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	bike, err := lockBike(ctx, tx, bikeID)
	if err != nil {
		return nil, err
	}

	usr, err := getUser(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	var removed *Reservation
	var match Reservation
	err = tx.GetContext(ctx, &match, fmt.Sprintf(`
		SELECT %s FROM reservations WHERE id = $1 AND bike_id = $2
	`, reservationColumns), reservationID, bikeID)
	switch {
	case err == nil:
		if _, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = $1`, reservationID); err != nil {
			return nil, err
		}
		removed = &match
	case errors.Is(err, sql.ErrNoRows):
		// Unknown reservation id: the collection is filtered and happens to
		// stay unchanged.
	default:
		return nil, err
	}

	if err := removeBackReference(ctx, tx, userID, bikeID, reservationID); err != nil {
		return nil, err
	}

	updated, err := listByBike(ctx, tx, bikeID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &CancelResult{
		Reservations: updated,
		Removed:      removed,
		BikeModel:    bike.Model,
		UserName:     usr.Name,
		UserEmail:    usr.Email,
	}, nil
}

// removeBackReference deletes the user's back-reference entry for this bike
// whose snapshot carries the reservation id. The whole entry goes, not just the
// matching reservation inside it; when nothing matches the user is untouched.
func removeBackReference(ctx context.Context, tx *sqlx.Tx, userID, bikeID int, reservationID string) error {
	type backRefRow struct {
		ID       int             `db:"id"`
		Snapshot json.RawMessage `db:"snapshot"`
	}

	var refs []backRefRow
	err := tx.SelectContext(ctx, &refs, `
		SELECT id, snapshot
		FROM reserved_bikes
		WHERE user_id = $1 AND bike_id = $2
		ORDER BY created_at ASC
	`, userID, bikeID)
	if err != nil {
		return err
	}

	for _, ref := range refs {
		var snap BikeSnapshot
		if err := json.Unmarshal(ref.Snapshot, &snap); err != nil {
			return err
		}
		if snap.HasReservation(reservationID) {
			_, err := tx.ExecContext(ctx, `DELETE FROM reserved_bikes WHERE id = $1`, ref.ID)
			return err
		}
	}

	return nil
}

func (r *repository) GetByBike(ctx context.Context, bikeID int) ([]Reservation, error) {
	return listByBike(ctx, r.db, bikeID)
}

func (r *repository) GetByID(ctx context.Context, reservationID string) (*Reservation, error) {
	var res Reservation
	err := r.db.GetContext(ctx, &res, fmt.Sprintf(`
		SELECT %s FROM reservations WHERE id = $1
	`, reservationColumns), reservationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}
