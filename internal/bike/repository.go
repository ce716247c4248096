package bike

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ilia-darchiashvili/bike-rentals/internal/reservation"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const bikeColumns = `id, model, color, address, rating, image,
	lat AS "location.lat", lng AS "location.lng", is_available, created_at`

func (r *repository) Create(ctx context.Context, b *Bike) (*Bike, error) {
	query := `
		INSERT INTO bikes (model, color, address, rating, lat, lng, is_available)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + bikeColumns

	var created Bike
	err := r.db.GetContext(ctx, &created, query,
		b.Model, b.Color, b.Address, b.Rating, b.Location.Lat, b.Location.Lng, b.IsAvailable)
	if err != nil {
		return nil, err
	}

	created.Reservations = []reservation.Reservation{}
	return &created, nil
}

func (r *repository) GetAll(ctx context.Context) ([]Bike, error) {
	query := `SELECT ` + bikeColumns + ` FROM bikes ORDER BY created_at DESC`

	var bikes []Bike
	if err := r.db.SelectContext(ctx, &bikes, query); err != nil {
		return nil, err
	}

	if err := r.attachReservations(ctx, bikes); err != nil {
		return nil, err
	}

	return bikes, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Bike, error) {
	query := `SELECT ` + bikeColumns + ` FROM bikes WHERE id = $1`

	var b Bike
	err := r.db.GetContext(ctx, &b, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBikeNotFound
	}
	if err != nil {
		return nil, err
	}

	bikes := []Bike{b}
	if err := r.attachReservations(ctx, bikes); err != nil {
		return nil, err
	}

	return &bikes[0], nil
}

func (r *repository) Update(ctx context.Context, b *Bike) (*Bike, error) {
	query := `
		UPDATE bikes
		SET model = $1, color = $2, address = $3, rating = $4, lat = $5, lng = $6, is_available = $7
		WHERE id = $8
		RETURNING ` + bikeColumns

	var updated Bike
	err := r.db.GetContext(ctx, &updated, query,
		b.Model, b.Color, b.Address, b.Rating, b.Location.Lat, b.Location.Lng, b.IsAvailable, b.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBikeNotFound
	}
	if err != nil {
		return nil, err
	}

	bikes := []Bike{updated}
	if err := r.attachReservations(ctx, bikes); err != nil {
		return nil, err
	}

	return &bikes[0], nil
}

func (r *repository) Delete(ctx context.Context, id int) (*string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var image *string
	err = tx.GetContext(ctx, &image, `SELECT image FROM bikes WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBikeNotFound
	}
	if err != nil {
		return nil, err
	}

	// Reservations go via FK cascade; back-references are stripped explicitly
	// so no user keeps a pointer to a bike that no longer exists.
	if _, err := tx.ExecContext(ctx, `DELETE FROM reserved_bikes WHERE bike_id = $1`, id); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM bikes WHERE id = $1`, id); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return image, nil
}

func (r *repository) SetImage(ctx context.Context, id int, path string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE bikes SET image = $1 WHERE id = $2`, path, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrBikeNotFound
	}

	return nil
}

func (r *repository) attachReservations(ctx context.Context, bikes []Bike) error {
	if len(bikes) == 0 {
		return nil
	}

	ids := make([]int, 0, len(bikes))
	for i := range bikes {
		bikes[i].Reservations = []reservation.Reservation{}
		ids = append(ids, bikes[i].ID)
	}

	var reservations []reservation.Reservation
	err := r.db.SelectContext(ctx, &reservations, `
		SELECT id, bike_id, user_id, user_email, from_time, to_time, created_at
		FROM reservations
		WHERE bike_id = ANY($1)
		ORDER BY from_time ASC
	`, pq.Array(ids))
	if err != nil {
		return err
	}

	byBike := make(map[int][]reservation.Reservation, len(bikes))
	for _, res := range reservations {
		byBike[res.BikeID] = append(byBike[res.BikeID], res)
	}

	for i := range bikes {
		if list, ok := byBike[bikes[i].ID]; ok {
			bikes[i].Reservations = list
		}
	}

	return nil
}
