package user

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/ilia-darchiashvili/bike-rentals/internal/reservation"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const userColumns = `id, name, email, password_hash, is_manager, image, created_at`

func (r *repository) Create(ctx context.Context, name, email, passwordHash string, isManager bool) (*User, error) {
	query := `
		INSERT INTO users (name, email, password_hash, is_manager)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	var u User
	err := r.db.GetContext(ctx, &u, query, name, email, passwordHash, isManager)
	if err != nil {
		return nil, err
	}

	return &u, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) FindByID(ctx context.Context, id int) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *repository) GetAll(ctx context.Context) ([]User, error) {
	var users []User
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *repository) Update(ctx context.Context, u *User) (*User, error) {
	query := `
		UPDATE users
		SET name = $1, email = $2, is_manager = $3
		WHERE id = $4
		RETURNING ` + userColumns

	var updated User
	err := r.db.GetContext(ctx, &updated, query, u.Name, u.Email, u.IsManager, u.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *repository) Delete(ctx context.Context, id int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists bool
	err = tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrUserNotFound
	}

	// The user's reservations come off the bikes they were held on, so no bike
	// keeps a slot blocked by an account that no longer exists.
	if _, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE user_id = $1`, id); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM reserved_bikes WHERE user_id = $1`, id); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *repository) GetReservedBikes(ctx context.Context, userID int) ([]reservation.BikeSnapshot, error) {
	var rows []json.RawMessage
	err := r.db.SelectContext(ctx, &rows, `
		SELECT snapshot
		FROM reserved_bikes
		WHERE user_id = $1
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, err
	}

	snapshots := make([]reservation.BikeSnapshot, 0, len(rows))
	for _, raw := range rows {
		var snap reservation.BikeSnapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}

	return snapshots, nil
}
