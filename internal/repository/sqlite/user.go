package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/shop-admin/internal/apperror"
	"github.com/sakif/shop-admin/internal/model"
	"github.com/sakif/shop-admin/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// GetUserByID retrieves a user by the provider's user id.
// Returns apperror.ErrNotFound if no user exists with that id.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, email, picture, role, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Picture,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	return &u, nil
}

// UpsertUser inserts or updates a user keyed by the provider id.
//
// The id is never generated here; it always arrives from the provider, so
// the branch is a plain exists-check. On update we keep created_at and
// refresh updated_at; on insert both are set to now.
func (db *DB) UpsertUser(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		return fmt.Errorf("sqlite: upserting user: id must not be empty")
	}

	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)`, user.ID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("sqlite: checking user %s: %w", user.ID, err)
	}

	now := time.Now().UTC()
	if exists {
		user.UpdatedAt = now
		_, err = db.conn.ExecContext(ctx,
			`UPDATE users SET name = ?, email = ?, picture = ?, role = ?, updated_at = ?
			 WHERE id = ?`,
			user.Name,
			user.Email,
			user.Picture,
			user.Role,
			user.UpdatedAt,
			user.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
		}
		return nil
	}

	user.CreatedAt = now
	user.UpdatedAt = now
	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, email, picture, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		user.Picture,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user %s: %w", user.ID, err)
	}

	return nil
}

// DeleteUser removes a user row by provider id.
// A missing row returns apperror.ErrNotFound rather than succeeding; the
// caller decides whether that is benign.
func (db *DB) DeleteUser(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("user", id)
	}

	return nil
}
