package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/shop-admin/internal/apperror"
	"github.com/sakif/shop-admin/internal/model"
	"github.com/sakif/shop-admin/internal/repository"
)

// compile-time check that *DB implements repository.CategoryRepository
var _ repository.CategoryRepository = (*DB)(nil)

const categoryColumns = `id, name, image, url, featured, created_at, updated_at`

func scanCategory(row interface{ Scan(...any) error }) (*model.Category, error) {
	var c model.Category
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Image,
		&c.URL,
		&c.Featured,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByID retrieves a category by id.
// Returns apperror.ErrNotFound if it doesn't exist.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Category, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)

	c, err := scanCategory(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("category", id)
		}
		return nil, fmt.Errorf("sqlite: getting category %s: %w", id, err)
	}
	return c, nil
}

// List returns all categories, most recently updated first, the order the
// dashboard's data table shows them in.
func (db *DB) List(ctx context.Context) ([]model.Category, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning category: %w", err)
		}
		categories = append(categories, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: listing categories: %w", err)
	}

	return categories, nil
}

// FindConflicting looks for a category other than excludeID that already
// uses the given name or url. Returns (nil, nil) when there is no conflict.
//
// excludeID may be empty (creating a new category), in which case every
// existing row is a candidate.
func (db *DB) FindConflicting(ctx context.Context, name, url, excludeID string) (*model.Category, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories
		 WHERE (name = ? OR url = ?) AND id != ?
		 LIMIT 1`,
		name, url, excludeID)

	c, err := scanCategory(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite: finding conflicting category: %w", err)
	}
	return c, nil
}

// Upsert inserts or updates a category. A category without an ID is new:
// it gets an xid and an INSERT. With an ID we update when the row exists
// and insert otherwise (the dashboard may retry a create with the id it
// already displayed).
func (db *DB) Upsert(ctx context.Context, category *model.Category) error {
	now := time.Now().UTC()

	if category.ID == "" {
		category.ID = xid.New().String()
		category.CreatedAt = now
		category.UpdatedAt = now
		return db.insertCategory(ctx, category)
	}

	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM categories WHERE id = ?)`, category.ID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("sqlite: checking category %s: %w", category.ID, err)
	}

	if !exists {
		category.CreatedAt = now
		category.UpdatedAt = now
		return db.insertCategory(ctx, category)
	}

	category.UpdatedAt = now
	_, err = db.conn.ExecContext(ctx,
		`UPDATE categories SET name = ?, image = ?, url = ?, featured = ?, updated_at = ?
		 WHERE id = ?`,
		category.Name,
		category.Image,
		category.URL,
		category.Featured,
		category.UpdatedAt,
		category.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating category %s: %w", category.ID, err)
	}
	return nil
}

func (db *DB) insertCategory(ctx context.Context, category *model.Category) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO categories (id, name, image, url, featured, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		category.ID,
		category.Name,
		category.Image,
		category.URL,
		category.Featured,
		category.CreatedAt,
		category.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting category %s: %w", category.ID, err)
	}
	return nil
}

// Delete removes a category by id.
// Returns apperror.ErrNotFound if the category doesn't exist.
func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting category %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: deleting category %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("category", id)
	}

	return nil
}
