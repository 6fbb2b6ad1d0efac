// Package repository declares the storage interfaces consumed by the
// service layer. The sqlite subpackage implements them; tests substitute
// in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/shop-admin/internal/model"
)

// UserRepository stores the local mirror of identity-provider accounts.
//
// UpsertUser is keyed by the provider user id: it creates the row when
// absent and overwrites the profile fields when present, which makes
// replayed webhook deliveries harmless.
type UserRepository interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	UpsertUser(ctx context.Context, user *model.User) error
	// DeleteUser removes the row. A missing row is reported as a not-found
	// error, not a no-op; the webhook handler surfaces it as a store
	// failure.
	DeleteUser(ctx context.Context, id string) error
}

// CategoryRepository stores catalog categories.
type CategoryRepository interface {
	GetByID(ctx context.Context, id string) (*model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
	// FindConflicting returns a category other than excludeID whose name or
	// url matches, or (nil, nil) when there is no conflict.
	FindConflicting(ctx context.Context, name, url, excludeID string) (*model.Category, error)
	Upsert(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, id string) error
}
