package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/shop-admin/internal/apperror"
	"github.com/sakif/shop-admin/internal/model"
)

// upsertTestUser creates a user with the given provider id and fails the
// test if it errors.
func upsertTestUser(t *testing.T, db *DB, id, email string) *model.User {
	t.Helper()
	user := &model.User{
		ID:      id,
		Name:    "Test User",
		Email:   email,
		Picture: "https://img.example/avatar.png",
		Role:    model.RoleUser,
	}
	if err := db.UpsertUser(context.Background(), user); err != nil {
		t.Fatalf("failed to upsert test user: %v", err)
	}
	return user
}

func TestUserUpsert_Creates(t *testing.T) {
	db := newTestDB(t)

	user := upsertTestUser(t, db, "user_1", "one@example.com")

	if user.CreatedAt.IsZero() {
		t.Error("UpsertUser() did not set CreatedAt")
	}
	if user.UpdatedAt.IsZero() {
		t.Error("UpsertUser() did not set UpdatedAt")
	}

	found, err := db.GetUserByID(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if found.Email != "one@example.com" {
		t.Errorf("Email = %q, want %q", found.Email, "one@example.com")
	}
	if found.Role != model.RoleUser {
		t.Errorf("Role = %q, want %q", found.Role, model.RoleUser)
	}
}

func TestUserUpsert_UpdatesExisting(t *testing.T) {
	db := newTestDB(t)
	created := upsertTestUser(t, db, "user_1", "one@example.com")

	updated := &model.User{
		ID:      "user_1",
		Name:    "Renamed User",
		Email:   "renamed@example.com",
		Picture: "https://img.example/new.png",
		Role:    model.RoleAdmin,
	}
	if err := db.UpsertUser(context.Background(), updated); err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}

	found, err := db.GetUserByID(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if found.Name != "Renamed User" {
		t.Errorf("Name = %q, want %q", found.Name, "Renamed User")
	}
	if found.Role != model.RoleAdmin {
		t.Errorf("Role = %q, want %q", found.Role, model.RoleAdmin)
	}
	// created_at must survive the update
	if !found.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt changed on update: %v != %v", found.CreatedAt, created.CreatedAt)
	}
}

func TestUserUpsert_EmptyID(t *testing.T) {
	db := newTestDB(t)

	err := db.UpsertUser(context.Background(), &model.User{Email: "x@example.com"})
	if err == nil {
		t.Fatal("UpsertUser() should reject an empty id; ids always come from the provider")
	}
}

func TestUserUpsert_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	upsertTestUser(t, db, "user_1", "shared@example.com")

	err := db.UpsertUser(context.Background(), &model.User{
		ID:    "user_2",
		Email: "shared@example.com",
		Role:  model.RoleUser,
	})
	if err == nil {
		t.Fatal("UpsertUser() should have failed on the unique email constraint")
	}
}

func TestGetUserByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByID(context.Background(), "user_missing")
	if err == nil {
		t.Fatal("GetUserByID() should have returned an error for a missing id")
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID() error = %v, want ErrNotFound", err)
	}
}

func TestUserDelete(t *testing.T) {
	db := newTestDB(t)
	upsertTestUser(t, db, "user_1", "one@example.com")

	if err := db.DeleteUser(context.Background(), "user_1"); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}

	_, err := db.GetUserByID(context.Background(), "user_1")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("user still present after Delete(): err = %v", err)
	}
}

func TestUserDelete_MissingRow(t *testing.T) {
	db := newTestDB(t)

	err := db.DeleteUser(context.Background(), "user_never_existed")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("DeleteUser() error = %v, want ErrNotFound", err)
	}
}
