package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/shop-admin/internal/apperror"
	"github.com/sakif/shop-admin/internal/model"
)

func upsertTestCategory(t *testing.T, db *DB, name, url string) *model.Category {
	t.Helper()
	category := &model.Category{
		Name:  name,
		Image: "https://img.example/" + name + ".png",
		URL:   url,
	}
	if err := db.Upsert(context.Background(), category); err != nil {
		t.Fatalf("failed to upsert test category: %v", err)
	}
	return category
}

func TestCategoryUpsert_GeneratesID(t *testing.T) {
	db := newTestDB(t)

	category := upsertTestCategory(t, db, "Electronics", "/electronics")

	if category.ID == "" {
		t.Error("Upsert() did not generate an ID for a new category")
	}
	if category.CreatedAt.IsZero() || category.UpdatedAt.IsZero() {
		t.Error("Upsert() did not set timestamps")
	}
}

func TestCategoryUpsert_UpdatesExisting(t *testing.T) {
	db := newTestDB(t)
	created := upsertTestCategory(t, db, "Electronics", "/electronics")

	created.Name = "Consumer Electronics"
	created.Featured = true
	if err := db.Upsert(context.Background(), created); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	found, err := db.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Name != "Consumer Electronics" {
		t.Errorf("Name = %q, want %q", found.Name, "Consumer Electronics")
	}
	if !found.Featured {
		t.Error("Featured = false, want true")
	}
}

func TestCategoryUpsert_KeepsClientProvidedID(t *testing.T) {
	db := newTestDB(t)

	category := &model.Category{
		ID:    "cat_client_1",
		Name:  "Books",
		Image: "https://img.example/books.png",
		URL:   "/books",
	}
	if err := db.Upsert(context.Background(), category); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	found, err := db.GetByID(context.Background(), "cat_client_1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Name != "Books" {
		t.Errorf("Name = %q, want %q", found.Name, "Books")
	}
}

func TestCategoryList_OrderedByUpdatedAtDesc(t *testing.T) {
	db := newTestDB(t)
	first := upsertTestCategory(t, db, "First", "/first")
	time.Sleep(5 * time.Millisecond) // distinct updated_at values
	upsertTestCategory(t, db, "Second", "/second")
	time.Sleep(5 * time.Millisecond)

	// Touch the first category so it becomes the most recently updated.
	first.Featured = true
	if err := db.Upsert(context.Background(), first); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	categories, err := db.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if len(categories) != 2 {
		t.Fatalf("List() returned %d categories, want 2", len(categories))
	}
	if categories[0].Name != "First" {
		t.Errorf("categories[0].Name = %q, want the most recently updated first", categories[0].Name)
	}
}

func TestCategoryFindConflicting(t *testing.T) {
	db := newTestDB(t)
	existing := upsertTestCategory(t, db, "Electronics", "/electronics")

	// Same name, new category (no exclude id).
	conflict, err := db.FindConflicting(context.Background(), "Electronics", "/other", "")
	if err != nil {
		t.Fatalf("FindConflicting() error = %v", err)
	}
	if conflict == nil || conflict.ID != existing.ID {
		t.Errorf("FindConflicting() = %+v, want the existing category", conflict)
	}

	// Same url, different name.
	conflict, err = db.FindConflicting(context.Background(), "Other", "/electronics", "")
	if err != nil {
		t.Fatalf("FindConflicting() error = %v", err)
	}
	if conflict == nil {
		t.Error("FindConflicting() = nil, want url conflict")
	}

	// The category itself is excluded; updating in place is not a conflict.
	conflict, err = db.FindConflicting(context.Background(), "Electronics", "/electronics", existing.ID)
	if err != nil {
		t.Fatalf("FindConflicting() error = %v", err)
	}
	if conflict != nil {
		t.Errorf("FindConflicting() = %+v, want nil when only matching itself", conflict)
	}

	// No overlap at all.
	conflict, err = db.FindConflicting(context.Background(), "Garden", "/garden", "")
	if err != nil {
		t.Fatalf("FindConflicting() error = %v", err)
	}
	if conflict != nil {
		t.Errorf("FindConflicting() = %+v, want nil", conflict)
	}
}

func TestCategoryDelete(t *testing.T) {
	db := newTestDB(t)
	category := upsertTestCategory(t, db, "Electronics", "/electronics")

	if err := db.Delete(context.Background(), category.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err := db.GetByID(context.Background(), category.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("category still present after Delete(): err = %v", err)
	}
}

func TestCategoryDelete_MissingRow(t *testing.T) {
	db := newTestDB(t)

	err := db.Delete(context.Background(), "cat_missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}
