package model

import "time"

// Category is a catalog category managed through the admin dashboard.
//
// URL is the storefront path for the category (e.g. "/electronics") and is
// unique, as is Name. Image is the URL of the uploaded cover image; the
// upload itself happens elsewhere; we only store the resulting URL.
type Category struct {
	ID        string    `json:"id"        db:"id"`
	Name      string    `json:"name"      db:"name"`
	Image     string    `json:"image"     db:"image"`
	URL       string    `json:"url"       db:"url"`
	Featured  bool      `json:"featured"  db:"featured"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
