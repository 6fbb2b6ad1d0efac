package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFound_WrapsSentinel(t *testing.T) {
	err := NotFound("user", "usr_123")

	if !errors.Is(err, ErrNotFound) {
		t.Errorf("errors.Is(err, ErrNotFound) = false, want true")
	}
	if err.Message != "user not found with id usr_123" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestValidationFailed_CarriesField(t *testing.T) {
	err := ValidationFailed("url", "category url is required")

	if !errors.Is(err, ErrValidation) {
		t.Errorf("errors.Is(err, ErrValidation) = false, want true")
	}
	if err.Field != "url" {
		t.Errorf("Field = %q, want %q", err.Field, "url")
	}
}

func TestConflict_WrapsSentinel(t *testing.T) {
	err := Conflict("name", "a category with the same name already exists")

	if !errors.Is(err, ErrConflict) {
		t.Errorf("errors.Is(err, ErrConflict) = false, want true")
	}
}

func TestUnauthenticated_WrapsSentinel(t *testing.T) {
	err := Unauthenticated("session token required")

	if !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("errors.Is(err, ErrUnauthenticated) = false, want true")
	}
	if !errors.Is(err, ErrUnauthenticated) || errors.Is(err, ErrForbidden) {
		t.Errorf("sentinel mixup: %v", err)
	}
}

// Wrapping with fmt.Errorf(%w) must keep the sentinel reachable; the
// service layer wraps repository errors before returning them.
func TestAppError_SurvivesWrapping(t *testing.T) {
	inner := NotFound("category", "cat_1")
	wrapped := fmt.Errorf("getting category: %w", inner)

	if !errors.Is(wrapped, ErrNotFound) {
		t.Errorf("wrapped error lost ErrNotFound sentinel")
	}

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatalf("errors.As failed to extract *AppError")
	}
	if appErr.Message != inner.Message {
		t.Errorf("Message = %q, want %q", appErr.Message, inner.Message)
	}
}
