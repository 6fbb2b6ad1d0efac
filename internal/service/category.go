package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/shop-admin/internal/apperror"
	"github.com/sakif/shop-admin/internal/model"
	"github.com/sakif/shop-admin/internal/repository"
)

// CategoryInput is the payload for creating or updating a category.
// An empty ID means "create"; a non-empty ID upserts that exact category.
type CategoryInput struct {
	ID       string `json:"id"`
	Name     string `json:"name"     validate:"required,max=100"`
	Image    string `json:"image"    validate:"required,url"`
	URL      string `json:"url"      validate:"required,startswith=/,max=100"`
	Featured bool   `json:"featured"`
}

// CategoryService enforces the catalog's business rules.
//
// Guarded methods take the caller as an explicit model.Principal parameter
// rather than digging it out of ambient state: the auth requirement is
// part of the signature, and tests construct principals directly.
type CategoryService struct {
	repo     repository.CategoryRepository
	validate *validator.Validate
	logger   *slog.Logger
}

// NewCategoryService creates a CategoryService.
func NewCategoryService(repo repository.CategoryRepository, logger *slog.Logger) *CategoryService {
	return &CategoryService{
		repo:     repo,
		validate: validator.New(),
		logger:   logger,
	}
}

// requireAdmin is the shared gate for mutating operations.
func requireAdmin(principal model.Principal) error {
	if principal.IsZero() {
		return apperror.Unauthenticated("authentication required")
	}
	if principal.Role != model.RoleAdmin {
		return apperror.Forbidden("admin role required")
	}
	return nil
}

// Upsert creates or updates a category. Admin only.
//
// Uniqueness: no other category may share the name or the url. The check
// excludes the category's own id so saving it unchanged is not a conflict.
func (s *CategoryService) Upsert(ctx context.Context, principal model.Principal, input CategoryInput) (*model.Category, error) {
	if err := requireAdmin(principal); err != nil {
		return nil, err
	}

	input.Name = strings.TrimSpace(input.Name)
	input.URL = strings.TrimSpace(input.URL)

	if err := s.validate.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			first := fieldErrs[0]
			field := strings.ToLower(first.Field())
			return nil, apperror.ValidationFailed(field,
				fmt.Sprintf("category %s is missing or invalid", field))
		}
		return nil, fmt.Errorf("service/category: validating input: %w", err)
	}

	conflict, err := s.repo.FindConflicting(ctx, input.Name, input.URL, input.ID)
	if err != nil {
		return nil, fmt.Errorf("service/category: checking for conflicts: %w", err)
	}
	if conflict != nil {
		if conflict.Name == input.Name {
			return nil, apperror.Conflict("name", "a category with the same name already exists")
		}
		return nil, apperror.Conflict("url", "a category with the same url already exists")
	}

	category := &model.Category{
		ID:       input.ID,
		Name:     input.Name,
		Image:    input.Image,
		URL:      input.URL,
		Featured: input.Featured,
	}

	if err := s.repo.Upsert(ctx, category); err != nil {
		s.logger.Error("failed to upsert category",
			slog.String("name", input.Name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/category: upserting: %w", err)
	}

	s.logger.Info("category upserted",
		slog.String("id", category.ID),
		slog.String("name", category.Name),
		slog.String("by", principal.UserID),
	)

	return category, nil
}

// List returns all categories, most recently updated first. Public.
func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	categories, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list categories", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/category: listing: %w", err)
	}
	return categories, nil
}

// Get returns a single category by id. Public.
func (s *CategoryService) Get(ctx context.Context, id string) (*model.Category, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "category id is required")
	}
	return s.repo.GetByID(ctx, id)
}

// Delete removes a category. Admin only.
func (s *CategoryService) Delete(ctx context.Context, principal model.Principal, id string) error {
	if err := requireAdmin(principal); err != nil {
		return err
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "category id is required")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("category deleted",
		slog.String("id", id),
		slog.String("by", principal.UserID),
	)
	return nil
}
