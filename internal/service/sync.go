// Package service contains the business logic layer: webhook
// reconciliation and catalog rules live here, HTTP does not.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/shop-admin/internal/apperror"
	"github.com/sakif/shop-admin/internal/identity"
	"github.com/sakif/shop-admin/internal/model"
	"github.com/sakif/shop-admin/internal/repository"
	"github.com/sakif/shop-admin/internal/webhook"
)

// SyncService reconciles identity-provider lifecycle events with the local
// user mirror.
//
// It holds no state of its own; everything lives in the provider and the
// store, so each call is an independent, replayable unit. That matters
// because the provider redelivers events on non-2xx responses: applying
// the same created/updated event twice must leave the store exactly as
// applying it once.
//
// ORDERING:
// Nothing serializes concurrent events for the same subject. Two racing
// updated events interleave their read-then-write sequences and the last
// writer wins, which is acceptable for an eventually convergent profile
// mirror. If stronger guarantees are ever needed, a per-subject-id
// single-writer queue is the place to add them, not locks in here.
type SyncService struct {
	provider identity.Provider
	users    repository.UserRepository
	logger   *slog.Logger
}

// NewSyncService creates a SyncService with all required dependencies.
func NewSyncService(provider identity.Provider, users repository.UserRepository, logger *slog.Logger) *SyncService {
	return &SyncService{
		provider: provider,
		users:    users,
		logger:   logger,
	}
}

// ReconcileUpsert handles a verified created/updated event.
//
// Returns (nil, nil) when the subject no longer exists at the provider:
// the event raced with a deletion, local state is left untouched, and the
// caller reports success so the provider does not redeliver. Any other
// provider failure is returned as-is; conflating "deleted meanwhile" with
// "provider is down" would silently drop real updates.
//
// SIDE EFFECT ORDERING:
// When the subject has no role metadata we write the USER default back to
// the provider *before* the local upsert. The mirrored role must never get
// ahead of what the provider has persisted.
func (s *SyncService) ReconcileUpsert(ctx context.Context, data webhook.EventData) (*model.User, error) {
	subject, err := s.provider.GetUser(ctx, data.ID)
	if err != nil {
		if errors.Is(err, identity.ErrSubjectNotFound) {
			s.logger.Warn("skipping reconcile: subject gone at provider",
				slog.String("userID", data.ID),
			)
			return nil, nil
		}
		return nil, fmt.Errorf("service/sync: looking up subject %s: %w", data.ID, err)
	}

	role, ok := subject.Role()
	if !ok || !role.Valid() {
		// Self-heal: every reconciled subject ends up with an explicit
		// role in the provider's metadata.
		role = model.RoleUser
		if err := s.provider.SetRoleMetadata(ctx, data.ID, role); err != nil {
			return nil, fmt.Errorf("service/sync: defaulting role for %s: %w", data.ID, err)
		}
		s.logger.Info("defaulted provider role metadata",
			slog.String("userID", data.ID),
			slog.String("role", string(role)),
		)
	}

	candidate := &model.User{
		ID:      data.ID,
		Name:    data.FullName(),
		Email:   data.PrimaryEmail(),
		Picture: data.ImageURL,
		Role:    role,
	}

	existing, err := s.users.GetUserByID(ctx, data.ID)
	switch {
	case err == nil:
		if existing.ProfileEquals(candidate) {
			// Nothing observable changed; skip the write so replays and
			// no-op updates don't churn the store.
			s.logger.Debug("reconcile: no field changes, skipping write",
				slog.String("userID", data.ID),
			)
			return existing, nil
		}
	case errors.Is(err, apperror.ErrNotFound):
		// First event for this subject; the upsert below creates the row.
	default:
		return nil, fmt.Errorf("service/sync: reading local user %s: %w", data.ID, err)
	}

	if err := s.users.UpsertUser(ctx, candidate); err != nil {
		return nil, fmt.Errorf("service/sync: upserting user %s: %w", data.ID, err)
	}

	s.logger.Info("user reconciled",
		slog.String("userID", candidate.ID),
		slog.String("role", string(candidate.Role)),
	)

	return candidate, nil
}

// ReconcileDelete handles a verified deleted event by removing the local
// mirror row.
//
// A failed delete, including "no such row", is surfaced to the caller,
// which reports it as a store failure (500). The provider will redeliver,
// and a redelivery of an already-applied delete will keep failing; see
// DESIGN.md for why this stays as-is.
func (s *SyncService) ReconcileDelete(ctx context.Context, id string) error {
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("service/sync: deleting user %s: %w", id, err)
	}

	s.logger.Info("user deleted", slog.String("userID", id))
	return nil
}
