package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/shop-admin/internal/service"
	"github.com/sakif/shop-admin/internal/webhook"
)

// maxWebhookBody caps how much of a delivery we read. Provider events are
// a few KB; anything larger is not a webhook.
const maxWebhookBody = 1 << 20

// WebhookHandler receives identity-provider lifecycle events.
//
// RESPONSE CONTRACT (the provider redelivers on anything non-2xx):
//
//	400: missing signature headers, or verification failed. Terminal:
//	      redelivering the same broken request can never succeed.
//	200: event reconciled, event type intentionally ignored, or the
//	      subject vanished at the provider before we processed the event.
//	500: the store failed while applying the event; redelivery may succeed.
//
// A deleted event for a row we never had also lands on 500 (a failed
// delete is indistinguishable from a store malfunction here), which makes
// deletes of already-deleted users non-idempotent under redelivery. Known
// trade-off; see DESIGN.md.
type WebhookHandler struct {
	verifier *webhook.Verifier
	sync     *service.SyncService
	logger   *slog.Logger
}

// NewWebhookHandler creates a WebhookHandler.
func NewWebhookHandler(verifier *webhook.Verifier, sync *service.SyncService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifier: verifier,
		sync:     sync,
		logger:   logger,
	}
}

// HandleIdentityEvent processes one signed delivery.
//
// HTTP: POST /api/webhooks/identity
//
// The signature check runs before the body is interpreted in any way; an
// unverified body is untrusted input and must not drive side effects.
func (h *WebhookHandler) HandleIdentityEvent(w http.ResponseWriter, r *http.Request) {
	headers := webhook.Headers{
		ID:        r.Header.Get(webhook.HeaderID),
		Timestamp: r.Header.Get(webhook.HeaderTimestamp),
		Signature: r.Header.Get(webhook.HeaderSignature),
	}
	if headers.ID == "" || headers.Timestamp == "" || headers.Signature == "" {
		http.Error(w, "Error: missing signature headers", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "Error: could not read body", http.StatusBadRequest)
		return
	}

	event, err := h.verifier.Verify(body, headers)
	if err != nil {
		h.logger.Warn("webhook verification failed",
			slog.String("messageID", headers.ID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Error: verification failed", http.StatusBadRequest)
		return
	}

	h.logger.Info("webhook received",
		slog.String("type", event.Type),
		slog.String("userID", event.Data.ID),
	)

	switch event.Type {
	case webhook.EventUserCreated, webhook.EventUserUpdated:
		user, err := h.sync.ReconcileUpsert(r.Context(), event.Data)
		if err != nil {
			h.logger.Error("reconcile failed",
				slog.String("userID", event.Data.ID),
				slog.String("error", err.Error()),
			)
			http.Error(w, "Error: could not reconcile user", http.StatusInternalServerError)
			return
		}
		if user == nil {
			// Subject deleted at the provider between emit and processing,
			// a benign race, nothing to mirror.
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("User not found at identity provider, skipping."))
			return
		}

	case webhook.EventUserDeleted:
		if err := h.sync.ReconcileDelete(r.Context(), event.Data.ID); err != nil {
			h.logger.Error("delete failed",
				slog.String("userID", event.Data.ID),
				slog.String("error", err.Error()),
			)
			http.Error(w, "Error: could not delete user", http.StatusInternalServerError)
			return
		}

	default:
		// Unknown types are acknowledged, not rejected: the provider adds
		// event types over time and deployments must not start failing.
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Webhook received"))
}
