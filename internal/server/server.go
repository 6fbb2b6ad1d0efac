// Package server wires the router, middleware, and all dependencies, and
// owns the HTTP server lifecycle.
//
// This is the composition root: main.go loads configuration and hands it
// here, and New assembles the full chain (database, identity client,
// webhook verifier, services, handlers) in one place.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/shop-admin/internal/auth"
	"github.com/sakif/shop-admin/internal/config"
	"github.com/sakif/shop-admin/internal/handler"
	"github.com/sakif/shop-admin/internal/identity"
	"github.com/sakif/shop-admin/internal/middleware"
	sqliteRepo "github.com/sakif/shop-admin/internal/repository/sqlite"
	"github.com/sakif/shop-admin/internal/service"
	"github.com/sakif/shop-admin/internal/webhook"
)

// Server holds the router and the resources it owns. The database
// connection is closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain and registers all routes.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware and the route table.
//
//	GET    /healthz                    → liveness probe
//	POST   /api/webhooks/identity      → signed provider events
//	GET    /api/categories             → list (public)
//	GET    /api/categories/{id}        → get (public)
//	POST   /api/categories             → upsert (session, admin)
//	DELETE /api/categories/{id}        → delete (session, admin)
//	GET    /api/me                     → caller's own record (session)
//
// Session routes are only registered when a JWKS URL is configured; the
// webhook endpoint authenticates with signatures and is always available.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	verifier, err := webhook.NewVerifier(s.config.WebhookSigningSecret)
	if err != nil {
		return fmt.Errorf("creating webhook verifier: %w", err)
	}

	provider := identity.NewClient(s.config.IdentityAPIURL, s.config.IdentityAPIKey)
	sync := service.NewSyncService(provider, s.db, s.logger)
	categories := service.NewCategoryService(s.db, s.logger)

	webhookHandler := handler.NewWebhookHandler(verifier, sync, s.logger)
	categoryHandler := handler.NewCategoryHandler(categories, s.logger)
	userHandler := handler.NewUserHandler(s.db, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/webhooks/identity", webhookHandler.HandleIdentityEvent)

		r.Get("/categories", categoryHandler.HandleList)
		r.Get("/categories/{id}", categoryHandler.HandleGet)

		if s.config.IdentityJWKSURL == "" {
			s.logger.Warn("IDENTITY_JWKS_URL not set, session routes disabled")
			return
		}

		sessions, err := auth.NewSessionVerifier(s.config.IdentityJWKSURL)
		if err != nil {
			// Route registration already validated the URL via config; a
			// failure here means the verifier itself could not be built.
			s.logger.Error("session verifier unavailable, session routes disabled",
				slog.String("error", err.Error()),
			)
			return
		}

		r.Group(func(r chi.Router) {
			r.Use(auth.RequirePrincipal(sessions, s.db))
			r.Post("/categories", categoryHandler.HandleUpsert)
			r.Delete("/categories/{id}", categoryHandler.HandleDelete)
			r.Get("/me", userHandler.HandleMe)
		})
	})

	return nil
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully
// and closes the database.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		s.db.Close()
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		s.logger.Info("shutting down", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		s.db.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
