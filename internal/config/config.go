// Package config loads service configuration from environment variables.
//
// Every value has a tagged validation rule and is checked once at startup
// with go-playground/validator, so a bad deployment fails immediately with a
// field-level message instead of surfacing as a confusing runtime error on
// the first request.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Config holds everything the server needs to run.
type Config struct {
	// Port the HTTP server listens on.
	Port int `validate:"required,gt=0,lte=65535"`

	// DBPath is the SQLite database file ("data/shop.db", or ":memory:").
	DBPath string `validate:"required"`

	// WebhookSigningSecret is the shared secret the identity provider signs
	// webhook payloads with ("whsec_..." from the provider dashboard).
	WebhookSigningSecret string `validate:"required"`

	// IdentityAPIURL is the base URL of the identity provider's backend API.
	IdentityAPIURL string `validate:"required,url"`

	// IdentityAPIKey is the secret key used for server-to-server calls to
	// the identity provider.
	IdentityAPIKey string `validate:"required"`

	// IdentityJWKSURL is the provider's JWKS endpoint for verifying session
	// tokens. Optional: when empty, the session-guarded routes are not
	// registered (the webhook endpoint still works; it authenticates with
	// signatures, not sessions).
	IdentityJWKSURL string `validate:"omitempty,url"`
}

var validate = validator.New()

// Load reads configuration from the environment and validates it.
func Load() (Config, error) {
	cfg := Config{
		Port:                 8080,
		DBPath:               getenv("DB_PATH", "data/shop.db"),
		WebhookSigningSecret: os.Getenv("WEBHOOK_SIGNING_SECRET"),
		IdentityAPIURL:       getenv("IDENTITY_API_URL", "https://api.clerk.com/v1"),
		IdentityAPIKey:       os.Getenv("IDENTITY_API_KEY"),
		IdentityJWKSURL:      os.Getenv("IDENTITY_JWKS_URL"),
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid PORT %q: %w", portStr, err)
		}
		cfg.Port = port
	}

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

func getenv(name, fallback string) string {
	if value, ok := os.LookupEnv(name); ok && value != "" {
		return value
	}
	return fallback
}
