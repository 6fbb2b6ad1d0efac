// Package auth verifies identity-provider session tokens and turns them
// into an explicit Principal for the request.
//
// The server never mints tokens itself. The hosted identity provider
// issues RS256-signed session JWTs to the dashboard frontend; we verify
// them against the provider's published JWKS document. Keys are cached and
// refreshed on unknown-kid misses, so a provider key rotation heals itself
// without a restart.
package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	errMissingSubject = errors.New("auth: token missing subject claim")
	errMissingKeyID   = errors.New("auth: token missing kid header")
)

// TokenVerifier validates a session token and returns the provider user id
// it was issued to. Middleware consumes this interface; tests substitute a
// stub.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// SessionVerifier validates provider-issued session JWTs using the
// provider's JWKS endpoint.
type SessionVerifier struct {
	jwksURL       string
	client        *http.Client
	cacheDuration time.Duration

	mu         sync.RWMutex
	keys       map[string]*rsa.PublicKey
	lastLoaded time.Time
}

var _ TokenVerifier = (*SessionVerifier)(nil)

// NewSessionVerifier creates a SessionVerifier for the given JWKS URL.
func NewSessionVerifier(jwksURL string) (*SessionVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("auth: JWKS URL is required")
	}

	return &SessionVerifier{
		jwksURL:       jwksURL,
		client:        &http.Client{Timeout: 5 * time.Second},
		cacheDuration: 10 * time.Minute,
		keys:          make(map[string]*rsa.PublicKey),
	}, nil
}

// Verify parses and validates token, returning the subject (the provider
// user id). Signature, expiry, and algorithm are all checked; restricting
// to RS256 blocks algorithm-confusion tokens.
func (v *SessionVerifier) Verify(ctx context.Context, token string) (string, error) {
	parsed, err := jwt.Parse(token, v.keyFunc(ctx),
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithLeeway(5*time.Second),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: session expired")
		}
		return "", fmt.Errorf("auth: invalid session token: %w", err)
	}

	subject, err := parsed.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", errMissingSubject
	}

	return subject, nil
}

// keyFunc resolves the token's kid against the cached JWKS, refreshing the
// cache once on a miss so freshly rotated keys are picked up.
func (v *SessionVerifier) keyFunc(ctx context.Context) jwt.Keyfunc {
	return func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errMissingKeyID
		}

		if key, ok := v.lookupKey(kid); ok {
			return key, nil
		}

		if err := v.refreshKeys(ctx); err != nil {
			return nil, err
		}

		if key, ok := v.lookupKey(kid); ok {
			return key, nil
		}

		return nil, fmt.Errorf("auth: jwks key %s not found", kid)
	}
}

func (v *SessionVerifier) lookupKey(kid string) (*rsa.PublicKey, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	key, ok := v.keys[kid]
	return key, ok
}

func (v *SessionVerifier) refreshKeys(ctx context.Context) error {
	v.mu.RLock()
	fresh := time.Since(v.lastLoaded) < v.cacheDuration && len(v.keys) > 0
	v.mu.RUnlock()
	if fresh {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	// Another request may have refreshed while we waited on the lock.
	if time.Since(v.lastLoaded) < v.cacheDuration && len(v.keys) > 0 {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return fmt.Errorf("auth: building jwks request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("auth: fetching jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("auth: fetching jwks: unexpected status %d", resp.StatusCode)
	}

	var document jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&document); err != nil {
		return fmt.Errorf("auth: decoding jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(document.Keys))
	for _, key := range document.Keys {
		if key.Kty != "RSA" {
			continue
		}
		pubKey, err := key.rsaPublicKey()
		if err != nil {
			return fmt.Errorf("auth: parsing jwks key %s: %w", key.Kid, err)
		}
		keys[key.Kid] = pubKey
	}

	if len(keys) == 0 {
		return errors.New("auth: jwks contained no usable keys")
	}

	v.keys = keys
	v.lastLoaded = time.Now()
	return nil
}

type jwksDocument struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (j jwk) rsaPublicKey() (*rsa.PublicKey, error) {
	if j.N == "" || j.E == "" {
		return nil, errors.New("missing modulus or exponent")
	}

	nBytes, err := base64.RawURLEncoding.DecodeString(j.N)
	if err != nil {
		return nil, fmt.Errorf("invalid modulus: %w", err)
	}

	eBytes, err := base64.RawURLEncoding.DecodeString(j.E)
	if err != nil {
		return nil, fmt.Errorf("invalid exponent: %w", err)
	}

	var eInt int
	for _, b := range eBytes {
		eInt = eInt<<8 + int(b)
	}
	if eInt == 0 {
		return nil, errors.New("invalid exponent value")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: eInt,
	}, nil
}
