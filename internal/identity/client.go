// Package identity is the server-to-server client for the hosted identity
// provider's backend API.
//
// The provider owns all accounts; this service only mirrors them. The two
// calls the reconciler needs are narrow: fetch a user to confirm it still
// exists (and read its role metadata), and write a role back into the
// provider's private metadata.
//
// AUTHENTICATION:
// Every call carries "Authorization: Bearer <secret key>". Rather than
// hand-rolling header injection, we let golang.org/x/oauth2 build the
// client: a StaticTokenSource wraps the fixed secret key and the returned
// *http.Client attaches it to every request.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/sakif/shop-admin/internal/model"
)

// ErrSubjectNotFound is returned by GetUser when the provider reports the
// user id does not exist (anymore). The reconciler treats this as a benign
// race, so it must be distinguishable from transport or server failures.
var ErrSubjectNotFound = errors.New("identity: subject not found")

// Provider is the narrow surface the reconciler consumes. The HTTP client
// below implements it; tests substitute an in-memory fake.
type Provider interface {
	GetUser(ctx context.Context, id string) (*Subject, error)
	SetRoleMetadata(ctx context.Context, id string, role model.Role) error
}

// Subject is the portion of the provider's user object we care about.
// The provider returns a much larger document; unknown fields are dropped.
type Subject struct {
	ID              string          `json:"id"`
	PrivateMetadata PrivateMetadata `json:"private_metadata"`
}

// PrivateMetadata is server-only metadata attached to a provider user.
type PrivateMetadata struct {
	Role model.Role `json:"role"`
}

// Role returns the subject's role and whether one was present at all.
// Absence is meaningful: the reconciler self-heals it to USER.
func (s *Subject) Role() (model.Role, bool) {
	if s.PrivateMetadata.Role == "" {
		return "", false
	}
	return s.PrivateMetadata.Role, true
}

// Client calls the provider's REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ Provider = (*Client)(nil)

// NewClient builds a Client for the given API base URL and secret key.
func NewClient(baseURL, apiKey string) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiKey})
	httpClient := oauth2.NewClient(context.Background(), src)
	httpClient.Timeout = 10 * time.Second

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// GetUser fetches a provider user by id.
// Returns ErrSubjectNotFound when the provider answers 404.
func (c *Client) GetUser(ctx context.Context, id string) (*Subject, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/users/%s", c.baseURL, id), nil)
	if err != nil {
		return nil, fmt.Errorf("identity: building get-user request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity: fetching user %s: %w", id, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrSubjectNotFound, id)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("identity: get user %s: unexpected status %d", id, resp.StatusCode)
	}

	var subject Subject
	if err := json.NewDecoder(resp.Body).Decode(&subject); err != nil {
		return nil, fmt.Errorf("identity: decoding user %s: %w", id, err)
	}

	return &subject, nil
}

// SetRoleMetadata merges {"role": role} into the user's private metadata.
func (c *Client) SetRoleMetadata(ctx context.Context, id string, role model.Role) error {
	payload, err := json.Marshal(map[string]any{
		"private_metadata": PrivateMetadata{Role: role},
	})
	if err != nil {
		return fmt.Errorf("identity: encoding metadata: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch,
		fmt.Sprintf("%s/users/%s/metadata", c.baseURL, id), strings.NewReader(string(payload)))
	if err != nil {
		return fmt.Errorf("identity: building metadata request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("identity: updating metadata for %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("identity: set metadata for %s: unexpected status %d", id, resp.StatusCode)
	}

	return nil
}
