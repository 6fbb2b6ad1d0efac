package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/sakif/shop-admin/internal/model"
	"github.com/sakif/shop-admin/internal/repository"
)

// contextKey is unexported so only this package can read or write the
// principal value in a request context.
type contextKey string

const principalKey contextKey = "principal"

// sessionCookie is the cookie the provider's frontend SDK sets; the
// Authorization header takes precedence when both are present.
const sessionCookie = "__session"

// RequirePrincipal enforces authentication on protected routes.
//
// It verifies the session token, resolves the subject against the local
// user mirror to pick up the role, and stores a model.Principal in the
// request context. Handlers read it with PrincipalFromContext and pass it
// to services as an explicit parameter; the context is only the transport
// between middleware and handler, never an ambient authority services
// consult.
//
// A valid token for a user the webhook has not mirrored yet is rejected:
// without a local row there is no role to build a principal from.
func RequirePrincipal(verifier TokenVerifier, users repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := tokenFromRequest(r)
			if !ok {
				unauthorized(w)
				return
			}

			userID, err := verifier.Verify(r.Context(), token)
			if err != nil {
				unauthorized(w)
				return
			}

			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil {
				unauthorized(w)
				return
			}

			principal := model.Principal{UserID: user.ID, Role: user.Role}
			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFromContext retrieves the authenticated principal set by
// RequirePrincipal. Returns (zero, false) for anonymous requests.
func PrincipalFromContext(ctx context.Context) (model.Principal, bool) {
	principal, ok := ctx.Value(principalKey).(model.Principal)
	return principal, ok && !principal.IsZero()
}

// tokenFromRequest extracts the session token from the Authorization
// bearer header, falling back to the provider's session cookie.
func tokenFromRequest(r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, "bearer") && strings.TrimSpace(token) != "" {
			return strings.TrimSpace(token), true
		}
		return "", false
	}

	cookie, err := r.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized","message":"valid session required"}`))
}
