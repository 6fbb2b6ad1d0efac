package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jwksFixture is an RSA key pair plus an httptest server publishing its
// public half as a JWKS document under the kid "test-key".
type jwksFixture struct {
	key    *rsa.PrivateKey
	server *httptest.Server
}

func newJWKSFixture(t *testing.T) *jwksFixture {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	doc := fmt.Sprintf(`{"keys":[{"kid":"test-key","kty":"RSA","use":"sig","n":%q,"e":%q}]}`,
		base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
		base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(doc))
	}))
	t.Cleanup(server.Close)

	return &jwksFixture{key: key, server: server}
}

// signSession issues an RS256 session token the way the provider does.
func (f *jwksFixture) signSession(t *testing.T, kid, subject string, expiresIn time.Duration) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
	})
	token.Header["kid"] = kid

	signed, err := token.SignedString(f.key)
	require.NoError(t, err)
	return signed
}

func TestSessionVerifier_ValidToken(t *testing.T) {
	fixture := newJWKSFixture(t)
	v, err := NewSessionVerifier(fixture.server.URL)
	require.NoError(t, err)

	token := fixture.signSession(t, "test-key", "user_1", time.Minute)

	subject, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user_1", subject)
}

func TestSessionVerifier_ExpiredToken(t *testing.T) {
	fixture := newJWKSFixture(t)
	v, err := NewSessionVerifier(fixture.server.URL)
	require.NoError(t, err)

	token := fixture.signSession(t, "test-key", "user_1", -time.Minute)

	_, err = v.Verify(context.Background(), token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestSessionVerifier_UnknownKid(t *testing.T) {
	fixture := newJWKSFixture(t)
	v, err := NewSessionVerifier(fixture.server.URL)
	require.NoError(t, err)

	token := fixture.signSession(t, "rotated-away", "user_1", time.Minute)

	_, err = v.Verify(context.Background(), token)
	require.Error(t, err)
}

func TestSessionVerifier_WrongKey(t *testing.T) {
	fixture := newJWKSFixture(t)
	other := newJWKSFixture(t) // different key pair, same kid

	v, err := NewSessionVerifier(fixture.server.URL)
	require.NoError(t, err)

	token := other.signSession(t, "test-key", "user_1", time.Minute)

	_, err = v.Verify(context.Background(), token)
	require.Error(t, err)
}

func TestSessionVerifier_MissingSubject(t *testing.T) {
	fixture := newJWKSFixture(t)
	v, err := NewSessionVerifier(fixture.server.URL)
	require.NoError(t, err)

	token := fixture.signSession(t, "test-key", "", time.Minute)

	_, err = v.Verify(context.Background(), token)
	require.Error(t, err)
}

// HS256 tokens must be rejected outright, even if they would otherwise
// parse; only the provider's asymmetric signatures are acceptable.
func TestSessionVerifier_RejectsHMACTokens(t *testing.T) {
	fixture := newJWKSFixture(t)
	v, err := NewSessionVerifier(fixture.server.URL)
	require.NoError(t, err)

	hmacToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user_1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})
	hmacToken.Header["kid"] = "test-key"
	signed, err := hmacToken.SignedString([]byte("some-shared-secret"))
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), signed)
	require.Error(t, err)
}

func TestNewSessionVerifier_RequiresURL(t *testing.T) {
	_, err := NewSessionVerifier("")
	require.Error(t, err)
}

func TestSessionVerifier_JWKSFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	v, err := NewSessionVerifier(server.URL)
	require.NoError(t, err)

	fixture := newJWKSFixture(t)
	token := fixture.signSession(t, "test-key", "user_1", time.Minute)

	_, err = v.Verify(context.Background(), token)
	require.Error(t, err)
}
