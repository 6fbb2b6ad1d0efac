// Package webhook verifies and decodes signed identity-provider webhooks.
//
// SIGNATURE SCHEME:
// The provider signs each delivery with HMAC-SHA256 over the string
//
//	"{message id}.{unix timestamp}.{raw body}"
//
// using a shared secret distributed as "whsec_" + base64(key). The
// signature header carries one or more space-separated "v1,<base64 mac>"
// entries (multiple entries appear during secret rotation; any one match
// accepts the delivery).
//
// VERIFY BEFORE PARSE:
// Verify is the only way to obtain an Event from this package. An
// unverified body is untrusted input and must not drive any side effect,
// so the decode happens strictly after the MAC and timestamp checks pass.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Header names the provider sends with every delivery.
const (
	HeaderID        = "svix-id"
	HeaderTimestamp = "svix-timestamp"
	HeaderSignature = "svix-signature"
)

const secretPrefix = "whsec_"

// defaultTolerance bounds how far the delivery timestamp may drift from
// the local clock. Outside the window the delivery is rejected even with a
// valid MAC, limiting replay of captured requests.
const defaultTolerance = 5 * time.Minute

var (
	ErrMissingHeaders     = errors.New("webhook: missing signature headers")
	ErrInvalidSignature   = errors.New("webhook: signature verification failed")
	ErrTimestampTooOld    = errors.New("webhook: timestamp outside tolerance")
	ErrInvalidTimestamp   = errors.New("webhook: malformed timestamp header")
	errMalformedSignature = errors.New("webhook: malformed signature header")
)

// Headers are the three required header values, extracted by the caller.
type Headers struct {
	ID        string
	Timestamp string
	Signature string
}

// Verifier checks webhook deliveries against the shared signing secret.
type Verifier struct {
	key       []byte
	tolerance time.Duration
	now       func() time.Time // injectable for tests
}

// NewVerifier parses the provider-format secret ("whsec_..." ) and returns
// a Verifier with the default timestamp tolerance.
func NewVerifier(secret string) (*Verifier, error) {
	encoded := strings.TrimPrefix(secret, secretPrefix)
	if encoded == "" {
		return nil, errors.New("webhook: signing secret is empty")
	}

	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("webhook: decoding signing secret: %w", err)
	}

	return &Verifier{
		key:       key,
		tolerance: defaultTolerance,
		now:       time.Now,
	}, nil
}

// Verify authenticates body against h and returns the decoded event.
//
// Fails closed: any missing header, unparsable timestamp, stale timestamp,
// or MAC mismatch rejects the delivery. Callers map every error from here
// to 400; none of them are retryable by changing server state.
func (v *Verifier) Verify(body []byte, h Headers) (*Event, error) {
	if h.ID == "" || h.Timestamp == "" || h.Signature == "" {
		return nil, ErrMissingHeaders
	}

	ts, err := strconv.ParseInt(h.Timestamp, 10, 64)
	if err != nil {
		return nil, ErrInvalidTimestamp
	}

	drift := v.now().Sub(time.Unix(ts, 0))
	if drift > v.tolerance || drift < -v.tolerance {
		return nil, ErrTimestampTooOld
	}

	expected := v.sign(h.ID, h.Timestamp, body)

	ok := false
	for _, entry := range strings.Split(h.Signature, " ") {
		version, sig, found := strings.Cut(entry, ",")
		if !found || version != "v1" {
			continue
		}
		provided, err := base64.StdEncoding.DecodeString(sig)
		if err != nil {
			continue
		}
		// hmac.Equal is constant-time; != on the base64 strings would leak
		// match length through timing.
		if hmac.Equal(provided, expected) {
			ok = true
		}
	}
	if !ok {
		return nil, ErrInvalidSignature
	}

	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("webhook: decoding verified payload: %w", err)
	}
	return &event, nil
}

func (v *Verifier) sign(id, timestamp string, body []byte) []byte {
	mac := hmac.New(sha256.New, v.key)
	fmt.Fprintf(mac, "%s.%s.", id, timestamp)
	mac.Write(body)
	return mac.Sum(nil)
}
