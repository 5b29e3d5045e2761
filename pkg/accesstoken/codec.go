package accesstoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authkit/pkg/fingerprint"
)

// Signature scheme constants required by RFC 7519.
const (
	headerType      = "JWT"
	headerAlgorithm = "HS256"

	minSecretLength = 16
)

type header struct {
	Type      string `json:"typ"`
	Algorithm string `json:"alg"`
}

// Claims is the access token payload. The fingerprint travels under the
// deliberately short "_" key to keep the token compact.
type Claims struct {
	Subject     string `json:"sub"`
	Email       string `json:"email"`
	Fingerprint string `json:"_,omitempty"`
	IssuedAt    int64  `json:"iat"`
	ExpiresAt   int64  `json:"exp"`
}

// Client carries the request attributes a token may be bound to.
type Client struct {
	IP        string
	UserAgent string
}

// Token is a freshly issued access token. RotateAt is the hint returned to
// clients for when to proactively refresh, always at or after issuance time.
type Token struct {
	Value     string
	ExpiresAt time.Time
	RotateAt  time.Time
}

// Identity is the verified content of an access token.
type Identity struct {
	UserID    uuid.UUID
	Email     string
	ExpiresAt time.Time
	RotateAt  time.Time
}

// Codec signs and verifies short-lived stateless access tokens using
// HMAC-SHA256. Verification failures are reported as sentinel errors and
// never distinguish "expired" from "tampered" beyond the error identity;
// callers collapse them all into a uniform authentication failure.
type Codec struct {
	secret       []byte
	ttl          time.Duration
	rotateMargin time.Duration
	engine       *fingerprint.Engine
}

// NewCodec creates an access token codec. The signing secret must be at
// least 16 characters; ttl is the token lifetime and rotateMargin is how
// long before expiry the RotateAt hint points.
func NewCodec(secret string, ttl, rotateMargin time.Duration, engine *fingerprint.Engine) (*Codec, error) {
	if len(secret) < minSecretLength {
		return nil, ErrSecretTooShort
	}
	if ttl <= 0 {
		return nil, ErrInvalidLifetime
	}

	return &Codec{
		secret:       []byte(secret),
		ttl:          ttl,
		rotateMargin: rotateMargin,
		engine:       engine,
	}, nil
}

// Issue creates a signed access token for the given identity. When
// fingerprinting is enabled the client attributes are bound into the token.
func (c *Codec) Issue(userID uuid.UUID, email string, client Client) (Token, error) {
	now := time.Now()
	expiresAt := now.Add(c.ttl)

	claims := Claims{
		Subject:     userID.String(),
		Email:       email,
		Fingerprint: c.engine.Compute(client.IP, client.UserAgent),
		IssuedAt:    now.Unix(),
		ExpiresAt:   expiresAt.Unix(),
	}

	headerJSON, err := json.Marshal(header{Type: headerType, Algorithm: headerAlgorithm})
	if err != nil {
		return Token{}, err
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return Token{}, err
	}

	payload := base64.RawURLEncoding.EncodeToString(headerJSON) + "." + base64.RawURLEncoding.EncodeToString(claimsJSON)
	value := payload + "." + c.sign(payload)

	return Token{
		Value:     value,
		ExpiresAt: expiresAt,
		RotateAt:  c.rotateAt(expiresAt, now),
	}, nil
}

// Verify checks the token's signature, temporal claims and, when enabled,
// the embedded fingerprint against the presenting client. It returns the
// token's identity or a sentinel error; it never panics on malformed input.
func (c *Codec) Verify(raw string, client Client) (*Identity, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, ErrInvalidToken
	}

	// Signature first, constant-time, before anything is parsed.
	payload := parts[0] + "." + parts[1]
	expected := c.sign(payload)
	if subtle.ConstantTimeCompare([]byte(parts[2]), []byte(expected)) != 1 {
		return nil, ErrInvalidSignature
	}

	headerJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, ErrInvalidToken
	}
	var hdr header
	if err := json.Unmarshal(headerJSON, &hdr); err != nil {
		return nil, ErrInvalidToken
	}
	// Reject unexpected algorithms to prevent algorithm confusion attacks.
	if hdr.Algorithm != headerAlgorithm {
		return nil, ErrUnexpectedAlgorithm
	}

	claimsJSON, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, ErrInvalidToken
	}
	var claims Claims
	if err := json.Unmarshal(claimsJSON, &claims); err != nil {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || claims.Email == "" || claims.ExpiresAt == 0 {
		return nil, ErrInvalidClaims
	}

	now := time.Now()
	expiresAt := time.Unix(claims.ExpiresAt, 0)
	if !expiresAt.After(now) {
		return nil, ErrExpiredToken
	}

	if c.engine.Enabled() && claims.Fingerprint != "" {
		if !c.engine.Match(claims.Fingerprint, client.IP, client.UserAgent) {
			return nil, ErrFingerprintMismatch
		}
	}

	return &Identity{
		UserID:    userID,
		Email:     claims.Email,
		ExpiresAt: expiresAt,
		RotateAt:  c.rotateAt(expiresAt, now),
	}, nil
}

// PeekExpiry decodes the token's expiry claim without verifying the
// signature. It exists for cheap pre-handler expiry inspection at the edge;
// the result must never be trusted for authentication.
func PeekExpiry(raw string) (time.Time, bool) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return time.Time{}, false
	}

	claimsJSON, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return time.Time{}, false
	}

	var claims struct {
		ExpiresAt int64 `json:"exp"`
	}
	if err := json.Unmarshal(claimsJSON, &claims); err != nil || claims.ExpiresAt == 0 {
		return time.Time{}, false
	}

	return time.Unix(claims.ExpiresAt, 0), true
}

// rotateAt computes the proactive-refresh hint: rotateMargin before expiry,
// clamped so a token issued with very little remaining lifetime still
// reports an immediate hint rather than a time in the past.
func (c *Codec) rotateAt(expiresAt, now time.Time) time.Time {
	rotateAt := expiresAt.Add(-c.rotateMargin)
	if rotateAt.Before(now) {
		return now
	}
	return rotateAt
}

func (c *Codec) sign(payload string) string {
	h := hmac.New(sha256.New, c.secret)
	h.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
