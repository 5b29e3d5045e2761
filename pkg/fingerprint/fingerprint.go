package fingerprint

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"github.com/dmitrymomot/authkit/pkg/clientip"
)

// Length of the emitted fingerprint in base64url characters. Short enough to
// keep access tokens compact; the binding defeats token replay from a
// different network context, not cryptographic spoofing.
const fingerprintLength = 16

// Engine derives stable client fingerprints from request metadata.
// The zero-value (nil) engine is safe to use and always disabled.
type Engine struct {
	secret    []byte
	bindIP    bool
	bindAgent bool
}

// New creates a fingerprint engine keyed with the given secret.
// bindIP and bindAgent select which request attributes participate in the
// derived fingerprint; with both disabled the engine produces nothing.
func New(secret string, bindIP, bindAgent bool) *Engine {
	return &Engine{
		secret:    []byte(secret),
		bindIP:    bindIP,
		bindAgent: bindAgent,
	}
}

// Enabled reports whether at least one binding dimension is active.
func (e *Engine) Enabled() bool {
	return e != nil && (e.bindIP || e.bindAgent)
}

// Compute derives the fingerprint for the given client attributes.
// Returns the empty string when no binding is enabled, signaling that no
// fingerprint should be embedded or checked.
//
// Inputs are normalized before hashing so trivial proxy or formatting
// variance does not break a legitimate session: the IP is canonicalized via
// clientip.Normalize, the user agent is whitespace-collapsed and lowercased.
// Same normalized inputs and same secret always produce the same output.
func (e *Engine) Compute(ip, userAgent string) string {
	if !e.Enabled() {
		return ""
	}

	parts := make([]string, 0, 2)
	if e.bindIP {
		parts = append(parts, "ip:"+clientip.Normalize(ip))
	}
	if e.bindAgent {
		parts = append(parts, "agent:"+normalizeAgent(userAgent))
	}

	h := hmac.New(sha256.New, e.secret)
	h.Write([]byte(strings.Join(parts, "|")))
	sum := base64.RawURLEncoding.EncodeToString(h.Sum(nil))

	return sum[:fingerprintLength]
}

// Match compares a stored fingerprint against one freshly computed from the
// given client attributes using a constant-time comparison. A length
// mismatch is a comparison failure, never a distinguishable fast path.
func (e *Engine) Match(stored, ip, userAgent string) bool {
	expected := e.Compute(ip, userAgent)
	if expected == "" {
		return false
	}
	if len(stored) != len(expected) {
		// Burn the comparison anyway to keep timing uniform.
		subtle.ConstantTimeCompare([]byte(expected), []byte(expected))
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(expected)) == 1
}

// normalizeAgent collapses internal whitespace and lowercases the user agent
// so cosmetic differences between otherwise identical clients are ignored.
func normalizeAgent(userAgent string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(userAgent), " "))
	if normalized == "" {
		return "-"
	}
	return normalized
}
