package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/dmitrymomot/authkit/pkg/clientip"
)

// maxKeyLength caps rate limit keys to keep storage keys short in backends
// like Redis.
const maxKeyLength = 64

// KeyFunc extracts a unique identifier from an HTTP request for rate
// limiting.
type KeyFunc func(*http.Request) string

// ByPath keys the limit on the request path, so each endpoint gets its own
// counter.
func ByPath(r *http.Request) string {
	return r.URL.Path
}

// ByClientIP keys the limit on the resolved client IP.
func ByClientIP(r *http.Request) string {
	ip := clientip.GetIP(r)
	if ip == "" {
		return "unknown"
	}
	return ip
}

// Composite combines multiple key extraction functions into a single key.
// Long keys are hashed to 32 hex chars to prevent storage issues while
// avoiding collisions.
func Composite(keyFuncs ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(keyFuncs))
		for _, fn := range keyFuncs {
			if key := fn(r); key != "" {
				parts = append(parts, key)
			}
		}

		if len(parts) == 0 {
			return ""
		}

		combined := strings.Join(parts, ":")
		if len(combined) > maxKeyLength {
			hash := sha256.Sum256([]byte(combined))
			return hex.EncodeToString(hash[:16])
		}

		return combined
	}
}
