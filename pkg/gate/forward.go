package gate

import (
	"net/http"
	"strings"
)

// forwardedHeaders is the allow-list of headers relayed on the refresh
// round trip. The client's network identity must survive the hop or the
// auth service would fingerprint the gate instead of the browser.
var forwardedHeaders = map[string]bool{
	"Cookie":           true,
	"Origin":           true,
	"Referer":          true,
	"User-Agent":       true,
	"Accept-Language":  true,
	"Cf-Connecting-Ip": true,
	"X-Real-Ip":        true,
	"X-Request-Id":     true,
}

func copyForwardedHeaders(dst *http.Request, src *http.Request) {
	for name, values := range src.Header {
		canonical := http.CanonicalHeaderKey(name)
		if !forwardedHeaders[canonical] && !strings.HasPrefix(canonical, "X-Forwarded-") {
			continue
		}
		for _, value := range values {
			dst.Header.Add(canonical, value)
		}
	}

	// The original Host travels as a forwarded header; the request's own
	// Host must stay the refresh URL's.
	if src.Host != "" && dst.Header.Get("X-Forwarded-Host") == "" {
		dst.Header.Set("X-Forwarded-Host", src.Host)
	}
}
