// Package clientip extracts the originating client's IP address from an
// *http.Request when the application runs behind one or more reverse
// proxies, and canonicalizes addresses for use in session fingerprinting.
//
// The resolution algorithm examines several headers in descending
// priority until the first valid IP address is found:
//
//  1. CF-Connecting-IP – Cloudflare
//  2. X-Forwarded-For  – comma-separated list (the first IP is used)
//  3. X-Real-IP        – set by reverse proxies such as Nginx
//  4. RemoteAddr       – TCP peer address as a fallback
//
// Normalize strips the IPv4-mapped IPv6 prefix and canonicalizes the IPv6
// loopback so a client that flips between "::ffff:1.2.3.4" and "1.2.3.4"
// keeps a stable identity.
package clientip
