// Package auth is the HTTP surface of the session service: routing,
// JSON request validation, cookie transport for the access/refresh pair
// and per-endpoint rate limits. All protocol decisions live in
// pkg/auth; this package only translates them to status codes and
// Set-Cookie headers.
package auth
