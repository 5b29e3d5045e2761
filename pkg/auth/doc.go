// Package auth orchestrates the dual-token session protocol.
//
// It composes three collaborators — the access token codec, the refresh
// session manager and user storage — into the externally visible
// operations: register, login, refresh, logout, logout-all and request
// authentication.
//
// The refresh operation implements the concurrency-tolerant rotation
// state machine: a presented token that matches the session's current hash
// is rotated in a single atomic conditional update; a caller that loses
// that race re-resolves once and proceeds through the grace window if a
// concurrent refresh legitimately advanced the session, or is rejected if
// the token is stale or replayed.
//
// Error taxonomy: credential failures are ErrInvalidCredentials, every
// token/authentication failure is the undifferentiated ErrForbidden, and
// storage failures pass through wrapped. The HTTP layer maps those three
// classes onto 401, 403-with-cleared-cookies and a generic 503; no backend
// detail ever reaches the client.
package auth
