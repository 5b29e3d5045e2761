// Package refresh implements server-side refresh sessions with single-use
// token rotation and a bounded grace window.
//
// A refresh token is an opaque, high-entropy string; the store only ever
// sees its keyed HMAC-SHA256 digest. Each login creates one session row
// that represents the token's whole lineage: rotation mutates the row in
// place, demoting the current digest to "previous" and opening a short
// grace window during which the previous token still resolves identity but
// cannot rotate again.
//
// The grace window exists because browsers fire duplicate and overlapping
// refresh requests (tab duplication, retried fetches). Strict single-use
// tokens would strand one of the concurrent callers; the grace path lets
// the loser of a rotation race still obtain an access token instead of
// being forced into a hard logout.
//
// All contended mutation goes through Store.Rotate, a compare-and-swap on
// (session id, current hash, not expired). Exactly one of any number of
// concurrent rotation attempts succeeds; the rest observe
// ErrRotationConflict, which is an expected outcome, not a fault.
//
// Revocation is soft: expiry collapses to now and rows are never deleted by
// the protocol. Physical cleanup of long-expired rows is a housekeeping
// concern outside this package.
package refresh
