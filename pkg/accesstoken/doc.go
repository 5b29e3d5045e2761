// Package accesstoken signs and verifies short-lived stateless access
// tokens carrying a user identity and an optional client fingerprint.
//
// Tokens are standard HS256 JWTs (header.claims.signature, base64url
// without padding) signed with a symmetric secret. Signature and
// fingerprint comparisons are constant-time. Every issued token also
// carries a rotate-at hint telling clients when to proactively refresh,
// clamped to never lie in the past.
//
// Verification is total: any malformed, tampered, expired or mis-bound
// token yields a sentinel error, never a panic. Callers are expected to
// collapse all verification errors into a single uniform authentication
// failure at the HTTP boundary.
package accesstoken
