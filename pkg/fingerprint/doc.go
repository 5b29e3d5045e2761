// Package fingerprint derives a stable, non-reversible binding of an access
// token to the requesting client's network and agent context.
//
// The fingerprint is a keyed hash (HMAC-SHA256 under the access-token
// secret) over the normalized client IP and user agent, truncated to a short
// fixed length to keep token size small. It defeats casual token theft and
// replay from a different network context; it is not a device identifier.
//
// Which dimensions participate (IP, user agent, or both) is configurable.
// With both disabled the engine computes nothing, and tokens are issued and
// verified without a fingerprint.
package fingerprint
