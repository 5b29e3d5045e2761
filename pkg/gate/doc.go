// Package gate implements the edge-side half of the session protocol: a
// reverse-proxy middleware that checks access token expiry on private
// paths and drives the browser through a refresh round trip when the
// token is about to die.
//
// The gate never validates signatures. It only peeks at the expiry claim
// to decide whether a refresh is needed; real verification stays with the
// auth service behind it.
package gate
