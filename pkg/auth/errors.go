package auth

import "errors"

var (
	ErrStorageRequired    = errors.New("auth: user storage is required")
	ErrSessionsRequired   = errors.New("auth: refresh session manager is required")
	ErrCodecRequired      = errors.New("auth: access token codec is required")
	ErrUserNotFound       = errors.New("auth: user not found")
	ErrEmailAlreadyExists = errors.New("auth: email already in use")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrForbidden is the uniform authentication failure. It deliberately
	// carries no detail: callers must not be able to distinguish an expired
	// token from a tampered or replayed one.
	ErrForbidden = errors.New("auth: forbidden")
)
