package refresh

import "errors"

var (
	ErrStoreRequired    = errors.New("refresh: store is required")
	ErrSecretTooShort   = errors.New("refresh: hashing secret too short")
	ErrSessionNotFound  = errors.New("refresh: session not found")
	ErrRotationConflict = errors.New("refresh: rotation conflict")
	ErrInvalidSession   = errors.New("refresh: invalid session")
)
