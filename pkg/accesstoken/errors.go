package accesstoken

import "errors"

var (
	ErrSecretTooShort      = errors.New("accesstoken: signing secret too short")
	ErrInvalidLifetime     = errors.New("accesstoken: token lifetime must be positive")
	ErrInvalidToken        = errors.New("accesstoken: invalid token")
	ErrInvalidSignature    = errors.New("accesstoken: invalid signature")
	ErrUnexpectedAlgorithm = errors.New("accesstoken: unexpected signing algorithm")
	ErrInvalidClaims       = errors.New("accesstoken: invalid claims")
	ErrExpiredToken        = errors.New("accesstoken: token is expired")
	ErrFingerprintMismatch = errors.New("accesstoken: fingerprint mismatch")
)
