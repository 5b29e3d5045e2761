package auth

import "errors"

var (
	ErrServiceRequired       = errors.New("modules/auth: service is required")
	ErrCookieManagerRequired = errors.New("modules/auth: cookie manager is required")
)
