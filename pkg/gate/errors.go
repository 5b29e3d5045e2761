package gate

import "errors"

var (
	ErrRefreshURLRequired    = errors.New("gate: refresh URL is required")
	ErrCookieManagerRequired = errors.New("gate: cookie manager is required")
)
