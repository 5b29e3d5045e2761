package cookie

import "errors"

var ErrCookieNotFound = errors.New("cookie: not found")
