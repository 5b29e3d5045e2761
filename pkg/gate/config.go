package gate

import "time"

// Config holds the edge gate settings.
type Config struct {
	// PrivatePrefixes lists the path prefixes that require a live access
	// token. Everything else passes through untouched.
	PrivatePrefixes []string `env:"GATE_PRIVATE_PREFIXES" envSeparator:"," envDefault:"/app"`

	// RefreshURL is the absolute URL of the auth service's refresh
	// endpoint.
	RefreshURL string `env:"GATE_REFRESH_URL,required"`

	AccessCookieName  string `env:"GATE_ACCESS_COOKIE_NAME" envDefault:"__acc"`
	RefreshCookieName string `env:"GATE_REFRESH_COOKIE_NAME" envDefault:"__ref"`

	LoginPath       string `env:"GATE_LOGIN_PATH" envDefault:"/login"`
	MaintenancePath string `env:"GATE_MAINTENANCE_PATH" envDefault:"/maintenance"`

	// ExpiryMargin treats tokens expiring within the margin as already
	// expired, so the upstream never sees a token that dies mid-request.
	ExpiryMargin time.Duration `env:"GATE_EXPIRY_MARGIN" envDefault:"5s"`
}
