package main

import (
	"context"
	"net/http/httputil"
	"net/url"
	"os"

	"github.com/dmitrymomot/authkit/pkg/config"
	"github.com/dmitrymomot/authkit/pkg/cookie"
	"github.com/dmitrymomot/authkit/pkg/gate"
	"github.com/dmitrymomot/authkit/pkg/httpserver"
	"github.com/dmitrymomot/authkit/pkg/logger"
)

type appConfig struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	// UpstreamURL is the application server the gate proxies to.
	UpstreamURL string `env:"GATE_UPSTREAM_URL,required"`

	HTTP httpserver.Config
	Gate gate.Config
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	production := cfg.Environment == "production"
	format := logger.FormatText
	if production {
		format = logger.FormatJSON
	}
	log := logger.New(logger.WithFormat(format), logger.WithAttrs(logger.Component("edge-gate")))

	upstream, err := url.Parse(cfg.UpstreamURL)
	if err != nil {
		log.Error("invalid upstream URL", logger.Error(err))
		os.Exit(1)
	}

	g, err := gate.New(cfg.Gate, cookie.New(production), gate.WithLogger(log))
	if err != nil {
		log.Error("gate setup failed", logger.Error(err))
		os.Exit(1)
	}

	proxy := httputil.NewSingleHostReverseProxy(upstream)
	handler := g.Middleware(proxy)

	if err := httpserver.New(cfg.HTTP, log).Run(context.Background(), handler); err != nil {
		log.Error("gate exited with error", logger.Error(err))
		os.Exit(1)
	}
}
