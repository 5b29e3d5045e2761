package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/authkit/migrations"
	authmod "github.com/dmitrymomot/authkit/modules/auth"
	"github.com/dmitrymomot/authkit/pkg/accesstoken"
	authsvc "github.com/dmitrymomot/authkit/pkg/auth"
	"github.com/dmitrymomot/authkit/pkg/config"
	"github.com/dmitrymomot/authkit/pkg/cookie"
	"github.com/dmitrymomot/authkit/pkg/fingerprint"
	"github.com/dmitrymomot/authkit/pkg/httpserver"
	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/pg"
	"github.com/dmitrymomot/authkit/pkg/ratelimit"
	"github.com/dmitrymomot/authkit/pkg/redis"
	"github.com/dmitrymomot/authkit/pkg/refresh"
)

type appConfig struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	AccessSecret  string        `env:"ACCESS_TOKEN_SECRET,required"`
	RefreshSecret string        `env:"REFRESH_TOKEN_SECRET"`
	AccessTTL     time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"10m"`
	RotateMargin  time.Duration `env:"ACCESS_TOKEN_ROTATE_MARGIN" envDefault:"1m"`
	RefreshMaxAge time.Duration `env:"REFRESH_TOKEN_MAX_AGE" envDefault:"168h"`
	GraceWindow   time.Duration `env:"REFRESH_ROTATION_GRACE" envDefault:"30s"`

	FingerprintBindIP    bool `env:"FP_BIND_IP" envDefault:"true"`
	FingerprintBindAgent bool `env:"FP_BIND_AGENT" envDefault:"true"`

	HTTP  httpserver.Config
	PG    pg.Config
	Redis redis.Config
	Auth  authmod.Config
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	production := cfg.Environment == "production"
	format := logger.FormatText
	if production {
		format = logger.FormatJSON
	}
	log := logger.New(logger.WithFormat(format), logger.WithAttrs(logger.Component("auth-server")))

	if err := run(context.Background(), cfg, production, log); err != nil {
		log.Error("server exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, production bool, log *slog.Logger) error {
	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, migrations.FS, log); err != nil {
		return err
	}

	redisClient, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close() //nolint:errcheck

	// The refresh secret falls back to the access secret so a single-secret
	// deployment stays valid.
	refreshSecret := cfg.RefreshSecret
	if refreshSecret == "" {
		refreshSecret = cfg.AccessSecret
	}

	sessions, err := refresh.NewManager(refresh.NewPGStore(pool), refreshSecret,
		refresh.WithMaxAge(cfg.RefreshMaxAge),
		refresh.WithGraceWindow(cfg.GraceWindow),
	)
	if err != nil {
		return err
	}

	engine := fingerprint.New(cfg.AccessSecret, cfg.FingerprintBindIP, cfg.FingerprintBindAgent)
	codec, err := accesstoken.NewCodec(cfg.AccessSecret, cfg.AccessTTL, cfg.RotateMargin, engine)
	if err != nil {
		return err
	}

	svc, err := authsvc.NewService(authsvc.NewPGUserStorage(pool), sessions, codec,
		authsvc.WithLogger(log))
	if err != nil {
		return err
	}

	module, err := authmod.NewModule(cfg.Auth, svc, cookie.New(production),
		authmod.WithLogger(log),
		authmod.WithRateLimitStore(ratelimit.NewRedisStore(redisClient)),
	)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.Recoverer)
	r.Get("/health", httpserver.HealthHandler(log, pg.Healthcheck(pool), redis.Healthcheck(redisClient)))
	r.Mount("/auth", module.Handle())

	return httpserver.New(cfg.HTTP, log).Run(ctx, r)
}
