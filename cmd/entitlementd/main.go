package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bizkit-fr/entitlements/internal/config"
	"github.com/bizkit-fr/entitlements/pkg/httpserver"
	"github.com/bizkit-fr/entitlements/pkg/jwt"
	"github.com/bizkit-fr/entitlements/pkg/logger"
	"github.com/bizkit-fr/entitlements/svc/entitlement"
)

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("entitlementd stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	catalog, err := loadCatalog(ctx, cfg.Catalog)
	if err != nil {
		return err
	}
	log.InfoContext(ctx, "plan catalog loaded",
		slog.String("source", cfg.Catalog.Source), slog.Int("plans", len(catalog.Plans())),
		logger.Plan(catalog.Free().Name))

	b := newBackends(cfg, log)
	defer b.Close()

	store, err := b.store(ctx, cfg.Store.Backend)
	if err != nil {
		return err
	}
	counters, err := b.counters(ctx, cfg.Store.CountersBackend())
	if err != nil {
		return err
	}

	opts := []entitlement.ServiceOption{
		entitlement.WithCounters(counters),
		entitlement.WithLogger(log),
	}
	if cfg.Store.StrictResources {
		opts = append(opts, entitlement.WithStrictResources())
	}
	svc := entitlement.NewService(catalog, store, opts...)

	verifier, err := jwt.NewVerifier(cfg.Auth)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP, middleware.Recoverer)
	r.Get("/livez", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(log, 2*time.Second, b.checks))
	r.Mount("/v1", entitlement.Router(svc, entitlement.RouterOptions{
		Auth:           jwt.Middleware(verifier, jwt.WithLogger(log)),
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Logger:         log,
	}))

	return httpserver.New(cfg.HTTP, log).Run(ctx, r)
}

func newLogger(cfg config.Config) (*slog.Logger, error) {
	opts := []logger.Option{
		logger.WithEnvironment(cfg.Env, cfg.ServiceName),
		logger.WithContextExtractors(logger.ContextValue("request_id", middleware.RequestIDKey)),
	}
	if cfg.LogLevel != "" {
		level, err := logger.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		opts = append(opts, logger.WithLevel(level))
	}
	return logger.New(opts...), nil
}
