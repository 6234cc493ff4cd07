package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"

	"ptoinfo/internal/domain/audit"
	"ptoinfo/internal/domain/auth"
	"ptoinfo/internal/domain/leave"
	"ptoinfo/internal/domain/notifications"
	"ptoinfo/internal/domain/pto"
	"ptoinfo/internal/platform/cache"
	"ptoinfo/internal/platform/config"
	"ptoinfo/internal/platform/crypto"
	"ptoinfo/internal/platform/db"
	"ptoinfo/internal/platform/email"
	"ptoinfo/internal/platform/jobs"
	"ptoinfo/internal/platform/metrics"
	"ptoinfo/internal/transport/http/api"
	authhandler "ptoinfo/internal/transport/http/handlers/auth"
	leavehandler "ptoinfo/internal/transport/http/handlers/leave"
	ptohandler "ptoinfo/internal/transport/http/handlers/pto"
	"ptoinfo/internal/transport/http/middleware"
)

type App struct {
	Config   config.Config
	DB       *pgxpool.Pool
	Cache    *redis.Client
	Router   http.Handler
	Jobs     *jobs.Service
	Sessions *pto.Registry
	Metrics  *metrics.Collector
	Secrets  *crypto.Box
	Leave    *leave.Service
}

// New connects to the database and cache, applies migrations and seed data
// when enabled and builds the router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, err
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, err
		}
	}

	box, err := crypto.NewBox(cfg.EncryptionKey)
	if err != nil {
		pool.Close()
		return nil, err
	}

	redisClient, err := cache.Connect(ctx, cfg)
	if err != nil {
		pool.Close()
		return nil, err
	}

	var leaveCache leave.Cache
	if redisClient != nil {
		leaveCache = leave.NewRedisCache(redisClient)
	}

	app := &App{
		Config:   cfg,
		DB:       pool,
		Cache:    redisClient,
		Jobs:     jobs.New(pool),
		Sessions: pto.NewRegistry(cfg.SessionTTL),
		Metrics:  metrics.New(),
		Secrets:  box,
		Leave:    leave.NewService(leave.NewStore(pool), leaveCache, cfg.RedisPrefix, cfg.LeaveInfoTTL),
	}
	app.Jobs.Every(jobs.JobSessionSweep, cfg.SweepInterval, app.sweepSessions)
	app.Router = app.routes()
	return app, nil
}

func (a *App) sweepSessions(context.Context) (any, error) {
	removed := a.Sessions.Sweep()
	a.Metrics.RecordSweep(removed)
	if removed > 0 {
		slog.Info("idle pto sessions swept", "removed", removed, "remaining", a.Sessions.Len())
	}
	return map[string]int{"removed": removed}, nil
}

// rateCounter shares rate windows through redis when it is configured.
func (a *App) rateCounter() middleware.RateCounter {
	if a.Cache == nil {
		return middleware.NewMemoryCounter()
	}
	return cache.NewRateCounter(a.Cache, a.Config.RedisPrefix)
}

func (a *App) routes() http.Handler {
	cfg := a.Config
	authStore := auth.NewStore(a.DB)
	notify := notifications.New(notifications.NewStore(a.DB), email.New(cfg), cfg.EmailFrom)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(slog.Default(), a.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret, slog.Default()))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.DB.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if a.Cache != nil {
			if err := a.Cache.Ping(ctx).Err(); err != nil {
				http.Error(w, "cache not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			snap := a.Metrics.Snapshot()
			snap["ptoSessionsActive"] = a.Sessions.Len()
			api.Success(w, snap, middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		counter := a.rateCounter()
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute, counter))
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute*5, time.Minute, middleware.WithCounter(counter)))

		authHandler := authhandler.NewHandler(authStore, cfg.JWTSecret, cfg.TokenTTL)
		authHandler.Secrets = a.Secrets
		authHandler.RegisterRoutes(r)

		leaveHandler := leavehandler.NewHandler(func(tenantID string) leavehandler.Source {
			return a.Leave.ForTenant(tenantID)
		}, authStore)
		leaveHandler.RegisterRoutes(r)

		ptoHandler := ptohandler.NewHandler(
			func(tenantID string) ptohandler.Backend { return a.Leave.ForTenant(tenantID) },
			a.Sessions,
			authStore,
			notify,
			middleware.NewIdempotencyStore(a.DB),
			a.Metrics,
			cfg.LoadTimeout,
		)
		ptoHandler.Audit = audit.New(a.DB)
		ptoHandler.RegisterRoutes(r)
	})

	return router
}

func (a *App) Close() {
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			slog.Warn("redis close failed", "err", err)
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

// Run serves the API until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	if err := cfg.Validate(); err != nil {
		return goerr.Wrap(err, "invalid configuration")
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret"
		slog.Warn("JWT_SECRET not set, using development secret")
	}

	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	app.Jobs.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("pto server listening", "addr", cfg.Addr, "env", cfg.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return goerr.Wrap(err, "server failed", goerr.V("addr", cfg.Addr))
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return goerr.Wrap(err, "graceful shutdown failed")
	}
	return nil
}
