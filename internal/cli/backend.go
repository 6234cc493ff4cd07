package cli

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"ptoinfo/internal/domain/leave"
	"ptoinfo/internal/domain/pto"
	"ptoinfo/internal/platform/cache"
	"ptoinfo/internal/platform/config"
	"ptoinfo/internal/platform/db"
)

// Backend is the leave service surface of one tenant.
type Backend interface {
	pto.LeaveInfoSource
	pto.LeaveSummarySource
	SubmitRequest(ctx context.Context, input leave.RequestInput) (string, error)
}

// BackendFactory opens the leave services of tenantID. The returned func
// releases whatever the backend holds.
type BackendFactory func(ctx context.Context, tenantID string) (Backend, func(), error)

func databaseBackend(ctx context.Context, tenantID string) (Backend, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, nil, goerr.New("DATABASE_URL is required")
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	client, err := cache.Connect(ctx, cfg)
	if err != nil {
		slog.Warn("leave cache unavailable, reading through", "err", err)
		client = nil
	}

	var leaveCache leave.Cache
	if client != nil {
		leaveCache = leave.NewRedisCache(client)
	}
	svc := leave.NewService(leave.NewStore(pool), leaveCache, cfg.RedisPrefix, cfg.LeaveInfoTTL)

	release := func() {
		if client != nil {
			_ = client.Close()
		}
		pool.Close()
	}
	return svc.ForTenant(tenantID), release, nil
}
