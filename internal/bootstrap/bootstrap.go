// Package bootstrap wires configuration, PostgreSQL, Redis and the report writers into a
// dailystats.Service for the API and the command-line tools.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/epos-daily-stats/internal/application/dailystats"
	"github.com/jhoicas/epos-daily-stats/internal/domain/stats"
	"github.com/jhoicas/epos-daily-stats/internal/infrastructure/csvexport"
	infrapdf "github.com/jhoicas/epos-daily-stats/internal/infrastructure/pdf"
	"github.com/jhoicas/epos-daily-stats/internal/infrastructure/postgres"
	"github.com/jhoicas/epos-daily-stats/internal/infrastructure/redislock"
	"github.com/jhoicas/epos-daily-stats/internal/infrastructure/xlsx"
	"github.com/jhoicas/epos-daily-stats/pkg/config"
	"github.com/jhoicas/epos-daily-stats/pkg/logger"
)

// App wired dependencies; Close releases the pool and the Redis client.
type App struct {
	Config   *config.Config
	Log      *logger.Logger
	Pool     *pgxpool.Pool
	Stats    *dailystats.Service
	Channels *postgres.ChannelRepo

	redis *redis.Client
}

// Policy aggregation switches from configuration.
func Policy(cfg config.StatsConfig) (stats.Policy, error) {
	sw, err := stats.ParseStaffWasteVAT(cfg.StaffWasteVAT)
	if err != nil {
		return stats.Policy{}, err
	}
	return stats.Policy{StaffWasteVAT: sw, NoSelectionCode: cfg.NoSelectionCode}, nil
}

// Open connects to PostgreSQL (and Redis when configured) and builds the service.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	policy, err := Policy(cfg.Stats)
	if err != nil {
		return nil, err
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	a := &App{Config: cfg, Log: log, Pool: pool, Channels: postgres.NewChannelRepository(pool)}

	var locker dailystats.DateLocker
	if cfg.Redis.Enabled() {
		a.redis, err = redislock.NewClient(ctx, cfg.Redis)
		if err != nil {
			pool.Close()
			return nil, err
		}
		locker = redislock.NewDateLocker(a.redis, cfg.Redis.LockTTL())
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis date lock enabled")
	}

	a.Stats = dailystats.NewService(
		postgres.NewTxRunner(pool),
		locker,
		csvexport.NewWriter(),
		infrapdf.NewMarotoZReportGenerator(cfg.App.Name),
		xlsx.NewWeeklyVatWorkbook(),
		dailystats.Settings{Policy: policy, Location: cfg.App.Location()},
		log,
	)
	return a, nil
}

// Close releases connections.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Log.Warn().Err(err).Msg("close redis")
		}
	}
	a.Pool.Close()
}
