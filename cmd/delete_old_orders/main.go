// delete_old_orders removes orders older than the retention window and, optionally, old
// dated aggregates.
//
// Usage: go run ./cmd/delete_old_orders [--days 30] [--stats-days 400]
//
// --days defaults to ORDER_RETENTION_DAYS. --stats-days 0 keeps every aggregate.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/epos-daily-stats/internal/application/dailystats"
	"github.com/jhoicas/epos-daily-stats/internal/bootstrap"
	"github.com/jhoicas/epos-daily-stats/pkg/config"
	"github.com/jhoicas/epos-daily-stats/pkg/logger"
)

func main() {
	days := flag.Int("days", -1, "keep orders of the last N days (default ORDER_RETENTION_DAYS)")
	statsDays := flag.Int("stats-days", 0, "also delete k_meal/k_pro/k_rev rows older than N days; 0 keeps them")
	flag.Parse()

	if err := run(*days, *statsDays); err != nil {
		fmt.Fprintf(os.Stderr, "delete_old_orders: %v\n", err)
		os.Exit(1)
	}
}

func run(days, statsDays int) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
	if days < 0 {
		days = cfg.Stats.OrderRetentionDays
	}

	ctx := context.Background()
	a, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Stats.PurgeOld(ctx, days, statsDays)
	if err != nil {
		return err
	}
	fmt.Printf("deleted %d orders created before %s\n", res.Orders, res.OrdersBefore.Format(dailystats.DateLayout))
	if statsDays > 0 {
		fmt.Printf("deleted k_meal %d, k_pro %d, k_rev %d rows dated before %s\n",
			res.Stats.Meal, res.Stats.Product, res.Stats.Revenue, res.StatsBefore.Format(dailystats.DateLayout))
	}
	return nil
}
