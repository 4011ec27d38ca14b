// build_daily_stats aggregates a date into k_meal, k_pro, k_rev and k_wk_vat without exporting.
//
// Usage: go run ./cmd/build_daily_stats [--date 2024-01-03]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/epos-daily-stats/internal/application/dailystats"
	"github.com/jhoicas/epos-daily-stats/internal/bootstrap"
	"github.com/jhoicas/epos-daily-stats/pkg/config"
	"github.com/jhoicas/epos-daily-stats/pkg/logger"
)

func main() {
	dateFlag := flag.String("date", "", "business date YYYY-MM-DD (default today)")
	flag.Parse()

	if err := run(*dateFlag); err != nil {
		fmt.Fprintf(os.Stderr, "build_daily_stats: %v\n", err)
		os.Exit(1)
	}
}

func run(dateFlag string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	date := a.Stats.Today()
	if dateFlag != "" {
		if date, err = dailystats.ParseDate(dateFlag); err != nil {
			return err
		}
	}

	res, err := a.Stats.Build(ctx, date)
	if err != nil {
		return err
	}
	fmt.Printf("run %s date %s\n", res.RunID, res.Date.Format(dailystats.DateLayout))
	fmt.Printf("orders %d, lines %d\n", res.Orders, res.Lines)
	fmt.Printf("k_meal %d rows, k_pro %d rows, stale removed %d\n",
		res.MealRows, res.ProductRows, res.StaleMeals+res.StaleProducts)
	fmt.Printf("k_wk_vat %d classes, VAT %d\n", res.VatClasses, res.Revenue.VAT)
	if res.WeeksSkipped > 0 {
		fmt.Printf("k_wk_vat kept for %d classes: a later week is already stored\n", res.WeeksSkipped)
	}
	for _, n := range res.Notes {
		fmt.Printf("note: %s\n", n)
	}
	return nil
}
