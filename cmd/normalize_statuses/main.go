// normalize_statuses rewrites misspelled order statuses written by older tills
// ('dispached' -> 'dispatched') and reports how many orders changed.
//
// Usage: go run ./cmd/normalize_statuses [--dry-run]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/epos-daily-stats/internal/bootstrap"
	"github.com/jhoicas/epos-daily-stats/pkg/config"
	"github.com/jhoicas/epos-daily-stats/pkg/logger"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "only report, write nothing")
	flag.Parse()

	if err := run(*dryRun); err != nil {
		fmt.Fprintf(os.Stderr, "normalize_statuses: %v\n", err)
		os.Exit(1)
	}
}

func run(dryRun bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})

	ctx := context.Background()
	a, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	fixes, err := a.Stats.NormalizeStatuses(ctx, dryRun)
	if err != nil {
		return err
	}
	for _, f := range fixes {
		switch {
		case f.Orders == 0:
			fmt.Printf("no orders with status %q\n", f.From)
		case dryRun:
			fmt.Printf("found %d orders with status %q (dry run, nothing written)\n", f.Orders, f.From)
		default:
			fmt.Printf("updated %d orders from %q to %q\n", f.Orders, f.From, f.To)
		}
	}
	return nil
}
