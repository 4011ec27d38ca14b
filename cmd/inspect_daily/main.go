// inspect_daily prints the persisted k_rev row and k_pro movement of a date.
//
// Usage: go run ./cmd/inspect_daily --date 2024-01-03 [--codes 1,3]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/jhoicas/epos-daily-stats/internal/application/dailystats"
	"github.com/jhoicas/epos-daily-stats/internal/bootstrap"
	"github.com/jhoicas/epos-daily-stats/internal/domain/entity"
	"github.com/jhoicas/epos-daily-stats/pkg/config"
	"github.com/jhoicas/epos-daily-stats/pkg/logger"
)

func main() {
	dateFlag := flag.String("date", "", "business date YYYY-MM-DD (default today)")
	codesFlag := flag.String("codes", "", "comma-separated product codes to show (default all)")
	flag.Parse()

	if err := run(*dateFlag, *codesFlag); err != nil {
		fmt.Fprintf(os.Stderr, "inspect_daily: %v\n", err)
		os.Exit(1)
	}
}

func run(dateFlag, codesFlag string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})

	codes, err := dailystats.ParseCodes(codesFlag)
	if err != nil {
		return err
	}

	ctx := context.Background()
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

	day, err := a.Stats.Snapshot(ctx, date, codes)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "k_rev %s\n", day.Date.Format(dailystats.DateLayout))
	for i, v := range day.Revenue.Values() {
		fmt.Fprintf(w, "  %s\t%d\n", entity.RevenueColumns[i], v)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "k_pro\tPRODNUMB\tCOMBO\tTAKEAWAY\tEATIN\tWASTE\tSTAFF\tOPTION")
	for _, p := range day.Products {
		combo := 0
		if p.Combo {
			combo = 1
		}
		fmt.Fprintf(w, "\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n", p.ProdNumb, combo, p.Takeaway, p.Eatin, p.Waste, p.Staff, p.Option)
	}
	return w.Flush()
}
