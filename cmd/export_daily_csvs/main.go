// export_daily_csvs builds the daily aggregates of a date and writes the legacy
// MP/PD/RV<ddmmyy>.CSV files.
//
// Usage: go run ./cmd/export_daily_csvs --date 2024-01-03 --outdir /srv/epos/out [--clear] [--reports]
//
// --date defaults to today in APP_TIMEZONE, --outdir to EXPORT_OUTDIR. --clear empties every k_*
// table once the files are written. --reports also writes ZR<ddmmyy>.PDF and VW<ddmmyy>.XLSX.
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
	outDir := flag.String("outdir", "", "output directory (default EXPORT_OUTDIR)")
	clearAll := flag.Bool("clear", false, "delete all k_* rows after a successful export")
	reports := flag.Bool("reports", false, "also write the Z-report PDF and weekly VAT workbook")
	flag.Parse()

	if err := run(*dateFlag, *outDir, *clearAll, *reports); err != nil {
		fmt.Fprintf(os.Stderr, "export_daily_csvs: %v\n", err)
		os.Exit(1)
	}
}

func run(dateFlag, outDir string, clearAll, reports bool) error {
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
	if outDir == "" {
		outDir = cfg.Export.OutDir
	}

	res, err := a.Stats.Export(ctx, date, outDir, reports)
	if err != nil {
		return err
	}

	b := res.Build
	fmt.Printf("date %s: %d orders, %d lines, %d meal rows, %d product rows, %d VAT classes\n",
		b.Date.Format(dailystats.DateLayout), b.Orders, b.Lines, b.MealRows, b.ProductRows, b.VatClasses)
	for _, n := range b.Notes {
		fmt.Printf("note: %s\n", n)
	}
	for _, f := range res.Files {
		fmt.Printf("wrote %s\n", f)
	}

	if clearAll {
		cleared, err := a.Stats.ClearAll(ctx)
		if err != nil {
			return fmt.Errorf("clear k_* tables: %w", err)
		}
		fmt.Printf("cleared k_meal %d, k_pro %d, k_rev %d, k_wk_vat %d\n",
			cleared.Meal, cleared.Product, cleared.Revenue, cleared.WeeklyVat)
	}
	return nil
}
