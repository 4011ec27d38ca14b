// Package dailystats orchestrates a daily statistics run: it loads the day's orders and master
// data in one transaction, folds them with the stats engine and overwrites the persisted
// aggregates, then serves exports and reports from what was persisted.
package dailystats

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/epos-daily-stats/internal/domain"
	"github.com/jhoicas/epos-daily-stats/internal/domain/entity"
	"github.com/jhoicas/epos-daily-stats/internal/domain/repository"
	"github.com/jhoicas/epos-daily-stats/internal/domain/stats"
	"github.com/jhoicas/epos-daily-stats/pkg/logger"
)

// DateLayout of every date argument (CLI flags, URL params).
const DateLayout = "2006-01-02"

// Settings run options taken from configuration.
type Settings struct {
	Policy   stats.Policy
	Location *time.Location // business day boundaries; UTC when nil
	Clock    func() time.Time // time.Now when nil
}

// Service daily statistics use cases.
type Service struct {
	tx       TxRunner
	locker   DateLocker
	files    FileExporter
	zreport  ZReportGenerator
	workbook WeeklyVatWorkbook
	settings Settings
	log      *logger.Logger
	now      func() time.Time
}

// NewService wires the use cases. A nil locker means no cross-process lock.
func NewService(
	tx TxRunner,
	locker DateLocker,
	files FileExporter,
	zreport ZReportGenerator,
	workbook WeeklyVatWorkbook,
	settings Settings,
	log *logger.Logger,
) *Service {
	if locker == nil {
		locker = NopLocker()
	}
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if settings.Clock == nil {
		settings.Clock = time.Now
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		tx:       tx,
		locker:   locker,
		files:    files,
		zreport:  zreport,
		workbook: workbook,
		settings: settings,
		log:      log.Component("dailystats"),
		now:      settings.Clock,
	}
}

// ParseDate parses YYYY-MM-DD into a stat date (UTC midnight).
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", domain.ErrInvalidDate, s)
	}
	return t, nil
}

// ParseCodes comma separated product codes ("3, 10"); empty means none.
func ParseCodes(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	codes := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: %q is not a product code", domain.ErrInvalidInput, p)
		}
		codes = append(codes, n)
	}
	return codes, nil
}

// Today current business date in the configured zone, as a UTC midnight.
func (s *Service) Today() time.Time {
	return statDate(s.now().In(s.settings.Location))
}

func statDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// window local-midnight bounds of the business day; 23 or 25 hours long across DST changes.
func (s *Service) window(date time.Time) (from, to time.Time) {
	from = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.settings.Location)
	return from, from.AddDate(0, 0, 1)
}

// BuildResult what a run read and wrote.
type BuildResult struct {
	RunID         string
	Date          time.Time
	Orders        int
	Lines         int
	MealRows      int
	ProductRows   int
	StaleMeals    int64
	StaleProducts int64
	VatClasses    int
	WeeksSkipped  int // VAT classes whose stored week is newer than the date
	Notes         []stats.Note
	Revenue       entity.Revenue
}

// Build aggregates date and overwrites its K_MEAL/K_PRO/K_REV rows and the weekday column of
// K_WK_VAT. Running it again for the same date with the same data is a no-op on the stored
// values.
func (s *Service) Build(ctx context.Context, date time.Time) (*BuildResult, error) {
	day := statDate(date)
	from, to := s.window(day)
	runID := uuid.NewString()
	log := s.log.With().Str("run_id", runID).Str("date", day.Format(DateLayout)).Logger()

	release, err := s.locker.Lock(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", day.Format(DateLayout), err)
	}
	defer release()

	started := s.now()
	var res *BuildResult
	err = s.tx.RunStats(ctx, func(
		masterRepo repository.MasterDataRepository,
		orderRepo repository.OrderRepository,
		statsRepo repository.StatsRepository,
	) error {
		res = &BuildResult{RunID: runID, Date: day}

		rev, err := statsRepo.LockRevenueDay(ctx, day)
		if err != nil {
			return fmt.Errorf("lock revenue row: %w", err)
		}

		md, err := loadMasterData(ctx, masterRepo)
		if err != nil {
			return err
		}
		orders, err := orderRepo.ListCreatedBetween(ctx, from, to)
		if err != nil {
			return fmt.Errorf("list orders: %w", err)
		}

		ds := stats.Aggregate(day, orders, md, s.settings.Policy)
		res.Orders, res.Lines, res.Notes = ds.Orders, ds.Lines, ds.Notes

		meals := ds.Meals()
		keepMeals := make([]int, 0, len(meals))
		for i := range meals {
			if err := statsRepo.UpsertMeal(ctx, &meals[i]); err != nil {
				return fmt.Errorf("upsert meal %d: %w", meals[i].ProdNumb, err)
			}
			keepMeals = append(keepMeals, meals[i].ProdNumb)
		}
		res.MealRows = len(meals)

		products := ds.Products()
		keepProducts := make([]entity.ProductKey, 0, len(products))
		for i := range products {
			if err := statsRepo.UpsertProduct(ctx, &products[i]); err != nil {
				return fmt.Errorf("upsert product %d/%t: %w", products[i].ProdNumb, products[i].Combo, err)
			}
			keepProducts = append(keepProducts, products[i].ProductKey)
		}
		res.ProductRows = len(products)

		if res.StaleMeals, err = statsRepo.DeleteStaleMeals(ctx, day, keepMeals); err != nil {
			return fmt.Errorf("delete stale meals: %w", err)
		}
		if res.StaleProducts, err = statsRepo.DeleteStaleProducts(ctx, day, keepProducts); err != nil {
			return fmt.Errorf("delete stale products: %w", err)
		}

		*rev = ds.Revenue
		rev.StatDate = day
		if err := statsRepo.SaveRevenue(ctx, rev); err != nil {
			return fmt.Errorf("save revenue: %w", err)
		}
		res.Revenue = *rev

		weekday := entity.ISOWeekday(day)
		for _, w := range ds.WeeklyVat(md.Rates()) {
			row, err := statsRepo.LockWeeklyVat(ctx, w.VatClass, w.VatRate)
			if err != nil {
				return fmt.Errorf("lock weekly vat class %d: %w", w.VatClass, err)
			}
			switch {
			case row.WeekStart.Before(w.WeekStart):
				row.ResetWeek(w.WeekStart)
			case row.WeekStart.After(w.WeekStart):
				// K_WK_VAT only holds the latest week; an older date leaves it alone.
				log.Warn().Int("vat_class", w.VatClass).
					Str("week_start", row.WeekStart.Format(DateLayout)).
					Msg("weekly vat kept: date belongs to an earlier week")
				res.WeeksSkipped++
				continue
			}
			row.VatRate = w.VatRate
			row.SetDay(weekday, w.TotVat[weekday-1], w.ExclVat[weekday-1])
			if err := statsRepo.SaveWeeklyVat(ctx, row); err != nil {
				return fmt.Errorf("save weekly vat class %d: %w", w.VatClass, err)
			}
			res.VatClasses++
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("daily stats build failed")
		return nil, fmt.Errorf("build daily stats %s: %w", day.Format(DateLayout), err)
	}

	for _, n := range res.Notes {
		log.Warn().Int64("order_id", n.OrderID).Int64("line_id", n.LineID).Msg(n.Reason)
	}
	log.Info().
		Int("orders", res.Orders).
		Int("lines", res.Lines).
		Int("meal_rows", res.MealRows).
		Int("product_rows", res.ProductRows).
		Int64("stale_rows", res.StaleMeals+res.StaleProducts).
		Int("vat_classes", res.VatClasses).
		Int("notes", len(res.Notes)).
		Int64("vat", res.Revenue.VAT).
		Dur("took", s.now().Sub(started)).
		Msg("daily stats built")
	return res, nil
}

func loadMasterData(ctx context.Context, repo repository.MasterDataRepository) (*stats.MasterData, error) {
	products, err := repo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	combos, err := repo.ListCombos(ctx)
	if err != nil {
		return nil, fmt.Errorf("list combos: %w", err)
	}
	rates, err := repo.ListVatRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vat rates: %w", err)
	}
	links, err := repo.ListComponentLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list component links: %w", err)
	}
	defaults, err := repo.ListDefaultChoices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list default choices: %w", err)
	}
	return stats.NewMasterData(products, combos, rates, links, defaults), nil
}

// Snapshot reads the persisted aggregates of date. codes filters the product rows; empty
// means all. Returns domain.ErrNotFound when the date was never built.
func (s *Service) Snapshot(ctx context.Context, date time.Time, codes []int) (*DaySnapshot, error) {
	day := statDate(date)
	var snap *DaySnapshot
	err := s.tx.RunStats(ctx, func(
		_ repository.MasterDataRepository,
		_ repository.OrderRepository,
		statsRepo repository.StatsRepository,
	) error {
		rev, err := statsRepo.GetRevenue(ctx, day)
		if err != nil {
			return fmt.Errorf("get revenue: %w", err)
		}
		if rev == nil {
			return fmt.Errorf("no daily stats for %s: %w", day.Format(DateLayout), domain.ErrNotFound)
		}
		meals, err := statsRepo.ListMeals(ctx, day)
		if err != nil {
			return fmt.Errorf("list meals: %w", err)
		}
		products, err := statsRepo.ListProducts(ctx, day, codes)
		if err != nil {
			return fmt.Errorf("list products: %w", err)
		}
		stats.SortProducts(products)
		snap = &DaySnapshot{Date: day, Meals: meals, Products: products, Revenue: *rev}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// WeeklyVat current K_WK_VAT rows ordered by class.
func (s *Service) WeeklyVat(ctx context.Context) ([]entity.WeeklyVat, error) {
	var rows []entity.WeeklyVat
	err := s.tx.RunStats(ctx, func(
		_ repository.MasterDataRepository,
		_ repository.OrderRepository,
		statsRepo repository.StatsRepository,
	) error {
		var err error
		rows, err = statsRepo.ListWeeklyVat(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list weekly vat: %w", err)
	}
	return rows, nil
}

// ExportResult a build plus the files written for it.
type ExportResult struct {
	Build *BuildResult
	Files []string
}

// Export builds date and writes MP/PD/RV<ddmmyy>.CSV into dir; with reports it also writes
// the ZR<ddmmyy>.PDF Z-report and the VW<ddmmyy>.XLSX weekly VAT workbook.
func (s *Service) Export(ctx context.Context, date time.Time, dir string, reports bool) (*ExportResult, error) {
	build, err := s.Build(ctx, date)
	if err != nil {
		return nil, err
	}
	snap, err := s.Snapshot(ctx, build.Date, nil)
	if err != nil {
		return nil, err
	}

	var extra []NamedFile
	if reports {
		if extra, err = s.reports(ctx, snap); err != nil {
			return nil, err
		}
	}

	paths, err := s.files.WriteDay(dir, snap, extra...)
	if err != nil {
		return nil, fmt.Errorf("write export files: %w", err)
	}
	s.log.Info().Str("run_id", build.RunID).Str("dir", dir).Strs("files", paths).Msg("daily files exported")
	return &ExportResult{Build: build, Files: paths}, nil
}

// ExportArchive builds date and returns the CSV files zipped, with the archive name.
func (s *Service) ExportArchive(ctx context.Context, date time.Time) ([]byte, string, error) {
	build, err := s.Build(ctx, date)
	if err != nil {
		return nil, "", err
	}
	snap, err := s.Snapshot(ctx, build.Date, nil)
	if err != nil {
		return nil, "", err
	}
	data, err := s.files.Archive(snap)
	if err != nil {
		return nil, "", fmt.Errorf("archive export files: %w", err)
	}
	return data, DayFileName("DS", build.Date, "zip"), nil
}

// ZReport renders the persisted day as PDF, with the file name. The date must have been built.
func (s *Service) ZReport(ctx context.Context, date time.Time) ([]byte, string, error) {
	snap, err := s.Snapshot(ctx, date, nil)
	if err != nil {
		return nil, "", err
	}
	weekly, err := s.WeeklyVat(ctx)
	if err != nil {
		return nil, "", err
	}
	data, err := s.zreport.GenerateZReport(ctx, snap, weekly)
	if err != nil {
		return nil, "", fmt.Errorf("generate z-report: %w", err)
	}
	return data, DayFileName("ZR", snap.Date, "PDF"), nil
}

func (s *Service) reports(ctx context.Context, snap *DaySnapshot) ([]NamedFile, error) {
	weekly, err := s.WeeklyVat(ctx)
	if err != nil {
		return nil, err
	}
	pdf, err := s.zreport.GenerateZReport(ctx, snap, weekly)
	if err != nil {
		return nil, fmt.Errorf("generate z-report: %w", err)
	}
	xlsx, err := s.workbook.GenerateWeeklyVat(ctx, snap.Date, weekly)
	if err != nil {
		return nil, fmt.Errorf("generate weekly vat workbook: %w", err)
	}
	return []NamedFile{
		{Name: DayFileName("ZR", snap.Date, "PDF"), Data: pdf},
		{Name: DayFileName("VW", snap.Date, "XLSX"), Data: xlsx},
	}, nil
}

// DayFileName legacy naming: prefix + ddmmyy + "." + ext.
func DayFileName(prefix string, date time.Time, ext string) string {
	return prefix + date.Format("020106") + "." + ext
}

// ClearAll deletes every K_MEAL/K_PRO/K_REV/K_WK_VAT row and reports the counts.
func (s *Service) ClearAll(ctx context.Context) (entity.ClearedCounts, error) {
	var counts entity.ClearedCounts
	err := s.tx.RunStats(ctx, func(
		_ repository.MasterDataRepository,
		_ repository.OrderRepository,
		statsRepo repository.StatsRepository,
	) error {
		var err error
		counts, err = statsRepo.ClearAll(ctx)
		return err
	})
	if err != nil {
		return entity.ClearedCounts{}, fmt.Errorf("clear daily stats: %w", err)
	}
	s.log.Info().
		Int64("k_meal", counts.Meal).
		Int64("k_pro", counts.Product).
		Int64("k_rev", counts.Revenue).
		Int64("k_wk_vat", counts.WeeklyVat).
		Msg("daily stats cleared")
	return counts, nil
}

// PurgeResult rows removed by a retention sweep.
type PurgeResult struct {
	OrdersBefore time.Time
	Orders       int64
	StatsBefore  time.Time
	Stats        entity.ClearedCounts
}

// PurgeOld deletes orders created before local midnight orderDays ago and, when statsDays > 0,
// the dated aggregates older than statsDays.
func (s *Service) PurgeOld(ctx context.Context, orderDays, statsDays int) (*PurgeResult, error) {
	if orderDays < 0 || statsDays < 0 {
		return nil, fmt.Errorf("%w: retention days must be >= 0", domain.ErrInvalidInput)
	}
	today := s.now().In(s.settings.Location)
	midnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, s.settings.Location)
	res := &PurgeResult{OrdersBefore: midnight.AddDate(0, 0, -orderDays)}
	if statsDays > 0 {
		res.StatsBefore = statDate(midnight.AddDate(0, 0, -statsDays))
	}

	err := s.tx.RunStats(ctx, func(
		_ repository.MasterDataRepository,
		orderRepo repository.OrderRepository,
		statsRepo repository.StatsRepository,
	) error {
		var err error
		if res.Orders, err = orderRepo.DeleteCreatedBefore(ctx, res.OrdersBefore); err != nil {
			return fmt.Errorf("delete orders: %w", err)
		}
		if statsDays > 0 {
			if res.Stats, err = statsRepo.DeleteBefore(ctx, res.StatsBefore); err != nil {
				return fmt.Errorf("delete aggregates: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("purge old data: %w", err)
	}
	s.log.Info().
		Time("orders_before", res.OrdersBefore).
		Int64("orders", res.Orders).
		Int64("stats_rows", res.Stats.Meal+res.Stats.Product+res.Stats.Revenue).
		Msg("old data purged")
	return res, nil
}

// StatusFix one misspelled order status and how many orders carry it.
type StatusFix struct {
	From   string
	To     string
	Orders int64
}

// NormalizeStatuses rewrites the misspelled statuses listed in entity.StatusCorrections. With
// dryRun nothing is written and Orders is the number that would change.
func (s *Service) NormalizeStatuses(ctx context.Context, dryRun bool) ([]StatusFix, error) {
	from := make([]string, 0, len(entity.StatusCorrections))
	for typo := range entity.StatusCorrections {
		from = append(from, typo)
	}
	sort.Strings(from)

	fixes := make([]StatusFix, 0, len(from))
	err := s.tx.RunStats(ctx, func(
		_ repository.MasterDataRepository,
		orderRepo repository.OrderRepository,
		_ repository.StatsRepository,
	) error {
		fixes = fixes[:0]
		for _, typo := range from {
			to := entity.StatusCorrections[typo]
			if !entity.IsKnownOrderStatus(to) {
				return fmt.Errorf("%w: correction %q -> %q targets an unknown status", domain.ErrInvalidInput, typo, to)
			}
			n, err := orderRepo.NormalizeStatus(ctx, typo, to, dryRun)
			if err != nil {
				return err
			}
			fixes = append(fixes, StatusFix{From: typo, To: to, Orders: n})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("normalize statuses: %w", err)
	}
	for _, f := range fixes {
		s.log.Info().Str("from", f.From).Str("to", f.To).Int64("orders", f.Orders).Bool("dry_run", dryRun).
			Msg("order status normalized")
	}
	return fixes, nil
}
