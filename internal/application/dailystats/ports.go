package dailystats

import (
	"context"
	"time"

	"github.com/jhoicas/epos-daily-stats/internal/domain/entity"
	"github.com/jhoicas/epos-daily-stats/internal/domain/repository"
)

// TxRunner runs fn inside one database transaction with repositories bound to it.
// Implementations re-run fn on deadlock or serialization failure, so fn must not keep state
// between calls.
type TxRunner interface {
	RunStats(ctx context.Context, fn func(
		masterRepo repository.MasterDataRepository,
		orderRepo repository.OrderRepository,
		statsRepo repository.StatsRepository,
	) error) error
}

// DateLocker cross-process lock on a business date. release is always safe to call.
type DateLocker interface {
	Lock(ctx context.Context, date time.Time) (release func(), err error)
}

// FileExporter legacy CSV files of a day (MP/PD/RV) plus any extra report files.
type FileExporter interface {
	// WriteDay writes every file into dir without ever exposing a partial file and returns
	// the written paths.
	WriteDay(dir string, day *DaySnapshot, extra ...NamedFile) ([]string, error)
	// Archive packs the same files into a zip.
	Archive(day *DaySnapshot, extra ...NamedFile) ([]byte, error)
}

// ZReportGenerator renders the end-of-day summary as PDF.
type ZReportGenerator interface {
	GenerateZReport(ctx context.Context, day *DaySnapshot, weekly []entity.WeeklyVat) ([]byte, error)
}

// WeeklyVatWorkbook renders the K_WK_VAT rows as a spreadsheet.
type WeeklyVatWorkbook interface {
	GenerateWeeklyVat(ctx context.Context, date time.Time, rows []entity.WeeklyVat) ([]byte, error)
}

// NamedFile in-memory file.
type NamedFile struct {
	Name string
	Data []byte
}

// DaySnapshot persisted aggregates of one date, as read back after a build.
type DaySnapshot struct {
	Date     time.Time
	Meals    []entity.MealCount
	Products []entity.ProductCount
	Revenue  entity.Revenue
}

type nopLocker struct{}

func (nopLocker) Lock(context.Context, time.Time) (func(), error) {
	return func() {}, nil
}

// NopLocker DateLocker used when no Redis is configured; the k_rev row lock still
// serialises same-date runs.
func NopLocker() DateLocker { return nopLocker{} }
