package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/epos-daily-stats/internal/domain/entity"
)

// StatsRepository persistence port for the K_MEAL/K_PRO/K_REV/K_WK_VAT aggregates.
// Write methods are meant to run inside the build transaction.
type StatsRepository interface {
	// LockRevenueDay gets or creates the K_REV row of date and locks it (SELECT FOR UPDATE),
	// which serialises runs for the same date.
	LockRevenueDay(ctx context.Context, date time.Time) (*entity.Revenue, error)
	SaveRevenue(ctx context.Context, rev *entity.Revenue) error

	UpsertMeal(ctx context.Context, m *entity.MealCount) error
	UpsertProduct(ctx context.Context, p *entity.ProductCount) error
	// DeleteStaleMeals removes rows of date whose product is not in keep.
	DeleteStaleMeals(ctx context.Context, date time.Time, keep []int) (int64, error)
	DeleteStaleProducts(ctx context.Context, date time.Time, keep []entity.ProductKey) (int64, error)

	// LockWeeklyVat gets or creates the class row and locks it.
	LockWeeklyVat(ctx context.Context, class int, rate decimal.Decimal) (*entity.WeeklyVat, error)
	SaveWeeklyVat(ctx context.Context, w *entity.WeeklyVat) error

	ListMeals(ctx context.Context, date time.Time) ([]entity.MealCount, error)
	// ListProducts rows of date ordered by (PRODNUMB, COMBO); empty codes means all products.
	ListProducts(ctx context.Context, date time.Time, codes []int) ([]entity.ProductCount, error)
	GetRevenue(ctx context.Context, date time.Time) (*entity.Revenue, error)
	ListWeeklyVat(ctx context.Context) ([]entity.WeeklyVat, error)

	ClearAll(ctx context.Context) (entity.ClearedCounts, error)
	// DeleteBefore removes dated aggregates older than date. K_WK_VAT is not dated and is kept.
	DeleteBefore(ctx context.Context, date time.Time) (entity.ClearedCounts, error)
}
