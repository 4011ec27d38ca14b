package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/epos-daily-stats/internal/domain/entity"
	"github.com/jhoicas/epos-daily-stats/internal/domain/repository"
)

var _ repository.StatsRepository = (*StatsRepo)(nil)

var (
	revenueColumns = strings.ToLower(strings.Join(entity.RevenueColumns, ", "))
	revenueSet     = revenueSetClause()
	weeklyColumns  = weeklyVatColumns()
)

// revenueSetClause "tcashval = $2, tchqval = $3, ..." ($1 is stat_date).
func revenueSetClause() string {
	parts := make([]string, len(entity.RevenueColumns))
	for i, c := range entity.RevenueColumns {
		parts[i] = fmt.Sprintf("%s = $%d", strings.ToLower(c), i+2)
	}
	return strings.Join(parts, ", ")
}

func weeklyVatColumns() string {
	cols := make([]string, 0, 14)
	for i := 1; i <= 7; i++ {
		cols = append(cols, fmt.Sprintf("tot_vat_%d", i))
	}
	for i := 1; i <= 7; i++ {
		cols = append(cols, fmt.Sprintf("t_val_exclvat_%d", i))
	}
	return strings.Join(cols, ", ")
}

// StatsRepo K_* aggregates on PostgreSQL (pool or tx).
type StatsRepo struct {
	q Querier
}

// NewStatsRepository builds the adapter. Pass a pool or a tx (Querier).
func NewStatsRepository(q Querier) *StatsRepo {
	return &StatsRepo{q: q}
}

// ──────────────────────────────────────────────────────────────────────────────
// K_REV
// ──────────────────────────────────────────────────────────────────────────────

// LockRevenueDay get-or-create then SELECT ... FOR UPDATE on the date's row.
func (r *StatsRepo) LockRevenueDay(ctx context.Context, date time.Time) (*entity.Revenue, error) {
	if _, err := r.q.Exec(ctx,
		`INSERT INTO k_rev (stat_date) VALUES ($1) ON CONFLICT (stat_date) DO NOTHING`, date,
	); err != nil {
		return nil, fmt.Errorf("create revenue row: %w", err)
	}
	query := `SELECT stat_date, ` + revenueColumns + ` FROM k_rev WHERE stat_date = $1 FOR UPDATE`
	rev := &entity.Revenue{}
	dest := append([]any{&rev.StatDate}, rev.Fields()...)
	if err := r.q.QueryRow(ctx, query, date).Scan(dest...); err != nil {
		return nil, fmt.Errorf("lock revenue row: %w", err)
	}
	return rev, nil
}

// SaveRevenue overwrites every column of the date's row.
func (r *StatsRepo) SaveRevenue(ctx context.Context, rev *entity.Revenue) error {
	query := `UPDATE k_rev SET ` + revenueSet + `, last_updated = now() WHERE stat_date = $1`
	args := []any{rev.StatDate}
	for _, v := range rev.Values() {
		args = append(args, v)
	}
	cmd, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("save revenue: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("save revenue: no row for %s", rev.StatDate.Format(time.DateOnly))
	}
	return nil
}

// GetRevenue nil when the date was never built.
func (r *StatsRepo) GetRevenue(ctx context.Context, date time.Time) (*entity.Revenue, error) {
	query := `SELECT stat_date, ` + revenueColumns + ` FROM k_rev WHERE stat_date = $1`
	rev := &entity.Revenue{}
	dest := append([]any{&rev.StatDate}, rev.Fields()...)
	if err := r.q.QueryRow(ctx, query, date).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get revenue: %w", err)
	}
	return rev, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// K_MEAL / K_PRO
// ──────────────────────────────────────────────────────────────────────────────

// UpsertMeal inserts or overwrites the (date, product) row; the conflicting row is locked
// until commit.
func (r *StatsRepo) UpsertMeal(ctx context.Context, m *entity.MealCount) error {
	query := `
		INSERT INTO k_meal (stat_date, prodnumb, takeaway, eatin, last_updated)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (stat_date, prodnumb)
		DO UPDATE SET takeaway = EXCLUDED.takeaway, eatin = EXCLUDED.eatin, last_updated = now()`
	if _, err := r.q.Exec(ctx, query, m.StatDate, m.ProdNumb, m.Takeaway, m.Eatin); err != nil {
		return fmt.Errorf("upsert meal %d: %w", m.ProdNumb, err)
	}
	return nil
}

// UpsertProduct inserts or overwrites the (date, product, combo) row.
func (r *StatsRepo) UpsertProduct(ctx context.Context, p *entity.ProductCount) error {
	query := `
		INSERT INTO k_pro (stat_date, prodnumb, combo, takeaway, eatin, waste, staff, option, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (stat_date, prodnumb, combo)
		DO UPDATE SET takeaway = EXCLUDED.takeaway, eatin = EXCLUDED.eatin, waste = EXCLUDED.waste,
		              staff = EXCLUDED.staff, option = EXCLUDED.option, last_updated = now()`
	if _, err := r.q.Exec(ctx, query,
		p.StatDate, p.ProdNumb, p.Combo, p.Takeaway, p.Eatin, p.Waste, p.Staff, p.Option,
	); err != nil {
		return fmt.Errorf("upsert product %d/%t: %w", p.ProdNumb, p.Combo, err)
	}
	return nil
}

// DeleteStaleMeals removes the date's rows not produced by the current run.
func (r *StatsRepo) DeleteStaleMeals(ctx context.Context, date time.Time, keep []int) (int64, error) {
	if keep == nil {
		keep = []int{}
	}
	cmd, err := r.q.Exec(ctx,
		`DELETE FROM k_meal WHERE stat_date = $1 AND NOT (prodnumb = ANY($2::int[]))`, date, keep)
	if err != nil {
		return 0, fmt.Errorf("delete stale meals: %w", err)
	}
	return cmd.RowsAffected(), nil
}

// DeleteStaleProducts removes the date's rows whose (product, combo) key is not in keep.
func (r *StatsRepo) DeleteStaleProducts(ctx context.Context, date time.Time, keep []entity.ProductKey) (int64, error) {
	codes := make([]int, len(keep))
	combos := make([]bool, len(keep))
	for i, k := range keep {
		codes[i] = k.ProdNumb
		combos[i] = k.Combo
	}
	query := `
		DELETE FROM k_pro
		WHERE stat_date = $1
		  AND NOT EXISTS (
		      SELECT 1 FROM unnest($2::int[], $3::bool[]) AS k(prodnumb, combo)
		      WHERE k.prodnumb = k_pro.prodnumb AND k.combo = k_pro.combo)`
	cmd, err := r.q.Exec(ctx, query, date, codes, combos)
	if err != nil {
		return 0, fmt.Errorf("delete stale products: %w", err)
	}
	return cmd.RowsAffected(), nil
}

// ListMeals the date's rows ordered by product.
func (r *StatsRepo) ListMeals(ctx context.Context, date time.Time) ([]entity.MealCount, error) {
	rows, err := r.q.Query(ctx,
		`SELECT stat_date, prodnumb, takeaway, eatin FROM k_meal WHERE stat_date = $1 ORDER BY prodnumb`, date)
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.MealCount, error) {
		var m entity.MealCount
		err := row.Scan(&m.StatDate, &m.ProdNumb, &m.Takeaway, &m.Eatin)
		return m, err
	})
}

// ListProducts the date's rows ordered by (product, combo), optionally filtered by code.
func (r *StatsRepo) ListProducts(ctx context.Context, date time.Time, codes []int) ([]entity.ProductCount, error) {
	if codes == nil {
		codes = []int{}
	}
	query := `
		SELECT stat_date, prodnumb, combo, takeaway, eatin, waste, staff, option
		FROM k_pro
		WHERE stat_date = $1 AND (cardinality($2::int[]) = 0 OR prodnumb = ANY($2::int[]))
		ORDER BY prodnumb, combo`
	rows, err := r.q.Query(ctx, query, date, codes)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.ProductCount, error) {
		var p entity.ProductCount
		err := row.Scan(&p.StatDate, &p.ProdNumb, &p.Combo, &p.Takeaway, &p.Eatin, &p.Waste, &p.Staff, &p.Option)
		return p, err
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// K_WK_VAT
// ──────────────────────────────────────────────────────────────────────────────

// LockWeeklyVat get-or-create then lock the class row. A new row starts with week_start at
// the epoch so the first run always resets it.
func (r *StatsRepo) LockWeeklyVat(ctx context.Context, class int, rate decimal.Decimal) (*entity.WeeklyVat, error) {
	if _, err := r.q.Exec(ctx, `
		INSERT INTO k_wk_vat (vat_class, vat_rate, week_start) VALUES ($1, $2, DATE '1970-01-01')
		ON CONFLICT (vat_class) DO NOTHING`, class, rate,
	); err != nil {
		return nil, fmt.Errorf("create weekly vat row %d: %w", class, err)
	}
	query := `SELECT vat_class, vat_rate, week_start, ` + weeklyColumns + `, last_updated
		FROM k_wk_vat WHERE vat_class = $1 FOR UPDATE`
	w, err := scanWeeklyVat(r.q.QueryRow(ctx, query, class))
	if err != nil {
		return nil, fmt.Errorf("lock weekly vat row %d: %w", class, err)
	}
	return w, nil
}

// SaveWeeklyVat overwrites rate, week and all day columns of the class row.
func (r *StatsRepo) SaveWeeklyVat(ctx context.Context, w *entity.WeeklyVat) error {
	sets := []string{"vat_rate = $2", "week_start = $3"}
	args := []any{w.VatClass, w.VatRate, w.WeekStart}
	for i := 0; i < 7; i++ {
		sets = append(sets, fmt.Sprintf("tot_vat_%d = $%d", i+1, len(args)+1))
		args = append(args, w.TotVat[i])
	}
	for i := 0; i < 7; i++ {
		sets = append(sets, fmt.Sprintf("t_val_exclvat_%d = $%d", i+1, len(args)+1))
		args = append(args, w.ExclVat[i])
	}
	query := `UPDATE k_wk_vat SET ` + strings.Join(sets, ", ") + `, last_updated = now() WHERE vat_class = $1`
	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("save weekly vat %d: %w", w.VatClass, err)
	}
	return nil
}

// ListWeeklyVat all class rows ordered by class.
func (r *StatsRepo) ListWeeklyVat(ctx context.Context) ([]entity.WeeklyVat, error) {
	query := `SELECT vat_class, vat_rate, week_start, ` + weeklyColumns + `, last_updated
		FROM k_wk_vat ORDER BY vat_class`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list weekly vat: %w", err)
	}
	defer rows.Close()
	var out []entity.WeeklyVat
	for rows.Next() {
		w, err := scanWeeklyVat(rows)
		if err != nil {
			return nil, fmt.Errorf("scan weekly vat: %w", err)
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

func scanWeeklyVat(row pgx.Row) (*entity.WeeklyVat, error) {
	w := &entity.WeeklyVat{}
	dest := []any{&w.VatClass, &w.VatRate, &w.WeekStart}
	for i := range w.TotVat {
		dest = append(dest, &w.TotVat[i])
	}
	for i := range w.ExclVat {
		dest = append(dest, &w.ExclVat[i])
	}
	dest = append(dest, &w.UpdatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return w, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Purge
// ──────────────────────────────────────────────────────────────────────────────

// ClearAll empties the four aggregate tables.
func (r *StatsRepo) ClearAll(ctx context.Context) (entity.ClearedCounts, error) {
	var c entity.ClearedCounts
	targets := []struct {
		table string
		n     *int64
	}{
		{"k_meal", &c.Meal}, {"k_pro", &c.Product}, {"k_rev", &c.Revenue}, {"k_wk_vat", &c.WeeklyVat},
	}
	for _, t := range targets {
		cmd, err := r.q.Exec(ctx, `DELETE FROM `+t.table)
		if err != nil {
			return c, fmt.Errorf("clear %s: %w", t.table, err)
		}
		*t.n = cmd.RowsAffected()
	}
	return c, nil
}

// DeleteBefore removes dated rows older than date.
func (r *StatsRepo) DeleteBefore(ctx context.Context, date time.Time) (entity.ClearedCounts, error) {
	var c entity.ClearedCounts
	targets := []struct {
		table string
		n     *int64
	}{
		{"k_meal", &c.Meal}, {"k_pro", &c.Product}, {"k_rev", &c.Revenue},
	}
	for _, t := range targets {
		cmd, err := r.q.Exec(ctx, `DELETE FROM `+t.table+` WHERE stat_date < $1`, date)
		if err != nil {
			return c, fmt.Errorf("purge %s: %w", t.table, err)
		}
		*t.n = cmd.RowsAffected()
	}
	return c, nil
}
