package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/epos-daily-stats/internal/domain/entity"
	"github.com/jhoicas/epos-daily-stats/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo reads till orders and their lines (pool or tx).
type OrderRepo struct {
	q Querier
}

// NewOrderRepository builds the adapter. Pass a pool or a tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

// ListCreatedBetween loads orders in [from, to) with their lines. Line metadata is parsed
// here; malformed pieces are dropped and kept as MetaNotes on the line.
func (r *OrderRepo) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]entity.Order, error) {
	query := `
		SELECT id, created_at, completed_at, status, price_band, vat_basis, payment_method,
		       total_gross, split_cash_pence, split_card_pence, split_voucher_pence, crew_id, band_co_number
		FROM orders
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY id`
	rows, err := r.q.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Order, error) {
		var o entity.Order
		err := row.Scan(
			&o.ID, &o.CreatedAt, &o.CompletedAt, &o.Status, &o.PriceBand, &o.VatBasis, &o.PaymentMethod,
			&o.TotalGross, &o.SplitCashPence, &o.SplitCardPence, &o.SplitVoucherPence, &o.CrewID, &o.BandCoNumber,
		)
		return o, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}
	lineQuery := `
		SELECT id, order_id, item_code, item_type, name, variant_label, is_meal, qty,
		       unit_price_gross, line_total_gross, meta
		FROM order_lines
		WHERE order_id = ANY($1)
		ORDER BY order_id, id`
	lineRows, err := r.q.Query(ctx, lineQuery, ids)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}
	defer lineRows.Close()
	for lineRows.Next() {
		var (
			l   entity.OrderLine
			raw []byte
		)
		if err := lineRows.Scan(
			&l.ID, &l.OrderID, &l.ItemCode, &l.ItemType, &l.Name, &l.VariantLabel, &l.IsMeal, &l.Qty,
			&l.UnitPriceGross, &l.LineTotalGross, &raw,
		); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		l.Meta, l.MetaNotes = entity.ParseLineMeta(raw)
		i := index[l.OrderID]
		orders[i].Lines = append(orders[i].Lines, l)
	}
	if err := lineRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order lines: %w", err)
	}
	return orders, nil
}

// DeleteCreatedBefore removes orders older than before; lines cascade.
func (r *OrderRepo) DeleteCreatedBefore(ctx context.Context, before time.Time) (int64, error) {
	cmd, err := r.q.Exec(ctx, `DELETE FROM orders WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete old orders: %w", err)
	}
	return cmd.RowsAffected(), nil
}

// NormalizeStatus updates (or with dryRun only counts) orders whose status is from.
func (r *OrderRepo) NormalizeStatus(ctx context.Context, from, to string, dryRun bool) (int64, error) {
	if dryRun {
		var n int64
		if err := r.q.QueryRow(ctx, `SELECT count(*) FROM orders WHERE status = $1`, from).Scan(&n); err != nil {
			return 0, fmt.Errorf("count orders with status %q: %w", from, err)
		}
		return n, nil
	}
	cmd, err := r.q.Exec(ctx, `UPDATE orders SET status = $2 WHERE status = $1`, from, to)
	if err != nil {
		return 0, fmt.Errorf("normalize status %q: %w", from, err)
	}
	return cmd.RowsAffected(), nil
}
