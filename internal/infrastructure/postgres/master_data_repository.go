package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/epos-daily-stats/internal/domain/entity"
	"github.com/jhoicas/epos-daily-stats/internal/domain/repository"
)

var (
	_ repository.MasterDataRepository = (*MasterDataRepo)(nil)
	_ repository.ChannelRepository    = (*ChannelRepo)(nil)
)

// MasterDataRepo reads the imported till tables (pool or tx).
type MasterDataRepo struct {
	q Querier
}

// NewMasterDataRepository builds the adapter. Pass a pool or a tx (Querier).
func NewMasterDataRepository(q Querier) *MasterDataRepo {
	return &MasterDataRepo{q: q}
}

// ListProducts all PdItem rows.
func (r *MasterDataRepo) ListProducts(ctx context.Context) ([]entity.Product, error) {
	query := `
		SELECT prodnumb, prodname, eat_vat_class, take_vat_class,
		       vatpr, vatpr_2, vatpr_3, vatpr_4, vatpr_5, vatpr_6,
		       dc_vatpr, dc_vatpr_2, dc_vatpr_3, dc_vatpr_4, dc_vatpr_5, dc_vatpr_6
		FROM pd_item ORDER BY prodnumb`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Product, error) {
		var p entity.Product
		err := row.Scan(
			&p.Code, &p.Name, &p.EatVatClass, &p.TakeVatClass,
			&p.Prices[0], &p.Prices[1], &p.Prices[2], &p.Prices[3], &p.Prices[4], &p.Prices[5],
			&p.MealPrices[0], &p.MealPrices[1], &p.MealPrices[2], &p.MealPrices[3], &p.MealPrices[4], &p.MealPrices[5],
		)
		return p, err
	})
}

// ListCombos all CombTb rows.
func (r *MasterDataRepo) ListCombos(ctx context.Context) ([]entity.Combo, error) {
	query := `
		SELECT combonumb, "desc", t_comb_num, eat_vat_class, take_vat_class,
		       vatpr, vatpr_2, vatpr_3, vatpr_4, vatpr_5, vatpr_6
		FROM comb_tb ORDER BY combonumb`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list combos: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Combo, error) {
		var c entity.Combo
		err := row.Scan(
			&c.Code, &c.Name, &c.TradeUpCode, &c.EatVatClass, &c.TakeVatClass,
			&c.Prices[0], &c.Prices[1], &c.Prices[2], &c.Prices[3], &c.Prices[4], &c.Prices[5],
		)
		return c, err
	})
}

// ListVatRates all PdVatTb rows. vat_rate is NUMERIC, decoded through the shopspring codec.
func (r *MasterDataRepo) ListVatRates(ctx context.Context) ([]entity.VatRate, error) {
	rows, err := r.q.Query(ctx, `SELECT vat_class, vat_rate, vat_desc FROM pd_vat_tb ORDER BY vat_class`)
	if err != nil {
		return nil, fmt.Errorf("list vat rates: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.VatRate, error) {
		var v entity.VatRate
		err := row.Scan(&v.Class, &v.Rate, &v.Description)
		return v, err
	})
}

// ListComponentLinks CompPro (compulsory) and OptPro (optional) rows.
func (r *MasterDataRepo) ListComponentLinks(ctx context.Context) ([]entity.ComponentLink, error) {
	query := `
		SELECT combonumb, prodnumb, t_prodnumb, TRUE FROM comp_pro
		UNION ALL
		SELECT combonumb, prodnumb, t_prodnumb, FALSE FROM opt_pro
		ORDER BY 1, 2`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list component links: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.ComponentLink, error) {
		var l entity.ComponentLink
		err := row.Scan(&l.ComboCode, &l.ProductCode, &l.TradeUpCode, &l.Compulsory)
		return l, err
	})
}

// ListDefaultChoices PChoice rows; the lowest option per product wins.
func (r *MasterDataRepo) ListDefaultChoices(ctx context.Context) ([]entity.DefaultChoice, error) {
	query := `
		SELECT DISTINCT ON (prodnumb) prodnumb, opt_prodnumb
		FROM p_choice ORDER BY prodnumb, opt_prodnumb`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list default choices: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.DefaultChoice, error) {
		var d entity.DefaultChoice
		err := row.Scan(&d.ProductCode, &d.OptionCode)
		return d, err
	})
}

// ChannelRepo sales channel mappings.
type ChannelRepo struct {
	q Querier
}

// NewChannelRepository builds the adapter.
func NewChannelRepository(q Querier) *ChannelRepo {
	return &ChannelRepo{q: q}
}

// ListActive active channels in display order.
func (r *ChannelRepo) ListActive(ctx context.Context) ([]entity.ChannelMapping, error) {
	query := `
		SELECT id, name, band, channel_code, co_number, active, sort_order
		FROM channel_mappings WHERE active ORDER BY sort_order, name`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.ChannelMapping, error) {
		var c entity.ChannelMapping
		err := row.Scan(&c.ID, &c.Name, &c.Band, &c.ChannelCode, &c.CoNumber, &c.Active, &c.SortOrder)
		return c, err
	})
}
