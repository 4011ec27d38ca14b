package dto

import (
	"github.com/jhoicas/epos-daily-stats/internal/application/dailystats"
	"github.com/jhoicas/epos-daily-stats/internal/domain/entity"
)

const dateLayout = dailystats.DateLayout

// BuildResponse result of POST /api/daily-stats/:date/build.
type BuildResponse struct {
	RunID       string           `json:"run_id"`
	Date        string           `json:"date"`
	Orders      int              `json:"orders"`
	Lines       int              `json:"lines"`
	MealRows    int              `json:"meal_rows"`
	ProductRows int              `json:"product_rows"`
	StaleRows   int64            `json:"stale_rows"`
	VatClasses  int              `json:"vat_classes"`
	WeeksKept   int              `json:"weekly_vat_kept"`
	Notes       []string         `json:"notes"`
	Revenue     map[string]int64 `json:"revenue"`
}

// MealRow K_MEAL row.
type MealRow struct {
	ProdNumb int   `json:"prodnumb"`
	Takeaway int64 `json:"takeaway"`
	Eatin    int64 `json:"eatin"`
}

// ProductRow K_PRO row.
type ProductRow struct {
	ProdNumb int   `json:"prodnumb"`
	Combo    bool  `json:"combo"`
	Takeaway int64 `json:"takeaway"`
	Eatin    int64 `json:"eatin"`
	Waste    int64 `json:"waste"`
	Staff    int64 `json:"staff"`
	Option   int64 `json:"option"`
}

// ChannelRow sales channel and the price band it sells at.
type ChannelRow struct {
	Name        string `json:"name"`
	Band        int    `json:"band"`
	ChannelCode string `json:"channel_code"`
	CoNumber    string `json:"co_number,omitempty"`
}

// DailyStatsResponse result of GET /api/daily-stats/:date.
type DailyStatsResponse struct {
	Date     string           `json:"date"`
	Revenue  map[string]int64 `json:"revenue"`
	Meals    []MealRow        `json:"meals"`
	Products []ProductRow     `json:"products"`
	Channels []ChannelRow     `json:"channels"`
}

// WeeklyVatRow K_WK_VAT row; index 0 of the day arrays is Monday.
type WeeklyVatRow struct {
	VatClass  int      `json:"vat_class"`
	VatRate   string   `json:"vat_rate"`
	WeekStart string   `json:"week_start"`
	TotVat    [7]int64 `json:"tot_vat"`
	ExclVat   [7]int64 `json:"t_val_exclvat"`
}

// RevenueMap revenue keyed by its legacy RV column names.
func RevenueMap(r *entity.Revenue) map[string]int64 {
	values := r.Values()
	out := make(map[string]int64, len(values))
	for i, col := range entity.RevenueColumns {
		out[col] = values[i]
	}
	return out
}

// NewBuildResponse maps a build result.
func NewBuildResponse(res *dailystats.BuildResult) BuildResponse {
	notes := make([]string, 0, len(res.Notes))
	for _, n := range res.Notes {
		notes = append(notes, n.String())
	}
	return BuildResponse{
		RunID:       res.RunID,
		Date:        res.Date.Format(dateLayout),
		Orders:      res.Orders,
		Lines:       res.Lines,
		MealRows:    res.MealRows,
		ProductRows: res.ProductRows,
		StaleRows:   res.StaleMeals + res.StaleProducts,
		VatClasses:  res.VatClasses,
		WeeksKept:   res.WeeksSkipped,
		Notes:       notes,
		Revenue:     RevenueMap(&res.Revenue),
	}
}

// NewDailyStatsResponse maps a persisted day and the active channels.
func NewDailyStatsResponse(day *dailystats.DaySnapshot, channels []entity.ChannelMapping) DailyStatsResponse {
	out := DailyStatsResponse{
		Date:     day.Date.Format(dateLayout),
		Revenue:  RevenueMap(&day.Revenue),
		Meals:    make([]MealRow, 0, len(day.Meals)),
		Products: make([]ProductRow, 0, len(day.Products)),
		Channels: make([]ChannelRow, 0, len(channels)),
	}
	for _, m := range day.Meals {
		out.Meals = append(out.Meals, MealRow{ProdNumb: m.ProdNumb, Takeaway: m.Takeaway, Eatin: m.Eatin})
	}
	for _, p := range day.Products {
		out.Products = append(out.Products, ProductRow{
			ProdNumb: p.ProdNumb, Combo: p.Combo,
			Takeaway: p.Takeaway, Eatin: p.Eatin, Waste: p.Waste, Staff: p.Staff, Option: p.Option,
		})
	}
	for _, c := range channels {
		out.Channels = append(out.Channels, ChannelRow{Name: c.Name, Band: c.Band, ChannelCode: c.ChannelCode, CoNumber: c.CoNumber})
	}
	return out
}

// NewWeeklyVatRows maps K_WK_VAT rows.
func NewWeeklyVatRows(rows []entity.WeeklyVat) []WeeklyVatRow {
	out := make([]WeeklyVatRow, 0, len(rows))
	for _, w := range rows {
		out = append(out, WeeklyVatRow{
			VatClass:  w.VatClass,
			VatRate:   w.VatRate.StringFixed(2),
			WeekStart: w.WeekStart.Format(dateLayout),
			TotVat:    w.TotVat,
			ExclVat:   w.ExclVat,
		})
	}
	return out
}
