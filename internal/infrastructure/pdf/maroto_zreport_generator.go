// Package pdf renders the end-of-day Z-report from the persisted daily aggregates.
//
// A4 page layout:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: shop name            │  Z-REPORT + date            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TENDERS: cash / cheque / card / account / vouchers ...     │
//	│  DISCOUNTS & ADJUSTMENTS: meal, combination, staff, waste   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  VAT: one line per class for the day                        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  MEALS: product | takeaway | eat in                         │
//	│  MOVEMENT: product | combo | takeaway | eat in | ...        │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/epos-daily-stats/internal/application/dailystats"
	"github.com/jhoicas/epos-daily-stats/internal/domain/entity"
)

var _ dailystats.ZReportGenerator = (*MarotoZReportGenerator)(nil)

// ── Palette ───────────────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoZReportGenerator implements dailystats.ZReportGenerator with Maroto v2.
type MarotoZReportGenerator struct {
	shopName string
}

// NewMarotoZReportGenerator builds the generator; shopName heads every report.
func NewMarotoZReportGenerator(shopName string) *MarotoZReportGenerator {
	return &MarotoZReportGenerator{shopName: shopName}
}

// GenerateZReport renders the day and returns the PDF bytes.
func (g *MarotoZReportGenerator) GenerateZReport(
	_ context.Context,
	day *dailystats.DaySnapshot,
	weekly []entity.WeeklyVat,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Z-Report "+day.Date.Format("02/01/2006"), true).
		WithAuthor(g.shopName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(g.shopName, day))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(sectionTitle("TENDERS"))
	m.AddRows(amountRows(TenderLines(&day.Revenue))...)
	m.AddRows(sectionTitle("DISCOUNTS & ADJUSTMENTS"))
	m.AddRows(amountRows(AdjustmentLines(&day.Revenue))...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(sectionTitle("VAT"))
	m.AddRows(vatRows(day, weekly)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	if len(day.Meals) > 0 {
		m.AddRows(sectionTitle("MEALS"))
		m.AddRows(tableHeaderRow([]string{"Product", "Takeaway", "Eat in"}, []int{6, 3, 3}))
		for _, ml := range day.Meals {
			m.AddRows(tableRow([]int{6, 3, 3},
				strconv.Itoa(ml.ProdNumb), count(ml.Takeaway), count(ml.Eatin)))
		}
	}

	m.AddRows(sectionTitle("PRODUCT MOVEMENT"))
	widths := []int{2, 2, 2, 2, 1, 1, 2}
	m.AddRows(tableHeaderRow([]string{"Product", "Combo", "Takeaway", "Eat in", "Waste", "Staff", "Option"}, widths))
	for _, p := range day.Products {
		combo := "-"
		if p.Combo {
			combo = "yes"
		}
		m.AddRows(tableRow(widths,
			strconv.Itoa(p.ProdNumb), combo,
			count(p.Takeaway), count(p.Eatin), count(p.Waste), count(p.Staff), count(p.Option)))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generate document: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Report lines ──────────────────────────────────────────────────────────────

// Line label and pence amount of the report body.
type Line struct {
	Label string
	Pence int64
}

// TenderLines takings by tender, then the till total.
func TenderLines(r *entity.Revenue) []Line {
	lines := []Line{
		{"Cash", r.TCashVal},
		{"Cheque", r.TChqVal},
		{"Card", r.TCardVal},
		{"On account", r.TOnAccount},
		{"Vouchers", r.TTokenVal},
		{"Coupons", r.TCoupVal},
	}
	var total int64
	for _, l := range lines {
		total += l.Pence
	}
	return append(lines, Line{"Total takings", total})
}

// AdjustmentLines discounts, voucher overage, paid outs and staff/waste at ex-VAT value.
func AdjustmentLines(r *entity.Revenue) []Line {
	return []Line{
		{"Meal discount (ex VAT)", r.TMealDiscnt},
		{"Combination discount (ex VAT)", r.TDiscntVa},
		{"Voucher overage", r.TTokenNovr},
		{"Paid out", r.TPayoutVa},
		{"Staff food (ex VAT)", r.TStaffVal},
		{"Waste (ex VAT)", r.TWasteVal},
	}
}

// ── Sections ──────────────────────────────────────────────────────────────────

func headerRow(shop string, day *dailystats.DaySnapshot) core.Row {
	return row.New(16).Add(
		col.New(7).Add(
			text.New(shop, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New(fmt.Sprintf("Go large upgrades: %d", day.Revenue.TGoLargeNu), props.Text{
				Size: 8, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("Z-REPORT", props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(day.Date.Format("Monday 02/01/2006"), props.Text{
				Size: 9, Align: align.Right, Top: 8,
			}),
		),
	)
}

func sectionTitle(title string) core.Row {
	return row.New(8).Add(col.New(12).Add(
		text.New(title, props.Text{Style: fontstyle.Bold, Size: 9, Color: colorPrimary, Top: 2}),
	))
}

func amountRows(lines []Line) []core.Row {
	rows := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, row.New(5).Add(
			col.New(3),
			col.New(4).Add(text.New(l.Label, props.Text{Size: 9, Top: 0.5})),
			col.New(3).Add(text.New(FormatPence(l.Pence), props.Text{Size: 9, Align: align.Right, Top: 0.5})),
			col.New(2),
		))
	}
	return rows
}

// vatRows the run's weekday column of each class, then the day's VAT total.
func vatRows(day *dailystats.DaySnapshot, weekly []entity.WeeklyVat) []core.Row {
	widths := []int{3, 3, 3, 3}
	rows := []core.Row{tableHeaderRow([]string{"Class", "Rate", "Net", "VAT"}, widths)}
	wd := entity.ISOWeekday(day.Date)
	weekStart := entity.WeekStart(day.Date)
	for _, w := range weekly {
		if !w.WeekStart.Equal(weekStart) {
			continue
		}
		rows = append(rows, tableRow(widths,
			strconv.Itoa(w.VatClass), w.VatRate.StringFixed(2)+"%",
			FormatPence(w.ExclVat[wd-1]), FormatPence(w.TotVat[wd-1])))
	}
	return append(rows, row.New(6).Add(
		col.New(9).Add(text.New("Total VAT", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 1})),
		col.New(3).Add(text.New(FormatPence(day.Revenue.VAT), props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 1, Right: 1,
		})),
	))
}

func tableHeaderRow(labels []string, widths []int) core.Row {
	cols := make([]core.Col, 0, len(labels))
	for i, l := range labels {
		cols = append(cols, col.New(widths[i]).Add(text.New(l, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorGray, Top: 1, Right: 1,
		})))
	}
	return row.New(6).Add(cols...)
}

func tableRow(widths []int, values ...string) core.Row {
	cols := make([]core.Col, 0, len(values))
	for i, v := range values {
		cols = append(cols, col.New(widths[i]).Add(text.New(v, props.Text{
			Size: 8, Align: align.Right, Top: 0.5, Right: 1,
		})))
	}
	return row.New(5).Add(cols...)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func count(n int64) string { return strconv.FormatInt(n, 10) }

// FormatPence pence as pounds with thousands separators: 123456 → "£1,234.56", -300 → "-£3.00".
func FormatPence(p int64) string {
	sign := ""
	if p < 0 {
		sign = "-"
		p = -p
	}
	return fmt.Sprintf("%s£%s.%02d", sign, groupThousands(strconv.FormatInt(p/100, 10)), p%100)
}

// groupThousands inserts commas into a digit string: "1000000" → "1,000,000".
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, c)
	}
	return string(buf)
}
