package stats

import (
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/epos-daily-stats/internal/domain/entity"
	"github.com/jhoicas/epos-daily-stats/internal/domain/tender"
	"github.com/jhoicas/epos-daily-stats/internal/domain/vat"
)

// Note a dropped sub-contribution (missing master data, malformed metadata...).
type Note struct {
	OrderID int64
	LineID  int64
	Reason  string
}

func (n Note) String() string {
	if n.LineID == 0 {
		return fmt.Sprintf("order %d: %s", n.OrderID, n.Reason)
	}
	return fmt.Sprintf("order %d line %d: %s", n.OrderID, n.LineID, n.Reason)
}

// DailyStats full aggregation of one business day.
type DailyStats struct {
	Date          time.Time
	MealCounts    map[int]*entity.MealCount
	ProductCounts map[entity.ProductKey]*entity.ProductCount
	Revenue       entity.Revenue
	VatByClass    vat.ByClass
	Notes         []Note
	Orders        int
	Lines         int
}

func newDailyStats(date time.Time) *DailyStats {
	return &DailyStats{
		Date:          date,
		MealCounts:    make(map[int]*entity.MealCount),
		ProductCounts: make(map[entity.ProductKey]*entity.ProductCount),
		Revenue:       entity.Revenue{StatDate: date},
		VatByClass:    vat.ByClass{},
	}
}

// Meals meal rows sorted by product.
func (s *DailyStats) Meals() []entity.MealCount {
	out := make([]entity.MealCount, 0, len(s.MealCounts))
	for _, m := range s.MealCounts {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProdNumb < out[j].ProdNumb })
	return out
}

// Products movement rows sorted by (product, combo); rows with no movement are left out.
func (s *DailyStats) Products() []entity.ProductCount {
	out := make([]entity.ProductCount, 0, len(s.ProductCounts))
	for _, p := range s.ProductCounts {
		if p.IsZero() {
			continue
		}
		out = append(out, *p)
	}
	SortProducts(out)
	return out
}

// SortProducts orders rows by (PRODNUMB, COMBO) with products before combos.
func SortProducts(rows []entity.ProductCount) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ProdNumb != rows[j].ProdNumb {
			return rows[i].ProdNumb < rows[j].ProdNumb
		}
		return !rows[i].Combo && rows[j].Combo
	})
}

func (s *DailyStats) meal(code int) *entity.MealCount {
	m, ok := s.MealCounts[code]
	if !ok {
		m = &entity.MealCount{StatDate: s.Date, ProdNumb: code}
		s.MealCounts[code] = m
	}
	return m
}

func (s *DailyStats) product(code int, combo bool) *entity.ProductCount {
	key := entity.ProductKey{ProdNumb: code, Combo: combo}
	p, ok := s.ProductCounts[key]
	if !ok {
		p = &entity.ProductCount{StatDate: s.Date, ProductKey: key}
		s.ProductCounts[key] = p
	}
	return p
}

// count adds qty to exactly one service/staff/waste counter of the key.
func (s *DailyStats) count(code int, combo bool, c tender.Counter, qty int64) {
	p := s.product(code, combo)
	switch c {
	case tender.CounterTakeaway:
		p.Takeaway += qty
	case tender.CounterEatin:
		p.Eatin += qty
	case tender.CounterStaff:
		p.Staff += qty
	case tender.CounterWaste:
		p.Waste += qty
	}
}

func (s *DailyStats) option(code int, qty int64) {
	s.product(code, false).Option += qty
}

func (s *DailyStats) note(o *entity.Order, l *entity.OrderLine, format string, args ...any) {
	n := Note{OrderID: o.ID, Reason: fmt.Sprintf(format, args...)}
	if l != nil {
		n.LineID = l.ID
	}
	s.Notes = append(s.Notes, n)
}

// finalize derives the mirrored and summed revenue fields.
func (s *DailyStats) finalize() {
	s.Revenue.ActCash = s.Revenue.TCashVal
	s.Revenue.ActChq = s.Revenue.TChqVal
	s.Revenue.ActCard = s.Revenue.TCardVal
	s.Revenue.VAT = s.VatByClass.TotalVat()
}

// WeeklyVat per-class rows for the run's weekday. Every configured class gets a row so the
// day column is overwritten even when the class had no sales.
func (s *DailyStats) WeeklyVat(rates vat.Rates) []entity.WeeklyVat {
	weekday := entity.ISOWeekday(s.Date)
	out := make([]entity.WeeklyVat, 0, len(rates))
	for _, class := range rates.Classes() {
		rate, _ := rates.Rate(class)
		t := s.VatByClass.Get(class)
		w := entity.WeeklyVat{VatClass: class, VatRate: rate, WeekStart: entity.WeekStart(s.Date)}
		w.SetDay(weekday, t.Vat, t.Net)
		out = append(out, w)
	}
	return out
}
