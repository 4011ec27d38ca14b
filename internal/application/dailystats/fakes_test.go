package dailystats_test

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/epos-daily-stats/internal/application/dailystats"
	"github.com/jhoicas/epos-daily-stats/internal/domain/entity"
	"github.com/jhoicas/epos-daily-stats/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// In-memory repositories
// ──────────────────────────────────────────────────────────────────────────────

type fakeMaster struct {
	products []entity.Product
	combos   []entity.Combo
	rates    []entity.VatRate
	links    []entity.ComponentLink
	defaults []entity.DefaultChoice
}

func (f *fakeMaster) ListProducts(context.Context) ([]entity.Product, error) { return f.products, nil }
func (f *fakeMaster) ListCombos(context.Context) ([]entity.Combo, error)     { return f.combos, nil }
func (f *fakeMaster) ListVatRates(context.Context) ([]entity.VatRate, error) { return f.rates, nil }
func (f *fakeMaster) ListComponentLinks(context.Context) ([]entity.ComponentLink, error) {
	return f.links, nil
}
func (f *fakeMaster) ListDefaultChoices(context.Context) ([]entity.DefaultChoice, error) {
	return f.defaults, nil
}

type fakeOrders struct {
	orders []entity.Order
}

func (f *fakeOrders) ListCreatedBetween(_ context.Context, from, to time.Time) ([]entity.Order, error) {
	var out []entity.Order
	for _, o := range f.orders {
		if !o.CreatedAt.Before(from) && o.CreatedAt.Before(to) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrders) DeleteCreatedBefore(_ context.Context, before time.Time) (int64, error) {
	kept := f.orders[:0]
	var n int64
	for _, o := range f.orders {
		if o.CreatedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, o)
	}
	f.orders = kept
	return n, nil
}

func (f *fakeOrders) NormalizeStatus(_ context.Context, from, to string, dryRun bool) (int64, error) {
	var n int64
	for i := range f.orders {
		if f.orders[i].Status != from {
			continue
		}
		n++
		if !dryRun {
			f.orders[i].Status = to
		}
	}
	return n, nil
}

type fakeStats struct {
	revenue  map[time.Time]entity.Revenue
	meals    map[time.Time]map[int]entity.MealCount
	products map[time.Time]map[entity.ProductKey]entity.ProductCount
	weekly   map[int]entity.WeeklyVat
}

func newFakeStats() *fakeStats {
	return &fakeStats{
		revenue:  make(map[time.Time]entity.Revenue),
		meals:    make(map[time.Time]map[int]entity.MealCount),
		products: make(map[time.Time]map[entity.ProductKey]entity.ProductCount),
		weekly:   make(map[int]entity.WeeklyVat),
	}
}

func (f *fakeStats) LockRevenueDay(_ context.Context, date time.Time) (*entity.Revenue, error) {
	rev, ok := f.revenue[date]
	if !ok {
		rev = entity.Revenue{StatDate: date}
		f.revenue[date] = rev
	}
	return &rev, nil
}

func (f *fakeStats) SaveRevenue(_ context.Context, rev *entity.Revenue) error {
	f.revenue[rev.StatDate] = *rev
	return nil
}

func (f *fakeStats) UpsertMeal(_ context.Context, m *entity.MealCount) error {
	if f.meals[m.StatDate] == nil {
		f.meals[m.StatDate] = make(map[int]entity.MealCount)
	}
	f.meals[m.StatDate][m.ProdNumb] = *m
	return nil
}

func (f *fakeStats) UpsertProduct(_ context.Context, p *entity.ProductCount) error {
	if f.products[p.StatDate] == nil {
		f.products[p.StatDate] = make(map[entity.ProductKey]entity.ProductCount)
	}
	f.products[p.StatDate][p.ProductKey] = *p
	return nil
}

func (f *fakeStats) DeleteStaleMeals(_ context.Context, date time.Time, keep []int) (int64, error) {
	var n int64
	for code := range f.meals[date] {
		if !containsInt(keep, code) {
			delete(f.meals[date], code)
			n++
		}
	}
	return n, nil
}

func (f *fakeStats) DeleteStaleProducts(_ context.Context, date time.Time, keep []entity.ProductKey) (int64, error) {
	var n int64
	for key := range f.products[date] {
		found := false
		for _, k := range keep {
			if k == key {
				found = true
				break
			}
		}
		if !found {
			delete(f.products[date], key)
			n++
		}
	}
	return n, nil
}

func (f *fakeStats) LockWeeklyVat(_ context.Context, class int, rate decimal.Decimal) (*entity.WeeklyVat, error) {
	w, ok := f.weekly[class]
	if !ok {
		w = entity.WeeklyVat{VatClass: class, VatRate: rate, WeekStart: time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)}
		f.weekly[class] = w
	}
	return &w, nil
}

func (f *fakeStats) SaveWeeklyVat(_ context.Context, w *entity.WeeklyVat) error {
	f.weekly[w.VatClass] = *w
	return nil
}

func (f *fakeStats) ListMeals(_ context.Context, date time.Time) ([]entity.MealCount, error) {
	out := make([]entity.MealCount, 0, len(f.meals[date]))
	for _, m := range f.meals[date] {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProdNumb < out[j].ProdNumb })
	return out, nil
}

func (f *fakeStats) ListProducts(_ context.Context, date time.Time, codes []int) ([]entity.ProductCount, error) {
	out := make([]entity.ProductCount, 0, len(f.products[date]))
	for _, p := range f.products[date] {
		if len(codes) > 0 && !containsInt(codes, p.ProdNumb) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStats) GetRevenue(_ context.Context, date time.Time) (*entity.Revenue, error) {
	rev, ok := f.revenue[date]
	if !ok {
		return nil, nil
	}
	return &rev, nil
}

func (f *fakeStats) ListWeeklyVat(context.Context) ([]entity.WeeklyVat, error) {
	out := make([]entity.WeeklyVat, 0, len(f.weekly))
	for _, w := range f.weekly {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VatClass < out[j].VatClass })
	return out, nil
}

func (f *fakeStats) ClearAll(context.Context) (entity.ClearedCounts, error) {
	var c entity.ClearedCounts
	for _, m := range f.meals {
		c.Meal += int64(len(m))
	}
	for _, p := range f.products {
		c.Product += int64(len(p))
	}
	c.Revenue = int64(len(f.revenue))
	c.WeeklyVat = int64(len(f.weekly))
	*f = *newFakeStats()
	return c, nil
}

func (f *fakeStats) DeleteBefore(_ context.Context, date time.Time) (entity.ClearedCounts, error) {
	var c entity.ClearedCounts
	for d := range f.revenue {
		if d.Before(date) {
			c.Meal += int64(len(f.meals[d]))
			c.Product += int64(len(f.products[d]))
			c.Revenue++
			delete(f.revenue, d)
			delete(f.meals, d)
			delete(f.products, d)
		}
	}
	return c, nil
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// fakeTx runs fn directly against the in-memory repositories.
type fakeTx struct {
	master *fakeMaster
	orders *fakeOrders
	stats  *fakeStats
	calls  int
}

func (f *fakeTx) RunStats(_ context.Context, fn func(
	masterRepo repository.MasterDataRepository,
	orderRepo repository.OrderRepository,
	statsRepo repository.StatsRepository,
) error) error {
	f.calls++
	return fn(f.master, f.orders, f.stats)
}

// ──────────────────────────────────────────────────────────────────────────────
// Output fakes
// ──────────────────────────────────────────────────────────────────────────────

type fakeLocker struct {
	err      error
	locked   []time.Time
	released int
}

func (f *fakeLocker) Lock(_ context.Context, date time.Time) (func(), error) {
	if f.err != nil {
		return nil, f.err
	}
	f.locked = append(f.locked, date)
	return func() { f.released++ }, nil
}

type fakeFiles struct {
	dir   string
	day   *dailystats.DaySnapshot
	extra []dailystats.NamedFile
}

func (f *fakeFiles) WriteDay(dir string, day *dailystats.DaySnapshot, extra ...dailystats.NamedFile) ([]string, error) {
	f.dir, f.day, f.extra = dir, day, extra
	paths := []string{
		dir + "/" + dailystats.DayFileName("MP", day.Date, "CSV"),
		dir + "/" + dailystats.DayFileName("PD", day.Date, "CSV"),
		dir + "/" + dailystats.DayFileName("RV", day.Date, "CSV"),
	}
	for _, e := range extra {
		paths = append(paths, dir+"/"+e.Name)
	}
	return paths, nil
}

func (f *fakeFiles) Archive(day *dailystats.DaySnapshot, extra ...dailystats.NamedFile) ([]byte, error) {
	f.day, f.extra = day, extra
	return []byte("PK"), nil
}

type fakeZReport struct{ weekly []entity.WeeklyVat }

func (f *fakeZReport) GenerateZReport(_ context.Context, _ *dailystats.DaySnapshot, weekly []entity.WeeklyVat) ([]byte, error) {
	f.weekly = weekly
	return []byte("%PDF"), nil
}

type fakeWorkbook struct{}

func (fakeWorkbook) GenerateWeeklyVat(context.Context, time.Time, []entity.WeeklyVat) ([]byte, error) {
	return []byte("xlsx"), nil
}
