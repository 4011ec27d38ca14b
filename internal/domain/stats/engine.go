// Package stats folds one business day of orders into the legacy daily aggregates:
// meal counts, product/combo movement, the revenue summary and per-class VAT totals.
package stats

import (
	"time"

	"github.com/jhoicas/epos-daily-stats/internal/domain/entity"
	"github.com/jhoicas/epos-daily-stats/internal/domain/tender"
	"github.com/jhoicas/epos-daily-stats/internal/domain/vat"
)

// component gross share of a line attributed to one product's VAT class.
type component struct {
	code  int
	class int
	gross int64
}

type aggregator struct {
	md     *MasterData
	policy Policy
	out    *DailyStats
}

// Aggregate is a pure fold over the day's orders. It never fails: missing master data or
// malformed metadata drop only the affected contribution and leave a note.
func Aggregate(date time.Time, orders []entity.Order, md *MasterData, policy Policy) *DailyStats {
	a := &aggregator{md: md, policy: policy, out: newDailyStats(date)}
	for i := range orders {
		a.order(&orders[i])
	}
	a.out.finalize()
	return a.out
}

func (a *aggregator) order(o *entity.Order) {
	a.out.Orders++
	t := tender.Apply(&a.out.Revenue, o)
	if t == tender.PaidOut {
		return
	}
	basis := o.Basis()
	counter := t.Counter(basis)
	for i := range o.Lines {
		l := &o.Lines[i]
		a.out.Lines++
		qty := l.Quantity()
		for _, n := range l.MetaNotes {
			a.out.note(o, l, "%s", n)
		}

		a.out.count(l.ItemCode, l.IsCombo(), counter, qty)
		if l.Meta.GoLarge {
			a.out.Revenue.TGoLargeNu += qty
		}

		var parts []component
		switch l.Kind() {
		case entity.LineKindMeal:
			a.countMeal(o, l, t, counter, qty)
			parts = a.mealComponents(o, l)
			if t.IsSale() {
				a.out.Revenue.TMealDiscnt += a.mealDiscount(o, l)
			}
		case entity.LineKindCombo:
			opts := a.comboOptions(o, l)
			a.countCombo(l, opts, counter, qty)
			parts = a.comboComponents(o, l, opts)
			if t.IsSale() {
				a.out.Revenue.TDiscntVa += a.comboDiscount(o, l, opts)
			}
		default:
			a.countPlain(l, counter, qty)
			parts = a.plainComponents(o, l)
		}
		a.applyVat(o, l, t, parts)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Movement
// ──────────────────────────────────────────────────────────────────────────────

func (a *aggregator) countPlain(l *entity.OrderLine, counter tender.Counter, qty int64) {
	for _, code := range l.Meta.FreeChoices {
		a.out.option(code, qty)
	}
	for _, e := range l.Meta.Extras {
		a.out.count(e.Code, false, counter, qty)
	}
}

func (a *aggregator) countMeal(o *entity.Order, l *entity.OrderLine, t tender.Tender, counter tender.Counter, qty int64) {
	if t.IsSale() {
		m := a.out.meal(l.ItemCode)
		if o.Basis() == entity.BasisTake {
			m.Takeaway += qty
		} else {
			m.Eatin += qty
		}
	}
	if l.Meta.Fries != nil {
		a.out.count(*l.Meta.Fries, false, counter, qty)
	} else {
		a.out.note(o, l, "meal without fries")
	}
	if l.Meta.Drink != nil {
		a.out.count(*l.Meta.Drink, false, counter, qty)
	} else {
		a.out.note(o, l, "meal without drink")
	}

	if len(l.Meta.FreeChoices) == 0 {
		if def, ok := a.md.DefaultChoice(l.ItemCode); ok {
			a.out.option(def, qty)
		}
		return
	}
	for _, code := range l.Meta.FreeChoices {
		if a.policy.NoSelectionCode != 0 && code == a.policy.NoSelectionCode {
			a.out.count(code, false, counter, qty)
			continue
		}
		a.out.option(code, qty)
	}
}

// comboOptions selected options that are OptPro components of the combo.
func (a *aggregator) comboOptions(o *entity.Order, l *entity.OrderLine) []int {
	opts := make([]int, 0, len(l.Meta.Options))
	for _, code := range l.Meta.Options {
		if !a.md.IsOptional(l.ItemCode, code) {
			a.out.note(o, l, "option %d is not an optional component of combo %d", code, l.ItemCode)
			continue
		}
		opts = append(opts, code)
	}
	return opts
}

func (a *aggregator) countCombo(l *entity.OrderLine, opts []int, counter tender.Counter, qty int64) {
	for _, code := range a.md.Compulsory(l.ItemCode) {
		a.out.count(code, false, counter, qty)
	}
	for _, code := range opts {
		a.out.count(code, false, counter, qty)
	}
	// Sharing-Platter rule: first free choice on the service counter, the rest on OPTION.
	for i, code := range l.Meta.FreeChoices {
		if i == 0 {
			a.out.count(code, false, counter, qty)
			continue
		}
		a.out.option(code, qty)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// VAT apportionment
// ──────────────────────────────────────────────────────────────────────────────

func lineGross(l *entity.OrderLine) int64 {
	if l.LineTotalGross != 0 {
		return l.LineTotalGross
	}
	return l.UnitPriceGross * l.Quantity()
}

func unitGross(l *entity.OrderLine) int64 {
	if l.UnitPriceGross != 0 {
		return l.UnitPriceGross
	}
	return l.LineTotalGross / l.Quantity()
}

// plainComponents carves the extras out of the line; the remainder belongs to the main product.
func (a *aggregator) plainComponents(o *entity.Order, l *entity.OrderLine) []component {
	qty := l.Quantity()
	remainder := lineGross(l)
	var parts []component
	for _, e := range l.Meta.Extras {
		gross := e.PriceGross * qty
		remainder -= gross
		p, ok := a.md.Product(e.Code)
		if !ok {
			a.out.note(o, l, "extra product %d not in master data", e.Code)
			continue
		}
		parts = append(parts, component{code: e.Code, class: p.VatClass(o.Basis()), gross: gross})
	}
	main, ok := a.md.Product(l.ItemCode)
	if !ok {
		a.out.note(o, l, "product %d not in master data", l.ItemCode)
		return parts
	}
	if remainder < 0 {
		remainder = 0
	}
	return append([]component{{code: main.Code, class: main.VatClass(o.Basis()), gross: remainder}}, parts...)
}

// mealComponents prices main, fries and drink at their discounted band price; any
// difference to the line total (go-large uplift, manual price) lands on the main item.
// An unknown main item drops its own share and the residual; fries and drink still count.
func (a *aggregator) mealComponents(o *entity.Order, l *entity.OrderLine) []component {
	qty := l.Quantity()
	basis := o.Basis()
	var parts []component
	main, hasMain := a.md.Product(l.ItemCode)
	if hasMain {
		parts = append(parts, component{code: main.Code, class: main.VatClass(basis), gross: main.DiscountedPrice(o.PriceBand) * qty})
	} else {
		a.out.note(o, l, "meal product %d not in master data", l.ItemCode)
	}
	for _, code := range []*int{l.Meta.Fries, l.Meta.Drink} {
		if code == nil {
			continue
		}
		p, ok := a.md.Product(*code)
		if !ok {
			a.out.note(o, l, "meal component %d not in master data", *code)
			continue
		}
		parts = append(parts, component{code: p.Code, class: p.VatClass(basis), gross: p.DiscountedPrice(o.PriceBand) * qty})
	}
	if !hasMain {
		return parts
	}

	total := lineGross(l)
	var sum int64
	for _, p := range parts {
		sum += p.gross
	}
	residual := total - sum
	if parts[0].gross+residual >= 0 {
		parts[0].gross += residual
		return parts
	}
	return a.apportion(o, l, total, parts)
}

// comboComponents splits the combo line by each component's standard band price.
func (a *aggregator) comboComponents(o *entity.Order, l *entity.OrderLine, opts []int) []component {
	basis := o.Basis()
	var parts []component
	for _, code := range a.comboProducts(l, opts) {
		p, ok := a.md.Product(code)
		if !ok {
			a.out.note(o, l, "combo component %d not in master data", code)
			continue
		}
		parts = append(parts, component{code: p.Code, class: p.VatClass(basis), gross: p.Price(o.PriceBand)})
	}
	if len(parts) == 0 {
		a.out.note(o, l, "combo %d has no priced components", l.ItemCode)
		return nil
	}
	return a.apportion(o, l, lineGross(l), parts)
}

// apportion replaces each part's gross by its proportional share of total, using the
// current gross values as weights.
func (a *aggregator) apportion(o *entity.Order, l *entity.OrderLine, total int64, parts []component) []component {
	weights := make([]int64, len(parts))
	for i, p := range parts {
		weights[i] = p.gross
	}
	shares := vat.Apportion(total, weights)
	if shares == nil {
		a.out.note(o, l, "component prices sum to zero, vat skipped")
		return nil
	}
	for i := range parts {
		parts[i].gross = shares[i]
	}
	return parts
}

func (a *aggregator) comboProducts(l *entity.OrderLine, opts []int) []int {
	codes := append([]int(nil), a.md.Compulsory(l.ItemCode)...)
	codes = append(codes, opts...)
	return append(codes, l.Meta.FreeChoices...)
}

// applyVat converts each component to net/VAT. Sales feed the per-class totals; staff and
// waste net is diverted into TSTAFFVAL/TWASTEVAL and only feeds the per-class totals under
// StaffWasteInclude.
func (a *aggregator) applyVat(o *entity.Order, l *entity.OrderLine, t tender.Tender, parts []component) {
	rates := a.md.Rates()
	for _, p := range parts {
		if p.gross == 0 {
			continue
		}
		rate, ok := rates.Rate(p.class)
		if !ok {
			a.out.note(o, l, "no vat rate for class %d (product %d)", p.class, p.code)
			continue
		}
		net, v := vat.Split(p.gross, rate)
		switch t {
		case tender.CrewFood:
			a.out.Revenue.TStaffVal += net
		case tender.WasteFood:
			a.out.Revenue.TWasteVal += net
		}
		if t.IsSale() || a.policy.StaffWasteVAT == StaffWasteInclude {
			a.out.VatByClass.Add(p.class, net, v)
		}
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Discounts (ex-VAT, rounded once per VAT class)
// ──────────────────────────────────────────────────────────────────────────────

// mealDiscount (net of standard component prices - net of discounted prices) * qty.
func (a *aggregator) mealDiscount(o *entity.Order, l *entity.OrderLine) int64 {
	basis := o.Basis()
	standard, discounted := vat.GrossByClass{}, vat.GrossByClass{}
	for _, code := range []*int{&l.ItemCode, l.Meta.Fries, l.Meta.Drink} {
		if code == nil {
			continue
		}
		p, ok := a.md.Product(*code)
		if !ok {
			continue
		}
		class := p.VatClass(basis)
		standard.Add(class, p.Price(o.PriceBand))
		discounted.Add(class, p.DiscountedPrice(o.PriceBand))
	}
	stdNet, ok := standard.Net(a.md.Rates())
	if !ok {
		a.out.note(o, l, "meal discount skipped: missing vat rate")
		return 0
	}
	dcNet, _ := discounted.Net(a.md.Rates())
	return positive((stdNet - dcNet) * l.Quantity())
}

// comboDiscount (net of component standard prices - net of the combo unit price) * qty.
func (a *aggregator) comboDiscount(o *entity.Order, l *entity.OrderLine, opts []int) int64 {
	combo, ok := a.md.Combo(l.ItemCode)
	if !ok {
		a.out.note(o, l, "combo %d not in master data", l.ItemCode)
		return 0
	}
	rate, ok := a.md.Rates().Rate(combo.VatClass(o.Basis()))
	if !ok {
		a.out.note(o, l, "combination discount skipped: no vat rate for combo %d", combo.Code)
		return 0
	}
	basis := o.Basis()
	standard := vat.GrossByClass{}
	for _, code := range a.comboProducts(l, opts) {
		p, ok := a.md.Product(code)
		if !ok {
			continue
		}
		standard.Add(p.VatClass(basis), p.Price(o.PriceBand))
	}
	stdNet, ok := standard.Net(a.md.Rates())
	if !ok {
		a.out.note(o, l, "combination discount skipped: missing component vat rate")
		return 0
	}
	return positive((stdNet - vat.Net(unitGross(l), rate)) * l.Quantity())
}

func positive(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
