// Package vat holds the pence-level VAT arithmetic: gross to net conversion with banker's
// rounding and proportional apportionment of a gross amount across weighted components.
package vat

import (
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Rates VAT percentage per class (20 means 20%).
type Rates map[int]decimal.Decimal

// Rate looks up a class; ok is false when the class has no configured rate.
func (r Rates) Rate(class int) (decimal.Decimal, bool) {
	rate, ok := r[class]
	return rate, ok
}

// Classes configured classes in ascending order.
func (r Rates) Classes() []int {
	out := make([]int, 0, len(r))
	for c := range r {
		out = append(out, c)
	}
	sort.Ints(out)
	return out
}

// Net round_half_even(gross*100/(100+rate)). A zero rate returns gross unchanged.
func Net(gross int64, rate decimal.Decimal) int64 {
	if rate.IsZero() {
		return gross
	}
	divisor := hundred.Add(rate)
	if divisor.Sign() <= 0 {
		return gross
	}
	return decimal.NewFromInt(gross).Mul(hundred).Div(divisor).RoundBank(0).IntPart()
}

// Split returns the net amount and the VAT (gross - net).
func Split(gross int64, rate decimal.Decimal) (net, vatAmount int64) {
	net = Net(gross, rate)
	return net, gross - net
}

// Apportion divides total into integer shares proportional to weights. Each share is
// round(total*w/sum(w)); the rounding residual goes to the largest weight (first on ties)
// so the shares always add up to total. Negative weights count as zero. A zero weight sum
// returns nil.
func Apportion(total int64, weights []int64) []int64 {
	var sum int64
	largest := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		sum += w
		if largest < 0 || w > weights[largest] {
			largest = i
		}
	}
	if sum == 0 {
		return nil
	}
	shares := make([]int64, len(weights))
	dTotal := decimal.NewFromInt(total)
	dSum := decimal.NewFromInt(sum)
	var allocated int64
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		shares[i] = dTotal.Mul(decimal.NewFromInt(w)).Div(dSum).RoundBank(0).IntPart()
		allocated += shares[i]
	}
	shares[largest] += total - allocated
	return shares
}

// GrossByClass gross pence grouped by VAT class, converted to net once per class.
type GrossByClass map[int]int64

// Add accumulates gross under class.
func (g GrossByClass) Add(class int, gross int64) {
	g[class] += gross
}

// Net sums the per-class nets of the accumulated gross. ok is false when any class with
// a non-zero amount has no configured rate.
func (g GrossByClass) Net(rates Rates) (int64, bool) {
	var total int64
	for class, gross := range g {
		if gross == 0 {
			continue
		}
		rate, ok := rates.Rate(class)
		if !ok {
			return 0, false
		}
		total += Net(gross, rate)
	}
	return total, true
}

// Totals VAT and ex-VAT pence of one class.
type Totals struct {
	Vat int64
	Net int64
}

// ByClass per-class VAT accumulator.
type ByClass map[int]*Totals

// Add records a component already split into net and VAT.
func (b ByClass) Add(class int, net, vatAmount int64) {
	t, ok := b[class]
	if !ok {
		t = &Totals{}
		b[class] = t
	}
	t.Net += net
	t.Vat += vatAmount
}

// Get totals of a class; zero when the class never accumulated.
func (b ByClass) Get(class int) Totals {
	if t, ok := b[class]; ok {
		return *t
	}
	return Totals{}
}

// TotalVat sum of VAT across classes.
func (b ByClass) TotalVat() int64 {
	var total int64
	for _, t := range b {
		total += t.Vat
	}
	return total
}
