// Package tender classifies free-text payment labels into the closed tender set
// and applies their effect on the daily revenue summary.
package tender

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/jhoicas/epos-daily-stats/internal/domain/entity"
)

// Tender closed set of payment kinds.
type Tender string

const (
	Cash      Tender = "cash"
	Card      Tender = "card"
	Cheque    Tender = "cheque"
	OnAccount Tender = "on_account"
	Voucher   Tender = "voucher"
	PaidOut   Tender = "paid_out"
	CrewFood  Tender = "crew_food"
	WasteFood Tender = "waste_food"
	Split     Tender = "split"
	Unknown   Tender = "unknown"
)

// Counter movement counter an order line increments.
type Counter int

const (
	CounterTakeaway Counter = iota
	CounterEatin
	CounterStaff
	CounterWaste
)

func (c Counter) String() string {
	switch c {
	case CounterEatin:
		return "EATIN"
	case CounterStaff:
		return "STAFF"
	case CounterWaste:
		return "WASTE"
	default:
		return "TAKEAWAY"
	}
}

var labels = map[string]Tender{
	"cash":       Cash,
	"card":       Card,
	"cheque":     Cheque,
	"check":      Cheque,
	"on account": OnAccount,
	"account":    OnAccount,
	"voucher":    Voucher,
	"token":      Voucher,
	"paid out":   PaidOut,
	"payout":     PaidOut,
	"crew food":  CrewFood,
	"staff":      CrewFood,
	"waste food": WasteFood,
	"waste":      WasteFood,
	"split":      Split,
}

var folder = cases.Fold()

// Normalize trims, folds case, maps '_' and '-' to spaces and collapses internal whitespace.
func Normalize(label string) string {
	s := folder.String(label)
	s = strings.Map(func(r rune) rune {
		if r == '_' || r == '-' {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// Classify maps a raw payment label onto the closed tender set. Never fails.
func Classify(label string) Tender {
	if t, ok := labels[Normalize(label)]; ok {
		return t
	}
	return Unknown
}

// IsSale false for orders that are not customer sales (staff meals, waste, paid outs).
func (t Tender) IsSale() bool {
	return t != CrewFood && t != WasteFood && t != PaidOut
}

// Counter picks STAFF or WASTE for crew/waste tenders, else the basis counter.
func (t Tender) Counter(basis string) Counter {
	switch t {
	case CrewFood:
		return CounterStaff
	case WasteFood:
		return CounterWaste
	}
	if basis == entity.BasisTake {
		return CounterTakeaway
	}
	return CounterEatin
}

// Apply adds the order's tender effect to rev. Crew food, waste food and unknown tenders
// add nothing here; their value comes from line nets.
func Apply(rev *entity.Revenue, o *entity.Order) Tender {
	t := Classify(o.PaymentMethod)
	total := o.TotalGross
	switch t {
	case Cash:
		rev.TCashVal += total
	case Card:
		rev.TCardVal += total
	case Cheque:
		rev.TChqVal += total
	case OnAccount:
		rev.TOnAccount += total
	case Voucher:
		rev.TTokenVal += total
	case PaidOut:
		rev.TPayoutVa += total
		rev.TCashVal -= total
	case Split:
		cash := nonNegative(o.SplitCashPence)
		card := nonNegative(o.SplitCardPence)
		voucher := nonNegative(o.SplitVoucherPence)
		rev.TCashVal += cash
		rev.TCardVal += card
		rev.TTokenVal += voucher
		rev.TTokenNovr += tokenOverage(cash+card+voucher, total, voucher)
	}
	return t
}

// tokenOverage part of a voucher not consumed by the order: min(voucher, tendered-total).
func tokenOverage(tendered, total, voucher int64) int64 {
	over := tendered - total
	if over <= 0 {
		return 0
	}
	if over > voucher {
		return voucher
	}
	return over
}

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
