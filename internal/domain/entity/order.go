package entity

import "time"

// Item types of an order line.
const (
	ItemTypeProduct = "product"
	ItemTypeCombo   = "combo"
)

// Order statuses.
const (
	OrderStatusPreparing  = "preparing"
	OrderStatusPacked     = "packed"
	OrderStatusDispatched = "dispatched"
)

// StatusCorrections misspelled statuses written by older tills and their canonical form.
var StatusCorrections = map[string]string{
	"dispached": OrderStatusDispatched,
}

// IsKnownOrderStatus true for the statuses the till writes today.
func IsKnownOrderStatus(s string) bool {
	switch s {
	case OrderStatusPreparing, OrderStatusPacked, OrderStatusDispatched:
		return true
	}
	return false
}

// Order header as captured by the till. Amounts are gross pence.
// Split* amounts only apply when PaymentMethod classifies as split.
type Order struct {
	ID                int64
	CreatedAt         time.Time
	CompletedAt       *time.Time
	Status            string
	PriceBand         int
	VatBasis          string
	PaymentMethod     string
	TotalGross        int64
	SplitCashPence    int64
	SplitCardPence    int64
	SplitVoucherPence int64
	CrewID            string
	BandCoNumber      string
	Lines             []OrderLine
}

// Basis normalises VatBasis: anything other than "take" is eat-in.
func (o *Order) Basis() string {
	if o.VatBasis == BasisTake {
		return BasisTake
	}
	return BasisEat
}

// OrderLine one basket line. Meta is parsed from the stored JSON when the line is loaded.
type OrderLine struct {
	ID             int64
	OrderID        int64
	ItemCode       int
	ItemType       string
	Name           string
	VariantLabel   string
	IsMeal         bool
	Qty            int
	UnitPriceGross int64
	LineTotalGross int64
	Meta           LineMeta
	MetaNotes      []string
}

// IsCombo true when the line sells a combination product.
func (l *OrderLine) IsCombo() bool {
	return l.ItemType == ItemTypeCombo
}

// Quantity returns Qty, never below 1.
func (l *OrderLine) Quantity() int64 {
	if l.Qty < 1 {
		return 1
	}
	return int64(l.Qty)
}

// Kind classifies the line for aggregation.
func (l *OrderLine) Kind() LineKind {
	switch {
	case l.IsCombo():
		return LineKindCombo
	case l.IsMeal:
		return LineKindMeal
	default:
		return LineKindPlain
	}
}

// LineKind plain product, meal or combo.
type LineKind int

const (
	LineKindPlain LineKind = iota
	LineKindMeal
	LineKindCombo
)

func (k LineKind) String() string {
	switch k {
	case LineKindMeal:
		return "meal"
	case LineKindCombo:
		return "combo"
	default:
		return "plain"
	}
}
