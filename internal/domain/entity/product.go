package entity

import "github.com/shopspring/decimal"

// PriceBands number of parallel price columns (VATPR, VATPR_2..VATPR_6).
const PriceBands = 6

// Consumption basis of an order; selects which of the two VAT classes applies.
const (
	BasisTake = "take"
	BasisEat  = "eat"
)

// Product is a PdItem master row. Prices are gross pence per band (index 0 = band 1).
// MealPrices holds the discounted (DC_VATPR) columns; 0 means "no discount".
type Product struct {
	Code         int
	Name         string
	EatVatClass  int
	TakeVatClass int
	Prices       [PriceBands]int64
	MealPrices   [PriceBands]int64
}

// Price standard gross price for the band.
func (p *Product) Price(band int) int64 {
	return p.Prices[bandIndex(band)]
}

// DiscountedPrice meal component price for the band; falls back to the standard price.
func (p *Product) DiscountedPrice(band int) int64 {
	if dc := p.MealPrices[bandIndex(band)]; dc > 0 {
		return dc
	}
	return p.Price(band)
}

// VatClass returns the class for the given basis ("take" or "eat").
func (p *Product) VatClass(basis string) int {
	return vatClassFor(basis, p.EatVatClass, p.TakeVatClass)
}

// Combo is a CombTb master row.
type Combo struct {
	Code         int
	Name         string
	TradeUpCode  int
	EatVatClass  int
	TakeVatClass int
	Prices       [PriceBands]int64
}

// Price gross price of the combo for the band.
func (c *Combo) Price(band int) int64 {
	return c.Prices[bandIndex(band)]
}

// VatClass returns the class for the given basis.
func (c *Combo) VatClass(basis string) int {
	return vatClassFor(basis, c.EatVatClass, c.TakeVatClass)
}

// VatRate PdVatTb row: percentage rate (e.g. 20.00) per VAT class.
type VatRate struct {
	Class       int
	Rate        decimal.Decimal
	Description string
}

// ComponentLink CompPro (Compulsory=true) or OptPro (Compulsory=false) row.
type ComponentLink struct {
	ComboCode   int
	ProductCode int
	TradeUpCode int
	Compulsory  bool
}

// DefaultChoice PChoice row: default optional product for a product.
type DefaultChoice struct {
	ProductCode int
	OptionCode  int
}

// ChannelMapping sales channel to price band mapping shown to operators.
type ChannelMapping struct {
	ID          int64
	Name        string
	Band        int
	ChannelCode string
	CoNumber    string
	Active      bool
	SortOrder   int
}

func bandIndex(band int) int {
	if band < 1 || band > PriceBands {
		return 0
	}
	return band - 1
}

func vatClassFor(basis string, eat, take int) int {
	if basis == BasisTake {
		return take
	}
	return eat
}
