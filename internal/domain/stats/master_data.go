package stats

import (
	"sort"

	"github.com/jhoicas/epos-daily-stats/internal/domain/entity"
	"github.com/jhoicas/epos-daily-stats/internal/domain/vat"
)

// MasterData read-only lookups for one aggregation run. Built fresh per run and never shared
// across runs, since master data may change between them.
type MasterData struct {
	products   map[int]*entity.Product
	combos     map[int]*entity.Combo
	rates      vat.Rates
	compulsory map[int][]int
	optional   map[int][]int
	defaults   map[int]int
}

// NewMasterData indexes the loaded rows. Component lists are ordered by product code.
func NewMasterData(
	products []entity.Product,
	combos []entity.Combo,
	rates []entity.VatRate,
	links []entity.ComponentLink,
	defaults []entity.DefaultChoice,
) *MasterData {
	md := &MasterData{
		products:   make(map[int]*entity.Product, len(products)),
		combos:     make(map[int]*entity.Combo, len(combos)),
		rates:      make(vat.Rates, len(rates)),
		compulsory: make(map[int][]int),
		optional:   make(map[int][]int),
		defaults:   make(map[int]int, len(defaults)),
	}
	for i := range products {
		md.products[products[i].Code] = &products[i]
	}
	for i := range combos {
		md.combos[combos[i].Code] = &combos[i]
	}
	for _, r := range rates {
		md.rates[r.Class] = r.Rate
	}
	for _, l := range links {
		if l.Compulsory {
			md.compulsory[l.ComboCode] = append(md.compulsory[l.ComboCode], l.ProductCode)
		} else {
			md.optional[l.ComboCode] = append(md.optional[l.ComboCode], l.ProductCode)
		}
	}
	for _, codes := range md.compulsory {
		sort.Ints(codes)
	}
	for _, codes := range md.optional {
		sort.Ints(codes)
	}
	for _, d := range defaults {
		if d.OptionCode > 0 {
			md.defaults[d.ProductCode] = d.OptionCode
		}
	}
	return md
}

// Product by code.
func (m *MasterData) Product(code int) (*entity.Product, bool) {
	p, ok := m.products[code]
	return p, ok
}

// Combo by code.
func (m *MasterData) Combo(code int) (*entity.Combo, bool) {
	c, ok := m.combos[code]
	return c, ok
}

// Rates configured VAT rates by class.
func (m *MasterData) Rates() vat.Rates {
	return m.rates
}

// Compulsory components of a combo.
func (m *MasterData) Compulsory(comboCode int) []int {
	return m.compulsory[comboCode]
}

// IsOptional true when productCode is an OptPro component of the combo.
func (m *MasterData) IsOptional(comboCode, productCode int) bool {
	for _, c := range m.optional[comboCode] {
		if c == productCode {
			return true
		}
	}
	return false
}

// DefaultChoice PChoice default option for a product.
func (m *MasterData) DefaultChoice(productCode int) (int, bool) {
	c, ok := m.defaults[productCode]
	return c, ok
}
