package stats_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/epos-daily-stats/internal/domain/entity"
	"github.com/jhoicas/epos-daily-stats/internal/domain/stats"
	"github.com/jhoicas/epos-daily-stats/internal/domain/vat"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixtures
// ──────────────────────────────────────────────────────────────────────────────

const (
	classStd  = 1 // 20%
	classZero = 2 // 0%
)

// 2024-01-03 is a Wednesday.
var testDate = time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

func product(code int, std, dc int64, class int) entity.Product {
	p := entity.Product{Code: code, EatVatClass: class, TakeVatClass: class}
	for i := range p.Prices {
		p.Prices[i] = std
		p.MealPrices[i] = dc
	}
	return p
}

func combo(code int, price int64, class int) entity.Combo {
	c := entity.Combo{Code: code, EatVatClass: class, TakeVatClass: class}
	for i := range c.Prices {
		c.Prices[i] = price
	}
	return c
}

func masterData(defaults ...entity.DefaultChoice) *stats.MasterData {
	products := []entity.Product{
		product(3, 485, 485, classStd),   // Cheeseburger
		product(10, 505, 505, classStd),  // Burger
		product(30, 250, 170, classStd),  // Large fries
		product(69, 285, 280, classStd),  // Shake
		product(71, 530, 530, classStd),  // Platter components
		product(82, 245, 245, classStd),
		product(95, 315, 315, classStd),
		product(26, 55, 55, classStd), // Dips
		product(39, 75, 75, classStd),
		product(50, 60, 60, classZero), // Extra, zero-rated
		product(99, 0, 0, classStd),    // No selection
	}
	// Eat-in standard, takeaway zero-rated.
	cold := entity.Product{Code: 200, EatVatClass: classStd, TakeVatClass: classZero}
	for i := range cold.Prices {
		cold.Prices[i] = 120
	}
	products = append(products, cold)

	combos := []entity.Combo{combo(4, 995, classStd)}
	rates := []entity.VatRate{
		{Class: classStd, Rate: decimal.NewFromInt(20)},
		{Class: classZero, Rate: decimal.Zero},
	}
	links := []entity.ComponentLink{
		{ComboCode: 4, ProductCode: 95, Compulsory: true},
		{ComboCode: 4, ProductCode: 71, Compulsory: true},
		{ComboCode: 4, ProductCode: 82, Compulsory: true},
		{ComboCode: 4, ProductCode: 26},
		{ComboCode: 4, ProductCode: 39},
	}
	return stats.NewMasterData(products, combos, rates, links, defaults)
}

func intPtr(v int) *int { return &v }

func order(id int64, basis, payment string, total int64, lines ...entity.OrderLine) entity.Order {
	for i := range lines {
		lines[i].ID = id*100 + int64(i)
		lines[i].OrderID = id
	}
	return entity.Order{ID: id, PriceBand: 1, VatBasis: basis, PaymentMethod: payment, TotalGross: total, Lines: lines}
}

func plainLine(code int, qty int, gross int64) entity.OrderLine {
	return entity.OrderLine{ItemCode: code, ItemType: entity.ItemTypeProduct, Qty: qty, UnitPriceGross: gross / int64(qty), LineTotalGross: gross}
}

func mealLine(code int, qty int, gross int64, fries, drink int) entity.OrderLine {
	l := plainLine(code, qty, gross)
	l.IsMeal = true
	l.Meta = entity.LineMeta{Fries: intPtr(fries), Drink: intPtr(drink)}
	return l
}

func platterLine(qty int, freeChoices ...int) entity.OrderLine {
	return entity.OrderLine{
		ItemCode: 4, ItemType: entity.ItemTypeCombo, Qty: qty,
		UnitPriceGross: 995, LineTotalGross: 995 * int64(qty),
		Meta: entity.LineMeta{FreeChoices: freeChoices},
	}
}

func key(code int, combo bool) entity.ProductKey {
	return entity.ProductKey{ProdNumb: code, Combo: combo}
}

func aggregate(orders ...entity.Order) *stats.DailyStats {
	return stats.Aggregate(testDate, orders, masterData(), stats.DefaultPolicy())
}

func vatSum(s *stats.DailyStats) (net, v int64) {
	for _, t := range s.VatByClass {
		net += t.Net
		v += t.Vat
	}
	return net, v
}

// ──────────────────────────────────────────────────────────────────────────────
// Scenarios
// ──────────────────────────────────────────────────────────────────────────────

func TestAggregate_StandaloneCheeseburger(t *testing.T) {
	s := aggregate(order(1, "take", "cash", 485, plainLine(3, 1, 485)))

	require.Contains(t, s.ProductCounts, key(3, false))
	row := s.ProductCounts[key(3, false)]
	assert.Equal(t, int64(1), row.Takeaway)
	assert.Equal(t, int64(0), row.Eatin)
	assert.Equal(t, int64(485), s.Revenue.TCashVal)
	assert.Equal(t, int64(485), s.Revenue.ActCash, "ACTCASH mirrors TCASHVAL")
	assert.Equal(t, int64(81), s.Revenue.VAT)
	assert.Equal(t, int64(404), s.VatByClass.Get(classStd).Net)
	assert.Empty(t, s.MealCounts)
}

func TestAggregate_MealDiscount(t *testing.T) {
	s := aggregate(order(1, "take", "cash", 955, mealLine(10, 1, 955, 30, 69)))

	assert.Equal(t, int64(71), s.Revenue.TMealDiscnt, "867 - 796")
	require.Contains(t, s.MealCounts, 10)
	assert.Equal(t, int64(1), s.MealCounts[10].Takeaway)
	assert.Equal(t, int64(1), s.ProductCounts[key(10, false)].Takeaway)
	assert.Equal(t, int64(1), s.ProductCounts[key(30, false)].Takeaway, "fries counted as their own movement")
	assert.Equal(t, int64(1), s.ProductCounts[key(69, false)].Takeaway, "drink counted as its own movement")

	net, v := vatSum(s)
	assert.Equal(t, int64(955), net+v, "meal gross fully apportioned")
}

func TestAggregate_MealDiscountScalesWithQty(t *testing.T) {
	s := aggregate(order(1, "eat", "card", 1910, mealLine(10, 2, 1910, 30, 69)))

	assert.Equal(t, int64(142), s.Revenue.TMealDiscnt)
	assert.Equal(t, int64(2), s.MealCounts[10].Eatin)
	assert.Equal(t, int64(2), s.ProductCounts[key(30, false)].Eatin)
}

// Discounts are rounded once per VAT class on the summed gross: 1017 - 829.
func TestAggregate_SharingPlatterCombinationDiscount(t *testing.T) {
	s := aggregate(order(1, "take", "cash", 995, platterLine(1, 26, 39)))

	assert.Equal(t, int64(188), s.Revenue.TDiscntVa)
	assert.Equal(t, int64(1), s.ProductCounts[key(4, true)].Takeaway)
	for _, code := range []int{71, 82, 95} {
		assert.Equal(t, int64(1), s.ProductCounts[key(code, false)].Takeaway, "compulsory %d", code)
	}
	assert.Equal(t, int64(1), s.ProductCounts[key(26, false)].Takeaway, "first free choice stays on basis")
	assert.Equal(t, int64(0), s.ProductCounts[key(26, false)].Option)
	assert.Equal(t, int64(1), s.ProductCounts[key(39, false)].Option, "second free choice goes to OPTION")
	assert.Equal(t, int64(0), s.ProductCounts[key(39, false)].Takeaway)

	net, v := vatSum(s)
	assert.Equal(t, int64(995), net+v, "combo gross fully apportioned")
}

func TestAggregate_CrewFoodCountsStaff(t *testing.T) {
	s := aggregate(order(1, "take", "Crew Food", 485, plainLine(3, 1, 485)))

	row := s.ProductCounts[key(3, false)]
	assert.Equal(t, int64(1), row.Staff)
	assert.Equal(t, int64(0), row.Takeaway)
	assert.Equal(t, int64(0), row.Eatin)
	assert.Equal(t, int64(404), s.Revenue.TStaffVal, "staff value is ex-VAT")
	assert.Equal(t, int64(0), s.Revenue.TCashVal)
	assert.Equal(t, int64(0), s.Revenue.VAT, "staff VAT excluded by default")
	assert.Empty(t, s.VatByClass)
}

func TestAggregate_StaffVatIncludedByPolicy(t *testing.T) {
	policy := stats.Policy{StaffWasteVAT: stats.StaffWasteInclude}
	s := stats.Aggregate(testDate, []entity.Order{
		order(1, "take", "waste", 485, plainLine(3, 1, 485)),
	}, masterData(), policy)

	assert.Equal(t, int64(404), s.Revenue.TWasteVal)
	assert.Equal(t, int64(81), s.Revenue.VAT)
	assert.Equal(t, int64(1), s.ProductCounts[key(3, false)].Waste)
}

func TestAggregate_PaidOutReducesCash(t *testing.T) {
	s := aggregate(
		order(1, "take", "cash", 1000, plainLine(3, 2, 970), plainLine(26, 1, 30)),
		order(2, "take", "Paid Out", 300),
	)
	assert.Equal(t, int64(700), s.Revenue.TCashVal)
	assert.Equal(t, int64(300), s.Revenue.TPayoutVa)
	assert.Equal(t, int64(700), s.Revenue.ActCash)
}

func TestAggregate_PaidOutContributesNoMovement(t *testing.T) {
	s := aggregate(order(1, "take", "paid out", 300, plainLine(3, 1, 300)))
	assert.Empty(t, s.ProductCounts)
	assert.Equal(t, int64(0), s.Revenue.VAT)
}

// ──────────────────────────────────────────────────────────────────────────────
// OPTION rules
// ──────────────────────────────────────────────────────────────────────────────

func TestAggregate_PlainFreeChoicesGoToOption(t *testing.T) {
	l := plainLine(3, 2, 970)
	l.Meta.FreeChoices = []int{26}
	s := aggregate(order(1, "eat", "cash", 970, l))

	assert.Equal(t, int64(2), s.ProductCounts[key(3, false)].Eatin)
	assert.Equal(t, int64(2), s.ProductCounts[key(26, false)].Option)
	assert.Equal(t, int64(0), s.ProductCounts[key(26, false)].Eatin)
}

func TestAggregate_MealDefaultChoiceGoesToOption(t *testing.T) {
	md := masterData(entity.DefaultChoice{ProductCode: 10, OptionCode: 26})
	s := stats.Aggregate(testDate, []entity.Order{
		order(1, "take", "cash", 955, mealLine(10, 1, 955, 30, 69)),
	}, md, stats.DefaultPolicy())

	assert.Equal(t, int64(1), s.ProductCounts[key(26, false)].Option)
}

func TestAggregate_MealExplicitChoiceSkipsDefault(t *testing.T) {
	md := masterData(entity.DefaultChoice{ProductCode: 10, OptionCode: 26})
	l := mealLine(10, 1, 955, 30, 69)
	l.Meta.FreeChoices = []int{39}
	s := stats.Aggregate(testDate, []entity.Order{order(1, "take", "cash", 955, l)}, md, stats.DefaultPolicy())

	assert.NotContains(t, s.ProductCounts, key(26, false))
	assert.Equal(t, int64(1), s.ProductCounts[key(39, false)].Option)
}

func TestAggregate_NoSelectionSentinelStaysOnBasis(t *testing.T) {
	l := mealLine(10, 1, 955, 30, 69)
	l.Meta.FreeChoices = []int{99}
	policy := stats.Policy{StaffWasteVAT: stats.StaffWasteExclude, NoSelectionCode: 99}
	s := stats.Aggregate(testDate, []entity.Order{order(1, "take", "cash", 955, l)}, masterData(), policy)

	assert.Equal(t, int64(1), s.ProductCounts[key(99, false)].Takeaway)
	assert.Equal(t, int64(0), s.ProductCounts[key(99, false)].Option)
}

func TestAggregate_GoLargeCounted(t *testing.T) {
	l := mealLine(10, 3, 3000, 30, 69)
	l.Meta.GoLarge = true
	s := aggregate(order(1, "take", "cash", 3000, l))

	assert.Equal(t, int64(3), s.Revenue.TGoLargeNu)
	net, v := vatSum(s)
	assert.Equal(t, int64(3000), net+v, "uplift lands on the main item")
}

// ──────────────────────────────────────────────────────────────────────────────
// VAT apportionment edge cases
// ──────────────────────────────────────────────────────────────────────────────

func TestAggregate_ExtrasUseTheirOwnClass(t *testing.T) {
	l := plainLine(3, 1, 545)
	l.Meta.Extras = []entity.ExtraProduct{{Code: 50, PriceGross: 60}}
	s := aggregate(order(1, "take", "cash", 545, l))

	assert.Equal(t, int64(60), s.VatByClass.Get(classZero).Net)
	assert.Equal(t, int64(0), s.VatByClass.Get(classZero).Vat)
	assert.Equal(t, int64(404), s.VatByClass.Get(classStd).Net)
	assert.Equal(t, int64(1), s.ProductCounts[key(50, false)].Takeaway, "extras move on the counter")
}

func TestAggregate_BasisSelectsVatClass(t *testing.T) {
	s := aggregate(
		order(1, "take", "cash", 120, plainLine(200, 1, 120)),
		order(2, "eat", "cash", 120, plainLine(200, 1, 120)),
	)
	assert.Equal(t, vat.Totals{Vat: 0, Net: 120}, s.VatByClass.Get(classZero))
	assert.Equal(t, vat.Totals{Vat: 20, Net: 100}, s.VatByClass.Get(classStd))
}

func TestAggregate_MissingRateSkipsWithNote(t *testing.T) {
	md := stats.NewMasterData(
		[]entity.Product{product(3, 485, 485, 7)}, nil,
		[]entity.VatRate{{Class: classStd, Rate: decimal.NewFromInt(20)}}, nil, nil,
	)
	s := stats.Aggregate(testDate, []entity.Order{order(1, "take", "cash", 485, plainLine(3, 1, 485))}, md, stats.DefaultPolicy())

	assert.Equal(t, int64(0), s.Revenue.VAT)
	assert.Equal(t, int64(1), s.ProductCounts[key(3, false)].Takeaway, "movement still counted")
	require.NotEmpty(t, s.Notes)
	assert.Contains(t, s.Notes[0].Reason, "no vat rate for class 7")
}

func TestAggregate_UnknownProductStillCountsMovement(t *testing.T) {
	s := aggregate(order(1, "take", "cash", 100, plainLine(12345, 1, 100)))
	assert.Equal(t, int64(1), s.ProductCounts[key(12345, false)].Takeaway)
	assert.Equal(t, int64(100), s.Revenue.TCashVal)
	assert.Len(t, s.Notes, 1)
}

func TestAggregate_UnknownMainKeepsExtrasVat(t *testing.T) {
	l := plainLine(12345, 1, 160)
	l.Meta.Extras = []entity.ExtraProduct{{Code: 50, PriceGross: 60}}
	s := aggregate(order(1, "take", "cash", 160, l))

	assert.Equal(t, vat.Totals{Vat: 0, Net: 60}, s.VatByClass.Get(classZero), "extra with master data still apportioned")
	assert.Equal(t, vat.Totals{}, s.VatByClass.Get(classStd))
	require.Len(t, s.Notes, 1)
	assert.Contains(t, s.Notes[0].Reason, "product 12345 not in master data")
}

// Fries 170 and drink 280 at 20%: VAT 28 + 47, per component.
func TestAggregate_UnknownMealMainKeepsFriesAndDrinkVat(t *testing.T) {
	s := aggregate(order(1, "eat", "card", 955, mealLine(12345, 1, 955, 30, 69)))

	assert.Equal(t, vat.Totals{Vat: 75, Net: 375}, s.VatByClass.Get(classStd))
	assert.Equal(t, int64(75), s.Revenue.VAT)
	assert.Equal(t, int64(71), s.Revenue.TMealDiscnt, "discount covers the same known components")
	assert.Equal(t, int64(1), s.MealCounts[12345].Eatin)
	require.Len(t, s.Notes, 1)
	assert.Contains(t, s.Notes[0].Reason, "meal product 12345 not in master data")
}

func TestAggregate_ComboDropsOptionsThatAreNotOptPro(t *testing.T) {
	l := platterLine(1)
	l.Meta.Options = []int{26, 3}
	s := aggregate(order(1, "take", "cash", 995, l))

	assert.Equal(t, int64(1), s.ProductCounts[key(26, false)].Takeaway, "OptPro option counted")
	assert.NotContains(t, s.ProductCounts, key(3, false), "cheeseburger is not an option of the platter")
	require.Len(t, s.Notes, 1)
	assert.Contains(t, s.Notes[0].Reason, "option 3 is not an optional component of combo 4")

	net, v := vatSum(s)
	assert.Equal(t, int64(995), net+v, "line still fully apportioned over valid components")
}

func TestAggregate_ZeroPricedComboComponentsSkipVat(t *testing.T) {
	md := stats.NewMasterData(
		[]entity.Product{product(1, 0, 0, classStd)},
		[]entity.Combo{combo(5, 500, classStd)},
		[]entity.VatRate{{Class: classStd, Rate: decimal.NewFromInt(20)}},
		[]entity.ComponentLink{{ComboCode: 5, ProductCode: 1, Compulsory: true}},
		nil,
	)
	l := entity.OrderLine{ItemCode: 5, ItemType: entity.ItemTypeCombo, Qty: 1, UnitPriceGross: 500, LineTotalGross: 500}
	s := stats.Aggregate(testDate, []entity.Order{order(1, "take", "cash", 500, l)}, md, stats.DefaultPolicy())

	assert.Equal(t, int64(0), s.Revenue.VAT)
	assert.Equal(t, int64(0), s.Revenue.TDiscntVa, "discount never negative")
	assert.Equal(t, int64(1), s.ProductCounts[key(1, false)].Takeaway)
}

// ──────────────────────────────────────────────────────────────────────────────
// Properties
// ──────────────────────────────────────────────────────────────────────────────

func TestAggregate_DiscountsNeverNegative(t *testing.T) {
	md := stats.NewMasterData(
		[]entity.Product{product(1, 100, 300, classStd), product(2, 100, 300, classStd), product(3, 100, 300, classStd)},
		[]entity.Combo{combo(8, 900, classStd)},
		[]entity.VatRate{{Class: classStd, Rate: decimal.NewFromInt(20)}},
		[]entity.ComponentLink{{ComboCode: 8, ProductCode: 1, Compulsory: true}},
		nil,
	)
	comboLine := entity.OrderLine{ItemCode: 8, ItemType: entity.ItemTypeCombo, Qty: 1, UnitPriceGross: 900, LineTotalGross: 900}
	s := stats.Aggregate(testDate, []entity.Order{
		order(1, "take", "cash", 900, mealLine(1, 1, 900, 2, 3)),
		order(2, "take", "cash", 900, comboLine),
	}, md, stats.DefaultPolicy())

	assert.Equal(t, int64(0), s.Revenue.TMealDiscnt)
	assert.Equal(t, int64(0), s.Revenue.TDiscntVa)
}

func TestAggregate_StaffAndWasteExclusiveOfBasis(t *testing.T) {
	s := aggregate(
		order(1, "take", "crew food", 955, mealLine(10, 1, 955, 30, 69)),
		order(2, "eat", "waste food", 995, platterLine(1, 26, 39)),
	)
	for k, row := range s.ProductCounts {
		assert.Zero(t, row.Takeaway, "key %+v", k)
		assert.Zero(t, row.Eatin, "key %+v", k)
	}
	assert.Empty(t, s.MealCounts, "staff meals are not meal sales")
	assert.Zero(t, s.Revenue.TMealDiscnt)
	assert.Zero(t, s.Revenue.TDiscntVa)
}

func TestAggregate_Idempotent(t *testing.T) {
	orders := func() []entity.Order {
		return []entity.Order{
			order(1, "take", "cash", 955, mealLine(10, 1, 955, 30, 69)),
			order(2, "eat", "card", 995, platterLine(1, 26, 39)),
			order(3, "take", "split", 485, plainLine(3, 1, 485)),
		}
	}
	first := stats.Aggregate(testDate, orders(), masterData(), stats.DefaultPolicy())
	second := stats.Aggregate(testDate, orders(), masterData(), stats.DefaultPolicy())

	assert.Equal(t, first.Revenue, second.Revenue)
	assert.Equal(t, first.Products(), second.Products())
	assert.Equal(t, first.Meals(), second.Meals())
}

func TestDailyStats_ProductsSorted(t *testing.T) {
	s := aggregate(
		order(1, "take", "cash", 995, platterLine(1)),
		order(2, "take", "cash", 485, plainLine(3, 1, 485)),
	)
	rows := s.Products()
	require.NotEmpty(t, rows)
	for i := 1; i < len(rows); i++ {
		prev, cur := rows[i-1], rows[i]
		assert.True(t, prev.ProdNumb < cur.ProdNumb || (prev.ProdNumb == cur.ProdNumb && !prev.Combo && cur.Combo))
	}
}

func TestDailyStats_WeeklyVatUsesIsoWeekday(t *testing.T) {
	s := aggregate(order(1, "take", "cash", 485, plainLine(3, 1, 485)))
	rows := s.WeeklyVat(masterData().Rates())

	require.Len(t, rows, 2)
	assert.Equal(t, classStd, rows[0].VatClass)
	assert.Equal(t, int64(81), rows[0].TotVat[2], "Wednesday is column 3")
	assert.Equal(t, int64(404), rows[0].ExclVat[2])
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), rows[0].WeekStart)
	assert.Equal(t, [7]int64{}, rows[1].TotVat)
}
