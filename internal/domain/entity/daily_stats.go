package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MealCount K_MEAL row: meals sold per product on StatDate.
type MealCount struct {
	StatDate time.Time
	ProdNumb int
	Takeaway int64
	Eatin    int64
}

// ProductKey natural key of a K_PRO row within a date.
type ProductKey struct {
	ProdNumb int
	Combo    bool
}

// ProductCount K_PRO row: product/combo movement on StatDate.
type ProductCount struct {
	StatDate time.Time
	ProductKey
	Takeaway int64
	Eatin    int64
	Waste    int64
	Staff    int64
	Option   int64
}

// IsZero true when no counter moved.
func (p *ProductCount) IsZero() bool {
	return p.Takeaway == 0 && p.Eatin == 0 && p.Waste == 0 && p.Staff == 0 && p.Option == 0
}

// RevenueColumns RV<ddmmyy>.CSV header, in file order.
var RevenueColumns = []string{
	"TCASHVAL", "TCHQVAL", "TCARDVAL", "TONACCOUNT", "TSTAFFVAL", "TWASTEVAL", "TCOUPVAL",
	"TPAYOUTVA", "TTOKENVAL", "TDISCNTVA", "TTOKENNOVR", "TGOLARGENU", "TMEAL_DISCNT",
	"ACTCASH", "ACTCHQ", "ACTCARD", "VAT", "XPV",
}

// Revenue K_REV row: one per date, all pence except TGoLargeNu (a count).
type Revenue struct {
	StatDate    time.Time
	TCashVal    int64
	TChqVal     int64
	TCardVal    int64
	TOnAccount  int64
	TStaffVal   int64
	TWasteVal   int64
	TCoupVal    int64
	TPayoutVa   int64
	TTokenVal   int64
	TDiscntVa   int64
	TTokenNovr  int64
	TGoLargeNu  int64
	TMealDiscnt int64
	ActCash     int64
	ActChq      int64
	ActCard     int64
	VAT         int64
	XPV         int64
}

// Values returns the columns in RevenueColumns order.
func (r *Revenue) Values() []int64 {
	return []int64{
		r.TCashVal, r.TChqVal, r.TCardVal, r.TOnAccount, r.TStaffVal, r.TWasteVal, r.TCoupVal,
		r.TPayoutVa, r.TTokenVal, r.TDiscntVa, r.TTokenNovr, r.TGoLargeNu, r.TMealDiscnt,
		r.ActCash, r.ActChq, r.ActCard, r.VAT, r.XPV,
	}
}

// Fields pointers in RevenueColumns order, for scanning.
func (r *Revenue) Fields() []any {
	return []any{
		&r.TCashVal, &r.TChqVal, &r.TCardVal, &r.TOnAccount, &r.TStaffVal, &r.TWasteVal, &r.TCoupVal,
		&r.TPayoutVa, &r.TTokenVal, &r.TDiscntVa, &r.TTokenNovr, &r.TGoLargeNu, &r.TMealDiscnt,
		&r.ActCash, &r.ActChq, &r.ActCard, &r.VAT, &r.XPV,
	}
}

// WeeklyVat K_WK_VAT row. Index 0 of the day arrays is Monday (ISO weekday 1).
type WeeklyVat struct {
	VatClass  int
	VatRate   decimal.Decimal
	WeekStart time.Time
	TotVat    [7]int64
	ExclVat   [7]int64
	UpdatedAt time.Time
}

// SetDay writes the VAT and ex-VAT totals of one ISO weekday (1=Monday..7=Sunday).
func (w *WeeklyVat) SetDay(isoWeekday int, vat, net int64) {
	if isoWeekday < 1 || isoWeekday > 7 {
		return
	}
	w.TotVat[isoWeekday-1] = vat
	w.ExclVat[isoWeekday-1] = net
}

// ResetWeek clears all days and moves the row to a new week.
func (w *WeeklyVat) ResetWeek(weekStart time.Time) {
	w.WeekStart = weekStart
	w.TotVat = [7]int64{}
	w.ExclVat = [7]int64{}
}

// ISOWeekday 1=Monday..7=Sunday.
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// WeekStart Monday of the ISO week containing d (date only).
func WeekStart(d time.Time) time.Time {
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -(ISOWeekday(d) - 1))
}

// ClearedCounts rows removed by a purge, per table.
type ClearedCounts struct {
	Meal      int64
	Product   int64
	Revenue   int64
	WeeklyVat int64
}
