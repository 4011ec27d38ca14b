// Package xlsx renders the weekly VAT accumulators (K_WK_VAT) as an Excel workbook for the
// back office.
package xlsx

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/epos-daily-stats/internal/application/dailystats"
	"github.com/jhoicas/epos-daily-stats/internal/domain/entity"
)

var _ dailystats.WeeklyVatWorkbook = (*WeeklyVatWorkbook)(nil)

// SheetName of the only sheet.
const SheetName = "K_WK_VAT"

var days = [7]string{"MON", "TUE", "WED", "THU", "FRI", "SAT", "SUN"}

// WeeklyVatWorkbook one row per VAT class: rate, week, the 7 VAT and 7 ex-VAT day columns
// (pence) and their totals.
type WeeklyVatWorkbook struct{}

// NewWeeklyVatWorkbook builds the generator.
func NewWeeklyVatWorkbook() *WeeklyVatWorkbook { return &WeeklyVatWorkbook{} }

// Header column titles in sheet order.
func Header() []string {
	h := []string{"VAT_CLASS", "VAT_RATE", "WEEK_START"}
	for i := range days {
		h = append(h, fmt.Sprintf("TOT_VAT_%d", i+1))
	}
	for i := range days {
		h = append(h, fmt.Sprintf("T_VAL_EXCLVAT_%d", i+1))
	}
	return append(h, "TOT_VAT", "T_VAL_EXCLVAT")
}

// GenerateWeeklyVat builds the workbook; date goes into the sheet title row.
func (g *WeeklyVatWorkbook) GenerateWeeklyVat(_ context.Context, date time.Time, rows []entity.WeeklyVat) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("xlsx: rename sheet: %w", err)
	}

	title := fmt.Sprintf("Weekly VAT at %s (%s)", date.Format("02/01/2006"), days[entity.ISOWeekday(date)-1])
	if err := f.SetCellValue(SheetName, "A1", title); err != nil {
		return nil, fmt.Errorf("xlsx: title: %w", err)
	}

	header := Header()
	if err := setRow(f, 2, toAny(header)); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx: style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 2)
	if err := f.SetCellStyle(SheetName, "A1", last, bold); err != nil {
		return nil, fmt.Errorf("xlsx: apply style: %w", err)
	}

	for i, w := range rows {
		values := []any{w.VatClass, w.VatRate.InexactFloat64(), w.WeekStart.Format("2006-01-02")}
		var totVat, totNet int64
		for _, v := range w.TotVat {
			values = append(values, v)
			totVat += v
		}
		for _, v := range w.ExclVat {
			values = append(values, v)
			totNet += v
		}
		values = append(values, totVat, totNet)
		if err := setRow(f, i+3, values); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("xlsx: cell name: %w", err)
	}
	if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
		return fmt.Errorf("xlsx: row %d: %w", row, err)
	}
	return nil
}

func toAny(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
