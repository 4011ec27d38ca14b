// Package csvexport renders persisted daily aggregates into the legacy till files
// MP<ddmmyy>.CSV (meals), PD<ddmmyy>.CSV (product movement) and RV<ddmmyy>.CSV (revenue).
// Column names and order are read by downstream systems and must not change.
package csvexport

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jhoicas/epos-daily-stats/internal/application/dailystats"
	"github.com/jhoicas/epos-daily-stats/internal/domain/entity"
)

var _ dailystats.FileExporter = (*Writer)(nil)

var (
	mealHeader    = []string{"PRODNUMB", "TAKEAWAY", "EATIN"}
	productHeader = []string{"PRODNUMB", "COMBO", "TAKEAWAY", "EATIN", "WASTE", "STAFF", "OPTION"}
)

// Writer implements dailystats.FileExporter.
type Writer struct{}

// NewWriter builds the exporter.
func NewWriter() *Writer { return &Writer{} }

// Files renders MP, PD and RV in that order. Rows keep the snapshot order, which is sorted by key.
func (w *Writer) Files(day *dailystats.DaySnapshot) ([]dailystats.NamedFile, error) {
	mp, err := render(mealHeader, mealRows(day.Meals))
	if err != nil {
		return nil, fmt.Errorf("csv: render MP: %w", err)
	}
	pd, err := render(productHeader, productRows(day.Products))
	if err != nil {
		return nil, fmt.Errorf("csv: render PD: %w", err)
	}
	rv, err := render(entity.RevenueColumns, [][]string{formatInts(day.Revenue.Values())})
	if err != nil {
		return nil, fmt.Errorf("csv: render RV: %w", err)
	}
	return []dailystats.NamedFile{
		{Name: dailystats.DayFileName("MP", day.Date, "CSV"), Data: mp},
		{Name: dailystats.DayFileName("PD", day.Date, "CSV"), Data: pd},
		{Name: dailystats.DayFileName("RV", day.Date, "CSV"), Data: rv},
	}, nil
}

// WriteDay writes the CSV files and extra into dir. Every file is first written under a
// temporary name and only renamed once all of them are on disk, so readers never see a
// partial file.
func (w *Writer) WriteDay(dir string, day *dailystats.DaySnapshot, extra ...dailystats.NamedFile) ([]string, error) {
	files, err := w.Files(day)
	if err != nil {
		return nil, err
	}
	files = append(files, extra...)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("csv: create %s: %w", dir, err)
	}

	temps := make([]string, 0, len(files))
	cleanup := func() {
		for _, t := range temps {
			_ = os.Remove(t)
		}
	}
	for _, f := range files {
		tmp, err := writeTemp(dir, f)
		if err != nil {
			cleanup()
			return nil, err
		}
		temps = append(temps, tmp)
	}

	paths, err := publish(dir, files, temps)
	if err != nil {
		cleanup()
		return nil, err
	}
	return paths, nil
}

// renamed one published file and the previous version it replaced, if any.
type renamed struct {
	final  string
	backup string
}

// publish renames every temp file onto its final name. A failure puts back the files of the
// previous export already replaced, so the directory never mixes two runs.
func publish(dir string, files []dailystats.NamedFile, temps []string) ([]string, error) {
	done := make([]renamed, 0, len(files))
	rollback := func() {
		for i := len(done) - 1; i >= 0; i-- {
			r := done[i]
			if r.backup != "" {
				_ = os.Rename(r.backup, r.final)
			} else {
				_ = os.Remove(r.final)
			}
		}
	}

	for i, f := range files {
		final := filepath.Join(dir, f.Name)
		backup, err := backupExisting(dir, final)
		if err != nil {
			rollback()
			return nil, fmt.Errorf("csv: back up %s: %w", f.Name, err)
		}
		if err := os.Rename(temps[i], final); err != nil {
			if backup != "" {
				_ = os.Rename(backup, final)
			}
			rollback()
			return nil, fmt.Errorf("csv: rename %s: %w", f.Name, err)
		}
		done = append(done, renamed{final: final, backup: backup})
	}

	paths := make([]string, 0, len(done))
	for _, r := range done {
		if r.backup != "" {
			_ = os.Remove(r.backup)
		}
		paths = append(paths, r.final)
	}
	return paths, nil
}

// backupExisting moves a regular file at final aside and returns its new name; "" when there
// is nothing to keep.
func backupExisting(dir, final string) (string, error) {
	info, err := os.Lstat(final)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", nil
	}
	bak, err := os.CreateTemp(dir, "."+filepath.Base(final)+".*.bak")
	if err != nil {
		return "", err
	}
	name := bak.Name()
	_ = bak.Close()
	if err := os.Rename(final, name); err != nil {
		_ = os.Remove(name)
		return "", err
	}
	return name, nil
}

// Archive packs the CSV files and extra into an in-memory zip.
func (w *Writer) Archive(day *dailystats.DaySnapshot, extra ...dailystats.NamedFile) ([]byte, error) {
	files, err := w.Files(day)
	if err != nil {
		return nil, err
	}
	files = append(files, extra...)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		fw, err := zw.Create(f.Name)
		if err != nil {
			return nil, fmt.Errorf("zip: create entry %s: %w", f.Name, err)
		}
		if _, err := fw.Write(f.Data); err != nil {
			return nil, fmt.Errorf("zip: write %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: close archive: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTemp(dir string, f dailystats.NamedFile) (string, error) {
	tmp, err := os.CreateTemp(dir, "."+f.Name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("csv: temp file for %s: %w", f.Name, err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(f.Data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return "", fmt.Errorf("csv: write %s: %w", f.Name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return "", fmt.Errorf("csv: sync %s: %w", f.Name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("csv: close %s: %w", f.Name, err)
	}
	return name, nil
}

// render header plus rows, comma separated with LF line endings.
func render(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(header); err != nil {
		return nil, err
	}
	if err := cw.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func mealRows(meals []entity.MealCount) [][]string {
	rows := make([][]string, 0, len(meals))
	for _, m := range meals {
		rows = append(rows, []string{strconv.Itoa(m.ProdNumb), itoa(m.Takeaway), itoa(m.Eatin)})
	}
	return rows
}

func productRows(products []entity.ProductCount) [][]string {
	rows := make([][]string, 0, len(products))
	for _, p := range products {
		if p.IsZero() {
			continue
		}
		combo := "0"
		if p.Combo {
			combo = "1"
		}
		rows = append(rows, []string{
			strconv.Itoa(p.ProdNumb), combo,
			itoa(p.Takeaway), itoa(p.Eatin), itoa(p.Waste), itoa(p.Staff), itoa(p.Option),
		})
	}
	return rows
}

func formatInts(vals []int64) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = itoa(v)
	}
	return out
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }
