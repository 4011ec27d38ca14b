package stats

import (
	"fmt"
	"strings"

	"github.com/jhoicas/epos-daily-stats/internal/domain"
)

// StaffWasteVAT decides whether staff and waste VAT counts towards the day's VAT liability.
type StaffWasteVAT string

const (
	// StaffWasteExclude writes staff/waste VAT off: only their net is recorded (TSTAFFVAL/TWASTEVAL).
	StaffWasteExclude StaffWasteVAT = "exclude"
	// StaffWasteInclude also adds their VAT and net to the per-class totals and to VAT.
	StaffWasteInclude StaffWasteVAT = "include"
)

// ParseStaffWasteVAT accepts "exclude" or "include" (case-insensitive); empty means exclude.
func ParseStaffWasteVAT(s string) (StaffWasteVAT, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(StaffWasteExclude):
		return StaffWasteExclude, nil
	case string(StaffWasteInclude):
		return StaffWasteInclude, nil
	default:
		return "", fmt.Errorf("staff/waste vat policy %q: %w", s, domain.ErrInvalidInput)
	}
}

// Policy business switches of an aggregation run.
type Policy struct {
	StaffWasteVAT StaffWasteVAT
	// NoSelectionCode product code meaning "no free choice" on a meal; it stays on the
	// service counter instead of OPTION. Zero disables it.
	NoSelectionCode int
}

// DefaultPolicy exclude staff/waste VAT, no sentinel.
func DefaultPolicy() Policy {
	return Policy{StaffWasteVAT: StaffWasteExclude}
}
