package dateutils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FinancialYear is an Australian tax year, identified by the calendar year
// in which it ends: FY2025 runs from 1 July 2024 to 30 June 2025.
type FinancialYear int

// FinancialYearOf returns the financial year containing date.
func FinancialYearOf(date time.Time) FinancialYear {
	if date.Month() >= time.July {
		return FinancialYear(date.Year() + 1)
	}
	return FinancialYear(date.Year())
}

// ParseFinancialYear parses labels such as "FY2025" (case-insensitive).
func ParseFinancialYear(label string) (FinancialYear, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(label))
	if !strings.HasPrefix(trimmed, "FY") {
		return 0, fmt.Errorf("invalid financial year %q: expected FYnnnn", label)
	}
	year, err := strconv.Atoi(strings.TrimPrefix(trimmed, "FY"))
	if err != nil || year < 1900 || year > 9999 {
		return 0, fmt.Errorf("invalid financial year %q: expected FYnnnn", label)
	}
	return FinancialYear(year), nil
}

// String renders the label form, e.g. "FY2025".
func (fy FinancialYear) String() string {
	return fmt.Sprintf("FY%d", int(fy))
}

// Start is 1 July of the preceding calendar year.
func (fy FinancialYear) Start() time.Time {
	return time.Date(int(fy)-1, time.July, 1, 0, 0, 0, 0, time.UTC)
}

// End is 30 June of the named year.
func (fy FinancialYear) End() time.Time {
	return time.Date(int(fy), time.June, 30, 0, 0, 0, 0, time.UTC)
}

// Contains reports whether date falls inside the year, both ends inclusive.
func (fy FinancialYear) Contains(date time.Time) bool {
	return CompareDates(date, fy.Start()) >= 0 && CompareDates(date, fy.End()) <= 0
}
