// Package dateutils provides the date handling shared by the statement
// parsers and the aggregation engine: statement date formats, ISO
// conversion and Australian financial years (1 July to 30 June).
package dateutils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Layouts found on Australian bank statements.
const (
	DateLayoutISO        = "2006-01-02"
	DateLayoutAU         = "02/01/2006"
	DateLayoutAUShort    = "02/01/06"
	DateLayoutDayMonth   = "02 Jan 2006"
	DateLayoutLongMonth  = "2 January 2006"
	DateLayoutMonthLabel = "Jan 2006"
)

// statementFormats is tried in order by ParseStatementDate.
var statementFormats = []string{
	DateLayoutAU,
	"2/1/2006",
	DateLayoutAUShort,
	"2/1/06",
	DateLayoutISO,
	DateLayoutDayMonth,
	"2 Jan 2006",
	DateLayoutLongMonth,
	"02 January 2006",
	"02-01-2006",
}

var whitespace = regexp.MustCompile(`\s+`)

// CleanDateString trims and collapses whitespace.
func CleanDateString(dateStr string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(dateStr), " ")
}

// ParseStatementDate parses the day-first formats used by Australian banks.
func ParseStatementDate(dateStr string) (time.Time, error) {
	clean := CleanDateString(dateStr)
	if clean == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range statementFormats {
		if t, err := time.Parse(layout, clean); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// ToISODate formats a date as YYYY-MM-DD.
func ToISODate(date time.Time) string {
	return date.Format(DateLayoutISO)
}

// ParseISODate parses a YYYY-MM-DD string.
func ParseISODate(dateStr string) (time.Time, error) {
	t, err := time.Parse(DateLayoutISO, strings.TrimSpace(dateStr))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid ISO date %q: %w", dateStr, err)
	}
	return t, nil
}

// StatementDateToISO converts a statement date to ISO, or returns an error.
func StatementDateToISO(dateStr string) (string, error) {
	t, err := ParseStatementDate(dateStr)
	if err != nil {
		return "", err
	}
	return ToISODate(t), nil
}

// ParseMonthDay combines a "Month Day" token such as "Jan 5" or
// "January 05" with an explicit year.
func ParseMonthDay(token string, year int) (time.Time, error) {
	clean := CleanDateString(token)
	for _, layout := range []string{"Jan 2 2006", "January 2 2006", "Jan 02 2006", "January 02 2006"} {
		if t, err := time.Parse(layout, clean+" "+strconv.Itoa(year)); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse month/day: %s", token)
}

// StartOfMonth returns the first day of the date's month.
func StartOfMonth(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
}

// MonthLabel renders a month as "Jan 2025".
func MonthLabel(date time.Time) string {
	return date.Format(DateLayoutMonthLabel)
}

// CompareDates compares calendar days, ignoring time of day.
func CompareDates(date1, date2 time.Time) int {
	d1 := time.Date(date1.Year(), date1.Month(), date1.Day(), 0, 0, 0, 0, time.UTC)
	d2 := time.Date(date2.Year(), date2.Month(), date2.Day(), 0, 0, 0, 0, time.UTC)
	switch {
	case d1.Before(d2):
		return -1
	case d1.After(d2):
		return 1
	default:
		return 0
	}
}
