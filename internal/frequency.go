package internal

import (
	"strconv"
	"strings"
	"time"
)

type PeriodUnit int

const (
	UnitUnknown PeriodUnit = iota
	UnitMonths
	UnitYears
)

func (u PeriodUnit) String() string {
	switch u {
	case UnitMonths:
		return "months"
	case UnitYears:
		return "years"
	default:
		return "unknown"
	}
}

// Period is a parsed billing cadence, e.g. every 2 months.
type Period struct {
	Count int
	Unit  PeriodUnit
}

// Valid is false for the "unparseable" sentinel: no recognisable unit or a
// non-positive count.
func (p Period) Valid() bool {
	return p.Unit != UnitUnknown && p.Count > 0
}

// Advance moves t forward by n periods.
func (p Period) Advance(t time.Time, n int) time.Time {
	switch p.Unit {
	case UnitMonths:
		return t.AddDate(0, p.Count*n, 0)
	case UnitYears:
		return t.AddDate(p.Count*n, 0, 0)
	default:
		return t
	}
}

// ParseFrequency converts strings like "2 Months", "1 Monthly", "Yearly" or
// "12 Monthly" into a Period. A leading integer is the count, otherwise the
// count defaults to 1.
func ParseFrequency(s string) Period {
	lower := strings.ToLower(strings.TrimSpace(s))

	var unit PeriodUnit
	switch {
	case strings.Contains(lower, "month"):
		unit = UnitMonths
	case strings.Contains(lower, "year"):
		unit = UnitYears
	default:
		return Period{}
	}

	count := 1
	if n, ok := leadingInt(lower); ok {
		count = n
	}
	return Period{Count: count, Unit: unit}
}

// leadingInt parses an optionally signed integer at the start of s.
func leadingInt(s string) (int, bool) {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
