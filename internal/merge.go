package internal

import (
	"time"

	"github.com/samber/lo"
)

type MonthBucket struct {
	Month  int // 0-11, January is 0
	Amount float64
}

type DepartmentBucket struct {
	Department string
	Amount     float64
}

// ChartSeries is the labels/data pair a chart consumes.
type ChartSeries struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

const (
	TagActive  = "active"
	TagExpired = "expired"
	TagAll     = "all"
)

type TableRow struct {
	Record SubscriptionRecord
	Tag    string
}

type Summary struct {
	TotalContractAmount       float64 `json:"totalContractAmount"`
	TotalContractAmountFuture float64 `json:"totalContractAmountFuture"`
	ActiveCount               int     `json:"activeCount"`
}

// CalendarWindow returns the 12-month range starting on the first day of
// startMonth (1-12) in the year of today.
func CalendarWindow(today time.Time, startMonth int) DateRange {
	if startMonth < 1 || startMonth > 12 {
		startMonth = 1
	}
	start := time.Date(today.Year(), time.Month(startMonth), 1, 0, 0, 0, 0, time.UTC)
	return DateRange{Start: start, End: start.AddDate(1, 0, 0).Add(-time.Nanosecond)}
}

// YearWindow returns [Jan 1, Dec 31] of year, inclusive of the whole last day.
func YearWindow(year int) DateRange {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return DateRange{Start: start, End: start.AddDate(1, 0, 0).Add(-time.Nanosecond)}
}

// DefaultRenewalWindow runs from the start of today to the end of the year.
func DefaultRenewalWindow(today time.Time) DateRange {
	return DateRange{Start: startOfDay(today), End: YearWindow(today.Year()).End}
}

// FilterWindow keeps records whose StartDate falls inside w.
func FilterWindow(records []SubscriptionRecord, w DateRange) []SubscriptionRecord {
	return lo.Filter(records, func(r SubscriptionRecord, _ int) bool {
		return w.Contains(r.StartDate)
	})
}

// MergeMonthly sums amounts per month of the year. The key is the month
// number alone: January 2025 and January 2026 land in the same bucket.
func MergeMonthly(records []SubscriptionRecord) []MonthBucket {
	index := make(map[int]int)
	var buckets []MonthBucket
	for _, rec := range records {
		m := int(rec.StartDate.UTC().Month()) - 1
		i, ok := index[m]
		if !ok {
			i = len(buckets)
			index[m] = i
			buckets = append(buckets, MonthBucket{Month: m})
		}
		buckets[i].Amount += rec.ContractAmount.Value
	}
	return buckets
}

// MergeDepartments sums amounts per department name. Records without a
// department are skipped.
func MergeDepartments(records []SubscriptionRecord) []DepartmentBucket {
	index := make(map[string]int)
	var buckets []DepartmentBucket
	for _, rec := range records {
		name := rec.DepartmentName()
		if name == "" {
			continue
		}
		i, ok := index[name]
		if !ok {
			i = len(buckets)
			index[name] = i
			buckets = append(buckets, DepartmentBucket{Department: name})
		}
		buckets[i].Amount += rec.ContractAmount.Value
	}
	return buckets
}

// MonthlySeries builds the chart series for the inclusive month window
// [startMonth, endMonth] (0-11). When endMonth < startMonth the window wraps
// past December.
func MonthlySeries(buckets []MonthBucket, startMonth, endMonth int) ChartSeries {
	amounts := make(map[int]float64, len(buckets))
	for _, b := range buckets {
		amounts[b.Month] += b.Amount
	}

	startMonth = mod12(startMonth)
	endMonth = mod12(endMonth)
	if endMonth < startMonth {
		endMonth += 12
	}

	series := ChartSeries{Labels: []string{}, Data: []float64{}}
	for i := startMonth; i <= endMonth; i++ {
		m := i % 12
		series.Labels = append(series.Labels, ShortMonthName(m))
		series.Data = append(series.Data, amounts[m])
	}
	return series
}

// DepartmentSeries keeps bucket order.
func DepartmentSeries(buckets []DepartmentBucket) ChartSeries {
	series := ChartSeries{Labels: []string{}, Data: []float64{}}
	for _, b := range buckets {
		series.Labels = append(series.Labels, b.Department)
		series.Data = append(series.Data, b.Amount)
	}
	return series
}

// BuildTableView deduplicates records by subscription name (last seen wins,
// first position kept) and tags each as active or expired by comparing its
// end date with today.
func BuildTableView(records []SubscriptionRecord, today time.Time) []TableRow {
	index := make(map[string]int)
	var rows []TableRow
	for _, rec := range records {
		tag := TagExpired
		if isActiveOn(rec, today) {
			tag = TagActive
		}
		row := TableRow{Record: rec, Tag: tag}
		if i, ok := index[rec.SubscriptionName]; ok {
			rows[i] = row
			continue
		}
		index[rec.SubscriptionName] = len(rows)
		rows = append(rows, row)
	}
	return rows
}

// Summarize computes the summary cards.
func Summarize(records []SubscriptionRecord, today time.Time, renewal DateRange) Summary {
	active := lo.Filter(records, func(r SubscriptionRecord, _ int) bool {
		return isActiveOn(r, today)
	})
	upcoming := FilterWindow(records, renewal)

	return Summary{
		TotalContractAmount:       lo.SumBy(active, contractValue),
		TotalContractAmountFuture: lo.SumBy(upcoming, contractValue),
		ActiveCount: len(lo.UniqBy(active, func(r SubscriptionRecord) string {
			return r.SubscriptionName
		})),
	}
}

// ActiveTab maps a status filter to the dashboard tab it selects.
func ActiveTab(statusFilter *int) string {
	if statusFilter == nil {
		return TagAll
	}
	switch *statusFilter {
	case StatusActive:
		return TagActive
	case StatusExpired:
		return TagExpired
	default:
		return TagAll
	}
}

// isActiveOn treats a missing end date as open-ended.
func isActiveOn(rec SubscriptionRecord, today time.Time) bool {
	if rec.EndDate.Year() == 1 {
		return true
	}
	return !rec.EndDate.Before(startOfDay(today))
}

func contractValue(r SubscriptionRecord) float64 {
	return r.ContractAmount.Value
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func mod12(m int) int {
	return ((m % 12) + 12) % 12
}

// MonthName returns the English month name for a 0-11 index.
func MonthName(m int) string {
	return time.Month(mod12(m) + 1).String()
}

func ShortMonthName(m int) string {
	return MonthName(m)[:3]
}
