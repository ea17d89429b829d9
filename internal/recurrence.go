package internal

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Buffers holds the two expansion buffers of one pipeline run. A fresh
// value is created per run, so nothing carries over between runs.
type Buffers struct {
	Subscriptions []SubscriptionRecord
	Departments   []SubscriptionRecord
}

// ExpandAll runs both expander variants over every record of every group.
func ExpandAll(ctx context.Context, groups []VendorGroup) Buffers {
	logger := zerolog.Ctx(ctx)

	var buf Buffers
	for _, g := range groups {
		for _, rec := range g.Records {
			before := len(buf.Subscriptions)
			buf.Subscriptions = ExpandSubscription(rec, buf.Subscriptions)
			buf.Departments = ExpandDepartment(rec, buf.Departments)

			if len(buf.Subscriptions) == before {
				logger.Trace().
					Str("activity_id", rec.ActivityID).
					Str("frequency", rec.Frequency).
					Msg("contract not expanded")
			}
		}
	}
	return buf
}

// ExpandSubscription appends the synthetic per-period records of rec to the
// subscription buffer.
func ExpandSubscription(rec SubscriptionRecord, buf []SubscriptionRecord) []SubscriptionRecord {
	return expand(rec, buf)
}

// ExpandDepartment appends the synthetic per-period records of rec to the
// department buffer.
func ExpandDepartment(rec SubscriptionRecord, buf []SubscriptionRecord) []SubscriptionRecord {
	return expand(rec, buf)
}

// expand simulates the billing periods of a currently renewing contract and
// appends one synthetic record per period to buf. Contracts whose next due
// date is outside [StartDate, EndDate) produce nothing, as do contracts with an
// unparseable frequency or the year-1 sentinel start date.
func expand(rec SubscriptionRecord, buf []SubscriptionRecord) []SubscriptionRecord {
	period := ParseFrequency(rec.Frequency)
	if !period.Valid() || !rec.hasValidStart() || !isRenewing(rec) {
		return buf
	}

	end := comparisonEnd(rec.StartDate, rec.EndDate, period.Unit)
	endKey := monthKey(end)

	current := rec.StartDate
	for {
		next := period.Advance(current, 1)
		// The period that runs into the comparison month is partial.
		if monthKey(next) >= endKey {
			break
		}
		synthetic := rec.Clone()
		synthetic.StartDate = current
		buf = append(buf, synthetic)
		current = next
	}
	return buf
}

// isRenewing reports whether NextDueDate is within [StartDate, EndDate).
func isRenewing(rec SubscriptionRecord) bool {
	return !rec.NextDueDate.Before(rec.StartDate) && rec.NextDueDate.Before(rec.EndDate)
}

// comparisonEnd advances start by the whole-unit span between start and end
// and forces the day of month to end's day. Overflowing days roll into the
// following month, as time.Date does.
func comparisonEnd(start, end time.Time, unit PeriodUnit) time.Time {
	var shifted time.Time
	switch unit {
	case UnitYears:
		shifted = start.AddDate(end.Year()-start.Year(), 0, 0)
	default:
		diff := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
		shifted = start.AddDate(0, diff, 0)
	}
	return time.Date(shifted.Year(), shifted.Month(), end.Day(),
		shifted.Hour(), shifted.Minute(), shifted.Second(), shifted.Nanosecond(), shifted.Location())
}

// monthKey orders (year, month) pairs.
func monthKey(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}
