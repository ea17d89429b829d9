package internal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Result holds everything one pipeline run computed. It is owned by the
// caller; the engine keeps no reference to it.
type Result struct {
	Stats   NormalizeStats
	Groups  []VendorGroup
	Buffers Buffers

	Table     []TableRow
	ActiveTab string
	Summary   Summary

	MonthlyBuckets    []MonthBucket
	MonthlyChart      ChartSeries
	DepartmentBuckets []DepartmentBucket
	DepartmentChart   ChartSeries

	VendorMonths []VendorMonthRow
	TopExpensive []TopExpensiveRow
	Categories   []CategoryRow
	VendorCounts []VendorCountRow
}

// Value returns the published value for kind.
func (r *Result) Value(kind SinkKind) any {
	switch kind {
	case KindTable:
		return r.Table
	case KindActiveTab:
		return r.ActiveTab
	case KindSummary:
		return r.Summary
	case KindMonthlyChart:
		return r.MonthlyChart
	case KindDepartmentChart:
		return r.DepartmentChart
	case KindVendorMonths:
		return r.VendorMonths
	case KindTopExpensive:
		return r.TopExpensive
	case KindCategories:
		return r.Categories
	case KindVendorCounts:
		return r.VendorCounts
	default:
		return nil
	}
}

// Engine runs the aggregation pipeline. Run is safe for concurrent use since
// every run builds its own buffers; Publish additionally serialises sink
// writes so overlapping runs never interleave.
type Engine struct {
	cfg *Config
	now func() time.Time

	publishMu sync.Mutex
}

// NewEngine creates an engine. cfg may be nil.
func NewEngine(cfg *Config) *Engine {
	return &Engine{cfg: cfg, now: time.Now}
}

// WithClock overrides the engine's notion of today.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Run performs one full recompute over payload.
func (e *Engine) Run(ctx context.Context, payload []byte) (*Result, error) {
	logger := zerolog.Ctx(ctx)

	records, stats, err := Normalize(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("normalizing payload: %w", err)
	}
	logger.Debug().
		Str("shape", string(stats.Shape)).
		Int("total", stats.Total).
		Int("skipped", stats.Skipped).
		Int("degraded", stats.Degraded).
		Msg("payload normalized")

	records = e.cfg.ApplyGroups(records)
	records = e.cfg.FilterExclusions(records)

	groups := Dedup(GroupByVendor(records))
	buffers := ExpandAll(ctx, groups)

	today := e.now().UTC()
	window := CalendarWindow(today, e.cfg.WindowStartMonth())
	flat := Flatten(groups)

	res := &Result{
		Stats:   stats,
		Groups:  groups,
		Buffers: buffers,
	}

	res.MonthlyBuckets = MergeMonthly(FilterWindow(buffers.Subscriptions, window))
	startMonth, endMonth := e.cfg.ChartMonths()
	res.MonthlyChart = MonthlySeries(res.MonthlyBuckets, startMonth, endMonth)
	res.Table = BuildTableView(flat, today)
	res.ActiveTab = ActiveTab(e.cfg.StatusFilterValue())
	res.Summary = Summarize(flat, today, e.cfg.RenewalWindow(today))

	res.DepartmentBuckets = MergeDepartments(FilterWindow(buffers.Departments, window))
	res.DepartmentChart = DepartmentSeries(res.DepartmentBuckets)

	res.VendorMonths = AggregateVendorMonths(buffers.Subscriptions)
	res.TopExpensive = TopExpensive(flat, e.cfg.TopNValue())
	res.Categories = SummarizeCategories(groups, today.Year(), e.cfg.AmountRangeValue())
	res.VendorCounts = CountActiveByVendor(groups)

	logger.Debug().
		Int("vendors", len(groups)).
		Int("expanded_subscriptions", len(buffers.Subscriptions)).
		Int("expanded_departments", len(buffers.Departments)).
		Msg("pipeline run complete")

	return res, nil
}

// Publish runs the pipeline and, only when the run succeeds, pushes every
// kind to sink once. A failed run leaves the sink untouched.
func (e *Engine) Publish(ctx context.Context, payload []byte, sink Sink) (*Result, error) {
	res, err := e.Run(ctx, payload)
	if err != nil {
		return nil, err
	}

	e.publishMu.Lock()
	defer e.publishMu.Unlock()

	for _, kind := range AllKinds {
		if err := sink.Publish(kind, res.Value(kind)); err != nil {
			return res, fmt.Errorf("publishing %s: %w", kind, err)
		}
	}
	if f, ok := sink.(Flusher); ok {
		if err := f.Flush(); err != nil {
			return res, fmt.Errorf("flushing sink: %w", err)
		}
	}
	return res, nil
}
