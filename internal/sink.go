package internal

import (
	"errors"
	"sync"
)

// SinkKind names one of the values a pipeline run publishes.
type SinkKind string

const (
	KindTable           SinkKind = "table"
	KindActiveTab       SinkKind = "active-tab"
	KindSummary         SinkKind = "summary"
	KindMonthlyChart    SinkKind = "monthly-chart"
	KindDepartmentChart SinkKind = "department-chart"
	KindVendorMonths    SinkKind = "vendor-months"
	KindTopExpensive    SinkKind = "top-expensive"
	KindCategories      SinkKind = "categories"
	KindVendorCounts    SinkKind = "vendor-counts"
)

// AllKinds lists every kind in publish order.
var AllKinds = []SinkKind{
	KindTable,
	KindActiveTab,
	KindSummary,
	KindMonthlyChart,
	KindDepartmentChart,
	KindVendorMonths,
	KindTopExpensive,
	KindCategories,
	KindVendorCounts,
}

// Sink receives the complete value of each kind once per run. Values always
// replace whatever the sink held before.
type Sink interface {
	Publish(kind SinkKind, value any) error
}

// SinkFunc is a function that implements Sink
type SinkFunc func(kind SinkKind, value any) error

func (f SinkFunc) Publish(kind SinkKind, value any) error {
	return f(kind, value)
}

// Flusher is implemented by sinks that buffer a run and write it out at the end.
type Flusher interface {
	Flush() error
}

// MultiSink fans every publish out to all of its sinks.
type MultiSink []Sink

func (m MultiSink) Publish(kind SinkKind, value any) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(kind, value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiSink) Flush() error {
	var errs []error
	for _, s := range m {
		if f, ok := s.(Flusher); ok {
			if err := f.Flush(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// MemorySink keeps the latest value per kind.
type MemorySink struct {
	mu     sync.Mutex
	values map[SinkKind]any
	calls  map[SinkKind]int
}

func NewMemorySink() *MemorySink {
	return &MemorySink{
		values: make(map[SinkKind]any),
		calls:  make(map[SinkKind]int),
	}
}

func (m *MemorySink) Publish(kind SinkKind, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[kind] = value
	m.calls[kind]++
	return nil
}

// Get returns the latest value published for kind.
func (m *MemorySink) Get(kind SinkKind) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[kind]
	return v, ok
}

// Calls returns how many times kind was published.
func (m *MemorySink) Calls(kind SinkKind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[kind]
}
