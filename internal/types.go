package internal

import "time"

const (
	StatusActive  = 0
	StatusExpired = 1
)

// Amount mirrors the upstream { "value": n } wrapper around contract amounts.
type Amount struct {
	Value float64
}

type Category struct {
	Name string
}

type Department struct {
	Name   string
	Budget float64
}

// SubscriptionRecord is one activity line: a single subscription contract
// as delivered by the upstream data source.
type SubscriptionRecord struct {
	ActivityID       string
	SubscriptionName string
	VendorName       string
	VendorProfile    string // empty when absent

	StartDate   time.Time
	EndDate     time.Time
	NextDueDate time.Time // renewal anchor

	Frequency      string
	ContractAmount Amount
	HasAmount      bool // false when the payload carried no amount at all

	Category   *Category
	Department *Department
	Status     *int
}

// Clone returns a deep copy. Synthetic records produced by the expander
// must never share pointer fields with the contract they came from.
func (r SubscriptionRecord) Clone() SubscriptionRecord {
	c := r
	if r.Category != nil {
		cat := *r.Category
		c.Category = &cat
	}
	if r.Department != nil {
		dep := *r.Department
		c.Department = &dep
	}
	if r.Status != nil {
		s := *r.Status
		c.Status = &s
	}
	return c
}

// StatusIs reports whether the record carries the given status code.
func (r SubscriptionRecord) StatusIs(status int) bool {
	return r.Status != nil && *r.Status == status
}

// CategoryName returns the category name, or "" when the record has none.
func (r SubscriptionRecord) CategoryName() string {
	if r.Category == nil {
		return ""
	}
	return r.Category.Name
}

// DepartmentName returns the department name, or "" when the record has none.
func (r SubscriptionRecord) DepartmentName() string {
	if r.Department == nil {
		return ""
	}
	return r.Department.Name
}

// hasValidStart is false for the year-1 sentinel (also Go's zero time).
func (r SubscriptionRecord) hasValidStart() bool {
	return r.StartDate.Year() != 1
}

type VendorGroup struct {
	Vendor  string
	Records []SubscriptionRecord
}

type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t is within [Start, End] (inclusive on both ends).
func (d DateRange) Contains(t time.Time) bool {
	return !t.Before(d.Start) && !t.After(d.End)
}

// AmountRange is an inclusive amount filter. A nil bound is unbounded.
type AmountRange struct {
	Min *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty" json:"max,omitempty"`
}

func (a AmountRange) Contains(v float64) bool {
	if a.Min != nil && v < *a.Min {
		return false
	}
	if a.Max != nil && v > *a.Max {
		return false
	}
	return true
}

func (a AmountRange) IsUnbounded() bool {
	return a.Min == nil && a.Max == nil
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
