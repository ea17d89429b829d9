package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// ExcludeRule represents an exclusion rule with optional time bounds
type ExcludeRule struct {
	Pattern string `yaml:"pattern"`
	Before  string `yaml:"before,omitempty"` // Exclude only contracts ending before this date (YYYY-MM-DD)
	After   string `yaml:"after,omitempty"`  // Exclude only contracts starting on or after this date (YYYY-MM-DD)

	// compiled fields
	regex      *regexp.Regexp `yaml:"-"`
	beforeDate time.Time      `yaml:"-"`
	afterDate  time.Time      `yaml:"-"`
}

// Group folds several vendor names into one vendor
type Group struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`

	// compiled patterns
	regexes []*regexp.Regexp `yaml:"-"`
}

// ChartConfig controls which months the monthly chart covers.
type ChartConfig struct {
	// WindowStartMonth is the calendar month (1-12) the 12-month window starts in.
	WindowStartMonth int `yaml:"window_start_month,omitempty"`
	// StartMonth and EndMonth are 0-11 indexes; EndMonth < StartMonth wraps.
	StartMonth *int `yaml:"start_month,omitempty"`
	EndMonth   *int `yaml:"end_month,omitempty"`
}

// RenewalConfig overrides the renewal window used for the future-spend card.
type RenewalConfig struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

type Config struct {
	// Currency is an ISO code; empty means detect from the system locale
	Currency string `yaml:"currency,omitempty"`

	// Tags maps subscription names to a list of tags (e.g., "design", "infra")
	Tags map[string][]string `yaml:"tags,omitempty"`

	// Groups allows combining multiple vendor names into one vendor
	Groups []Group `yaml:"groups,omitempty"`

	// Exclude is a list of exclusion rules (can be strings or objects with time bounds)
	Exclude []yaml.Node `yaml:"exclude,omitempty"`

	TopN         *int           `yaml:"top_n,omitempty"`
	StatusFilter *int           `yaml:"status_filter,omitempty"`
	AmountRange  AmountRange    `yaml:"amount_range,omitempty"`
	Renewal      *RenewalConfig `yaml:"renewal_window,omitempty"`
	Chart        ChartConfig    `yaml:"chart,omitempty"`

	// compiled fields (not serialized)
	excludeRules []ExcludeRule `yaml:"-"`
	renewal      *DateRange    `yaml:"-"`
}

// DefaultConfigPath returns the default config file path (~/.subscription-insights/config.yaml)
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".subscription-insights", "config.yaml")
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return ParseConfig(data)
}

// LoadConfigOrDefault loads path, falling back to an empty config when the
// file does not exist.
func LoadConfigOrDefault(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Config{}, nil
	}
	return cfg, err
}

func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Compile group patterns
	for i := range cfg.Groups {
		for _, pattern := range cfg.Groups[i].Patterns {
			re, err := regexp.Compile("(?i)" + pattern) // case-insensitive
			if err != nil {
				return nil, fmt.Errorf("invalid group pattern %q: %w", pattern, err)
			}
			cfg.Groups[i].regexes = append(cfg.Groups[i].regexes, re)
		}
	}

	// Parse exclude rules (supports both strings and objects)
	for _, node := range cfg.Exclude {
		var rule ExcludeRule

		switch node.Kind {
		case yaml.ScalarNode:
			rule.Pattern = node.Value
		case yaml.MappingNode:
			if err := node.Decode(&rule); err != nil {
				return nil, fmt.Errorf("parsing exclude rule: %w", err)
			}
		default:
			return nil, fmt.Errorf("invalid exclude rule format")
		}

		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", rule.Pattern, err)
		}
		rule.regex = re

		if rule.beforeDate, err = parseConfigDate("before", rule.Before); err != nil {
			return nil, err
		}
		if rule.afterDate, err = parseConfigDate("after", rule.After); err != nil {
			return nil, err
		}

		cfg.excludeRules = append(cfg.excludeRules, rule)
	}

	if cfg.Renewal != nil {
		from, err := parseConfigDate("renewal_window.from", cfg.Renewal.From)
		if err != nil {
			return nil, err
		}
		to, err := parseConfigDate("renewal_window.to", cfg.Renewal.To)
		if err != nil {
			return nil, err
		}
		if from.IsZero() || to.IsZero() {
			return nil, fmt.Errorf("renewal_window needs both from and to")
		}
		if to.Before(from) {
			return nil, fmt.Errorf("renewal_window.to %s is before from %s", cfg.Renewal.To, cfg.Renewal.From)
		}
		// to is inclusive of the whole day
		cfg.renewal = &DateRange{Start: from, End: to.AddDate(0, 0, 1).Add(-time.Nanosecond)}
	}

	if m := cfg.Chart.WindowStartMonth; m != 0 && (m < 1 || m > 12) {
		return nil, fmt.Errorf("chart.window_start_month must be 1-12, got %d", m)
	}
	if cfg.TopN != nil && *cfg.TopN < 1 {
		return nil, fmt.Errorf("top_n must be at least 1, got %d", *cfg.TopN)
	}
	if r := cfg.AmountRange; r.Min != nil && r.Max != nil && *r.Max < *r.Min {
		return nil, fmt.Errorf("amount_range.max %v is below min %v", *r.Max, *r.Min)
	}

	return &cfg, nil
}

func parseConfigDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid '%s' date %q: %w", field, value, err)
	}
	return t, nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// Create parent directories if they don't exist
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// ShouldExclude returns true if the record matches any exclude rule by
// subscription or vendor name, considering time bounds against the contract term
func (c *Config) ShouldExclude(rec SubscriptionRecord) bool {
	if c == nil {
		return false
	}
	for _, rule := range c.excludeRules {
		if !rule.regex.MatchString(rec.SubscriptionName) && !rule.regex.MatchString(rec.VendorName) {
			continue
		}

		// before: exclude contracts that ended before this date
		// after: exclude contracts that started on or after this date
		if !rule.beforeDate.IsZero() && !rec.EndDate.Before(rule.beforeDate) {
			continue
		}
		if !rule.afterDate.IsZero() && rec.StartDate.Before(rule.afterDate) {
			continue
		}

		return true
	}
	return false
}

// FilterExclusions removes records matching exclusion rules
func (c *Config) FilterExclusions(records []SubscriptionRecord) []SubscriptionRecord {
	if c == nil || len(c.excludeRules) == 0 {
		return records
	}
	var result []SubscriptionRecord
	for _, rec := range records {
		if !c.ShouldExclude(rec) {
			result = append(result, rec)
		}
	}
	return result
}

// GetTags returns the tags for a subscription, or nil if none
func (c *Config) GetTags(name string) []string {
	if c == nil || c.Tags == nil {
		return nil
	}
	return c.Tags[name]
}

// ApplyGroups returns a copy of records where vendor names matching a group
// pattern are replaced by the group name.
func (c *Config) ApplyGroups(records []SubscriptionRecord) []SubscriptionRecord {
	if c == nil || len(c.Groups) == 0 {
		return records
	}

	result := make([]SubscriptionRecord, len(records))
	for i, rec := range records {
		result[i] = rec
	groups:
		for _, group := range c.Groups {
			for _, re := range group.regexes {
				if re.MatchString(rec.VendorName) {
					result[i].VendorName = group.Name
					break groups
				}
			}
		}
	}
	return result
}

func (c *Config) TopNValue() int {
	if c == nil || c.TopN == nil {
		return DefaultTopN
	}
	return *c.TopN
}

func (c *Config) StatusFilterValue() *int {
	if c == nil {
		return nil
	}
	return c.StatusFilter
}

func (c *Config) AmountRangeValue() AmountRange {
	if c == nil {
		return AmountRange{}
	}
	return c.AmountRange
}

// RenewalWindow returns the configured window or the default one for today.
func (c *Config) RenewalWindow(today time.Time) DateRange {
	if c == nil || c.renewal == nil {
		return DefaultRenewalWindow(today)
	}
	return *c.renewal
}

func (c *Config) WindowStartMonth() int {
	if c == nil || c.Chart.WindowStartMonth == 0 {
		return 1
	}
	return c.Chart.WindowStartMonth
}

// ChartMonths returns the inclusive 0-11 month window of the monthly chart.
// It defaults to the 12 months of the calendar window.
func (c *Config) ChartMonths() (int, int) {
	start := c.WindowStartMonth() - 1
	end := mod12(start + 11)
	if c != nil && c.Chart.StartMonth != nil {
		start = mod12(*c.Chart.StartMonth)
	}
	if c != nil && c.Chart.EndMonth != nil {
		end = mod12(*c.Chart.EndMonth)
	}
	return start, end
}

// SetRenewalWindow overrides the renewal window, e.g. from command line flags.
func (c *Config) SetRenewalWindow(w DateRange) {
	c.renewal = &w
}
