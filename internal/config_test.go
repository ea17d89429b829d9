package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseConfig_Exclusions(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
exclude:
  - "^Internal"
  - pattern: Slack
    before: "2026-01-01"
  - pattern: Zoom
    after: "2026-06-01"
`))
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}

	term := func(name, vendor, start, end string) SubscriptionRecord {
		return SubscriptionRecord{SubscriptionName: name, VendorName: vendor, StartDate: date(start), EndDate: date(end)}
	}

	tests := []struct {
		name string
		rec  SubscriptionRecord
		want bool
	}{
		{"plain pattern on name", term("Internal Tools", "Acme", "2026-01-01", "2026-12-31"), true},
		{"plain pattern on vendor", term("Tools", "Internal IT", "2026-01-01", "2026-12-31"), true},
		{"no match", term("Figma", "Figma Inc", "2026-01-01", "2026-12-31"), false},
		{"before bound, ended earlier", term("Slack", "Salesforce", "2024-01-01", "2025-06-30"), true},
		{"before bound, still running", term("Slack", "Salesforce", "2025-01-01", "2026-06-30"), false},
		{"after bound, started later", term("Zoom", "Zoom", "2026-06-01", "2027-05-31"), true},
		{"after bound, started earlier", term("Zoom", "Zoom", "2025-06-01", "2026-05-31"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.ShouldExclude(tt.rec); got != tt.want {
				t.Errorf("ShouldExclude() = %v, want %v", got, tt.want)
			}
		})
	}

	kept := cfg.FilterExclusions([]SubscriptionRecord{tests[0].rec, tests[2].rec})
	if len(kept) != 1 || kept[0].SubscriptionName != "Figma" {
		t.Errorf("FilterExclusions() = %+v, want only Figma", kept)
	}
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"invalid yaml", "exclude: [", "parsing config file"},
		{"invalid exclude pattern", "exclude:\n  - \"[\"", "invalid exclude pattern"},
		{"invalid group pattern", "groups:\n  - name: X\n    patterns: [\"(\"]", "invalid group pattern"},
		{"invalid before date", "exclude:\n  - pattern: x\n    before: 2026/01/01", "invalid 'before' date"},
		{"renewal window missing to", "renewal_window:\n  from: \"2026-01-01\"", "needs both from and to"},
		{"renewal window reversed", "renewal_window:\n  from: \"2026-06-01\"\n  to: \"2026-01-01\"", "is before from"},
		{"window start month out of range", "chart:\n  window_start_month: 13", "window_start_month"},
		{"amount range reversed", "amount_range:\n  min: 10\n  max: 5", "amount_range.max"},
		{"top n zero", "top_n: 0", "top_n must be at least 1"},
		{"top n negative", "top_n: -2", "top_n must be at least 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			if err == nil {
				t.Fatalf("ParseConfig() succeeded, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ParseConfig() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ApplyGroups(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
groups:
  - name: Atlassian
    patterns: ["^jira", "confluence"]
  - name: Everything
    patterns: [".*"]
`))
	if err != nil {
		t.Fatal(err)
	}

	records := []SubscriptionRecord{
		{SubscriptionName: "Jira", VendorName: "JIRA Cloud"},
		{SubscriptionName: "Wiki", VendorName: "Confluence"},
		{SubscriptionName: "Figma", VendorName: "Figma Inc"},
	}
	got := cfg.ApplyGroups(records)

	want := []string{"Atlassian", "Atlassian", "Everything"}
	for i, r := range got {
		if r.VendorName != want[i] {
			t.Errorf("record %d vendor = %q, want %q", i, r.VendorName, want[i])
		}
	}
	if records[0].VendorName != "JIRA Cloud" {
		t.Error("ApplyGroups modified its input")
	}
}

func TestConfig_Defaults(t *testing.T) {
	var cfg *Config
	today := date("2026-10-19")

	if got := cfg.TopNValue(); got != DefaultTopN {
		t.Errorf("TopNValue() = %d, want %d", got, DefaultTopN)
	}
	if cfg.StatusFilterValue() != nil {
		t.Error("StatusFilterValue() should be nil")
	}
	if !cfg.AmountRangeValue().IsUnbounded() {
		t.Error("AmountRangeValue() should be unbounded")
	}
	if got := cfg.RenewalWindow(today); got != DefaultRenewalWindow(today) {
		t.Errorf("RenewalWindow() = %+v, want default", got)
	}
	if start, end := cfg.ChartMonths(); start != 0 || end != 11 {
		t.Errorf("ChartMonths() = %d, %d, want 0, 11", start, end)
	}
	if cfg.GetTags("Figma") != nil {
		t.Error("GetTags() should be nil")
	}
}

func TestConfig_Values(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
currency: sek
top_n: 2
status_filter: 1
tags:
  Figma: [design]
renewal_window:
  from: "2026-11-01"
  to: "2026-11-30"
chart:
  window_start_month: 4
`))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Currency != "sek" || cfg.TopNValue() != 2 || *cfg.StatusFilterValue() != 1 {
		t.Errorf("unexpected values: %+v", cfg)
	}
	if got := cfg.GetTags("Figma"); len(got) != 1 || got[0] != "design" {
		t.Errorf("GetTags() = %v", got)
	}

	w := cfg.RenewalWindow(date("2026-10-19"))
	if !w.Contains(date("2026-11-30").Add(12*time.Hour)) || w.Contains(date("2026-12-01")) {
		t.Errorf("RenewalWindow() = %+v, want November inclusive", w)
	}

	if start, end := cfg.ChartMonths(); start != 3 || end != 2 {
		t.Errorf("ChartMonths() = %d, %d, want 3, 2", start, end)
	}
	if cfg.WindowStartMonth() != 4 {
		t.Errorf("WindowStartMonth() = %d, want 4", cfg.WindowStartMonth())
	}
}

func TestLoadConfigOrDefault(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfigOrDefault(filepath.Join(dir, "missing.yaml"))
	if err != nil || cfg == nil {
		t.Fatalf("LoadConfigOrDefault() = %v, %v, want empty config", cfg, err)
	}

	path := filepath.Join(dir, "nested", "config.yaml")
	orig := &Config{Currency: "EUR", TopN: intPtr(3)}
	if err := orig.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := LoadConfigOrDefault(path)
	if err != nil {
		t.Fatalf("LoadConfigOrDefault() error = %v", err)
	}
	if loaded.Currency != "EUR" || loaded.TopNValue() != 3 {
		t.Errorf("loaded = %+v", loaded)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("top_n: [oops"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigOrDefault(bad); err == nil {
		t.Error("LoadConfigOrDefault() should fail on invalid yaml")
	}
}
