package internal

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func publishAll(t *testing.T, sink Sink, cfg *Config) *Result {
	t.Helper()
	res, err := testEngine(cfg).Publish(testContext(t), []byte(pipelinePayload), sink)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	return res
}

func TestTableSink(t *testing.T) {
	var buf bytes.Buffer
	publishAll(t, NewTableSink(&buf, OutputOptions{Currency: GetCurrency("USD")}), nil)
	out := buf.String()

	for _, want := range []string{
		"Found 3 subscriptions (2 active, 1 expired)",
		"Showing: all",
		"Figma", "Heroku", "Slack",
		"Monthly Spend", "Department Spend", "Most Expensive", "Categories (any amount)",
		"$1,000.00",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTableSink_FiltersByTabAndTags(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
status_filter: 0
tags:
  Figma: [design]
  Heroku: [infra]
`))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	sink := NewTableSink(&buf, OutputOptions{Currency: GetCurrency("USD"), Config: cfg, TagFilter: []string{"DESIGN"}})
	res := publishAll(t, sink, cfg)

	display := FilterByTags(FilterByTab(res.Table, res.ActiveTab), []string{"DESIGN"}, cfg)
	if len(display) != 1 || display[0].Record.SubscriptionName != "Figma" {
		t.Errorf("display rows = %+v, want only Figma", display)
	}
	if !strings.Contains(buf.String(), "Showing: active, tags: DESIGN") {
		t.Errorf("missing filter line:\n%s", buf.String())
	}
}

func TestTableSink_RejectsUnexpectedValue(t *testing.T) {
	sink := NewTableSink(&bytes.Buffer{}, OutputOptions{})
	if err := sink.Publish(KindSummary, 42); err == nil {
		t.Error("Publish() accepted an int summary")
	}
}

func TestJSONSink(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{Tags: map[string][]string{"Figma": {"design"}}}
	publishAll(t, NewJSONSink(&buf, GetCurrency("EUR"), cfg), cfg)

	var out JSONOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if out.Currency != "EUR" || out.ActiveTab != TagAll {
		t.Errorf("currency/tab = %q/%q", out.Currency, out.ActiveTab)
	}
	if len(out.Table) != 3 {
		t.Fatalf("table rows = %d, want 3", len(out.Table))
	}
	figma := out.Table[0]
	if figma.SubscriptionName != "Figma" || figma.StartDate != "2026-01-01" || figma.Tag != TagActive {
		t.Errorf("first row = %+v", figma)
	}
	if len(figma.Tags) != 1 || figma.Tags[0] != "design" {
		t.Errorf("tags = %v, want [design]", figma.Tags)
	}
	if len(out.MonthlyChart.Labels) != 12 {
		t.Errorf("monthly chart has %d labels, want 12", len(out.MonthlyChart.Labels))
	}
	if !strings.Contains(buf.String(), `"totalContractAmountFuture"`) {
		t.Error("summary keys are not camelCase")
	}
}

func TestXLSXSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	publishAll(t, NewXLSXSink(path), nil)

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("opening report: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != len(AllKinds) || sheets[0] != "Subscriptions" {
		t.Errorf("sheets = %v", sheets)
	}

	rows, err := f.GetRows("Subscriptions")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("Subscriptions has %d rows, want header + 3", len(rows))
	}
	if rows[0][0] != "Name" || rows[1][0] != "Figma" {
		t.Errorf("unexpected rows: %v", rows[:2])
	}

	monthly, err := f.GetRows("Monthly")
	if err != nil {
		t.Fatal(err)
	}
	if len(monthly) != 13 || monthly[1][0] != "Jan" || monthly[1][1] != "100" {
		t.Errorf("Monthly rows = %v", monthly)
	}
}

func TestSortRows(t *testing.T) {
	rows := []TableRow{
		{Record: rec("1", "zoom", "Zoom", "2026-03-01", 30)},
		{Record: rec("2", "Figma", "Figma Inc", "2026-01-01", 10)},
		{Record: rec("3", "slack", "Salesforce", "2026-02-01", 20)},
	}

	tests := []struct {
		field, dir string
		want       []string
	}{
		{"name", "asc", []string{"Figma", "slack", "zoom"}},
		{"name", "desc", []string{"zoom", "slack", "Figma"}},
		{"amount", "desc", []string{"zoom", "slack", "Figma"}},
		{"start", "asc", []string{"Figma", "slack", "zoom"}},
		{"vendor", "asc", []string{"Figma", "slack", "zoom"}},
	}
	for _, tt := range tests {
		t.Run(tt.field+"-"+tt.dir, func(t *testing.T) {
			sorted := append([]TableRow(nil), rows...)
			SortRows(sorted, tt.field, tt.dir)
			for i, r := range sorted {
				if r.Record.SubscriptionName != tt.want[i] {
					t.Errorf("position %d = %s, want %s", i, r.Record.SubscriptionName, tt.want[i])
				}
			}
		})
	}
}
