package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// OutputOptions controls how a run is displayed
type OutputOptions struct {
	TagFilter []string
	SortField string // name, vendor, amount, start, end
	SortDir   string // asc, desc
	Currency  Currency
	Config    *Config
}

// Tabulation is one published kind laid out as rows. Money cells are float64,
// counts are int; renderers decide how to format them.
type Tabulation struct {
	Title  string
	Header []any
	Rows   [][]any
}

// Tabulate lays out the value published for kind. The table kind is
// rendered in full; filtering by tab is up to the caller.
func Tabulate(kind SinkKind, value any) (Tabulation, error) {
	switch v := value.(type) {
	case []TableRow:
		t := Tabulation{
			Title:  "Subscriptions",
			Header: []any{"Name", "Vendor", "Status", "Frequency", "Start", "End", "Next Due", "Category", "Department", "Amount"},
		}
		for _, row := range v {
			r := row.Record
			t.Rows = append(t.Rows, []any{
				r.SubscriptionName, r.VendorName, strings.ToUpper(row.Tag), r.Frequency,
				formatDate(r.StartDate), formatDate(r.EndDate), formatDate(r.NextDueDate),
				r.CategoryName(), r.DepartmentName(), r.ContractAmount.Value,
			})
		}
		return t, nil
	case string:
		return Tabulation{Title: "Active Tab", Header: []any{"Tab"}, Rows: [][]any{{v}}}, nil
	case Summary:
		return Tabulation{
			Title:  "Summary",
			Header: []any{"Active Contracts", "Upcoming Renewals", "Active Subscriptions"},
			Rows:   [][]any{{v.TotalContractAmount, v.TotalContractAmountFuture, v.ActiveCount}},
		}, nil
	case ChartSeries:
		t := Tabulation{Title: "Monthly Spend", Header: []any{"Month", "Amount"}}
		if kind == KindDepartmentChart {
			t = Tabulation{Title: "Department Spend", Header: []any{"Department", "Amount"}}
		}
		for i, label := range v.Labels {
			t.Rows = append(t.Rows, []any{label, v.Data[i]})
		}
		return t, nil
	case []VendorMonthRow:
		t := Tabulation{Title: "Vendor Spend by Month", Header: []any{"Vendor Profile", "Month", "Amount"}}
		for _, row := range v {
			t.Rows = append(t.Rows, []any{row.VendorProfile, row.Month, row.Amount})
		}
		return t, nil
	case []TopExpensiveRow:
		t := Tabulation{Title: "Most Expensive", Header: []any{"Name", "Contract Amount", "Total"}}
		for _, row := range v {
			t.Rows = append(t.Rows, []any{row.Name, row.Amount, row.Total})
		}
		return t, nil
	case []CategoryRow:
		t := Tabulation{Title: "Categories", Header: []any{"Category", "Subscriptions", "Amount"}}
		for _, row := range v {
			t.Rows = append(t.Rows, []any{row.Category, row.Count, row.Amount})
		}
		return t, nil
	case []VendorCountRow:
		t := Tabulation{Title: "Active Subscriptions per Vendor", Header: []any{"Vendor", "Active"}}
		for _, row := range v {
			t.Rows = append(t.Rows, []any{row.Vendor, row.Count})
		}
		return t, nil
	default:
		return Tabulation{}, fmt.Errorf("unexpected value %T for %s", value, kind)
	}
}

// TableSink renders a run as text tables. It buffers until Flush because
// the subscriptions table depends on the active tab.
type TableSink struct {
	w      io.Writer
	opts   OutputOptions
	values map[SinkKind]any
}

func NewTableSink(w io.Writer, opts OutputOptions) *TableSink {
	return &TableSink{w: w, opts: opts, values: make(map[SinkKind]any)}
}

func (s *TableSink) Publish(kind SinkKind, value any) error {
	if _, err := Tabulate(kind, value); err != nil {
		return err
	}
	s.values[kind] = value
	return nil
}

func (s *TableSink) Flush() error {
	rows, _ := s.values[KindTable].([]TableRow)
	tab, _ := s.values[KindActiveTab].(string)
	if tab == "" {
		tab = TagAll
	}

	active := 0
	for _, row := range rows {
		if row.Tag == TagActive {
			active++
		}
	}
	fmt.Fprintf(s.w, "Found %d subscriptions (%d active, %d expired)\n", len(rows), active, len(rows)-active)
	showing := tab
	if len(s.opts.TagFilter) > 0 {
		showing += fmt.Sprintf(", tags: %s", strings.Join(s.opts.TagFilter, ", "))
	}
	fmt.Fprintf(s.w, "Showing: %s\n\n", showing)

	display := FilterByTags(FilterByTab(rows, tab), s.opts.TagFilter, s.opts.Config)
	SortRows(display, s.opts.SortField, s.opts.SortDir)
	s.renderSubscriptions(display)

	for _, kind := range AllKinds {
		if kind == KindTable || kind == KindActiveTab {
			continue
		}
		value, ok := s.values[kind]
		if !ok {
			continue
		}
		t, err := Tabulate(kind, value)
		if err != nil {
			return err
		}
		if kind == KindCategories {
			t.Title += " (" + s.opts.Currency.FormatAmountRange(s.opts.Config.AmountRangeValue()) + ")"
		}
		s.render(t)
	}
	return nil
}

func (s *TableSink) renderSubscriptions(rows []TableRow) {
	hasTags := false
	for _, row := range rows {
		if len(s.opts.Config.GetTags(row.Record.SubscriptionName)) > 0 {
			hasTags = true
			break
		}
	}

	t := s.newWriter()
	header := table.Row{"Name", "Vendor"}
	if hasTags {
		header = append(header, "Tags")
	}
	header = append(header, "Status", "Frequency", "Start", "End", "Next Due", "Amount")
	t.AppendHeader(header)

	var total float64
	for _, row := range rows {
		r := row.Record
		status := text.FgGreen.Sprint("ACTIVE")
		if row.Tag == TagExpired {
			status = text.FgRed.Sprint("EXPIRED")
		} else {
			total += r.ContractAmount.Value
		}

		line := table.Row{r.SubscriptionName, r.VendorName}
		if hasTags {
			line = append(line, strings.Join(s.opts.Config.GetTags(r.SubscriptionName), ", "))
		}
		amount := s.opts.Currency.FormatCents(r.ContractAmount.Value)
		if !r.HasAmount {
			amount = text.FgHiBlack.Sprint("-")
		}
		line = append(line, status, r.Frequency, formatDate(r.StartDate), formatDate(r.EndDate), formatDate(r.NextDueDate), amount)
		t.AppendRow(line)
	}

	t.AppendSeparator()
	footer := table.Row{}
	for range len(header) - 2 {
		footer = append(footer, "")
	}
	footer = append(footer, text.Bold.Sprint("Total (active)"), text.Bold.Sprint(s.opts.Currency.FormatCents(total)))
	t.AppendFooter(footer)
	t.SetColumnConfigs([]table.ColumnConfig{{Number: len(header), Align: text.AlignRight}})
	t.Render()
	fmt.Fprintln(s.w)
}

func (s *TableSink) render(tab Tabulation) {
	fmt.Fprintln(s.w, text.Bold.Sprint(tab.Title))
	t := s.newWriter()
	t.AppendHeader(table.Row(tab.Header))

	var configs []table.ColumnConfig
	for _, row := range tab.Rows {
		line := make(table.Row, len(row))
		for i, cell := range row {
			switch c := cell.(type) {
			case float64:
				line[i] = s.opts.Currency.FormatCents(c)
			default:
				line[i] = c
			}
		}
		t.AppendRow(line)
	}
	if len(tab.Rows) > 0 {
		for i, cell := range tab.Rows[0] {
			switch cell.(type) {
			case float64, int:
				configs = append(configs, table.ColumnConfig{Number: i + 1, Align: text.AlignRight})
			}
		}
	}
	t.SetColumnConfigs(configs)
	t.Render()
	fmt.Fprintln(s.w)
}

func (s *TableSink) newWriter() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(s.w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	return t
}

// JSONOutput is the root JSON output object
type JSONOutput struct {
	Currency        string            `json:"currency"`
	ActiveTab       string            `json:"activeTab"`
	Summary         Summary           `json:"summary"`
	Table           []JSONRecord      `json:"table"`
	MonthlyChart    ChartSeries       `json:"monthlyChart"`
	DepartmentChart ChartSeries       `json:"departmentChart"`
	VendorMonths    []VendorMonthRow  `json:"vendorMonths"`
	TopExpensive    []TopExpensiveRow `json:"topExpensive"`
	Categories      []CategoryRow     `json:"categories"`
	VendorCounts    []VendorCountRow  `json:"vendorCounts"`
}

// JSONRecord is the JSON output format for a table row
type JSONRecord struct {
	ActivityID       string   `json:"activityId,omitempty"`
	SubscriptionName string   `json:"subscriptionName"`
	VendorName       string   `json:"vendorName"`
	VendorProfile    string   `json:"vendorProfile,omitempty"`
	StartDate        string   `json:"startDate,omitempty"`
	EndDate          string   `json:"endDate,omitempty"`
	NextDueDate      string   `json:"nextDueDate,omitempty"`
	Frequency        string   `json:"frequency,omitempty"`
	ContractAmount   float64  `json:"contractAmount"`
	Category         string   `json:"category,omitempty"`
	Department       string   `json:"department,omitempty"`
	Status           *int     `json:"status,omitempty"`
	Tag              string   `json:"tag"`
	Tags             []string `json:"tags,omitempty"`
}

// JSONSink collects a run and writes it as one indented JSON document on Flush.
type JSONSink struct {
	w      io.Writer
	cfg    *Config
	output JSONOutput
}

func NewJSONSink(w io.Writer, currency Currency, cfg *Config) *JSONSink {
	return &JSONSink{w: w, cfg: cfg, output: JSONOutput{Currency: currency.Code}}
}

func (s *JSONSink) Publish(kind SinkKind, value any) error {
	var ok bool
	switch kind {
	case KindTable:
		var rows []TableRow
		if rows, ok = value.([]TableRow); ok {
			s.output.Table = make([]JSONRecord, 0, len(rows))
			for _, row := range rows {
				s.output.Table = append(s.output.Table, s.record(row))
			}
		}
	case KindActiveTab:
		s.output.ActiveTab, ok = value.(string)
	case KindSummary:
		s.output.Summary, ok = value.(Summary)
	case KindMonthlyChart:
		s.output.MonthlyChart, ok = value.(ChartSeries)
	case KindDepartmentChart:
		s.output.DepartmentChart, ok = value.(ChartSeries)
	case KindVendorMonths:
		s.output.VendorMonths, ok = value.([]VendorMonthRow)
	case KindTopExpensive:
		s.output.TopExpensive, ok = value.([]TopExpensiveRow)
	case KindCategories:
		s.output.Categories, ok = value.([]CategoryRow)
	case KindVendorCounts:
		s.output.VendorCounts, ok = value.([]VendorCountRow)
	}
	if !ok {
		return fmt.Errorf("unexpected value %T for %s", value, kind)
	}
	return nil
}

func (s *JSONSink) record(row TableRow) JSONRecord {
	r := row.Record
	return JSONRecord{
		ActivityID:       r.ActivityID,
		SubscriptionName: r.SubscriptionName,
		VendorName:       r.VendorName,
		VendorProfile:    r.VendorProfile,
		StartDate:        formatDate(r.StartDate),
		EndDate:          formatDate(r.EndDate),
		NextDueDate:      formatDate(r.NextDueDate),
		Frequency:        r.Frequency,
		ContractAmount:   r.ContractAmount.Value,
		Category:         r.CategoryName(),
		Department:       r.DepartmentName(),
		Status:           r.Status,
		Tag:              row.Tag,
		Tags:             s.cfg.GetTags(r.SubscriptionName),
	}
}

func (s *JSONSink) Flush() error {
	enc := json.NewEncoder(s.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.output); err != nil {
		return fmt.Errorf("encoding json output: %w", err)
	}
	return nil
}

// FilterByTab keeps the rows belonging to tab; "all" keeps everything.
func FilterByTab(rows []TableRow, tab string) []TableRow {
	if tab == TagAll || tab == "" {
		return append([]TableRow(nil), rows...)
	}
	var result []TableRow
	for _, row := range rows {
		if row.Tag == tab {
			result = append(result, row)
		}
	}
	return result
}

// FilterByTags filters rows to only those with matching tags
func FilterByTags(rows []TableRow, tags []string, cfg *Config) []TableRow {
	if cfg == nil || len(tags) == 0 {
		return rows
	}
	var result []TableRow
	for _, row := range rows {
		if hasAnyTag(cfg.GetTags(row.Record.SubscriptionName), tags) {
			result = append(result, row)
		}
	}
	return result
}

func hasAnyTag(subTags []string, filterTags []string) bool {
	for _, ft := range filterTags {
		for _, st := range subTags {
			if strings.EqualFold(st, ft) {
				return true
			}
		}
	}
	return false
}

// SortRows sorts rows in place. Unknown fields sort by name.
func SortRows(rows []TableRow, field, dir string) {
	less := func(a, b SubscriptionRecord) bool {
		switch field {
		case "vendor":
			return strings.ToLower(a.VendorName) < strings.ToLower(b.VendorName)
		case "amount":
			return a.ContractAmount.Value < b.ContractAmount.Value
		case "start":
			return a.StartDate.Before(b.StartDate)
		case "end":
			return a.EndDate.Before(b.EndDate)
		default: // "name"
			return strings.ToLower(a.SubscriptionName) < strings.ToLower(b.SubscriptionName)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if dir == "desc" {
			return less(rows[j].Record, rows[i].Record)
		}
		return less(rows[i].Record, rows[j].Record)
	})
}

func formatDate(t time.Time) string {
	if t.Year() == 1 {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
