package internal

import (
	"reflect"
	"testing"
	"time"
)

func TestMergeMonthly_CrossYear(t *testing.T) {
	buckets := MergeMonthly([]SubscriptionRecord{
		rec("1", "A", "V", "2025-01-15", 50),
		rec("2", "B", "V", "2026-01-20", 70),
		rec("3", "C", "V", "2026-03-01", 5),
	})

	want := []MonthBucket{{Month: 0, Amount: 120}, {Month: 2, Amount: 5}}
	if !reflect.DeepEqual(buckets, want) {
		t.Errorf("MergeMonthly() = %+v, want %+v", buckets, want)
	}
}

func TestMergeDepartments(t *testing.T) {
	withDept := func(r SubscriptionRecord, dept string) SubscriptionRecord {
		if dept != "" {
			r.Department = &Department{Name: dept}
		}
		return r
	}
	buckets := MergeDepartments([]SubscriptionRecord{
		withDept(rec("1", "A", "V", "2026-01-01", 10), "Eng"),
		withDept(rec("2", "B", "V", "2026-02-01", 20), "Sales"),
		withDept(rec("3", "C", "V", "2026-03-01", 30), ""),
		withDept(rec("4", "D", "V", "2026-04-01", 5), "Eng"),
	})

	want := []DepartmentBucket{{Department: "Eng", Amount: 15}, {Department: "Sales", Amount: 20}}
	if !reflect.DeepEqual(buckets, want) {
		t.Errorf("MergeDepartments() = %+v, want %+v", buckets, want)
	}

	series := DepartmentSeries(buckets)
	if !reflect.DeepEqual(series.Labels, []string{"Eng", "Sales"}) || !reflect.DeepEqual(series.Data, []float64{15, 20}) {
		t.Errorf("DepartmentSeries() = %+v", series)
	}
}

func TestMonthlySeries(t *testing.T) {
	buckets := []MonthBucket{{Month: 0, Amount: 120}, {Month: 11, Amount: 7}, {Month: 2, Amount: 5}}

	tests := []struct {
		name       string
		start, end int
		wantLabels []string
		wantData   []float64
	}{
		{"first quarter", 0, 2, []string{"Jan", "Feb", "Mar"}, []float64{120, 0, 5}},
		{"wraps past December", 10, 1, []string{"Nov", "Dec", "Jan", "Feb"}, []float64{0, 7, 120, 0}},
		{"single month", 11, 11, []string{"Dec"}, []float64{7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthlySeries(buckets, tt.start, tt.end)
			if !reflect.DeepEqual(got.Labels, tt.wantLabels) {
				t.Errorf("Labels = %v, want %v", got.Labels, tt.wantLabels)
			}
			if !reflect.DeepEqual(got.Data, tt.wantData) {
				t.Errorf("Data = %v, want %v", got.Data, tt.wantData)
			}
		})
	}

	full := MonthlySeries(nil, 0, 11)
	if len(full.Labels) != 12 || full.Labels[11] != "Dec" {
		t.Errorf("full year labels = %v", full.Labels)
	}
}

func TestCalendarWindow(t *testing.T) {
	today := date("2026-10-19")
	tests := []struct {
		name       string
		startMonth int
		inside     []string
		outside    []string
	}{
		{"calendar year", 1, []string{"2026-01-01", "2026-12-31"}, []string{"2025-12-31", "2027-01-01"}},
		{"fiscal year from April", 4, []string{"2026-04-01", "2027-03-31"}, []string{"2026-03-31", "2027-04-01"}},
		{"invalid month falls back to January", 13, []string{"2026-01-01"}, []string{"2027-01-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := CalendarWindow(today, tt.startMonth)
			for _, d := range tt.inside {
				if !w.Contains(date(d)) {
					t.Errorf("window should contain %s", d)
				}
			}
			for _, d := range tt.outside {
				if w.Contains(date(d)) {
					t.Errorf("window should not contain %s", d)
				}
			}
		})
	}
}

func TestBuildTableView(t *testing.T) {
	today := date("2026-06-15")
	ended := func(r SubscriptionRecord, end string) SubscriptionRecord {
		if end != "" {
			r.EndDate = date(end)
		}
		return r
	}

	rows := BuildTableView([]SubscriptionRecord{
		ended(rec("1", "Figma", "Figma Inc", "2025-01-01", 10), "2025-12-31"),
		ended(rec("2", "Slack", "Salesforce", "2026-01-01", 20), "2026-06-15"),
		ended(rec("3", "Zoom", "Zoom", "2026-01-01", 30), ""),
		ended(rec("4", "Figma", "Figma Inc", "2026-01-01", 12), "2026-12-31"),
		ended(rec("5", "Notion", "Notion", "2026-01-01", 8), "2026-06-14"),
	}, today)

	want := []struct {
		name   string
		tag    string
		amount float64
	}{
		{"Figma", TagActive, 12},
		{"Slack", TagActive, 20},
		{"Zoom", TagActive, 30},
		{"Notion", TagExpired, 8},
	}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for i, w := range want {
		got := rows[i]
		if got.Record.SubscriptionName != w.name || got.Tag != w.tag || got.Record.ContractAmount.Value != w.amount {
			t.Errorf("row %d = %s/%s/%v, want %s/%s/%v", i, got.Record.SubscriptionName, got.Tag, got.Record.ContractAmount.Value, w.name, w.tag, w.amount)
		}
	}
}

func TestSummarize(t *testing.T) {
	today := date("2026-06-15")
	active := func(name, start, end string, amount float64) SubscriptionRecord {
		r := rec("", name, "V", start, amount)
		r.EndDate = date(end)
		return r
	}
	records := []SubscriptionRecord{
		active("Figma", "2026-01-01", "2026-12-31", 100),
		active("Figma", "2026-07-01", "2027-06-30", 50),
		active("Slack", "2025-01-01", "2025-12-31", 30),
		active("Zoom", "2026-09-01", "2027-08-31", 20),
	}

	got := Summarize(records, today, DefaultRenewalWindow(today))
	want := Summary{
		TotalContractAmount:       170,
		TotalContractAmountFuture: 70,
		ActiveCount:               2,
	}
	if got != want {
		t.Errorf("Summarize() = %+v, want %+v", got, want)
	}

	narrow := DateRange{Start: date("2026-09-01"), End: date("2026-09-30")}
	if got := Summarize(records, today, narrow); got.TotalContractAmountFuture != 20 {
		t.Errorf("TotalContractAmountFuture = %v, want 20", got.TotalContractAmountFuture)
	}
}

func TestDefaultRenewalWindow(t *testing.T) {
	w := DefaultRenewalWindow(time.Date(2026, 10, 19, 15, 30, 0, 0, time.UTC))
	if !w.Start.Equal(date("2026-10-19")) {
		t.Errorf("Start = %v, want 2026-10-19", w.Start)
	}
	if !w.Contains(date("2026-12-31").Add(23*time.Hour)) || w.Contains(date("2027-01-01")) {
		t.Errorf("End = %v, want end of 2026-12-31", w.End)
	}
}

func TestActiveTab(t *testing.T) {
	tests := []struct {
		name   string
		status *int
		want   string
	}{
		{"active", intPtr(0), TagActive},
		{"expired", intPtr(1), TagExpired},
		{"other", intPtr(7), TagAll},
		{"absent", nil, TagAll},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ActiveTab(tt.status); got != tt.want {
				t.Errorf("ActiveTab() = %q, want %q", got, tt.want)
			}
		})
	}
}
