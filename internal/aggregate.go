package internal

import (
	"sort"
	"strconv"
)

// DefaultTopN is how many entries the most-expensive list keeps.
const DefaultTopN = 4

type VendorMonthRow struct {
	Key           string  `json:"key"`
	VendorProfile string  `json:"vendorProfile"`
	Month         string  `json:"month"`
	Amount        float64 `json:"amount"`
}

type TopExpensiveRow struct {
	Key    string  `json:"key"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"` // the contract amount that is part of the key
	Total  float64 `json:"total"`
}

type CategoryRow struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Count    int     `json:"count"`
}

type VendorCountRow struct {
	Vendor string `json:"vendor"`
	Count  int    `json:"count"`
}

// AggregateVendorMonths sums amounts per vendor profile and calendar month
// (UTC month of StartDate). Records without a vendor profile, amount or
// start date are skipped.
func AggregateVendorMonths(records []SubscriptionRecord) []VendorMonthRow {
	index := make(map[string]int)
	var rows []VendorMonthRow
	for _, rec := range records {
		if rec.VendorProfile == "" || !rec.HasAmount || !rec.hasValidStart() {
			continue
		}
		month := MonthName(int(rec.StartDate.UTC().Month()) - 1)
		key := rec.VendorProfile + "-" + month
		i, ok := index[key]
		if !ok {
			i = len(rows)
			index[key] = i
			rows = append(rows, VendorMonthRow{Key: key, VendorProfile: rec.VendorProfile, Month: month})
		}
		rows[i].Amount += rec.ContractAmount.Value
	}
	return rows
}

// TopExpensive returns the n largest name+amount buckets, expired records
// excluded. The same name at two different amounts yields two buckets.
func TopExpensive(records []SubscriptionRecord, n int) []TopExpensiveRow {
	index := make(map[string]int)
	var rows []TopExpensiveRow
	for _, rec := range records {
		if rec.StatusIs(StatusExpired) {
			continue
		}
		amount := rec.ContractAmount.Value
		key := rec.SubscriptionName + "_" + strconv.FormatFloat(amount, 'f', -1, 64)
		i, ok := index[key]
		if !ok {
			i = len(rows)
			index[key] = i
			rows = append(rows, TopExpensiveRow{Key: key, Name: rec.SubscriptionName, Amount: amount})
		}
		rows[i].Total += amount
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Total > rows[j].Total
	})
	if n >= 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

// SummarizeCategories accumulates amount and count per category for records
// starting within year, then keeps the categories whose total falls inside rng.
func SummarizeCategories(groups []VendorGroup, year int, rng AmountRange) []CategoryRow {
	window := YearWindow(year)

	index := make(map[string]int)
	var rows []CategoryRow
	for _, rec := range Flatten(groups) {
		if rec.Category == nil || !window.Contains(rec.StartDate) {
			continue
		}
		name := rec.Category.Name
		i, ok := index[name]
		if !ok {
			i = len(rows)
			index[name] = i
			rows = append(rows, CategoryRow{Category: name})
		}
		rows[i].Amount += rec.ContractAmount.Value
		rows[i].Count++
	}

	filtered := rows[:0]
	for _, row := range rows {
		if rng.Contains(row.Amount) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

// CountActiveByVendor counts the records with status 0 in each vendor group.
func CountActiveByVendor(groups []VendorGroup) []VendorCountRow {
	rows := make([]VendorCountRow, 0, len(groups))
	for _, g := range groups {
		count := 0
		for _, rec := range g.Records {
			if rec.StatusIs(StatusActive) {
				count++
			}
		}
		rows = append(rows, VendorCountRow{Vendor: g.Vendor, Count: count})
	}
	return rows
}
