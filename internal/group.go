package internal

import (
	"time"
)

// GroupByVendor groups records by vendor name. Groups keep the order in which
// their vendor was first seen, and records keep their input order.
func GroupByVendor(records []SubscriptionRecord) []VendorGroup {
	index := make(map[string]int)
	var groups []VendorGroup
	for _, rec := range records {
		i, ok := index[rec.VendorName]
		if !ok {
			i = len(groups)
			index[rec.VendorName] = i
			groups = append(groups, VendorGroup{Vendor: rec.VendorName})
		}
		groups[i].Records = append(groups[i].Records, rec)
	}
	return groups
}

// Dedup collapses records inside each group that share a dedup key. The last
// record seen for a key wins but takes the position of the first one, so the
// outcome depends on input order.
func Dedup(groups []VendorGroup) []VendorGroup {
	result := make([]VendorGroup, 0, len(groups))
	for _, g := range groups {
		index := make(map[string]int)
		records := make([]SubscriptionRecord, 0, len(g.Records))
		for _, rec := range g.Records {
			key := dedupKey(rec)
			if i, ok := index[key]; ok {
				records[i] = rec
				continue
			}
			index[key] = len(records)
			records = append(records, rec)
		}
		result = append(result, VendorGroup{Vendor: g.Vendor, Records: records})
	}
	return result
}

// dedupKey identifies one activity line at one point in time.
func dedupKey(rec SubscriptionRecord) string {
	id := rec.ActivityID
	if id == "" {
		id = "name:" + rec.SubscriptionName
	}
	return id + "@" + rec.StartDate.UTC().Format(time.RFC3339Nano)
}

// Flatten concatenates the records of all groups in group order.
func Flatten(groups []VendorGroup) []SubscriptionRecord {
	var n int
	for _, g := range groups {
		n += len(g.Records)
	}
	records := make([]SubscriptionRecord, 0, n)
	for _, g := range groups {
		records = append(records, g.Records...)
	}
	return records
}
