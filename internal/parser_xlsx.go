package internal

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// activityColumns maps export header titles (lowercased) to activity line keys.
var activityColumns = map[string]string{
	"activity id":       "activityId",
	"subscription":      "subscriptionName",
	"subscription name": "subscriptionName",
	"vendor":            "vendorName",
	"vendor name":       "vendorName",
	"vendor profile":    "vendorProfile",
	"start date":        "startDate",
	"end date":          "endDate",
	"next due date":     "nextDueDate",
	"frequency":         "frequency",
	"contract amount":   "contractAmount",
	"amount":            "contractAmount",
	"category":          "category",
	"department":        "department",
	"budget":            "budget",
	"status":            "status",
}

var dateColumns = map[string]bool{"startDate": true, "endDate": true, "nextDueDate": true}

// LoadActivityXLSX reads activity lines from the first sheet of an xlsx
// export and returns them as a {"lines": [...]} payload. The header row is
// the first row containing both a subscription and a vendor column.
func LoadActivityXLSX(path string) ([]byte, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in file")
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet: %w", err)
	}

	// Find header row and column indices
	columns := map[int]string{}
	dataStartRow := -1
	for i, row := range rows {
		found := map[int]string{}
		for j, cell := range row {
			if key, ok := activityColumns[strings.ToLower(strings.TrimSpace(cell))]; ok {
				found[j] = key
			}
		}
		if hasKey(found, "subscriptionName") && hasKey(found, "vendorName") {
			columns = found
			dataStartRow = i + 1
			break
		}
	}
	if dataStartRow < 0 {
		return nil, fmt.Errorf("could not find required columns (Subscription, Vendor)")
	}

	lines := []map[string]any{}
	for i := dataStartRow; i < len(rows); i++ {
		line := map[string]any{}
		var department, budget string
		for j, key := range columns {
			if j >= len(rows[i]) {
				continue
			}
			cell := strings.TrimSpace(rows[i][j])
			if cell == "" {
				continue
			}
			switch {
			case key == "department":
				department = cell
			case key == "budget":
				budget = cell
			case key == "contractAmount":
				line[key] = map[string]any{"value": cell}
			case dateColumns[key]:
				line[key] = xlsxDate(cell)
			default:
				line[key] = cell
			}
		}

		// Skip empty rows
		if len(line) == 0 && department == "" {
			continue
		}
		if department != "" {
			dep := map[string]any{"name": department}
			if budget != "" {
				dep["budget"] = budget
			}
			line["department"] = dep
		}
		lines = append(lines, line)
	}

	data, err := json.Marshal(map[string]any{"lines": lines})
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}
	return data, nil
}

// xlsxDate converts Excel serial dates to RFC3339 and passes text through.
func xlsxDate(cell string) string {
	serial, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return cell
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return cell
	}
	return t.UTC().Format(time.RFC3339)
}

func hasKey(m map[int]string, key string) bool {
	for _, v := range m {
		if v == key {
			return true
		}
	}
	return false
}
