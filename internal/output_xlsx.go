package internal

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// sheetNames maps each kind to its worksheet. Excel caps names at 31 characters.
var sheetNames = map[SinkKind]string{
	KindTable:           "Subscriptions",
	KindActiveTab:       "Active Tab",
	KindSummary:         "Summary",
	KindMonthlyChart:    "Monthly",
	KindDepartmentChart: "Departments",
	KindVendorMonths:    "Vendor Months",
	KindTopExpensive:    "Top Expensive",
	KindCategories:      "Categories",
	KindVendorCounts:    "Vendor Counts",
}

// XLSXSink writes one worksheet per kind to path on Flush.
type XLSXSink struct {
	path   string
	tables map[SinkKind]Tabulation
}

func NewXLSXSink(path string) *XLSXSink {
	return &XLSXSink{path: path, tables: make(map[SinkKind]Tabulation)}
}

func (s *XLSXSink) Publish(kind SinkKind, value any) error {
	t, err := Tabulate(kind, value)
	if err != nil {
		return err
	}
	s.tables[kind] = t
	return nil
}

func (s *XLSXSink) Flush() error {
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for _, kind := range AllKinds {
		t, ok := s.tables[kind]
		if !ok {
			continue
		}
		sheet := sheetNames[kind]
		if first {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("renaming sheet: %w", err)
			}
			first = false
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("creating sheet %s: %w", sheet, err)
		}

		if err := writeSheetRow(f, sheet, 1, t.Header); err != nil {
			return err
		}
		for i, row := range t.Rows {
			if err := writeSheetRow(f, sheet, i+2, row); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("saving %s: %w", s.path, err)
	}
	return nil
}

func writeSheetRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, row, err)
	}
	return nil
}
