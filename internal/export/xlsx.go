// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/fibo-annotator/pkg/types"
)

// sheetSpec names one worksheet of the XLSX export.
type sheetSpec struct {
	name   string
	header []string
	rows   [][]string
}

var (
	dataHeader = []string{"name", "value", "ontology_class", "description", "context"}
	itemHeader = []string{"name", "category_class", "description", "context"}
)

// XLSX writes result as a workbook with an "All" sheet holding the CSV
// rows and one sheet per category.
func XLSX(w io.Writer, result *types.AnnotationResult) error {
	result = normalized(result)

	sheets := []sheetSpec{
		{name: "All", header: Header, rows: Rows(result)},
		{name: "Financial Data", header: dataHeader, rows: dataRows(result.FinancialData)},
		{name: "Concepts", header: itemHeader, rows: itemRows(result.Concepts)},
		{name: "Entities", header: itemHeader, rows: itemRows(result.Entities)},
		{name: "Relationships", header: itemHeader, rows: itemRows(result.Relationships)},
	}

	f := excelize.NewFile()
	defer f.Close()

	for _, s := range sheets {
		if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", s.name, err)
		}
		if err := writeSheet(f, s); err != nil {
			return err
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}
	if idx, err := f.GetSheetIndex("All"); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, s sheetSpec) error {
	for r, row := range append([][]string{s.header}, s.rows...) {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for i, v := range row {
			values[i] = v
		}
		if err := f.SetSheetRow(s.name, cell, &values); err != nil {
			return fmt.Errorf("writing %s row %d: %w", s.name, r+1, err)
		}
	}
	// Widen the context column
	last, _ := excelize.ColumnNumberToName(len(s.header))
	_ = f.SetColWidth(s.name, last, last, 80)
	return nil
}

func dataRows(items []types.FinancialDataPoint) [][]string {
	rows := make([][]string, len(items))
	for i, dp := range items {
		rows[i] = []string{dp.Name, dp.Value, dp.OntologyClass, dp.Description, dp.Context}
	}
	return rows
}

func itemRows(items []types.OntologyItem) [][]string {
	rows := make([][]string, len(items))
	for i, item := range items {
		rows[i] = []string{item.Name, item.CategoryClass, item.Description, item.Context}
	}
	return rows
}
