// Package export renders generated analytics reports for download.
package export

import (
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/finsight/analytics-engine/domain"
)

const sheetName = "Report"

// WriteXLSX renders an analytics response as a single-sheet workbook and
// returns the file bytes.
func WriteXLSX(response *domain.AnalyticsResponse) ([]byte, error) {
	if response == nil {
		return nil, fmt.Errorf("response cannot be nil")
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	row := 1
	row = writeHeader(f, headerStyle, row, "Analytics Report")
	row = writeKV(f, row, "Report ID", response.ReportID)
	row = writeKV(f, row, "Status", response.Status)
	row = writeKV(f, row, "Generated At", response.GeneratedAt.Format("2006-01-02 15:04:05"))
	row++

	if summary, ok := response.Data["summary"].(map[string]any); ok {
		row = writeHeader(f, headerStyle, row, "Summary")
		keys := make([]string, 0, len(summary))
		for k := range summary {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			row = writeKV(f, row, k, renderValue(summary[k]))
		}
		row++
	}

	row = writeList(f, headerStyle, row, "Insights", response.Data["insights"])
	writeList(f, headerStyle, row, "Recommendations", response.Data["recommendations"])

	for _, col := range []string{"A", "B"} {
		_ = f.SetColWidth(sheetName, col, col, 30)
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func writeHeader(f *excelize.File, style, row int, title string) int {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	_ = f.SetCellValue(sheetName, cell, title)
	_ = f.SetCellStyle(sheetName, cell, cell, style)
	return row + 1
}

func writeKV(f *excelize.File, row int, key, value string) int {
	keyCell, _ := excelize.CoordinatesToCellName(1, row)
	valueCell, _ := excelize.CoordinatesToCellName(2, row)
	_ = f.SetCellValue(sheetName, keyCell, key)
	_ = f.SetCellValue(sheetName, valueCell, value)
	return row + 1
}

func writeList(f *excelize.File, style, row int, title string, value any) int {
	items := stringList(value)
	if len(items) == 0 {
		return row
	}
	row = writeHeader(f, style, row, title)
	for _, item := range items {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(sheetName, cell, item)
		row++
	}
	return row + 1
}

// stringList accepts both typed slices and JSON-decoded []any values, since
// cached responses round-trip through JSON.
func stringList(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			items = append(items, renderValue(item))
		}
		return items
	}
	return nil
}

func renderValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	case float64:
		return fmt.Sprintf("%g", v)
	case int:
		return fmt.Sprintf("%d", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
