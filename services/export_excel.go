package services

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"pcbquote/pricing"
)

// GenerateQuoteExcel creates an Excel quote sheet from the given ExportData and
// returns the file contents as a byte slice.
func GenerateQuoteExcel(data ExportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// Sheet names are limited to 31 chars.
	sheetName := data.QuoteNumber
	if len(sheetName) > 31 {
		sheetName = sheetName[:31]
	}
	if sheetName == "" {
		sheetName = "Quote"
	}

	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	if err := f.SetColWidth(sheetName, "A", "A", 32); err != nil {
		return nil, fmt.Errorf("set col width A: %w", err)
	}
	if err := f.SetColWidth(sheetName, "B", "B", 36); err != nil {
		return nil, fmt.Errorf("set col width B: %w", err)
	}

	// ── Styles ──────────────────────────────────────────────────────────

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16},
	})
	if err != nil {
		return nil, fmt.Errorf("create title style: %w", err)
	}

	subtitleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 11},
	})
	if err != nil {
		return nil, fmt.Errorf("create subtitle style: %w", err)
	}

	// Section header: bold, white text, charcoal background.
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	cellStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Size: 10},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create cell style: %w", err)
	}

	// Discount lines are shown in red.
	discountStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Size: 10, Color: "#B91C1C"},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create discount style: %w", err)
	}

	summaryLabelStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return nil, fmt.Errorf("create summary label style: %w", err)
	}

	summaryValueStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
	})
	if err != nil {
		return nil, fmt.Errorf("create summary value style: %w", err)
	}

	// ── Header Rows (1-3) ───────────────────────────────────────────────

	if err := f.MergeCell(sheetName, "A1", "B1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheetName, "A1", sanitizeExcelCell(data.Title))
	f.SetCellStyle(sheetName, "A1", "B1", titleStyle)

	if data.CustomerName != "" {
		f.SetCellValue(sheetName, "A2", "Customer: "+sanitizeExcelCell(data.CustomerName))
		f.SetCellStyle(sheetName, "A2", "A2", subtitleStyle)
	}
	f.SetCellValue(sheetName, "A3", "Date: "+data.CreatedDate)
	f.SetCellValue(sheetName, "B3", "Payment: "+data.PaymentMethod)
	f.SetCellStyle(sheetName, "A3", "B3", subtitleStyle)

	// ── Specification ───────────────────────────────────────────────────

	row := 5
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Specification")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), "Value")
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), headerStyle)
	row++

	for _, s := range data.Specs {
		rowStr := fmt.Sprintf("%d", row)
		f.SetCellValue(sheetName, "A"+rowStr, s.Label)
		f.SetCellValue(sheetName, "B"+rowStr, sanitizeExcelCell(s.Value))
		f.SetCellStyle(sheetName, "A"+rowStr, "B"+rowStr, cellStyle)
		row++
	}

	// ── Price breakdown ─────────────────────────────────────────────────

	row++
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Item")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), "Amount")
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), headerStyle)
	row++

	for _, item := range data.Items {
		rowStr := fmt.Sprintf("%d", row)
		f.SetCellValue(sheetName, "A"+rowStr, item.Label)
		f.SetCellValue(sheetName, "B"+rowStr, FormatMoney(data.CurrencySymbol, item.Amount))
		style := cellStyle
		if item.Amount < 0 {
			style = discountStyle
		}
		f.SetCellStyle(sheetName, "A"+rowStr, "B"+rowStr, style)
		row++
	}

	// ── Summary Rows ────────────────────────────────────────────────────

	row++
	summary := []struct {
		label string
		value string
	}{
		{"Subtotal:", FormatMoney(data.CurrencySymbol, data.Subtotal)},
		{"Shipping weight:", FormatWeight(data.Weight)},
		{"Total:", FormatMoney(data.CurrencySymbol, data.Total)},
	}
	if data.TestFee > 0 {
		summary = append(summary[:2:2], struct {
			label string
			value string
		}{"E-test fee (not included):", FormatMoney(data.CurrencySymbol, data.TestFee)}, summary[2])
	}
	for _, s := range summary {
		rowStr := fmt.Sprintf("%d", row)
		f.SetCellValue(sheetName, "A"+rowStr, s.label)
		f.SetCellStyle(sheetName, "A"+rowStr, "A"+rowStr, summaryLabelStyle)
		f.SetCellValue(sheetName, "B"+rowStr, s.value)
		f.SetCellStyle(sheetName, "B"+rowStr, "B"+rowStr, summaryValueStyle)
		row++
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}

	return buf.Bytes(), nil
}

// ruleSheetHeaders are the columns of the rule sheet, shared by export and import.
var ruleSheetHeaders = []string{"ID", "Name", "Value", "Kind", "Category"}

// GenerateRulesExcel writes the rule table as an editable sheet that
// ParseRuleSheet reads back.
func GenerateRulesExcel(rules []pricing.Rule) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Price Rules"
	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, sheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorders(),
	})

	columns := []string{"A", "B", "C", "D", "E"}
	widths := []float64{24, 40, 12, 14, 14}
	for i, h := range ruleSheetHeaders {
		f.SetCellValue(sheet, columns[i]+"1", h)
		f.SetColWidth(sheet, columns[i], columns[i], widths[i])
	}
	f.SetCellStyle(sheet, "A1", "E1", headerStyle)

	for i, r := range rules {
		row := fmt.Sprintf("%d", i+2)
		f.SetCellValue(sheet, "A"+row, r.ID)
		f.SetCellValue(sheet, "B"+row, sanitizeExcelCell(r.Name))
		f.SetCellValue(sheet, "C"+row, r.Value)
		f.SetCellValue(sheet, "D"+row, string(r.Kind))
		f.SetCellValue(sheet, "E"+row, string(r.Category))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write rules sheet: %w", err)
	}
	return buf.Bytes(), nil
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote. Excel interprets cells starting with =, +, -,
// @, \t or \r as formulas, which can be abused for code execution or data theft.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// thinBorders returns a slice of excelize.Border for thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{
			Type:  side,
			Color: "#000000",
			Style: 1, // thin
		}
	}
	return borders
}
