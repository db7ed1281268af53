package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"

	"pcbquote/pricing"
)

// ValidationError represents a single field-level error on one row.
type ValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RuleSheetResult is returned after parsing and validating an uploaded rule sheet.
type RuleSheetResult struct {
	TotalRows int               `json:"total_rows"`
	ValidRows int               `json:"valid_rows"`
	ErrorRows int               `json:"error_rows"`
	Errors    []ValidationError `json:"errors"`
	Rules     []pricing.Rule    `json:"-"`
	FileName  string            `json:"-"`
}

// ParseRuleSheet reads a .csv or .xlsx rule sheet in the layout written by
// GenerateRulesExcel. Every row is validated; rows with errors are reported
// and left out of Rules. A repeated id is an error on the later row.
func ParseRuleSheet(file io.Reader, filename string) (*RuleSheetResult, error) {
	var headers []string
	var rows [][]string
	var err error

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		headers, rows, err = parseCSV(file)
	case ".xlsx":
		headers, rows, err = parseExcel(file)
	default:
		return nil, fmt.Errorf("unsupported file type %q: upload a .csv or .xlsx file", filepath.Ext(filename))
	}
	if err != nil {
		return nil, err
	}

	columns, err := mapRuleHeaders(headers)
	if err != nil {
		return nil, err
	}

	result := &RuleSheetResult{FileName: filename}
	seen := make(map[string]int)

	for i, cells := range rows {
		rowNum := i + 2 // header is row 1
		if blankRow(cells) {
			continue
		}
		result.TotalRows++

		get := func(key string) string {
			idx, ok := columns[key]
			if !ok || idx >= len(cells) {
				return ""
			}
			return strings.TrimSpace(cells[idx])
		}

		rule := pricing.Rule{
			ID:       get("id"),
			Name:     get("name"),
			Kind:     pricing.RuleKind(strings.ToLower(get("kind"))),
			Category: pricing.RuleCategory(strings.ToLower(get("category"))),
		}

		var rowErrs []ValidationError
		if raw := get("value"); raw != "" {
			v, convErr := cast.ToFloat64E(raw)
			if convErr != nil {
				rowErrs = append(rowErrs, ValidationError{Row: rowNum, Field: "value", Message: "must be a number"})
			}
			rule.Value = v
		}
		rowErrs = append(rowErrs, ruleErrors(rowNum, rule.Validate())...)

		if first, dup := seen[rule.ID]; dup && rule.ID != "" {
			rowErrs = append(rowErrs, ValidationError{
				Row: rowNum, Field: "id", Message: fmt.Sprintf("duplicate of row %d", first),
			})
		} else if rule.ID != "" {
			seen[rule.ID] = rowNum
		}

		if len(rowErrs) > 0 {
			result.ErrorRows++
			result.Errors = append(result.Errors, rowErrs...)
			continue
		}
		result.ValidRows++
		result.Rules = append(result.Rules, rule)
	}

	if result.TotalRows == 0 {
		return nil, errors.New("file must contain a header row and at least one data row")
	}
	return result, nil
}

// mapRuleHeaders locates the id, name, value, kind and category columns.
// Header matching ignores case and surrounding space.
func mapRuleHeaders(headers []string) (map[string]int, error) {
	columns := make(map[string]int, len(headers))
	for i, h := range headers {
		key := strings.ToLower(strings.TrimSpace(h))
		for _, want := range ruleSheetHeaders {
			if key == strings.ToLower(want) {
				columns[key] = i
			}
		}
	}

	var missing []string
	for _, want := range []string{"id", "name", "kind", "category"} {
		if _, ok := columns[want]; !ok {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return columns, nil
}

// ruleErrors flattens an ozzo validation result into sorted row errors.
func ruleErrors(rowNum int, err error) []ValidationError {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		if err != nil {
			return []ValidationError{{Row: rowNum, Field: "row", Message: err.Error()}}
		}
		return nil
	}
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	out := make([]ValidationError, 0, len(fields))
	for _, f := range fields {
		out = append(out, ValidationError{Row: rowNum, Field: f, Message: errs[f].Error()})
	}
	return out
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseCSV reads a CSV file and returns headers + data rows.
func parseCSV(file io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(allRows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}

	headers := allRows[0]
	dataRows := allRows[1:]
	return headers, dataRows, nil
}

// parseExcel reads an xlsx file and returns headers + data rows from the first sheet.
func parseExcel(file io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}

	headers := rows[0]
	dataRows := rows[1:]
	return headers, dataRows, nil
}

// GenerateErrorReport creates a downloadable .xlsx file from validation errors.
func GenerateErrorReport(errors []ValidationError) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Errors"
	defaultSheet := f.GetSheetName(0)
	f.SetSheetName(defaultSheet, sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DC2626"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorders(),
	})

	f.SetCellValue(sheet, "A1", "Row #")
	f.SetCellValue(sheet, "B1", "Field")
	f.SetCellValue(sheet, "C1", "Error")
	f.SetCellStyle(sheet, "A1", "C1", headerStyle)
	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "B", 22)
	f.SetColWidth(sheet, "C", "C", 55)

	for i, e := range errors {
		row := fmt.Sprintf("%d", i+2)
		f.SetCellValue(sheet, "A"+row, e.Row)
		f.SetCellValue(sheet, "B"+row, e.Field)
		f.SetCellValue(sheet, "C"+row, e.Message)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write error report: %w", err)
	}
	return buf.Bytes(), nil
}
