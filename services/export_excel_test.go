package services

import (
	"testing"

	"github.com/xuri/excelize/v2"

	"pcbquote/pricing"
)

func sampleExportData() ExportData {
	specs := pricing.DefaultSpecs()
	breakdown := pricing.Calculate(specs, pricing.DefaultRuleTable(), pricing.PaymentBankTransfer)
	return ExportData{
		Title:          "PCB Quote PCB-260115-001",
		QuoteNumber:    "PCB-260115-001",
		CustomerName:   "Acme Robotics",
		CreatedDate:    "15 Jan 2026",
		CurrencySymbol: "₺",
		PaymentMethod:  "Bank transfer (10% off)",
		Specs:          SpecRows(specs),
		Items:          breakdown.Details,
		Weight:         breakdown.Weight,
		Subtotal:       breakdown.Subtotal,
		Total:          breakdown.Total,
	}
}

func TestGenerateExcel_Quote(t *testing.T) {
	data := sampleExportData()

	result, err := GenerateQuoteExcel(data)
	if err != nil {
		t.Fatalf("GenerateQuoteExcel() error = %v", err)
	}
	if len(result) == 0 {
		t.Fatal("GenerateQuoteExcel() returned empty bytes")
	}

	f, err := excelize.OpenReader(bytesReader(result))
	if err != nil {
		t.Fatalf("result is not valid Excel: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 || sheets[0] != "PCB-260115-001" {
		t.Fatalf("expected sheet named after the quote number, got %v", sheets)
	}
	sheet := sheets[0]

	title, _ := f.GetCellValue(sheet, "A1")
	if title != data.Title {
		t.Errorf("title = %q, want %q", title, data.Title)
	}
	customer, _ := f.GetCellValue(sheet, "A2")
	if customer != "Customer: Acme Robotics" {
		t.Errorf("customer = %q", customer)
	}

	// Row 5 is the specification header, rows 6.. are its rows.
	label, _ := f.GetCellValue(sheet, "A6")
	value, _ := f.GetCellValue(sheet, "B6")
	if label != "Dimensions" || value != "100 x 100 mm" {
		t.Errorf("first spec row = %q/%q", label, value)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	var sawDiscount, sawTotal bool
	for _, r := range rows {
		if len(r) < 2 {
			continue
		}
		if r[0] == "Bank transfer discount (10%)" && r[1] == "-₺40.00" {
			sawDiscount = true
		}
		if r[0] == "Total:" && r[1] == "₺360.00" {
			sawTotal = true
		}
	}
	if !sawDiscount {
		t.Error("discount line not found")
	}
	if !sawTotal {
		t.Error("total line not found")
	}
}

func TestGenerateExcel_TestFeeListedSeparately(t *testing.T) {
	data := sampleExportData()
	data.TestFee = 50

	result, err := GenerateQuoteExcel(data)
	if err != nil {
		t.Fatalf("GenerateQuoteExcel() error = %v", err)
	}
	f, err := excelize.OpenReader(bytesReader(result))
	if err != nil {
		t.Fatalf("result is not valid Excel: %v", err)
	}
	defer f.Close()

	rows, _ := f.GetRows(f.GetSheetList()[0])
	last := rows[len(rows)-1]
	prev := rows[len(rows)-2]
	if last[0] != "Total:" {
		t.Errorf("last summary row = %q, want Total:", last[0])
	}
	if prev[0] != "E-test fee (not included):" || prev[1] != "₺50.00" {
		t.Errorf("test fee row = %v", prev)
	}
}

func TestGenerateExcel_EmptyQuoteNumber(t *testing.T) {
	result, err := GenerateQuoteExcel(ExportData{Title: "", CreatedDate: "15 Jan 2026"})
	if err != nil {
		t.Fatalf("GenerateQuoteExcel() error = %v", err)
	}

	f, err := excelize.OpenReader(bytesReader(result))
	if err != nil {
		t.Fatalf("result is not valid Excel: %v", err)
	}
	defer f.Close()

	if sheet := f.GetSheetList()[0]; sheet != "Quote" {
		t.Errorf("expected default sheet name 'Quote', got %q", sheet)
	}
}

func TestGenerateExcel_LongQuoteNumber(t *testing.T) {
	data := ExportData{QuoteNumber: "PCB-260115-001-with-a-very-long-suffix-attached"}

	result, err := GenerateQuoteExcel(data)
	if err != nil {
		t.Fatalf("GenerateQuoteExcel() error = %v", err)
	}
	f, err := excelize.OpenReader(bytesReader(result))
	if err != nil {
		t.Fatalf("result is not valid Excel: %v", err)
	}
	defer f.Close()

	if sheet := f.GetSheetList()[0]; len(sheet) > 31 {
		t.Errorf("sheet name exceeds 31 chars: %d", len(sheet))
	}
}

func TestGenerateExcel_SanitizesCustomer(t *testing.T) {
	data := sampleExportData()
	data.CustomerName = "=HYPERLINK(\"x\")"

	result, err := GenerateQuoteExcel(data)
	if err != nil {
		t.Fatalf("GenerateQuoteExcel() error = %v", err)
	}
	f, err := excelize.OpenReader(bytesReader(result))
	if err != nil {
		t.Fatalf("result is not valid Excel: %v", err)
	}
	defer f.Close()

	v, _ := f.GetCellValue(f.GetSheetList()[0], "A2")
	if v != "Customer: '=HYPERLINK(\"x\")" {
		t.Errorf("customer cell = %q", v)
	}
}

func TestGenerateRulesExcel(t *testing.T) {
	rules := []pricing.Rule{
		{ID: "base_2layer", Name: "2-layer base", Value: 50, Kind: pricing.KindBase, Category: pricing.CategoryLayer},
		{ID: "stencil_mult_nickel", Name: "Nickel", Value: 2.5, Kind: pricing.KindMultiplier, Category: pricing.CategoryStencil},
	}

	result, err := GenerateRulesExcel(rules)
	if err != nil {
		t.Fatalf("GenerateRulesExcel() error = %v", err)
	}
	f, err := excelize.OpenReader(bytesReader(result))
	if err != nil {
		t.Fatalf("result is not valid Excel: %v", err)
	}
	defer f.Close()

	sheet := f.GetSheetList()[0]
	if sheet != "Price Rules" {
		t.Errorf("sheet = %q, want 'Price Rules'", sheet)
	}
	rows, _ := f.GetRows(sheet)
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	want := []string{"stencil_mult_nickel", "Nickel", "2.5", "multiplier", "stencil"}
	for i, w := range want {
		if rows[2][i] != w {
			t.Errorf("row 3 col %d = %q, want %q", i, rows[2][i], w)
		}
	}
}

func TestSanitizeExcelCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty string", "", ""},
		{"normal text", "Hello", "Hello"},
		{"starts with equals", "=SUM(A1:A10)", "'=SUM(A1:A10)"},
		{"starts with plus", "+1234", "'+1234"},
		{"starts with minus", "-100", "'-100"},
		{"starts with at", "@import", "'@import"},
		{"starts with tab", "\tdata", "'\tdata"},
		{"starts with pipe", "|command", "'|command"},
		{"starts with carriage return", "\rdata", "'\rdata"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizeExcelCell(tt.input)
			if got != tt.want {
				t.Errorf("sanitizeExcelCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestThinBorders(t *testing.T) {
	borders := thinBorders()
	if len(borders) != 4 {
		t.Errorf("thinBorders() returned %d borders, want 4", len(borders))
	}

	sides := map[string]bool{"left": false, "top": false, "bottom": false, "right": false}
	for _, b := range borders {
		sides[b.Type] = true
		if b.Style != 1 {
			t.Errorf("border %s style = %d, want 1 (thin)", b.Type, b.Style)
		}
	}
	for side, found := range sides {
		if !found {
			t.Errorf("missing border side: %s", side)
		}
	}
}
