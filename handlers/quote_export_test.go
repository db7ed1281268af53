package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"pcbquote/config"
	"pcbquote/testhelpers"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"PCB-260115-001", "PCB-260115-001"},
		{"my quote", "my-quote"},
		{"a/b\\c", "a-b-c"},
		{"time:12", "time-12"},
		{`with"quote`, "withquote"},
	}

	for _, tt := range tests {
		if got := sanitizeFilename(tt.input); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestHandleQuoteExportExcel(t *testing.T) {
	app := testhelpers.NewSeededTestApp(t)
	quote := testhelpers.CreateTestQuote(t, app, "PCB-260115-001", "Acme Robotics")

	handler := HandleQuoteExportExcel(app, config.Default())

	req := httptest.NewRequest(http.MethodGet, "/quotes/"+quote.Id+"/export/excel", nil)
	req.SetPathValue("id", quote.Id)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "Quote_PCB-260115-001.xlsx") {
		t.Errorf("unexpected disposition %q", cd)
	}

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("response is not valid Excel: %v", err)
	}
	defer f.Close()

	customer, _ := f.GetCellValue("PCB-260115-001", "A2")
	if customer != "Customer: Acme Robotics" {
		t.Errorf("customer cell = %q", customer)
	}
}

func TestHandleQuoteExportPDF(t *testing.T) {
	app := testhelpers.NewSeededTestApp(t)
	quote := testhelpers.CreateTestQuote(t, app, "PCB-260115-002", "Acme Robotics")

	handler := HandleQuoteExportPDF(app, config.Default())

	req := httptest.NewRequest(http.MethodGet, "/quotes/"+quote.Id+"/export/pdf", nil)
	req.SetPathValue("id", quote.Id)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Header().Get("Content-Type") != "application/pdf" {
		t.Errorf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Error("response is not a PDF")
	}
}

func TestHandleQuoteExport_NotFound(t *testing.T) {
	app := testhelpers.NewSeededTestApp(t)

	for name, handler := range map[string]func(*http.Request, *httptest.ResponseRecorder) error{
		"excel": func(r *http.Request, w *httptest.ResponseRecorder) error {
			return HandleQuoteExportExcel(app, config.Default())(newTestRequestEvent(app, r, w))
		},
		"pdf": func(r *http.Request, w *httptest.ResponseRecorder) error {
			return HandleQuoteExportPDF(app, config.Default())(newTestRequestEvent(app, r, w))
		},
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/quotes/missing/export/"+name, nil)
			req.SetPathValue("id", "missing")
			rec := httptest.NewRecorder()

			_ = handler(req, rec)

			if rec.Code != http.StatusNotFound {
				t.Errorf("expected 404, got %d", rec.Code)
			}
		})
	}
}

func TestHandleQuoteExport_MissingID(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	handler := HandleQuoteExportExcel(app, config.Default())

	req := httptest.NewRequest(http.MethodGet, "/quotes//export/excel", nil)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	_ = handler(e)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
