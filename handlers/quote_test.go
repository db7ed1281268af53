package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"pcbquote/config"
	"pcbquote/pricing"
	"pcbquote/services"
	"pcbquote/testhelpers"
)

func TestHandleQuotePrice_JSONBody(t *testing.T) {
	app := testhelpers.NewSeededTestApp(t)
	handler := HandleQuotePrice(app, config.Default())

	body := `{"paymentMethod":"bank_transfer","specs":{"qty":5}}`
	req := httptest.NewRequest(http.MethodPost, "/api/quote/price", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp PriceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	want := pricing.Calculate(pricing.DefaultSpecs(), pricing.DefaultRuleTable(), pricing.PaymentBankTransfer)
	if resp.Breakdown.Total != want.Total {
		t.Errorf("total = %v, want %v", resp.Breakdown.Total, want.Total)
	}
	// Unsent spec fields keep their defaults.
	if resp.Specs.Layers != pricing.DefaultSpecs().Layers {
		t.Errorf("layers = %d, want default", resp.Specs.Layers)
	}
	if resp.Currency != testhelpers.TestCurrencySymbol {
		t.Errorf("currency = %q", resp.Currency)
	}
}

func TestHandleQuotePrice_FormDefaultsPayment(t *testing.T) {
	app := testhelpers.NewSeededTestApp(t)
	handler := HandleQuotePrice(app, config.Default())

	req := newFormRequest("/api/quote/price", url.Values{"qty": {"5"}})
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	var resp PriceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.PaymentMethod != pricing.PaymentCreditCard {
		t.Errorf("payment = %q, want credit_card", resp.PaymentMethod)
	}
	if resp.Breakdown.Total != 400 {
		t.Errorf("total = %v, want 400", resp.Breakdown.Total)
	}
}

func TestHandleQuotePrice_AnalysisToken(t *testing.T) {
	app := testhelpers.NewSeededTestApp(t)
	testhelpers.CreateTestAnalysis(t, app, "tok-4l", "four.zip", 4)
	handler := HandleQuotePrice(app, config.Default())

	req := newFormRequest("/api/quote/price", url.Values{"analysis": {"tok-4l"}})
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	var resp PriceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Specs.Layers != 4 {
		t.Errorf("layers = %d, want 4 from the analysis", resp.Specs.Layers)
	}
}

func TestHandleQuotePrice_FormOverridesAnalysis(t *testing.T) {
	app := testhelpers.NewSeededTestApp(t)
	testhelpers.CreateTestAnalysis(t, app, "tok-4l", "four.zip", 4)
	handler := HandleQuotePrice(app, config.Default())

	req := newFormRequest("/api/quote/price", url.Values{"analysis": {"tok-4l"}, "layers": {"6"}})
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	_ = handler(e)

	var resp PriceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Specs.Layers != 6 {
		t.Errorf("layers = %d, want the submitted 6", resp.Specs.Layers)
	}
}

func TestHandleQuotePrice_HTMX(t *testing.T) {
	app := testhelpers.NewSeededTestApp(t)
	handler := HandleQuotePrice(app, config.Default())

	req := newFormRequest("/api/quote/price", url.Values{"payment_method": {"bank_transfer"}})
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	testhelpers.AssertHTMLContains(t, rec.Body.String(),
		`id="quote-summary"`,
		"₺360.00",
		"-₺40.00",
		"text-error",
	)
}

func TestHandleQuotePrice_InvalidSpecs(t *testing.T) {
	app := testhelpers.NewSeededTestApp(t)
	handler := HandleQuotePrice(app, config.Default())

	req := newFormRequest("/api/quote/price", url.Values{"layers": {"3"}, "qty": {"many"}})
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	_ = handler(e)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body struct {
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := body.Fields["qty"]; !ok {
		t.Errorf("expected a qty error, got %v", body.Fields)
	}
}

func TestHandleQuotePrice_UnknownPayment(t *testing.T) {
	app := testhelpers.NewSeededTestApp(t)
	handler := HandleQuotePrice(app, config.Default())

	req := newFormRequest("/api/quote/price", url.Values{"payment_method": {"bitcoin"}})
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	_ = handler(e)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if rec.Header().Get("HX-Reswap") != "none" {
		t.Error("expected error toast without swap")
	}
}

func TestHandleQuotePrice_MalformedJSON(t *testing.T) {
	app := testhelpers.NewSeededTestApp(t)
	handler := HandleQuotePrice(app, config.Default())

	req := httptest.NewRequest(http.MethodPost, "/api/quote/price", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	_ = handler(e)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleQuoteSave_JSON(t *testing.T) {
	app := testhelpers.NewSeededTestApp(t)
	handler := HandleQuoteSave(app, config.Default())

	req := newFormRequest("/quotes", url.Values{
		"customer_name":  {"Acme"},
		"customer_email": {"buyer@acme.test"},
		"payment_method": {"bank_transfer"},
	})
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp SavedQuoteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !strings.HasPrefix(resp.QuoteNumber, "PCB-") {
		t.Errorf("quote number = %q", resp.QuoteNumber)
	}
	if resp.Breakdown.Total != 360 {
		t.Errorf("total = %v, want 360", resp.Breakdown.Total)
	}

	q, err := services.LoadQuote(app, resp.ID)
	if err != nil {
		t.Fatalf("quote not stored: %v", err)
	}
	if q.CustomerName != "Acme" {
		t.Errorf("customer = %q", q.CustomerName)
	}
}

func TestHandleQuoteSave_HTMX(t *testing.T) {
	app := testhelpers.NewSeededTestApp(t)
	handler := HandleQuoteSave(app, config.Default())

	req := newFormRequest("/quotes", url.Values{"customer_name": {"Acme"}})
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	body := rec.Body.String()
	testhelpers.AssertHTMLContains(t, body, "/export/excel", "/export/pdf", "PCB-")
	if !strings.Contains(rec.Header().Get("HX-Trigger"), "saved") {
		t.Errorf("expected a saved toast, got %q", rec.Header().Get("HX-Trigger"))
	}
}

func TestHandleQuoteSave_InvalidEmail(t *testing.T) {
	app := testhelpers.NewSeededTestApp(t)
	handler := HandleQuoteSave(app, config.Default())

	req := newFormRequest("/quotes", url.Values{"customer_email": {"not-an-email"}})
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	_ = handler(e)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestQuoteSummaryData(t *testing.T) {
	b := pricing.Calculate(pricing.DefaultSpecs(), pricing.DefaultRuleTable(), pricing.PaymentBankTransfer)
	b.TestFee = 50

	data := quoteSummaryData(b, pricing.PaymentBankTransfer, "$")
	if data.Total != "$360.00" {
		t.Errorf("total = %q", data.Total)
	}
	if !data.ShowTestFee || data.TestFee != "$50.00" {
		t.Errorf("test fee = %q (shown %v)", data.TestFee, data.ShowTestFee)
	}
	var negatives int
	for _, l := range data.Lines {
		if l.Negative {
			negatives++
		}
	}
	if negatives != 1 {
		t.Errorf("expected 1 discount line, got %d", negatives)
	}
}

func TestHandleQuotePrice_StencilEnabledFlag(t *testing.T) {
	app := testhelpers.NewSeededTestApp(t)
	handler := HandleQuotePrice(app, config.Default())

	stencil := `"side":"Top","framework":"Frameless","size":"370x470mm","counts":1,"material":"Stainless Steel"`
	tests := []struct {
		name      string
		enabled   string
		wantFee   bool
		wantTotal float64
	}{
		{"disabled", "false", false, 400},
		{"enabled", "true", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"paymentMethod":"credit_card","specs":{"stencil":{"enabled":` + tt.enabled + `,` + stencil + `}}}`
			req := httptest.NewRequest(http.MethodPost, "/api/quote/price", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			e := newTestRequestEvent(app, req, rec)

			if err := handler(e); err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}

			var resp PriceResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if got := resp.Breakdown.StencilFee > 0; got != tt.wantFee {
				t.Errorf("stencil fee = %v, want charged=%v", resp.Breakdown.StencilFee, tt.wantFee)
			}
			if !tt.wantFee {
				if resp.Specs.Stencil != nil {
					t.Errorf("stencil = %+v, want nil", resp.Specs.Stencil)
				}
				if resp.Breakdown.Total != tt.wantTotal {
					t.Errorf("total = %v, want %v", resp.Breakdown.Total, tt.wantTotal)
				}
			}
		})
	}
}

func TestHandleQuoteSave_DisabledStencilStoredWithout(t *testing.T) {
	app := testhelpers.NewSeededTestApp(t)
	handler := HandleQuoteSave(app, config.Default())

	body := `{"customerName":"Acme","paymentMethod":"credit_card","specs":{"stencil":{"enabled":false,"side":"Top","framework":"Frameless","size":"370x470mm","counts":1,"material":"Stainless Steel"}}}`
	req := httptest.NewRequest(http.MethodPost, "/quotes", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp SavedQuoteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	q, err := services.LoadQuote(app, resp.ID)
	if err != nil {
		t.Fatalf("quote not stored: %v", err)
	}
	if q.Specs.Stencil != nil {
		t.Errorf("stored stencil = %+v, want nil", q.Specs.Stencil)
	}
	if q.Breakdown.StencilFee != 0 {
		t.Errorf("stored stencil fee = %v, want 0", q.Breakdown.StencilFee)
	}
}

func TestQuotePriceAndSave_AgreeWithEmptyRuleStore(t *testing.T) {
	app := testhelpers.NewSeededTestApp(t)
	for _, r := range pricing.DefaultRules() {
		if err := services.DeleteRule(app, r.ID); err != nil {
			t.Fatalf("DeleteRule(%s) error = %v", r.ID, err)
		}
	}

	body := `{"paymentMethod":"bank_transfer","specs":{"qty":10,"layers":4}}`

	priceReq := httptest.NewRequest(http.MethodPost, "/api/quote/price", strings.NewReader(body))
	priceReq.Header.Set("Content-Type", "application/json")
	priceRec := httptest.NewRecorder()
	if err := HandleQuotePrice(app, config.Default())(newTestRequestEvent(app, priceReq, priceRec)); err != nil {
		t.Fatalf("price handler returned error: %v", err)
	}
	if priceRec.Code != http.StatusOK {
		t.Fatalf("price: expected 200, got %d: %s", priceRec.Code, priceRec.Body.String())
	}
	var priced PriceResponse
	if err := json.Unmarshal(priceRec.Body.Bytes(), &priced); err != nil {
		t.Fatalf("invalid price JSON: %v", err)
	}

	saveReq := httptest.NewRequest(http.MethodPost, "/quotes", strings.NewReader(body))
	saveReq.Header.Set("Content-Type", "application/json")
	saveRec := httptest.NewRecorder()
	if err := HandleQuoteSave(app, config.Default())(newTestRequestEvent(app, saveReq, saveRec)); err != nil {
		t.Fatalf("save handler returned error: %v", err)
	}
	if saveRec.Code != http.StatusCreated {
		t.Fatalf("save: expected 201, got %d: %s", saveRec.Code, saveRec.Body.String())
	}
	var saved SavedQuoteResponse
	if err := json.Unmarshal(saveRec.Body.Bytes(), &saved); err != nil {
		t.Fatalf("invalid save JSON: %v", err)
	}

	if priced.Breakdown.Total != saved.Breakdown.Total {
		t.Errorf("priced total %v != saved total %v", priced.Breakdown.Total, saved.Breakdown.Total)
	}
	if priced.Breakdown.BasePrice != 0 || priced.Breakdown.EngineeringFee != 0 {
		t.Errorf("missing rules should price as 0, got base %v engineering %v",
			priced.Breakdown.BasePrice, priced.Breakdown.EngineeringFee)
	}
}
