package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"pcbquote/config"
	"pcbquote/pricing"
	"pcbquote/services"
	"pcbquote/templates"
)

// PriceResponse is the JSON body of a price calculation.
type PriceResponse struct {
	Specs         pricing.BoardSpecs    `json:"specs"`
	PaymentMethod pricing.PaymentMethod `json:"paymentMethod"`
	Breakdown     pricing.Breakdown     `json:"breakdown"`
	Currency      string                `json:"currencySymbol"`
}

// SavedQuoteResponse is the JSON body returned after a quote is stored.
type SavedQuoteResponse struct {
	ID          string            `json:"id"`
	QuoteNumber string            `json:"quoteNumber"`
	Breakdown   pricing.Breakdown `json:"breakdown"`
}

// parseQuoteRequest reads a quote request from a JSON body or from form
// values. Form requests that carry an "analysis" token start from the
// stored estimate merged into the default specification.
func parseQuoteRequest(e *core.RequestEvent, app *pocketbase.PocketBase, cfg config.Config) (services.QuoteRequest, error) {
	fallback := pricing.PaymentMethod(cfg.DefaultPayment)

	if strings.HasPrefix(e.Request.Header.Get("Content-Type"), "application/json") {
		req := services.QuoteRequest{Specs: pricing.DefaultSpecs()}
		if err := json.NewDecoder(e.Request.Body).Decode(&req); err != nil {
			return req, fmt.Errorf("decode quote request: %w", err)
		}
		if req.PaymentMethod == "" {
			req.PaymentMethod = fallback
		}
		return req, nil
	}

	if err := e.Request.ParseForm(); err != nil {
		return services.QuoteRequest{}, fmt.Errorf("parse form: %w", err)
	}
	form := e.Request.Form

	req := services.QuoteRequest{
		AnalysisToken: strings.TrimSpace(form.Get("analysis")),
		CustomerName:  strings.TrimSpace(form.Get("customer_name")),
		CustomerEmail: strings.TrimSpace(form.Get("customer_email")),
		Notes:         strings.TrimSpace(form.Get("notes")),
	}

	base := pricing.DefaultSpecs()
	if req.AnalysisToken != "" {
		if record, err := services.FindAnalysis(app, req.AnalysisToken); err == nil {
			if est, err := services.AnalysisEstimate(record); err == nil {
				base = pricing.MergeEstimate(base, est)
			}
		} else {
			zap.L().Warn("quote: unknown analysis token", zap.String("token", req.AnalysisToken))
		}
	}

	specs, err := services.ParseSpecForm(form, base)
	if err != nil {
		return req, err
	}
	req.Specs = specs

	method, err := services.ParsePaymentMethod(form.Get("payment_method"), fallback)
	if err != nil {
		return req, err
	}
	req.PaymentMethod = method
	return req, nil
}

// HandleQuotePrice prices a specification against a snapshot of the current
// rule table without storing anything.
func HandleQuotePrice(app *pocketbase.PocketBase, cfg config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		req, err := parseQuoteRequest(e, app, cfg)
		if err != nil {
			return respondBadInput(e, "quote_price", err)
		}
		if err := req.Validate(); err != nil {
			return respondError(e, "quote_price", err)
		}

		rules := services.LoadRuleTableOrDefault(app)
		breakdown := pricing.Calculate(req.Specs, rules, req.PaymentMethod)
		symbol := currencySymbol(e, app, cfg.CurrencySymbol)

		if isHTMX(e) {
			data := quoteSummaryData(breakdown, req.PaymentMethod, symbol)
			data.AnalysisToken = req.AnalysisToken
			return templates.QuoteSummary(data).Render(e.Request.Context(), e.Response)
		}
		return e.JSON(http.StatusOK, PriceResponse{
			Specs:         req.Specs,
			PaymentMethod: req.PaymentMethod,
			Breakdown:     breakdown,
			Currency:      symbol,
		})
	}
}

// HandleQuoteSave prices and stores a quote under a new quote number.
func HandleQuoteSave(app *pocketbase.PocketBase, cfg config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		req, err := parseQuoteRequest(e, app, cfg)
		if err != nil {
			return respondBadInput(e, "quote_save", err)
		}

		record, breakdown, err := services.SaveQuote(app, req, time.Now())
		if err != nil {
			return respondError(e, "quote_save", err)
		}
		number := record.GetString("quote_number")

		if isHTMX(e) {
			SetToast(e, toastSuccess, fmt.Sprintf("Quote %s saved", number))
			data := quoteSummaryData(breakdown, req.PaymentMethod, currencySymbol(e, app, cfg.CurrencySymbol))
			data.QuoteID = record.Id
			data.QuoteNumber = number
			return templates.QuoteSummary(data).Render(e.Request.Context(), e.Response)
		}
		return e.JSON(http.StatusCreated, SavedQuoteResponse{
			ID:          record.Id,
			QuoteNumber: number,
			Breakdown:   breakdown,
		})
	}
}

// respondBadInput answers 400 for bodies that could not be decoded, keeping
// field validation errors on the usual path.
func respondBadInput(e *core.RequestEvent, scope string, err error) error {
	if status, _ := classifyError(err); status != http.StatusInternalServerError {
		return respondError(e, scope, err)
	}
	zap.L().Debug(scope+": malformed request", zap.Error(err))
	msg := "The request could not be read."
	if isHTMX(e) {
		return ErrorToast(e, http.StatusBadRequest, msg)
	}
	return e.JSON(http.StatusBadRequest, map[string]any{"error": msg})
}

// quoteSummaryData formats a breakdown for the sidebar.
func quoteSummaryData(b pricing.Breakdown, method pricing.PaymentMethod, symbol string) templates.QuoteSummaryData {
	lines := make([]templates.LineRow, len(b.Details))
	for i, item := range b.Details {
		lines[i] = templates.LineRow{
			Label:    item.Label,
			Amount:   services.FormatMoney(symbol, item.Amount),
			Negative: item.Amount < 0,
		}
	}
	return templates.QuoteSummaryData{
		Lines:        lines,
		Subtotal:     services.FormatMoney(symbol, b.Subtotal),
		Weight:       services.FormatWeight(b.Weight),
		TestFee:      services.FormatMoney(symbol, b.TestFee),
		ShowTestFee:  b.TestFee > 0,
		Total:        services.FormatMoney(symbol, b.Total),
		PaymentLabel: services.PaymentLabel(method),
	}
}
