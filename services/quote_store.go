package services

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"pcbquote/collections"
	"pcbquote/pricing"
)

// QuoteRequest is everything needed to price and store one quote.
type QuoteRequest struct {
	Specs         pricing.BoardSpecs    `json:"specs"`
	PaymentMethod pricing.PaymentMethod `json:"paymentMethod"`
	AnalysisToken string                `json:"analysisToken"`
	CustomerName  string                `json:"customerName"`
	CustomerEmail string                `json:"customerEmail"`
	Notes         string                `json:"notes"`
}

func (q QuoteRequest) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Specs),
		validation.Field(&q.PaymentMethod, validation.Required, validation.In(anySlice(pricing.PaymentMethods)...)),
		validation.Field(&q.CustomerName, validation.Length(0, 200)),
		validation.Field(&q.CustomerEmail, is.EmailFormat),
		validation.Field(&q.Notes, validation.Length(0, 2000)),
	)
}

// quoteNumberRetries bounds how often SaveQuote redraws a number that a
// concurrent save took first.
const quoteNumberRetries = 3

// StoredQuote is a decoded quotes record.
type StoredQuote struct {
	ID            string
	Number        string
	CustomerName  string
	CustomerEmail string
	Notes         string
	PaymentMethod pricing.PaymentMethod
	Specs         pricing.BoardSpecs
	Breakdown     pricing.Breakdown
	Created       time.Time
}

// SaveQuote prices req against the current rule table snapshot and stores
// the result under a new quote number.
func SaveQuote(app *pocketbase.PocketBase, req QuoteRequest, now time.Time) (*core.Record, pricing.Breakdown, error) {
	if err := req.Validate(); err != nil {
		return nil, pricing.Breakdown{}, err
	}

	rules := LoadRuleTableOrDefault(app)
	breakdown := pricing.Calculate(req.Specs, rules, req.PaymentMethod)

	col, err := app.FindCollectionByNameOrId(collections.Quotes)
	if err != nil {
		return nil, pricing.Breakdown{}, fmt.Errorf("save quote: %w", err)
	}

	record := core.NewRecord(col)
	record.Set("customer_name", req.CustomerName)
	record.Set("customer_email", req.CustomerEmail)
	record.Set("notes", req.Notes)
	record.Set("payment_method", string(req.PaymentMethod))
	record.Set("specs", req.Specs)
	record.Set("breakdown", breakdown)
	record.Set("total", breakdown.Total)

	if req.AnalysisToken != "" {
		analysis, err := FindAnalysis(app, req.AnalysisToken)
		if err != nil {
			return nil, pricing.Breakdown{}, validation.Errors{"analysis": fmt.Errorf("unknown analysis %q", req.AnalysisToken)}
		}
		record.Set("analysis", analysis.Id)
	}

	// The unique index on quote_number rejects a number issued to a
	// concurrent save; draw a fresh one and retry.
	var number string
	for attempt := 0; ; attempt++ {
		number, err = GenerateQuoteNumber(app, now)
		if err != nil {
			return nil, pricing.Breakdown{}, fmt.Errorf("save quote: %w", err)
		}
		record.Set("quote_number", number)

		err = app.Save(record)
		if err == nil {
			break
		}
		if attempt < quoteNumberRetries && quoteNumberTaken(app, number) {
			zap.L().Warn("quote: number taken, retrying", zap.String("quote_number", number))
			continue
		}
		return nil, pricing.Breakdown{}, fmt.Errorf("save quote %s: %w", number, err)
	}

	zap.L().Info("quote saved",
		zap.String("quote_number", number),
		zap.String("payment_method", string(req.PaymentMethod)),
		zap.Float64("total", breakdown.Total),
	)
	return record, breakdown, nil
}

// LoadQuote reads and decodes one quote by record id.
func LoadQuote(app *pocketbase.PocketBase, id string) (StoredQuote, error) {
	record, err := app.FindRecordById(collections.Quotes, id)
	if err != nil {
		return StoredQuote{}, fmt.Errorf("quote %s: %w", id, err)
	}

	q := StoredQuote{
		ID:            record.Id,
		Number:        record.GetString("quote_number"),
		CustomerName:  record.GetString("customer_name"),
		CustomerEmail: record.GetString("customer_email"),
		Notes:         record.GetString("notes"),
		PaymentMethod: pricing.PaymentMethod(record.GetString("payment_method")),
		Created:       record.GetDateTime("created").Time(),
	}
	if err := record.UnmarshalJSONField("specs", &q.Specs); err != nil {
		return StoredQuote{}, fmt.Errorf("quote %s specs: %w", id, err)
	}
	if err := record.UnmarshalJSONField("breakdown", &q.Breakdown); err != nil {
		return StoredQuote{}, fmt.Errorf("quote %s breakdown: %w", id, err)
	}
	return q, nil
}

func anySlice[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
