package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// LineRow is one formatted line of a price breakdown.
type LineRow struct {
	Label    string
	Amount   string
	Negative bool
}

// QuoteSummaryData is the formatted breakdown shown in the quote sidebar.
type QuoteSummaryData struct {
	Lines         []LineRow
	Subtotal      string
	Weight        string
	TestFee       string
	ShowTestFee   bool
	Total         string
	PaymentLabel  string
	AnalysisToken string
	QuoteNumber   string
	QuoteID       string
}

// QuoteSummary renders the itemized price sidebar.
func QuoteSummary(data QuoteSummaryData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}

		h.raw(`<div id="quote-summary" class="card bg-base-100 shadow">`)
		h.raw(`<div class="card-body">`)
		h.raw(`<h2 class="card-title">Price breakdown</h2>`)
		if data.QuoteNumber != "" {
			h.raw(`<p class="text-sm opacity-70">Quote `)
			h.text(data.QuoteNumber)
			h.raw(`</p>`)
		}

		h.raw(`<table class="table table-sm"><tbody>`)
		for _, l := range data.Lines {
			h.raw(`<tr class="`, classes("quote-line", negativeClass(l.Negative)), `">`)
			h.raw(`<td>`)
			h.text(l.Label)
			h.raw(`</td><td class="text-right">`)
			h.text(l.Amount)
			h.raw(`</td></tr>`)
		}
		h.raw(`</tbody></table>`)

		h.raw(`<div class="divider my-1"></div>`)
		h.raw(`<dl class="quote-totals">`)
		h.raw(`<dt>Subtotal</dt><dd>`)
		h.text(data.Subtotal)
		h.raw(`</dd><dt>Shipping weight</dt><dd>`)
		h.text(data.Weight)
		h.raw(`</dd>`)
		if data.ShowTestFee {
			h.raw(`<dt>E-test fee (not included)</dt><dd>`)
			h.text(data.TestFee)
			h.raw(`</dd>`)
		}
		h.raw(`<dt>Payment</dt><dd>`)
		h.text(data.PaymentLabel)
		h.raw(`</dd>`)
		h.raw(`<dt class="font-bold">Total</dt><dd class="font-bold" id="quote-total">`)
		h.text(data.Total)
		h.raw(`</dd></dl>`)

		if data.QuoteID != "" {
			h.raw(`<div class="card-actions justify-end">`)
			h.raw(`<a class="btn btn-sm" href="/quotes/`, templ.EscapeString(data.QuoteID), `/export/excel">Excel</a>`)
			h.raw(`<a class="btn btn-sm" href="/quotes/`, templ.EscapeString(data.QuoteID), `/export/pdf">PDF</a>`)
			h.raw(`</div>`)
		} else if data.AnalysisToken != "" {
			h.raw(`<input type="hidden" name="analysis" value="`)
			h.text(data.AnalysisToken)
			h.raw(`">`)
		}

		h.raw(`</div></div>`)
		return h.err
	})
}

func negativeClass(negative bool) string {
	if negative {
		return "text-error"
	}
	return ""
}
