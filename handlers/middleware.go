package handlers

import (
	"context"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"pcbquote/services"
)

type contextKey string

const CurrencySymbolKey contextKey = "currencySymbol"

// GetCurrencySymbol extracts the currency symbol from the request context.
// It returns "" when SiteSettingsMiddleware did not run.
func GetCurrencySymbol(r *http.Request) string {
	if val, ok := r.Context().Value(CurrencySymbolKey).(string); ok {
		return val
	}
	return ""
}

// SiteSettingsMiddleware loads the currency symbol from site settings, or
// fallback when none is stored, and puts it in the request context so
// handlers and exports format money the same way.
func SiteSettingsMiddleware(app *pocketbase.PocketBase, fallback string) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		symbol := services.CurrencySymbol(app, fallback)
		ctx := context.WithValue(e.Request.Context(), CurrencySymbolKey, symbol)
		e.Request = e.Request.WithContext(ctx)
		return e.Next()
	}
}

// currencySymbol returns the symbol from context, reading site settings when
// the middleware was not applied.
func currencySymbol(e *core.RequestEvent, app *pocketbase.PocketBase, fallback string) string {
	if s := GetCurrencySymbol(e.Request); s != "" {
		return s
	}
	return services.CurrencySymbol(app, fallback)
}
