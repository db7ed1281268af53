package services

import (
	"github.com/pocketbase/pocketbase"

	"pcbquote/collections"
)

// CurrencySymbol returns the stored currency symbol, or fallback when the
// settings record is missing or blank.
func CurrencySymbol(app *pocketbase.PocketBase, fallback string) string {
	records, err := app.FindRecordsByFilter(collections.SiteSettings, "id != ''", "created", 1, 0, nil)
	if err != nil || len(records) == 0 {
		return fallback
	}
	if s := records[0].GetString("currency_symbol"); s != "" {
		return s
	}
	return fallback
}
