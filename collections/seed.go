package collections

import (
	"fmt"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"
)

// DefaultCurrency is stored with the site settings record on first start.
const DefaultCurrency = "TRY"

// Seed creates the site settings record and the default price rules on first
// start. Safe to call on every startup.
func Seed(app *pocketbase.PocketBase, currencySymbol string) error {
	if _, err := EnsureSiteSettings(app, currencySymbol); err != nil {
		return err
	}
	return MigrateMissingPriceRules(app)
}

// EnsureSiteSettings returns the single site_settings record, creating it
// when absent. An existing record with a blank symbol gets currencySymbol.
func EnsureSiteSettings(app *pocketbase.PocketBase, currencySymbol string) (*core.Record, error) {
	col, err := app.FindCollectionByNameOrId(SiteSettings)
	if err != nil {
		return nil, fmt.Errorf("seed: could not find site_settings collection: %w", err)
	}

	existing, err := app.FindRecordsByFilter(col, "id != ''", "created", 1, 0, nil)
	if err != nil {
		return nil, fmt.Errorf("seed: could not query site_settings: %w", err)
	}
	if len(existing) > 0 {
		record := existing[0]
		if record.GetString("currency_symbol") != "" {
			return record, nil
		}
		record.Set("currency_symbol", currencySymbol)
		if err := app.Save(record); err != nil {
			return nil, fmt.Errorf("seed: could not update site settings: %w", err)
		}
		return record, nil
	}

	record := core.NewRecord(col)
	record.Set("currency", DefaultCurrency)
	record.Set("currency_symbol", currencySymbol)
	record.Set("seeded_rules", []string{})
	if err := app.Save(record); err != nil {
		return nil, fmt.Errorf("seed: could not create site settings: %w", err)
	}

	zap.L().Info("seeded site settings", zap.String("currency_symbol", currencySymbol))
	return record, nil
}
