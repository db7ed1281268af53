package collections

import (
	"fmt"
	"slices"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"pcbquote/pricing"
)

// MigrateMissingPriceRules creates price_rules records for every default rule
// that has never been seeded. Ids already seeded are remembered in
// site_settings.seeded_rules, so a rule deleted by an admin stays deleted.
// Safe to call on every startup.
func MigrateMissingPriceRules(app *pocketbase.PocketBase) error {
	rulesCol, err := app.FindCollectionByNameOrId(PriceRules)
	if err != nil {
		return fmt.Errorf("migrate_rules: could not find price_rules collection: %w", err)
	}

	settings, err := app.FindRecordsByFilter(SiteSettings, "id != ''", "created", 1, 0, nil)
	if err != nil || len(settings) == 0 {
		return fmt.Errorf("migrate_rules: site settings record missing")
	}
	record := settings[0]

	var seeded []string
	if err := record.UnmarshalJSONField("seeded_rules", &seeded); err != nil {
		seeded = nil
	}

	added := 0
	for i, rule := range pricing.DefaultRules() {
		if slices.Contains(seeded, rule.ID) {
			continue
		}
		existing, _ := app.FindRecordsByFilter(
			rulesCol,
			"rule_id = {:ruleId}",
			"",
			1, 0,
			map[string]any{"ruleId": rule.ID},
		)
		if len(existing) > 0 {
			seeded = append(seeded, rule.ID)
			continue
		}

		r := core.NewRecord(rulesCol)
		r.Set("rule_id", rule.ID)
		r.Set("name", rule.Name)
		r.Set("value", rule.Value)
		r.Set("kind", string(rule.Kind))
		r.Set("category", string(rule.Category))
		r.Set("sort_order", i+1)
		if err := app.Save(r); err != nil {
			zap.L().Warn("migrate_rules: failed to create rule",
				zap.String("rule_id", rule.ID), zap.Error(err))
			continue
		}
		seeded = append(seeded, rule.ID)
		added++
	}

	record.Set("seeded_rules", seeded)
	if err := app.Save(record); err != nil {
		return fmt.Errorf("migrate_rules: could not record seeded rules: %w", err)
	}

	if added > 0 {
		zap.L().Info("migrate_rules: back-filled default price rules", zap.Int("count", added))
	}
	return nil
}
