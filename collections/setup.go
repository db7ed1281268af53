package collections

import (
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"pcbquote/pricing"
)

// Collection names.
const (
	PriceRules   = "price_rules"
	SiteSettings = "site_settings"
	CAMAnalyses  = "cam_analyses"
	Quotes       = "quotes"
)

// Analysis sources.
const (
	SourceUpload = "upload"
	SourceWatch  = "watch"
	SourceCLI    = "cli"
)

// Setup programmatically creates/ensures the price_rules, site_settings,
// cam_analyses and quotes collections exist.
func Setup(app *pocketbase.PocketBase) {
	ensureCollection(app, PriceRules, func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "rule_id", Required: true, Max: 64, Pattern: `^[a-z0-9_]+$`})
		c.Fields.Add(&core.TextField{Name: "name", Required: true, Max: 120})
		// Not Required: a zero value is a legitimate price.
		c.Fields.Add(&core.NumberField{Name: "value"})
		c.Fields.Add(&core.SelectField{
			Name:      "kind",
			Required:  true,
			Values:    stringValues(pricing.RuleKinds),
			MaxSelect: 1,
		})
		c.Fields.Add(&core.SelectField{
			Name:      "category",
			Required:  true,
			Values:    stringValues(pricing.RuleCategories),
			MaxSelect: 1,
		})
		c.Fields.Add(&core.NumberField{Name: "sort_order", OnlyInt: true})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_price_rules_rule_id", true, "rule_id", "")
	})

	ensureCollection(app, SiteSettings, func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "company_name"})
		c.Fields.Add(&core.TextField{Name: "currency"})
		c.Fields.Add(&core.TextField{Name: "currency_symbol", Required: true})
		c.Fields.Add(&core.JSONField{Name: "seeded_rules"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	analyses := ensureCollection(app, CAMAnalyses, func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "token", Required: true})
		c.Fields.Add(&core.TextField{Name: "filename", Required: true})
		c.Fields.Add(&core.SelectField{
			Name:      "source",
			Required:  true,
			Values:    []string{SourceUpload, SourceWatch, SourceCLI},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.NumberField{Name: "size_bytes", OnlyInt: true})
		c.Fields.Add(&core.JSONField{Name: "layers"})
		c.Fields.Add(&core.JSONField{Name: "estimate"})
		c.Fields.Add(&core.NumberField{Name: "layer_count", OnlyInt: true})
		c.Fields.Add(&core.NumberField{Name: "detected_vias", OnlyInt: true})
		c.Fields.Add(&core.NumberField{Name: "detected_holes", OnlyInt: true})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_cam_analyses_token", true, "token", "")
	})

	ensureCollection(app, Quotes, func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "quote_number", Required: true})
		c.Fields.Add(&core.RelationField{
			Name:         "analysis",
			CollectionId: analyses.Id,
			MaxSelect:    1,
		})
		c.Fields.Add(&core.TextField{Name: "customer_name"})
		c.Fields.Add(&core.EmailField{Name: "customer_email"})
		c.Fields.Add(&core.SelectField{
			Name:      "payment_method",
			Required:  true,
			Values:    stringValues(pricing.PaymentMethods),
			MaxSelect: 1,
		})
		c.Fields.Add(&core.JSONField{Name: "specs", Required: true})
		c.Fields.Add(&core.JSONField{Name: "breakdown", Required: true})
		c.Fields.Add(&core.NumberField{Name: "total"})
		c.Fields.Add(&core.TextField{Name: "notes"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_quotes_quote_number", true, "quote_number", "")
	})
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		zap.L().Debug("collection already exists", zap.String("collection", name))
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		zap.L().Fatal("failed to create collection", zap.String("collection", name), zap.Error(err))
	}

	zap.L().Info("created collection", zap.String("collection", name), zap.String("id", collection.Id))
	return collection
}

func stringValues[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}
