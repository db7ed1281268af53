package services

import (
	"errors"
	"fmt"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"pcbquote/collections"
	"pcbquote/metrics"
	"pcbquote/pricing"
)

var (
	ErrRuleExists   = errors.New("rule id already exists")
	ErrRuleNotFound = errors.New("rule not found")
)

// RulePatch is a partial update of one rule. Nil fields are left unchanged.
type RulePatch struct {
	Name     *string
	Value    *float64
	Kind     *pricing.RuleKind
	Category *pricing.RuleCategory
}

// LoadRules reads every stored rule ordered by sort_order then creation time.
func LoadRules(app *pocketbase.PocketBase) ([]pricing.Rule, error) {
	records, err := app.FindRecordsByFilter(collections.PriceRules, "id != ''", "sort_order,created", 0, 0, nil)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	rules := make([]pricing.Rule, 0, len(records))
	for _, r := range records {
		rules = append(rules, ruleFromRecord(r))
	}
	return rules, nil
}

// LoadRuleTable snapshots the stored rules for one calculation.
func LoadRuleTable(app *pocketbase.PocketBase) (pricing.RuleTable, error) {
	rules, err := LoadRules(app)
	if err != nil {
		return pricing.RuleTable{}, err
	}
	return pricing.NewRuleTable(rules), nil
}

// LoadRuleTableOrDefault is LoadRuleTable falling back to the built-in
// defaults only when the store cannot be read. An empty store prices every
// rule at zero. Pricing and saving both snapshot through here.
func LoadRuleTableOrDefault(app *pocketbase.PocketBase) pricing.RuleTable {
	table, err := LoadRuleTable(app)
	if err != nil {
		zap.L().Warn("falling back to default price rules", zap.Error(err))
		return pricing.DefaultRuleTable()
	}
	return table
}

// CreateRule validates and stores a new rule. The id must be unused.
func CreateRule(app *pocketbase.PocketBase, rule pricing.Rule) (*core.Record, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if _, err := findRuleRecord(app, rule.ID); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrRuleExists, rule.ID)
	}

	col, err := app.FindCollectionByNameOrId(collections.PriceRules)
	if err != nil {
		return nil, fmt.Errorf("create rule: %w", err)
	}

	record := core.NewRecord(col)
	applyRule(record, rule)
	record.Set("sort_order", nextSortOrder(app))
	if err := app.Save(record); err != nil {
		return nil, fmt.Errorf("create rule %s: %w", rule.ID, err)
	}

	metrics.RuleMutations.WithLabelValues("create").Inc()
	zap.L().Info("price rule created", zap.String("rule_id", rule.ID), zap.Float64("value", rule.Value))
	return record, nil
}

// UpdateRule applies patch to the rule with the given id.
func UpdateRule(app *pocketbase.PocketBase, id string, patch RulePatch) (pricing.Rule, error) {
	record, err := findRuleRecord(app, id)
	if err != nil {
		return pricing.Rule{}, err
	}

	rule := ruleFromRecord(record)
	if patch.Name != nil {
		rule.Name = *patch.Name
	}
	if patch.Value != nil {
		rule.Value = *patch.Value
	}
	if patch.Kind != nil {
		rule.Kind = *patch.Kind
	}
	if patch.Category != nil {
		rule.Category = *patch.Category
	}
	if err := rule.Validate(); err != nil {
		return pricing.Rule{}, err
	}

	applyRule(record, rule)
	if err := app.Save(record); err != nil {
		return pricing.Rule{}, fmt.Errorf("update rule %s: %w", id, err)
	}

	metrics.RuleMutations.WithLabelValues("update").Inc()
	zap.L().Info("price rule updated", zap.String("rule_id", id), zap.Float64("value", rule.Value))
	return rule, nil
}

// DeleteRule removes the rule with the given id. Pricing then treats it as 0.
func DeleteRule(app *pocketbase.PocketBase, id string) error {
	record, err := findRuleRecord(app, id)
	if err != nil {
		return err
	}
	if err := app.Delete(record); err != nil {
		return fmt.Errorf("delete rule %s: %w", id, err)
	}

	metrics.RuleMutations.WithLabelValues("delete").Inc()
	zap.L().Info("price rule deleted", zap.String("rule_id", id))
	return nil
}

// UpsertRules creates or replaces every rule in one transaction. Rules must
// already be validated.
func UpsertRules(app *pocketbase.PocketBase, rules []pricing.Rule) (created, updated int, err error) {
	col, err := app.FindCollectionByNameOrId(collections.PriceRules)
	if err != nil {
		return 0, 0, fmt.Errorf("upsert rules: %w", err)
	}

	order := nextSortOrder(app)
	err = app.RunInTransaction(func(txApp core.App) error {
		created, updated = 0, 0
		for _, rule := range rules {
			record, findErr := txApp.FindFirstRecordByFilter(col, "rule_id = {:id}", map[string]any{"id": rule.ID})
			if findErr != nil {
				record = core.NewRecord(col)
				record.Set("sort_order", order)
				order++
				created++
			} else {
				updated++
			}
			applyRule(record, rule)
			if err := txApp.Save(record); err != nil {
				return fmt.Errorf("save rule %s: %w", rule.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	metrics.RuleMutations.WithLabelValues("import").Add(float64(created + updated))
	zap.L().Info("price rules imported", zap.Int("created", created), zap.Int("updated", updated))
	return created, updated, nil
}

func findRuleRecord(app *pocketbase.PocketBase, id string) (*core.Record, error) {
	record, err := app.FindFirstRecordByFilter(collections.PriceRules, "rule_id = {:id}", map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	return record, nil
}

func nextSortOrder(app *pocketbase.PocketBase) int {
	last, err := app.FindRecordsByFilter(collections.PriceRules, "id != ''", "-sort_order", 1, 0, nil)
	if err != nil || len(last) == 0 {
		return 1
	}
	return last[0].GetInt("sort_order") + 1
}

func ruleFromRecord(r *core.Record) pricing.Rule {
	return pricing.Rule{
		ID:       r.GetString("rule_id"),
		Name:     r.GetString("name"),
		Value:    r.GetFloat("value"),
		Kind:     pricing.RuleKind(r.GetString("kind")),
		Category: pricing.RuleCategory(r.GetString("category")),
	}
}

func applyRule(record *core.Record, rule pricing.Rule) {
	record.Set("rule_id", rule.ID)
	record.Set("name", rule.Name)
	record.Set("value", rule.Value)
	record.Set("kind", string(rule.Kind))
	record.Set("category", string(rule.Category))
}
