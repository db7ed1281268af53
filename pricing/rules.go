package pricing

import (
	_ "embed"
	"fmt"
	"regexp"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// RuleKind is the arithmetic role of a rule's value.
type RuleKind string

const (
	KindBase       RuleKind = "base"
	KindFixed      RuleKind = "fixed"
	KindMultiplier RuleKind = "multiplier"
	KindPerUnit    RuleKind = "per_unit"
)

// RuleKinds lists every rule kind.
var RuleKinds = []RuleKind{KindBase, KindFixed, KindMultiplier, KindPerUnit}

// RuleCategory groups rules for the admin table.
type RuleCategory string

const (
	CategoryLayer    RuleCategory = "layer"
	CategoryFinish   RuleCategory = "finish"
	CategoryColor    RuleCategory = "color"
	CategoryShipping RuleCategory = "shipping"
	CategoryStencil  RuleCategory = "stencil"
	CategoryOther    RuleCategory = "other"
)

// RuleCategories lists every category in admin display order.
var RuleCategories = []RuleCategory{
	CategoryLayer, CategoryFinish, CategoryColor, CategoryShipping, CategoryStencil, CategoryOther,
}

// Rule ids read by the engine.
const (
	RuleBase2Layer         = "base_2layer"
	RuleBase4Layer         = "base_4layer"
	RuleEngineeringFee     = "eng_fee"
	RuleFinishLeadFreeHASL = "finish_lf_hasl"
	RuleFinishENIG         = "finish_enig"
	RuleFinishSilver       = "finish_silver"
	RuleShippingBase       = "shipping_base"
	RuleShippingPerKg      = "shipping_per_kg"
	RuleStencilBase        = "stencil_base"
	RuleStencilFrame       = "stencil_frame"
	RuleStencilElectro     = "stencil_mult_electro"
	RuleStencilNickel      = "stencil_mult_nickel"
	RuleStencilPlastic     = "stencil_mult_plastic"
)

var ruleIDPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Rule is one named, priced item of the rule table.
type Rule struct {
	ID       string       `json:"id" yaml:"id"`
	Name     string       `json:"name" yaml:"name"`
	Value    float64      `json:"value" yaml:"value"`
	Kind     RuleKind     `json:"kind" yaml:"kind"`
	Category RuleCategory `json:"category" yaml:"category"`
}

// Validate checks the id format and that kind and category are known.
func (r Rule) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required, validation.Length(1, 64),
			validation.Match(ruleIDPattern).Error("must contain only lowercase letters, digits and underscores")),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 120)),
		validation.Field(&r.Kind, validation.Required, validation.In(anySlice(RuleKinds)...)),
		validation.Field(&r.Category, validation.Required, validation.In(anySlice(RuleCategories)...)),
	)
}

// RuleTable is an immutable snapshot of the rule table. A calculation reads
// one snapshot from start to finish, so admin edits made meanwhile cannot
// interleave with it.
type RuleTable struct {
	byID  map[string]Rule
	order []string
}

// NewRuleTable snapshots rules. A repeated id keeps the last definition at
// the position of the first.
func NewRuleTable(rules []Rule) RuleTable {
	t := RuleTable{byID: make(map[string]Rule, len(rules))}
	for _, r := range rules {
		if _, seen := t.byID[r.ID]; !seen {
			t.order = append(t.order, r.ID)
		}
		t.byID[r.ID] = r
	}
	return t
}

// Value returns the value of rule id, or 0 when the rule does not exist.
func (t RuleTable) Value(id string) float64 {
	return t.byID[id].Value
}

// Rule looks up one rule by id.
func (t RuleTable) Rule(id string) (Rule, bool) {
	r, ok := t.byID[id]
	return r, ok
}

// Rules returns a copy of the rules in insertion order.
func (t RuleTable) Rules() []Rule {
	out := make([]Rule, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.byID[id])
	}
	return out
}

// ByCategory returns the rules of one category in insertion order.
func (t RuleTable) ByCategory(c RuleCategory) []Rule {
	return slices.DeleteFunc(t.Rules(), func(r Rule) bool { return r.Category != c })
}

// Len is the number of rules in the snapshot.
func (t RuleTable) Len() int { return len(t.order) }

//go:embed default_rules.yaml
var defaultRulesYAML []byte

// DefaultRules returns the storefront's starting rule table.
func DefaultRules() []Rule {
	var doc struct {
		Rules []Rule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(defaultRulesYAML, &doc); err != nil {
		panic(fmt.Sprintf("pricing: embedded default rules are invalid: %v", err))
	}
	return doc.Rules
}

// DefaultRuleTable is NewRuleTable(DefaultRules()).
func DefaultRuleTable() RuleTable {
	return NewRuleTable(DefaultRules())
}

func anySlice[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
