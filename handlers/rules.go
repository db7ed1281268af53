package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"pcbquote/pricing"
	"pcbquote/services"
	"pcbquote/templates"
)

// ruleInput is the JSON shape of a rule create or update. Absent fields are
// nil so updates only touch what was sent.
type ruleInput struct {
	ID       string   `json:"id"`
	Name     *string  `json:"name"`
	Value    *float64 `json:"value"`
	Kind     *string  `json:"kind"`
	Category *string  `json:"category"`
}

// ImportResponse summarizes a rule sheet import.
type ImportResponse struct {
	TotalRows int                        `json:"totalRows"`
	Created   int                        `json:"created"`
	Updated   int                        `json:"updated"`
	Errors    []services.ValidationError `json:"errors,omitempty"`
}

// readRuleInput decodes a JSON body or the submitted form fields.
func readRuleInput(e *core.RequestEvent) (ruleInput, error) {
	var in ruleInput
	if strings.HasPrefix(e.Request.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(e.Request.Body).Decode(&in); err != nil {
			return in, fmt.Errorf("decode rule: %w", err)
		}
		return in, nil
	}

	if err := e.Request.ParseForm(); err != nil {
		return in, fmt.Errorf("parse form: %w", err)
	}
	form := e.Request.PostForm
	in.ID = strings.TrimSpace(form.Get("id"))

	str := func(key string) *string {
		if !form.Has(key) {
			return nil
		}
		v := strings.TrimSpace(form.Get(key))
		return &v
	}
	in.Name = str("name")
	in.Kind = str("kind")
	in.Category = str("category")

	if v := str("value"); v != nil {
		if *v == "" {
			zero := 0.0
			in.Value = &zero
		} else {
			f, err := cast.ToFloat64E(*v)
			if err != nil {
				return in, validation.Errors{"value": fmt.Errorf("must be a number")}
			}
			in.Value = &f
		}
	}
	return in, nil
}

func (in ruleInput) rule() pricing.Rule {
	r := pricing.Rule{ID: in.ID}
	if in.Name != nil {
		r.Name = *in.Name
	}
	if in.Value != nil {
		r.Value = *in.Value
	}
	if in.Kind != nil {
		r.Kind = pricing.RuleKind(strings.ToLower(*in.Kind))
	}
	if in.Category != nil {
		r.Category = pricing.RuleCategory(strings.ToLower(*in.Category))
	}
	return r
}

func (in ruleInput) patch() services.RulePatch {
	p := services.RulePatch{Name: in.Name, Value: in.Value}
	if in.Kind != nil {
		k := pricing.RuleKind(strings.ToLower(*in.Kind))
		p.Kind = &k
	}
	if in.Category != nil {
		c := pricing.RuleCategory(strings.ToLower(*in.Category))
		p.Category = &c
	}
	return p
}

// ruleTableData groups rules by category in admin display order. Rules with
// a category outside the known list are shown last.
func ruleTableData(rules []pricing.Rule) templates.RuleTableData {
	data := templates.RuleTableData{}
	for _, k := range pricing.RuleKinds {
		data.Kinds = append(data.Kinds, string(k))
	}

	byCategory := make(map[pricing.RuleCategory][]templates.RuleRow)
	var extra []pricing.RuleCategory
	for _, r := range rules {
		if _, seen := byCategory[r.Category]; !seen {
			known := false
			for _, c := range pricing.RuleCategories {
				if c == r.Category {
					known = true
					break
				}
			}
			if !known {
				extra = append(extra, r.Category)
			}
		}
		byCategory[r.Category] = append(byCategory[r.Category], templates.RuleRow{
			ID:       r.ID,
			Name:     r.Name,
			Value:    strconv.FormatFloat(r.Value, 'f', -1, 64),
			Kind:     string(r.Kind),
			Category: string(r.Category),
		})
	}

	for _, c := range append(append([]pricing.RuleCategory{}, pricing.RuleCategories...), extra...) {
		data.Categories = append(data.Categories, string(c))
		if rows := byCategory[c]; len(rows) > 0 {
			data.Groups = append(data.Groups, templates.RuleGroup{Category: string(c), Rules: rows})
		}
	}
	return data
}

// respondRules answers with the current rule table.
func respondRules(e *core.RequestEvent, app *pocketbase.PocketBase, status int) error {
	rules, err := services.LoadRules(app)
	if err != nil {
		return respondError(e, "rules", err)
	}
	if isHTMX(e) {
		e.Response.Header().Set("Content-Type", "text/html; charset=utf-8")
		e.Response.WriteHeader(status)
		return templates.RuleTable(ruleTableData(rules)).Render(e.Request.Context(), e.Response)
	}
	return e.JSON(status, map[string]any{"rules": rules})
}

// HandleRuleList returns the stored price rules.
func HandleRuleList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		return respondRules(e, app, http.StatusOK)
	}
}

// HandleRuleCreate adds a rule with a new id.
func HandleRuleCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		in, err := readRuleInput(e)
		if err != nil {
			return respondBadInput(e, "rule_create", err)
		}
		rule := in.rule()
		if _, err := services.CreateRule(app, rule); err != nil {
			return respondError(e, "rule_create", err)
		}
		if isHTMX(e) {
			SetToast(e, toastSuccess, fmt.Sprintf("Rule %s added", rule.ID))
		}
		return respondRules(e, app, http.StatusCreated)
	}
}

// HandleRuleUpdate changes the submitted fields of one rule.
func HandleRuleUpdate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		in, err := readRuleInput(e)
		if err != nil {
			return respondBadInput(e, "rule_update", err)
		}
		if _, err := services.UpdateRule(app, id, in.patch()); err != nil {
			return respondError(e, "rule_update", err)
		}
		if isHTMX(e) {
			SetToast(e, toastSuccess, fmt.Sprintf("Rule %s saved", id))
		}
		return respondRules(e, app, http.StatusOK)
	}
}

// HandleRuleDelete removes one rule.
func HandleRuleDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		if err := services.DeleteRule(app, id); err != nil {
			return respondError(e, "rule_delete", err)
		}
		if isHTMX(e) {
			SetToast(e, toastSuccess, fmt.Sprintf("Rule %s deleted", id))
		}
		return respondRules(e, app, http.StatusOK)
	}
}

// HandleRuleExport downloads the rule table as an Excel file.
func HandleRuleExport(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rules, err := services.LoadRules(app)
		if err != nil {
			zap.L().Error("rule_export: failed to load rules", zap.Error(err))
			return e.String(http.StatusInternalServerError, "Failed to load price rules")
		}

		xlsxBytes, err := services.GenerateRulesExcel(rules)
		if err != nil {
			zap.L().Error("rule_export: failed to generate", zap.Error(err))
			return e.String(http.StatusInternalServerError, "Failed to generate Excel file")
		}

		e.Response.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		e.Response.Header().Set("Content-Disposition", `attachment; filename="Price_Rules.xlsx"`)
		e.Response.Write(xlsxBytes)
		return nil
	}
}

// HandleRuleImport upserts rules from an uploaded .xlsx or .csv sheet. A
// sheet with any invalid row is rejected whole; ?report=xlsx returns the
// row errors as a spreadsheet instead of JSON.
func HandleRuleImport(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		file, header, err := e.Request.FormFile("file")
		if err != nil {
			return respondBadInput(e, "rule_import", fmt.Errorf("read upload: %w", err))
		}
		defer file.Close()

		result, err := services.ParseRuleSheet(file, header.Filename)
		if err != nil {
			zap.L().Info("rule_import: unreadable sheet", zap.String("file", header.Filename), zap.Error(err))
			msg := "Could not read " + header.Filename + ": " + err.Error()
			if isHTMX(e) {
				return ErrorToast(e, http.StatusBadRequest, msg)
			}
			return e.JSON(http.StatusBadRequest, map[string]any{"error": msg})
		}

		if result.ErrorRows > 0 {
			zap.L().Info("rule_import: rejected",
				zap.String("file", header.Filename),
				zap.Int("error_rows", result.ErrorRows),
			)
			if e.Request.URL.Query().Get("report") == "xlsx" {
				report, err := services.GenerateErrorReport(result.Errors)
				if err != nil {
					return respondError(e, "rule_import", err)
				}
				e.Response.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
				e.Response.Header().Set("Content-Disposition", `attachment; filename="Rule_Import_Errors.xlsx"`)
				e.Response.WriteHeader(http.StatusBadRequest)
				e.Response.Write(report)
				return nil
			}
			msg := fmt.Sprintf("%d of %d rows have errors. Nothing was imported.", result.ErrorRows, result.TotalRows)
			if isHTMX(e) {
				return ErrorToast(e, http.StatusBadRequest, msg)
			}
			return e.JSON(http.StatusBadRequest, ImportResponse{
				TotalRows: result.TotalRows,
				Errors:    result.Errors,
			})
		}

		created, updated, err := services.UpsertRules(app, result.Rules)
		if err != nil {
			return respondError(e, "rule_import", err)
		}

		if isHTMX(e) {
			SetToast(e, toastSuccess, fmt.Sprintf("Imported %d rules (%d new, %d updated)", created+updated, created, updated))
			return respondRules(e, app, http.StatusOK)
		}
		return e.JSON(http.StatusOK, ImportResponse{
			TotalRows: result.TotalRows,
			Created:   created,
			Updated:   updated,
		})
	}
}
