package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// RuleRow is one editable price rule.
type RuleRow struct {
	ID       string
	Name     string
	Value    string
	Kind     string
	Category string
}

// RuleGroup is the rules of one category.
type RuleGroup struct {
	Category string
	Rules    []RuleRow
}

// RuleTableData feeds the admin rule editor.
type RuleTableData struct {
	Groups     []RuleGroup
	Kinds      []string
	Categories []string
}

// RuleTable renders the rule editor grouped by category. Each row posts its
// own update form.
func RuleTable(data RuleTableData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}

		h.raw(`<div id="rule-table">`)
		h.raw(`<div class="flex gap-2 mb-4">`)
		h.raw(`<a class="btn btn-sm" href="/admin/rules/export">Export</a>`)
		h.raw(`<form hx-post="/admin/rules/import" hx-encoding="multipart/form-data" hx-target="#rule-table" hx-swap="outerHTML">`)
		h.raw(`<input type="file" name="file" accept=".xlsx,.csv" class="file-input file-input-sm">`)
		h.raw(`<button class="btn btn-sm" type="submit">Import</button></form>`)
		h.raw(`</div>`)

		for _, g := range data.Groups {
			h.raw(`<section class="rule-group"><h3 class="capitalize">`)
			h.text(g.Category)
			h.raw(`</h3><table class="table table-sm"><thead><tr>`)
			h.raw(`<th>ID</th><th>Name</th><th>Value</th><th>Kind</th><th></th>`)
			h.raw(`</tr></thead><tbody>`)
			for _, r := range g.Rules {
				id := templ.EscapeString(r.ID)
				h.raw(`<tr id="rule-`, id, `">`)
				h.raw(`<td><code>`, id, `</code></td>`)
				h.raw(`<td><input class="input input-xs" name="name" form="rule-form-`, id, `" value="`)
				h.text(r.Name)
				h.raw(`"></td>`)
				h.raw(`<td><input class="input input-xs" type="number" step="any" name="value" form="rule-form-`, id, `" value="`)
				h.text(r.Value)
				h.raw(`"></td>`)
				h.raw(`<td><select class="select select-xs" name="kind" form="rule-form-`, id, `">`)
				for _, k := range data.Kinds {
					h.raw(`<option value="`)
					h.text(k)
					h.raw(`"`)
					if k == r.Kind {
						h.raw(` selected`)
					}
					h.raw(`>`)
					h.text(k)
					h.raw(`</option>`)
				}
				h.raw(`</select></td>`)
				h.raw(`<td class="flex gap-1">`)
				h.raw(`<form id="rule-form-`, id, `" hx-post="/admin/rules/`, id, `" hx-target="#rule-table" hx-swap="outerHTML">`)
				h.raw(`<button class="btn btn-xs" type="submit">Save</button></form>`)
				h.raw(`<button class="btn btn-xs btn-error" hx-delete="/admin/rules/`, id,
					`" hx-confirm="Delete this rule?" hx-target="#rule-table" hx-swap="outerHTML">Delete</button>`)
				h.raw(`</td></tr>`)
			}
			h.raw(`</tbody></table></section>`)
		}

		h.raw(`<form class="rule-create" hx-post="/admin/rules" hx-target="#rule-table" hx-swap="outerHTML">`)
		h.raw(`<input class="input input-sm" name="id" placeholder="rule_id" required>`)
		h.raw(`<input class="input input-sm" name="name" placeholder="Name" required>`)
		h.raw(`<input class="input input-sm" type="number" step="any" name="value" placeholder="0">`)
		h.raw(`<select class="select select-sm" name="kind">`)
		for _, k := range data.Kinds {
			h.raw(`<option value="`)
			h.text(k)
			h.raw(`">`)
			h.text(k)
			h.raw(`</option>`)
		}
		h.raw(`</select><select class="select select-sm" name="category">`)
		for _, c := range data.Categories {
			h.raw(`<option value="`)
			h.text(c)
			h.raw(`">`)
			h.text(c)
			h.raw(`</option>`)
		}
		h.raw(`</select><button class="btn btn-sm btn-primary" type="submit">Add rule</button></form>`)

		h.raw(`</div>`)
		return h.err
	})
}
