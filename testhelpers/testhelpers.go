// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"pcbquote/collections"
	"pcbquote/pricing"
)

// TestCurrencySymbol is the symbol NewSeededTestApp stores in site settings.
const TestCurrencySymbol = "₺"

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// NewSeededTestApp is NewTestApp plus the default site settings and rules.
func NewSeededTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	app := NewTestApp(t)
	if err := collections.Seed(app, TestCurrencySymbol); err != nil {
		t.Fatalf("failed to seed test app: %v", err)
	}
	return app
}

// CreateTestRule creates a price_rules record and returns it.
func CreateTestRule(t *testing.T, app *pocketbase.PocketBase, rule pricing.Rule) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId(collections.PriceRules)
	if err != nil {
		t.Fatalf("failed to find price_rules collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("rule_id", rule.ID)
	record.Set("name", rule.Name)
	record.Set("value", rule.Value)
	record.Set("kind", string(rule.Kind))
	record.Set("category", string(rule.Category))

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test rule %q: %v", rule.ID, err)
	}

	return record
}

// CreateTestAnalysis creates a cam_analyses record for an uploaded archive.
func CreateTestAnalysis(t *testing.T, app *pocketbase.PocketBase, token, filename string, layers int) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId(collections.CAMAnalyses)
	if err != nil {
		t.Fatalf("failed to find cam_analyses collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("token", token)
	record.Set("filename", filename)
	record.Set("source", collections.SourceUpload)
	record.Set("layer_count", layers)
	record.Set("layers", []any{})
	record.Set("estimate", map[string]any{"layers": layers})

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test analysis: %v", err)
	}

	return record
}

// CreateTestQuote prices the default specification against the default rule
// table and stores it under quoteNumber.
func CreateTestQuote(t *testing.T, app *pocketbase.PocketBase, quoteNumber, customer string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId(collections.Quotes)
	if err != nil {
		t.Fatalf("failed to find quotes collection: %v", err)
	}

	specs := pricing.DefaultSpecs()
	breakdown := pricing.Calculate(specs, pricing.DefaultRuleTable(), pricing.PaymentCreditCard)
	specsJSON, _ := json.Marshal(specs)
	breakdownJSON, _ := json.Marshal(breakdown)

	record := core.NewRecord(col)
	record.Set("quote_number", quoteNumber)
	record.Set("customer_name", customer)
	record.Set("payment_method", string(pricing.PaymentCreditCard))
	record.Set("specs", string(specsJSON))
	record.Set("breakdown", string(breakdownJSON))
	record.Set("total", breakdown.Total)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test quote: %v", err)
	}

	return record
}

// BuildArchive writes name/content pairs into an in-memory zip archive in
// argument order.
func BuildArchive(t *testing.T, files ...string) []byte {
	t.Helper()

	if len(files)%2 != 0 {
		t.Fatalf("BuildArchive needs name/content pairs, got %d args", len(files))
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i := 0; i < len(files); i += 2 {
		w, err := zw.Create(files[i])
		if err != nil {
			t.Fatalf("failed to add %q to archive: %v", files[i], err)
		}
		if _, err := w.Write([]byte(files[i+1])); err != nil {
			t.Fatalf("failed to write %q: %v", files[i], err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close archive: %v", err)
	}
	return buf.Bytes()
}

// AssertHTMLContains checks that body contains all specified fragments.
func AssertHTMLContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected HTML to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
