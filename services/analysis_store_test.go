package services

import (
	"context"
	"errors"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"pcbquote/cam"
	"pcbquote/collections"
	"pcbquote/testhelpers"
)

const testOutline = "X0Y0D02*\nX1000000Y0D01*\nX1000000Y500000D01*\nX0Y500000D01*\nM02*\n"

func TestSaveAnalysis_RoundTrip(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	data := testhelpers.BuildArchive(t,
		"board.gbl", "G04 bottom*\n",
		"board.gtl", "G04 top*\n",
		"board.gko", testOutline,
		"board.drl", "M48\nT01C0.300\nT02C1.000\n%\nT01\nX1Y1\nX2Y2\nT02\nX3Y3\nM30\n",
	)
	res, err := cam.Ingest(context.Background(), data)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	record, err := SaveAnalysis(app, "board.zip", collections.SourceUpload, len(data), res)
	if err != nil {
		t.Fatalf("SaveAnalysis() error = %v", err)
	}
	token := record.GetString("token")
	if token == "" {
		t.Fatal("expected a token")
	}
	if record.GetInt("layer_count") != res.Estimate.Layers {
		t.Errorf("layer_count = %d", record.GetInt("layer_count"))
	}

	found, err := FindAnalysis(app, token)
	if err != nil {
		t.Fatalf("FindAnalysis() error = %v", err)
	}

	est, err := AnalysisEstimate(found)
	if err != nil {
		t.Fatalf("AnalysisEstimate() error = %v", err)
	}
	if est.Layers != 2 || est.DetectedVias != 2 || est.DetectedHoles != 1 {
		t.Errorf("estimate = %+v", est)
	}
	if est.Dimensions == nil {
		t.Fatal("expected dimensions")
	}

	layers, err := AnalysisLayers(found)
	if err != nil {
		t.Fatalf("AnalysisLayers() error = %v", err)
	}
	if len(layers) != 4 {
		t.Fatalf("got %d layers", len(layers))
	}
	// Stack order puts top copper before bottom copper.
	if layers[0].Kind != cam.KindTopCopper || layers[1].Kind != cam.KindBottomCopper {
		t.Errorf("layer order = %v, %v", layers[0].Kind, layers[1].Kind)
	}
	if layers[0].Color == "" {
		t.Error("expected a display color")
	}
}

func TestFindAnalysis_Unknown(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	if _, err := FindAnalysis(app, "nope"); err == nil {
		t.Error("expected an error for an unknown token")
	}
}

func TestMoveAnalysisLayer(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	data := testhelpers.BuildArchive(t,
		"board.gtl", "G04 top*\n",
		"board.gbl", "G04 bottom*\n",
		"board.gko", testOutline,
	)
	res, err := cam.Ingest(context.Background(), data)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	record, err := SaveAnalysis(app, "board.zip", collections.SourceUpload, len(data), res)
	if err != nil {
		t.Fatalf("SaveAnalysis() error = %v", err)
	}
	token := record.GetString("token")

	before, _ := AnalysisLayers(record)
	_, moved, err := MoveAnalysisLayer(app, token, 0, len(before)-1)
	if err != nil {
		t.Fatalf("MoveAnalysisLayer() error = %v", err)
	}
	if moved[len(moved)-1].Filename != before[0].Filename {
		t.Errorf("last layer = %q, want %q", moved[len(moved)-1].Filename, before[0].Filename)
	}

	// The new order is what the next read sees.
	found, _ := FindAnalysis(app, token)
	stored, _ := AnalysisLayers(found)
	for i := range moved {
		if stored[i].Filename != moved[i].Filename {
			t.Errorf("stored[%d] = %q, want %q", i, stored[i].Filename, moved[i].Filename)
		}
	}
}

func TestMoveAnalysisLayer_Errors(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	record := testhelpers.CreateTestAnalysis(t, app, "tok-1", "board.zip", 2)

	if _, _, err := MoveAnalysisLayer(app, "missing", 0, 1); !errors.Is(err, ErrAnalysisNotFound) {
		t.Errorf("expected ErrAnalysisNotFound, got %v", err)
	}

	layers, _ := AnalysisLayers(record)
	var verrs validation.Errors
	if _, _, err := MoveAnalysisLayer(app, "tok-1", 0, len(layers)); !errors.As(err, &verrs) {
		t.Errorf("expected a validation error for an out-of-range target, got %v", err)
	} else if _, ok := verrs["to"]; !ok {
		t.Errorf("expected a to error, got %v", verrs)
	}
}
