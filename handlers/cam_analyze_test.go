package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pcbquote/cam"
	"pcbquote/config"
	"pcbquote/services"
	"pcbquote/testhelpers"
)

const testOutline = "X0Y0D02*\nX1000000Y0D01*\nX1000000Y500000D01*\nX0Y500000D01*\nM02*\n"

func testArchive(t *testing.T) []byte {
	return testhelpers.BuildArchive(t,
		"board.gtl", "G04 top*\n",
		"board.gbl", "G04 bottom*\n",
		"board.gko", testOutline,
		"board.drl", "M48\nT01C0.300\n%\nT01\nX1Y1\nX2Y2\nM30\n",
	)
}

func TestHandleCAMAnalyze_JSON(t *testing.T) {
	app := testhelpers.NewSeededTestApp(t)
	handler := HandleCAMAnalyze(app, config.Default())

	req := newUploadRequest(t, "/api/cam/analyze", "file", "board.zip", testArchive(t))
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp AnalyzeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.AnalysisID == "" {
		t.Error("expected an analysis id")
	}
	if len(resp.Layers) != 4 {
		t.Errorf("expected 4 layers, got %d", len(resp.Layers))
	}
	if resp.EstimatedSpecs.Layers != 2 {
		t.Errorf("expected 2 layers estimated, got %d", resp.EstimatedSpecs.Layers)
	}
	if resp.EstimatedSpecs.DetectedVias != 2 {
		t.Errorf("expected 2 vias, got %d", resp.EstimatedSpecs.DetectedVias)
	}
	if resp.Specs.Layers != 2 || resp.Specs.DetectedVias != 2 {
		t.Errorf("estimate not merged into specs: %+v", resp.Specs)
	}

	if _, err := services.FindAnalysis(app, resp.AnalysisID); err != nil {
		t.Errorf("analysis was not stored: %v", err)
	}
}

func TestHandleCAMAnalyze_HTMX(t *testing.T) {
	app := testhelpers.NewSeededTestApp(t)
	handler := HandleCAMAnalyze(app, config.Default())

	req := newUploadRequest(t, "/api/cam/analyze", "file", "board.zip", testArchive(t))
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	testhelpers.AssertHTMLContains(t, rec.Body.String(),
		`id="layer-list"`,
		"board.gtl",
		"board.drl",
	)
	if rec.Header().Get("HX-Trigger") == "" {
		t.Error("expected a toast trigger")
	}
}

func TestHandleCAMAnalyze_NotZip(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	handler := HandleCAMAnalyze(app, config.Default())

	req := newUploadRequest(t, "/api/cam/analyze", "file", "board.zip", []byte("just some text, not an archive"))
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	_ = handler(e)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
}

func TestHandleCAMAnalyze_MissingFile(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	handler := HandleCAMAnalyze(app, config.Default())

	req := newUploadRequest(t, "/api/cam/analyze", "other", "board.zip", testArchive(t))
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	_ = handler(e)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleCAMAnalyze_TooLarge(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	cfg := config.Default()
	cfg.MaxUploadMB = 0
	handler := HandleCAMAnalyze(app, cfg)

	req := newUploadRequest(t, "/api/cam/analyze", "file", "board.zip", testArchive(t))
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	_ = handler(e)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
}

func TestLayerListData(t *testing.T) {
	resp := AnalyzeResponse{
		AnalysisID: "tok",
		Filename:   "board.zip",
		Layers: []services.LayerSummary{
			{Filename: "board.gtl", Kind: cam.KindTopCopper, Size: 2048, Color: "#c87533"},
		},
	}
	resp.EstimatedSpecs.Layers = 2

	data := layerListData(resp)
	if data.Dimensions != "" {
		t.Errorf("expected no dimensions, got %q", data.Dimensions)
	}
	if len(data.Layers) != 1 || data.Layers[0].Size != "2.0 kB" {
		t.Errorf("layers = %+v", data.Layers)
	}
}
