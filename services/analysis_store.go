package services

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"pcbquote/cam"
	"pcbquote/collections"
)

// ErrAnalysisNotFound is returned when no analysis carries the given token.
var ErrAnalysisNotFound = errors.New("analysis not found")

// LayerSummary is the stored and displayed form of one classified layer.
// Layer content is never persisted.
type LayerSummary struct {
	Filename string        `json:"filename"`
	Kind     cam.LayerKind `json:"kind"`
	Size     int           `json:"size"`
	Color    string        `json:"color"`
}

// SummarizeLayers returns the layers in viewer stack order.
func SummarizeLayers(layers []cam.LayerFile) []LayerSummary {
	ordered := cam.DisplayOrder(layers)
	out := make([]LayerSummary, len(ordered))
	for i, l := range ordered {
		out[i] = LayerSummary{Filename: l.Filename, Kind: l.Kind, Size: l.Size, Color: l.Kind.Color()}
	}
	return out
}

// SaveAnalysis stores an ingestion result under a fresh token.
func SaveAnalysis(app *pocketbase.PocketBase, filename, source string, sizeBytes int, res cam.Result) (*core.Record, error) {
	col, err := app.FindCollectionByNameOrId(collections.CAMAnalyses)
	if err != nil {
		return nil, fmt.Errorf("save analysis: %w", err)
	}

	record := core.NewRecord(col)
	record.Set("token", uuid.NewString())
	record.Set("filename", filename)
	record.Set("source", source)
	record.Set("size_bytes", sizeBytes)
	record.Set("layers", SummarizeLayers(res.Layers))
	record.Set("estimate", res.Estimate)
	record.Set("layer_count", res.Estimate.Layers)
	record.Set("detected_vias", res.Estimate.DetectedVias)
	record.Set("detected_holes", res.Estimate.DetectedHoles)

	if err := app.Save(record); err != nil {
		return nil, fmt.Errorf("save analysis %s: %w", filename, err)
	}

	zap.L().Info("cam analysis stored",
		zap.String("token", record.GetString("token")),
		zap.String("filename", filename),
		zap.String("source", source),
		zap.Int("layers", res.Estimate.Layers),
	)
	return record, nil
}

// FindAnalysis looks up an analysis by its token.
func FindAnalysis(app *pocketbase.PocketBase, token string) (*core.Record, error) {
	return app.FindFirstRecordByFilter(collections.CAMAnalyses, "token = {:token}", map[string]any{"token": token})
}

// AnalysisEstimate decodes the stored estimate of an analysis record.
func AnalysisEstimate(record *core.Record) (cam.Estimate, error) {
	var est cam.Estimate
	if err := record.UnmarshalJSONField("estimate", &est); err != nil {
		return cam.Estimate{}, fmt.Errorf("decode estimate: %w", err)
	}
	return est, nil
}

// AnalysisLayers decodes the stored layer summaries of an analysis record.
func AnalysisLayers(record *core.Record) ([]LayerSummary, error) {
	var layers []LayerSummary
	if err := record.UnmarshalJSONField("layers", &layers); err != nil {
		return nil, fmt.Errorf("decode layers: %w", err)
	}
	return layers, nil
}

// MoveAnalysisLayer moves the stored layer at from to position to, keeping
// the manual viewer order with the analysis. It returns the updated record
// and the new layer order.
func MoveAnalysisLayer(app *pocketbase.PocketBase, token string, from, to int) (*core.Record, []LayerSummary, error) {
	record, err := FindAnalysis(app, token)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrAnalysisNotFound, token)
	}
	layers, err := AnalysisLayers(record)
	if err != nil {
		return nil, nil, err
	}

	last := len(layers) - 1
	if err := (validation.Errors{
		"from": validation.Validate(from, validation.Min(0), validation.Max(last)),
		"to":   validation.Validate(to, validation.Min(0), validation.Max(last)),
	}).Filter(); err != nil {
		return nil, nil, err
	}

	moved := cam.MoveLayer(layers, from, to)
	record.Set("layers", moved)
	if err := app.Save(record); err != nil {
		return nil, nil, fmt.Errorf("move layer in analysis %s: %w", token, err)
	}

	zap.L().Debug("cam analysis layer moved",
		zap.String("token", token),
		zap.Int("from", from),
		zap.Int("to", to),
	)
	return record, moved, nil
}
