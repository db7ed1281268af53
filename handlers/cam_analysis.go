package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"

	"pcbquote/pricing"
	"pcbquote/services"
	"pcbquote/templates"
)

// moveInput is one manual reorder step in the layer viewer.
type moveInput struct {
	From *int `json:"from"`
	To   *int `json:"to"`
}

// readMoveInput decodes a JSON body or the from/to form fields.
func readMoveInput(e *core.RequestEvent) (int, int, error) {
	var in moveInput
	if strings.HasPrefix(e.Request.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(e.Request.Body).Decode(&in); err != nil {
			return 0, 0, fmt.Errorf("decode move: %w", err)
		}
	} else {
		if err := e.Request.ParseForm(); err != nil {
			return 0, 0, fmt.Errorf("parse form: %w", err)
		}
		errs := validation.Errors{}
		for key, dst := range map[string]**int{"from": &in.From, "to": &in.To} {
			raw := strings.TrimSpace(e.Request.PostForm.Get(key))
			if raw == "" {
				continue
			}
			n, err := cast.ToIntE(raw)
			if err != nil {
				errs[key] = fmt.Errorf("must be a whole number")
				continue
			}
			*dst = &n
		}
		if len(errs) > 0 {
			return 0, 0, errs
		}
	}

	errs := validation.Errors{}
	if in.From == nil {
		errs["from"] = validation.ErrRequired
	}
	if in.To == nil {
		errs["to"] = validation.ErrRequired
	}
	if len(errs) > 0 {
		return 0, 0, errs
	}
	return *in.From, *in.To, nil
}

// analysisResponse rebuilds the upload response from a stored analysis.
func analysisResponse(record *core.Record, layers []services.LayerSummary) (AnalyzeResponse, error) {
	est, err := services.AnalysisEstimate(record)
	if err != nil {
		return AnalyzeResponse{}, err
	}
	return AnalyzeResponse{
		AnalysisID:     record.GetString("token"),
		Filename:       record.GetString("filename"),
		Layers:         layers,
		EstimatedSpecs: est,
		Specs:          pricing.MergeEstimate(pricing.DefaultSpecs(), est),
	}, nil
}

func respondAnalysis(e *core.RequestEvent, resp AnalyzeResponse) error {
	if isHTMX(e) {
		return templates.LayerList(layerListData(resp)).Render(e.Request.Context(), e.Response)
	}
	return e.JSON(http.StatusOK, resp)
}

// HandleAnalysisGet returns a stored analysis by token, with its layers in
// their current viewer order.
func HandleAnalysisGet(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		token := e.Request.PathValue("token")
		record, err := services.FindAnalysis(app, token)
		if err != nil {
			return respondError(e, "cam_analysis", fmt.Errorf("%w: %s", services.ErrAnalysisNotFound, token))
		}
		layers, err := services.AnalysisLayers(record)
		if err != nil {
			return respondError(e, "cam_analysis", err)
		}
		resp, err := analysisResponse(record, layers)
		if err != nil {
			return respondError(e, "cam_analysis", err)
		}
		return respondAnalysis(e, resp)
	}
}

// HandleAnalysisMoveLayer moves one layer of a stored analysis and answers
// with the reordered list.
func HandleAnalysisMoveLayer(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		from, to, err := readMoveInput(e)
		if err != nil {
			return respondBadInput(e, "cam_move", err)
		}

		record, layers, err := services.MoveAnalysisLayer(app, e.Request.PathValue("token"), from, to)
		if err != nil {
			return respondError(e, "cam_move", err)
		}
		resp, err := analysisResponse(record, layers)
		if err != nil {
			return respondError(e, "cam_move", err)
		}
		return respondAnalysis(e, resp)
	}
}
