package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"pcbquote/cam"
	"pcbquote/collections"
	"pcbquote/config"
	"pcbquote/pricing"
	"pcbquote/services"
	"pcbquote/templates"
)

// AnalyzeResponse is the JSON body returned after an archive is analyzed.
type AnalyzeResponse struct {
	AnalysisID     string                  `json:"analysisId"`
	Filename       string                  `json:"filename"`
	Layers         []services.LayerSummary `json:"layers"`
	EstimatedSpecs cam.Estimate            `json:"estimatedSpecs"`
	Specs          pricing.BoardSpecs      `json:"specs"`
}

// HandleCAMAnalyze accepts a multipart "file" upload, checks that it is a ZIP
// archive within the configured size, ingests it and stores the analysis.
// The response carries the analysis token the quote form sends back.
func HandleCAMAnalyze(app *pocketbase.PocketBase, cfg config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		limit := cfg.MaxUploadBytes()
		// Leave room for the multipart envelope around the file itself.
		e.Request.Body = http.MaxBytesReader(e.Response, e.Request.Body, limit+1<<20)

		file, header, err := e.Request.FormFile("file")
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return uploadTooLarge(e, cfg)
			}
			zap.L().Debug("cam_upload: no file in request", zap.Error(err))
			if isHTMX(e) {
				return ErrorToast(e, http.StatusBadRequest, "Please choose a .zip archive to upload.")
			}
			return e.JSON(http.StatusBadRequest, map[string]any{"error": "Please choose a .zip archive to upload."})
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, limit+1))
		if err != nil {
			return respondError(e, "cam_upload", fmt.Errorf("read upload: %w", err))
		}
		if int64(len(data)) > limit {
			return uploadTooLarge(e, cfg)
		}

		if err := cam.SniffArchive(data); err != nil {
			zap.L().Info("cam_upload: rejected non-zip upload",
				zap.String("filename", header.Filename), zap.Error(err))
			return respondError(e, "cam_upload", err)
		}

		res, err := cam.Ingest(e.Request.Context(), data,
			cam.WithLogger(zap.L()),
			cam.WithWorkers(cfg.IngestWorkers),
			cam.WithMaxEntrySize(cfg.MaxEntryBytes()),
		)
		if err != nil {
			return respondError(e, "cam_upload", err)
		}

		record, err := services.SaveAnalysis(app, header.Filename, collections.SourceUpload, len(data), res)
		if err != nil {
			zap.L().Error("cam_upload: could not save analysis",
				zap.String("filename", header.Filename), zap.Error(err))
			return respondError(e, "cam_upload", err)
		}

		resp := AnalyzeResponse{
			AnalysisID:     record.GetString("token"),
			Filename:       header.Filename,
			Layers:         services.SummarizeLayers(res.Layers),
			EstimatedSpecs: res.Estimate,
			Specs:          pricing.MergeEstimate(pricing.DefaultSpecs(), res.Estimate),
		}

		if isHTMX(e) {
			SetToast(e, toastSuccess, fmt.Sprintf("Found %d layers in %s", len(resp.Layers), header.Filename))
			return templates.LayerList(layerListData(resp)).Render(e.Request.Context(), e.Response)
		}
		return e.JSON(http.StatusOK, resp)
	}
}

func uploadTooLarge(e *core.RequestEvent, cfg config.Config) error {
	msg := fmt.Sprintf("Archives are limited to %d MB.", cfg.MaxUploadMB)
	zap.L().Info("cam_upload: rejected oversized upload", zap.Int("limit_mb", cfg.MaxUploadMB))
	if isHTMX(e) {
		return ErrorToast(e, http.StatusRequestEntityTooLarge, msg)
	}
	return e.JSON(http.StatusRequestEntityTooLarge, map[string]any{"error": msg})
}

// layerListData formats an analysis for the upload panel.
func layerListData(resp AnalyzeResponse) templates.LayerListData {
	rows := make([]templates.LayerRow, len(resp.Layers))
	for i, l := range resp.Layers {
		rows[i] = templates.LayerRow{
			Filename: l.Filename,
			Kind:     string(l.Kind),
			Size:     services.FormatSize(l.Size),
			Color:    l.Color,
		}
	}

	data := templates.LayerListData{
		AnalysisID: resp.AnalysisID,
		Filename:   resp.Filename,
		Layers:     rows,
		LayerCount: resp.EstimatedSpecs.Layers,
		Vias:       resp.EstimatedSpecs.DetectedVias,
		Holes:      resp.EstimatedSpecs.DetectedHoles,
	}
	if d := resp.EstimatedSpecs.Dimensions; d != nil {
		data.Dimensions = fmt.Sprintf("%g x %g mm", d.X, d.Y)
	}
	return data
}
