package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"pcbquote/config"
	"pcbquote/services"
)

// sanitizeFilename removes characters that are unsafe for filenames.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.ReplaceAll(s, ":", "-")
	s = strings.ReplaceAll(s, `"`, "")
	return s
}

// loadExportData reads the quote named by the {id} path value.
func loadExportData(e *core.RequestEvent, app *pocketbase.PocketBase, cfg config.Config) (services.ExportData, bool, error) {
	quoteID := e.Request.PathValue("id")
	if quoteID == "" {
		return services.ExportData{}, false, e.String(http.StatusBadRequest, "Missing quote ID")
	}

	q, err := services.LoadQuote(app, quoteID)
	if err != nil {
		zap.L().Info("quote_export: quote not found", zap.String("quote_id", quoteID), zap.Error(err))
		return services.ExportData{}, false, e.String(http.StatusNotFound, "Quote not found")
	}
	return services.BuildExportData(q, currencySymbol(e, app, cfg.CurrencySymbol)), true, nil
}

// HandleQuoteExportExcel returns a handler that generates and downloads an Excel file for a quote.
func HandleQuoteExportExcel(app *pocketbase.PocketBase, cfg config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		data, ok, err := loadExportData(e, app, cfg)
		if !ok {
			return err
		}

		xlsxBytes, err := services.GenerateQuoteExcel(data)
		if err != nil {
			zap.L().Error("export_excel: failed to generate", zap.String("quote", data.QuoteNumber), zap.Error(err))
			return e.String(http.StatusInternalServerError, "Failed to generate Excel file")
		}

		filename := fmt.Sprintf("Quote_%s.xlsx", sanitizeFilename(data.QuoteNumber))

		e.Response.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		e.Response.Write(xlsxBytes)
		return nil
	}
}

// HandleQuoteExportPDF returns a handler that generates and downloads a PDF file for a quote.
func HandleQuoteExportPDF(app *pocketbase.PocketBase, cfg config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		data, ok, err := loadExportData(e, app, cfg)
		if !ok {
			return err
		}

		pdfBytes, err := services.GenerateQuotePDF(data)
		if err != nil {
			zap.L().Error("export_pdf: failed to generate", zap.String("quote", data.QuoteNumber), zap.Error(err))
			return e.String(http.StatusInternalServerError, "Failed to generate PDF file")
		}

		filename := fmt.Sprintf("Quote_%s.pdf", sanitizeFilename(data.QuoteNumber))

		e.Response.Header().Set("Content-Type", "application/pdf")
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		e.Response.Write(pdfBytes)
		return nil
	}
}
