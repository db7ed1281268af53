package main

import (
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"pcbquote/cli"
	"pcbquote/collections"
	"pcbquote/config"
	"pcbquote/handlers"
	"pcbquote/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.Must(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	app := pocketbase.New()
	cli.Register(app, cfg)

	// Create collections and seed data on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if err := collections.Seed(app, cfg.CurrencySymbol); err != nil {
			zap.L().Warn("startup: seed data failed", zap.Error(err))
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		// Currency symbol for every request
		se.Router.BindFunc(handlers.SiteSettingsMiddleware(app, cfg.CurrencySymbol))

		// ── CAM upload and pricing ──────────────────────────────
		se.Router.POST("/api/cam/analyze", handlers.HandleCAMAnalyze(app, cfg))
		se.Router.GET("/api/cam/analyses/{token}", handlers.HandleAnalysisGet(app))
		se.Router.POST("/api/cam/analyses/{token}/layers/move", handlers.HandleAnalysisMoveLayer(app))
		se.Router.POST("/api/quote/price", handlers.HandleQuotePrice(app, cfg))

		// ── Quotes ──────────────────────────────────────────────
		se.Router.POST("/quotes", handlers.HandleQuoteSave(app, cfg))
		se.Router.GET("/quotes/{id}/export/excel", handlers.HandleQuoteExportExcel(app, cfg))
		se.Router.GET("/quotes/{id}/export/pdf", handlers.HandleQuoteExportPDF(app, cfg))

		// ── Price rule administration ───────────────────────────
		// export/import must be registered before {id} to avoid matching them as ids
		se.Router.GET("/admin/rules/export", handlers.HandleRuleExport(app))
		se.Router.POST("/admin/rules/import", handlers.HandleRuleImport(app))
		se.Router.GET("/admin/rules", handlers.HandleRuleList(app))
		se.Router.POST("/admin/rules", handlers.HandleRuleCreate(app))
		se.Router.POST("/admin/rules/{id}", handlers.HandleRuleUpdate(app))
		se.Router.DELETE("/admin/rules/{id}", handlers.HandleRuleDelete(app))

		// ── Metrics ─────────────────────────────────────────────
		se.Router.GET("/metrics", apis.WrapStdHandler(promhttp.Handler()))

		return se.Next()
	})

	zap.L().Info("starting pcbquote",
		zap.Int("max_upload_mb", cfg.MaxUploadMB),
		zap.Int("ingest_workers", cfg.IngestWorkers),
	)
	if err := app.Start(); err != nil {
		zap.L().Fatal("pcbquote stopped", zap.Error(err))
	}
}
