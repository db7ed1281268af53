// Package cli adds the analyze, price and watch commands to the PocketBase
// root command.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"pcbquote/cam"
	"pcbquote/config"
	"pcbquote/services"
)

// Register attaches the pcbquote commands to app.RootCmd.
func Register(app *pocketbase.PocketBase, cfg config.Config) {
	app.RootCmd.AddCommand(
		newAnalyzeCmd(app, cfg),
		newPriceCmd(app, cfg),
		newWatchCmd(app, cfg),
	)
}

// readArchive loads a zip from disk, enforcing the upload size limit and
// checking the content type.
func readArchive(path string, cfg config.Config) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > cfg.MaxUploadBytes() {
		return nil, fmt.Errorf("%s is %d bytes, over the %d MB limit", filepath.Base(path), info.Size(), cfg.MaxUploadMB)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cam.SniffArchive(data); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return data, nil
}

// analyzeFile reads and ingests one archive.
func analyzeFile(ctx context.Context, path string, cfg config.Config) (cam.Result, []byte, error) {
	data, err := readArchive(path, cfg)
	if err != nil {
		return cam.Result{}, nil, err
	}
	res, err := cam.Ingest(ctx, data,
		cam.WithLogger(zap.L()),
		cam.WithWorkers(cfg.IngestWorkers),
		cam.WithMaxEntrySize(cfg.MaxEntryBytes()),
	)
	if err != nil {
		return cam.Result{}, nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return res, data, nil
}

// storeFile analyzes path and saves the result tagged with source.
func storeFile(ctx context.Context, app *pocketbase.PocketBase, cfg config.Config, path, source string) (*core.Record, cam.Result, error) {
	res, data, err := analyzeFile(ctx, path, cfg)
	if err != nil {
		return nil, cam.Result{}, err
	}
	record, err := services.SaveAnalysis(app, filepath.Base(path), source, len(data), res)
	if err != nil {
		return nil, cam.Result{}, err
	}
	return record, res, nil
}
