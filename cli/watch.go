package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pocketbase/pocketbase"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pcbquote/collections"
	"pcbquote/config"
	"pcbquote/metrics"
)

// Watcher reports .zip files created or rewritten in one directory. Events
// for the same file are coalesced until Debounce passes without a new one,
// so a file is handled once after its writer finishes.
type Watcher struct {
	dir      string
	debounce time.Duration
	handle   func(ctx context.Context, path string) error
	logger   *zap.Logger
	fs       *fsnotify.Watcher
}

// NewWatcher starts watching dir. Call Run to process events.
func NewWatcher(dir string, debounce time.Duration, logger *zap.Logger, handle func(ctx context.Context, path string) error) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{dir: dir, debounce: debounce, handle: handle, logger: logger, fs: fw}, nil
}

// Run handles events until ctx is done, then closes the watcher. Handler
// errors are logged and do not stop the loop.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	pending := map[string]struct{}{}
	var flush <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !isArchiveName(ev.Name) || !(ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write)) {
				continue
			}
			pending[ev.Name] = struct{}{}
			flush = time.After(w.debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch: fsnotify error", zap.String("dir", w.dir), zap.Error(err))

		case <-flush:
			flush = nil
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			slices.Sort(paths)

			for _, p := range paths {
				if err := w.handle(ctx, p); err != nil {
					w.logger.Warn("watch: archive skipped", zap.String("path", p), zap.Error(err))
				}
			}
		}
	}
}

func isArchiveName(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".zip")
}

func newWatchCmd(app *pocketbase.PocketBase, cfg config.Config) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Analyze every Gerber archive dropped into a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				return errors.New("no directory to watch: pass --dir or set " + config.EnvWatchDir)
			}
			collections.Setup(app)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := zap.L().With(zap.String("dir", dir))
			out := cmd.OutOrStdout()

			w, err := NewWatcher(dir, cfg.WatchDebounce, logger, func(ctx context.Context, path string) error {
				record, res, err := storeFile(ctx, app, cfg, path, collections.SourceWatch)
				if err != nil {
					metrics.WatchArchives.WithLabelValues("rejected").Inc()
					fmt.Fprintln(out, errorStyle.Render("✗ "+filepath.Base(path)+": "+err.Error()))
					return err
				}
				metrics.WatchArchives.WithLabelValues("stored").Inc()
				logger.Info("watch: archive stored",
					zap.String("file", filepath.Base(path)),
					zap.String("token", record.GetString("token")),
					zap.Int("layers", res.Estimate.Layers),
				)
				fmt.Fprintf(out, "✓ %s  %d layers  %s\n", filepath.Base(path), res.Estimate.Layers,
					mutedStyle.Render(record.GetString("token")))
				return nil
			})
			if err != nil {
				return err
			}

			logger.Info("watch: started", zap.Duration("debounce", cfg.WatchDebounce))
			return w.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", cfg.WatchDir, "directory to watch for .zip archives")
	return cmd
}
