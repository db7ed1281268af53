package cam

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pcbquote/metrics"
)

var (
	// ErrCorruptArchive is returned when the upload cannot be decoded as an
	// archive or one of its entries cannot be decompressed.
	ErrCorruptArchive = errors.New("corrupt archive")
	// ErrArchiveTooLarge is returned when an entry decompresses past the
	// configured per-entry limit.
	ErrArchiveTooLarge = errors.New("archive entry too large")
)

// MaxLayerCount is the largest layer count the estimate will report.
const MaxLayerCount = 12

// LayerFile is one classified archive entry. Content is the decoded text of
// the entry and is never serialized.
type LayerFile struct {
	Filename string    `json:"filename"`
	Kind     LayerKind `json:"kind"`
	Content  string    `json:"-"`
	Size     int       `json:"size"`
}

// Estimate is the partial board specification recovered from an archive.
// Dimensions is nil when no outline coordinates were found.
type Estimate struct {
	Layers        int         `json:"layers"`
	Dimensions    *Dimensions `json:"dimensions,omitempty"`
	DetectedVias  int         `json:"detectedVias"`
	DetectedHoles int         `json:"detectedHoles"`
}

// Result is what Ingest hands back: the recognized layers in archive order
// and the estimate derived from them.
type Result struct {
	Layers   []LayerFile `json:"layers"`
	Estimate Estimate    `json:"estimatedSpecs"`
}

type options struct {
	logger       *zap.Logger
	workers      int
	maxEntrySize int64
}

// Option configures Ingest.
type Option func(*options)

// WithLogger sets the logger for per-entry decisions.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithWorkers bounds how many entries are decompressed at once.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithMaxEntrySize limits the decompressed size of any single entry.
func WithMaxEntrySize(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxEntrySize = n
		}
	}
}

// entryResult is the per-entry outcome written by one worker into its own slot.
type entryResult struct {
	name    string
	kind    LayerKind
	content string
	drill   DrillStats
}

// Ingest decodes a ZIP archive held in memory, classifies each entry by name
// and aggregates the estimate. Entries are decoded in parallel; the fold over
// their results runs in archive order, so the layer list, the counts and the
// chosen outline (the last one in the archive) do not depend on scheduling.
//
// Any decode failure returns ErrCorruptArchive and no partial result.
func Ingest(ctx context.Context, data []byte, opts ...Option) (Result, error) {
	o := options{logger: zap.NewNop(), workers: 4, maxEntrySize: 20 << 20}
	for _, opt := range opts {
		opt(&o)
	}

	start := time.Now()
	res, err := ingest(ctx, data, o)
	metrics.IngestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ArchivesIngested.WithLabelValues("failed").Inc()
		o.logger.Warn("cam: archive rejected", zap.Error(err), zap.Int("bytes", len(data)))
		return Result{}, err
	}
	metrics.ArchivesIngested.WithLabelValues("ok").Inc()
	return res, nil
}

func ingest(ctx context.Context, data []byte, o options) (Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}

	var entries []*zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || isPlatformMetadata(f.Name) {
			continue
		}
		entries = append(entries, f)
	}

	slots := make([]entryResult, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, f := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := decodeEntry(f, o.maxEntrySize)
			if err != nil {
				return err
			}
			o.logger.Debug("cam: entry classified",
				zap.String("entry", r.name),
				zap.String("kind", string(r.kind)),
				zap.Int("bytes", len(r.content)))
			slots[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	return fold(slots), nil
}

// decodeEntry reads one entry as UTF-8 text. Entries whose name is not a
// known layer, or whose bytes are not valid UTF-8, come back as unknown.
func decodeEntry(f *zip.File, maxSize int64) (entryResult, error) {
	r := entryResult{name: f.Name, kind: Classify(f.Name)}
	if r.kind == KindUnknown {
		return r, nil
	}

	rc, err := f.Open()
	if err != nil {
		return r, fmt.Errorf("%w: open %s: %v", ErrCorruptArchive, f.Name, err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(io.LimitReader(rc, maxSize+1))
	if err != nil {
		return r, fmt.Errorf("%w: read %s: %v", ErrCorruptArchive, f.Name, err)
	}
	if int64(len(raw)) > maxSize {
		return r, fmt.Errorf("%w: %s exceeds %d bytes", ErrArchiveTooLarge, f.Name, maxSize)
	}
	if !utf8.Valid(raw) {
		r.kind = KindUnknown
		return r, nil
	}

	r.content = string(raw)
	if r.kind == KindDrill {
		r.drill = ClassifyDrill(r.content)
	}
	return r, nil
}

func fold(slots []entryResult) Result {
	var (
		layers  []LayerFile
		copper  int
		outline *string
		drill   DrillStats
	)
	for i := range slots {
		s := slots[i]
		metrics.LayersClassified.WithLabelValues(string(s.kind)).Inc()
		if s.kind == KindUnknown {
			continue
		}
		layers = append(layers, LayerFile{
			Filename: s.name,
			Kind:     s.kind,
			Content:  s.content,
			Size:     len(s.content),
		})
		if s.kind.IsCopper() {
			copper++
		}
		if s.kind == KindOutline {
			outline = &slots[i].content
		}
		drill = drill.Add(s.drill)
	}
	metrics.DrillHits.WithLabelValues("via").Add(float64(drill.Vias))
	metrics.DrillHits.WithLabelValues("hole").Add(float64(drill.Holes))

	est := Estimate{
		Layers:        EstimateLayerCount(copper),
		DetectedVias:  drill.Vias,
		DetectedHoles: drill.Holes,
	}
	if outline != nil {
		if dims, ok := EstimateDimensions(ScanCoordinates(*outline)); ok {
			est.Dimensions = &dims
		}
	}
	return Result{Layers: layers, Estimate: est}
}

// EstimateLayerCount clamps a copper layer count to [1, MaxLayerCount] and
// rounds odd counts above one up to the next even number.
func EstimateLayerCount(copper int) int {
	n := max(1, min(copper, MaxLayerCount))
	if n > 1 && n%2 != 0 {
		n++
	}
	return n
}

// isPlatformMetadata reports archive paths written by the packing OS rather
// than the CAM tool: macOS resource forks and Finder/Explorer index files.
func isPlatformMetadata(name string) bool {
	if strings.HasPrefix(name, "__MACOSX") {
		return true
	}
	base := path.Base(name)
	return base == ".DS_Store" || base == "Thumbs.db" || strings.HasPrefix(base, "._")
}
