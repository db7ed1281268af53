package templates

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

// LayerRow is one recognized layer of an uploaded archive.
type LayerRow struct {
	Filename string
	Kind     string
	Size     string
	Color    string
}

// LayerListData is what the upload panel shows after an archive is analyzed.
type LayerListData struct {
	AnalysisID string
	Filename   string
	Layers     []LayerRow
	LayerCount int
	Dimensions string
	Vias       int
	Holes      int
}

// LayerList renders the recognized layers in stack order and the detected
// board estimate.
func LayerList(data LayerListData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}

		h.raw(`<div id="layer-list" data-analysis="`)
		h.text(data.AnalysisID)
		h.raw(`">`)
		h.raw(`<h3 class="font-semibold">`)
		h.text(data.Filename)
		h.raw(`</h3>`)

		if len(data.Layers) == 0 {
			h.raw(`<p class="text-warning">No recognizable layers were found in this archive.</p>`)
		} else {
			h.raw(`<ul class="layer-stack">`)
			for i, l := range data.Layers {
				h.raw(`<li class="flex items-center gap-2">`)
				if data.AnalysisID != "" {
					moveButton(h, data.AnalysisID, i, i-1, "up", i == 0)
					moveButton(h, data.AnalysisID, i, i+1, "down", i == len(data.Layers)-1)
				}
				h.raw(`<span class="swatch" style="background-color:`)
				h.text(l.Color)
				h.raw(`"></span><span class="layer-name">`)
				h.text(l.Filename)
				h.raw(`</span><span class="badge badge-ghost">`)
				h.text(l.Kind)
				h.raw(`</span><span class="text-xs opacity-60">`)
				h.text(l.Size)
				h.raw(`</span></li>`)
			}
			h.raw(`</ul>`)
		}

		h.raw(`<dl class="estimate">`)
		h.raw(`<dt>Layers</dt><dd>`, strconv.Itoa(data.LayerCount), `</dd>`)
		h.raw(`<dt>Dimensions</dt><dd>`)
		if data.Dimensions != "" {
			h.text(data.Dimensions)
		} else {
			h.raw(`not detected`)
		}
		h.raw(`</dd>`)
		h.raw(`<dt>Vias / holes</dt><dd>`, strconv.Itoa(data.Vias), ` / `, strconv.Itoa(data.Holes), `</dd>`)
		h.raw(`</dl></div>`)
		return h.err
	})
}

// moveButton posts one step of a manual layer reorder and swaps the list.
func moveButton(h *htmlWriter, analysisID string, from, to int, label string, disabled bool) {
	h.raw(`<button type="button" class="btn btn-ghost btn-xs" hx-post="/api/cam/analyses/`)
	h.text(analysisID)
	h.raw(`/layers/move" hx-vals='{"from":`, strconv.Itoa(from), `,"to":`, strconv.Itoa(to),
		`}' hx-target="#layer-list" hx-swap="outerHTML" title="Move `, label, `"`)
	if disabled {
		h.raw(` disabled`)
	}
	h.raw(`>`, label, `</button>`)
}
