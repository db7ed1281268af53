package cam

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_ExtensionTable(t *testing.T) {
	table := map[LayerKind][]string{
		KindTopCopper:        {"gtl", "cmp", "top", "l1"},
		KindBottomCopper:     {"gbl", "sol", "bot", "l2"},
		KindTopSoldermask:    {"gts", "stc", "smt"},
		KindBottomSoldermask: {"gbs", "sts", "smb"},
		KindTopSilkscreen:    {"gto", "plc", "sst"},
		KindBottomSilkscreen: {"gbo", "pls", "ssb"},
		KindOutline:          {"gko", "gm1", "gm9", "out", "profile"},
		KindDrill:            {"drl", "txt", "xln", "drd"},
	}

	for kind, exts := range table {
		for _, ext := range exts {
			for _, name := range []string{
				"board." + ext,
				"BOARD." + strings.ToUpper(ext),
				"gerbers/Board." + strings.ToUpper(ext[:1]) + ext[1:],
			} {
				t.Run(name, func(t *testing.T) {
					assert.Equal(t, kind, Classify(name))
				})
			}
		}
	}
}

func TestClassify_Unknown(t *testing.T) {
	tests := []struct {
		name     string
		filename string
	}{
		{"empty", ""},
		{"no extension", "README"},
		{"dot only", "."},
		{"pdf", "fab-notes.pdf"},
		{"extension in the middle", "board.gtl.bak"},
		{"gm without digit", "board.gm"},
		{"bare extension word", "gtl"},
		{"directory", "gerbers/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, KindUnknown, Classify(tt.filename))
		})
	}
}

func TestLayerKind_IsCopper(t *testing.T) {
	for _, k := range AllKinds {
		want := k == KindTopCopper || k == KindBottomCopper
		assert.Equal(t, want, k.IsCopper(), string(k))
	}
}

func TestLayerKind_Color(t *testing.T) {
	assert.Equal(t, "#b83d3d", KindTopCopper.Color())
	assert.Equal(t, "#e6b800", KindOutline.Color())
	assert.Equal(t, "#888888", KindBottomSilkscreen.Color())
	assert.Equal(t, "#888888", KindUnknown.Color())
}
