package cam

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func names(layers []LayerFile) []string {
	out := make([]string, len(layers))
	for i, l := range layers {
		out[i] = l.Filename
	}
	return out
}

func TestDisplayOrder(t *testing.T) {
	layers := []LayerFile{
		{Filename: "b.drl", Kind: KindDrill},
		{Filename: "b.gbl", Kind: KindBottomCopper},
		{Filename: "b.gko", Kind: KindOutline},
		{Filename: "b.gtl", Kind: KindTopCopper},
		{Filename: "b.gto", Kind: KindTopSilkscreen},
		{Filename: "b2.drl", Kind: KindDrill},
	}
	original := names(layers)

	got := names(DisplayOrder(layers))
	want := []string{"b.gto", "b.gtl", "b.gbl", "b.gko", "b.drl", "b2.drl"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("display order mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, original, names(layers), "input must not be reordered")
}

func TestMoveLayer(t *testing.T) {
	layers := []LayerFile{{Filename: "a"}, {Filename: "b"}, {Filename: "c"}, {Filename: "d"}}

	tests := []struct {
		name     string
		from, to int
		want     []string
	}{
		{"forward", 0, 2, []string{"b", "c", "a", "d"}},
		{"backward", 3, 1, []string{"a", "d", "b", "c"}},
		{"same index", 1, 1, []string{"a", "b", "c", "d"}},
		{"from out of range", 9, 0, []string{"a", "b", "c", "d"}},
		{"to out of range", 0, -1, []string{"a", "b", "c", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(MoveLayer(layers, tt.from, tt.to)))
			assert.Equal(t, []string{"a", "b", "c", "d"}, names(layers))
		})
	}
}
