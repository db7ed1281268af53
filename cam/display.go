package cam

import (
	"slices"
	"sort"
)

// DisplayOrder returns a copy of layers sorted into board stack order.
// Layers of the same kind keep their archive order.
func DisplayOrder(layers []LayerFile) []LayerFile {
	out := slices.Clone(layers)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Kind.stackIndex() < out[j].Kind.stackIndex()
	})
	return out
}

// MoveLayer returns a copy of layers with the element at from moved to to.
// Out-of-range indices return an unchanged copy.
func MoveLayer[T any](layers []T, from, to int) []T {
	out := slices.Clone(layers)
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) || from == to {
		return out
	}
	moved := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, moved)
}
