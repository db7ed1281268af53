// Package cam recovers manufacturing layer information from uploaded CAM
// archives: which file is which layer, the rough board outline, and how many
// vias and holes the drill program contains.
package cam

import (
	"regexp"
	"strings"
)

// LayerKind tags one archive entry with the manufacturing layer it describes.
type LayerKind string

const (
	KindTopCopper        LayerKind = "top-copper"
	KindBottomCopper     LayerKind = "bottom-copper"
	KindTopSoldermask    LayerKind = "top-soldermask"
	KindBottomSoldermask LayerKind = "bottom-soldermask"
	KindTopSilkscreen    LayerKind = "top-silkscreen"
	KindBottomSilkscreen LayerKind = "bottom-silkscreen"
	KindOutline          LayerKind = "outline"
	KindDrill            LayerKind = "drill"
	KindUnknown          LayerKind = "unknown"
)

// AllKinds lists every kind in board stack order, top to bottom, with the
// outline, drill and unknown kinds last.
var AllKinds = []LayerKind{
	KindTopSilkscreen,
	KindTopSoldermask,
	KindTopCopper,
	KindBottomCopper,
	KindBottomSoldermask,
	KindBottomSilkscreen,
	KindOutline,
	KindDrill,
	KindUnknown,
}

type extensionRule struct {
	kind    LayerKind
	pattern *regexp.Regexp
}

// extensionTable is checked in order; the first match wins. Patterns run
// against the lowercased file name.
var extensionTable = []extensionRule{
	{KindTopCopper, regexp.MustCompile(`\.(gtl|cmp|top|l1)$`)},
	{KindBottomCopper, regexp.MustCompile(`\.(gbl|sol|bot|l2)$`)},
	{KindTopSoldermask, regexp.MustCompile(`\.(gts|stc|smt)$`)},
	{KindBottomSoldermask, regexp.MustCompile(`\.(gbs|sts|smb)$`)},
	{KindTopSilkscreen, regexp.MustCompile(`\.(gto|plc|sst)$`)},
	{KindBottomSilkscreen, regexp.MustCompile(`\.(gbo|pls|ssb)$`)},
	{KindOutline, regexp.MustCompile(`\.(gko|gm[0-9]|out|profile)$`)},
	{KindDrill, regexp.MustCompile(`\.(drl|txt|xln|drd)$`)},
}

// Classify maps a file name (or archive path) to its layer kind by extension.
// Matching is case-insensitive and anything unrecognized is KindUnknown.
func Classify(filename string) LayerKind {
	lower := strings.ToLower(filename)
	for _, r := range extensionTable {
		if r.pattern.MatchString(lower) {
			return r.kind
		}
	}
	return KindUnknown
}

// IsCopper reports whether the kind carries a copper layer.
func (k LayerKind) IsCopper() bool {
	return strings.Contains(string(k), "copper")
}

// Color is the viewer color used when the layer is drawn.
func (k LayerKind) Color() string {
	switch k {
	case KindTopCopper:
		return "#b83d3d"
	case KindBottomCopper:
		return "#3d5eb8"
	case KindTopSoldermask:
		return "#2c8a4a"
	case KindTopSilkscreen:
		return "#ffffff"
	case KindDrill:
		return "#1a1a1a"
	case KindOutline:
		return "#e6b800"
	default:
		return "#888888"
	}
}

func (k LayerKind) stackIndex() int {
	for i, kind := range AllKinds {
		if kind == k {
			return i
		}
	}
	return len(AllKinds)
}
