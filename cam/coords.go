package cam

import (
	"regexp"
	"strconv"
)

// coordToken matches a CAM coordinate pair such as X1000Y-250. The original
// storefront accepted any run of digits and '-' here; values that do not
// parse as integers are skipped per axis.
var coordToken = regexp.MustCompile(`X([0-9-]+)Y([0-9-]+)`)

// Bounds is the raw bounding box of the coordinate tokens in one layer.
// The min/max fields are meaningless unless Found is true.
type Bounds struct {
	MinX, MaxX int64
	MinY, MaxY int64
	Found      bool
}

// Width is the raw X extent.
func (b Bounds) Width() int64 { return b.MaxX - b.MinX }

// Height is the raw Y extent.
func (b Bounds) Height() int64 { return b.MaxY - b.MinY }

// ScanCoordinates extracts the bounding box of every X<int>Y<int> token in
// content. Coordinates stay in the file's own fixed-point units.
func ScanCoordinates(content string) Bounds {
	var b Bounds
	var haveX, haveY bool

	for _, m := range coordToken.FindAllStringSubmatch(content, -1) {
		b.Found = true
		if x, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			if !haveX || x < b.MinX {
				b.MinX = x
			}
			if !haveX || x > b.MaxX {
				b.MaxX = x
			}
			haveX = true
		}
		if y, err := strconv.ParseInt(m[2], 10, 64); err == nil {
			if !haveY || y < b.MinY {
				b.MinY = y
			}
			if !haveY || y > b.MaxY {
				b.MaxY = y
			}
			haveY = true
		}
	}
	return b
}
