package cam

import "math"

// FallbackDimensionMM replaces an estimated side that came out implausibly small.
const FallbackDimensionMM = 100

// minPlausibleMM is the smallest side length trusted from the outline scan.
const minPlausibleMM = 5

// Dimensions is a board size in millimeters.
type Dimensions struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// EstimateDimensions turns a raw outline bounding box into millimeters. The
// coordinate format is unknown, so each side is reduced by orders of
// magnitude until it looks like millimeters: /1000 above 10000, then /10 if
// still above 1000. A side under 5mm falls back to 100mm. The result is
// rounded to whole millimeters. ok is false when the bounds were not found.
//
// This cannot tell metric from imperial encodings apart; it is a pre-fill
// guess for the quote form, never a certified dimension.
func EstimateDimensions(b Bounds) (Dimensions, bool) {
	if !b.Found {
		return Dimensions{}, false
	}
	return Dimensions{
		X: math.Round(scaleSide(float64(b.Width()))),
		Y: math.Round(scaleSide(float64(b.Height()))),
	}, true
}

func scaleSide(v float64) float64 {
	if v > 10000 {
		v /= 1000
	}
	if v > 1000 {
		v /= 10
	}
	if v < minPlausibleMM {
		v = FallbackDimensionMM
	}
	return v
}
