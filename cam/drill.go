package cam

import (
	"regexp"
	"strconv"
	"strings"
)

// ViaMaxDiameter is the largest tool diameter counted as a via.
const ViaMaxDiameter = 0.5

var (
	toolDefinition = regexp.MustCompile(`T(\d+)C([0-9.]+)`)
	toolSelection  = regexp.MustCompile(`T(\d+)`)
	drillHit       = regexp.MustCompile(`X[0-9-]+Y[0-9-]+`)
)

// DrillStats counts the drilled features of one or more drill programs.
type DrillStats struct {
	Vias  int `json:"vias"`
	Holes int `json:"holes"`
}

// Add returns the element-wise sum of two stats.
func (s DrillStats) Add(o DrillStats) DrillStats {
	return DrillStats{Vias: s.Vias + o.Vias, Holes: s.Holes + o.Holes}
}

// Total is the number of drilled features.
func (s DrillStats) Total() int { return s.Vias + s.Holes }

// ClassifyDrill scans an Excellon-style drill program and counts hits by the
// diameter of the active tool: (0, ViaMaxDiameter] is a via, anything else
// (including no tool selected) is a hole. When the scan counts nothing, every
// coordinate hit in the file is counted as a hole instead.
func ClassifyDrill(content string) DrillStats {
	var stats DrillStats
	tools := make(map[string]float64)
	var activeSize float64

	for _, line := range strings.Split(content, "\n") {
		if def := toolDefinition.FindStringSubmatch(line); def != nil {
			if size, err := strconv.ParseFloat(def[2], 64); err == nil {
				tools[def[1]] = size
			}
		} else if sel := toolSelectionCode(line); sel != "" {
			activeSize = tools[sel]
		}

		if drillHit.MatchString(line) {
			if activeSize > 0 && activeSize <= ViaMaxDiameter {
				stats.Vias++
			} else {
				stats.Holes++
			}
		}
	}

	if stats.Vias == 0 && stats.Holes == 0 {
		stats.Holes = len(drillHit.FindAllStringIndex(content, -1))
	}
	return stats
}

// toolSelectionCode returns the tool code of the first T<code> on the line
// that is not immediately followed by a C diameter, or "" when there is none.
func toolSelectionCode(line string) string {
	for _, loc := range toolSelection.FindAllStringSubmatchIndex(line, -1) {
		end := loc[1]
		if end < len(line) && line[end] == 'C' {
			continue
		}
		return line[loc[2]:loc[3]]
	}
	return ""
}
