package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// table is a plain column-aligned table for terminal output.
type table struct {
	title   string
	headers []string
	rows    [][]string
	// alignRight marks numeric columns.
	alignRight map[int]bool
}

func newTable(title string, headers ...string) *table {
	return &table{title: title, headers: headers, alignRight: map[int]bool{}}
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) render() string {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}
	// Width includes the horizontal padding.
	for i := range widths {
		widths[i] += 2
	}

	var sb strings.Builder
	if t.title != "" {
		sb.WriteString(titleStyle.Render(t.title))
		sb.WriteString("\n")
	}

	line := func(cells []string, style lipgloss.Style) {
		for i := range t.headers {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			s := style.Width(widths[i])
			if t.alignRight[i] {
				s = s.Align(lipgloss.Right)
			}
			sb.WriteString(s.Render(cell))
			if i < len(t.headers)-1 {
				sb.WriteString(mutedStyle.Render("│"))
			}
		}
		sb.WriteString("\n")
	}

	line(t.headers, headerStyle)
	total := 0
	for _, w := range widths {
		total += w
	}
	sb.WriteString(mutedStyle.Render(strings.Repeat("─", total+len(widths)-1)))
	sb.WriteString("\n")
	for _, row := range t.rows {
		line(row, cellStyle)
	}
	return sb.String()
}
