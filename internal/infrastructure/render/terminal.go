package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"terranova/internal/domain/entity"
	"terranova/internal/infrastructure/metrics"
)

// TerminalRenderer draws a plan as a table of colored blocks.
type TerminalRenderer struct {
	title   lipgloss.Style
	label   lipgloss.Style
	muted   lipgloss.Style
	metric  lipgloss.Style
	noteDot lipgloss.Style
}

func NewTerminalRenderer() *TerminalRenderer {
	return &TerminalRenderer{
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#16a34a")).MarginBottom(1),
		label:   lipgloss.NewStyle().Bold(true),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280")).Italic(true),
		metric:  lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).PaddingLeft(1),
		noteDot: lipgloss.NewStyle().Foreground(lipgloss.Color("#16a34a")),
	}
}

func (r *TerminalRenderer) cell(code entity.CellType) string {
	return lipgloss.NewStyle().Background(lipgloss.Color(code.Color())).Render("  ")
}

// Grid draws each cell as a two column block.
func (r *TerminalRenderer) Grid(grid entity.Grid) (string, error) {
	if grid.IsEmpty() {
		return "", entity.ErrNoGrid
	}
	var b strings.Builder
	cols := grid.Cols()
	for i := range grid.Rows() {
		for j := range cols {
			b.WriteString(r.cell(grid.At(i, j)))
		}
		b.WriteByte('\n')
	}
	metrics.IncMapRendered("terminal")
	return b.String(), nil
}

func (r *TerminalRenderer) Legend(swatches []Swatch) string {
	lines := make([]string, 0, len(swatches))
	for _, s := range swatches {
		lines = append(lines, r.cell(s.Code)+" "+s.Name)
	}
	return strings.Join(lines, "\n")
}

func (r *TerminalRenderer) CityInfo(p CityInfoPanel) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		r.title.Render(p.Name),
		r.label.Render("Population: ")+p.Population,
		r.label.Render("Terrain: ")+p.Terrain,
		r.label.Render("Size: ")+p.Size,
	)
}

func (r *TerminalRenderer) Metrics(cards []MetricCard) string {
	lines := make([]string, 0, len(cards))
	for _, c := range cards {
		style := r.metric
		if c.BorderColor != "" {
			style = style.BorderForeground(lipgloss.Color(c.BorderColor))
		}
		lines = append(lines, style.Render(c.String()))
	}
	return strings.Join(lines, "\n")
}

func (r *TerminalRenderer) Notes(notes []string) string {
	lines := make([]string, 0, len(notes))
	for _, n := range notes {
		lines = append(lines, r.noteDot.Render("•")+" "+n)
	}
	return strings.Join(lines, "\n")
}

func (r *TerminalRenderer) Notice(msg string) string {
	return r.muted.Render(msg)
}
