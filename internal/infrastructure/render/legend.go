package render

import "terranova/internal/domain/entity"

// Swatch is one legend row: a color sample next to a zone name.
type Swatch struct {
	Code  entity.CellType `json:"code"`
	Name  string          `json:"name"`
	Color string          `json:"color"`
}

// BuildLegend keeps the legend's own order.
func BuildLegend(l entity.Legend) []Swatch {
	out := make([]Swatch, 0, len(l))
	for _, e := range l {
		out = append(out, Swatch{Code: e.Code, Name: e.Name, Color: e.Code.Color()})
	}
	return out
}
