package entity

import "slices"

// Grid is a row-major matrix of cell codes. Rows are expected to be of
// equal length; the first row decides the column count.
type Grid [][]CellType

func (g Grid) Rows() int {
	return len(g)
}

func (g Grid) Cols() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

func (g Grid) IsEmpty() bool {
	return g.Rows() == 0 || g.Cols() == 0
}

// Dimension is the larger side of the grid.
func (g Grid) Dimension() int {
	return max(g.Rows(), g.Cols())
}

// At returns the code at row i, column j. Cells missing from a short row
// come back as an unknown code.
func (g Grid) At(i, j int) CellType {
	if i < 0 || i >= len(g) || j < 0 || j >= len(g[i]) {
		return -1
	}
	return g[i][j]
}

// IsRectangular reports whether every row has the length of the first.
func (g Grid) IsRectangular() bool {
	cols := g.Cols()
	for _, row := range g {
		if len(row) != cols {
			return false
		}
	}
	return true
}

// Codes returns the distinct codes in the grid in ascending order.
func (g Grid) Codes() []CellType {
	seen := make(map[CellType]bool)
	var out []CellType
	for _, row := range g {
		for _, c := range row {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	slices.Sort(out)
	return out
}
