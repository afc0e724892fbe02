package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"sync"

	"terranova/internal/domain/entity"
	"terranova/internal/infrastructure/metrics"
)

const (
	// MaxMapWidth bounds the map in pixels regardless of viewport.
	MaxMapWidth = 600
	// ViewportFraction is the share of the viewport the map may take.
	ViewportFraction = 0.4
	// BorderThreshold is the smallest cell size that still gets a border.
	BorderThreshold = 8
	// DefaultViewportWidth is used when the caller does not know its viewport.
	DefaultViewportWidth = 1280
)

// borderColor is black at 10% opacity.
var borderColor = color.NRGBA{A: 26}

// CellSize is floor(min(viewport*0.4, 600) / dim), never below one pixel.
func CellSize(viewportWidth, dim int) int {
	if dim <= 0 {
		return 0
	}
	avail := math.Min(float64(viewportWidth)*ViewportFraction, MaxMapWidth)
	return max(int(math.Floor(avail/float64(dim))), 1)
}

// Surface is a rendered map plus the legend drawn next to it.
type Surface struct {
	Image    *image.RGBA
	CellSize int
	Rows     int
	Cols     int
	Width    int
	Height   int
	Legend   []Swatch
}

type GridRenderer struct {
	viewportWidth int
}

func NewGridRenderer(viewportWidth int) *GridRenderer {
	if viewportWidth <= 0 {
		viewportWidth = DefaultViewportWidth
	}
	return &GridRenderer{viewportWidth: viewportWidth}
}

// Render paints the plan grid. Column count comes from the first row; short
// rows leave their missing cells in the fallback color.
func (r *GridRenderer) Render(resp *entity.CityPlanResponse) (*Surface, error) {
	if !resp.HasGrid() {
		return nil, entity.ErrNoGrid
	}
	grid := resp.PlanGrid
	rows, cols := grid.Rows(), grid.Cols()
	size := CellSize(r.viewportWidth, grid.Dimension())

	img := image.NewRGBA(image.Rect(0, 0, cols*size, rows*size))
	border := image.NewUniform(borderColor)
	for i := range rows {
		for j := range cols {
			cell := image.Rect(j*size, i*size, (j+1)*size, (i+1)*size)
			draw.Draw(img, cell, image.NewUniform(cellColor(grid.At(i, j))), image.Point{}, draw.Src)
			if size > BorderThreshold {
				strokeRect(img, cell, border)
			}
		}
	}

	metrics.IncMapRendered("png")
	return &Surface{
		Image:    img,
		CellSize: size,
		Rows:     rows,
		Cols:     cols,
		Width:    cols * size,
		Height:   rows * size,
		Legend:   BuildLegend(resp.Legend),
	}, nil
}

// strokeRect blends a one pixel outline inside r.
func strokeRect(dst draw.Image, r image.Rectangle, src image.Image) {
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1),
		image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y+1, r.Min.X+1, r.Max.Y-1),
		image.Rect(r.Max.X-1, r.Min.Y+1, r.Max.X, r.Max.Y-1),
	}
	for _, e := range edges {
		draw.Draw(dst, e, src, image.Point{}, draw.Over)
	}
}

func EncodePNG(w io.Writer, s *Surface) error {
	if s == nil || s.Image == nil {
		return entity.ErrNoGrid
	}
	if err := png.Encode(w, s.Image); err != nil {
		return fmt.Errorf("encode map png: %w", err)
	}
	return nil
}

// MapArea holds the surface currently on display. Showing a new plan
// replaces both the map and its legend.
type MapArea struct {
	mu      sync.RWMutex
	surface *Surface
}

func (a *MapArea) Show(s *Surface) {
	a.mu.Lock()
	a.surface = s
	a.mu.Unlock()
}

func (a *MapArea) Surface() *Surface {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.surface
}

func (a *MapArea) Legend() []Swatch {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.surface == nil {
		return nil
	}
	return a.surface.Legend
}
