package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"terranova/internal/domain/entity"
)

// parseHex decodes #rrggbb or #rgb.
func parseHex(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// cellColor never fails: the table only holds valid hex strings and
// anything else falls back to white.
func cellColor(code entity.CellType) color.RGBA {
	c, err := parseHex(code.Color())
	if err != nil {
		return color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	}
	return c
}
