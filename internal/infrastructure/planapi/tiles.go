package planapi

import (
	"strings"

	"terranova/internal/domain/entity"
)

// Tile is a layout token understood by the grid planner.
type Tile struct {
	Code        entity.CellType
	Description string
}

var tiles = map[string]Tile{
	"R": {entity.CellRoad, "Road"},
	"H": {entity.CellHome, "Residential"},
	"B": {entity.CellOffice, "Commercial Building"},
	"P": {entity.CellPark, "Park/Green Space"},
	"M": {entity.CellOffice, "Market/Shopping"},
	"G": {entity.CellOffice, "Government/Civic"},
	"E": {entity.CellEmpty, "Undeveloped Land"},

	"🛣": {entity.CellRoad, "Road"},
	"🏡": {entity.CellHome, "Residential"},
	"🏠": {entity.CellHome, "Residential"},
	"🏢": {entity.CellOffice, "Commercial Building"},
	"🌳": {entity.CellPark, "Park/Green Space"},
	"🛍": {entity.CellOffice, "Market/Shopping"},
	"🏛": {entity.CellOffice, "Government/Civic"},
	"⬜": {entity.CellEmpty, "Undeveloped Land"},
}

// tileFor maps a letter or emoji token to a cell code. Unknown tokens get
// code -1 and render with the fallback color.
func tileFor(token string) Tile {
	key := strings.TrimSpace(strings.TrimRight(token, "\ufe0f"))
	if t, ok := tiles[strings.ToUpper(key)]; ok {
		return t
	}
	return Tile{Code: -1, Description: "Unknown"}
}
