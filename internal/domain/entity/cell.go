package entity

// CellType is a land-use code painted into a plan grid.
type CellType int

const (
	CellEmpty CellType = iota
	CellWater
	CellMountain
	CellFarm
	CellPark
	CellHome
	CellOffice
	CellHospital
	CellSchool
	CellMetro
	CellStation
	CellWalk
	CellRoad
)

// FallbackColor is used for any code without an entry in the color table.
const FallbackColor = "#ffffff"

var cellColors = map[CellType]string{
	CellEmpty:    "#f5f5f5",
	CellWater:    "#4fc3f7",
	CellMountain: "#8d6e63",
	CellFarm:     "#aed581",
	CellPark:     "#66bb6a",
	CellHome:     "#ffb74d",
	CellOffice:   "#90a4ae",
	CellHospital: "#f06292",
	CellSchool:   "#fff176",
	CellMetro:    "#ba68c8",
	CellStation:  "#ff8a65",
	CellWalk:     "#a1887f",
	CellRoad:     "#424242",
}

var cellNames = map[CellType]string{
	CellEmpty:    "Empty",
	CellWater:    "Water",
	CellMountain: "Mountain",
	CellFarm:     "Farm",
	CellPark:     "Park",
	CellHome:     "Home",
	CellOffice:   "Office",
	CellHospital: "Hospital",
	CellSchool:   "School",
	CellMetro:    "Metro",
	CellStation:  "Station",
	CellWalk:     "Walk",
	CellRoad:     "Road",
}

// Color returns the hex color for the code, or FallbackColor for unknown codes.
func (c CellType) Color() string {
	if col, ok := cellColors[c]; ok {
		return col
	}
	return FallbackColor
}

// Known reports whether the code has a defined color.
func (c CellType) Known() bool {
	_, ok := cellColors[c]
	return ok
}

func (c CellType) String() string {
	if name, ok := cellNames[c]; ok {
		return name
	}
	return "Unknown"
}

// CellTypes lists every known code in ascending order.
func CellTypes() []CellType {
	out := make([]CellType, 0, len(cellColors))
	for c := CellEmpty; c <= CellRoad; c++ {
		out = append(out, c)
	}
	return out
}
