package entity

import "strings"

// PlanForm is what the user filled in. Only the fields used by the selected
// variant are sent to the backend.
type PlanForm struct {
	Name        string `json:"name"`
	Population  int    `json:"population"`
	Terrain     string `json:"terrain"`
	EcoPriority int    `json:"eco_priority"`
	Size        int    `json:"size"`

	// grid_plan
	Width     int  `json:"width,omitempty"`
	Height    int  `json:"height,omitempty"`
	Parks     int  `json:"parks,omitempty"`
	Homes     int  `json:"homes,omitempty"`
	Roads     int  `json:"roads,omitempty"`
	Buildings int  `json:"buildings,omitempty"`
	Visuals   bool `json:"visuals,omitempty"`

	// planner_plan
	Area         float64 `json:"area,omitempty"`
	SoilType     string  `json:"soil_type,omitempty"`
	Surroundings string  `json:"surroundings,omitempty"`
}

// Normalize trims free-text fields the way the form reader does.
func (f PlanForm) Normalize() PlanForm {
	f.Name = strings.TrimSpace(f.Name)
	f.Terrain = strings.TrimSpace(f.Terrain)
	f.SoilType = strings.TrimSpace(f.SoilType)
	f.Surroundings = strings.TrimSpace(f.Surroundings)
	return f
}

type CityInfo struct {
	Name       string `json:"name"`
	Population Scalar `json:"population"`
	Terrain    string `json:"terrain"`
	Size       Scalar `json:"size"`
}

// CityPlanResponse is the normalized result of any planner variant.
type CityPlanResponse struct {
	CityInfo CityInfo `json:"city_info"`
	PlanGrid Grid     `json:"plan_grid"`
	Legend   Legend   `json:"legend"`
	Metrics  Metrics  `json:"metrics"`
	Notes    []string `json:"notes"`
	MapURL   string   `json:"map_url,omitempty"`
}

func (r *CityPlanResponse) HasGrid() bool {
	return r != nil && !r.PlanGrid.IsEmpty()
}
