package planapi

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"terranova/internal/domain/entity"
	"terranova/internal/infrastructure/textfmt"
)

type generatePlanRequest struct {
	CityName    string `json:"city_name"`
	Population  int    `json:"population"`
	Terrain     string `json:"terrain"`
	EcoPriority int    `json:"eco_priority"`
	Size        int    `json:"size"`
}

type gridPlanRequest struct {
	Name       string `json:"name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Population int    `json:"population"`
	Parks      int    `json:"parks"`
	Homes      int    `json:"homes"`
	Roads      int    `json:"roads"`
	Buildings  int    `json:"buildings"`
	Visuals    bool   `json:"visuals"`
}

type plannerPlanRequest struct {
	CityName     string  `json:"city_name"`
	Population   int     `json:"population"`
	Area         float64 `json:"area"`
	SoilType     string  `json:"soil_type"`
	Surroundings string  `json:"surroundings"`
}

type textPlanRequest struct {
	CityName string `json:"city_name"`
}

func buildPayload(v entity.Variant, f entity.PlanForm) any {
	switch v {
	case entity.VariantGridPlan:
		w, h := f.Width, f.Height
		if w <= 0 {
			w = f.Size
		}
		if h <= 0 {
			h = f.Size
		}
		return gridPlanRequest{
			Name:       f.Name,
			Width:      w,
			Height:     h,
			Population: f.Population,
			Parks:      f.Parks,
			Homes:      f.Homes,
			Roads:      f.Roads,
			Buildings:  f.Buildings,
			Visuals:    f.Visuals,
		}
	case entity.VariantPlannerPlan:
		return plannerPlanRequest{
			CityName:     f.Name,
			Population:   f.Population,
			Area:         f.Area,
			SoilType:     f.SoilType,
			Surroundings: f.Surroundings,
		}
	case entity.VariantTextPlan:
		return textPlanRequest{CityName: f.Name}
	default:
		return generatePlanRequest{
			CityName:    f.Name,
			Population:  f.Population,
			Terrain:     f.Terrain,
			EcoPriority: f.EcoPriority,
			Size:        f.Size,
		}
	}
}

func normalize(v entity.Variant, f entity.PlanForm, body []byte) (*entity.CityPlanResponse, error) {
	switch v {
	case entity.VariantGridPlan:
		return normalizeGridPlan(f, body)
	case entity.VariantPlannerPlan:
		return normalizePlannerPlan(f, body)
	case entity.VariantTextPlan:
		return normalizeTextPlan(f, body)
	default:
		var resp entity.CityPlanResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	}
}

type gridPlanResponse struct {
	Layout             [][]string `json:"layout"`
	Recommendations    []string   `json:"recommendations"`
	VisualMapAvailable bool       `json:"visual_map_available"`
	MapURL             string     `json:"map_url"`
}

func normalizeGridPlan(f entity.PlanForm, body []byte) (*entity.CityPlanResponse, error) {
	var raw gridPlanResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}

	grid := make(entity.Grid, 0, len(raw.Layout))
	var legend entity.Legend
	counts := make(map[entity.CellType]int)
	for _, row := range raw.Layout {
		cells := make([]entity.CellType, 0, len(row))
		for _, token := range row {
			t := tileFor(token)
			cells = append(cells, t.Code)
			counts[t.Code]++
			if t.Code.Known() {
				if _, ok := legend.Name(t.Code); !ok {
					legend = append(legend, entity.LegendEntry{Code: t.Code, Name: t.Description})
				}
			}
		}
		grid = append(grid, cells)
	}
	slices.SortFunc(legend, func(a, b entity.LegendEntry) int { return cmp.Compare(a.Code, b.Code) })

	var m entity.Metrics
	for _, e := range legend {
		m = append(m, entity.Metric{Key: strings.ToLower(e.Code.String()) + "_cells", Value: entity.Number(float64(counts[e.Code]))})
	}

	resp := &entity.CityPlanResponse{
		CityInfo: entity.CityInfo{
			Name:       f.Name,
			Population: entity.Number(float64(f.Population)),
			Terrain:    f.Terrain,
			Size:       entity.Text(fmt.Sprintf("%dx%d", grid.Cols(), grid.Rows())),
		},
		PlanGrid: grid,
		Legend:   legend,
		Metrics:  m,
		Notes:    raw.Recommendations,
	}
	if raw.VisualMapAvailable || raw.MapURL != "" {
		resp.MapURL = raw.MapURL
	}
	return resp, nil
}

type plannerPlanResponse struct {
	CityName        string          `json:"city_name"`
	Feasible        *bool           `json:"feasible"`
	Summary         string          `json:"summary"`
	Recommendations json.RawMessage `json:"recommendations"`
	MapURL          string          `json:"map_url"`
}

func normalizePlannerPlan(f entity.PlanForm, body []byte) (*entity.CityPlanResponse, error) {
	var raw plannerPlanResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}

	name := raw.CityName
	if name == "" {
		name = f.Name
	}

	var notes []string
	if s := strings.TrimSpace(raw.Summary); s != "" {
		notes = append(notes, s)
	}
	recs, err := recommendationLines(raw.Recommendations)
	if err != nil {
		return nil, err
	}
	notes = append(notes, recs...)

	var m entity.Metrics
	if raw.Feasible != nil {
		feasible := "No"
		if *raw.Feasible {
			feasible = "Yes"
		}
		m = append(m, entity.Metric{Key: "feasible", Value: entity.Text(feasible)})
	}
	if f.Area > 0 {
		m = append(m, entity.Metric{Key: "density_per_km2", Value: entity.Number(float64(f.Population) / f.Area)})
	}

	return &entity.CityPlanResponse{
		CityInfo: entity.CityInfo{
			Name:       name,
			Population: entity.Number(float64(f.Population)),
			Terrain:    f.SoilType,
			Size:       entity.Text(fmt.Sprintf("%g km²", f.Area)),
		},
		Metrics: m,
		Notes:   notes,
		MapURL:  raw.MapURL,
	}, nil
}

// recommendationLines flattens a list of strings or an object of
// category → value into display lines, keeping document order.
func recommendationLines(raw json.RawMessage) ([]string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var list []any
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("recommendations: %w", err)
		}
		out := make([]string, 0, len(list))
		for _, item := range list {
			if item == nil {
				continue
			}
			out = append(out, formatValue(item))
		}
		return out, nil
	}

	var out []string
	err := entity.DecodeOrderedObject(raw, func(key string, value json.RawMessage) error {
		var v any
		if err := json.Unmarshal(value, &v); err != nil {
			return fmt.Errorf("recommendation %q: %w", key, err)
		}
		out = append(out, textfmt.TitleWords(key)+": "+formatValue(v))
		return nil
	})
	return out, err
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []any:
		parts := make([]string, 0, len(val))
		for _, p := range val {
			if p != nil {
				parts = append(parts, formatValue(p))
			}
		}
		return strings.Join(parts, ", ")
	case float64:
		return fmt.Sprintf("%g", val)
	case nil:
		return ""
	default:
		b, _ := json.Marshal(val)
		return string(b)
	}
}

type textPlanResponse struct {
	Plan string `json:"plan"`
}

func normalizeTextPlan(f entity.PlanForm, body []byte) (*entity.CityPlanResponse, error) {
	var raw textPlanResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	var notes []string
	for _, line := range strings.Split(raw.Plan, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			notes = append(notes, line)
		}
	}
	return &entity.CityPlanResponse{
		CityInfo: entity.CityInfo{
			Name:       f.Name,
			Population: entity.Number(float64(f.Population)),
			Terrain:    f.Terrain,
			Size:       entity.Number(float64(f.Size)),
		},
		Notes: notes,
	}, nil
}
