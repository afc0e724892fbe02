package entity

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellTypeColors(t *testing.T) {
	want := map[CellType]string{
		0: "#f5f5f5", 1: "#4fc3f7", 2: "#8d6e63", 3: "#aed581", 4: "#66bb6a",
		5: "#ffb74d", 6: "#90a4ae", 7: "#f06292", 8: "#fff176", 9: "#ba68c8",
		10: "#ff8a65", 11: "#a1887f", 12: "#424242",
	}
	for code, color := range want {
		assert.Equal(t, color, code.Color(), "code %d", code)
		assert.True(t, code.Known())
	}
	for _, code := range []CellType{-1, 13, 99} {
		assert.Equal(t, "#ffffff", code.Color())
		assert.False(t, code.Known())
	}
	assert.Len(t, CellTypes(), 13)
}

func TestValidatePopulationBounds(t *testing.T) {
	cases := []struct {
		population int
		ok         bool
	}{
		{49_999, false},
		{50_000, true},
		{1_000_000, true},
		{30_000_000, true},
		{30_000_001, false},
	}
	for _, tc := range cases {
		err := ValidatePopulation(tc.population)
		if tc.ok {
			assert.NoError(t, err, "population %d", tc.population)
			continue
		}
		require.Error(t, err, "population %d", tc.population)
		assert.True(t, errors.Is(err, ErrValidation))
	}
}

func TestPlanFormValidate(t *testing.T) {
	form := PlanForm{Name: "", Population: 100_000}
	err := form.Validate(VariantGeneratePlan)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)

	form.Name = "Atlantis"
	assert.NoError(t, form.Validate(VariantGeneratePlan))

	form.Population = 10_000
	assert.ErrorIs(t, form.Validate(VariantGeneratePlan), ErrValidation)
	// only generate_plan enforces the population range
	assert.NoError(t, form.Validate(VariantGridPlan))
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant("")
	require.NoError(t, err)
	assert.Equal(t, VariantGeneratePlan, v)

	v, err = ParseVariant("grid-plan")
	require.NoError(t, err)
	assert.Equal(t, VariantGridPlan, v)
	assert.Equal(t, "/city/plan", v.Endpoint().Path)

	_, err = ParseVariant("teleport")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLegendListsCodesAscending(t *testing.T) {
	var l Legend
	require.NoError(t, json.Unmarshal([]byte(`{"12":"Road","0":"Empty","4":"Park"}`), &l))
	assert.Equal(t, Legend{{Code: 0, Name: "Empty"}, {Code: 4, Name: "Park"}, {Code: 12, Name: "Road"}}, l)

	out, err := json.Marshal(l)
	require.NoError(t, err)
	assert.Equal(t, `{"0":"Empty","4":"Park","12":"Road"}`, string(out))
}

func TestLegendAcceptsNameToCode(t *testing.T) {
	var l Legend
	require.NoError(t, json.Unmarshal([]byte(`{"Road":12,"Water":1}`), &l))
	// name keys keep the order they were sent in
	assert.Equal(t, Legend{{Code: 12, Name: "Road"}, {Code: 1, Name: "Water"}}, l)

	name, ok := l.Name(12)
	assert.True(t, ok)
	assert.Equal(t, "Road", name)
}

func TestLegendMixedKeys(t *testing.T) {
	var l Legend
	require.NoError(t, json.Unmarshal([]byte(`{"Road":12,"01":"Padded","3":"Farm","3":"Fields"}`), &l))
	assert.Equal(t, Legend{
		{Code: 3, Name: "Fields"},
		{Code: 12, Name: "Road"},
		{Code: 1, Name: "Padded"},
	}, l)
}

func TestLegendRejectsBadKey(t *testing.T) {
	var l Legend
	assert.Error(t, json.Unmarshal([]byte(`{"water":"Water"}`), &l))
}

func TestMetricsObjectAndList(t *testing.T) {
	var m Metrics
	require.NoError(t, json.Unmarshal([]byte(`{"green_cover_pct":42.5,"grade":"A"}`), &m))
	require.Len(t, m, 2)
	assert.Equal(t, "green_cover_pct", m[0].Key)
	assert.True(t, m[0].Value.IsNum)
	assert.Equal(t, 42.5, m[0].Value.Num)
	assert.Equal(t, "A", m[1].Value.String())

	var lines Metrics
	require.NoError(t, json.Unmarshal([]byte(`["one","two"]`), &lines))
	require.Len(t, lines, 2)
	assert.Empty(t, lines[0].Key)
	assert.Equal(t, "two", lines[1].Value.Str)

	out, err := json.Marshal(lines)
	require.NoError(t, err)
	assert.Equal(t, `["one","two"]`, string(out))
}

func TestScalar(t *testing.T) {
	var s Scalar
	require.NoError(t, json.Unmarshal([]byte(`100000`), &s))
	assert.Equal(t, "100000", s.String())
	require.NoError(t, json.Unmarshal([]byte(`"10x10 blocks"`), &s))
	assert.False(t, s.IsNum)
	assert.Equal(t, "10x10 blocks", s.String())
	require.NoError(t, json.Unmarshal([]byte(`true`), &s))
	assert.Equal(t, "true", s.String())
}

func TestGrid(t *testing.T) {
	g := Grid{{0, 1, 12}, {4, 4}}
	assert.Equal(t, 2, g.Rows())
	assert.Equal(t, 3, g.Cols())
	assert.Equal(t, 3, g.Dimension())
	assert.False(t, g.IsRectangular())
	assert.Equal(t, CellType(-1), g.At(1, 2))
	assert.Equal(t, []CellType{0, 1, 4, 12}, g.Codes())
	assert.True(t, Grid{}.IsEmpty())
	assert.True(t, Grid{{}}.IsEmpty())
}

func TestPlanSession(t *testing.T) {
	s := NewPlanSession("cli", VariantGeneratePlan, PlanForm{Name: "Atlantis"}, &CityPlanResponse{}, "live", time.Minute)
	assert.NotEmpty(t, s.ID)
	assert.False(t, s.Expired(time.Now()))
	assert.True(t, s.Expired(time.Now().Add(2*time.Minute)))
	assert.Equal(t, "Atlantis_map.png", s.MapFileName())

	s.Form.Name = ""
	assert.Equal(t, "TerraNova_City_map.png", s.MapFileName())

	s.MarkSimulated()
	assert.True(t, s.Simulated)
	assert.Equal(t, DemoNotice, s.Notice)
}
