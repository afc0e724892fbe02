package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terranova/internal/domain/entity"
)

func TestFormatCityInfo(t *testing.T) {
	p := FormatCityInfo(entity.CityInfo{
		Name:       "Atlantis",
		Population: entity.Number(1_250_000),
		Terrain:    "coastal",
		Size:       entity.Number(10),
	})
	assert.Equal(t, CityInfoPanel{
		Name:       "Atlantis",
		Population: "1,250,000 residents",
		Terrain:    "Coastal terrain",
		Size:       "10 grid",
	}, p)

	p = FormatCityInfo(entity.CityInfo{Population: entity.Text("100,000"), Size: entity.Text("10x10 blocks")})
	assert.Equal(t, "100,000 residents", p.Population)
	assert.Equal(t, "10x10 blocks grid", p.Size)
}

func TestFormatMetrics(t *testing.T) {
	cards := FormatMetrics(entity.Metrics{
		{Key: "green_cover_pct", Value: entity.Number(72.5)},
		{Key: "est_co2_per_capita", Value: entity.Number(4.2)},
		{Key: "walkability_index", Value: entity.Number(35)},
		{Key: "zoning_mix", Value: entity.Text("balanced")},
	})
	require.Len(t, cards, 4)

	assert.Equal(t, MetricCard{Emoji: "🌱", Label: "Green Cover Pct", Value: "72.5%", BorderColor: ColorGood}, cards[0])
	assert.Equal(t, MetricCard{Emoji: "🌍", Label: "Est Co2 Per Capita", Value: "4.2", BorderColor: ColorFair}, cards[1])
	assert.Equal(t, "35%", cards[2].Value)
	assert.Equal(t, ColorPoor, cards[2].BorderColor)
	assert.Equal(t, "📊 Zoning Mix: balanced", cards[3].String())
}

func TestFormatMetricsList(t *testing.T) {
	cards := FormatMetrics(entity.Metrics{{Value: entity.Text("⚡ Energy Efficiency: 81.2%")}})
	require.Len(t, cards, 1)
	assert.Equal(t, "⚡ Energy Efficiency: 81.2%", cards[0].String())
	assert.Empty(t, cards[0].BorderColor)
}

func TestMetricColorCO2(t *testing.T) {
	assert.Equal(t, ColorGood, MetricColor(co2Key, entity.Number(2.9)))
	assert.Equal(t, ColorFair, MetricColor(co2Key, entity.Number(3)))
	assert.Equal(t, ColorPoor, MetricColor(co2Key, entity.Number(5)))
	assert.Equal(t, ColorFair, MetricColor("renewable_potential", entity.Number(70)))
	assert.Equal(t, ColorGood, MetricColor("renewable_potential", entity.Number(70.1)))
}

func TestMetricColorNumericStrings(t *testing.T) {
	assert.Equal(t, ColorGood, MetricColor("green_cover_pct", entity.Text("75")))
	assert.Equal(t, ColorFair, MetricColor("green_cover_pct", entity.Text("55")))
	assert.Equal(t, ColorGood, MetricColor("est_co2_per_capita", entity.Text(" 2.5 ")))
	assert.Equal(t, ColorPoor, MetricColor("est_co2_per_capita", entity.Text("7")))
	assert.Equal(t, ColorGood, MetricColor("est_co2_per_capita", entity.Text("")))
	assert.Equal(t, ColorPoor, MetricColor("green_cover_pct", entity.Text("balanced")))
	assert.Equal(t, ColorPoor, MetricColor("green_cover_pct", entity.Text("NaN")))
}

func TestTerminalPanels(t *testing.T) {
	r := NewTerminalRenderer()
	info := r.CityInfo(FormatCityInfo(entity.CityInfo{Name: "Atlantis", Population: entity.Number(100_000), Terrain: "coastal", Size: entity.Number(2)}))
	assert.Contains(t, info, "Atlantis")
	assert.Contains(t, info, "100,000 residents")
	assert.Contains(t, info, "Coastal terrain")

	grid, err := r.Grid(entity.Grid{{0, 1}, {1, 0}})
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimRight(grid, "\n"), "\n"), 2)

	legend := r.Legend(BuildLegend(entity.Legend{{Code: 0, Name: "Empty"}, {Code: 1, Name: "Water"}}))
	assert.Less(t, strings.Index(legend, "Empty"), strings.Index(legend, "Water"))

	assert.Contains(t, r.Notes([]string{"Build a seawall"}), "Build a seawall")

	_, err = r.Grid(nil)
	assert.ErrorIs(t, err, entity.ErrNoGrid)
}
