package render

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"terranova/internal/domain/entity"
	"terranova/internal/infrastructure/textfmt"
)

const (
	ColorGood    = "#16a34a"
	ColorFair    = "#f59e0b"
	ColorPoor    = "#dc2626"
	defaultEmoji = "📊"
	co2Key       = "est_co2_per_capita"
)

var metricEmoji = map[string]string{
	"green_cover_pct":      "🌱",
	"walkability_index":    "🚶",
	"transit_coverage_pct": "🚇",
	"renewable_potential":  "⚡",
	co2Key:                 "🌍",
}

var printer = message.NewPrinter(language.English)

// CityInfoPanel is the header block shown above the map.
type CityInfoPanel struct {
	Name       string `json:"name"`
	Population string `json:"population"`
	Terrain    string `json:"terrain"`
	Size       string `json:"size"`
}

func FormatCityInfo(info entity.CityInfo) CityInfoPanel {
	pop := info.Population.String()
	if info.Population.IsNum {
		pop = groupDigits(info.Population.Num)
	}
	return CityInfoPanel{
		Name:       info.Name,
		Population: pop + " residents",
		Terrain:    textfmt.Capitalize(info.Terrain) + " terrain",
		Size:       info.Size.String() + " grid",
	}
}

// groupDigits formats with thousands separators, up to three decimals.
func groupDigits(f float64) string {
	if f == float64(int64(f)) {
		return printer.Sprintf("%d", int64(f))
	}
	return strings.TrimRight(strings.TrimRight(printer.Sprintf("%.3f", f), "0"), ".")
}

// MetricCard is one line of the metrics list.
type MetricCard struct {
	Emoji       string `json:"emoji,omitempty"`
	Label       string `json:"label,omitempty"`
	Value       string `json:"value"`
	BorderColor string `json:"border_color,omitempty"`
}

func (c MetricCard) String() string {
	if c.Label == "" {
		return c.Value
	}
	return c.Emoji + " " + c.Label + ": " + c.Value
}

// FormatMetrics renders metrics in their received order. Keyless entries are
// preformatted lines and are shown as-is.
func FormatMetrics(m entity.Metrics) []MetricCard {
	out := make([]MetricCard, 0, len(m))
	for _, e := range m {
		if e.Key == "" {
			out = append(out, MetricCard{Value: e.Value.String()})
			continue
		}
		emoji, ok := metricEmoji[e.Key]
		if !ok {
			emoji = defaultEmoji
		}
		value := e.Value.String()
		if e.Value.IsNum && (strings.Contains(e.Key, "pct") || strings.Contains(e.Key, "index")) {
			value += "%"
		}
		out = append(out, MetricCard{
			Emoji:       emoji,
			Label:       textfmt.TitleWords(e.Key),
			Value:       value,
			BorderColor: MetricColor(e.Key, e.Value),
		})
	}
	return out
}

// MetricColor grades a metric. CO2 is better when low, everything else when
// high. Strings are compared by their numeric value; ones without one grade
// as poor.
func MetricColor(key string, v entity.Scalar) string {
	n, ok := numericValue(v)
	if !ok {
		return ColorPoor
	}
	if key == co2Key {
		switch {
		case n < 3:
			return ColorGood
		case n < 5:
			return ColorFair
		default:
			return ColorPoor
		}
	}
	switch {
	case n > 70:
		return ColorGood
	case n > 40:
		return ColorFair
	default:
		return ColorPoor
	}
}

// numericValue converts a scalar the way a relational comparison would:
// blank is zero, booleans are 0 or 1, other strings must parse as a number.
func numericValue(v entity.Scalar) (float64, bool) {
	if v.IsNum {
		return v.Num, true
	}
	s := strings.TrimSpace(v.Str)
	switch s {
	case "":
		return 0, true
	case "true":
		return 1, true
	case "false":
		return 0, true
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}
