package main

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terranova/app/config"
	"terranova/app/usecase"
	"terranova/internal/domain/entity"
	"terranova/internal/infrastructure/planapi"
	"terranova/internal/infrastructure/render"
	"terranova/internal/infrastructure/share"
	"terranova/internal/infrastructure/store/memory"
)

func TestResolveBaseURL(t *testing.T) {
	logger := newLogger(os.Stderr)

	cfg := config.Default()
	assert.Equal(t, planapi.LoopbackBaseURL, resolveBaseURL(cfg, logger))

	cfg.Planner.PublicOrigin = "https://terranova.vercel.app"
	assert.Equal(t, "https://terranova.vercel.app/api", resolveBaseURL(cfg, logger))

	cfg.Planner.BaseURL = "http://planner:8000"
	assert.Equal(t, "http://planner:8000", resolveBaseURL(cfg, logger))

	cfg = config.Default()
	cfg.Planner.PublicOrigin = "https://terranova.netlify.app"
	assert.Equal(t, planapi.LoopbackBaseURL, resolveBaseURL(cfg, logger))
}

func TestMergeFormKeepsExplicitFlags(t *testing.T) {
	cmd := planCmd(new(string))
	require.NoError(t, cmd.Flags().Parse([]string{"--size", "20"}))

	var flags entity.PlanForm
	flags.Size = 20
	flags.Population = 1_000_000
	restored := entity.PlanForm{Name: "Atlantis", Population: 100_000, Terrain: "coastal", EcoPriority: 8, Size: 10}

	got := mergeForm(restored, flags, cmd.Flags())
	assert.Equal(t, "Atlantis", got.Name)
	assert.Equal(t, 100_000, got.Population)
	assert.Equal(t, 20, got.Size)
}

func TestRunPlanDemo(t *testing.T) {
	cfg := config.Default()
	cfg.Planner.Source = "demo"
	logger := newLogger(os.Stderr)

	pipeline, err := newPipeline(cfg, memory.NewSessionRepo(), logger)
	require.NoError(t, err)
	assert.Equal(t, usecase.SourceDemo, pipeline.Mode())

	dir := t.TempDir()
	var out bytes.Buffer
	opts := planOptions{
		form:    entity.PlanForm{Name: "Atlantis", Population: 100_000, Terrain: "coastal", EcoPriority: 8, Size: 10},
		out:     dir,
		pageURL: "https://terranova.example.com/",
	}
	err = runPlan(context.Background(), &out, pipeline, usecase.NewRevealer(0), 1280, entity.VariantGeneratePlan, opts, logger)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, entity.DemoNotice)
	assert.Contains(t, text, "100,000 residents")
	assert.Contains(t, text, "Map downloaded successfully!")

	f, err := os.Open(filepath.Join(dir, "Atlantis_map.png"))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 510, img.Bounds().Dx())

	var link string
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "https://terranova.example.com/?city=") {
			link = line
		}
	}
	require.NotEmpty(t, link)
	form, err := share.Decode(link)
	require.NoError(t, err)
	assert.Equal(t, "Atlantis", form.Name)
}

func TestRunPlanValidation(t *testing.T) {
	cfg := config.Default()
	cfg.Planner.Source = "demo"
	cfg.Session.TTL = time.Minute
	logger := newLogger(os.Stderr)
	pipeline, err := newPipeline(cfg, memory.NewSessionRepo(), logger)
	require.NoError(t, err)

	var out bytes.Buffer
	err = runPlan(context.Background(), &out, pipeline, usecase.NewRevealer(0), 1280,
		entity.VariantGeneratePlan, planOptions{form: entity.PlanForm{Name: "Tiny", Population: 10}}, logger)
	assert.ErrorIs(t, err, entity.ErrValidation)
	assert.Empty(t, out.String())
}

func TestTerminalDisplayReplacesLegend(t *testing.T) {
	var out bytes.Buffer
	grid := entity.Grid{{0, 1}, {1, 0}}
	d := &terminalDisplay{w: &out, term: render.NewTerminalRenderer(), grid: grid}
	renderer := render.NewGridRenderer(400)

	first, err := renderer.Render(&entity.CityPlanResponse{PlanGrid: grid, Legend: entity.Legend{{Code: 0, Name: "Empty"}, {Code: 1, Name: "Water"}}})
	require.NoError(t, err)
	require.NoError(t, d.ShowMap(context.Background(), first))
	assert.Contains(t, out.String(), "Water")

	out.Reset()
	second, err := renderer.Render(&entity.CityPlanResponse{PlanGrid: grid, Legend: entity.Legend{{Code: 12, Name: "Road"}}})
	require.NoError(t, err)
	require.NoError(t, d.ShowMap(context.Background(), second))
	assert.Contains(t, out.String(), "Road")
	assert.NotContains(t, out.String(), "Water")
	assert.Same(t, second, d.area.Surface())
}
