package usecase

import (
	"context"
	"errors"
	"time"

	"terranova/internal/domain/entity"
	"terranova/internal/infrastructure/render"
)

// DefaultRevealStep spaces the four panels of a plan.
const DefaultRevealStep = 300 * time.Millisecond

// Display receives the panels of a plan one at a time.
type Display interface {
	ShowCityInfo(ctx context.Context, info render.CityInfoPanel) error
	ShowMap(ctx context.Context, surface *render.Surface) error
	ShowMetrics(ctx context.Context, cards []render.MetricCard) error
	ShowNotes(ctx context.Context, notes []string) error
}

// Revealer hands a plan to a Display at offsets of 1, 2, 3 and 4 steps from
// the start. The order is fixed; the delays are pacing only.
type Revealer struct {
	step time.Duration
}

func NewRevealer(step time.Duration) *Revealer {
	if step < 0 {
		step = 0
	}
	return &Revealer{step: step}
}

func (r *Revealer) Reveal(ctx context.Context, resp *entity.CityPlanResponse, renderer *render.GridRenderer, d Display) error {
	start := time.Now()

	stages := []func() error{
		func() error { return d.ShowCityInfo(ctx, render.FormatCityInfo(resp.CityInfo)) },
		func() error {
			surface, err := renderer.Render(resp)
			if errors.Is(err, entity.ErrNoGrid) {
				return nil
			}
			if err != nil {
				return err
			}
			return d.ShowMap(ctx, surface)
		},
		func() error { return d.ShowMetrics(ctx, render.FormatMetrics(resp.Metrics)) },
		func() error { return d.ShowNotes(ctx, resp.Notes) },
	}

	for i, stage := range stages {
		if err := r.wait(ctx, start.Add(time.Duration(i+1)*r.step)); err != nil {
			return err
		}
		if err := stage(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Revealer) wait(ctx context.Context, at time.Time) error {
	d := time.Until(at)
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
