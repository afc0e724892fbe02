package repository

import (
	"context"

	"terranova/internal/domain/entity"
)

// DataSource produces a plan for a submitted form.
type DataSource interface {
	// Fetch sends one request for the given variant and returns the normalized plan.
	Fetch(ctx context.Context, variant entity.Variant, form entity.PlanForm) (*entity.CityPlanResponse, error)
	// Name identifies the source in sessions, logs and metrics.
	Name() string
}
