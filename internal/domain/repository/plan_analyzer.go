package repository

import "terranova/internal/domain/entity"

// PlanAnalyzer inspects a received plan for problems worth reporting.
type PlanAnalyzer interface {
	Analyze(resp *entity.CityPlanResponse) []entity.PlanIssue
}
