package entity

import (
	"fmt"
	"strings"
)

// Variant names one of the planner contracts the pipeline can speak.
type Variant string

const (
	VariantGeneratePlan Variant = "generate_plan"
	VariantGridPlan     Variant = "grid_plan"
	VariantPlannerPlan  Variant = "planner_plan"
	VariantTextPlan     Variant = "text_plan"
)

type Endpoint struct {
	Variant Variant
	Path    string
	// HasGrid is false for contracts that never return a layout.
	HasGrid bool
}

var endpoints = map[Variant]Endpoint{
	VariantGeneratePlan: {Variant: VariantGeneratePlan, Path: "/city/generate_plan", HasGrid: true},
	VariantGridPlan:     {Variant: VariantGridPlan, Path: "/city/plan", HasGrid: true},
	VariantPlannerPlan:  {Variant: VariantPlannerPlan, Path: "/planner/plan"},
	VariantTextPlan:     {Variant: VariantTextPlan, Path: "/generate_plan"},
}

func (v Variant) Endpoint() Endpoint {
	return endpoints[v]
}

func Variants() []Variant {
	return []Variant{VariantGeneratePlan, VariantGridPlan, VariantPlannerPlan, VariantTextPlan}
}

// ParseVariant maps user input to a Variant. Empty input selects generate_plan.
func ParseVariant(s string) (Variant, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return VariantGeneratePlan, nil
	}
	v := Variant(strings.ReplaceAll(s, "-", "_"))
	if _, ok := endpoints[v]; !ok {
		return "", fmt.Errorf("%w: unknown variant %q", ErrValidation, s)
	}
	return v, nil
}
