package entity

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("invalid input")
	ErrBackend         = errors.New("planner backend unavailable")
	ErrMalformedShare  = errors.New("malformed share link")
	ErrBusy            = errors.New("a plan request is already in flight")
	ErrSessionNotFound = errors.New("plan session not found")
	ErrNoGrid          = errors.New("plan has no grid")
)

const (
	MinPopulation = 50_000
	MaxPopulation = 30_000_000
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ValidatePopulation enforces the inclusive [MinPopulation, MaxPopulation] range.
func ValidatePopulation(population int) error {
	if population < MinPopulation || population > MaxPopulation {
		return &ValidationError{
			Field:   "population",
			Message: "Population must be between 50,000 and 30,000,000",
		}
	}
	return nil
}

// Validate checks the form before anything is sent for the given variant.
func (f PlanForm) Validate(v Variant) error {
	if f.Name == "" {
		return &ValidationError{Field: "name", Message: "Please enter a city name"}
	}
	if v == VariantGeneratePlan {
		return ValidatePopulation(f.Population)
	}
	return nil
}

// PlanIssue is a finding about a received plan. Issues never fail a plan.
type PlanIssue struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Row      int    `json:"row,omitempty"`
	Column   int    `json:"column,omitempty"`
}

func (i PlanIssue) String() string {
	if i.Row > 0 || i.Column > 0 {
		return fmt.Sprintf("[%s] %s (row %d, col %d)", i.Severity, i.Message, i.Row, i.Column)
	}
	return fmt.Sprintf("[%s] %s", i.Severity, i.Message)
}
