package validator

import (
	"fmt"

	"terranova/internal/domain/entity"
	"terranova/internal/domain/repository"
)

const (
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// maxReportedCells caps per-cell findings so a noisy grid does not flood the session.
const maxReportedCells = 20

type PlanAnalyzer struct{}

func NewPlanAnalyzer() *PlanAnalyzer {
	return &PlanAnalyzer{}
}

var _ repository.PlanAnalyzer = (*PlanAnalyzer)(nil)

// Analyze reports shape and legend problems. It never rejects a plan: unknown
// codes still render (white) and jagged rows are sized by the first row.
func (a *PlanAnalyzer) Analyze(resp *entity.CityPlanResponse) []entity.PlanIssue {
	if resp == nil {
		return []entity.PlanIssue{{Severity: SeverityWarning, Message: "empty response"}}
	}

	var issues []entity.PlanIssue
	if resp.PlanGrid.IsEmpty() {
		return append(issues, entity.PlanIssue{Severity: SeverityInfo, Message: "plan has no grid to render"})
	}

	issues = append(issues, a.analyzeShape(resp.PlanGrid)...)
	issues = append(issues, a.analyzeCodes(resp.PlanGrid)...)
	issues = append(issues, a.analyzeLegend(resp.PlanGrid, resp.Legend)...)
	return issues
}

func (a *PlanAnalyzer) analyzeShape(grid entity.Grid) []entity.PlanIssue {
	var issues []entity.PlanIssue
	cols := grid.Cols()
	for i, row := range grid {
		if len(row) != cols {
			issues = append(issues, entity.PlanIssue{
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("row has %d cells, first row has %d", len(row), cols),
				Row:      i + 1,
			})
		}
	}
	return issues
}

func (a *PlanAnalyzer) analyzeCodes(grid entity.Grid) []entity.PlanIssue {
	var issues []entity.PlanIssue
	reported := 0
	for i, row := range grid {
		for j, code := range row {
			if code.Known() {
				continue
			}
			reported++
			if reported > maxReportedCells {
				continue
			}
			issues = append(issues, entity.PlanIssue{
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("unknown cell code %d rendered as %s", code, entity.FallbackColor),
				Row:      i + 1,
				Column:   j + 1,
			})
		}
	}
	if reported > maxReportedCells {
		issues = append(issues, entity.PlanIssue{
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("%d more cells with unknown codes", reported-maxReportedCells),
		})
	}
	return issues
}

func (a *PlanAnalyzer) analyzeLegend(grid entity.Grid, legend entity.Legend) []entity.PlanIssue {
	var issues []entity.PlanIssue
	for _, e := range legend {
		if !e.Code.Known() {
			issues = append(issues, entity.PlanIssue{
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("legend entry %q uses code %d which has no color", e.Name, e.Code),
			})
		}
	}
	for _, code := range grid.Codes() {
		if _, ok := legend.Name(code); !ok {
			issues = append(issues, entity.PlanIssue{
				Severity: SeverityInfo,
				Message:  fmt.Sprintf("code %d appears in the grid but not in the legend", code),
			})
		}
	}
	return issues
}

// HasWarnings reports whether any issue is a warning.
func HasWarnings(issues []entity.PlanIssue) bool {
	for _, i := range issues {
		if i.Severity == SeverityWarning {
			return true
		}
	}
	return false
}
