package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"terranova/internal/domain/entity"
	"terranova/internal/domain/repository"
	"terranova/internal/infrastructure/metrics"
	"terranova/internal/infrastructure/validator"
)

// SourceMode selects where plans come from.
type SourceMode string

const (
	// SourceLive only asks the planner backend.
	SourceLive SourceMode = "live"
	// SourceDemo never contacts the backend.
	SourceDemo SourceMode = "demo"
	// SourceFallback asks the backend and serves demo data when it fails.
	SourceFallback SourceMode = "fallback"
)

func ParseSourceMode(s string) (SourceMode, error) {
	switch m := SourceMode(s); m {
	case SourceLive, SourceDemo, SourceFallback:
		return m, nil
	case "":
		return SourceFallback, nil
	default:
		return "", fmt.Errorf("%w: unknown data source %q", entity.ErrValidation, s)
	}
}

type PlanUsecase interface {
	Submit(ctx context.Context, clientID string, v entity.Variant, form entity.PlanForm) (*entity.PlanSession, error)
}

var _ PlanUsecase = (*PlanPipeline)(nil)

// PlanPipeline runs one submit: validate, fetch, analyze, store.
type PlanPipeline struct {
	live     repository.DataSource
	demo     repository.DataSource
	sessions repository.SessionRepository
	analyzer repository.PlanAnalyzer
	mode     SourceMode
	ttl      time.Duration
	logger   *slog.Logger

	// clients with a request in flight
	inFlight sync.Map
}

func NewPlanPipeline(
	live repository.DataSource,
	demo repository.DataSource,
	sessions repository.SessionRepository,
	analyzer repository.PlanAnalyzer,
	mode SourceMode,
	ttl time.Duration,
	logger *slog.Logger,
) *PlanPipeline {
	if live == nil {
		mode = SourceDemo
	}
	return &PlanPipeline{
		live:     live,
		demo:     demo,
		sessions: sessions,
		analyzer: analyzer,
		mode:     mode,
		ttl:      ttl,
		logger:   logger,
	}
}

func (p *PlanPipeline) Mode() SourceMode {
	return p.mode
}

// Submit returns entity.ErrBusy while an earlier submit from the same client
// is still running. Validation failures never reach a data source.
func (p *PlanPipeline) Submit(ctx context.Context, clientID string, v entity.Variant, form entity.PlanForm) (*entity.PlanSession, error) {
	start := time.Now()
	form = form.Normalize()

	if err := form.Validate(v); err != nil {
		metrics.IncPlanFailure(string(v), "validation")
		return nil, err
	}

	if _, busy := p.inFlight.LoadOrStore(clientID, struct{}{}); busy {
		metrics.IncPlanFailure(string(v), "busy")
		return nil, entity.ErrBusy
	}
	defer p.inFlight.Delete(clientID)

	metrics.IncPlansInFlight()
	defer metrics.DecPlansInFlight()

	source := p.demo
	if p.mode != SourceDemo {
		source = p.live
	}

	resp, err := source.Fetch(ctx, v, form)
	if err != nil {
		if p.mode != SourceFallback || !errors.Is(err, entity.ErrBackend) {
			metrics.IncPlanFailure(string(v), "backend")
			p.logger.Error("plan request failed", "client_id", clientID, "variant", v, "source", source.Name(), "err", err)
			return nil, err
		}
		p.logger.Warn("planner backend unavailable, using demo data", "client_id", clientID, "variant", v, "err", err)
		metrics.IncDemoFallback()
		source = p.demo
		if resp, err = source.Fetch(ctx, v, form); err != nil {
			metrics.IncPlanFailure(string(v), "backend")
			return nil, fmt.Errorf("demo fallback: %w", err)
		}
	}

	session := entity.NewPlanSession(clientID, v, form, resp, source.Name(), p.ttl)
	if source == p.demo {
		session.MarkSimulated()
	}
	if p.analyzer != nil {
		session.Issues = p.analyzer.Analyze(resp)
		if validator.HasWarnings(session.Issues) {
			p.logger.Warn("plan has issues", "session_id", session.ID, "issues", len(session.Issues))
		}
	}

	if err := p.sessions.Save(ctx, session); err != nil {
		metrics.IncPlanFailure(string(v), "store")
		return nil, fmt.Errorf("save session: %w", err)
	}

	metrics.IncPlanRequested(string(v), source.Name())
	metrics.ObservePlanDuration(string(v), time.Since(start))
	p.logger.Info("plan ready", "session_id", session.ID, "client_id", clientID, "variant", v,
		"source", source.Name(), "duration", time.Since(start))
	return session, nil
}
