package repository

import (
	"context"
	"time"

	"terranova/internal/domain/entity"
)

// SessionRepository stores plan-result sessions until they expire.
type SessionRepository interface {
	Save(ctx context.Context, session *entity.PlanSession) error
	// Get returns entity.ErrSessionNotFound for unknown or expired sessions.
	Get(ctx context.Context, id string) (*entity.PlanSession, error)
	// Latest returns the most recent session saved for a client.
	Latest(ctx context.Context, clientID string) (*entity.PlanSession, error)
	List(ctx context.Context) ([]*entity.PlanSession, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
