package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"terranova/internal/domain/entity"
	"terranova/internal/domain/repository"
	"terranova/internal/infrastructure/metrics"
)

// SessionRepo keeps sessions in process memory.
type SessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]*entity.PlanSession
	latest   map[string]string
	now      func() time.Time
}

func NewSessionRepo() *SessionRepo {
	return &SessionRepo{
		sessions: make(map[string]*entity.PlanSession),
		latest:   make(map[string]string),
		now:      time.Now,
	}
}

var _ repository.SessionRepository = (*SessionRepo)(nil)

func (r *SessionRepo) Save(_ context.Context, s *entity.PlanSession) error {
	metrics.IncStoreOp("memory", "put")

	cp := *s
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = &cp
	if s.ClientID != "" {
		r.latest[s.ClientID] = s.ID
	}
	return nil
}

func (r *SessionRepo) Get(_ context.Context, id string) (*entity.PlanSession, error) {
	metrics.IncStoreOp("memory", "get")

	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok || s.Expired(r.now()) {
		return nil, entity.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *SessionRepo) Latest(ctx context.Context, clientID string) (*entity.PlanSession, error) {
	r.mu.RLock()
	id, ok := r.latest[clientID]
	r.mu.RUnlock()
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	return r.Get(ctx, id)
}

// List returns live sessions, newest first.
func (r *SessionRepo) List(_ context.Context) ([]*entity.PlanSession, error) {
	metrics.IncStoreOp("memory", "list")

	now := r.now()
	r.mu.RLock()
	out := make([]*entity.PlanSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		if s.Expired(now) {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b *entity.PlanSession) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (r *SessionRepo) Delete(_ context.Context, id string) error {
	metrics.IncStoreOp("memory", "delete")

	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return entity.ErrSessionNotFound
	}
	r.remove(s)
	return nil
}

func (r *SessionRepo) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	metrics.IncStoreOp("memory", "purge")

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sessions {
		if s.Expired(now) {
			r.remove(s)
			n++
		}
	}
	return n, nil
}

// remove must be called with mu held.
func (r *SessionRepo) remove(s *entity.PlanSession) {
	delete(r.sessions, s.ID)
	if r.latest[s.ClientID] == s.ID {
		delete(r.latest, s.ClientID)
	}
}
