package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"terranova/internal/domain/entity"
	"terranova/internal/domain/repository"
	"terranova/internal/infrastructure/metrics"
)

const (
	sessionKeyPrefix = "terranova:session:" // terranova:session:{id} -> session JSON
	latestKeyPrefix  = "terranova:latest:"  // terranova:latest:{client_id} -> session id
	sessionSetKey    = "terranova:sessions" // set of known session ids
)

// SessionRepo stores sessions as JSON strings whose Redis TTL matches the
// session's expiry.
type SessionRepo struct {
	client *redis.Client
	now    func() time.Time
}

func NewSessionRepo(client *redis.Client) *SessionRepo {
	return &SessionRepo{client: client, now: time.Now}
}

var _ repository.SessionRepository = (*SessionRepo)(nil)

func (r *SessionRepo) sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (r *SessionRepo) latestKey(clientID string) string {
	return latestKeyPrefix + clientID
}

func (r *SessionRepo) Save(ctx context.Context, s *entity.PlanSession) error {
	metrics.IncStoreOp("redis", "put")

	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", s.ID)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.sessionKey(s.ID), data, ttl)
	pipe.SAdd(ctx, sessionSetKey, s.ID)
	if s.ClientID != "" {
		pipe.Set(ctx, r.latestKey(s.ClientID), s.ID, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		metrics.IncError("redis_session_repo", "save_error")
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *SessionRepo) Get(ctx context.Context, id string) (*entity.PlanSession, error) {
	metrics.IncStoreOp("redis", "get")

	data, err := r.client.Get(ctx, r.sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, entity.ErrSessionNotFound
	}
	if err != nil {
		metrics.IncError("redis_session_repo", "get_error")
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var s entity.PlanSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if s.Expired(r.now()) {
		return nil, entity.ErrSessionNotFound
	}
	return &s, nil
}

func (r *SessionRepo) Latest(ctx context.Context, clientID string) (*entity.PlanSession, error) {
	id, err := r.client.Get(ctx, r.latestKey(clientID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, entity.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest session id: %w", err)
	}
	return r.Get(ctx, id)
}

// List returns live sessions, newest first. Ids whose keys have expired are
// skipped; DeleteExpired prunes them from the set.
func (r *SessionRepo) List(ctx context.Context) ([]*entity.PlanSession, error) {
	metrics.IncStoreOp("redis", "list")

	ids, err := r.client.SMembers(ctx, sessionSetKey).Result()
	if err != nil {
		metrics.IncError("redis_session_repo", "list_error")
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	out := make([]*entity.PlanSession, 0, len(ids))
	for _, id := range ids {
		s, err := r.Get(ctx, id)
		if errors.Is(err, entity.ErrSessionNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b *entity.PlanSession) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	metrics.IncStoreOp("redis", "delete")

	s, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.sessionKey(id))
	pipe.SRem(ctx, sessionSetKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		metrics.IncError("redis_session_repo", "delete_error")
		return fmt.Errorf("failed to delete session: %w", err)
	}

	// only clear the pointer if it still names this session
	latest, err := r.client.Get(ctx, r.latestKey(s.ClientID)).Result()
	if err == nil && latest == id {
		r.client.Del(ctx, r.latestKey(s.ClientID))
	}
	return nil
}

// DeleteExpired drops set members whose session key is gone. Redis expires
// the keys themselves.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	metrics.IncStoreOp("redis", "purge")

	ids, err := r.client.SMembers(ctx, sessionSetKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	n := 0
	for _, id := range ids {
		data, err := r.client.Get(ctx, r.sessionKey(id)).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return n, fmt.Errorf("failed to read session %s: %w", id, err)
		default:
			var s entity.PlanSession
			if json.Unmarshal(data, &s) == nil && !s.Expired(now) {
				continue
			}
			r.client.Del(ctx, r.sessionKey(id))
		}
		if err := r.client.SRem(ctx, sessionSetKey, id).Err(); err != nil {
			return n, fmt.Errorf("failed to prune session %s: %w", id, err)
		}
		n++
	}
	return n, nil
}
