package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terranova/internal/domain/entity"
)

func newSession(client string, ttl time.Duration) *entity.PlanSession {
	return entity.NewPlanSession(client, entity.VariantGeneratePlan, entity.PlanForm{Name: "Atlantis"},
		&entity.CityPlanResponse{PlanGrid: entity.Grid{{0}}}, "live", ttl)
}

func TestSaveGetDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepo()

	s := newSession("alice", time.Hour)
	require.NoError(t, repo.Save(ctx, s))

	got, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, entity.Grid{{0}}, got.Response.PlanGrid)

	require.NoError(t, repo.Delete(ctx, s.ID))
	_, err = repo.Get(ctx, s.ID)
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, s.ID), entity.ErrSessionNotFound)
}

func TestLatestIsLastWriteWins(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepo()

	first := newSession("alice", time.Hour)
	second := newSession("alice", time.Hour)
	other := newSession("bob", time.Hour)
	for _, s := range []*entity.PlanSession{first, second, other} {
		require.NoError(t, repo.Save(ctx, s))
	}

	got, err := repo.Latest(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	_, err = repo.Latest(ctx, "carol")
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepo()

	live := newSession("alice", time.Hour)
	stale := newSession("bob", time.Minute)
	require.NoError(t, repo.Save(ctx, live))
	require.NoError(t, repo.Save(ctx, stale))

	later := time.Now().Add(2 * time.Minute)
	repo.now = func() time.Time { return later }

	_, err := repo.Get(ctx, stale.ID)
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, live.ID, list[0].ID)

	n, err := repo.DeleteExpired(ctx, later)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = repo.Latest(ctx, "bob")
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
}

func TestConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepo()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = repo.Save(ctx, newSession("alice", time.Hour))
			_, _ = repo.Latest(ctx, "alice")
		}()
	}
	wg.Wait()

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 50)
}
