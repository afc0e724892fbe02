package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"terranova/app/config"
)

func TestOpenStoresMongoPingFailureDisconnects(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	cfg := config.Default()
	cfg.Session.Store = "mongo"
	cfg.Mongo.URI = "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=100&connectTimeoutMS=100"

	st, err := openStores(context.Background(), cfg, newLogger(os.Stderr))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mongo ping")
	assert.Nil(t, st)
}

func TestOpenStoresRedisClosesOnMapDirError(t *testing.T) {
	m := miniredis.RunT(t)
	blocker := filepath.Join(t.TempDir(), "maps")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	cfg := config.Default()
	cfg.Session.Store = "redis"
	cfg.Redis.Addr = m.Addr()
	cfg.Maps.Dir = blocker

	_, err := openStores(context.Background(), cfg, newLogger(os.Stderr))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init map dir")
	assert.Eventually(t, func() bool { return m.CurrentConnectionCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestOpenStoresMemory(t *testing.T) {
	cfg := config.Default()
	cfg.Session.Store = "memory"
	cfg.Maps.Dir = t.TempDir()

	st, err := openStores(context.Background(), cfg, newLogger(os.Stderr))
	require.NoError(t, err)
	assert.NotNil(t, st.sessions)
	assert.NotNil(t, st.maps)
	st.close(context.Background())
}
