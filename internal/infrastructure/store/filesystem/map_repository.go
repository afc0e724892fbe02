package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"terranova/internal/domain/entity"
	"terranova/internal/domain/repository"
	"terranova/internal/infrastructure/metrics"
)

const metadataFile = "metadata.json"

// MapRepository writes each session's map to <base>/<session id>/ next to a
// metadata.json describing it.
type MapRepository struct {
	basePath string
}

func (r *MapRepository) GetBasePath() string {
	return r.basePath
}

func NewMapRepository(basePath string) (*MapRepository, error) {
	info, err := os.Stat(basePath)
	if os.IsNotExist(err) {
		if mkErr := os.MkdirAll(basePath, 0o755); mkErr != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", basePath, mkErr)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to check directory %s: %w", basePath, err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("path %s exists but is not a directory", basePath)
	}

	return &MapRepository{basePath: basePath}, nil
}

var _ repository.MapStore = (*MapRepository)(nil)

type metadata struct {
	repository.StoredMap
	CreatedAt time.Time `json:"created_at"`
}

func (r *MapRepository) sessionDir(sessionID string) (string, error) {
	if sessionID == "" || sessionID != filepath.Base(sessionID) || sessionID == "." || sessionID == ".." {
		return "", fmt.Errorf("invalid session id %q", sessionID)
	}
	return filepath.Join(r.basePath, sessionID), nil
}

func (r *MapRepository) SaveMap(ctx context.Context, m repository.StoredMap, png []byte) (repository.StoredMap, error) {
	metrics.IncStoreOp("filesystem", "put")

	dir, err := r.sessionDir(m.SessionID)
	if err != nil {
		return repository.StoredMap{}, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return repository.StoredMap{}, fmt.Errorf("failed to create session directory: %w", err)
	}

	name := filepath.Base(m.FileName)
	m.FileName = name
	m.Path = filepath.Join(dir, name)
	if err := os.WriteFile(m.Path, png, 0o644); err != nil {
		metrics.IncError("filesystem_map_repo", "write_error")
		return repository.StoredMap{}, fmt.Errorf("failed to write map %s: %w", name, err)
	}

	data, err := json.MarshalIndent(metadata{StoredMap: m, CreatedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return repository.StoredMap{}, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, metadataFile), data, 0o644); err != nil {
		return repository.StoredMap{}, fmt.Errorf("failed to write metadata: %w", err)
	}
	return m, nil
}

func (r *MapRepository) GetMap(ctx context.Context, sessionID string) (repository.StoredMap, []byte, error) {
	metrics.IncStoreOp("filesystem", "get")

	dir, err := r.sessionDir(sessionID)
	if err != nil {
		return repository.StoredMap{}, nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return repository.StoredMap{}, nil, fmt.Errorf("%w: no map for %s", entity.ErrSessionNotFound, sessionID)
		}
		return repository.StoredMap{}, nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var meta metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return repository.StoredMap{}, nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	png, err := os.ReadFile(meta.Path)
	if err != nil {
		return repository.StoredMap{}, nil, fmt.Errorf("failed to read map %s: %w", meta.FileName, err)
	}
	return meta.StoredMap, png, nil
}

func (r *MapRepository) ListSessions(ctx context.Context) ([]string, error) {
	metrics.IncStoreOp("filesystem", "list")

	var sessions []string
	err := filepath.WalkDir(r.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != r.basePath {
			if _, err := os.Stat(filepath.Join(path, metadataFile)); err == nil {
				sessions = append(sessions, filepath.Base(path))
			}
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}
	return sessions, nil
}

func (r *MapRepository) DeleteSession(ctx context.Context, sessionID string) error {
	metrics.IncStoreOp("filesystem", "delete")

	dir, err := r.sessionDir(sessionID)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete session directory: %w", err)
	}
	return nil
}
