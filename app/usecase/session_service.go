package usecase

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"terranova/internal/domain/entity"
	"terranova/internal/domain/repository"
	"terranova/internal/infrastructure/render"
	"terranova/internal/infrastructure/share"
)

type SessionUsecase interface {
	GetSession(ctx context.Context, id string) (*entity.PlanSession, error)
	LatestSession(ctx context.Context, clientID string) (*entity.PlanSession, error)
	ListSessions(ctx context.Context) ([]*entity.PlanSession, error)
	DeleteSession(ctx context.Context, id string) error
	DownloadMap(ctx context.Context, id string, viewportWidth int) (repository.StoredMap, []byte, error)
	ShareLink(ctx context.Context, id, pageURL string) (share.Message, error)
}

var _ SessionUsecase = (*SessionService)(nil)

type SessionService struct {
	sessions repository.SessionRepository
	maps     repository.MapStore
	logger   *slog.Logger
}

func NewSessionService(sessions repository.SessionRepository, maps repository.MapStore, logger *slog.Logger) *SessionService {
	return &SessionService{sessions: sessions, maps: maps, logger: logger}
}

func (u *SessionService) GetSession(ctx context.Context, id string) (*entity.PlanSession, error) {
	if id == "" {
		return nil, &entity.ValidationError{Field: "id", Message: "session id is required"}
	}
	s, err := u.sessions.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return s, nil
}

func (u *SessionService) LatestSession(ctx context.Context, clientID string) (*entity.PlanSession, error) {
	s, err := u.sessions.Latest(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("latest session for %s: %w", clientID, err)
	}
	return s, nil
}

func (u *SessionService) ListSessions(ctx context.Context) ([]*entity.PlanSession, error) {
	list, err := u.sessions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return list, nil
}

func (u *SessionService) DeleteSession(ctx context.Context, id string) error {
	if err := u.sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if u.maps != nil {
		if err := u.maps.DeleteSession(ctx, id); err != nil {
			u.logger.Warn("failed to delete session map", "session_id", id, "err", err)
		}
	}
	return nil
}

// DownloadMap renders the session's grid as PNG and keeps a copy in the map
// store when one is configured.
func (u *SessionService) DownloadMap(ctx context.Context, id string, viewportWidth int) (repository.StoredMap, []byte, error) {
	s, err := u.GetSession(ctx, id)
	if err != nil {
		return repository.StoredMap{}, nil, err
	}

	surface, err := render.NewGridRenderer(viewportWidth).Render(s.Response)
	if err != nil {
		return repository.StoredMap{}, nil, fmt.Errorf("render session %s: %w", id, err)
	}
	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, surface); err != nil {
		return repository.StoredMap{}, nil, err
	}

	m := repository.StoredMap{
		SessionID: s.ID,
		FileName:  s.MapFileName(),
		Width:     surface.Width,
		Height:    surface.Height,
		CellSize:  surface.CellSize,
	}
	if u.maps != nil {
		saved, err := u.maps.SaveMap(ctx, m, buf.Bytes())
		if err != nil {
			u.logger.Warn("failed to store map", "session_id", id, "err", err)
		} else {
			m = saved
		}
	}
	u.logger.Info("Map downloaded successfully!", "session_id", id, "file", m.FileName)
	return m, buf.Bytes(), nil
}

// ShareLink builds a link that restores the session's form.
func (u *SessionService) ShareLink(ctx context.Context, id, pageURL string) (share.Message, error) {
	s, err := u.GetSession(ctx, id)
	if err != nil {
		return share.Message{}, err
	}
	link, err := share.Encode(pageURL, s.Form)
	if err != nil {
		return share.Message{}, err
	}
	return share.NewMessage(s.Form.Name, link), nil
}
