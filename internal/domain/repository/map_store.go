package repository

import "context"

type StoredMap struct {
	SessionID string `json:"session_id"`
	FileName  string `json:"file_name"`
	Path      string `json:"path"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	CellSize  int    `json:"cell_size"`
}

// MapStore keeps rendered map images produced by the download action.
type MapStore interface {
	SaveMap(ctx context.Context, m StoredMap, png []byte) (StoredMap, error)
	GetMap(ctx context.Context, sessionID string) (StoredMap, []byte, error)
	ListSessions(ctx context.Context) ([]string, error)
	DeleteSession(ctx context.Context, sessionID string) error
}
