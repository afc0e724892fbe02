package transport

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"terranova/app/usecase"
	"terranova/internal/domain/entity"
	"terranova/internal/infrastructure/metrics"
	"terranova/internal/infrastructure/render"
)

const writeWait = 10 * time.Second

// Stream stages, in the order a client receives them.
const (
	StageCityInfo = "city_info"
	StageMap      = "map"
	StageMetrics  = "metrics"
	StageNotes    = "notes"
	StageNotice   = "notice"
	StageDone     = "done"
	StageError    = "error"
)

type streamMessage struct {
	Stage string `json:"stage"`
	Data  any    `json:"data,omitempty"`
}

type streamMap struct {
	PNG      string          `json:"png"`
	Width    int             `json:"width"`
	Height   int             `json:"height"`
	CellSize int             `json:"cell_size"`
	Legend   []render.Swatch `json:"legend"`
}

// wsDisplay sends each revealed panel as one JSON frame.
type wsDisplay struct {
	mu   sync.Mutex
	conn *websocket.Conn
	area render.MapArea
}

var _ usecase.Display = (*wsDisplay)(nil)

func (d *wsDisplay) send(stage string, data any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_ = d.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return d.conn.WriteJSON(streamMessage{Stage: stage, Data: data})
}

func (d *wsDisplay) ShowCityInfo(_ context.Context, info render.CityInfoPanel) error {
	return d.send(StageCityInfo, info)
}

func (d *wsDisplay) ShowMap(_ context.Context, s *render.Surface) error {
	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, s); err != nil {
		return err
	}
	d.area.Show(s)
	shown := d.area.Surface()
	return d.send(StageMap, streamMap{
		PNG:      base64.StdEncoding.EncodeToString(buf.Bytes()),
		Width:    shown.Width,
		Height:   shown.Height,
		CellSize: shown.CellSize,
		Legend:   d.area.Legend(),
	})
}

func (d *wsDisplay) ShowMetrics(_ context.Context, cards []render.MetricCard) error {
	return d.send(StageMetrics, cards)
}

func (d *wsDisplay) ShowNotes(_ context.Context, notes []string) error {
	return d.send(StageNotes, notes)
}

// GET /api/v1/plans/{id}/stream
func (h *PlannerHandler) handleStream(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	session, err := h.sessions.GetSession(r.Context(), id)
	if err != nil {
		h.fail(w, "stream plan failed", err, "session_id", id)
		return
	}
	if session.Response == nil {
		h.fail(w, "stream plan failed", entity.ErrNoGrid, "session_id", id)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "session_id", id, "err", err)
		return
	}
	defer conn.Close()

	metrics.IncStreamConnections()
	defer metrics.DecStreamConnections()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The client only listens; a read error means it went away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	d := &wsDisplay{conn: conn}
	if session.Notice != "" {
		if err := d.send(StageNotice, session.Notice); err != nil {
			return
		}
	}

	renderer := render.NewGridRenderer(h.viewport(r))
	if err := h.revealer.Reveal(ctx, session.Response, renderer, d); err != nil {
		if ctx.Err() == nil {
			h.logger.Error("stream plan failed", "session_id", id, "err", err)
			metrics.IncError("transport", "stream")
			_ = d.send(StageError, err.Error())
		}
		return
	}

	_ = d.send(StageDone, nil)
	d.mu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	d.mu.Unlock()
}
