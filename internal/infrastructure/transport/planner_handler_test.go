package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terranova/app/usecase"
	"terranova/internal/domain/entity"
	"terranova/internal/infrastructure/demo"
	"terranova/internal/infrastructure/store/memory"
	"terranova/internal/infrastructure/validator"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T, plans usecase.PlanUsecase) *mux.Router {
	t.Helper()
	logger := discardLogger()
	sessions := memory.NewSessionRepo()
	if plans == nil {
		plans = usecase.NewPlanPipeline(nil, demo.NewGenerator(7), sessions,
			validator.NewPlanAnalyzer(), usecase.SourceDemo, time.Hour, logger)
	}
	h := NewPlannerHandler(
		plans,
		usecase.NewSessionService(sessions, nil, logger),
		usecase.NewRevealer(0),
		HandlerOptions{PageURL: "https://terranova.example.com/"},
		logger,
	)
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func do(t *testing.T, r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(ClientIDHeader, "tester")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

const atlantisBody = `{"name":"Atlantis","population":100000,"terrain":"coastal","eco_priority":8,"size":10}`

func submit(t *testing.T, r http.Handler) map[string]any {
	t.Helper()
	rec := do(t, r, http.MethodPost, "/api/v1/plans", atlantisBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestSubmitPlan(t *testing.T) {
	r := newTestRouter(t, nil)
	out := submit(t, r)

	id, _ := out["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "tester", out["client_id"])
	assert.Equal(t, "generate_plan", out["variant"])
	assert.Equal(t, true, out["simulated"])
	assert.Equal(t, entity.DemoNotice, out["notice"])
	assert.Equal(t, "/api/v1/plans/"+id+"/map.png", out["map_path"])

	panel := out["city_info_panel"].(map[string]any)
	assert.Equal(t, "Atlantis", panel["name"])
	assert.Equal(t, "100,000 residents", panel["population"])
	assert.Equal(t, "Coastal terrain", panel["terrain"])
	assert.Len(t, out["legend_items"], 8)
}

func TestSubmitPlanErrors(t *testing.T) {
	r := newTestRouter(t, nil)

	rec := do(t, r, http.MethodPost, "/api/v1/plans", `{"name":"","population":100000}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Please enter a city name","field":"name"}`, rec.Body.String())

	rec = do(t, r, http.MethodPost, "/api/v1/plans", `{"name":"Tiny","population":10}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Population must be between 50,000 and 30,000,000")

	rec = do(t, r, http.MethodPost, "/api/v1/plans", `{"variant":"teleport","name":"X"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/v1/plans", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type errPlans struct{ err error }

func (p errPlans) Submit(context.Context, string, entity.Variant, entity.PlanForm) (*entity.PlanSession, error) {
	return nil, p.err
}

func TestSubmitPlanStatusMapping(t *testing.T) {
	cases := map[error]int{
		entity.ErrBusy:           http.StatusConflict,
		entity.ErrBackend:        http.StatusBadGateway,
		context.DeadlineExceeded: http.StatusRequestTimeout,
		io.ErrUnexpectedEOF:      http.StatusInternalServerError,
	}
	for err, code := range cases {
		r := newTestRouter(t, errPlans{err: err})
		rec := do(t, r, http.MethodPost, "/api/v1/plans", atlantisBody)
		assert.Equal(t, code, rec.Code, err.Error())
	}
}

func TestGetLatestListDelete(t *testing.T) {
	r := newTestRouter(t, nil)
	id := submit(t, r)["id"].(string)

	rec := do(t, r, http.MethodGet, "/api/v1/plans/"+id, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/v1/plans/latest", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), id)

	rec = do(t, r, http.MethodGet, "/api/v1/plans", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = do(t, r, http.MethodDelete, "/api/v1/plans/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/v1/plans/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownloadMap(t *testing.T) {
	r := newTestRouter(t, nil)
	id := submit(t, r)["id"].(string)

	rec := do(t, r, http.MethodGet, "/api/v1/plans/"+id+"/map.png?viewport=1280", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Atlantis_map.png"`, rec.Header().Get("Content-Disposition"))

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	// 10x10 grid, 1280px viewport: min(600, 512) / 10 = 51px cells
	assert.Equal(t, 510, img.Bounds().Dx())
	assert.Equal(t, 510, img.Bounds().Dy())

	rec = do(t, r, http.MethodGet, "/api/v1/plans/missing/map.png", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestShareAndRestore(t *testing.T) {
	r := newTestRouter(t, nil)
	id := submit(t, r)["id"].(string)

	rec := do(t, r, http.MethodGet, "/api/v1/plans/"+id+"/share", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var msg struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	assert.Equal(t, "TerraNova: Atlantis", msg.Title)
	require.True(t, strings.HasPrefix(msg.URL, "https://terranova.example.com/?city="), msg.URL)

	u, err := url.Parse(msg.URL)
	require.NoError(t, err)
	rec = do(t, r, http.MethodGet, "/api/v1/share?"+u.RawQuery, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var restored struct {
		Restored bool            `json:"restored"`
		Form     entity.PlanForm `json:"form"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &restored))
	assert.True(t, restored.Restored)
	assert.Equal(t, "Atlantis", restored.Form.Name)
	assert.Equal(t, 100_000, restored.Form.Population)
	assert.Equal(t, 8, restored.Form.EcoPriority)

	rec = do(t, r, http.MethodGet, "/api/v1/share?city=%7Bbroken", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"restored":false}`, rec.Body.String())
}

func TestLegendAndHealth(t *testing.T) {
	r := newTestRouter(t, nil)

	rec := do(t, r, http.MethodGet, "/api/v1/legend", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var legend struct {
		Cells         []map[string]any `json:"cells"`
		FallbackColor string           `json:"fallback_color"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &legend))
	assert.Len(t, legend.Cells, 13)
	assert.Equal(t, "#ffffff", legend.FallbackColor)

	rec = do(t, r, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok":true`)

	rec = do(t, r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStreamRevealsInOrder(t *testing.T) {
	r := newTestRouter(t, nil)
	id := submit(t, r)["id"].(string)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/plans/" + id + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var stages []string
	for {
		var msg struct {
			Stage string          `json:"stage"`
			Data  json.RawMessage `json:"data"`
		}
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		require.NoError(t, conn.ReadJSON(&msg))
		stages = append(stages, msg.Stage)
		if msg.Stage == StageMap {
			var m streamMap
			require.NoError(t, json.Unmarshal(msg.Data, &m))
			assert.NotEmpty(t, m.PNG)
			assert.Len(t, m.Legend, 8)
		}
		if msg.Stage == StageDone || msg.Stage == StageError {
			break
		}
	}
	assert.Equal(t, []string{StageNotice, StageCityInfo, StageMap, StageMetrics, StageNotes, StageDone}, stages)
}

func TestStreamUnknownSession(t *testing.T) {
	r := newTestRouter(t, nil)
	rec := do(t, r, http.MethodGet, "/api/v1/plans/nope/stream", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
