package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"terranova/app/usecase"
	"terranova/internal/domain/entity"
	"terranova/internal/infrastructure/metrics"
	"terranova/internal/infrastructure/render"
	"terranova/internal/infrastructure/share"
)

// ClientIDHeader lets a caller keep one identity across connections.
const ClientIDHeader = "X-Client-Id"

type PlannerHandler struct {
	plans    usecase.PlanUsecase
	sessions usecase.SessionUsecase
	revealer *usecase.Revealer
	logger   *slog.Logger
	upgrader websocket.Upgrader

	defaultVariant entity.Variant
	viewportWidth  int
	pageURL        string
}

type HandlerOptions struct {
	DefaultVariant entity.Variant
	ViewportWidth  int
	// PageURL is the page share links point at.
	PageURL string
}

func NewPlannerHandler(
	plans usecase.PlanUsecase,
	sessions usecase.SessionUsecase,
	revealer *usecase.Revealer,
	opts HandlerOptions,
	logger *slog.Logger,
) *PlannerHandler {
	if opts.DefaultVariant == "" {
		opts.DefaultVariant = entity.VariantGeneratePlan
	}
	if opts.ViewportWidth <= 0 {
		opts.ViewportWidth = render.DefaultViewportWidth
	}
	return &PlannerHandler{
		plans:    plans,
		sessions: sessions,
		revealer: revealer,
		logger:   logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		defaultVariant: opts.DefaultVariant,
		viewportWidth:  opts.ViewportWidth,
		pageURL:        opts.PageURL,
	}
}

func (h *PlannerHandler) withMetrics(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rw, r)

		metrics.ObserveHTTPRequest(route, r.Method, rw.status, time.Since(start))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (h *PlannerHandler) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/plans", h.withMetrics(h.handleSubmitPlan)).Methods(http.MethodPost)
	api.HandleFunc("/plans", h.withMetrics(h.handleListPlans)).Methods(http.MethodGet)
	api.HandleFunc("/plans/latest", h.withMetrics(h.handleLatestPlan)).Methods(http.MethodGet)
	api.HandleFunc("/plans/{id}", h.withMetrics(h.handleGetPlan)).Methods(http.MethodGet)
	api.HandleFunc("/plans/{id}", h.withMetrics(h.handleDeletePlan)).Methods(http.MethodDelete)
	api.HandleFunc("/plans/{id}/map.png", h.withMetrics(h.handleDownloadMap)).Methods(http.MethodGet)
	api.HandleFunc("/plans/{id}/share", h.withMetrics(h.handleShare)).Methods(http.MethodGet)
	api.HandleFunc("/plans/{id}/stream", h.withMetrics(h.handleStream)).Methods(http.MethodGet)
	api.HandleFunc("/share", h.withMetrics(h.handleRestore)).Methods(http.MethodGet)
	api.HandleFunc("/legend", h.withMetrics(h.handleLegend)).Methods(http.MethodGet)
	api.HandleFunc("/health", h.withMetrics(h.handleHealth)).Methods(http.MethodGet)

	// Prometheus
	r.Handle("/metrics", metrics.Handler())
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// errorStatus maps domain errors to HTTP codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, entity.ErrValidation), errors.Is(err, entity.ErrMalformedShare):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, entity.ErrNoGrid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, entity.ErrBackend):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *PlannerHandler) fail(w http.ResponseWriter, msg string, err error, args ...any) {
	code := errorStatus(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error(msg, append(args, "err", err)...)
		metrics.IncError("transport", strconv.Itoa(code))
	} else {
		h.logger.Warn(msg, append(args, "err", err)...)
	}
	var verr *entity.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, code, map[string]string{"error": verr.Message, "field": verr.Field})
		return
	}
	writeError(w, code, err)
}

func clientID(r *http.Request) string {
	if id := r.Header.Get(ClientIDHeader); id != "" {
		return id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (h *PlannerHandler) viewport(r *http.Request) int {
	if v, err := strconv.Atoi(r.URL.Query().Get("viewport")); err == nil && v > 0 {
		return v
	}
	return h.viewportWidth
}

type submitPlanReq struct {
	Variant string `json:"variant"`
	entity.PlanForm
}

// planView is a session plus the panels a page would display for it.
type planView struct {
	*entity.PlanSession
	CityInfoPanel render.CityInfoPanel `json:"city_info_panel"`
	MetricCards   []render.MetricCard  `json:"metric_cards"`
	LegendItems   []render.Swatch      `json:"legend_items"`
	MapPath       string               `json:"map_path,omitempty"`
}

func newPlanView(s *entity.PlanSession) planView {
	v := planView{PlanSession: s}
	if s.Response == nil {
		return v
	}
	v.CityInfoPanel = render.FormatCityInfo(s.Response.CityInfo)
	v.MetricCards = render.FormatMetrics(s.Response.Metrics)
	v.LegendItems = render.BuildLegend(s.Response.Legend)
	if s.Response.HasGrid() {
		v.MapPath = "/api/v1/plans/" + s.ID + "/map.png"
	}
	return v
}

// POST /api/v1/plans
func (h *PlannerHandler) handleSubmitPlan(w http.ResponseWriter, r *http.Request) {
	var req submitPlanReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("bad request body: %w", err))
		return
	}

	variant := h.defaultVariant
	if req.Variant != "" {
		v, err := entity.ParseVariant(req.Variant)
		if err != nil {
			h.fail(w, "bad variant", err)
			return
		}
		variant = v
	}

	session, err := h.plans.Submit(r.Context(), clientID(r), variant, req.PlanForm)
	if err != nil {
		h.fail(w, "submit plan failed", err, "variant", variant)
		return
	}
	writeJSON(w, http.StatusCreated, newPlanView(session))
}

// GET /api/v1/plans
func (h *PlannerHandler) handleListPlans(w http.ResponseWriter, r *http.Request) {
	list, err := h.sessions.ListSessions(r.Context())
	if err != nil {
		h.fail(w, "list plans failed", err)
		return
	}
	views := make([]planView, 0, len(list))
	for _, s := range list {
		views = append(views, newPlanView(s))
	}
	writeJSON(w, http.StatusOK, views)
}

// GET /api/v1/plans/latest
func (h *PlannerHandler) handleLatestPlan(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.LatestSession(r.Context(), clientID(r))
	if err != nil {
		h.fail(w, "latest plan failed", err)
		return
	}
	writeJSON(w, http.StatusOK, newPlanView(s))
}

// GET /api/v1/plans/{id}
func (h *PlannerHandler) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s, err := h.sessions.GetSession(r.Context(), id)
	if err != nil {
		h.fail(w, "get plan failed", err, "session_id", id)
		return
	}
	writeJSON(w, http.StatusOK, newPlanView(s))
}

// DELETE /api/v1/plans/{id}
func (h *PlannerHandler) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.sessions.DeleteSession(r.Context(), id); err != nil {
		h.fail(w, "delete plan failed", err, "session_id", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/plans/{id}/map.png
func (h *PlannerHandler) handleDownloadMap(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	stored, png, err := h.sessions.DownloadMap(r.Context(), id, h.viewport(r))
	if err != nil {
		h.fail(w, "download map failed", err, "session_id", id)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", stored.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// GET /api/v1/plans/{id}/share
func (h *PlannerHandler) handleShare(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	page := r.URL.Query().Get("page")
	if page == "" {
		page = h.pageURL
	}
	if page == "" {
		page = "http://" + r.Host + "/"
	}
	msg, err := h.sessions.ShareLink(r.Context(), id, page)
	if err != nil {
		h.fail(w, "share plan failed", err, "session_id", id)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// GET /api/v1/share?city=...
func (h *PlannerHandler) handleRestore(w http.ResponseWriter, r *http.Request) {
	form, ok := share.Restore("?"+r.URL.RawQuery, h.logger)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"restored": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"restored": true, "form": form})
}

// GET /api/v1/legend
func (h *PlannerHandler) handleLegend(w http.ResponseWriter, r *http.Request) {
	out := make([]render.Swatch, 0, len(entity.CellTypes()))
	for _, c := range entity.CellTypes() {
		out = append(out, render.Swatch{Code: c, Name: c.String(), Color: c.Color()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"cells": out, "fallback_color": entity.FallbackColor})
}

// GET /api/v1/health
func (h *PlannerHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"ok": true,
		"ts": time.Now().UTC(),
	}
	writeJSON(w, http.StatusOK, status)
}
