package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/steam-digest/internal/domain"
	"github.com/steam-digest/internal/postgres"
	"github.com/steam-digest/internal/service"
	"github.com/steam-digest/internal/websocket"
)

// Handler provides HTTP handlers for the digest API
type Handler struct {
	service *service.DigestService
	hub     *websocket.Hub
	archive *postgres.Archive
	logger  *slog.Logger
}

// NewHandler creates a new HTTP handler. The archive may be nil when the
// run history is disabled.
func NewHandler(service *service.DigestService, hub *websocket.Hub, archive *postgres.Archive, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		hub:     hub,
		archive: archive,
		logger:  logger,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	// WebSocket endpoint
	r.Get("/ws", h.HandleWebSocket)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/digest", func(r chi.Router) {
			r.Get("/latest", h.GetLatestDigest)
			r.Get("/preview", h.PreviewDigest)
			r.Post("/run", h.TriggerRun)
		})

		r.Get("/runs", h.ListRuns)
		r.Get("/ws/stats", h.GetWebSocketStats)
	})

	return r
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck returns service readiness status
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "ready"})
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWs(h.hub, h.logger, w, r)
}

// GetWebSocketStats returns WebSocket connection statistics
func (h *Handler) GetWebSocketStats(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]interface{}{
		"total_connections": h.hub.GetTotalConnections(),
	})
}

// digestResponse pairs a report with its rendered summary.
type digestResponse struct {
	Report  *domain.Report `json:"report"`
	Summary string         `json:"summary"`
}

// GetLatestDigest returns the most recent finished run
func (h *Handler) GetLatestDigest(w http.ResponseWriter, r *http.Request) {
	report, summary, err := h.service.Latest()
	if err != nil {
		if errors.Is(err, domain.ErrNoReport) {
			h.writeError(w, http.StatusNotFound, err)
			return
		}
		h.logger.Error("failed to get latest digest", "error", err)
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.writeSuccess(w, digestResponse{Report: report, Summary: summary})
}

// PreviewDigest computes and renders a digest without posting it or
// advancing the snapshot baseline
func (h *Handler) PreviewDigest(w http.ResponseWriter, r *http.Request) {
	report, summary, err := h.service.Preview(r.Context())
	if err != nil {
		h.logger.Error("failed to preview digest", "error", err)
		h.writeError(w, http.StatusBadGateway, err)
		return
	}
	h.writeSuccess(w, digestResponse{Report: report, Summary: summary})
}

// TriggerRun performs a full digest run immediately
func (h *Handler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Run(r.Context())
	if err != nil {
		h.logger.Error("triggered run failed", "error", err)
		h.writeError(w, http.StatusBadGateway, err)
		return
	}
	h.writeSuccess(w, report)
}

// ListRuns returns archived digest runs, newest first
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		h.writeError(w, http.StatusNotFound, errors.New("run archive is not enabled"))
		return
	}

	limit := 30
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	runs, err := h.archive.ListRecentRuns(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list runs", "error", err)
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.writeSuccess(w, runs)
}
