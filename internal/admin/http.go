package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/server-monitor/internal/domain"
	"github.com/server-monitor/internal/scheduler"
	"github.com/server-monitor/internal/websocket"
)

// Monitor is the scheduler surface the admin API drives. These endpoints
// replace the host console commands of older deployments.
type Monitor interface {
	TriggerCycle(trigger string)
	ReloadSettings() error
	Status() scheduler.Status
}

// HostEvents receives the notifications the game host pushes into the
// service: player authorization, disconnect, live counters, team scores.
type HostEvents interface {
	PlayerAuthorized(slot int, steamID64 uint64, name string)
	PlayerDisconnected(slot int)
	PlayerStats(slot int, stats domain.PlayerStats)
	TeamScores(scores domain.TeamScores)
}

// Handler provides the admin HTTP API
type Handler struct {
	monitor Monitor
	events  HostEvents
	hub     *websocket.Hub
	logger  *slog.Logger
}

// NewHandler creates a new admin handler
func NewHandler(monitor Monitor, events HostEvents, hub *websocket.Hub, logger *slog.Logger) *Handler {
	return &Handler{
		monitor: monitor,
		events:  events,
		hub:     hub,
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
	r.Use(middleware.Recoverer)

	// Health check
	r.Get("/health", h.HealthCheck)

	// Live report feed
	r.Get("/ws", h.HandleWebSocket)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/update", h.TriggerUpdate)
		r.Post("/reload", h.ReloadSettings)
		r.Get("/status", h.GetStatus)
		r.Get("/ws/stats", h.GetWebSocketStats)

		// Host notification ingest
		r.Route("/host", func(r chi.Router) {
			r.Post("/players", h.PlayerAuthorized)
			r.Delete("/players/{slot}", h.PlayerDisconnected)
			r.Put("/players/{slot}/stats", h.PlayerStats)
			r.Put("/scores", h.TeamScores)
		})
	})

	return r
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
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

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// TriggerUpdate starts an on-demand update cycle
func (h *Handler) TriggerUpdate(w http.ResponseWriter, r *http.Request) {
	h.monitor.TriggerCycle("manual")
	h.writeSuccess(w, map[string]string{"status": "triggered"})
}

// ReloadSettings re-reads the server settings file
func (h *Handler) ReloadSettings(w http.ResponseWriter, r *http.Request) {
	if err := h.monitor.ReloadSettings(); err != nil {
		// A missing or malformed file keeps the previous settings; the
		// reload itself still "succeeds" from the operator's view.
		h.logger.Warn("settings reload kept previous values", "error", err)
		h.writeSuccess(w, map[string]string{"status": "kept previous settings", "reason": err.Error()})
		return
	}
	h.writeSuccess(w, map[string]string{"status": "reloaded"})
}

// GetStatus returns the pipeline status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, h.monitor.Status())
}

// AuthorizeRequest is the body of POST /host/players.
type AuthorizeRequest struct {
	Slot      int    `json:"slot"`
	SteamID64 uint64 `json:"steamid64"`
	Name      string `json:"name"`
}

// StatsRequest is the body of PUT /host/players/{slot}/stats.
type StatsRequest struct {
	Name      string `json:"name"`
	Kills     int    `json:"kills"`
	Deaths    int    `json:"deaths"`
	Assists   int    `json:"assists"`
	Headshots int    `json:"headshots"`
}

// ScoresRequest is the body of PUT /host/scores.
type ScoresRequest struct {
	ScoreCT int `json:"score_ct"`
	ScoreT  int `json:"score_t"`
}

// PlayerAuthorized handles a player authorization notification
func (h *Handler) PlayerAuthorized(w http.ResponseWriter, r *http.Request) {
	var req AuthorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	if req.Slot < 0 {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	h.events.PlayerAuthorized(req.Slot, req.SteamID64, req.Name)
	h.writeSuccess(w, map[string]string{"status": "accepted"})
}

// PlayerDisconnected handles a player disconnect notification
func (h *Handler) PlayerDisconnected(w http.ResponseWriter, r *http.Request) {
	slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil || slot < 0 {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	h.events.PlayerDisconnected(slot)
	h.writeSuccess(w, map[string]string{"status": "removed"})
}

// PlayerStats handles a live counter refresh for one slot
func (h *Handler) PlayerStats(w http.ResponseWriter, r *http.Request) {
	slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil || slot < 0 {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	var req StatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	h.events.PlayerStats(slot, domain.PlayerStats{
		Name:      req.Name,
		Kills:     req.Kills,
		Deaths:    req.Deaths,
		Assists:   req.Assists,
		Headshots: req.Headshots,
	})
	h.writeSuccess(w, map[string]string{"status": "accepted"})
}

// TeamScores handles a team score refresh
func (h *Handler) TeamScores(w http.ResponseWriter, r *http.Request) {
	var req ScoresRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	h.events.TeamScores(domain.TeamScores{CT: req.ScoreCT, T: req.ScoreT})
	h.writeSuccess(w, map[string]string{"status": "accepted"})
}
