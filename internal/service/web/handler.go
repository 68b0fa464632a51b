package web

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"geointel/internal/shared/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler serves the status API endpoints.
type Handler struct {
	controller Controller
	hub        *Hub
}

func NewHandler(controller Controller, hub *Hub) *Handler {
	return &Handler{controller: controller, hub: hub}
}

// HandleProxies returns the current pool snapshot as JSON.
func (h *Handler) HandleProxies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.controller.PoolSnapshot()); err != nil {
		logger.Error().Err(err).Msg("Failed to encode pool snapshot.")
	}
}

// HandleRefresh triggers a background acquisition cycle.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.controller.RefreshAsync()
	w.WriteHeader(http.StatusAccepted)
	w.Write([]byte(`{"status":"refresh started"}`))
}

// HandleWebSocket upgrades the connection and registers it with the hub. The
// read pump exists only to notice disconnects.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("WebSocket upgrade failed.")
		return
	}

	h.hub.register <- conn

	go func() {
		defer func() { h.hub.unregister <- conn }()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
