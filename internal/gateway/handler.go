package gateway

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Handler exposes the WebSocket upgrade and stats endpoints.
type Handler struct {
	connectionManager *ConnectionManager
}

// NewHandler creates the gateway HTTP handler.
func NewHandler(cm *ConnectionManager) *Handler {
	return &Handler{connectionManager: cm}
}

// HandleConnection upgrades a client to WebSocket. No identity is
// required up front: the server issues a connection id and the client
// introduces itself with a join event.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	if err := h.connectionManager.UpgradeConnection(w, r); err != nil {
		log.Error().Err(err).Str("remote", r.RemoteAddr).Msg("failed to upgrade WebSocket connection")
		http.Error(w, "failed to upgrade connection", http.StatusInternalServerError)
		return
	}
}

// HandleConnectionStats returns counts of active connections.
func (h *Handler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	stats := h.connectionManager.ConnectionStats()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"total_connections":%d}`, stats["total_connections"].(int))
}

// RegisterRoutes registers the gateway routes with an HTTP mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.HandleConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}
