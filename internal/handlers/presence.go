package handlers

import (
	"net/http"

	"restaurant-match-backend/internal/middleware"
	"restaurant-match-backend/internal/services"
)

// PresenceHandler records client heartbeats
type PresenceHandler struct {
	presenceService *services.PresenceService
}

// NewPresenceHandler creates a new presence handler
func NewPresenceHandler(presenceService *services.PresenceService) *PresenceHandler {
	return &PresenceHandler{
		presenceService: presenceService,
	}
}

// Heartbeat handles POST /api/v1/presence/heartbeat. The write is fire-and-forget.
func (h *PresenceHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	h.presenceService.Heartbeat(middleware.GetUserID(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}
