package handlers

import (
	"errors"
	"net/http"

	"restaurant-match-backend/internal/middleware"
	"restaurant-match-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// SwipeHandler handles swipe and favorite HTTP requests
type SwipeHandler struct {
	swipeService *services.SwipeService
}

// NewSwipeHandler creates a new swipe handler
func NewSwipeHandler(swipeService *services.SwipeService) *SwipeHandler {
	return &SwipeHandler{
		swipeService: swipeService,
	}
}

// RecordSwipe handles POST /api/v1/swipes
func (h *SwipeHandler) RecordSwipe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req services.SwipeRequest
	if err := decodeJSON(r, &req, false); err != nil {
		respondServiceError(w, r, err, "Invalid request")
		return
	}

	result, err := h.swipeService.RecordSwipe(ctx, middleware.GetUserID(ctx), req.RestaurantID, req.Direction, req.Snapshot())
	if err != nil {
		respondServiceError(w, r, err, "Failed to record swipe")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetSwipe handles GET /api/v1/swipes/{restaurant_id}
func (h *SwipeHandler) GetSwipe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	swipe, err := h.swipeService.GetSwipe(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "restaurant_id"))
	if errors.Is(err, services.ErrNotFound) {
		respondJSON(w, http.StatusOK, map[string]interface{}{"swiped": false})
		return
	}
	if err != nil {
		respondServiceError(w, r, err, "Failed to get swipe")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"swiped": true, "swipe": swipe})
}

// ClearSwipes handles DELETE /api/v1/swipes
func (h *SwipeHandler) ClearSwipes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	n, err := h.swipeService.ClearSwipeHistory(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondServiceError(w, r, err, "Failed to clear swipe history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"deleted": n})
}

// ListFavorites handles GET /api/v1/favorites
func (h *SwipeHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	favorites, err := h.swipeService.ListFavorites(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondServiceError(w, r, err, "Failed to list favorites")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"favorites": favorites})
}

// GetFavorite handles GET /api/v1/favorites/{restaurant_id}
func (h *SwipeHandler) GetFavorite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ok, err := h.swipeService.IsFavorite(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "restaurant_id"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to get favorite")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"favorite": ok})
}

// Unlike handles DELETE /api/v1/favorites/{restaurant_id}
func (h *SwipeHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	removed, err := h.swipeService.Unlike(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "restaurant_id"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to remove favorite")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"removed": removed})
}

// ResetFavorites handles DELETE /api/v1/favorites
func (h *SwipeHandler) ResetFavorites(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	n, err := h.swipeService.ResetFavorites(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondServiceError(w, r, err, "Failed to reset favorites")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"deleted": n})
}
