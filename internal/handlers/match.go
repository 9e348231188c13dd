package handlers

import (
	"net/http"

	"restaurant-match-backend/internal/matching"
	"restaurant-match-backend/internal/middleware"
	"restaurant-match-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// MatchHandler serves match queries
type MatchHandler struct {
	matchService *services.MatchService
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(matchService *services.MatchService) *MatchHandler {
	return &MatchHandler{
		matchService: matchService,
	}
}

// ListMatches handles GET /api/v1/matches
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	matches, err := h.matchService.MatchesForUser(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondServiceError(w, r, err, "Failed to get matches")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"matches":          matches,
		"counts_by_friend": matching.CountByFriend(matches),
	})
}

// RestaurantMatches handles GET /api/v1/matches/{restaurant_id}
func (h *MatchHandler) RestaurantMatches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	restaurantID := chi.URLParam(r, "restaurant_id")

	friendIDs, err := h.matchService.MatchesForRestaurant(ctx, middleware.GetUserID(ctx), restaurantID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to get matches")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"restaurant_id": restaurantID,
		"friend_ids":    friendIDs,
	})
}
