package handlers

import (
	"net/http"

	"restaurant-match-backend/internal/middleware"
	"restaurant-match-backend/internal/models"
	"restaurant-match-backend/internal/services"
)

// TournamentHandler handles tournament and selection HTTP requests
type TournamentHandler struct {
	tournamentService *services.TournamentService
}

// NewTournamentHandler creates a new tournament handler
func NewTournamentHandler(tournamentService *services.TournamentService) *TournamentHandler {
	return &TournamentHandler{
		tournamentService: tournamentService,
	}
}

// StartTournamentRequest optionally restricts the bracket to some favorites
type StartTournamentRequest struct {
	RestaurantIDs []string `json:"restaurant_ids" validate:"omitempty,max=256,dive,required,max=128"`
}

// ChoiceRequest picks the winner of the active pair
type ChoiceRequest struct {
	Choice *int `json:"choice" validate:"required,gte=0,lte=1"`
}

// SelectionRequest overwrites the selected restaurant
type SelectionRequest struct {
	Restaurant models.Restaurant `json:"restaurant"`
}

// Start handles POST /api/v1/tournament
func (h *TournamentHandler) Start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req StartTournamentRequest
	if err := decodeJSON(r, &req, true); err != nil {
		respondServiceError(w, r, err, "Invalid request")
		return
	}

	state, err := h.tournamentService.Start(ctx, middleware.GetUserID(ctx), req.RestaurantIDs)
	if err != nil {
		respondServiceError(w, r, err, "Failed to start tournament")
		return
	}

	respondJSON(w, http.StatusCreated, state)
}

// Current handles GET /api/v1/tournament
func (h *TournamentHandler) Current(w http.ResponseWriter, r *http.Request) {
	state, err := h.tournamentService.Current(middleware.GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, r, err, "Failed to get tournament")
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// Choose handles POST /api/v1/tournament/choice
func (h *TournamentHandler) Choose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ChoiceRequest
	if err := decodeJSON(r, &req, false); err != nil {
		respondServiceError(w, r, err, "Invalid request")
		return
	}

	state, err := h.tournamentService.Choose(ctx, middleware.GetUserID(ctx), *req.Choice)
	if err != nil {
		respondServiceError(w, r, err, "Failed to resolve choice")
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// Abandon handles DELETE /api/v1/tournament
func (h *TournamentHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	h.tournamentService.Abandon(middleware.GetUserID(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

// GetSelection handles GET /api/v1/selection
func (h *TournamentHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	selected, err := h.tournamentService.Selected(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondServiceError(w, r, err, "Failed to get selection")
		return
	}

	respondJSON(w, http.StatusOK, selected)
}

// SetSelection handles POST /api/v1/selection
func (h *TournamentHandler) SetSelection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SelectionRequest
	if err := decodeJSON(r, &req, false); err != nil {
		respondServiceError(w, r, err, "Invalid request")
		return
	}

	selected, err := h.tournamentService.SetSelected(ctx, middleware.GetUserID(ctx), req.Restaurant)
	if err != nil {
		respondServiceError(w, r, err, "Failed to save selection")
		return
	}

	respondJSON(w, http.StatusOK, selected)
}

// History handles GET /api/v1/selection/history
func (h *TournamentHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	winners, err := h.tournamentService.Winners(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondServiceError(w, r, err, "Failed to get winner history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"winners": winners})
}
