package handlers

import (
	"net/http"

	"restaurant-match-backend/internal/middleware"
	"restaurant-match-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// FriendHandler handles friend-related HTTP requests
type FriendHandler struct {
	friendService *services.FriendService
}

// NewFriendHandler creates a new friend handler
func NewFriendHandler(friendService *services.FriendService) *FriendHandler {
	return &FriendHandler{
		friendService: friendService,
	}
}

// ListFriends handles GET /api/v1/friends
func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	friends, err := h.friendService.ListFriends(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondServiceError(w, r, err, "Failed to list friends")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"friends": friends})
}

// AddFriend handles POST /api/v1/friends
func (h *FriendHandler) AddFriend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req services.AddFriendRequest
	if err := decodeJSON(r, &req, false); err != nil {
		respondServiceError(w, r, err, "Invalid request")
		return
	}

	friend, err := h.friendService.Add(ctx, userID, req)
	if err != nil {
		respondServiceError(w, r, err, "Failed to add friend")
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("friend_id", friend.ID).
		Msg("Friend added")

	respondJSON(w, http.StatusCreated, friend)
}

// RemoveFriend handles DELETE /api/v1/friends/{friend_id}
func (h *FriendHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.friendService.RemoveFriend(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "friend_id")); err != nil {
		respondServiceError(w, r, err, "Failed to remove friend")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
