package handlers

import (
	"net/http"

	"restaurant-match-backend/internal/middleware"
	"restaurant-match-backend/internal/services"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// CreateUserRequest represents the request body for creating a user
type CreateUserRequest struct {
	DisplayName string `json:"display_name" validate:"max=64"`
}

// CreateUser handles POST /api/v1/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decodeJSON(r, &req, true); err != nil {
		respondServiceError(w, r, err, "Invalid request")
		return
	}

	user, err := h.userService.CreateUser(r.Context(), req.DisplayName)
	if err != nil {
		respondServiceError(w, r, err, "Failed to create user")
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

// GetMe handles GET /api/v1/users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.userService.GetUser(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondServiceError(w, r, err, "Failed to get user")
		return
	}

	respondJSON(w, http.StatusOK, user)
}
