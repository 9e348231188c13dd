package handlers

import (
	"net/http"
	"strconv"

	"restaurant-match-backend/internal/middleware"
	"restaurant-match-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// NotificationHandler handles notification HTTP requests
type NotificationHandler struct {
	notificationService *services.NotificationService
	friendService       *services.FriendService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *services.NotificationService, friendService *services.FriendService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		friendService:       friendService,
	}
}

// ListNotifications handles GET /api/v1/notifications?limit=
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	list, err := h.notificationService.List(ctx, middleware.GetUserID(ctx), limit)
	if err != nil {
		respondServiceError(w, r, err, "Failed to list notifications")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"notifications": list})
}

// CreateNotification handles POST /api/v1/notifications.
// Without user_id the notification is stored for the caller; otherwise the recipient must be a friend.
func (h *NotificationHandler) CreateNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req services.CreateNotificationRequest
	if err := decodeJSON(r, &req, false); err != nil {
		respondServiceError(w, r, err, "Invalid request")
		return
	}

	recipient := req.UserID
	if recipient == "" {
		recipient = userID
	}
	if recipient != userID {
		ok, err := h.friendService.AreFriends(ctx, userID, recipient)
		if err != nil {
			respondServiceError(w, r, err, "Failed to create notification")
			return
		}
		if !ok {
			respondError(w, "recipient is not a friend", http.StatusForbidden)
			return
		}
	}

	n, created, err := h.notificationService.Post(ctx, userID, recipient, req)
	if err != nil {
		respondServiceError(w, r, err, "Failed to create notification")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondJSON(w, status, n)
}

// MarkAllRead handles PUT /api/v1/notifications/read
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	n, err := h.notificationService.MarkAllRead(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondServiceError(w, r, err, "Failed to mark notifications read")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"updated": n})
}

// MarkRead handles PUT /api/v1/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.notificationService.MarkRead(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, r, err, "Failed to mark notification read")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ClearAll handles DELETE /api/v1/notifications
func (h *NotificationHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	n, err := h.notificationService.ClearAll(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondServiceError(w, r, err, "Failed to clear notifications")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"deleted": n})
}

// Remove handles DELETE /api/v1/notifications/{id}
func (h *NotificationHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.notificationService.Remove(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, r, err, "Failed to delete notification")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
