package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"restaurant-match-backend/internal/metrics"
	"restaurant-match-backend/internal/models"
	"restaurant-match-backend/internal/notify"
	"restaurant-match-backend/internal/scheduler"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const maxMessageLength = 1000

// ClientIDPrefix namespaces ids of notifications posted by clients
const ClientIDPrefix = "msg:"

// CreateNotificationRequest is the body accepted when a client posts a notification
type CreateNotificationRequest struct {
	ID      string                  `json:"id" validate:"omitempty,max=256"`
	UserID  string                  `json:"user_id" validate:"omitempty,uuid"`
	Type    models.NotificationType `json:"type" validate:"required,oneof=match message invitation"`
	Message string                  `json:"message" validate:"required,max=1000"`
	Data    map[string]interface{}  `json:"data"`
}

// NotificationService handles server-side notification storage and delivery
type NotificationService struct {
	store    NotificationStore
	pusher   Pusher
	capacity int
	now      func() time.Time
}

// NewNotificationService creates a new notification service.
// capacity bounds list sizes and the number of notifications kept per user.
func NewNotificationService(store NotificationStore, pusher Pusher, capacity int) *NotificationService {
	if capacity <= 0 {
		capacity = notify.DefaultCapacity
	}
	return &NotificationService{
		store:    store,
		pusher:   pusher,
		capacity: capacity,
		now:      time.Now,
	}
}

// List returns the newest notifications of a user. Out of range limits use the capacity.
func (s *NotificationService) List(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > s.capacity {
		limit = s.capacity
	}
	list, err := s.store.List(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return list, nil
}

// Create stores a notification for n.UserID. It is idempotent by id: a repeated
// create returns created=false and does not push again.
func (s *NotificationService) Create(ctx context.Context, n models.Notification) (*models.Notification, bool, error) {
	if n.UserID == "" {
		return nil, false, fmt.Errorf("%w: recipient is required", ErrInvalidInput)
	}
	if !n.Type.Valid() || n.Type == models.NotificationSummary {
		return nil, false, fmt.Errorf("%w: unsupported notification type %q", ErrInvalidInput, n.Type)
	}
	if strings.TrimSpace(n.Message) == "" || len(n.Message) > maxMessageLength {
		return nil, false, fmt.Errorf("%w: message must be 1-%d characters", ErrInvalidInput, maxMessageLength)
	}
	if strings.HasPrefix(n.ID, notify.LocalIDPrefix) {
		return nil, false, fmt.Errorf("%w: id prefix %q is reserved", ErrInvalidInput, notify.LocalIDPrefix)
	}

	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	n.Read = false
	n.Local = false

	created, err := s.store.Create(ctx, n)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create notification: %w", err)
	}
	if !created {
		return &n, false, nil
	}

	metrics.NotificationsCreated.WithLabelValues(string(n.Type)).Inc()
	s.push(n)
	return &n, true, nil
}

// Post stores a notification sent by senderID to recipientID. The client id is
// namespaced by sender, so clients can neither collide with each other nor with
// the match and invitation ids the server derives.
func (s *NotificationService) Post(ctx context.Context, senderID, recipientID string, req CreateNotificationRequest) (*models.Notification, bool, error) {
	if senderID == "" {
		return nil, false, fmt.Errorf("%w: sender is required", ErrInvalidInput)
	}
	id := req.ID
	if strings.HasPrefix(id, notify.LocalIDPrefix) {
		return nil, false, fmt.Errorf("%w: id prefix %q is reserved", ErrInvalidInput, notify.LocalIDPrefix)
	}
	if id == "" {
		id = uuid.New().String()
	}

	data := make(map[string]interface{}, len(req.Data)+1)
	for k, v := range req.Data {
		data[k] = v
	}
	data["sender_id"] = senderID

	return s.Create(ctx, models.Notification{
		ID:      ClientNotificationID(senderID, id),
		UserID:  recipientID,
		Type:    req.Type,
		Message: req.Message,
		Data:    data,
	})
}

// ClientNotificationID is the stored id of a notification a client posted with id
func ClientNotificationID(senderID, id string) string {
	return ClientIDPrefix + senderID + ":" + id
}

// MarkRead marks one notification read
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	return s.store.MarkRead(ctx, userID, id)
}

// MarkAllRead marks every notification of the user read
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.store.MarkAllRead(ctx, userID)
}

// Remove deletes one notification
func (s *NotificationService) Remove(ctx context.Context, userID, id string) error {
	return s.store.Delete(ctx, userID, id)
}

// ClearAll deletes every notification of the user
func (s *NotificationService) ClearAll(ctx context.Context, userID string) (int64, error) {
	return s.store.DeleteAll(ctx, userID)
}

// Prune keeps only the newest notifications of every user
func (s *NotificationService) Prune(ctx context.Context) error {
	n, err := s.store.Prune(ctx, s.capacity)
	if err != nil {
		return fmt.Errorf("failed to prune notifications: %w", err)
	}
	if n > 0 {
		metrics.NotificationsPruned.Add(float64(n))
		log.Info().Int64("deleted", n).Msg("Pruned notifications")
	}
	return nil
}

// PruneTask returns the periodic prune job
func (s *NotificationService) PruneTask(interval time.Duration) *scheduler.Task {
	return scheduler.New("notification-prune", interval, s.Prune)
}

func (s *NotificationService) push(n models.Notification) {
	if s.pusher == nil || !s.pusher.IsOnline(n.UserID) {
		return
	}
	msg := WSMessage{
		Type:      "notification",
		Timestamp: n.CreatedAt.UnixMilli(),
		Data:      n,
	}
	if err := s.pusher.SendToUser(n.UserID, msg); err != nil {
		log.Warn().Err(err).Str("user_id", n.UserID).Str("notification_id", n.ID).Msg("Failed to push notification")
	}
}
