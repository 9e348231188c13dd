package repository

import (
	"context"
	"fmt"

	"restaurant-match-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NotificationRepository handles database operations for notifications
type NotificationRepository struct {
	db *pgxpool.Pool
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create stores a notification. A notification whose id already exists for the
// user is left untouched and created reports false.
func (r *NotificationRepository) Create(ctx context.Context, n models.Notification) (bool, error) {
	query := `
		INSERT INTO notifications (user_id, id, type, message, data, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, id) DO NOTHING
	`
	result, err := r.db.Exec(ctx, query, n.UserID, n.ID, string(n.Type), n.Message, n.Data, n.Read, n.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to create notification: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// List returns the newest notifications of a user
func (r *NotificationRepository) List(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	query := `
		SELECT user_id, id, type, message, data, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		var kind string
		if err := rows.Scan(&n.UserID, &n.ID, &kind, &n.Message, &n.Data, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Type = models.NotificationType(kind)
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead marks one notification read
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id string) error {
	result, err := r.db.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	return nil
}

// MarkAllRead marks every notification of a user read
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE user_id = $1 AND NOT read`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return result.RowsAffected(), nil
}

// Delete removes one notification
func (r *NotificationRepository) Delete(ctx context.Context, userID, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM notifications WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteAll removes every notification of a user
func (r *NotificationRepository) DeleteAll(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM notifications WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear notifications: %w", err)
	}
	return result.RowsAffected(), nil
}

// Prune keeps only the newest keep notifications of every user
func (r *NotificationRepository) Prune(ctx context.Context, keep int) (int64, error) {
	query := `
		DELETE FROM notifications n
		USING (
			SELECT user_id, id,
				ROW_NUMBER() OVER (PARTITION BY user_id ORDER BY created_at DESC, id DESC) AS position
			FROM notifications
		) ranked
		WHERE n.user_id = ranked.user_id AND n.id = ranked.id AND ranked.position > $1
	`
	result, err := r.db.Exec(ctx, query, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune notifications: %w", err)
	}
	return result.RowsAffected(), nil
}
