package repository

import (
	"context"
	"fmt"
	"time"

	"restaurant-match-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FriendRepository handles database operations for friendships.
// Every friendship is stored as two directed edges.
type FriendRepository struct {
	db *pgxpool.Pool
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(db *pgxpool.Pool) *FriendRepository {
	return &FriendRepository{db: db}
}

// Add creates both edges of a friendship in one transaction.
// created is false when the friendship already existed.
func (r *FriendRepository) Add(ctx context.Context, userID, friendID string, since time.Time) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO friendships (user_id, friend_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, friend_id) DO NOTHING
	`
	forward, err := tx.Exec(ctx, query, userID, friendID, since)
	if err != nil {
		return false, fmt.Errorf("failed to create friendship: %w", err)
	}
	backward, err := tx.Exec(ctx, query, friendID, userID, since)
	if err != nil {
		return false, fmt.Errorf("failed to create reverse friendship: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit friendship: %w", err)
	}
	return forward.RowsAffected()+backward.RowsAffected() > 0, nil
}

// Remove deletes both edges of a friendship and reports whether any existed
func (r *FriendRepository) Remove(ctx context.Context, userID, friendID string) (bool, error) {
	query := `
		DELETE FROM friendships
		WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)
	`
	result, err := r.db.Exec(ctx, query, userID, friendID)
	if err != nil {
		return false, fmt.Errorf("failed to delete friendship: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// FriendIDs returns the ids of every friend of a user
func (r *FriendRepository) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT friend_id::text FROM friendships WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friend ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan friend ids: %w", err)
	}
	return ids, nil
}

// List returns the friends of a user with their display names, oldest friendship first
func (r *FriendRepository) List(ctx context.Context, userID string) ([]models.Friend, error) {
	query := `
		SELECT f.friend_id::text, COALESCE(u.display_name, ''), f.created_at
		FROM friendships f
		LEFT JOIN users u ON u.id = f.friend_id
		WHERE f.user_id = $1
		ORDER BY f.created_at, f.friend_id
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	defer rows.Close()

	friends := make([]models.Friend, 0)
	for rows.Next() {
		var friend models.Friend
		if err := rows.Scan(&friend.ID, &friend.DisplayName, &friend.Since); err != nil {
			return nil, fmt.Errorf("failed to scan friend: %w", err)
		}
		friends = append(friends, friend)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate friends: %w", err)
	}
	return friends, nil
}

// AreFriends checks whether an edge from userID to friendID exists
func (r *FriendRepository) AreFriends(ctx context.Context, userID, friendID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM friendships WHERE user_id = $1 AND friend_id = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, friendID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return exists, nil
}
