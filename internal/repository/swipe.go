package repository

import (
	"context"
	"fmt"

	"restaurant-match-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SwipeRepository handles database operations for the swipe ledger
type SwipeRepository struct {
	db *pgxpool.Pool
}

// NewSwipeRepository creates a new swipe repository
func NewSwipeRepository(db *pgxpool.Pool) *SwipeRepository {
	return &SwipeRepository{db: db}
}

// Upsert records a swipe, replacing any previous decision for the same restaurant
func (r *SwipeRepository) Upsert(ctx context.Context, swipe models.SwipeRecord) error {
	query := `
		INSERT INTO swipes (user_id, restaurant_id, direction, swiped_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, restaurant_id)
		DO UPDATE SET direction = EXCLUDED.direction, swiped_at = EXCLUDED.swiped_at
	`
	_, err := r.db.Exec(ctx, query, swipe.UserID, swipe.RestaurantID, string(swipe.Direction), swipe.SwipedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert swipe: %w", err)
	}
	return nil
}

// Get retrieves the swipe of a user on a restaurant
func (r *SwipeRepository) Get(ctx context.Context, userID, restaurantID string) (*models.SwipeRecord, error) {
	query := `
		SELECT user_id, restaurant_id, direction, swiped_at
		FROM swipes
		WHERE user_id = $1 AND restaurant_id = $2
	`
	var swipe models.SwipeRecord
	var direction string
	err := r.db.QueryRow(ctx, query, userID, restaurantID).Scan(
		&swipe.UserID, &swipe.RestaurantID, &direction, &swipe.SwipedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("swipe on %s: %w", restaurantID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get swipe: %w", err)
	}
	swipe.Direction = models.Direction(direction)
	return &swipe, nil
}

// RestaurantIDs returns every restaurant the user has swiped on
func (r *SwipeRepository) RestaurantIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT restaurant_id FROM swipes WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list swiped restaurants: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan swiped restaurants: %w", err)
	}
	return ids, nil
}

// DeleteAll removes the swipe history of a user
func (r *SwipeRepository) DeleteAll(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM swipes WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear swipes: %w", err)
	}
	return result.RowsAffected(), nil
}
