package repository

import (
	"context"
	"fmt"

	"restaurant-match-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FavoriteRepository handles database operations for favorites
type FavoriteRepository struct {
	db *pgxpool.Pool
}

// NewFavoriteRepository creates a new favorite repository
func NewFavoriteRepository(db *pgxpool.Pool) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Create stores a favorite. An existing favorite keeps its original snapshot and
// created reports false.
func (r *FavoriteRepository) Create(ctx context.Context, fav models.FavoriteRecord) (bool, error) {
	query := `
		INSERT INTO favorites (user_id, restaurant_id, restaurant, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, restaurant_id) DO NOTHING
	`
	result, err := r.db.Exec(ctx, query, fav.UserID, fav.RestaurantID, fav.Restaurant, fav.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to create favorite: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// Delete removes a favorite and reports whether one existed
func (r *FavoriteRepository) Delete(ctx context.Context, userID, restaurantID string) (bool, error) {
	query := `DELETE FROM favorites WHERE user_id = $1 AND restaurant_id = $2`
	result, err := r.db.Exec(ctx, query, userID, restaurantID)
	if err != nil {
		return false, fmt.Errorf("failed to delete favorite: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// DeleteAll removes every favorite of a user
func (r *FavoriteRepository) DeleteAll(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM favorites WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to reset favorites: %w", err)
	}
	return result.RowsAffected(), nil
}

// ListByUser returns the favorites of a user, newest first
func (r *FavoriteRepository) ListByUser(ctx context.Context, userID string) ([]models.FavoriteRecord, error) {
	query := `
		SELECT user_id, restaurant_id, restaurant, created_at
		FROM favorites
		WHERE user_id = $1
		ORDER BY created_at DESC, restaurant_id
	`
	return r.list(ctx, query, userID)
}

// ListForUsers returns the favorites held by any of userIDs on any of restaurantIDs
func (r *FavoriteRepository) ListForUsers(ctx context.Context, userIDs, restaurantIDs []string) ([]models.FavoriteRecord, error) {
	if len(userIDs) == 0 || len(restaurantIDs) == 0 {
		return []models.FavoriteRecord{}, nil
	}
	query := `
		SELECT user_id, restaurant_id, restaurant, created_at
		FROM favorites
		WHERE user_id = ANY($1::uuid[]) AND restaurant_id = ANY($2)
		ORDER BY restaurant_id, user_id
	`
	return r.list(ctx, query, userIDs, restaurantIDs)
}

// Exists checks whether the user has favorited a restaurant
func (r *FavoriteRepository) Exists(ctx context.Context, userID, restaurantID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM favorites WHERE user_id = $1 AND restaurant_id = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, restaurantID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return exists, nil
}

// RestaurantIDs returns the ids of every restaurant the user has favorited
func (r *FavoriteRepository) RestaurantIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT restaurant_id FROM favorites WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorite ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan favorite ids: %w", err)
	}
	return ids, nil
}

// UsersWithFavorite returns which of userIDs have favorited a restaurant
func (r *FavoriteRepository) UsersWithFavorite(ctx context.Context, restaurantID string, userIDs []string) ([]string, error) {
	if len(userIDs) == 0 {
		return []string{}, nil
	}
	query := `
		SELECT user_id::text
		FROM favorites
		WHERE restaurant_id = $1 AND user_id = ANY($2::uuid[])
	`
	rows, err := r.db.Query(ctx, query, restaurantID, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list users with favorite: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan users with favorite: %w", err)
	}
	return ids, nil
}

func (r *FavoriteRepository) list(ctx context.Context, query string, args ...any) ([]models.FavoriteRecord, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	favorites := make([]models.FavoriteRecord, 0)
	for rows.Next() {
		var fav models.FavoriteRecord
		if err := rows.Scan(&fav.UserID, &fav.RestaurantID, &fav.Restaurant, &fav.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		favorites = append(favorites, fav)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate favorites: %w", err)
	}
	return favorites, nil
}
