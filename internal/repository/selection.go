package repository

import (
	"context"
	"fmt"

	"restaurant-match-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SelectionRepository stores tournament outcomes: the current pick and the winner history
type SelectionRepository struct {
	db *pgxpool.Pool
}

// NewSelectionRepository creates a new selection repository
func NewSelectionRepository(db *pgxpool.Pool) *SelectionRepository {
	return &SelectionRepository{db: db}
}

// SetSelected overwrites the selected restaurant of a user
func (r *SelectionRepository) SetSelected(ctx context.Context, sel models.SelectedRestaurant) error {
	query := `
		INSERT INTO selections (user_id, restaurant, selected_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET restaurant = EXCLUDED.restaurant, selected_at = EXCLUDED.selected_at
	`
	if _, err := r.db.Exec(ctx, query, sel.UserID, sel.Restaurant, sel.SelectedAt); err != nil {
		return fmt.Errorf("failed to set selected restaurant: %w", err)
	}
	return nil
}

// GetSelected retrieves the selected restaurant of a user
func (r *SelectionRepository) GetSelected(ctx context.Context, userID string) (*models.SelectedRestaurant, error) {
	query := `SELECT user_id, restaurant, selected_at FROM selections WHERE user_id = $1`
	var sel models.SelectedRestaurant
	err := r.db.QueryRow(ctx, query, userID).Scan(&sel.UserID, &sel.Restaurant, &sel.SelectedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("selected restaurant: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get selected restaurant: %w", err)
	}
	return &sel, nil
}

// UpsertWinner records a tournament win. A restaurant that already won is refreshed, not duplicated.
func (r *SelectionRepository) UpsertWinner(ctx context.Context, entry models.WinnerEntry) error {
	query := `
		INSERT INTO tournament_winners (user_id, restaurant_id, restaurant, won_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, restaurant_id)
		DO UPDATE SET restaurant = EXCLUDED.restaurant, won_at = EXCLUDED.won_at
	`
	if _, err := r.db.Exec(ctx, query, entry.UserID, entry.RestaurantID, entry.Restaurant, entry.WonAt); err != nil {
		return fmt.Errorf("failed to record winner: %w", err)
	}
	return nil
}

// ListWinners returns the winner history of a user, newest first
func (r *SelectionRepository) ListWinners(ctx context.Context, userID string) ([]models.WinnerEntry, error) {
	query := `
		SELECT user_id, restaurant_id, restaurant, won_at
		FROM tournament_winners
		WHERE user_id = $1
		ORDER BY won_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list winners: %w", err)
	}
	defer rows.Close()

	winners := make([]models.WinnerEntry, 0)
	for rows.Next() {
		var w models.WinnerEntry
		if err := rows.Scan(&w.UserID, &w.RestaurantID, &w.Restaurant, &w.WonAt); err != nil {
			return nil, fmt.Errorf("failed to scan winner: %w", err)
		}
		winners = append(winners, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate winners: %w", err)
	}
	return winners, nil
}
