package services

import (
	"context"
	"fmt"
	"time"

	"restaurant-match-backend/internal/metrics"
	"restaurant-match-backend/internal/models"

	"github.com/rs/zerolog/log"
)

const maxRestaurantIDLength = 128

// SwipeRequest is the body of a swipe
type SwipeRequest struct {
	RestaurantID string             `json:"restaurant_id" validate:"required,max=128"`
	Direction    models.Direction   `json:"direction" validate:"required,oneof=like dislike"`
	Restaurant   *models.Restaurant `json:"restaurant,omitempty"`
}

// Snapshot returns the restaurant snapshot sent with the swipe, if any
func (r SwipeRequest) Snapshot() models.Restaurant {
	if r.Restaurant == nil {
		return models.Restaurant{ID: r.RestaurantID}
	}
	return *r.Restaurant
}

// SwipeResult describes the ledger state after a swipe
type SwipeResult struct {
	Swipe       models.SwipeRecord `json:"swipe"`
	Favorited   bool               `json:"favorited"`
	NewFavorite bool               `json:"new_favorite"`
}

// SwipeService maintains the swipe ledger and favorites of each user
type SwipeService struct {
	swipes    SwipeStore
	favorites FavoriteStore
	matches   MatchSyncer
	presence  *PresenceService
	locks     *keyLock
	now       func() time.Time
}

// NewSwipeService creates a new swipe service
func NewSwipeService(swipes SwipeStore, favorites FavoriteStore, matches MatchSyncer, presence *PresenceService) *SwipeService {
	return &SwipeService{
		swipes:    swipes,
		favorites: favorites,
		matches:   matches,
		presence:  presence,
		locks:     newKeyLock(),
		now:       time.Now,
	}
}

// RecordSwipe upserts the swipe of userID on a restaurant. A like also creates the
// favorite with the restaurant snapshot. A dislike never removes an earlier favorite.
// Swipes on the same (user, restaurant) are applied one at a time in arrival order.
func (s *SwipeService) RecordSwipe(ctx context.Context, userID, restaurantID string, direction models.Direction, restaurant models.Restaurant) (*SwipeResult, error) {
	if err := checkRestaurantID(restaurantID); err != nil {
		return nil, err
	}
	if !direction.Valid() {
		return nil, fmt.Errorf("%w: unknown direction %q", ErrInvalidInput, direction)
	}
	if restaurant.ID == "" {
		restaurant.ID = restaurantID
	}
	if restaurant.ID != restaurantID {
		return nil, fmt.Errorf("%w: restaurant snapshot id %q does not match %q", ErrInvalidInput, restaurant.ID, restaurantID)
	}

	unlock := s.locks.Lock(userID + "|" + restaurantID)
	defer unlock()

	now := s.now()
	record := models.SwipeRecord{
		UserID:       userID,
		RestaurantID: restaurantID,
		Direction:    direction,
		SwipedAt:     now,
	}
	if err := s.swipes.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record swipe: %w", err)
	}
	metrics.Swipes.WithLabelValues(string(direction)).Inc()
	s.presence.Swiped(userID, now)

	result := &SwipeResult{Swipe: record}

	if direction == models.DirectionLike {
		created, err := s.favorites.Create(ctx, models.FavoriteRecord{
			UserID:       userID,
			RestaurantID: restaurantID,
			Restaurant:   restaurant,
			CreatedAt:    now,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to save favorite: %w", err)
		}
		result.Favorited = true
		result.NewFavorite = created
		if created {
			metrics.FavoritesCreated.Inc()
			s.syncMatches(ctx, userID)
		}
	} else {
		favorited, err := s.favorites.Exists(ctx, userID, restaurantID)
		if err != nil {
			return nil, fmt.Errorf("failed to check favorite: %w", err)
		}
		result.Favorited = favorited
	}

	log.Debug().
		Str("user_id", userID).
		Str("restaurant_id", restaurantID).
		Str("direction", string(direction)).
		Bool("new_favorite", result.NewFavorite).
		Msg("Swipe recorded")

	return result, nil
}

// Unlike removes a favorite. The swipe stays in the ledger so the restaurant does
// not come back in discovery. It reports whether a favorite was removed.
func (s *SwipeService) Unlike(ctx context.Context, userID, restaurantID string) (bool, error) {
	if err := checkRestaurantID(restaurantID); err != nil {
		return false, err
	}

	unlock := s.locks.Lock(userID + "|" + restaurantID)
	defer unlock()

	removed, err := s.favorites.Delete(ctx, userID, restaurantID)
	if err != nil {
		return false, fmt.Errorf("failed to remove favorite: %w", err)
	}
	if removed {
		metrics.FavoritesRemoved.Inc()
		s.syncMatches(ctx, userID)
	}
	return removed, nil
}

// ClearSwipeHistory deletes every swipe of the user. Favorites are kept.
func (s *SwipeService) ClearSwipeHistory(ctx context.Context, userID string) (int64, error) {
	n, err := s.swipes.DeleteAll(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear swipe history: %w", err)
	}
	log.Info().Str("user_id", userID).Int64("deleted", n).Msg("Swipe history cleared")
	return n, nil
}

// ResetFavorites deletes every favorite of the user. Swipes are kept.
func (s *SwipeService) ResetFavorites(ctx context.Context, userID string) (int64, error) {
	n, err := s.favorites.DeleteAll(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to reset favorites: %w", err)
	}
	if n > 0 {
		metrics.FavoritesRemoved.Add(float64(n))
		s.syncMatches(ctx, userID)
	}
	log.Info().Str("user_id", userID).Int64("deleted", n).Msg("Favorites reset")
	return n, nil
}

// ListFavorites returns the favorites of the user, newest first
func (s *SwipeService) ListFavorites(ctx context.Context, userID string) ([]models.FavoriteRecord, error) {
	favs, err := s.favorites.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return favs, nil
}

// IsFavorite reports whether the user favorited the restaurant
func (s *SwipeService) IsFavorite(ctx context.Context, userID, restaurantID string) (bool, error) {
	if err := checkRestaurantID(restaurantID); err != nil {
		return false, err
	}
	return s.favorites.Exists(ctx, userID, restaurantID)
}

// GetSwipe returns the swipe of the user on the restaurant or ErrNotFound
func (s *SwipeService) GetSwipe(ctx context.Context, userID, restaurantID string) (*models.SwipeRecord, error) {
	if err := checkRestaurantID(restaurantID); err != nil {
		return nil, err
	}
	return s.swipes.Get(ctx, userID, restaurantID)
}

// syncMatches refreshes match notifications. Failures never fail the swipe.
func (s *SwipeService) syncMatches(ctx context.Context, userID string) {
	if s.matches == nil {
		return
	}
	if err := s.matches.Sync(ctx, userID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to sync matches")
	}
}

func checkRestaurantID(id string) error {
	if id == "" || len(id) > maxRestaurantIDLength {
		return fmt.Errorf("%w: restaurant id must be 1-%d characters", ErrInvalidInput, maxRestaurantIDLength)
	}
	return nil
}
