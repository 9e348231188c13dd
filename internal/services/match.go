package services

import (
	"context"
	"fmt"

	"restaurant-match-backend/internal/matching"
	"restaurant-match-backend/internal/metrics"
	"restaurant-match-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// MatchService derives matches between friends and notifies both sides of new ones
type MatchService struct {
	friends       FriendStore
	favorites     FavoriteStore
	users         UserStore
	snapshots     MatchSnapshotStore
	notifications *NotificationService
}

// NewMatchService creates a new match service
func NewMatchService(friends FriendStore, favorites FavoriteStore, users UserStore, snapshots MatchSnapshotStore, notifications *NotificationService) *MatchService {
	return &MatchService{
		friends:       friends,
		favorites:     favorites,
		users:         users,
		snapshots:     snapshots,
		notifications: notifications,
	}
}

// MatchesForRestaurant returns the friends of userID who also favorited restaurantID
func (s *MatchService) MatchesForRestaurant(ctx context.Context, userID, restaurantID string) ([]string, error) {
	if restaurantID == "" {
		return nil, fmt.Errorf("%w: restaurant id is required", ErrInvalidInput)
	}

	friendIDs, err := s.friends.FriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get friends: %w", err)
	}
	if len(friendIDs) == 0 {
		return []string{}, nil
	}

	favoritedBy, err := s.favorites.UsersWithFavorite(ctx, restaurantID, friendIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get favorites: %w", err)
	}

	return matching.FriendsForRestaurant(friendIDs, favoritedBy), nil
}

// MatchesForUser returns one entry per (friend, restaurant) both favorited
func (s *MatchService) MatchesForUser(ctx context.Context, userID string) ([]models.Match, error) {
	userFavorites, err := s.favorites.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get favorites: %w", err)
	}
	if len(userFavorites) == 0 {
		return []models.Match{}, nil
	}

	friendIDs, err := s.friends.FriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get friends: %w", err)
	}
	if len(friendIDs) == 0 {
		return []models.Match{}, nil
	}

	restaurantIDs := make([]string, len(userFavorites))
	for i, f := range userFavorites {
		restaurantIDs[i] = f.RestaurantID
	}
	friendFavorites, err := s.favorites.ListForUsers(ctx, friendIDs, restaurantIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get friend favorites: %w", err)
	}

	matches := matching.ForUser(userFavorites, friendIDs, friendFavorites)
	if len(matches) == 0 {
		return matches, nil
	}

	names := DisplayNames(ctx, s.users, uniqueFriendIDs(matches))
	for i := range matches {
		matches[i].FriendName = names[matches[i].FriendID]
	}
	return matches, nil
}

// Sync emits a match notification to both sides of every match that appeared since
// the last sync of userID, then stores the current matches as the new snapshot.
func (s *MatchService) Sync(ctx context.Context, userID string) error {
	current, err := s.MatchesForUser(ctx, userID)
	if err != nil {
		return err
	}

	previous, err := s.snapshots.Load(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load match snapshot: %w", err)
	}

	fresh := matching.NewSince(previous, current)
	if len(fresh) > 0 {
		userName := DisplayNames(ctx, s.users, []string{userID})[userID]
		for _, m := range fresh {
			s.emit(ctx, userID, m.FriendID, m.FriendName, m.Restaurant)
			s.emit(ctx, m.FriendID, userID, userName, m.Restaurant)

			key := matching.Key{FriendID: userID, RestaurantID: m.RestaurantID}
			if err := s.snapshots.Add(ctx, m.FriendID, key); err != nil {
				log.Warn().Err(err).Str("user_id", m.FriendID).Str("restaurant_id", m.RestaurantID).Msg("Failed to update friend match snapshot")
			}
		}
	}

	if err := s.snapshots.Save(ctx, userID, matching.Keys(current)); err != nil {
		return fmt.Errorf("failed to save match snapshot: %w", err)
	}
	return nil
}

// emit creates the match notification for recipient. The id is derived from the
// pair so repeated syncs never notify twice.
func (s *MatchService) emit(ctx context.Context, recipientID, otherID, otherName string, restaurant models.Restaurant) {
	name := restaurant.Name
	if name == "" {
		name = restaurant.ID
	}

	n := models.Notification{
		ID:      MatchNotificationID(recipientID, otherID, restaurant.ID),
		UserID:  recipientID,
		Type:    models.NotificationMatch,
		Message: fmt.Sprintf("You and %s both liked %s", otherName, name),
		Data: map[string]interface{}{
			"friend_id":       otherID,
			"friend_name":     otherName,
			"restaurant_id":   restaurant.ID,
			"restaurant_name": name,
		},
	}

	_, created, err := s.notifications.Create(ctx, n)
	if err != nil {
		log.Error().Err(err).Str("user_id", recipientID).Str("friend_id", otherID).Str("restaurant_id", restaurant.ID).Msg("Failed to create match notification")
		return
	}
	if created {
		metrics.MatchNotifications.Inc()
	}
}

// MatchNotificationID is the deterministic id of a match notification
func MatchNotificationID(recipientID, otherID, restaurantID string) string {
	return fmt.Sprintf("match:%s:%s:%s", recipientID, otherID, restaurantID)
}

func uniqueFriendIDs(matches []models.Match) []string {
	seen := make(map[string]struct{}, len(matches))
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m.FriendID]; ok {
			continue
		}
		seen[m.FriendID] = struct{}{}
		ids = append(ids, m.FriendID)
	}
	return ids
}
