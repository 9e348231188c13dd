// Package matching finds restaurants liked by both a user and their friends.
// Results are recomputed from favorite snapshots on every call.
package matching

import (
	"sort"

	"restaurant-match-backend/internal/models"
)

// Key identifies a single match
type Key struct {
	FriendID     string `json:"friend_id"`
	RestaurantID string `json:"restaurant_id"`
}

// FriendsForRestaurant returns the friends that also favorited a restaurant.
// favoritedBy is the set of users holding a favorite for it. Output is sorted.
func FriendsForRestaurant(friendIDs, favoritedBy []string) []string {
	liked := make(map[string]struct{}, len(favoritedBy))
	for _, id := range favoritedBy {
		liked[id] = struct{}{}
	}

	seen := make(map[string]struct{}, len(friendIDs))
	out := make([]string, 0)
	for _, id := range friendIDs {
		if _, ok := liked[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ForUser emits one match per (friend, restaurant) pair where both hold a favorite.
// Matches are grouped by restaurant in the order of userFavorites; friends are sorted within a group.
// Restaurant metadata comes from the user's own favorite snapshot.
// Friend favorites from users outside friendIDs are ignored.
func ForUser(userFavorites []models.FavoriteRecord, friendIDs []string, friendFavorites []models.FavoriteRecord) []models.Match {
	friends := make(map[string]struct{}, len(friendIDs))
	for _, id := range friendIDs {
		friends[id] = struct{}{}
	}

	likedBy := make(map[string][]string)
	for _, f := range friendFavorites {
		if _, ok := friends[f.UserID]; !ok {
			continue
		}
		likedBy[f.RestaurantID] = append(likedBy[f.RestaurantID], f.UserID)
	}

	matches := make([]models.Match, 0)
	done := make(map[string]struct{}, len(userFavorites))
	for _, fav := range userFavorites {
		if _, ok := done[fav.RestaurantID]; ok {
			continue
		}
		done[fav.RestaurantID] = struct{}{}

		ids := FriendsForRestaurant(friendIDs, likedBy[fav.RestaurantID])
		for _, friendID := range ids {
			restaurant := fav.Restaurant
			if restaurant.ID == "" {
				restaurant.ID = fav.RestaurantID
			}
			matches = append(matches, models.Match{
				FriendID:     friendID,
				RestaurantID: fav.RestaurantID,
				Restaurant:   restaurant,
			})
		}
	}
	return matches
}

// Keys returns the identity of every match
func Keys(matches []models.Match) []Key {
	out := make([]Key, len(matches))
	for i, m := range matches {
		out[i] = Key{FriendID: m.FriendID, RestaurantID: m.RestaurantID}
	}
	return out
}

// NewSince returns the matches in current whose key is absent from previous
func NewSince(previous []Key, current []models.Match) []models.Match {
	known := make(map[Key]struct{}, len(previous))
	for _, k := range previous {
		known[k] = struct{}{}
	}

	out := make([]models.Match, 0)
	for _, m := range current {
		k := Key{FriendID: m.FriendID, RestaurantID: m.RestaurantID}
		if _, ok := known[k]; ok {
			continue
		}
		known[k] = struct{}{}
		out = append(out, m)
	}
	return out
}

// CountByFriend returns the number of matches per friend
func CountByFriend(matches []models.Match) map[string]int {
	counts := make(map[string]int)
	for _, m := range matches {
		counts[m.FriendID]++
	}
	return counts
}
