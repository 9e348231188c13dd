package repository

import (
	"context"
	"fmt"
	"strings"

	"restaurant-match-backend/internal/matching"

	"github.com/redis/go-redis/v9"
)

const matchSnapshotKeyPrefix = "matches:snapshot:"

// MatchSnapshotRepository stores the matches a user was last notified about
type MatchSnapshotRepository struct {
	redis *redis.Client
}

// NewMatchSnapshotRepository creates a new match snapshot repository
func NewMatchSnapshotRepository(client *redis.Client) *MatchSnapshotRepository {
	return &MatchSnapshotRepository{redis: client}
}

// Load returns the stored snapshot of a user
func (r *MatchSnapshotRepository) Load(ctx context.Context, userID string) ([]matching.Key, error) {
	members, err := r.redis.SMembers(ctx, matchSnapshotKeyPrefix+userID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load match snapshot: %w", err)
	}

	keys := make([]matching.Key, 0, len(members))
	for _, m := range members {
		friendID, restaurantID, ok := strings.Cut(m, "|")
		if !ok {
			continue
		}
		keys = append(keys, matching.Key{FriendID: friendID, RestaurantID: restaurantID})
	}
	return keys, nil
}

// Save replaces the snapshot of a user
func (r *MatchSnapshotRepository) Save(ctx context.Context, userID string, keys []matching.Key) error {
	key := matchSnapshotKeyPrefix + userID
	_, err := r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(keys) > 0 {
			pipe.SAdd(ctx, key, members(keys)...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save match snapshot: %w", err)
	}
	return nil
}

// Add appends keys to the snapshot of a user
func (r *MatchSnapshotRepository) Add(ctx context.Context, userID string, keys ...matching.Key) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.redis.SAdd(ctx, matchSnapshotKeyPrefix+userID, members(keys)...).Err(); err != nil {
		return fmt.Errorf("failed to extend match snapshot: %w", err)
	}
	return nil
}

func members(keys []matching.Key) []interface{} {
	out := make([]interface{}, len(keys))
	for i, k := range keys {
		out[i] = k.FriendID + "|" + k.RestaurantID
	}
	return out
}
