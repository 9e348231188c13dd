package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	onlineKeyPrefix     = "presence:online:"
	lastSwipedKeyPrefix = "presence:last_swiped:"
)

// PresenceRepository keeps online status and swipe activity in Redis
type PresenceRepository struct {
	redis *redis.Client
}

// NewPresenceRepository creates a new presence repository
func NewPresenceRepository(client *redis.Client) *PresenceRepository {
	return &PresenceRepository{redis: client}
}

// SetOnline marks a user online until ttl passes without a refresh
func (r *PresenceRepository) SetOnline(ctx context.Context, userID string, ttl time.Duration) error {
	if err := r.redis.Set(ctx, onlineKeyPrefix+userID, time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to set online: %w", err)
	}
	return nil
}

// SetOffline marks a user offline
func (r *PresenceRepository) SetOffline(ctx context.Context, userID string) error {
	if err := r.redis.Del(ctx, onlineKeyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("failed to set offline: %w", err)
	}
	return nil
}

// Online reports which of userIDs are online
func (r *PresenceRepository) Online(ctx context.Context, userIDs []string) (map[string]bool, error) {
	online := make(map[string]bool, len(userIDs))
	if len(userIDs) == 0 {
		return online, nil
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = onlineKeyPrefix + id
	}
	values, err := r.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get online status: %w", err)
	}
	for i, v := range values {
		online[userIDs[i]] = v != nil
	}
	return online, nil
}

// TouchLastSwiped records when the user last swiped
func (r *PresenceRepository) TouchLastSwiped(ctx context.Context, userID string, at time.Time) error {
	if err := r.redis.Set(ctx, lastSwipedKeyPrefix+userID, at.UnixMilli(), 0).Err(); err != nil {
		return fmt.Errorf("failed to set last swiped: %w", err)
	}
	return nil
}

// LastSwiped returns when the user last swiped
func (r *PresenceRepository) LastSwiped(ctx context.Context, userID string) (time.Time, error) {
	raw, err := r.redis.Get(ctx, lastSwipedKeyPrefix+userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, fmt.Errorf("last swiped: %w", ErrNotFound)
		}
		return time.Time{}, fmt.Errorf("failed to get last swiped: %w", err)
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse last swiped: %w", err)
	}
	return time.UnixMilli(ms), nil
}
