package services

import (
	"context"
	"time"

	"restaurant-match-backend/internal/metrics"

	"github.com/rs/zerolog/log"
)

const presenceWriteTimeout = 5 * time.Second

// PresenceService records online status and swipe activity.
// Writes are fire-and-forget: they run in the background and failures are only logged.
type PresenceService struct {
	store PresenceStore
	ttl   time.Duration
	// wait is set by tests to run writes inline
	wait bool
}

// NewPresenceService creates a new presence service
func NewPresenceService(store PresenceStore, onlineTTL time.Duration) *PresenceService {
	return &PresenceService{
		store: store,
		ttl:   onlineTTL,
	}
}

// Heartbeat marks the user online for the configured TTL
func (s *PresenceService) Heartbeat(userID string) {
	s.fire("online", userID, func(ctx context.Context) error {
		return s.store.SetOnline(ctx, userID, s.ttl)
	})
}

// Offline marks the user offline
func (s *PresenceService) Offline(userID string) {
	s.fire("offline", userID, func(ctx context.Context) error {
		return s.store.SetOffline(ctx, userID)
	})
}

// Swiped records the time of the latest swipe
func (s *PresenceService) Swiped(userID string, at time.Time) {
	s.fire("last_swiped", userID, func(ctx context.Context) error {
		return s.store.TouchLastSwiped(ctx, userID, at)
	})
}

// Online reports which of the users are online. Lookup failures degrade to offline.
func (s *PresenceService) Online(ctx context.Context, userIDs []string) map[string]bool {
	online, err := s.store.Online(ctx, userIDs)
	if err != nil {
		log.Warn().Err(err).Int("count", len(userIDs)).Msg("Failed to read presence")
		return map[string]bool{}
	}
	return online
}

// LastSwiped returns when the user last swiped
func (s *PresenceService) LastSwiped(ctx context.Context, userID string) (time.Time, error) {
	return s.store.LastSwiped(ctx, userID)
}

func (s *PresenceService) fire(op, userID string, fn func(ctx context.Context) error) {
	run := func() {
		ctx, cancel := context.WithTimeout(context.Background(), presenceWriteTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			metrics.PresenceWriteFailures.Inc()
			log.Warn().Err(err).Str("op", op).Str("user_id", userID).Msg("Presence write failed")
		}
	}

	if s.wait {
		run()
		return
	}
	go run()
}
