package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"restaurant-match-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AddFriendRequest identifies the new friend by id or by friend code
type AddFriendRequest struct {
	FriendID   string `json:"friend_id" validate:"required_without=FriendCode,omitempty,uuid"`
	FriendCode string `json:"friend_code" validate:"required_without=FriendID,omitempty,len=6,alphanum"`
}

// FriendService handles friendship-related business logic
type FriendService struct {
	friends       FriendStore
	users         UserStore
	presence      *PresenceService
	notifications *NotificationService
	matches       MatchSyncer
	now           func() time.Time
}

// NewFriendService creates a new friend service
func NewFriendService(friends FriendStore, users UserStore, presence *PresenceService, notifications *NotificationService, matches MatchSyncer) *FriendService {
	return &FriendService{
		friends:       friends,
		users:         users,
		presence:      presence,
		notifications: notifications,
		matches:       matches,
		now:           time.Now,
	}
}

// AddFriend creates the friendship in both directions. It is idempotent.
// A new friendship notifies the friend and surfaces matches that already exist.
func (s *FriendService) AddFriend(ctx context.Context, userID, friendID string) (*models.Friend, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("%w: malformed user id", ErrInvalidInput)
	}
	if _, err := uuid.Parse(friendID); err != nil {
		return nil, fmt.Errorf("%w: malformed friend id", ErrInvalidInput)
	}
	if userID == friendID {
		return nil, ErrSelfFriendship
	}

	friend, err := s.users.GetByID(ctx, friendID)
	if err != nil {
		return nil, fmt.Errorf("failed to get friend: %w", err)
	}

	since := s.now()
	created, err := s.friends.Add(ctx, userID, friendID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to add friend: %w", err)
	}

	if created {
		log.Info().Str("user_id", userID).Str("friend_id", friendID).Msg("Friendship created")
		s.invite(ctx, userID, friendID)
		if s.matches != nil {
			if err := s.matches.Sync(ctx, userID); err != nil {
				log.Error().Err(err).Str("user_id", userID).Msg("Failed to sync matches")
			}
		}
	}

	return &models.Friend{
		ID:          friend.ID,
		DisplayName: displayNameOrPlaceholder(friend.DisplayName),
		Online:      s.presence.Online(ctx, []string{friendID})[friendID],
		Since:       since,
	}, nil
}

// AddFriendByCode resolves a friend code and adds that user
func (s *FriendService) AddFriendByCode(ctx context.Context, userID, code string) (*models.Friend, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != codeLength {
		return nil, fmt.Errorf("%w: friend code must be %d characters", ErrInvalidInput, codeLength)
	}

	friend, err := s.users.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to find friend code: %w", err)
	}
	return s.AddFriend(ctx, userID, friend.ID)
}

// Add dispatches on whichever identifier the request carries
func (s *FriendService) Add(ctx context.Context, userID string, req AddFriendRequest) (*models.Friend, error) {
	if req.FriendID != "" {
		return s.AddFriend(ctx, userID, req.FriendID)
	}
	return s.AddFriendByCode(ctx, userID, req.FriendCode)
}

// RemoveFriend deletes the friendship in both directions. It is idempotent.
func (s *FriendService) RemoveFriend(ctx context.Context, userID, friendID string) error {
	if _, err := uuid.Parse(friendID); err != nil {
		return fmt.Errorf("%w: malformed friend id", ErrInvalidInput)
	}

	removed, err := s.friends.Remove(ctx, userID, friendID)
	if err != nil {
		return fmt.Errorf("failed to remove friend: %w", err)
	}
	if removed {
		log.Info().Str("user_id", userID).Str("friend_id", friendID).Msg("Friendship removed")
	}
	return nil
}

// ListFriends returns the user's friends with their online status
func (s *FriendService) ListFriends(ctx context.Context, userID string) ([]models.Friend, error) {
	friends, err := s.friends.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	if len(friends) == 0 {
		return friends, nil
	}

	ids := make([]string, len(friends))
	for i, f := range friends {
		ids[i] = f.ID
	}
	online := s.presence.Online(ctx, ids)
	for i := range friends {
		friends[i].DisplayName = displayNameOrPlaceholder(friends[i].DisplayName)
		friends[i].Online = online[friends[i].ID]
	}
	return friends, nil
}

// invite notifies friendID that userID added them. Failures are only logged.
func (s *FriendService) invite(ctx context.Context, userID, friendID string) {
	name := UnknownUser
	if user, err := s.users.GetByID(ctx, userID); err == nil {
		name = displayNameOrPlaceholder(user.DisplayName)
	} else if !errors.Is(err, ErrNotFound) {
		log.Warn().Err(err).Str("user_id", userID).Msg("Failed to load inviter")
	}

	_, _, err := s.notifications.Create(ctx, models.Notification{
		ID:      fmt.Sprintf("invitation:%s:%s", friendID, userID),
		UserID:  friendID,
		Type:    models.NotificationInvitation,
		Message: fmt.Sprintf("%s added you as a friend", name),
		Data: map[string]interface{}{
			"friend_id":   userID,
			"friend_name": name,
		},
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", friendID).Str("friend_id", userID).Msg("Failed to create invitation notification")
	}
}

func displayNameOrPlaceholder(name string) string {
	if name == "" {
		return UnknownUser
	}
	return name
}

// AreFriends reports whether the two users are friends
func (s *FriendService) AreFriends(ctx context.Context, userID, friendID string) (bool, error) {
	return s.friends.AreFriends(ctx, userID, friendID)
}
