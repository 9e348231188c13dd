package services

import (
	"context"
	"time"

	"restaurant-match-backend/internal/catalog"
	"restaurant-match-backend/internal/matching"
	"restaurant-match-backend/internal/models"
)

// UserStore persists users
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByCode(ctx context.Context, code string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.User, error)
	CodeExists(ctx context.Context, code string) (bool, error)
}

// SwipeStore persists the swipe ledger
type SwipeStore interface {
	Upsert(ctx context.Context, swipe models.SwipeRecord) error
	Get(ctx context.Context, userID, restaurantID string) (*models.SwipeRecord, error)
	RestaurantIDs(ctx context.Context, userID string) ([]string, error)
	DeleteAll(ctx context.Context, userID string) (int64, error)
}

// FavoriteStore persists favorites
type FavoriteStore interface {
	Create(ctx context.Context, fav models.FavoriteRecord) (bool, error)
	Delete(ctx context.Context, userID, restaurantID string) (bool, error)
	DeleteAll(ctx context.Context, userID string) (int64, error)
	ListByUser(ctx context.Context, userID string) ([]models.FavoriteRecord, error)
	ListForUsers(ctx context.Context, userIDs, restaurantIDs []string) ([]models.FavoriteRecord, error)
	Exists(ctx context.Context, userID, restaurantID string) (bool, error)
	RestaurantIDs(ctx context.Context, userID string) ([]string, error)
	UsersWithFavorite(ctx context.Context, restaurantID string, userIDs []string) ([]string, error)
}

// FriendStore persists symmetric friendships
type FriendStore interface {
	Add(ctx context.Context, userID, friendID string, since time.Time) (bool, error)
	Remove(ctx context.Context, userID, friendID string) (bool, error)
	FriendIDs(ctx context.Context, userID string) ([]string, error)
	List(ctx context.Context, userID string) ([]models.Friend, error)
	AreFriends(ctx context.Context, userID, friendID string) (bool, error)
}

// SelectionStore persists tournament outcomes
type SelectionStore interface {
	SetSelected(ctx context.Context, sel models.SelectedRestaurant) error
	GetSelected(ctx context.Context, userID string) (*models.SelectedRestaurant, error)
	UpsertWinner(ctx context.Context, entry models.WinnerEntry) error
	ListWinners(ctx context.Context, userID string) ([]models.WinnerEntry, error)
}

// NotificationStore persists notifications
type NotificationStore interface {
	Create(ctx context.Context, n models.Notification) (bool, error)
	List(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, userID, id string) error
	DeleteAll(ctx context.Context, userID string) (int64, error)
	Prune(ctx context.Context, keep int) (int64, error)
}

// PresenceStore keeps online status and swipe activity
type PresenceStore interface {
	SetOnline(ctx context.Context, userID string, ttl time.Duration) error
	SetOffline(ctx context.Context, userID string) error
	Online(ctx context.Context, userIDs []string) (map[string]bool, error)
	TouchLastSwiped(ctx context.Context, userID string, at time.Time) error
	LastSwiped(ctx context.Context, userID string) (time.Time, error)
}

// MatchSnapshotStore keeps the matches each user was last notified about
type MatchSnapshotStore interface {
	Load(ctx context.Context, userID string) ([]matching.Key, error)
	Save(ctx context.Context, userID string, keys []matching.Key) error
	Add(ctx context.Context, userID string, keys ...matching.Key) error
}

// CatalogSearcher fetches restaurant pages from the provider
type CatalogSearcher interface {
	Search(ctx context.Context, params catalog.SearchParams) (*catalog.Page, error)
}

// Pusher delivers realtime events to connected users
type Pusher interface {
	SendToUser(userID string, message WSMessage) error
	IsOnline(userID string) bool
}

// MatchSyncer emits notifications for matches that appeared since the last sync
type MatchSyncer interface {
	Sync(ctx context.Context, userID string) error
}
