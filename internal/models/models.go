package models

import "time"

// User represents a user in the system
type User struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	DisplayName string    `json:"display_name"`
	Token       string    `json:"token,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Restaurant is a snapshot of a catalog restaurant. Identity is ID.
type Restaurant struct {
	ID         string   `json:"id" validate:"required,max=128"`
	Name       string   `json:"name" validate:"max=256"`
	Image      string   `json:"image,omitempty"`
	Cuisine    string   `json:"cuisine,omitempty"`
	PriceRange string   `json:"price_range,omitempty"`
	Rating     float64  `json:"rating,omitempty" validate:"gte=0,lte=5"`
	Location   Location `json:"location"`
}

// Location holds where a restaurant is
type Location struct {
	Address   string  `json:"address,omitempty"`
	City      string  `json:"city,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// Direction is the decision taken on a swipe
type Direction string

const (
	DirectionLike    Direction = "like"
	DirectionDislike Direction = "dislike"
)

// Valid reports whether d is a known direction
func (d Direction) Valid() bool {
	return d == DirectionLike || d == DirectionDislike
}

// SwipeRecord represents a single decision per (user, restaurant)
type SwipeRecord struct {
	UserID       string    `json:"user_id"`
	RestaurantID string    `json:"restaurant_id"`
	Direction    Direction `json:"direction"`
	SwipedAt     time.Time `json:"swiped_at"`
}

// FavoriteRecord represents a liked restaurant with its captured snapshot
type FavoriteRecord struct {
	UserID       string     `json:"user_id"`
	RestaurantID string     `json:"restaurant_id"`
	Restaurant   Restaurant `json:"restaurant"`
	CreatedAt    time.Time  `json:"created_at"`
}

// SelectedRestaurant is the current tournament pick of a user
type SelectedRestaurant struct {
	UserID     string     `json:"user_id"`
	Restaurant Restaurant `json:"restaurant"`
	SelectedAt time.Time  `json:"selected_at"`
}

// WinnerEntry is one row of the tournament winner history
type WinnerEntry struct {
	UserID       string     `json:"user_id"`
	RestaurantID string     `json:"restaurant_id"`
	Restaurant   Restaurant `json:"restaurant"`
	WonAt        time.Time  `json:"won_at"`
}

// Friend is a friend of the requesting user
type Friend struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Online      bool      `json:"online"`
	Since       time.Time `json:"since"`
}

// Match is a restaurant favorited by both a user and one of their friends
type Match struct {
	FriendID     string     `json:"friend_id"`
	FriendName   string     `json:"friend_name"`
	RestaurantID string     `json:"restaurant_id"`
	Restaurant   Restaurant `json:"restaurant"`
}

// NotificationType classifies notifications
type NotificationType string

const (
	NotificationMatch      NotificationType = "match"
	NotificationMessage    NotificationType = "message"
	NotificationInvitation NotificationType = "invitation"
	NotificationSummary    NotificationType = "summary"
)

// Valid reports whether t is a known notification type
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationMatch, NotificationMessage, NotificationInvitation, NotificationSummary:
		return true
	}
	return false
}

// Notification represents an in-app notification.
// Local is set for entries synthesized on the device that the server has never seen.
type Notification struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id,omitempty"`
	Type      NotificationType       `json:"type"`
	Message   string                 `json:"message"`
	CreatedAt time.Time              `json:"created_at"`
	Read      bool                   `json:"read"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Local     bool                   `json:"-"`
}
