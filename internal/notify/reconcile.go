// Package notify merges server notifications into a local cache without
// duplicating what the user has already been shown.
package notify

import (
	"fmt"
	"sort"
	"time"

	"restaurant-match-backend/internal/models"

	"github.com/google/uuid"
)

// DefaultCapacity is the cache size used when none is configured
const DefaultCapacity = 50

// LocalIDPrefix marks ids synthesized on the device
const LocalIDPrefix = "local-"

// Result is the outcome of a reconciliation pass
type Result struct {
	// Merged is the new cache, newest first
	Merged []models.Notification
	// NewlySeen holds server entries that were absent from the local cache
	NewlySeen []models.Notification
	// ToSurface holds the alerts to show for the unread entries of NewlySeen
	ToSurface []models.Notification
}

// Reconcile merges server into local.
// The server copy of an entry wins over the cached one. Local-only entries the
// server does not know about are kept. The merged cache is capped by strict recency.
func Reconcile(local, server []models.Notification, capacity int) Result {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	cached := make(map[string]struct{}, len(local))
	for _, n := range local {
		cached[n.ID] = struct{}{}
	}

	seen := make(map[string]struct{}, len(server)+len(local))
	merged := make([]models.Notification, 0, len(server)+len(local))
	newly := make([]models.Notification, 0)

	for _, n := range server {
		if n.ID == "" {
			continue
		}
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		n.Local = false
		merged = append(merged, n)

		if _, ok := cached[n.ID]; !ok {
			newly = append(newly, n)
		}
	}

	for _, n := range local {
		if !n.Local {
			continue
		}
		if _, ok := seen[n.ID]; ok {
			continue
		}
		seen[n.ID] = struct{}{}
		merged = append(merged, n)
	}

	SortNewestFirst(merged)
	if len(merged) > capacity {
		merged = merged[:capacity]
	}

	return Result{
		Merged:    merged,
		NewlySeen: newly,
		ToSurface: Surface(Unread(newly)),
	}
}

// Surface decides which alerts to show for a batch of new entries.
// A single entry is shown as is; two or more collapse into one summary.
func Surface(entries []models.Notification) []models.Notification {
	switch len(entries) {
	case 0:
		return nil
	case 1:
		return []models.Notification{entries[0]}
	default:
		return []models.Notification{NewSummary(entries)}
	}
}

// NewSummary builds a local-only summary for entries
func NewSummary(entries []models.Notification) models.Notification {
	ids := make([]string, len(entries))
	for i, n := range entries {
		ids[i] = n.ID
	}
	return models.Notification{
		ID:        LocalIDPrefix + "summary-" + uuid.New().String(),
		Type:      models.NotificationSummary,
		Message:   fmt.Sprintf("You have %d new notifications", len(entries)),
		CreatedAt: time.Now(),
		Data: map[string]interface{}{
			"count": len(entries),
			"ids":   ids,
		},
		Local: true,
	}
}

// NewLocal builds a notification that exists only on the device until the server echoes it
func NewLocal(kind models.NotificationType, message string, data map[string]interface{}) models.Notification {
	return models.Notification{
		ID:        LocalIDPrefix + uuid.New().String(),
		Type:      kind,
		Message:   message,
		CreatedAt: time.Now(),
		Data:      data,
		Local:     true,
	}
}

// Unread returns the entries not yet read
func Unread(entries []models.Notification) []models.Notification {
	out := make([]models.Notification, 0, len(entries))
	for _, n := range entries {
		if !n.Read {
			out = append(out, n)
		}
	}
	return out
}

// UnreadCount returns the number of unread entries
func UnreadCount(entries []models.Notification) int {
	count := 0
	for _, n := range entries {
		if !n.Read {
			count++
		}
	}
	return count
}

// SortNewestFirst orders entries by creation time, newest first, breaking ties by id
func SortNewestFirst(entries []models.Notification) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID > entries[j].ID
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}
