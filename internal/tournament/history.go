package tournament

import (
	"sort"

	"restaurant-match-backend/internal/models"
)

// DedupeHistory keeps the most recent win per restaurant and orders entries newest first
func DedupeHistory(history []models.WinnerEntry) []models.WinnerEntry {
	latest := make(map[string]models.WinnerEntry, len(history))
	for _, h := range history {
		if cur, ok := latest[h.RestaurantID]; !ok || h.WonAt.After(cur.WonAt) {
			latest[h.RestaurantID] = h
		}
	}

	out := make([]models.WinnerEntry, 0, len(latest))
	for _, h := range latest {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WonAt.Equal(out[j].WonAt) {
			return out[i].RestaurantID < out[j].RestaurantID
		}
		return out[i].WonAt.After(out[j].WonAt)
	})
	return out
}
