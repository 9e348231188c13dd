package services

import (
	"context"
	"fmt"

	"restaurant-match-backend/internal/catalog"
	"restaurant-match-backend/internal/metrics"
	"restaurant-match-backend/internal/models"
)

// FeedPage is one filtered page of the discovery feed
type FeedPage struct {
	Restaurants []models.Restaurant `json:"restaurants"`
	Page        int                 `json:"page"`
	NextPage    int                 `json:"next_page,omitempty"`
	HasMore     bool                `json:"has_more"`
	Filtered    int                 `json:"filtered"`
}

// DiscoveryService builds the discovery feed from the catalog and the swipe ledger
type DiscoveryService struct {
	catalog   CatalogSearcher
	swipes    SwipeStore
	favorites FavoriteStore
}

// NewDiscoveryService creates a new discovery service
func NewDiscoveryService(catalog CatalogSearcher, swipes SwipeStore, favorites FavoriteStore) *DiscoveryService {
	return &DiscoveryService{
		catalog:   catalog,
		swipes:    swipes,
		favorites: favorites,
	}
}

// Feed fetches one catalog page and drops every restaurant the user already decided on.
// An empty result with HasMore set means the caller should ask for NextPage.
func (s *DiscoveryService) Feed(ctx context.Context, userID string, params catalog.SearchParams) (*FeedPage, error) {
	if params.Page < 1 {
		params.Page = 1
	}

	page, err := s.catalog.Search(ctx, params)
	if err != nil {
		return nil, err
	}

	decided, err := s.LedgerSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidates := BuildCandidates(page.Restaurants, decided)
	filtered := len(page.Restaurants) - len(candidates)
	metrics.CandidatesFiltered.Add(float64(filtered))

	feed := &FeedPage{
		Restaurants: candidates,
		Page:        page.Page,
		HasMore:     page.HasMore,
		Filtered:    filtered,
	}
	if feed.Page < 1 {
		feed.Page = params.Page
	}
	if feed.HasMore {
		feed.NextPage = feed.Page + 1
	}
	return feed, nil
}

// LedgerSnapshot returns the ids the user swiped or favorited
func (s *DiscoveryService) LedgerSnapshot(ctx context.Context, userID string) (map[string]struct{}, error) {
	swiped, err := s.swipes.RestaurantIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load swipes: %w", err)
	}
	favorited, err := s.favorites.RestaurantIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load favorites: %w", err)
	}

	decided := make(map[string]struct{}, len(swiped)+len(favorited))
	for _, id := range swiped {
		decided[id] = struct{}{}
	}
	for _, id := range favorited {
		decided[id] = struct{}{}
	}
	return decided, nil
}

// BuildCandidates keeps the restaurants whose id is not in decided, in page order.
// Membership is by id only. Repeated ids within the page are kept once.
func BuildCandidates(page []models.Restaurant, decided map[string]struct{}) []models.Restaurant {
	out := make([]models.Restaurant, 0, len(page))
	seen := make(map[string]struct{}, len(page))
	for _, r := range page {
		if _, ok := decided[r.ID]; ok {
			continue
		}
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}
