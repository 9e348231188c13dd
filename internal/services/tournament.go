package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"restaurant-match-backend/internal/metrics"
	"restaurant-match-backend/internal/models"
	"restaurant-match-backend/internal/tournament"

	"github.com/rs/zerolog/log"
)

// TournamentService runs one in-memory bracket per user and persists its outcome
type TournamentService struct {
	favorites  FavoriteStore
	selections SelectionStore
	now        func() time.Time

	mu       sync.Mutex
	rng      *rand.Rand
	sessions map[string]*tournamentEntry
}

type tournamentEntry struct {
	session *tournament.Session

	mu        sync.Mutex
	persisted bool
}

// NewTournamentService creates a new tournament service
func NewTournamentService(favorites FavoriteStore, selections SelectionStore) *TournamentService {
	return &TournamentService{
		favorites:  favorites,
		selections: selections,
		now:        time.Now,
		sessions:   make(map[string]*tournamentEntry),
	}
}

// Start seeds a bracket from the user's favorites, optionally restricted to
// restaurantIDs. Any previous session of the user is replaced. With fewer than
// two contenders nothing is stored and ErrInsufficientContenders is returned.
func (s *TournamentService) Start(ctx context.Context, userID string, restaurantIDs []string) (*tournament.State, error) {
	favs, err := s.favorites.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load favorites: %w", err)
	}

	var only map[string]struct{}
	if len(restaurantIDs) > 0 {
		only = make(map[string]struct{}, len(restaurantIDs))
		for _, id := range restaurantIDs {
			only[id] = struct{}{}
		}
	}

	contenders := make([]models.Restaurant, 0, len(favs))
	for _, f := range favs {
		if only != nil {
			if _, ok := only[f.RestaurantID]; !ok {
				continue
			}
		}
		r := f.Restaurant
		if r.ID == "" {
			r.ID = f.RestaurantID
		}
		contenders = append(contenders, r)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := tournament.New(contenders, s.rng)
	if err != nil {
		return nil, err
	}
	s.sessions[userID] = &tournamentEntry{session: session}
	metrics.TournamentsStarted.Inc()
	metrics.ActiveTournaments.Set(float64(len(s.sessions)))

	log.Info().Str("user_id", userID).Int("contenders", len(session.Contenders())).Msg("Tournament started")

	state := session.Snapshot()
	return &state, nil
}

// Current returns the state of the user's session
func (s *TournamentService) Current(userID string) (*tournament.State, error) {
	entry, err := s.entry(userID)
	if err != nil {
		return nil, err
	}
	state := entry.session.Snapshot()
	return &state, nil
}

// Choose resolves the active pair with choice 0 or 1. When the bracket finishes the
// winner becomes the selected restaurant and is recorded in the winner history.
// If persisting failed before, calling Choose on the finished session retries it.
func (s *TournamentService) Choose(ctx context.Context, userID string, choice int) (*tournament.State, error) {
	entry, err := s.entry(userID)
	if err != nil {
		return nil, err
	}

	if !entry.session.Finished() {
		finished, err := entry.session.Resolve(choice)
		if err != nil {
			return nil, err
		}
		metrics.TournamentComparisons.Inc()
		if finished {
			metrics.TournamentsFinished.Inc()
		}
	} else if entry.isPersisted() {
		return nil, tournament.ErrFinished
	}

	if entry.session.Finished() {
		if err := s.persist(ctx, userID, entry); err != nil {
			return nil, err
		}
	}

	state := entry.session.Snapshot()
	return &state, nil
}

// Abandon drops the user's session. It reports whether one existed.
func (s *TournamentService) Abandon(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[userID]
	delete(s.sessions, userID)
	metrics.ActiveTournaments.Set(float64(len(s.sessions)))
	return ok
}

// Selected returns the user's current pick
func (s *TournamentService) Selected(ctx context.Context, userID string) (*models.SelectedRestaurant, error) {
	return s.selections.GetSelected(ctx, userID)
}

// SetSelected overwrites the user's current pick
func (s *TournamentService) SetSelected(ctx context.Context, userID string, restaurant models.Restaurant) (*models.SelectedRestaurant, error) {
	if err := checkRestaurantID(restaurant.ID); err != nil {
		return nil, err
	}
	sel := models.SelectedRestaurant{
		UserID:     userID,
		Restaurant: restaurant,
		SelectedAt: s.now(),
	}
	if err := s.selections.SetSelected(ctx, sel); err != nil {
		return nil, fmt.Errorf("failed to save selection: %w", err)
	}
	return &sel, nil
}

// Winners returns the winner history, newest first, one entry per restaurant
func (s *TournamentService) Winners(ctx context.Context, userID string) ([]models.WinnerEntry, error) {
	history, err := s.selections.ListWinners(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list winners: %w", err)
	}
	return tournament.DedupeHistory(history), nil
}

func (s *TournamentService) entry(userID string) (*tournamentEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[userID]
	if !ok {
		return nil, ErrNoActiveTournament
	}
	return entry, nil
}

func (s *TournamentService) persist(ctx context.Context, userID string, entry *tournamentEntry) error {
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.persisted {
		return nil
	}

	winner, ok := entry.session.Winner()
	if !ok {
		return errors.New("finished tournament has no winner")
	}

	now := s.now()
	if err := s.selections.SetSelected(ctx, models.SelectedRestaurant{
		UserID:     userID,
		Restaurant: winner,
		SelectedAt: now,
	}); err != nil {
		return fmt.Errorf("failed to save selection: %w", err)
	}
	if err := s.selections.UpsertWinner(ctx, models.WinnerEntry{
		UserID:       userID,
		RestaurantID: winner.ID,
		Restaurant:   winner,
		WonAt:        now,
	}); err != nil {
		return fmt.Errorf("failed to record winner: %w", err)
	}

	entry.persisted = true
	log.Info().Str("user_id", userID).Str("restaurant_id", winner.ID).Msg("Tournament finished")
	return nil
}

func (e *tournamentEntry) isPersisted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.persisted
}
