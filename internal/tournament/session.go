// Package tournament runs single-elimination brackets over a set of restaurants.
//
// Contenders are kept in a queue. Each comparison takes the two contenders at
// the front, drops both and appends the chosen one to the back, so N
// contenders are reduced to one winner in exactly N-1 comparisons.
package tournament

import (
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"restaurant-match-backend/internal/models"
)

// MinContenders is the smallest bracket that can be played
const MinContenders = 2

var (
	ErrInsufficientContenders = errors.New("need at least 2 favorites")
	ErrSessionBusy            = errors.New("tournament session is busy")
	ErrFinished               = errors.New("tournament is finished")
	ErrInvalidChoice          = errors.New("choice must be 0 or 1")
)

// Session is an in-progress bracket owned by a single user.
// Resolve calls must be serialized by the caller; overlapping calls fail with ErrSessionBusy.
type Session struct {
	mu          sync.RWMutex
	busy        atomic.Bool
	contenders  []models.Restaurant
	round       int
	pending     int // contenders of the current round not yet paired
	comparisons int
}

// State is a read-only view of a session
type State struct {
	Round       int                 `json:"round"`
	Remaining   int                 `json:"remaining"`
	Comparisons int                 `json:"comparisons"`
	Finished    bool                `json:"finished"`
	Pair        []models.Restaurant `json:"pair,omitempty"`
	Winner      *models.Restaurant  `json:"winner,omitempty"`
}

// New seeds a session from contenders. Duplicate ids are collapsed, keeping the first.
// The order is shuffled once with rng; a nil rng uses the package source.
func New(contenders []models.Restaurant, rng *rand.Rand) (*Session, error) {
	seen := make(map[string]struct{}, len(contenders))
	queue := make([]models.Restaurant, 0, len(contenders))
	for _, r := range contenders {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		queue = append(queue, r)
	}

	if len(queue) < MinContenders {
		return nil, ErrInsufficientContenders
	}

	swap := func(i, j int) { queue[i], queue[j] = queue[j], queue[i] }
	if rng != nil {
		rng.Shuffle(len(queue), swap)
	} else {
		rand.Shuffle(len(queue), swap)
	}

	return newSeeded(queue), nil
}

// newSeeded builds a session that keeps the given order
func newSeeded(queue []models.Restaurant) *Session {
	return &Session{
		contenders: queue,
		round:      1,
		pending:    len(queue),
	}
}

// Pair returns the two contenders at the front of the queue.
// ok is false once the session has finished.
func (s *Session) Pair() (a, b models.Restaurant, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.contenders) < 2 {
		return models.Restaurant{}, models.Restaurant{}, false
	}
	return s.contenders[0], s.contenders[1], true
}

// Resolve settles the active pair. choice 0 keeps the first contender, 1 the second.
// It reports whether the session finished with this comparison.
func (s *Session) Resolve(choice int) (bool, error) {
	if choice != 0 && choice != 1 {
		return false, ErrInvalidChoice
	}
	if !s.busy.CompareAndSwap(false, true) {
		return false, ErrSessionBusy
	}
	defer s.busy.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.contenders) < 2 {
		return true, ErrFinished
	}

	chosen := s.contenders[choice]
	rest := s.contenders[2:]
	next := make([]models.Restaurant, 0, len(rest)+1)
	next = append(next, rest...)
	next = append(next, chosen)
	s.contenders = next
	s.comparisons++

	if len(s.contenders) == 1 {
		return true, nil
	}

	s.pending -= 2
	if s.pending < 2 {
		s.round++
		s.pending = len(s.contenders)
	}
	return false, nil
}

// Finished reports whether exactly one contender remains
func (s *Session) Finished() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contenders) == 1
}

// Winner returns the last contender once the session has finished
func (s *Session) Winner() (models.Restaurant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.contenders) != 1 {
		return models.Restaurant{}, false
	}
	return s.contenders[0], true
}

// Round returns the current logical round, starting at 1
func (s *Session) Round() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.round
}

// Comparisons returns the number of resolved pairs so far
func (s *Session) Comparisons() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.comparisons
}

// Contenders returns a copy of the remaining queue, front first
func (s *Session) Contenders() []models.Restaurant {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Restaurant, len(s.contenders))
	copy(out, s.contenders)
	return out
}

// Snapshot returns the current state of the session
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := State{
		Round:       s.round,
		Remaining:   len(s.contenders),
		Comparisons: s.comparisons,
	}
	if len(s.contenders) == 1 {
		winner := s.contenders[0]
		state.Finished = true
		state.Winner = &winner
		return state
	}
	state.Pair = []models.Restaurant{s.contenders[0], s.contenders[1]}
	return state
}
