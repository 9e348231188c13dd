package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"

	"restaurant-match-backend/internal/models"
	"restaurant-match-backend/internal/tournament"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedFavorites(t *testing.T, w *world, userID string, ids ...string) {
	t.Helper()
	for _, id := range ids {
		_, err := w.favorites.Create(context.Background(), models.FavoriteRecord{UserID: userID, RestaurantID: id, Restaurant: restaurant(id)})
		require.NoError(t, err)
	}
}

// pick returns the index of id in the active pair, or 0 when id is not in it
func pick(state *tournament.State, id string) int {
	if len(state.Pair) == 2 && state.Pair[1].ID == id {
		return 1
	}
	return 0
}

func TestTournamentStart(t *testing.T) {
	ctx := context.Background()

	for _, n := range []int{0, 1} {
		t.Run(fmt.Sprintf("Should refuse %d favorites without storing a session", n), func(t *testing.T) {
			w := newWorld()
			for i := 0; i < n; i++ {
				seedFavorites(t, w, alice, fmt.Sprintf("r%d", i))
			}

			_, err := w.tournamentService.Start(ctx, alice, nil)
			assert.ErrorIs(t, err, tournament.ErrInsufficientContenders)

			_, err = w.tournamentService.Current(alice)
			assert.ErrorIs(t, err, ErrNoActiveTournament)
		})
	}

	t.Run("Should restrict contenders to the requested ids", func(t *testing.T) {
		w := newWorld()
		seedFavorites(t, w, alice, "a", "b", "c", "d")

		state, err := w.tournamentService.Start(ctx, alice, []string{"a", "c", "unknown"})
		require.NoError(t, err)
		assert.Equal(t, 2, state.Remaining)
		assert.ElementsMatch(t, []string{"a", "c"}, ids(state.Pair))
	})

	t.Run("Should refuse a restriction leaving one favorite", func(t *testing.T) {
		w := newWorld()
		seedFavorites(t, w, alice, "a", "b")

		_, err := w.tournamentService.Start(ctx, alice, []string{"a"})
		assert.ErrorIs(t, err, tournament.ErrInsufficientContenders)
	})

	t.Run("Should replace the previous session", func(t *testing.T) {
		w := newWorld()
		seedFavorites(t, w, alice, "a", "b", "c")

		_, err := w.tournamentService.Start(ctx, alice, nil)
		require.NoError(t, err)
		_, err = w.tournamentService.Choose(ctx, alice, 0)
		require.NoError(t, err)

		state, err := w.tournamentService.Start(ctx, alice, nil)
		require.NoError(t, err)
		assert.Equal(t, 3, state.Remaining)
		assert.Zero(t, state.Comparisons)
	})
}

func TestTournamentChoose(t *testing.T) {
	ctx := context.Background()

	t.Run("Should finish in N-1 choices and persist the winner", func(t *testing.T) {
		for n := 2; n <= 9; n++ {
			w := newWorld()
			w.tournamentService.rng = rand.New(rand.NewPCG(uint64(n), 7))
			favs := make([]string, n)
			for i := range favs {
				favs[i] = fmt.Sprintf("r%d", i)
			}
			seedFavorites(t, w, alice, favs...)

			state, err := w.tournamentService.Start(ctx, alice, nil)
			require.NoError(t, err)

			choices := 0
			for !state.Finished {
				state, err = w.tournamentService.Choose(ctx, alice, choices%2)
				require.NoError(t, err)
				choices++
			}

			assert.Equal(t, n-1, choices)
			require.NotNil(t, state.Winner)
			assert.Contains(t, favs, state.Winner.ID)

			selected, err := w.tournamentService.Selected(ctx, alice)
			require.NoError(t, err)
			assert.Equal(t, state.Winner.ID, selected.Restaurant.ID)

			winners, err := w.tournamentService.Winners(ctx, alice)
			require.NoError(t, err)
			require.Len(t, winners, 1)
			assert.Equal(t, state.Winner.ID, winners[0].RestaurantID)

			_, err = w.tournamentService.Choose(ctx, alice, 0)
			assert.ErrorIs(t, err, tournament.ErrFinished)
		}
	})

	t.Run("Should reject an invalid choice", func(t *testing.T) {
		w := newWorld()
		seedFavorites(t, w, alice, "a", "b")
		_, err := w.tournamentService.Start(ctx, alice, nil)
		require.NoError(t, err)

		_, err = w.tournamentService.Choose(ctx, alice, 2)
		assert.ErrorIs(t, err, tournament.ErrInvalidChoice)

		state, err := w.tournamentService.Current(alice)
		require.NoError(t, err)
		assert.False(t, state.Finished)
	})

	t.Run("Should fail without a session", func(t *testing.T) {
		w := newWorld()
		_, err := w.tournamentService.Choose(ctx, alice, 0)
		assert.ErrorIs(t, err, ErrNoActiveTournament)
	})

	t.Run("Should retry persisting a finished session", func(t *testing.T) {
		w := newWorld()
		seedFavorites(t, w, alice, "a", "b")
		_, err := w.tournamentService.Start(ctx, alice, nil)
		require.NoError(t, err)

		w.selections.failWith = assert.AnError
		_, err = w.tournamentService.Choose(ctx, alice, 0)
		assert.ErrorIs(t, err, assert.AnError)

		state, err := w.tournamentService.Current(alice)
		require.NoError(t, err)
		assert.True(t, state.Finished)

		w.selections.failWith = nil
		state, err = w.tournamentService.Choose(ctx, alice, 0)
		require.NoError(t, err)
		assert.True(t, state.Finished)

		selected, err := w.tournamentService.Selected(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, state.Winner.ID, selected.Restaurant.ID)
	})

	t.Run("Should keep one history entry per restaurant", func(t *testing.T) {
		w := newWorld()
		seedFavorites(t, w, alice, "a", "b")

		for i := 0; i < 2; i++ {
			state, err := w.tournamentService.Start(ctx, alice, nil)
			require.NoError(t, err)
			_, err = w.tournamentService.Choose(ctx, alice, pick(state, "a"))
			require.NoError(t, err)
		}

		winners, err := w.tournamentService.Winners(ctx, alice)
		require.NoError(t, err)
		require.Len(t, winners, 1)
		assert.Equal(t, "a", winners[0].RestaurantID)
	})
}

func TestTournamentAbandon(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	seedFavorites(t, w, alice, "a", "b")

	_, err := w.tournamentService.Start(ctx, alice, nil)
	require.NoError(t, err)

	assert.True(t, w.tournamentService.Abandon(alice))
	assert.False(t, w.tournamentService.Abandon(alice))
	_, err = w.tournamentService.Current(alice)
	assert.ErrorIs(t, err, ErrNoActiveTournament)
}

func TestSetSelected(t *testing.T) {
	ctx := context.Background()
	w := newWorld()

	t.Run("Should overwrite the selection", func(t *testing.T) {
		_, err := w.tournamentService.SetSelected(ctx, alice, restaurant("a"))
		require.NoError(t, err)
		_, err = w.tournamentService.SetSelected(ctx, alice, restaurant("b"))
		require.NoError(t, err)

		sel, err := w.tournamentService.Selected(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, "b", sel.Restaurant.ID)
	})

	t.Run("Should reject a restaurant without id", func(t *testing.T) {
		_, err := w.tournamentService.SetSelected(ctx, alice, models.Restaurant{Name: "x"})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("Should report a missing selection", func(t *testing.T) {
		_, err := w.tournamentService.Selected(ctx, bob)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
