package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"restaurant-match-backend/internal/models"
	"restaurant-match-backend/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	query  string
	auth   string
}

func newServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, chan recorded) {
	t.Helper()
	calls := make(chan recorded, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls <- recorded{method: r.Method, path: r.URL.EscapedPath(), query: r.URL.RawQuery, auth: r.Header.Get("Authorization")}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

func TestNotificationSource(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"notifications": []models.Notification{{ID: "n1", Type: models.NotificationMatch, Message: "m", CreatedAt: created}},
			})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	src := New(srv.URL+"/", "tok").Notifications()

	t.Run("Should list with a limit and bearer token", func(t *testing.T) {
		list, err := src.List(ctx, 25)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "n1", list[0].ID)
		assert.True(t, created.Equal(list[0].CreatedAt))

		call := <-calls
		assert.Equal(t, recorded{method: http.MethodGet, path: "/api/v1/notifications", query: "limit=25", auth: "Bearer tok"}, call)
	})

	t.Run("Should map mutations to endpoints", func(t *testing.T) {
		require.NoError(t, src.MarkRead(ctx, "match:a:b:r 1"))
		require.NoError(t, src.MarkAllRead(ctx))
		require.NoError(t, src.Delete(ctx, "n1"))
		require.NoError(t, src.DeleteAll(ctx))

		want := []recorded{
			{method: http.MethodPut, path: "/api/v1/notifications/match:a:b:r%201/read"},
			{method: http.MethodPut, path: "/api/v1/notifications/read"},
			{method: http.MethodDelete, path: "/api/v1/notifications/n1"},
			{method: http.MethodDelete, path: "/api/v1/notifications"},
		}
		for _, w := range want {
			call := <-calls
			assert.Equal(t, w.method, call.method)
			assert.Equal(t, w.path, call.path)
		}
	})
}

func TestAPIError(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}`))
	})

	err := New(srv.URL, "tok").Notifications().MarkRead(context.Background(), "x")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "not found", apiErr.Message)
}

func TestCenterOverClient(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"notifications": []models.Notification{
				{ID: "n1", Type: models.NotificationMatch, Message: "a", CreatedAt: time.Now().Add(-time.Minute)},
				{ID: "n2", Type: models.NotificationMatch, Message: "b", CreatedAt: time.Now()},
			},
		})
	})

	center := notify.NewCenter(New(srv.URL, "tok").Notifications())
	var alerts []models.Notification
	unsubscribe := center.Subscribe(func(u notify.Update) { alerts = u.Alerts })
	defer unsubscribe()

	require.NoError(t, center.Refresh(context.Background()))

	assert.Equal(t, 2, center.UnreadCount())
	require.Len(t, alerts, 1)
	assert.Equal(t, models.NotificationSummary, alerts[0].Type)
}

func TestHeartbeatTask(t *testing.T) {
	var beats int32
	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&beats, 1)
		w.WriteHeader(http.StatusNoContent)
	})

	task := NewHeartbeatTask(New(srv.URL, "tok"), 20*time.Millisecond)
	task.Start(context.Background())

	call := <-calls
	assert.Equal(t, http.MethodPost, call.method)
	assert.Equal(t, "/api/v1/presence/heartbeat", call.path)

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&beats) >= 3 }, 2*time.Second, 10*time.Millisecond)

	task.Stop()
	assert.False(t, task.Running())
}
