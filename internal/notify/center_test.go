package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"restaurant-match-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu       sync.Mutex
	lists    [][]models.Notification
	gates    []chan struct{}
	calls    int
	failWith error

	markRead []string
	deleted  []string
	allRead  int
	cleared  int
}

func (f *fakeSource) List(ctx context.Context, limit int) ([]models.Notification, error) {
	f.mu.Lock()
	i := f.calls
	f.calls++
	var gate chan struct{}
	if i < len(f.gates) {
		gate = f.gates[i]
	}
	var list []models.Notification
	if len(f.lists) > 0 {
		if i < len(f.lists) {
			list = f.lists[i]
		} else {
			list = f.lists[len(f.lists)-1]
		}
	}
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return list, nil
}

func (f *fakeSource) MarkRead(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markRead = append(f.markRead, id)
	return f.failWith
}

func (f *fakeSource) MarkAllRead(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allRead++
	return f.failWith
}

func (f *fakeSource) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return f.failWith
}

func (f *fakeSource) DeleteAll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
	return f.failWith
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestCenterRefresh(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{lists: [][]models.Notification{
		{note("n1", 1)},
		{note("n1", 1), note("n2", 2), note("n3", 3)},
	}}
	c := NewCenter(src)

	var updates []Update
	unsubscribe := c.Subscribe(func(u Update) { updates = append(updates, u) })

	require.NoError(t, c.Refresh(ctx))
	require.NoError(t, c.Refresh(ctx))

	require.Len(t, updates, 2)
	require.Len(t, updates[0].Alerts, 1)
	assert.Equal(t, "n1", updates[0].Alerts[0].ID)
	require.Len(t, updates[1].Alerts, 1)
	assert.Equal(t, models.NotificationSummary, updates[1].Alerts[0].Type)
	assert.Equal(t, 3, updates[1].Unread)
	assert.Equal(t, []string{"n3", "n2", "n1"}, noteIDs(c.Notifications()))

	unsubscribe()
	unsubscribe()
	require.NoError(t, c.Refresh(ctx))
	assert.Len(t, updates, 2)
}

func TestCenterDropsSupersededPoll(t *testing.T) {
	ctx := context.Background()
	gate := make(chan struct{})
	src := &fakeSource{
		lists: [][]models.Notification{{note("stale", 1)}, {note("fresh", 2)}},
		gates: []chan struct{}{gate},
	}
	c := NewCenter(src)

	firstDone := make(chan error, 1)
	go func() { firstDone <- c.Refresh(ctx) }()
	require.Eventually(t, func() bool { return src.callCount() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, c.Refresh(ctx))
	close(gate)
	require.NoError(t, <-firstDone)

	assert.Equal(t, []string{"fresh"}, noteIDs(c.Notifications()))
}

func TestCenterDropsPollAfterLocalMutation(t *testing.T) {
	ctx := context.Background()
	gate := make(chan struct{})
	unread := note("n1", 1)
	src := &fakeSource{
		lists: [][]models.Notification{{unread}, {unread}},
		gates: []chan struct{}{nil, gate},
	}
	c := NewCenter(src)
	require.NoError(t, c.Refresh(ctx))

	done := make(chan error, 1)
	go func() { done <- c.Refresh(ctx) }()
	require.Eventually(t, func() bool { return src.callCount() == 2 }, time.Second, time.Millisecond)

	c.MarkRead(ctx, "n1")
	close(gate)
	require.NoError(t, <-done)

	assert.Equal(t, 0, c.UnreadCount())
}

func TestCenterFocusSuppression(t *testing.T) {
	chat := note("n1", 1)
	chat.Type = models.NotificationMessage
	chat.Data = map[string]interface{}{"friend_id": "bob"}

	src := &fakeSource{lists: [][]models.Notification{{chat}}}
	c := NewCenter(src, WithFocus(func(n models.Notification) bool {
		return n.Data["friend_id"] == "bob"
	}))

	var got Update
	c.Subscribe(func(u Update) { got = u })

	require.NoError(t, c.Refresh(context.Background()))
	assert.Empty(t, got.Alerts)
	assert.Equal(t, 1, got.Unread)

	c.SetFocus(nil)
	c.AddLocal(models.Notification{Type: models.NotificationMessage, Message: "hello", Data: map[string]interface{}{"friend_id": "bob"}})
	assert.Len(t, got.Alerts, 1)
}

func TestCenterMutationsAreBestEffort(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{
		lists:    [][]models.Notification{{note("n1", 1), note("n2", 2)}},
		failWith: errors.New("offline"),
	}
	c := NewCenter(src)
	require.NoError(t, c.Refresh(ctx))
	require.Equal(t, 2, c.UnreadCount())

	c.MarkRead(ctx, "n1")
	assert.Equal(t, 1, c.UnreadCount())
	assert.Equal(t, []string{"n1"}, src.markRead)

	c.Remove(ctx, "n2")
	assert.Equal(t, []string{"n1"}, noteIDs(c.Notifications()))
	assert.Equal(t, []string{"n2"}, src.deleted)

	c.MarkAllRead(ctx)
	assert.Equal(t, 0, c.UnreadCount())
	assert.Equal(t, 1, src.allRead)

	c.ClearAll(ctx)
	assert.Empty(t, c.Notifications())
	assert.Equal(t, 1, src.cleared)
}

func TestCenterLocalEntries(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{lists: [][]models.Notification{{note("n1", 1)}}}
	c := NewCenter(src, WithCapacity(5))

	c.AddLocal(models.Notification{Type: models.NotificationInvitation, Message: "invite sent", CreatedAt: base.Add(time.Hour)})
	require.NoError(t, c.Refresh(ctx))

	cached := c.Notifications()
	require.Len(t, cached, 2)
	assert.True(t, cached[0].Local)

	c.Remove(ctx, cached[0].ID)
	assert.Empty(t, src.deleted)
	assert.Equal(t, []string{"n1"}, noteIDs(c.Notifications()))
}

func TestCenterLifecycle(t *testing.T) {
	src := &fakeSource{lists: [][]models.Notification{{note("n1", 1)}}}
	c := NewCenter(src, WithInterval(10*time.Millisecond))

	c.Start(context.Background())
	assert.True(t, c.Running())
	assert.Eventually(t, func() bool { return len(c.Notifications()) == 1 }, time.Second, 5*time.Millisecond)

	c.Stop()
	assert.False(t, c.Running())

	calls := src.callCount()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, src.callCount())
}

func TestCenterDoesNotRealertEvictedEntries(t *testing.T) {
	ctx := context.Background()
	server := []models.Notification{note("s3", 3), note("s2", 2), note("s1", 1)}
	src := &fakeSource{lists: [][]models.Notification{server, server, server, server}}
	c := NewCenter(src, WithCapacity(3))

	require.NoError(t, c.Refresh(ctx))
	c.AddLocal(models.Notification{Type: models.NotificationInvitation, Message: "invite sent"})
	require.Len(t, c.Notifications(), 3)
	assert.NotContains(t, noteIDs(c.Notifications()), "s1")

	var updates []Update
	c.Subscribe(func(u Update) { updates = append(updates, u) })

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Refresh(ctx))
	}

	require.Len(t, updates, 3)
	for _, u := range updates {
		assert.Empty(t, u.Alerts)
	}
	assert.NotContains(t, noteIDs(c.Notifications()), "s1")

	t.Run("Should still alert entries the server adds later", func(t *testing.T) {
		src.mu.Lock()
		src.lists = append(src.lists, append([]models.Notification{note("s4", 4)}, server...))
		src.mu.Unlock()

		require.NoError(t, c.Refresh(ctx))
		last := updates[len(updates)-1]
		require.Len(t, last.Alerts, 1)
		assert.Equal(t, "s4", last.Alerts[0].ID)
	})
}

func TestKnownIDs(t *testing.T) {
	t.Run("Should evict the least recently received id", func(t *testing.T) {
		k := newKnownIDs(2)
		k.add("a")
		k.add("b")
		k.add("a")
		k.add("c")

		assert.True(t, k.has("a"))
		assert.False(t, k.has("b"))
		assert.True(t, k.has("c"))
	})

	t.Run("Should ignore empty ids", func(t *testing.T) {
		k := newKnownIDs(1)
		k.add("")
		assert.False(t, k.has(""))
	})
}
