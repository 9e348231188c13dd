package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hubFixture struct {
	hub        *WSHub
	presence   *fakePresence
	friends    *fakeFriends
	server     *httptest.Server
	registered chan *websocket.Conn
}

func newHubFixture(t *testing.T) *hubFixture {
	t.Helper()

	f := &hubFixture{
		presence:   newFakePresence(),
		friends:    newFakeFriends(nil),
		registered: make(chan *websocket.Conn, 8),
	}
	ps := NewPresenceService(f.presence, time.Minute)
	ps.wait = true
	f.hub = NewWSHub(f.friends, ps)

	upgrader := websocket.Upgrader{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		userID := r.URL.Query().Get("user")
		f.hub.Register(userID, conn)
		f.registered <- conn
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				f.hub.Unregister(userID, conn)
				return
			}
		}
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *hubFixture) dial(t *testing.T, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/?user=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	select {
	case <-f.registered:
	case <-time.After(2 * time.Second):
		t.Fatal("connection was not registered")
	}
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg WSMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestWSHub(t *testing.T) {
	t.Run("Should deliver messages and mark the user online", func(t *testing.T) {
		f := newHubFixture(t)
		conn := f.dial(t, alice)

		assert.True(t, f.hub.IsOnline(alice))
		online, _ := f.presence.Online(context.Background(), []string{alice})
		assert.True(t, online[alice])

		require.NoError(t, f.hub.SendToUser(alice, WSMessage{Type: "notification", Message: "hi"}))
		msg := readMessage(t, conn)
		assert.Equal(t, "notification", msg.Type)
		assert.Equal(t, "hi", msg.Message)
		assert.NotZero(t, msg.Timestamp)
	})

	t.Run("Should fail for users that are not connected", func(t *testing.T) {
		f := newHubFixture(t)
		assert.Error(t, f.hub.SendToUser(bob, WSMessage{Type: "notification"}))
	})

	t.Run("Should tell online friends about status changes", func(t *testing.T) {
		f := newHubFixture(t)
		_, err := f.friends.Add(context.Background(), alice, bob, time.Now())
		require.NoError(t, err)

		bobConn := f.dial(t, bob)
		f.dial(t, alice)

		msg := readMessage(t, bobConn)
		assert.Equal(t, "friend_status", msg.Type)
		assert.Equal(t, alice, msg.FriendID)
		require.NotNil(t, msg.Online)
		assert.True(t, *msg.Online)
	})

	t.Run("Should keep the newer connection on reconnect", func(t *testing.T) {
		f := newHubFixture(t)
		first := f.dial(t, alice)
		second := f.dial(t, alice)

		require.NoError(t, first.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, _, err := first.ReadMessage()
		require.Error(t, err)
		time.Sleep(50 * time.Millisecond)

		assert.True(t, f.hub.IsOnline(alice))
		assert.Equal(t, 1, f.hub.ConnectionCount())
		require.NoError(t, f.hub.SendToUser(alice, WSMessage{Type: "notification"}))
		assert.Equal(t, "notification", readMessage(t, second).Type)
	})

	t.Run("Should go offline when the client disconnects", func(t *testing.T) {
		f := newHubFixture(t)
		conn := f.dial(t, alice)
		conn.Close()

		assert.Eventually(t, func() bool { return !f.hub.IsOnline(alice) }, 2*time.Second, 10*time.Millisecond)
		assert.Eventually(t, func() bool {
			online, _ := f.presence.Online(context.Background(), []string{alice})
			return !online[alice]
		}, 2*time.Second, 10*time.Millisecond)
	})
}

func TestPresenceService(t *testing.T) {
	ctx := context.Background()

	t.Run("Should swallow write failures", func(t *testing.T) {
		store := newFakePresence()
		store.failWith = assert.AnError
		ps := NewPresenceService(store, time.Minute)
		ps.wait = true

		assert.NotPanics(t, func() {
			ps.Heartbeat(alice)
			ps.Offline(alice)
			ps.Swiped(alice, time.Now())
		})
		assert.Empty(t, ps.Online(ctx, []string{alice}))
	})

	t.Run("Should write in the background", func(t *testing.T) {
		store := newFakePresence()
		ps := NewPresenceService(store, time.Minute)

		ps.Heartbeat(alice)

		assert.Eventually(t, func() bool { return ps.Online(ctx, []string{alice})[alice] }, time.Second, 5*time.Millisecond)
	})
}
