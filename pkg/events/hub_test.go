package events

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// dialHub spins up a server around the hub and connects one client,
// returning the connection and the subscriber id from the hello frame.
func dialHub(t *testing.T, hub *Hub) (*websocket.Conn, string) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := hub.Register(conn)
		defer hub.Unregister(client.ID)
		client.Run()
	}))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var hello struct {
		Type string `json:"type"`
		Data struct {
			SubscriberID string `json:"subscriberId"`
		} `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&hello))
	require.Equal(t, TypeConnected, hello.Type)
	require.NotEmpty(t, hello.Data.SubscriberID)

	return conn, hello.Data.SubscriberID
}

func TestHub_HelloAssignsSubscriberID(t *testing.T) {
	hub := NewHub(8, time.Minute, zap.NewNop())

	_, id := dialHub(t, hub)
	assert.NotEmpty(t, id)

	assert.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestHub_PublishReachesSubscriber(t *testing.T) {
	hub := NewHub(8, time.Minute, zap.NewNop())
	conn, id := dialHub(t, hub)

	ok := hub.Publish(id, Event{
		Type: TypeDownloadStarted,
		Data: map[string]string{"downloadId": "d-1", "filename": "clip.mp4"},
	})
	require.True(t, ok)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var received struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&received))
	assert.Equal(t, TypeDownloadStarted, received.Type)
	assert.Equal(t, "d-1", received.Data["downloadId"])
	assert.Equal(t, "clip.mp4", received.Data["filename"])
}

func TestHub_PublishUnknownSubscriber(t *testing.T) {
	hub := NewHub(8, time.Minute, zap.NewNop())

	assert.False(t, hub.Publish("nobody", Event{Type: TypeDownloadProgress}))
}

func TestHub_PublishOrderPreserved(t *testing.T) {
	hub := NewHub(16, time.Minute, zap.NewNop())
	conn, id := dialHub(t, hub)

	types := []string{TypeDownloadStarted, TypeDownloadProgress, TypeDownloadComplete}
	for _, typ := range types {
		require.True(t, hub.Publish(id, Event{Type: typ}))
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for _, want := range types {
		var received struct {
			Type string `json:"type"`
		}
		require.NoError(t, conn.ReadJSON(&received))
		assert.Equal(t, want, received.Type)
	}
}

func TestHub_UnregisterDropsSubscriber(t *testing.T) {
	hub := NewHub(8, time.Minute, zap.NewNop())
	conn, id := dialHub(t, hub)

	conn.Close()

	assert.Eventually(t, func() bool {
		return !hub.Publish(id, Event{Type: TypeDownloadProgress})
	}, time.Second, 10*time.Millisecond)
}

func TestHub_FullQueueDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub(1, time.Minute, zap.NewNop())

	// Client never registered through a connection here; use a raw
	// client to saturate the queue deterministically.
	client := &Client{
		ID:   "stuck",
		send: make(chan Event, 1),
		done: make(chan struct{}),
	}
	hub.mu.Lock()
	hub.clients[client.ID] = client
	hub.mu.Unlock()

	assert.True(t, hub.Publish("stuck", Event{Type: TypeDownloadProgress}))

	done := make(chan bool, 1)
	go func() {
		done <- hub.Publish("stuck", Event{Type: TypeDownloadProgress})
	}()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber queue")
	}
}
