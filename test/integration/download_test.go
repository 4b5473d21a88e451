package integration

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wsEvent struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// connectSubscriber opens the event channel and returns the connection
// plus the server-assigned subscriber id.
func connectSubscriber(t *testing.T, serverURL string) (*websocket.Conn, string) {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(serverURL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	var hello wsEvent
	require.NoError(t, conn.ReadJSON(&hello))
	require.Equal(t, "connected", hello.Type)

	id, _ := hello.Data["subscriberId"].(string)
	require.NotEmpty(t, id)
	return conn, id
}

// collectEvents reads subscriber events until a terminal download
// event or the deadline.
func collectEvents(t *testing.T, conn *websocket.Conn) []wsEvent {
	t.Helper()

	var collected []wsEvent
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var ev wsEvent
		if err := conn.ReadJSON(&ev); err != nil {
			return collected
		}
		collected = append(collected, ev)
		if ev.Type == "download_complete" || ev.Type == "download_error" {
			return collected
		}
	}
}

func TestDownload_EventFlow(t *testing.T) {
	data := bytes.Repeat([]byte{'v'}, 2048)
	stack := setupTestServer(t, &mockProvider{info: testInfo(), streamData: data})

	conn, subscriberID := connectSubscriber(t, stack.server.URL)

	resp := postJSON(t, stack.server.URL+"/api/download", map[string]string{
		"url":          "https://example.com/watch?v=vid123",
		"formatId":     "18",
		"subscriberId": subscriberID,
	})
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Len(t, body, len(data))

	collected := collectEvents(t, conn)
	require.NotEmpty(t, collected)

	// started first, terminal success last, progress in between.
	assert.Equal(t, "download_started", collected[0].Type)
	assert.Equal(t, "download_complete", collected[len(collected)-1].Type)

	started := collected[0].Data
	downloadID, _ := started["downloadId"].(string)
	assert.NotEmpty(t, downloadID)
	assert.Equal(t, "Test Video The Sequel.mp4", started["filename"])

	sawProgress := false
	for _, ev := range collected[1 : len(collected)-1] {
		require.Equal(t, "download_progress", ev.Type)
		assert.Equal(t, downloadID, ev.Data["downloadId"])
		sawProgress = true
	}
	assert.True(t, sawProgress)

	// Every event carries this session's id only.
	for _, ev := range collected {
		assert.Equal(t, downloadID, ev.Data["downloadId"])
	}
}

func TestDownload_ErrorEventOnStreamFailure(t *testing.T) {
	provider := &mockProvider{info: testInfo(), streamData: nil}
	stack := setupTestServer(t, provider)

	conn, subscriberID := connectSubscriber(t, stack.server.URL)

	// Empty stream completes immediately; use an open failure to drive
	// the error path end to end instead.
	provider.streamErr = io.ErrUnexpectedEOF

	resp := postJSON(t, stack.server.URL+"/api/download", map[string]string{
		"url":          "https://example.com/watch?v=vid123",
		"formatId":     "18",
		"subscriberId": subscriberID,
	})
	defer resp.Body.Close()

	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	collected := collectEvents(t, conn)
	require.NotEmpty(t, collected)
	assert.Equal(t, "download_started", collected[0].Type)
	assert.Equal(t, "download_error", collected[len(collected)-1].Type)

	errData := collected[len(collected)-1].Data
	errMsg, _ := errData["error"].(string)
	assert.NotEmpty(t, errMsg)
}

func TestDownload_IndependentSubscribers(t *testing.T) {
	data := bytes.Repeat([]byte{'v'}, 1024)
	stack := setupTestServer(t, &mockProvider{info: testInfo(), streamData: data})

	connA, subA := connectSubscriber(t, stack.server.URL)
	connB, subB := connectSubscriber(t, stack.server.URL)
	require.NotEqual(t, subA, subB)

	respA := postJSON(t, stack.server.URL+"/api/download", map[string]string{
		"url":          "https://example.com/watch?v=vid123",
		"formatId":     "18",
		"subscriberId": subA,
	})
	defer respA.Body.Close()
	io.Copy(io.Discard, respA.Body)

	respB := postJSON(t, stack.server.URL+"/api/download", map[string]string{
		"url":          "https://example.com/watch?v=vid123",
		"formatId":     "140",
		"subscriberId": subB,
	})
	defer respB.Body.Close()
	io.Copy(io.Discard, respB.Body)

	eventsA := collectEvents(t, connA)
	eventsB := collectEvents(t, connB)
	require.NotEmpty(t, eventsA)
	require.NotEmpty(t, eventsB)

	idA, _ := eventsA[0].Data["downloadId"].(string)
	idB, _ := eventsB[0].Data["downloadId"].(string)
	require.NotEqual(t, idA, idB)

	// Subscriber A never sees session B's events and vice versa.
	for _, ev := range eventsA {
		assert.Equal(t, idA, ev.Data["downloadId"])
	}
	for _, ev := range eventsB {
		assert.Equal(t, idB, ev.Data["downloadId"])
	}
}
