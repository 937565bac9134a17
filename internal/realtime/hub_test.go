package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlueStarAcademy/sudampvp/internal/testutil"
)

func TestFormatSSEMessage(t *testing.T) {
	tests := []struct {
		name      string
		eventName string
		data      string
		expected  string
	}{
		{
			name:      "single line data",
			eventName: "move_applied",
			data:      `{"type":"move_applied"}`,
			expected:  "event: move_applied\ndata: {\"type\":\"move_applied\"}\n\n",
		},
		{
			name:      "multi-line data",
			eventName: "game_over",
			data:      "{\n  \"winner\": \"B\"\n}",
			expected:  "event: game_over\ndata: {\ndata:   \"winner\": \"B\"\ndata: }\n\n",
		},
		{
			name:      "empty data",
			eventName: "ping",
			data:      "",
			expected:  "event: ping\ndata: \n\n",
		},
		{
			name:      "data with carriage returns",
			eventName: "test",
			data:      "line1\r\nline2",
			expected:  "event: test\ndata: line1\ndata: line2\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(formatSSEMessage(tt.eventName, []byte(tt.data))))
		})
	}
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"hello"}, splitLines("hello"))
	assert.Equal(t, []string{"line1", "line2"}, splitLines("line1\nline2"))
	assert.Equal(t, []string{"line1"}, splitLines("line1\n"))
	assert.Equal(t, []string{""}, splitLines(""))
	assert.Equal(t, []string{"line1", "line2"}, splitLines("line1\r\nline2\r\n"))
}

func TestHubRegisterAndBroadcast(t *testing.T) {
	hub := NewHub("session:s-1", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := NewClient(hub, "alice")
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Broadcast(Message{Event: "test", Data: []byte("hello")})

	select {
	case msg := <-client.send:
		assert.Equal(t, "test", msg.Event)
		assert.Equal(t, "hello", string(msg.Data))
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := NewHub("session:s-1", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := NewClient(hub, "alice")
	hub.Register(client)
	hub.Unregister(client)

	select {
	case _, ok := <-client.send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel was not closed")
	}
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	hub := NewHub("session:s-1", testutil.NopLogger())
	go hub.Run()

	client := NewClient(hub, "alice")
	hub.Register(client)
	hub.Close()
	hub.Close()

	select {
	case _, ok := <-client.send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel was not closed")
	}
}

func TestHubManager(t *testing.T) {
	m := NewHubManager(testutil.NopLogger())

	assert.Nil(t, m.GetHub(SessionTopic("s-1")))
	hub := m.GetOrCreateHub(SessionTopic("s-1"))
	assert.Same(t, hub, m.GetOrCreateHub(SessionTopic("s-1")))
	assert.Same(t, hub, m.GetHub(SessionTopic("s-1")))

	m.GetOrCreateHub(PlayerTopic("alice"))
	assert.Equal(t, 2, m.CleanupEmptyHubs())
	assert.Nil(t, m.GetHub(SessionTopic("s-1")))

	m.GetOrCreateHub(SessionTopic("s-2"))
	m.RemoveHub(SessionTopic("s-2"))
	assert.Nil(t, m.GetHub(SessionTopic("s-2")))
}

func TestServeSSEStreamsMessages(t *testing.T) {
	m := NewHubManager(testutil.NopLogger())
	hub := m.GetOrCreateHub(SessionTopic("s-1"))

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		ServeSSE(rec, req, hub, "alice")
		close(done)
	}()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	hub.Broadcast(Message{Event: "phase_changed", Data: []byte(`{"to":"active"}`)})
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(body, "event: connected\n"))
	assert.Contains(t, body, "event: phase_changed\ndata: {\"to\":\"active\"}\n\n")
}
