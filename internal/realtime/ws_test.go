package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlueStarAcademy/sudampvp/internal/model"
	"github.com/BlueStarAcademy/sudampvp/internal/testutil"
)

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var f frame
	require.NoError(t, json.Unmarshal(data, &f))
	return f
}

func TestServeWS(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	hub := manager.GetOrCreateHub(SessionTopic("s-1"))

	got := make(chan Command, 1)
	handle := func(ctx context.Context, sessionID model.SessionID, player model.PlayerID, cmd Command) error {
		assert.Equal(t, model.SessionID("s-1"), sessionID)
		assert.Equal(t, model.PlayerID("alice"), player)
		if cmd.Type == "bogus" {
			return errors.New("unknown command")
		}
		got <- cmd
		return nil
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(w, r, hub, "s-1", "alice", handle, testutil.NopLogger())
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "connected", readFrame(t, conn).Event)

	hub.Broadcast(Message{Event: "move_applied", Data: []byte(`{"type":"move_applied"}`)})
	f := readFrame(t, conn)
	assert.Equal(t, "move_applied", f.Event)
	assert.JSONEq(t, `{"type":"move_applied"}`, string(f.Data))

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":  "move",
		"point": map[string]int{"row": 3, "col": 4},
	}))
	f = readFrame(t, conn)
	assert.Equal(t, "ack", f.Event)
	assert.JSONEq(t, `{"type":"move"}`, string(f.Data))
	assert.Equal(t, model.Point{Row: 3, Col: 4}, (<-got).Point)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "bogus"}))
	f = readFrame(t, conn)
	assert.Equal(t, "error", f.Event)
	assert.JSONEq(t, `{"error":"unknown command"}`, string(f.Data))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	f = readFrame(t, conn)
	assert.Equal(t, "error", f.Event)
	assert.JSONEq(t, `{"error":"invalid command"}`, string(f.Data))
}

func TestWSFrameWrapsPlainText(t *testing.T) {
	assert.JSONEq(t, `{"event":"note","data":"hello"}`, string(wsFrame(Message{Event: "note", Data: []byte("hello")})))
	assert.JSONEq(t, `{"event":"note","data":{"a":1}}`, string(wsFrame(Message{Event: "note", Data: []byte(`{"a":1}`)})))
}

func TestBroadcasterRoutesByTopic(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	b := NewBroadcaster(manager, testutil.NopLogger())

	sessionHub := manager.GetOrCreateHub(SessionTopic("s-1"))
	aliceHub := manager.GetOrCreateHub(PlayerTopic("alice"))
	sessionClient := NewClient(sessionHub, "bob")
	aliceClient := NewClient(aliceHub, "alice")
	sessionHub.Register(sessionClient)
	aliceHub.Register(aliceClient)

	b.Publish(context.Background(), model.Event{
		Type:      model.EventMoveApplied,
		SessionID: "s-1",
		Timestamp: time.Unix(0, 0).UTC(),
	})

	select {
	case msg := <-sessionClient.send:
		assert.Equal(t, string(model.EventMoveApplied), msg.Event)
		var env map[string]any
		require.NoError(t, json.Unmarshal(msg.Data, &env))
		assert.Equal(t, "s-1", env["session_id"])
	case <-time.After(time.Second):
		t.Fatal("session subscriber got nothing")
	}
	select {
	case <-aliceClient.send:
		t.Fatal("player topic should not receive session events")
	case <-time.After(50 * time.Millisecond):
	}

	b.Publish(context.Background(), model.Event{
		Type:      model.EventMatchFound,
		SessionID: "s-2",
		Payload: model.MatchFoundPayload{
			Mode:    model.ModeStandard,
			Players: map[model.Color]model.PlayerID{model.Black: "alice", model.White: "carol"},
		},
	})
	select {
	case msg := <-aliceClient.send:
		assert.Equal(t, string(model.EventMatchFound), msg.Event)
	case <-time.After(time.Second):
		t.Fatal("matched player got nothing")
	}
}

func TestBroadcasterWithoutSubscribers(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	b := NewBroadcaster(manager, testutil.NopLogger())

	assert.NotPanics(t, func() {
		b.Publish(context.Background(), model.Event{Type: model.EventGameOver, SessionID: "nobody"})
	})
	assert.Nil(t, manager.GetHub(SessionTopic("nobody")))
}
