package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/BlueStarAcademy/sudampvp/internal/model"
)

const (
	// Time allowed to read the next pong from the peer
	pongWait = 60 * time.Second

	// Largest inbound command accepted
	maxCommandSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Command is an inbound WebSocket request
type Command struct {
	Type      string          `json:"type"`
	Point     model.Point     `json:"point"`
	Points    []model.Point   `json:"points,omitempty"`
	Direction model.Direction `json:"direction,omitempty"`
	Power     int             `json:"power,omitempty"`
	Column    int             `json:"column,omitempty"`
	Amount    int             `json:"amount,omitempty"`
	Color     string          `json:"color,omitempty"`
}

// CommandHandler executes a command on behalf of player
type CommandHandler func(ctx context.Context, sessionID model.SessionID, player model.PlayerID, cmd Command) error

// ServeWS upgrades the request and serves a session socket: hub messages
// are written out, commands read in are passed to handle. It blocks until
// the connection closes.
func ServeWS(w http.ResponseWriter, r *http.Request, hub *Hub, sessionID model.SessionID, playerID model.PlayerID, handle CommandHandler, logger *slog.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	client := NewClient(hub, playerID)
	hub.Register(client)
	defer hub.Unregister(client)

	replies := make(chan Message, 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		writePump(conn, client.send, replies)
	}()

	replies <- Message{Event: "connected", Data: []byte(`{"status":"connected"}`)}

	// Server shutdown cancels the request context; closing the conn unblocks the read loop
	stop := context.AfterFunc(r.Context(), func() { _ = conn.Close() })
	defer stop()

	conn.SetReadLimit(maxCommandSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("websocket closed", slog.String("error", err.Error()))
			}
			break
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			reply(replies, "error", errorBody("invalid command"))
			continue
		}
		if err := handle(r.Context(), sessionID, playerID, cmd); err != nil {
			reply(replies, "error", errorBody(err.Error()))
			continue
		}
		reply(replies, "ack", mustJSON(map[string]string{"type": cmd.Type}))
	}

	hub.Unregister(client)
	<-writerDone
}

// writePump writes hub messages and replies as JSON text frames, pinging
// the peer while idle
func writePump(conn *websocket.Conn, send <-chan Message, replies <-chan Message) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	write := func(m Message) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteMessage(websocket.TextMessage, wsFrame(m))
	}

	for {
		select {
		case m, ok := <-send:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := write(m); err != nil {
				return
			}
		case m := <-replies:
			if err := write(m); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// wsFrame wraps a message as {"event": name, "data": payload}
func wsFrame(m Message) []byte {
	data := json.RawMessage(m.Data)
	if !json.Valid(m.Data) {
		data = mustJSON(string(m.Data))
	}
	return mustJSON(struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}{Event: m.Event, Data: data})
}

func reply(replies chan<- Message, event string, data []byte) {
	select {
	case replies <- Message{Event: event, Data: data}:
	default:
	}
}

func errorBody(msg string) []byte {
	return mustJSON(map[string]string{"error": msg})
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("null")
	}
	return data
}
