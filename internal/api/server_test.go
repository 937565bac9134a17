package api_test

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlueStarAcademy/sudampvp/internal/api"
	"github.com/BlueStarAcademy/sudampvp/internal/testutil"
)

func startServer(t *testing.T, ts *testServer) (*api.Server, string, <-chan error) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	cfg := api.DefaultServerConfig()
	cfg.ShutdownTimeout = 5 * time.Second
	server := api.NewServer(ts.handler, cfg, testutil.NopLogger())

	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ln)
	}()
	return server, ln.Addr().String(), done
}

func TestShutdownEndsEventStreams(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token("alice")
	sess := createAIGame(t, ts, token)

	server, addr, done := startServer(t, ts)

	resp, err := http.Get("http://" + addr + "/api/v1/sessions/" + sess.ID + "/events?access_token=" + token)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", line)

	start := time.Now()
	require.NoError(t, server.Shutdown(context.Background()))
	assert.Less(t, time.Since(start), 5*time.Second)
	require.NoError(t, <-done)

	// The stream ends instead of hanging
	_, _ = io.ReadAll(reader)
}

func TestShutdownClosesSockets(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token("alice")
	sess := createAIGame(t, ts, token)

	server, addr, done := startServer(t, ts)

	url := "ws://" + addr + "/api/v1/sessions/" + sess.ID + "/ws?access_token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "connected"))

	require.NoError(t, server.Shutdown(context.Background()))
	require.NoError(t, <-done)

	// Reads fail once the server side closes, well before the deadline
	for {
		if _, _, err = conn.ReadMessage(); err != nil {
			break
		}
	}
	var netErr net.Error
	if assert.Error(t, err) && errors.As(err, &netErr) {
		assert.False(t, netErr.Timeout(), "socket was not closed by shutdown")
	}
}
