package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlueStarAcademy/sudampvp/internal/api"
	"github.com/BlueStarAcademy/sudampvp/internal/api/response"
	"github.com/BlueStarAcademy/sudampvp/internal/factory"
	"github.com/BlueStarAcademy/sudampvp/internal/testutil"
)

type cliRunner struct {
	t         *testing.T
	serverURL string
	tokenFile string
}

func newCLIRunner(t *testing.T) *cliRunner {
	t.Helper()
	t.Setenv("SUDAM_TOKEN", "")

	app := factory.NewTestApp()
	router := api.NewRouter(api.RouterConfig{
		Logger:            testutil.NopLogger(),
		AuthService:       app.AuthService,
		Records:           app.Records,
		SessionController: app.SessionController,
		Clocks:            app.Clocks,
		Queue:             app.Queue,
		HubManager:        app.HubManager,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		app.SessionController.Wait()
	})

	return &cliRunner{
		t:         t,
		serverURL: srv.URL,
		tokenFile: filepath.Join(t.TempDir(), "token"),
	}
}

func (r *cliRunner) run(format string, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", format,
	}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// runJSON runs a command expected to succeed and decodes its JSON output
func runJSON[T any](r *cliRunner, args ...string) T {
	r.t.Helper()
	output, err := r.run("json", args...)
	require.NoError(r.t, err, "output: %s", output)

	var v T
	require.NoError(r.t, json.Unmarshal([]byte(output), &v), "output: %s", output)
	return v
}

func TestHealthCommand(t *testing.T) {
	r := newCLIRunner(t)

	result := runJSON[HealthResult](r, "health")
	assert.Equal(t, "ok", result.Status)

	output, err := r.run("text", "health")
	require.NoError(t, err)
	assert.Equal(t, "Status: ok\n", output)
}

func TestGuestSavesToken(t *testing.T) {
	r := newCLIRunner(t)

	auth := runJSON[response.AuthResponse](r, "player", "guest", "--name", "Alice")
	assert.NotEmpty(t, auth.Token)

	saved, err := os.ReadFile(r.tokenFile)
	require.NoError(t, err)
	assert.Equal(t, auth.Token, string(saved))

	me := runJSON[response.Player](r, "player", "me")
	assert.Equal(t, auth.PlayerID, me.ID)
	assert.Equal(t, "Alice", me.DisplayName)

	output, err := r.run("text", "player", "me")
	require.NoError(t, err)
	assert.Contains(t, output, "Player: Alice ("+auth.PlayerID+")")
	assert.Contains(t, output, "Rating: 1500")
}

func TestGuestRequiresName(t *testing.T) {
	r := newCLIRunner(t)

	_, err := r.run("json", "player", "guest")
	assert.Error(t, err)
}

func TestUnauthorizedCommand(t *testing.T) {
	r := newCLIRunner(t)

	output, err := r.run("json", "player", "me")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNAUTHORIZED")
	assert.Contains(t, strings.ToLower(output), "unauthorized")
}

func TestQueueCommands(t *testing.T) {
	r := newCLIRunner(t)
	auth := runJSON[response.AuthResponse](r, "player", "guest", "--name", "Alice")

	candidate := runJSON[response.Candidate](r, "queue", "join", "capture")
	assert.Equal(t, auth.PlayerID, candidate.PlayerID)

	listed := runJSON[[]response.Candidate](r, "queue", "list", "capture")
	require.Len(t, listed, 1)

	msg := runJSON[map[string]string](r, "queue", "leave", "capture")
	assert.Equal(t, "Left capture queue", msg["message"])

	output, err := r.run("text", "queue", "list", "capture")
	require.NoError(t, err)
	assert.Equal(t, "Queue is empty\n", output)

	_, err = r.run("json", "queue", "leave", "capture")
	assert.ErrorContains(t, err, "NOT_QUEUED")
}

func TestPresenceCommand(t *testing.T) {
	r := newCLIRunner(t)
	runJSON[response.AuthResponse](r, "player", "guest", "--name", "Alice")

	msg := runJSON[map[string]string](r, "presence", "resting")
	assert.Equal(t, "Presence set to resting", msg["message"])

	_, err := r.run("json", "queue", "join", "capture")
	assert.ErrorContains(t, err, "NOT_ELIGIBLE")
}

func TestSessionCommands(t *testing.T) {
	r := newCLIRunner(t)
	runJSON[response.AuthResponse](r, "player", "guest", "--name", "Alice")

	sess := runJSON[response.Session](r, "session", "create", "standard")
	assert.Equal(t, "black", sess.YourColor)
	assert.Equal(t, "ready_wait", sess.Phase)

	sess = runJSON[response.Session](r, "session", "ready", sess.ID)
	assert.Equal(t, "active", sess.Phase)

	sess = runJSON[response.Session](r, "session", "move", sess.ID, "3", "3")
	assert.Equal(t, "B", sess.Board.Cells[3][3])

	clk := runJSON[response.Clock](r, "session", "clock", sess.ID)
	assert.True(t, clk.Running)

	output, err := r.run("text", "session", "get", sess.ID)
	require.NoError(t, err)
	assert.Contains(t, output, "Session: "+sess.ID)
	assert.Contains(t, output, "Phase: active")
	assert.Contains(t, output, "You: black")
	assert.Contains(t, output, " X")

	_, err = r.run("json", "session", "move", sess.ID, "3", "3")
	assert.ErrorContains(t, err, "ILLEGAL_MOVE")

	sess = runJSON[response.Session](r, "game", "resign", sess.ID)
	assert.Equal(t, "finished", sess.Phase)

	history := runJSON[[]response.GameRecord](r, "player", "history")
	require.Len(t, history, 1)
	assert.Equal(t, sess.ID, history[0].SessionID)
}

func TestActionArguments(t *testing.T) {
	r := newCLIRunner(t)

	_, err := r.run("json", "session", "move", "s1", "3")
	assert.Error(t, err)

	_, err = r.run("json", "session", "move", "s1", "x", "3")
	assert.ErrorContains(t, err, "invalid row")

	_, err = r.run("json", "session", "bid", "s1", "lots")
	assert.ErrorContains(t, err, "invalid amount")

	_, err = r.run("json", "session", "place", "s1")
	assert.Error(t, err)
}

func TestParsePoint(t *testing.T) {
	tests := []struct {
		in      string
		want    response.Point
		wantErr bool
	}{
		{in: "3,4", want: response.Point{Row: 3, Col: 4}},
		{in: " 0 , 18 ", want: response.Point{Row: 0, Col: 18}},
		{in: "3", wantErr: true},
		{in: "a,1", wantErr: true},
		{in: "1,b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parsePoint(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadEvents(t *testing.T) {
	stream := "event: connected\ndata: {\"status\":\"connected\"}\n\n" +
		": keepalive\n\n" +
		"event: move_applied\ndata: line one\ndata: line two\n\n" +
		"event: partial\ndata: never terminated\n"

	type event struct{ name, data string }
	var got []event
	err := readEvents(strings.NewReader(stream), func(name, data string) {
		got = append(got, event{name, data})
	})
	require.NoError(t, err)

	assert.Equal(t, []event{
		{"connected", `{"status":"connected"}`},
		{"move_applied", "line one\nline two"},
	}, got)
}

func TestPrintEventTruncates(t *testing.T) {
	var out bytes.Buffer
	printEvent(&out, "move_applied", strings.Repeat("x", 150), false)
	assert.Contains(t, out.String(), "move_applied: "+strings.Repeat("x", 100)+"...")

	out.Reset()
	printEvent(&out, "game_over", `{"winner":"black"}`, true)
	var evt SSEEvent
	require.NoError(t, json.Unmarshal(out.Bytes(), &evt))
	assert.Equal(t, "game_over", evt.Event)
	assert.Equal(t, `{"winner":"black"}`, evt.Data)
}

func TestLogoutForgetsToken(t *testing.T) {
	r := newCLIRunner(t)
	runJSON[response.AuthResponse](r, "player", "guest", "--name", "Alice")

	msg := runJSON[map[string]string](r, "player", "logout")
	assert.Equal(t, "Logged out", msg["message"])
	assert.NoFileExists(t, r.tokenFile)

	_, err := r.run("json", "player", "me")
	assert.ErrorContains(t, err, "UNAUTHORIZED")

	// Logging out twice is fine
	_, err = r.run("json", "player", "logout")
	assert.NoError(t, err)
}

func TestRejectsBadGlobalFlags(t *testing.T) {
	r := newCLIRunner(t)

	_, err := r.run("yaml", "health")
	assert.ErrorContains(t, err, "unknown output format")

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--server", "localhost:8080", "health"})
	assert.ErrorContains(t, cmd.ExecuteContext(context.Background()), "invalid server URL")
}

func TestVerboseTracesRequests(t *testing.T) {
	r := newCLIRunner(t)

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--server", r.serverURL, "--token-file", r.tokenFile, "-v", "health"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	assert.Equal(t, "Status: ok\n", stdout.String())
	assert.Contains(t, stderr.String(), "> GET "+r.serverURL+"/api/v1/health")
	assert.Contains(t, stderr.String(), "< 200 OK")
}
