package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlueStarAcademy/sudampvp/internal/model"
)

func TestGTPPointRoundTrip(t *testing.T) {
	tests := []struct {
		point  model.Point
		vertex string
	}{
		{model.Point{Row: 0, Col: 0}, "A19"},
		{model.Point{Row: 18, Col: 18}, "T1"},
		{model.Point{Row: 15, Col: 3}, "D4"},
		{model.Point{Row: 10, Col: 8}, "J9"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.vertex, GTPPoint(tt.point, 19))
		p, pass, err := ParseGTPPoint(tt.vertex, 19)
		require.NoError(t, err)
		assert.False(t, pass)
		assert.Equal(t, tt.point, p)
	}

	_, pass, err := ParseGTPPoint("pass", 19)
	require.NoError(t, err)
	assert.True(t, pass)

	_, _, err = ParseGTPPoint("Z30", 19)
	assert.Error(t, err)
	_, _, err = ParseGTPPoint("A20", 19)
	assert.Error(t, err)
}

func TestNewQueryListsStones(t *testing.T) {
	board := model.NewBoard(9)
	board.Set(model.Point{Row: 8, Col: 0}, model.Black)
	board.Set(model.Point{Row: 0, Col: 8}, model.White)
	s := &model.Session{ID: "s-1", Board: board, Config: model.SessionConfig{Komi: 6.5}}

	q := NewQuery(s, model.White)
	assert.Equal(t, 9, q.BoardXSize)
	assert.Equal(t, "W", q.InitialPlayer)
	assert.Equal(t, [][2]string{{"W", "J9"}, {"B", "A1"}}, q.InitialStones)
	assert.Equal(t, 6.5, q.Komi)
}

func TestClientAnalyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analyze", r.URL.Path)
		var q Query
		require.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		_ = json.NewEncoder(w).Encode(Response{
			ID:        q.ID,
			RootInfo:  RootInfo{ScoreLead: 3.5},
			MoveInfos: []MoveInfo{{Move: "C3", Order: 1}, {Move: "D4", Order: 0}},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", time.Second)
	resp, err := client.Analyze(context.Background(), Query{ID: "q-1"})
	require.NoError(t, err)
	assert.Equal(t, "q-1", resp.ID)
	assert.Equal(t, 3.5, resp.RootInfo.ScoreLead)

	best, ok := resp.BestMove()
	assert.True(t, ok)
	assert.Equal(t, "D4", best)
}

func TestClientReportsEngineErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Response{Error: "bad query"})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Analyze(context.Background(), Query{})
	assert.ErrorContains(t, err, "bad query")

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer failing.Close()

	_, err = NewClient(failing.URL, time.Second).Analyze(context.Background(), Query{})
	assert.ErrorContains(t, err, "HTTP 503")
}
