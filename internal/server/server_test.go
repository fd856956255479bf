package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *GameService) {
	t.Helper()
	svc := newTestService(t, 1)
	return New(svc, "localhost:0", zerolog.Nop()), svc
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUserEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/users", createUserRequest{Name: "Ann", Email: "ann@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Duplicate names conflict, case-insensitively, with a code clients
	// can branch on.
	rec = doJSON(t, h, http.MethodPost, "/api/users", createUserRequest{Name: "ann"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, CodePlayerExists, body["code"])

	rec = doJSON(t, h, http.MethodPost, "/api/users", createUserRequest{Name: "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var users []map[string]interface{}
	decodeBody(t, rec, &users)
	assert.Len(t, users, 1)
}

func createGameOverHTTP(t *testing.T, h http.Handler, player1, player2 string) GameSnapshot {
	t.Helper()

	for _, name := range []string{player1, player2} {
		rec := doJSON(t, h, http.MethodPost, "/api/users", createUserRequest{Name: name})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, h, http.MethodPost, "/api/games", createGameRequest{Player1: player1, Player2: player2})
	require.Equal(t, http.StatusCreated, rec.Code)

	var snap GameSnapshot
	decodeBody(t, rec, &snap)
	return snap
}

func TestGameLifecycleOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	snap := createGameOverHTTP(t, h, "Ann", "Bo")
	assert.Equal(t, "Ann", snap.Turn)
	require.Len(t, snap.Players, 2)

	rec := doJSON(t, h, http.MethodGet, "/api/games/"+snap.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Guess a rank Ann holds so the request is always accepted.
	guess := snap.Players[0].Unmatched[0].Rank.String()
	rec = doJSON(t, h, http.MethodPost, "/api/games/"+snap.ID+"/guess", guessRequest{Player: "Ann", Guess: guess})
	require.Equal(t, http.StatusOK, rec.Code)

	var resolved GuessResolvedData
	decodeBody(t, rec, &resolved)
	assert.Equal(t, "Ann", resolved.Outcome.Player)
	assert.Equal(t, uint64(2), resolved.Game.Revision)

	rec = doJSON(t, h, http.MethodGet, "/api/games/"+snap.ID+"/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var moves []map[string]interface{}
	decodeBody(t, rec, &moves)
	assert.Len(t, moves, 1)

	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/games/%s/players/Bo/hand", snap.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var hand PlayerSnapshot
	decodeBody(t, rec, &hand)
	assert.Equal(t, "Bo", hand.Name)

	rec = doJSON(t, h, http.MethodGet, "/api/users/Ann/games", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/games/"+snap.ID, nil)
	if resolved.Outcome.GameOver {
		// Finished games are part of the record.
		assert.Equal(t, http.StatusConflict, rec.Code)
	} else {
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = doJSON(t, h, http.MethodGet, "/api/games/"+snap.ID, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}
}

func TestGuessErrorStatuses(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	snap := createGameOverHTTP(t, h, "Ann", "Bo")

	rec := doJSON(t, h, http.MethodPost, "/api/games/nope/guess", guessRequest{Player: "Ann", Guess: "King"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/games/"+snap.ID+"/guess", guessRequest{Player: "Bo", Guess: "King"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/games/"+snap.ID+"/guess", guessRequest{Player: "Carol", Guess: "King"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateGameErrorStatuses(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/games", createGameRequest{Player1: "Ann", Player2: "Bo"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/users", createUserRequest{Name: "Ann"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/games", createGameRequest{Player1: "Ann", Player2: "ann"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/games", createGameRequest{Player1: "Ann", Player2: "Ann", MatchesToWin: -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScoreboardEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/scoreboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestWebsocketReceivesGameEvents(t *testing.T) {
	srv, svc := newTestServer(t)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	registerPlayers(t, svc, "Ann", "Bo")
	snap, err := svc.CreateGame(t.Context(), "Ann", "Bo", 0, 0)
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, TypeGameCreated, msg.Type)

	var received GameSnapshot
	require.NoError(t, json.Unmarshal(msg.Data, &received))
	assert.Equal(t, snap.ID, received.ID)
}
