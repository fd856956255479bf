package client

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/gofish/internal/directory"
	"github.com/lox/gofish/internal/scoreboard"
	"github.com/lox/gofish/internal/server"
	"github.com/lox/gofish/internal/store"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	svc := server.NewGameService(
		store.NewMemoryStore(),
		directory.NewMemoryDirectory(),
		scoreboard.NewMemory(),
		1,
		server.GameSettings{MatchesToWin: 6, CardsDealt: 5},
		zerolog.Nop(),
	)
	srv := server.New(svc, "localhost:0", zerolog.Nop())

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return New(ts.URL, zerolog.Nop())
}

func TestClientGameFlow(t *testing.T) {
	c := newTestClient(t)
	ctx := t.Context()

	require.NoError(t, c.CreateUser(ctx, "Ann", "ann@example.com"))
	require.NoError(t, c.CreateUser(ctx, "Bo", ""))

	// Re-registering an existing name is treated as a reconnect.
	require.NoError(t, c.CreateUser(ctx, "Ann", ""))

	snap, err := c.CreateGame(ctx, "Ann", "Bo")
	require.NoError(t, err)
	assert.Equal(t, "Ann", snap.Turn)

	fetched, err := c.Game(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, fetched.ID)

	hand, err := c.Hand(ctx, snap.ID, "Ann")
	require.NoError(t, err)
	require.NotEmpty(t, hand.Unmatched)

	resolved, err := c.Guess(ctx, snap.ID, "Ann", hand.Unmatched[0].Rank.String())
	require.NoError(t, err)
	assert.Equal(t, "Ann", resolved.Outcome.Player)

	entries, err := c.Scoreboard(ctx)
	require.NoError(t, err)
	if !resolved.Outcome.GameOver {
		assert.Empty(t, entries)
	}
}

func TestClientServerErrorsSurface(t *testing.T) {
	c := newTestClient(t)
	ctx := t.Context()

	_, err := c.Game(ctx, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, server.CodeNotFound, apiErr.Code)

	_, err = c.CreateGame(ctx, "Ann", "Bo")
	require.Error(t, err)
}

func TestClientCreateUserOnlySwallowsExisting(t *testing.T) {
	c := newTestClient(t)
	ctx := t.Context()

	// Blank names are rejected outright, not treated as a reconnect.
	err := c.CreateUser(ctx, "  ", "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, server.CodeInvalidRequest, apiErr.Code)
}

func TestClientEvents(t *testing.T) {
	c := newTestClient(t)
	ctx := t.Context()

	events, err := c.Events(ctx)
	require.NoError(t, err)

	require.NoError(t, c.CreateUser(ctx, "Ann", ""))
	require.NoError(t, c.CreateUser(ctx, "Bo", ""))
	_, err = c.CreateGame(ctx, "Ann", "Bo")
	require.NoError(t, err)

	select {
	case msg := <-events:
		assert.Equal(t, server.TypeGameCreated, msg.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("no event received")
	}
}
