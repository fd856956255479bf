// Package client talks to a gofish server over its HTTP API and websocket
// event feed. It carries no game logic; the TUI renders whatever the server
// reports.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lox/gofish/internal/server"
)

// Client is a gofish API client
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// New creates a client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger.With().Str("component", "client").Logger(),
	}
}

// APIError is an error response from the server. Code is one of the
// server's error code constants.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string { return e.Message }

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr APIError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
			return &apiErr
		}
		return fmt.Errorf("server returned %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// CreateUser registers a player
func (c *Client) CreateUser(ctx context.Context, name, email string) error {
	body := map[string]string{"name": name, "email": email}
	err := c.do(ctx, http.MethodPost, "/api/users", body, nil)
	// Reconnecting under an existing name is fine.
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code == server.CodePlayerExists {
		return nil
	}
	return err
}

// CreateGame creates (or resumes) a game between two players
func (c *Client) CreateGame(ctx context.Context, player1, player2 string) (server.GameSnapshot, error) {
	body := map[string]string{"player1": player1, "player2": player2}
	var snap server.GameSnapshot
	err := c.do(ctx, http.MethodPost, "/api/games", body, &snap)
	return snap, err
}

// Game fetches a game snapshot
func (c *Client) Game(ctx context.Context, gameID string) (server.GameSnapshot, error) {
	var snap server.GameSnapshot
	err := c.do(ctx, http.MethodGet, "/api/games/"+url.PathEscape(gameID), nil, &snap)
	return snap, err
}

// Guess submits a guess for the named player
func (c *Client) Guess(ctx context.Context, gameID, player, guess string) (server.GuessResolvedData, error) {
	body := map[string]string{"player": player, "guess": guess}
	var resolved server.GuessResolvedData
	err := c.do(ctx, http.MethodPost, "/api/games/"+url.PathEscape(gameID)+"/guess", body, &resolved)
	return resolved, err
}

// Hand fetches one player's hand within a game
func (c *Client) Hand(ctx context.Context, gameID, player string) (server.PlayerSnapshot, error) {
	var hand server.PlayerSnapshot
	path := fmt.Sprintf("/api/games/%s/players/%s/hand", url.PathEscape(gameID), url.PathEscape(player))
	err := c.do(ctx, http.MethodGet, path, nil, &hand)
	return hand, err
}

// ScoreboardEntry mirrors the server's scoreboard rows.
type ScoreboardEntry struct {
	Player string `json:"player"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
}

// Scoreboard fetches the standings
func (c *Client) Scoreboard(ctx context.Context) ([]ScoreboardEntry, error) {
	var entries []ScoreboardEntry
	err := c.do(ctx, http.MethodGet, "/api/scoreboard", nil, &entries)
	return entries, err
}

// Events connects to the websocket feed and delivers messages on the
// returned channel until ctx is cancelled or the connection drops.
func (c *Client) Events(ctx context.Context) (<-chan server.Message, error) {
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", wsURL, err)
	}

	events := make(chan server.Message)
	go func() {
		defer close(events)
		defer conn.Close()
		for {
			var msg server.Message
			if err := conn.ReadJSON(&msg); err != nil {
				c.logger.Debug().Err(err).Msg("Event feed closed")
				return
			}
			select {
			case events <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	return events, nil
}
