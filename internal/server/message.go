package server

import (
	"encoding/json"
	"time"

	"github.com/lox/gofish/internal/deck"
	"github.com/lox/gofish/internal/game"
)

// MessageType identifies a websocket event
type MessageType string

const (
	TypeGameCreated   MessageType = "game_created"
	TypeGuessResolved MessageType = "guess_resolved"
	TypeGameOver      MessageType = "game_over"
	TypeError         MessageType = "error"
)

// Message is the websocket event envelope
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// PlayerSnapshot is one player's visible state within a game snapshot.
type PlayerSnapshot struct {
	Name       string      `json:"name"`
	Unmatched  []deck.Card `json:"unmatched"`
	Matched    []deck.Card `json:"matched"`
	MatchCount int         `json:"matchCount"`
}

// GameSnapshot is the full observable state of a game at one revision.
type GameSnapshot struct {
	ID            string           `json:"id"`
	Players       []PlayerSnapshot `json:"players"`
	Turn          string           `json:"turn,omitempty"`
	Status        game.Status      `json:"status"`
	Winner        string           `json:"winner,omitempty"`
	Loser         string           `json:"loser,omitempty"`
	MatchesToWin  int              `json:"matchesToWin"`
	DeckRemaining int              `json:"deckRemaining"`
	Revision      uint64           `json:"revision"`
}

func snapshotOf(g *game.Game, revision uint64) GameSnapshot {
	players := g.Players()
	snaps := make([]PlayerSnapshot, len(players))
	for i, p := range players {
		snaps[i] = PlayerSnapshot{
			Name:       p.Name,
			Unmatched:  p.Hand.Unmatched(),
			Matched:    p.Hand.Matched(),
			MatchCount: p.MatchCount,
		}
	}

	return GameSnapshot{
		ID:            g.ID(),
		Players:       snaps,
		Turn:          g.Turn(),
		Status:        g.Status(),
		Winner:        g.Winner(),
		Loser:         g.Loser(),
		MatchesToWin:  g.MatchesToWin(),
		DeckRemaining: g.DeckRemaining(),
		Revision:      revision,
	}
}

// GuessResolvedData is broadcast after every resolved guess.
type GuessResolvedData struct {
	Outcome game.MoveOutcome `json:"outcome"`
	Game    GameSnapshot     `json:"game"`
}

// GameOverData is broadcast when a game terminates.
type GameOverData struct {
	Game   GameSnapshot `json:"game"`
	Winner string       `json:"winner,omitempty"`
	Loser  string       `json:"loser,omitempty"`
	Drawn  bool         `json:"drawn"`
}
