package game

import (
	"fmt"

	rand "math/rand/v2"

	"github.com/lox/gofish/internal/deck"
)

// State is the serializable form of a Game, used by persistent stores.
type State struct {
	ID           string        `json:"id"`
	Players      []PlayerState `json:"players"`
	Deck         []deck.Card   `json:"deck"`
	Turn         string        `json:"turn,omitempty"`
	MatchesToWin int           `json:"matchesToWin"`
	Status       Status        `json:"status"`
	Winner       string        `json:"winner,omitempty"`
	Loser        string        `json:"loser,omitempty"`
	TotalCards   int           `json:"totalCards"`
}

// PlayerState is the serializable form of one seat.
type PlayerState struct {
	Name       string      `json:"name"`
	Unmatched  []deck.Card `json:"unmatched"`
	Matched    []deck.Card `json:"matched"`
	MatchCount int         `json:"matchCount"`
}

// State captures the full game for serialization.
func (g *Game) State() State {
	players := make([]PlayerState, len(g.players))
	for i, p := range g.players {
		players[i] = PlayerState{
			Name:       p.Name,
			Unmatched:  p.Hand.Unmatched(),
			Matched:    p.Hand.Matched(),
			MatchCount: p.MatchCount,
		}
	}

	return State{
		ID:           g.id,
		Players:      players,
		Deck:         g.deck.Cards(),
		Turn:         g.turn,
		MatchesToWin: g.matchesToWin,
		Status:       g.status,
		Winner:       g.winner,
		Loser:        g.loser,
		TotalCards:   g.totalCards,
	}
}

// FromState rebuilds a game from a serialized State. The rng seeds future
// draws; the card sequence itself is restored exactly. Card conservation is
// validated before the game is returned.
func FromState(s State, rng *rand.Rand) (*Game, error) {
	if len(s.Players) != 2 {
		return nil, fmt.Errorf("state must have exactly 2 players, got %d", len(s.Players))
	}

	g := &Game{
		id:           s.ID,
		deck:         deck.FromCards(rng, s.Deck),
		turn:         s.Turn,
		matchesToWin: s.MatchesToWin,
		status:       s.Status,
		winner:       s.Winner,
		loser:        s.Loser,
		totalCards:   s.TotalCards,
	}

	for i, ps := range s.Players {
		p := NewPlayer(ps.Name)
		p.MatchCount = ps.MatchCount
		p.Hand.unmatched = append(p.Hand.unmatched, ps.Unmatched...)
		p.Hand.matched = append(p.Hand.matched, ps.Matched...)
		g.players[i] = p
	}

	if err := g.ValidateCardConservation(); err != nil {
		return nil, fmt.Errorf("restoring game %s: %w", s.ID, err)
	}
	return g, nil
}
