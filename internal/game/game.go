package game

import (
	"errors"
	"fmt"

	rand "math/rand/v2"

	"github.com/lox/gofish/internal/deck"
)

// Defaults applied by the service layer when a caller omits the options.
const (
	DefaultMatchesToWin = 6
	DefaultCardsDealt   = 5
)

// Status represents the game lifecycle state
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusOver       Status = "over"
)

// Game is the authoritative state of one two-player match: two hands, the
// remaining deck, whose turn it is, and the win target. All mutation goes
// through ResolveGuess; once Status is over the game never changes again.
type Game struct {
	id           string
	players      [2]*Player
	deck         *deck.Deck
	turn         string
	matchesToWin int
	status       Status
	winner       string
	loser        string
	totalCards   int
}

// Option adjusts game construction. Only tests use options today.
type Option func(*Game)

// WithDeck replaces the standard 52-card deck, letting tests rig the deal.
func WithDeck(d *deck.Deck) Option {
	return func(g *Game) {
		g.deck = d
	}
}

// New deals a fresh game. Each player receives cardsDealt cards, natural
// pairs are extracted from both hands, and the win condition is evaluated
// before the first guess (a lucky deal can end the game immediately; player
// A is checked first). Player A holds the opening turn.
func New(id, playerA, playerB string, matchesToWin, cardsDealt int, rng *rand.Rand, opts ...Option) (*Game, error) {
	if playerA == "" || playerB == "" {
		return nil, ErrInvalidPlayer
	}
	if playerA == playerB {
		return nil, ErrDuplicatePlayers
	}
	if matchesToWin < 1 {
		return nil, fmt.Errorf("matches to win must be at least 1, got %d", matchesToWin)
	}

	g := &Game{
		id:           id,
		players:      [2]*Player{NewPlayer(playerA), NewPlayer(playerB)},
		deck:         deck.New(rng),
		matchesToWin: matchesToWin,
		status:       StatusInProgress,
		turn:         playerA,
	}

	for _, opt := range opts {
		opt(g)
	}

	g.totalCards = g.deck.Remaining()
	if cardsDealt < 1 || cardsDealt*2 > g.totalCards {
		return nil, fmt.Errorf("cards dealt must be between 1 and %d, got %d", g.totalCards/2, cardsDealt)
	}

	for i := 0; i < cardsDealt; i++ {
		for _, p := range g.players {
			card, err := g.deck.Draw()
			if err != nil {
				return nil, fmt.Errorf("dealing to %s: %w", p.Name, err)
			}
			p.Hand.Add(card)
		}
	}

	for _, p := range g.players {
		p.MatchCount += p.Hand.DetectAndExtractPairs()
	}

	// Seat order is the tie-break: if the deal satisfies both win
	// conditions, player A wins.
	for _, p := range g.players {
		if p.IsOutOfPlay(matchesToWin) {
			g.end(p)
			break
		}
	}

	return g, nil
}

// ID returns the opaque game identifier
func (g *Game) ID() string { return g.id }

// Players returns both seated players, seat order preserved.
func (g *Game) Players() [2]*Player { return g.players }

// Turn returns the name of the player to move, or "" once the game is over.
func (g *Game) Turn() string { return g.turn }

// Status returns the lifecycle state
func (g *Game) Status() Status { return g.status }

// Over returns true once the game has ended
func (g *Game) Over() bool { return g.status == StatusOver }

// Winner returns the winner's name, or "" while in progress or after a
// drawn game.
func (g *Game) Winner() string { return g.winner }

// Loser returns the loser's name, or "" while in progress or after a
// drawn game.
func (g *Game) Loser() string { return g.loser }

// MatchesToWin returns the pair target
func (g *Game) MatchesToWin() int { return g.matchesToWin }

// DeckRemaining returns how many cards are left to draw
func (g *Game) DeckRemaining() int { return g.deck.Remaining() }

// PlayerByName resolves a seated player by name.
func (g *Game) PlayerByName(name string) (*Player, bool) {
	for _, p := range g.players {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

func (g *Game) opponentOf(name string) *Player {
	if g.players[0].Name == name {
		return g.players[1]
	}
	return g.players[0]
}

// ResolveGuess applies one guess by the named player and returns the
// outcome. Rejections (wrong turn, unknown player, finished game) return an
// error and leave the game untouched; a guess for a rank the player does not
// hold is a normal guess-again outcome, also without mutation.
func (g *Game) ResolveGuess(actingPlayer, rawGuess string) (*MoveOutcome, error) {
	if g.status == StatusOver {
		return nil, ErrGameOver
	}

	acting, ok := g.PlayerByName(actingPlayer)
	if !ok {
		return nil, ErrPlayerNotInGame
	}
	if actingPlayer != g.turn {
		return nil, &NotPlayersTurnError{Turn: g.turn}
	}

	rank, normalized, valid := ParseGuess(rawGuess)
	if !valid || !acting.Hand.HasRank(rank) {
		return &MoveOutcome{
			Player:  actingPlayer,
			Guess:   normalized,
			Result:  ResultGuessAgain,
			Message: fmt.Sprintf("You have no %s in your hand, guess again", normalized),
		}, nil
	}

	opponent := g.opponentOf(actingPlayer)

	var outcome *MoveOutcome
	if opponent.Hand.HasRank(rank) {
		outcome = g.resolveMatch(acting, opponent, rank)
	} else {
		outcome = g.resolveGoFish(acting, opponent, rank)
	}

	if err := g.ValidateCardConservation(); err != nil {
		return nil, fmt.Errorf("card conservation violation: %w", err)
	}
	return outcome, nil
}

// resolveMatch moves one card of the rank out of each hand into the acting
// player's matched pile. The turn stays with the acting player unless the
// match wins the game. Both hands mutated, so both win conditions are
// checked, seat order first: when a single match satisfies both at once the
// earlier seat wins.
func (g *Game) resolveMatch(acting, opponent *Player, rank deck.Rank) *MoveOutcome {
	own, _ := acting.Hand.RemoveRank(rank)
	theirs, _ := opponent.Hand.RemoveRank(rank)
	acting.Hand.AddMatched(own, theirs)
	acting.MatchCount++

	outcome := &MoveOutcome{
		Player:   acting.Name,
		Guess:    rank.String(),
		Result:   ResultMatch,
		PairsWon: 1,
	}

	for _, p := range g.players {
		if p.IsOutOfPlay(g.matchesToWin) {
			g.end(p)
			outcome.GameOver = true
			outcome.Winner = g.winner
			outcome.Loser = g.loser
			outcome.Message = fmt.Sprintf("Match! Game over, %s is the winner", g.winner)
			return outcome
		}
	}

	outcome.Message = fmt.Sprintf("Match! %s guesses again", acting.Name)
	return outcome
}

// resolveGoFish draws a card for the acting player, extracts any pair the
// draw completed, and passes the turn. An empty deck ends the game as a
// draw with no winner.
func (g *Game) resolveGoFish(acting, opponent *Player, rank deck.Rank) *MoveOutcome {
	card, err := g.deck.Draw()
	if errors.Is(err, deck.ErrExhausted) {
		g.endInDraw()
		return &MoveOutcome{
			Player:   acting.Name,
			Guess:    rank.String(),
			Result:   ResultDeckExhausted,
			GameOver: true,
			Message:  "Go fish! The deck is exhausted, game ends in a draw",
		}
	}

	acting.Hand.Add(card)
	pairs := acting.Hand.DetectAndExtractPairs()
	acting.MatchCount += pairs

	outcome := &MoveOutcome{
		Player:   acting.Name,
		Guess:    rank.String(),
		Result:   ResultGoFish,
		Drawn:    &card,
		PairsWon: pairs,
	}

	if acting.IsOutOfPlay(g.matchesToWin) {
		g.end(acting)
		outcome.GameOver = true
		outcome.Winner = g.winner
		outcome.Loser = g.loser
		outcome.Message = fmt.Sprintf("Go fish! Game over, %s is the winner", g.winner)
		return outcome
	}

	g.turn = opponent.Name
	outcome.Message = fmt.Sprintf("Go fish! It is %s's turn", opponent.Name)
	return outcome
}

func (g *Game) end(winner *Player) {
	g.status = StatusOver
	g.turn = ""
	g.winner = winner.Name
	g.loser = g.opponentOf(winner.Name).Name
}

// endInDraw terminates without a winner. Reached only through deck
// exhaustion.
func (g *Game) endInDraw() {
	g.status = StatusOver
	g.turn = ""
}

// ValidateCardConservation checks that the deck and both hands together
// still hold exactly the distinct cards the game was created with.
func (g *Game) ValidateCardConservation() error {
	seen := make(map[deck.Card]int, 52)
	total := 0

	count := func(cards []deck.Card) {
		for _, c := range cards {
			seen[c]++
			total++
		}
	}

	count(g.deck.Cards())
	for _, p := range g.players {
		count(p.Hand.Unmatched())
		count(p.Hand.Matched())
	}

	if total != g.totalCards {
		return fmt.Errorf("expected %d cards in play, found %d", g.totalCards, total)
	}
	for c, n := range seen {
		if n != 1 {
			return fmt.Errorf("card %s appears %d times", c, n)
		}
	}
	return nil
}
