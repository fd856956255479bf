package game

import "github.com/lox/gofish/internal/deck"

// Result classifies what a resolved guess did.
type Result string

const (
	// ResultMatch means the opponent held the rank; the pair is the acting
	// player's and the turn stays with them.
	ResultMatch Result = "match"
	// ResultGoFish means the opponent did not hold the rank; a card was
	// drawn and the turn passed.
	ResultGoFish Result = "go_fish"
	// ResultGuessAgain means the guess named a rank the acting player does
	// not hold. Nothing changed; this is a prompt, not an error.
	ResultGuessAgain Result = "guess_again"
	// ResultDeckExhausted means a go-fish draw found the deck empty. The
	// game ends as a draw with no winner.
	ResultDeckExhausted Result = "deck_exhausted"
)

// MoveOutcome is the record of one resolved guess.
type MoveOutcome struct {
	Player   string     `json:"player"`
	Guess    string     `json:"guess"`
	Result   Result     `json:"result"`
	Drawn    *deck.Card `json:"drawn,omitempty"`
	PairsWon int        `json:"pairsWon"`
	GameOver bool       `json:"gameOver"`
	Winner   string     `json:"winner,omitempty"`
	Loser    string     `json:"loser,omitempty"`
	Message  string     `json:"message"`
}

// IsMatch reports whether the guess completed at least one pair.
func (o *MoveOutcome) IsMatch() bool {
	return o.Result == ResultMatch
}
