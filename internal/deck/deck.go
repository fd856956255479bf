package deck

import (
	"errors"

	rand "math/rand/v2"
)

// ErrExhausted is returned by Draw when no cards remain.
var ErrExhausted = errors.New("deck exhausted")

// Deck represents a standard 52-card deck. Cards leave the deck one at a
// time via Draw and never return; draw order is uniformly random over the
// remaining cards.
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// New creates a full 52-card deck drawing with the provided random source.
// The source must not be nil; callers inject a seeded generator so games
// are reproducible.
func New(rng *rand.Rand) *Deck {
	d := &Deck{
		cards: make([]Card, 0, 52),
		rng:   rng,
	}

	for suit := Spades; suit <= Diamonds; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.cards = append(d.cards, NewCard(suit, rank))
		}
	}

	return d
}

// FromCards creates a deck holding exactly the given cards. Used to rig
// deterministic deals in tests.
func FromCards(rng *rand.Rand, cards []Card) *Deck {
	d := &Deck{
		cards: make([]Card, len(cards)),
		rng:   rng,
	}
	copy(d.cards, cards)
	return d
}

// Draw removes and returns a uniformly random card from the remaining deck.
func (d *Deck) Draw() (Card, error) {
	if len(d.cards) == 0 {
		return Card{}, ErrExhausted
	}

	i := d.rng.IntN(len(d.cards))
	card := d.cards[i]
	last := len(d.cards) - 1
	d.cards[i] = d.cards[last]
	d.cards = d.cards[:last]
	return card, nil
}

// DrawN draws up to n cards, stopping early if the deck runs out.
func (d *Deck) DrawN(n int) []Card {
	if n > len(d.cards) {
		n = len(d.cards)
	}

	cards := make([]Card, 0, n)
	for i := 0; i < n; i++ {
		card, err := d.Draw()
		if err != nil {
			break
		}
		cards = append(cards, card)
	}
	return cards
}

// Remaining returns the number of cards left in the deck.
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// IsEmpty returns true if the deck has no cards left.
func (d *Deck) IsEmpty() bool {
	return len(d.cards) == 0
}

// Cards returns a copy of the remaining cards. Used by the card-conservation
// checks; gameplay never inspects deck order.
func (d *Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}
