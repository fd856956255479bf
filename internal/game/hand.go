package game

import (
	"slices"

	"github.com/lox/gofish/internal/deck"
)

// Hand is one player's cards: the unmatched cards still in play, in the order
// they were received, plus the cards retired through completed pairs.
type Hand struct {
	unmatched []deck.Card
	matched   []deck.Card
}

// NewHand creates an empty hand
func NewHand() *Hand {
	return &Hand{}
}

// Add appends a card to the unmatched sequence
func (h *Hand) Add(card deck.Card) {
	h.unmatched = append(h.unmatched, card)
}

// Remove removes one occurrence of the exact card from the unmatched
// sequence. Returns ErrCardNotFound if the card is absent.
func (h *Hand) Remove(card deck.Card) error {
	for i, c := range h.unmatched {
		if c == card {
			h.unmatched = slices.Delete(h.unmatched, i, i+1)
			return nil
		}
	}
	return ErrCardNotFound
}

// RemoveRank removes and returns the earliest-held card of the given rank.
// The second return is false if the hand holds no card of that rank.
func (h *Hand) RemoveRank(rank deck.Rank) (deck.Card, bool) {
	for i, c := range h.unmatched {
		if c.Rank == rank {
			h.unmatched = slices.Delete(h.unmatched, i, i+1)
			return c, true
		}
	}
	return deck.Card{}, false
}

// DetectAndExtractPairs moves every same-rank pair from the unmatched
// sequence to the matched sequence and returns the number of pairs moved.
//
// The scan is two-phase: indices are grouped by rank over a snapshot of the
// hand, then removals are applied in a single descending batch, so a removal
// can never shift an index out from under the scan. Pairing order follows
// insertion order: the two earliest-held cards of a rank pair first.
func (h *Hand) DetectAndExtractPairs() int {
	byRank := make(map[deck.Rank][]int)
	var rankOrder []deck.Rank
	for i, c := range h.unmatched {
		if _, seen := byRank[c.Rank]; !seen {
			rankOrder = append(rankOrder, c.Rank)
		}
		byRank[c.Rank] = append(byRank[c.Rank], i)
	}

	pairs := 0
	var toRemove []int
	for _, rank := range rankOrder {
		idxs := byRank[rank]
		for len(idxs) >= 2 {
			h.matched = append(h.matched, h.unmatched[idxs[0]], h.unmatched[idxs[1]])
			toRemove = append(toRemove, idxs[0], idxs[1])
			idxs = idxs[2:]
			pairs++
		}
	}

	slices.Sort(toRemove)
	for i := len(toRemove) - 1; i >= 0; i-- {
		h.unmatched = slices.Delete(h.unmatched, toRemove[i], toRemove[i]+1)
	}

	return pairs
}

// AddMatched appends cards won from the opponent to the matched sequence.
func (h *Hand) AddMatched(cards ...deck.Card) {
	h.matched = append(h.matched, cards...)
}

// HasRank returns true if any unmatched card has the given rank
func (h *Hand) HasRank(rank deck.Rank) bool {
	for _, c := range h.unmatched {
		if c.Rank == rank {
			return true
		}
	}
	return false
}

// CountUnmatched returns the number of cards still in play
func (h *Hand) CountUnmatched() int {
	return len(h.unmatched)
}

// Unmatched returns a copy of the cards still in play, in insertion order.
func (h *Hand) Unmatched() []deck.Card {
	out := make([]deck.Card, len(h.unmatched))
	copy(out, h.unmatched)
	return out
}

// Matched returns a copy of the cards retired through pairs.
func (h *Hand) Matched() []deck.Card {
	out := make([]deck.Card, len(h.matched))
	copy(out, h.matched)
	return out
}
