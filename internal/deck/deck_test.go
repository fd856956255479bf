package deck

import (
	"testing"

	"github.com/lox/gofish/internal/randutil"
)

func TestNewDeckHasAllCards(t *testing.T) {
	d := New(randutil.New(1))

	if d.Remaining() != 52 {
		t.Fatalf("expected 52 cards, got %d", d.Remaining())
	}

	seen := make(map[Card]bool)
	for _, c := range d.Cards() {
		if seen[c] {
			t.Errorf("duplicate card %s", c)
		}
		seen[c] = true
	}
	if len(seen) != 52 {
		t.Errorf("expected 52 distinct cards, got %d", len(seen))
	}
}

func TestDrawRemoves(t *testing.T) {
	d := New(randutil.New(42))

	drawn := make(map[Card]bool)
	for i := 0; i < 52; i++ {
		card, err := d.Draw()
		if err != nil {
			t.Fatalf("draw %d: %v", i, err)
		}
		if drawn[card] {
			t.Errorf("card %s drawn twice", card)
		}
		drawn[card] = true
	}

	if !d.IsEmpty() {
		t.Errorf("deck should be empty, has %d cards", d.Remaining())
	}

	if _, err := d.Draw(); err != ErrExhausted {
		t.Errorf("expected ErrExhausted, got %v", err)
	}
}

func TestDrawDeterministicWithSeed(t *testing.T) {
	a := New(randutil.New(7))
	b := New(randutil.New(7))

	for i := 0; i < 52; i++ {
		ca, _ := a.Draw()
		cb, _ := b.Draw()
		if ca != cb {
			t.Fatalf("draw %d diverged: %s vs %s", i, ca, cb)
		}
	}
}

func TestDrawN(t *testing.T) {
	d := New(randutil.New(1))

	cards := d.DrawN(5)
	if len(cards) != 5 {
		t.Errorf("expected 5 cards, got %d", len(cards))
	}
	if d.Remaining() != 47 {
		t.Errorf("expected 47 remaining, got %d", d.Remaining())
	}

	// Asking for more than remain truncates.
	cards = d.DrawN(100)
	if len(cards) != 47 {
		t.Errorf("expected 47 cards, got %d", len(cards))
	}
	if !d.IsEmpty() {
		t.Error("deck should be empty")
	}
}

func TestFromCards(t *testing.T) {
	rig := []Card{NewCard(Spades, King), NewCard(Hearts, King)}
	d := FromCards(randutil.New(1), rig)

	if d.Remaining() != 2 {
		t.Fatalf("expected 2 cards, got %d", d.Remaining())
	}

	first, _ := d.Draw()
	second, _ := d.Draw()
	if first.Rank != King || second.Rank != King {
		t.Errorf("expected two kings, got %s and %s", first, second)
	}
}
