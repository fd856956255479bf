// Package scoreboard keeps rolling win-loss standings across finished games.
// It is a fire-and-forget sink: the engine never depends on it and a failed
// update is logged, not surfaced.
package scoreboard

import (
	"context"
	"sort"
	"sync"
)

// Entry is one player's standing.
type Entry struct {
	Player string `json:"player"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
}

// Scoreboard records results and serves rankings. Rankings order by fewest
// losses, most wins breaking ties.
type Scoreboard interface {
	RecordResult(ctx context.Context, winner, loser string) error
	Rankings(ctx context.Context) ([]Entry, error)
}

// Memory is the in-process Scoreboard.
type Memory struct {
	mu     sync.RWMutex
	wins   map[string]int
	losses map[string]int
}

// NewMemory creates an empty in-memory scoreboard
func NewMemory() *Memory {
	return &Memory{
		wins:   make(map[string]int),
		losses: make(map[string]int),
	}
}

// RecordResult credits a win and a loss
func (m *Memory) RecordResult(_ context.Context, winner, loser string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wins[winner]++
	m.losses[loser]++
	return nil
}

// Rankings returns standings ordered by fewest losses
func (m *Memory) Rankings(_ context.Context) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make(map[string]bool)
	for n := range m.wins {
		names[n] = true
	}
	for n := range m.losses {
		names[n] = true
	}

	entries := make([]Entry, 0, len(names))
	for n := range names {
		entries = append(entries, Entry{Player: n, Wins: m.wins[n], Losses: m.losses[n]})
	}
	sortEntries(entries)
	return entries, nil
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Losses != entries[j].Losses {
			return entries[i].Losses < entries[j].Losses
		}
		if entries[i].Wins != entries[j].Wins {
			return entries[i].Wins > entries[j].Wins
		}
		return entries[i].Player < entries[j].Player
	})
}
