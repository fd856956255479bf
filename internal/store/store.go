// Package store keeps game state between moves. Every game carries a
// revision that increments on each committed mutation, and all access runs
// under the game's lock: Update for mutations, View and ForEach for reads,
// so a snapshot can never observe a half-applied guess. Different games lock
// independently.
package store

import (
	"errors"
	"sync"
	"time"

	"github.com/lox/gofish/internal/game"
)

var (
	// ErrNotFound means no game exists under the given ID.
	ErrNotFound = errors.New("game not found")
	// ErrExists means a game is already stored under the given ID.
	ErrExists = errors.New("game already exists")
)

// MoveRecord is one entry of a game's audit log, recorded for every
// resolved guess.
type MoveRecord struct {
	Player   string      `json:"player"`
	Guess    string      `json:"guess"`
	Result   game.Result `json:"result"`
	GameOver bool        `json:"gameOver"`
	Message  string      `json:"message"`
	Time     time.Time   `json:"time"`
}

// Store is the game repository the service runs against. Implementations
// must make Update an atomic load-apply-commit cycle per game, and must run
// View and ForEach callbacks under the same per-game lock so readers never
// race a concurrent Update. Callbacks must not retain the *game.Game beyond
// the call.
type Store interface {
	// Put inserts a new game at revision 1.
	Put(g *game.Game) error
	// View runs fn against a game and its current revision under the
	// game's lock.
	View(id string, fn func(g *game.Game, version uint64)) error
	// Update applies fn to the stored game under the game's lock. If fn
	// returns an error it is propagated and the revision is not bumped;
	// if fn reports commit=false the game is taken as unchanged and the
	// revision is likewise left alone.
	Update(id string, fn func(*game.Game) (commit bool, err error)) (uint64, error)
	// Delete removes a game and its move log.
	Delete(id string) error
	// ForEach runs fn against every stored game, each under its own lock.
	ForEach(fn func(g *game.Game, version uint64))
	// AppendMove adds an audit entry to a game's move log.
	AppendMove(id string, move MoveRecord) error
	// Moves returns a game's move log, oldest first.
	Moves(id string) ([]MoveRecord, error)
}

type record struct {
	mu      sync.Mutex
	game    *game.Game
	version uint64
	moves   []MoveRecord
}

// MemoryStore is the in-process Store. A RWMutex guards the game index;
// each record carries its own lock so games serialize independently.
type MemoryStore struct {
	mu    sync.RWMutex
	games map[string]*record
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{games: make(map[string]*record)}
}

func (s *MemoryStore) find(id string) (*record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

// Put inserts a new game at revision 1
func (s *MemoryStore) Put(g *game.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[g.ID()]; ok {
		return ErrExists
	}
	s.games[g.ID()] = &record{game: g, version: 1}
	return nil
}

// View runs fn against a game and its revision under the game's lock
func (s *MemoryStore) View(id string, fn func(*game.Game, uint64)) error {
	rec, err := s.find(id)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	fn(rec.game, rec.version)
	return nil
}

// Update applies fn under the game's lock and bumps the revision when fn
// commits
func (s *MemoryStore) Update(id string, fn func(*game.Game) (bool, error)) (uint64, error) {
	rec, err := s.find(id)
	if err != nil {
		return 0, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	commit, err := fn(rec.game)
	if err != nil || !commit {
		return rec.version, err
	}
	rec.version++
	return rec.version, nil
}

// Delete removes a game and its move log
func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[id]; !ok {
		return ErrNotFound
	}
	delete(s.games, id)
	return nil
}

// ForEach runs fn against every stored game, each under its own lock
func (s *MemoryStore) ForEach(fn func(*game.Game, uint64)) {
	s.mu.RLock()
	recs := make([]*record, 0, len(s.games))
	for _, rec := range s.games {
		recs = append(recs, rec)
	}
	s.mu.RUnlock()

	for _, rec := range recs {
		rec.mu.Lock()
		fn(rec.game, rec.version)
		rec.mu.Unlock()
	}
}

// AppendMove adds an audit entry to a game's move log
func (s *MemoryStore) AppendMove(id string, move MoveRecord) error {
	rec, err := s.find(id)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.moves = append(rec.moves, move)
	return nil
}

// Moves returns a copy of a game's move log, oldest first
func (s *MemoryStore) Moves(id string) ([]MoveRecord, error) {
	rec, err := s.find(id)
	if err != nil {
		return nil, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := make([]MoveRecord, len(rec.moves))
	copy(out, rec.moves)
	return out, nil
}
