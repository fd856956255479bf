package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	rand "math/rand/v2"

	"github.com/rs/zerolog"

	"github.com/lox/gofish/internal/fileutil"
	"github.com/lox/gofish/internal/game"
	"github.com/lox/gofish/internal/randutil"
)

// gameFile is the on-disk form of one game and its move log.
type gameFile struct {
	State   game.State   `json:"state"`
	Version uint64       `json:"version"`
	Moves   []MoveRecord `json:"moves,omitempty"`
}

// FileStore is a Store that persists every game to a JSON file per game,
// written atomically after each committed mutation. Reads are served from
// memory; the files exist so a restarted server picks up where it left off.
type FileStore struct {
	dir    string
	mem    *MemoryStore
	logger zerolog.Logger

	seedMu sync.Mutex
	seeds  *rand.Rand
}

// NewFileStore opens (or creates) a store directory and loads every game
// found in it. Restored games draw future cards from rngs seeded off seed.
func NewFileStore(dir string, seed int64, logger zerolog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	s := &FileStore{
		dir:    dir,
		mem:    NewMemoryStore(),
		logger: logger.With().Str("component", "filestore").Logger(),
		seeds:  randutil.New(seed),
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var gf gameFile
		if err := json.Unmarshal(data, &gf); err != nil {
			s.logger.Warn().Str("file", entry.Name()).Err(err).Msg("Skipping unreadable game file")
			continue
		}

		s.seedMu.Lock()
		rng := randutil.New(s.seeds.Int64())
		s.seedMu.Unlock()

		g, err := game.FromState(gf.State, rng)
		if err != nil {
			s.logger.Warn().Str("file", entry.Name()).Err(err).Msg("Skipping invalid game file")
			continue
		}

		if err := s.mem.Put(g); err != nil {
			return err
		}
		rec, _ := s.mem.find(g.ID())
		rec.version = gf.Version
		rec.moves = gf.Moves

		s.logger.Debug().Str("game", g.ID()).Uint64("version", gf.Version).Msg("Restored game")
	}
	return nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// persist writes the current record for id. Caller must not hold the
// record's lock.
func (s *FileStore) persist(id string) error {
	rec, err := s.mem.find(id)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	gf := gameFile{
		State:   rec.game.State(),
		Version: rec.version,
		Moves:   rec.moves,
	}
	rec.mu.Unlock()

	return fileutil.WriteJSONAtomic(s.path(id), gf, 0o644)
}

// Put inserts a new game at revision 1 and writes its file
func (s *FileStore) Put(g *game.Game) error {
	if err := s.mem.Put(g); err != nil {
		return err
	}
	return s.persist(g.ID())
}

// View runs fn against a game and its revision under the game's lock
func (s *FileStore) View(id string, fn func(*game.Game, uint64)) error {
	return s.mem.View(id, fn)
}

// Update applies fn under the game's lock, bumps the revision, and rewrites
// the game's file when fn commits.
func (s *FileStore) Update(id string, fn func(*game.Game) (bool, error)) (uint64, error) {
	var committed bool
	version, err := s.mem.Update(id, func(g *game.Game) (bool, error) {
		commit, err := fn(g)
		committed = commit && err == nil
		return commit, err
	})
	if err != nil || !committed {
		return version, err
	}

	if err := s.persist(id); err != nil {
		return version, fmt.Errorf("persisting game %s: %w", id, err)
	}
	return version, nil
}

// Delete removes a game, its move log, and its file
func (s *FileStore) Delete(id string) error {
	if err := s.mem.Delete(id); err != nil {
		return err
	}
	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ForEach runs fn against every stored game, each under its own lock
func (s *FileStore) ForEach(fn func(*game.Game, uint64)) {
	s.mem.ForEach(fn)
}

// AppendMove adds an audit entry and rewrites the game's file
func (s *FileStore) AppendMove(id string, move MoveRecord) error {
	if err := s.mem.AppendMove(id, move); err != nil {
		return err
	}
	return s.persist(id)
}

// Moves returns a game's move log, oldest first
func (s *FileStore) Moves(id string) ([]MoveRecord, error) {
	return s.mem.Moves(id)
}
