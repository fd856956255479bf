package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/gofish/internal/game"
	"github.com/lox/gofish/internal/randutil"
)

func newFileStore(t *testing.T, dir string) *FileStore {
	t.Helper()
	s, err := NewFileStore(dir, 1, zerolog.Nop())
	require.NoError(t, err)
	return s
}

func newStoredGame(t *testing.T, id string) *game.Game {
	t.Helper()
	g, err := game.New(id, "Ann", "Bo", 6, 5, randutil.New(1))
	require.NoError(t, err)
	return g
}

func TestFileStorePersistsAndRestores(t *testing.T) {
	dir := t.TempDir()
	s := newFileStore(t, dir)

	g := newStoredGame(t, "g1")
	require.NoError(t, s.Put(g))
	require.FileExists(t, filepath.Join(dir, "g1.json"))

	// Mutate through Update and log a move.
	turn := g.Turn()
	var guess string
	_, err := s.Update("g1", func(g *game.Game) (bool, error) {
		p, _ := g.PlayerByName(turn)
		guess = p.Hand.Unmatched()[0].Rank.String()
		_, err := g.ResolveGuess(turn, guess)
		return err == nil, err
	})
	require.NoError(t, err)
	require.NoError(t, s.AppendMove("g1", MoveRecord{Player: turn, Guess: guess, Time: time.Now()}))

	// A fresh store over the same directory sees the same game.
	restoredStore := newFileStore(t, dir)
	err = restoredStore.View("g1", func(restored *game.Game, version uint64) {
		assert.Equal(t, uint64(2), version)
		assert.Equal(t, g.Turn(), restored.Turn())
		assert.Equal(t, g.DeckRemaining(), restored.DeckRemaining())

		for i, p := range g.Players() {
			rp := restored.Players()[i]
			assert.Equal(t, p.Name, rp.Name)
			assert.Equal(t, p.Hand.Unmatched(), rp.Hand.Unmatched())
			assert.Equal(t, p.MatchCount, rp.MatchCount)
		}
	})
	require.NoError(t, err)

	moves, err := restoredStore.Moves("g1")
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, guess, moves[0].Guess)
}

func TestFileStoreRestoredGameIsPlayable(t *testing.T) {
	dir := t.TempDir()
	s := newFileStore(t, dir)
	require.NoError(t, s.Put(newStoredGame(t, "g1")))

	restored := newFileStore(t, dir)
	_, err := restored.Update("g1", func(g *game.Game) (bool, error) {
		p, _ := g.PlayerByName(g.Turn())
		_, err := g.ResolveGuess(g.Turn(), p.Hand.Unmatched()[0].Rank.String())
		return err == nil, err
	})
	require.NoError(t, err)
}

func TestFileStoreDeleteRemovesFile(t *testing.T) {
	dir := t.TempDir()
	s := newFileStore(t, dir)

	require.NoError(t, s.Put(newStoredGame(t, "g1")))
	require.NoError(t, s.Delete("g1"))

	assert.NoFileExists(t, filepath.Join(dir, "g1.json"))
	assert.ErrorIs(t, s.Delete("g1"), ErrNotFound)

	restored := newFileStore(t, dir)
	assert.Zero(t, countGames(restored))
}

func TestFileStoreSkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("not json"), 0o644))

	s := newFileStore(t, dir)
	assert.Zero(t, countGames(s))
}

func countGames(s *FileStore) int {
	count := 0
	s.ForEach(func(*game.Game, uint64) { count++ })
	return count
}

func TestFileStoreSkipsRewriteWhenUncommitted(t *testing.T) {
	dir := t.TempDir()
	s := newFileStore(t, dir)
	require.NoError(t, s.Put(newStoredGame(t, "g1")))

	version, err := s.Update("g1", func(g *game.Game) (bool, error) { return false, nil })
	require.NoError(t, err)
	assert.Equal(t, uint64(1), version)

	restored := newFileStore(t, dir)
	err = restored.View("g1", func(_ *game.Game, v uint64) {
		assert.Equal(t, uint64(1), v)
	})
	require.NoError(t, err)
}
