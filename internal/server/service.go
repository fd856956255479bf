package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	rand "math/rand/v2"

	"github.com/rs/zerolog"

	"github.com/lox/gofish/internal/directory"
	"github.com/lox/gofish/internal/game"
	"github.com/lox/gofish/internal/gameid"
	"github.com/lox/gofish/internal/randutil"
	"github.com/lox/gofish/internal/scoreboard"
	"github.com/lox/gofish/internal/store"
)

// ErrGameFinished rejects cancelling a game that already ended.
var ErrGameFinished = errors.New("game is already over; it cannot be cancelled")

// EventSink observes game lifecycle events. Notification is fire-and-forget:
// sinks must not block and their failures never affect the move.
type EventSink interface {
	GameCreated(snapshot GameSnapshot)
	GuessResolved(snapshot GameSnapshot, outcome game.MoveOutcome)
}

// GameService is the caller-facing surface of the engine: it resolves player
// identities, owns game creation and guess resolution against the store, and
// fans events out to the scoreboard and any registered sinks.
type GameService struct {
	store     store.Store
	directory directory.Directory
	scores    scoreboard.Scoreboard
	logger    zerolog.Logger
	defaults  GameSettings

	// Seeds for per-game RNGs are drawn from one master sequence so a
	// fixed server seed reproduces every deal.
	seedMu sync.Mutex
	seeds  *rand.Rand

	sinkMu sync.RWMutex
	sinks  []EventSink
}

// NewGameService creates a new game service
func NewGameService(st store.Store, dir directory.Directory, scores scoreboard.Scoreboard, seed int64, defaults GameSettings, logger zerolog.Logger) *GameService {
	return &GameService{
		store:     st,
		directory: dir,
		scores:    scores,
		logger:    logger.With().Str("component", "game_service").Logger(),
		defaults:  defaults,
		seeds:     randutil.New(seed),
	}
}

// AddSink registers an event sink
func (s *GameService) AddSink(sink EventSink) {
	s.sinkMu.Lock()
	defer s.sinkMu.Unlock()
	s.sinks = append(s.sinks, sink)
}

func (s *GameService) nextSeed() int64 {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()
	return s.seeds.Int64()
}

// viewGame rejects malformed IDs without touching the store, then runs fn
// under the game's lock.
func (s *GameService) viewGame(gameID string, fn func(g *game.Game, version uint64)) error {
	if err := gameid.Validate(gameID); err != nil {
		return store.ErrNotFound
	}
	return s.store.View(gameID, fn)
}

// CreateUser registers a player with a unique name
func (s *GameService) CreateUser(name, email string) (directory.Player, error) {
	p, err := s.directory.Register(name, email)
	if err != nil {
		return directory.Player{}, err
	}
	s.logger.Info().Str("player", p.Name).Msg("Player registered")
	return p, nil
}

// ListUsers returns all registered players
func (s *GameService) ListUsers() []directory.Player {
	return s.directory.List()
}

// CreateGame deals a new game between two registered players. Zero values
// for matchesToWin and cardsDealt select the configured defaults. If the
// pair already has a game in progress that game is returned instead of
// dealing a second one.
func (s *GameService) CreateGame(ctx context.Context, player1, player2 string, matchesToWin, cardsDealt int) (GameSnapshot, error) {
	p1, err := s.directory.Resolve(player1)
	if err != nil {
		return GameSnapshot{}, fmt.Errorf("player %q: %w", player1, err)
	}
	p2, err := s.directory.Resolve(player2)
	if err != nil {
		return GameSnapshot{}, fmt.Errorf("player %q: %w", player2, err)
	}
	if p1.Name == p2.Name {
		return GameSnapshot{}, game.ErrDuplicatePlayers
	}

	if existing, ok := s.activeGameBetween(p1.Name, p2.Name); ok {
		s.logger.Debug().Str("game", existing.ID).Msg("Returning existing active game")
		return existing, nil
	}

	if matchesToWin == 0 {
		matchesToWin = s.defaults.MatchesToWin
	}
	if cardsDealt == 0 {
		cardsDealt = s.defaults.CardsDealt
	}

	id := gameid.New()
	seed := s.nextSeed()
	g, err := game.New(id, p1.Name, p2.Name, matchesToWin, cardsDealt, randutil.New(seed))
	if err != nil {
		return GameSnapshot{}, err
	}
	if err := s.store.Put(g); err != nil {
		return GameSnapshot{}, err
	}

	s.logger.Info().
		Str("game", id).
		Str("player1", p1.Name).
		Str("player2", p2.Name).
		Int("matches_to_win", matchesToWin).
		Int("cards_dealt", cardsDealt).
		Int64("seed", seed).
		Msg("Game created")

	snapshot := snapshotOf(g, 1)
	s.notifyCreated(snapshot)

	// A lucky deal can finish a game before the first guess.
	if snapshot.Status == game.StatusOver {
		s.recordResult(ctx, snapshot)
	}

	return snapshot, nil
}

// activeGameBetween finds an in-progress game seating both players.
func (s *GameService) activeGameBetween(a, b string) (GameSnapshot, bool) {
	var snap GameSnapshot
	var found bool
	s.store.ForEach(func(g *game.Game, version uint64) {
		if found || g.Over() {
			return
		}
		if _, ok := g.PlayerByName(a); !ok {
			return
		}
		if _, ok := g.PlayerByName(b); !ok {
			return
		}
		snap = snapshotOf(g, version)
		found = true
	})
	return snap, found
}

// MakeGuess resolves one guess against a stored game. The whole
// load-apply-commit cycle runs under the game's lock, so concurrent guesses
// against one game serialize.
func (s *GameService) MakeGuess(ctx context.Context, gameID, playerName, rawGuess string) (*game.MoveOutcome, GameSnapshot, error) {
	if err := gameid.Validate(gameID); err != nil {
		return nil, GameSnapshot{}, store.ErrNotFound
	}

	var outcome *game.MoveOutcome
	var snapshot GameSnapshot

	version, err := s.store.Update(gameID, func(g *game.Game) (bool, error) {
		var err error
		outcome, err = g.ResolveGuess(playerName, rawGuess)
		if err != nil {
			return false, err
		}
		snapshot = snapshotOf(g, 0)
		// A rejected guess leaves the game untouched, so the revision
		// stays put.
		return outcome.Result != game.ResultGuessAgain, nil
	})
	if err != nil {
		return nil, GameSnapshot{}, err
	}
	snapshot.Revision = version

	if outcome.Result != game.ResultGuessAgain {
		if err := s.store.AppendMove(gameID, store.MoveRecord{
			Player:   outcome.Player,
			Guess:    outcome.Guess,
			Result:   outcome.Result,
			GameOver: outcome.GameOver,
			Message:  outcome.Message,
			Time:     time.Now(),
		}); err != nil {
			s.logger.Error().Err(err).Str("game", gameID).Msg("Failed to append move record")
		}
	}

	s.logger.Debug().
		Str("game", gameID).
		Str("player", outcome.Player).
		Str("guess", outcome.Guess).
		Str("result", string(outcome.Result)).
		Msg("Guess resolved")

	s.notifyResolved(snapshot, *outcome)

	if outcome.GameOver {
		s.recordResult(ctx, snapshot)
	}

	return outcome, snapshot, nil
}

// Snapshot returns the current state of a game
func (s *GameService) Snapshot(gameID string) (GameSnapshot, error) {
	var snap GameSnapshot
	err := s.viewGame(gameID, func(g *game.Game, version uint64) {
		snap = snapshotOf(g, version)
	})
	if err != nil {
		return GameSnapshot{}, err
	}
	return snap, nil
}

// PlayerHand returns one player's hand within a game
func (s *GameService) PlayerHand(gameID, playerName string) (PlayerSnapshot, error) {
	var hand PlayerSnapshot
	var found bool
	err := s.viewGame(gameID, func(g *game.Game, _ uint64) {
		p, ok := g.PlayerByName(playerName)
		if !ok {
			return
		}
		hand = PlayerSnapshot{
			Name:       p.Name,
			Unmatched:  p.Hand.Unmatched(),
			Matched:    p.Hand.Matched(),
			MatchCount: p.MatchCount,
		}
		found = true
	})
	if err != nil {
		return PlayerSnapshot{}, err
	}
	if !found {
		return PlayerSnapshot{}, game.ErrPlayerNotInGame
	}
	return hand, nil
}

// ListGames returns snapshots of all stored games
func (s *GameService) ListGames() []GameSnapshot {
	snapshots := make([]GameSnapshot, 0)
	s.store.ForEach(func(g *game.Game, version uint64) {
		snapshots = append(snapshots, snapshotOf(g, version))
	})
	return snapshots
}

// UserGames returns snapshots of all games seating the named player.
func (s *GameService) UserGames(playerName string) ([]GameSnapshot, error) {
	p, err := s.directory.Resolve(playerName)
	if err != nil {
		return nil, err
	}

	var snapshots []GameSnapshot
	s.store.ForEach(func(g *game.Game, version uint64) {
		if _, ok := g.PlayerByName(p.Name); !ok {
			return
		}
		snapshots = append(snapshots, snapshotOf(g, version))
	})
	return snapshots, nil
}

// CancelGame deletes an in-progress game and its players. Finished games
// are part of the record and cannot be cancelled.
func (s *GameService) CancelGame(gameID string) error {
	var over bool
	if err := s.viewGame(gameID, func(g *game.Game, _ uint64) {
		over = g.Over()
	}); err != nil {
		return err
	}
	if over {
		return ErrGameFinished
	}

	if err := s.store.Delete(gameID); err != nil {
		return err
	}
	s.logger.Info().Str("game", gameID).Msg("Game cancelled")
	return nil
}

// GameHistory returns a game's move log, oldest first
func (s *GameService) GameHistory(gameID string) ([]store.MoveRecord, error) {
	if err := gameid.Validate(gameID); err != nil {
		return nil, store.ErrNotFound
	}
	return s.store.Moves(gameID)
}

// Rankings returns the scoreboard standings
func (s *GameService) Rankings(ctx context.Context) ([]scoreboard.Entry, error) {
	return s.scores.Rankings(ctx)
}

// recordResult updates the scoreboard for a finished game. Drawn games
// (deck exhaustion) have no winner and leave the standings untouched.
func (s *GameService) recordResult(ctx context.Context, snap GameSnapshot) {
	if snap.Winner == "" {
		return
	}
	if err := s.scores.RecordResult(ctx, snap.Winner, snap.Loser); err != nil {
		s.logger.Error().Err(err).Str("game", snap.ID).Msg("Failed to update scoreboard")
	}
}

func (s *GameService) notifyCreated(snapshot GameSnapshot) {
	s.sinkMu.RLock()
	defer s.sinkMu.RUnlock()
	for _, sink := range s.sinks {
		sink.GameCreated(snapshot)
	}
}

func (s *GameService) notifyResolved(snapshot GameSnapshot, outcome game.MoveOutcome) {
	s.sinkMu.RLock()
	defer s.sinkMu.RUnlock()
	for _, sink := range s.sinks {
		sink.GuessResolved(snapshot, outcome)
	}
}
