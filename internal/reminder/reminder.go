// Package reminder periodically nudges players who have an email on file and
// a game waiting on them. The interval sweep mirrors the cron the service
// replaces; the clock is injected so tests can drive it.
package reminder

import (
	"context"
	"slices"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/lox/gofish/internal/directory"
	"github.com/lox/gofish/internal/game"
	"github.com/lox/gofish/internal/store"
)

// Notifier delivers one reminder. Delivery failures are logged by the
// scheduler and never retried within a sweep.
type Notifier interface {
	Notify(ctx context.Context, player directory.Player, activeGames []string) error
}

// LogNotifier writes reminders to the log. Stands in for a mail sender.
type LogNotifier struct {
	Logger zerolog.Logger
}

// Notify logs the reminder
func (n *LogNotifier) Notify(_ context.Context, player directory.Player, activeGames []string) error {
	n.Logger.Info().
		Str("player", player.Name).
		Str("email", player.Email).
		Strs("games", activeGames).
		Msg("You have an active game going!")
	return nil
}

// Scheduler sweeps the directory and store on a fixed interval.
type Scheduler struct {
	directory directory.Directory
	store     store.Store
	notifier  Notifier
	clock     quartz.Clock
	interval  time.Duration
	logger    zerolog.Logger
}

// NewScheduler creates a reminder scheduler
func NewScheduler(dir directory.Directory, st store.Store, notifier Notifier, clock quartz.Clock, interval time.Duration, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		directory: dir,
		store:     st,
		notifier:  notifier,
		clock:     clock,
		interval:  interval,
		logger:    logger.With().Str("component", "reminder").Logger(),
	}
}

// Run sweeps until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep notifies every player with an email and at least one game still in
// progress.
func (s *Scheduler) Sweep(ctx context.Context) {
	type activeGame struct {
		id      string
		players []string
	}
	var games []activeGame
	s.store.ForEach(func(g *game.Game, _ uint64) {
		if g.Over() {
			return
		}
		ag := activeGame{id: g.ID()}
		for _, p := range g.Players() {
			ag.players = append(ag.players, p.Name)
		}
		games = append(games, ag)
	})

	for _, player := range s.directory.List() {
		if player.Email == "" {
			continue
		}

		var active []string
		for _, g := range games {
			if slices.Contains(g.players, player.Name) {
				active = append(active, g.id)
			}
		}

		if len(active) == 0 {
			continue
		}

		if err := s.notifier.Notify(ctx, player, active); err != nil {
			s.logger.Error().Err(err).Str("player", player.Name).Msg("Failed to send reminder")
		}
	}
}
