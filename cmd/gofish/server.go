package main

import (
	"context"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lox/gofish/cmd/gofish/shared"
	"github.com/lox/gofish/internal/directory"
	"github.com/lox/gofish/internal/randutil"
	"github.com/lox/gofish/internal/reminder"
	"github.com/lox/gofish/internal/scoreboard"
	"github.com/lox/gofish/internal/server"
	"github.com/lox/gofish/internal/store"
)

// ServerCmd contains core server configuration
type ServerCmd struct {
	Config string `kong:"default='gofish.hcl',help='Path to HCL config file'"`
	Addr   string `kong:"help='Server address, overrides config'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
	Seed   *int64 `kong:"help='Deterministic RNG seed for the server (optional)'"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := shared.SetupLogger(c.Debug || cfg.Server.LogLevel == "debug")

	var seed int64
	if c.Seed != nil {
		seed = *c.Seed
		logger.Info().Int64("seed", seed).Msg("Using deterministic seed")
	} else {
		seed = randutil.Seed()
		logger.Info().Int64("seed", seed).Msg("Using random seed")
	}

	scores, closeScores, err := buildScoreboard(cfg)
	if err != nil {
		return err
	}
	defer closeScores()

	st, err := buildStore(cfg, seed, logger)
	if err != nil {
		return err
	}
	dir := directory.NewMemoryDirectory()
	svc := server.NewGameService(st, dir, scores, seed, cfg.Game, logger)

	addr := cfg.ListenAddress()
	if c.Addr != "" {
		addr = c.Addr
	}
	srv := server.New(svc, addr, logger)

	logger.Info().
		Str("address", addr).
		Int("matches_to_win", cfg.Game.MatchesToWin).
		Int("cards_dealt", cfg.Game.CardsDealt).
		Bool("redis", cfg.Redis != nil).
		Dur("reminder_interval", cfg.ReminderInterval()).
		Msg("Starting Go Fish server")

	ctx := shared.SetupSignalHandlerWithLogger(logger)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(srv.Start)

	if interval := cfg.ReminderInterval(); interval > 0 {
		notifier := &reminder.LogNotifier{Logger: logger}
		sched := reminder.NewScheduler(dir, st, notifier, quartz.NewReal(), interval, logger)
		g.Go(func() error {
			return sched.Run(ctx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func buildStore(cfg *server.Config, seed int64, logger zerolog.Logger) (store.Store, error) {
	if cfg.Storage == nil {
		return store.NewMemoryStore(), nil
	}
	logger.Info().Str("dir", cfg.Storage.Dir).Msg("Using file-backed game storage")
	return store.NewFileStore(cfg.Storage.Dir, seed, logger)
}

func buildScoreboard(cfg *server.Config) (scoreboard.Scoreboard, func(), error) {
	if cfg.Redis == nil {
		return scoreboard.NewMemory(), func() {}, nil
	}

	r, err := scoreboard.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, err
	}
	return r, func() { r.Close() }, nil
}
