package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lox/gofish/cmd/gofish/shared"
	"github.com/lox/gofish/internal/client"
	"github.com/lox/gofish/internal/tui"
)

// PlayCmd connects to a server and plays one game interactively
type PlayCmd struct {
	Server   string `kong:"default='http://localhost:8080',help='Server URL'"`
	Name     string `kong:"required,help='Your player name'"`
	Email    string `kong:"help='Email for game reminders (optional)'"`
	Opponent string `kong:"required,help='Opponent player name'"`
	LogFile  string `kong:"help='Write client logs to this file'"`
	Debug    bool   `kong:"help='Enable debug logging'"`
}

func (c *PlayCmd) Run() error {
	// The TUI owns the terminal, so logs go to a file or nowhere.
	logger := zerolog.Nop()
	if c.LogFile != "" {
		var err error
		logger, err = shared.FileLogger(c.LogFile, c.Debug)
		if err != nil {
			return err
		}
	}

	ctx := shared.SetupSignalHandler()
	api := client.New(c.Server, logger)

	if err := api.CreateUser(ctx, c.Name, c.Email); err != nil {
		return fmt.Errorf("registering %s: %w", c.Name, err)
	}

	snapshot, err := api.CreateGame(ctx, c.Name, c.Opponent)
	if err != nil {
		return fmt.Errorf("creating game: %w", err)
	}

	return tui.Run(ctx, api, snapshot, c.Name, logger)
}
