package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Server  ServerCmd        `cmd:"" help:"Run the Go Fish server"`
	Play    PlayCmd          `cmd:"" help:"Play a game against another player"`
	Scores  ScoresCmd        `cmd:"" help:"Show the scoreboard"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("gofish"),
		kong.Description("Two-player Go Fish card game server"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
