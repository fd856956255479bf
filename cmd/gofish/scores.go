package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"github.com/lox/gofish/cmd/gofish/shared"
	"github.com/lox/gofish/internal/client"
)

// ScoresCmd prints the server scoreboard
type ScoresCmd struct {
	Server string `kong:"default='http://localhost:8080',help='Server URL'"`
}

func (c *ScoresCmd) Run() error {
	ctx := shared.SetupSignalHandler()
	api := client.New(c.Server, zerolog.Nop())

	entries, err := api.Scoreboard(ctx)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("No games played yet")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tPLAYER\tWINS\tLOSSES")
	for i, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\n", i+1, e.Player, e.Wins, e.Losses)
	}
	return w.Flush()
}
