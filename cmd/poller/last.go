package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/riskibarqy/codstats/internal/app"
	"github.com/riskibarqy/codstats/internal/domain/match"
	"github.com/riskibarqy/codstats/internal/interfaces/cli"
)

type lastCmd struct {
	Game   string     `required:"" help:"Game as name:mode, e.g. mw:wz."`
	Player string     `required:"" help:"Player as platform:nickname#id."`
	From   *time.Time `help:"Earliest match start (RFC3339)." format:"2006-01-02T15:04:05Z07:00"`
	Until  *time.Time `help:"Latest match start (RFC3339)." format:"2006-01-02T15:04:05Z07:00"`
	Tail   int        `help:"Skip this many of the most recent matches. Requires --count."`
	Count  int        `help:"Page size when paging back from the most recent match."`
}

func (c *lastCmd) Run(g *Globals) error {
	cfg, logger, err := loadRuntime(g)
	if err != nil {
		return err
	}

	if c.Tail > 0 && c.Count <= 0 {
		return fmt.Errorf("--tail requires --count")
	}
	game, err := match.ParseGame(c.Game)
	if err != nil {
		return err
	}
	player, err := match.ParsePlayerID(c.Player)
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var matches []match.PlayerMatch
	if c.Count > 0 {
		matches, err = store.LoadLastMatchesByOffset(ctx, game, player, c.Tail, c.Count)
	} else {
		matches, err = store.LoadLastMatches(ctx, game, player, c.From, c.Until)
	}
	if err != nil {
		return fmt.Errorf("load matches: %w", err)
	}
	return cli.RenderMatches(os.Stdout, matches)
}
