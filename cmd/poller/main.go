// Package main implements the poller CLI that ingests Call of Duty match
// history into the match store.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/riskibarqy/codstats/internal/config"
	"github.com/riskibarqy/codstats/internal/platform/logging"
	"github.com/riskibarqy/codstats/internal/usecase"
)

const (
	exitOK       = 0
	exitFatal    = 1
	exitTempFail = 75
)

// Globals are shared by every subcommand.
type Globals struct {
	Settings string `help:"Settings file (yaml, json or toml)." type:"path" env:"CST_SETTINGS_PATH"`
}

type pollerCLI struct {
	Globals

	Run  runCmd  `cmd:"" default:"1" help:"Poll every configured player once, or on a cron schedule."`
	Last lastCmd `cmd:"" help:"Print stored matches of one player."`
}

func main() {
	c := &pollerCLI{}
	kctx := kong.Parse(c,
		kong.Name("poller"),
		kong.Description("Call of Duty match history poller."),
		kong.UsageOnError(),
	)

	err := kctx.Run(&c.Globals)
	if err != nil {
		fmt.Fprintf(os.Stderr, "poller: %v\n", err)
	}
	_ = logging.Default().Sync()
	os.Exit(exitCode(err))
}

// exitCode maps a command error to the process status. Lost database
// connections use EX_TEMPFAIL so supervisors can retry later.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case usecase.IsStorageConnection(err):
		return exitTempFail
	default:
		return exitFatal
	}
}

func loadRuntime(g *Globals) (config.Config, *logging.Logger, error) {
	cfg, err := config.Load(g.Settings)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	logger := logging.NewJSON(cfg.LogLevel).With(
		"service", cfg.ServiceName,
		"version", cfg.ServiceVersion,
		"env", cfg.Env,
	)
	logging.SetDefault(logger)
	return cfg, logger, nil
}

var errScheduleStopped = errors.New("scheduled polling stopped")
