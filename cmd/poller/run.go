package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/riskibarqy/codstats/internal/app"
	"github.com/riskibarqy/codstats/internal/interfaces/cli"
	"github.com/riskibarqy/codstats/internal/observability"
	"github.com/riskibarqy/codstats/internal/platform/logging"
	"github.com/riskibarqy/codstats/internal/usecase"
	"github.com/robfig/cron/v3"
)

const shutdownTimeout = 10 * time.Second

type runCmd struct {
	Schedule string `help:"Cron expression. When set, keep polling on every tick until interrupted."`
}

func (c *runCmd) Run(g *Globals) error {
	cfg, logger, err := loadRuntime(g)
	if err != nil {
		return err
	}
	if err := cfg.RequireAPI(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return fmt.Errorf("init uptrace: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("shutdown uptrace failed", "error", err)
		}
	}()

	store, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close store failed", "error", err)
		}
	}()

	poller, closeMatchLog, err := app.NewPoller(cfg, store, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeMatchLog() }()

	schedule := strings.TrimSpace(c.Schedule)
	if schedule == "" {
		schedule = cfg.Poller.Schedule
	}
	logger.Info("poller starting",
		"store", app.DescribeStore(cfg.DB.URI),
		"targets", len(cfg.Targets),
		"schedule", schedule,
	)

	if schedule == "" {
		return pollOnce(ctx, poller)
	}

	stopProfiling, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		return fmt.Errorf("init pyroscope: %w", err)
	}
	defer func() { _ = stopProfiling() }()

	return pollOnSchedule(ctx, schedule, poller, logger)
}

func pollOnce(ctx context.Context, poller *usecase.PollerService) error {
	report, err := poller.Poll(ctx)
	if renderErr := cli.RenderPollReport(os.Stdout, report); renderErr != nil && err == nil {
		err = renderErr
	}
	return err
}

// pollOnSchedule runs one cycle per cron tick. Lost database connections are
// left for the next tick, any other failure stops the scheduler.
func pollOnSchedule(ctx context.Context, schedule string, poller *usecase.PollerService, logger *logging.Logger) error {
	fatal := make(chan error, 1)
	scheduler := cron.New(cron.WithChain(
		cron.Recover(cronLogger{logger}),
		cron.SkipIfStillRunning(cronLogger{logger}),
	))

	_, err := scheduler.AddFunc(schedule, func() {
		err := pollOnce(ctx, poller)
		switch {
		case err == nil:
		case usecase.IsStorageConnection(err):
			logger.Warn("poll cycle postponed", "error", err)
		case ctx.Err() != nil:
		default:
			select {
			case fatal <- err:
			default:
			}
		}
	})
	if err != nil {
		return fmt.Errorf("schedule poller %q: %w", schedule, err)
	}

	scheduler.Start()
	logger.Info("scheduled polling started", "schedule", schedule)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-fatal:
		logger.Error("scheduled polling aborted", "error", runErr)
		runErr = fmt.Errorf("%w: %w", errScheduleStopped, runErr)
	}

	stopped := scheduler.Stop()
	select {
	case <-stopped.Done():
	case <-time.After(shutdownTimeout):
		logger.Warn("poll cycle still running at shutdown")
	}
	return runErr
}

// cronLogger adapts the application logger to cron.Logger.
type cronLogger struct {
	logger *logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
