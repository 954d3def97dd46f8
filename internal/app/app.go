package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/codstats/external/callofduty"
	"github.com/riskibarqy/codstats/internal/config"
	"github.com/riskibarqy/codstats/internal/domain/match"
	"github.com/riskibarqy/codstats/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/codstats/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/codstats/internal/platform/logging"
	"github.com/riskibarqy/codstats/internal/platform/resilience"
	"github.com/riskibarqy/codstats/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

const (
	memoryScheme = "memory://"
	pingTimeout  = 5 * time.Second
)

// Store is an opened match repository plus the resources behind it.
type Store struct {
	match.Repository
	close func() error
}

func (s *Store) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStore opens the repository named by cfg.DB.URI. memory:// selects the
// in-process store, anything else is handed to the postgres driver.
func OpenStore(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.Default()
	}

	if strings.HasPrefix(cfg.DB.URI, memoryScheme) {
		logger.Info("using in-memory match store")
		return &Store{Repository: memory.NewMatchRepository(cfg.DB.MatchLogs)}, nil
	}

	db, err := openDB(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to postgres", "db_name", parsePGTarget(cfg.DB.URI).dbName(), "match_logs", cfg.DB.MatchLogs)

	return &Store{
		Repository: postgres.NewMatchRepository(db, cfg.DB.MatchLogs),
		close:      db.Close,
	}, nil
}

func openDB(ctx context.Context, cfg config.DBConfig) (*sqlx.DB, error) {
	target := parsePGTarget(cfg.URI)
	db, err := otelsqlx.Open("postgres", target.driverDSN(cfg.BinaryParameters),
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(target.dbName()),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, &usecase.StorageIOError{Op: "open database", Err: err}
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, &usecase.StorageIOError{Op: "ping database", Connection: true, Err: err}
	}
	return db, nil
}

// NewPoller wires the Call of Duty client and the save path for one poller.
// The returned close func flushes and closes the match log file when one is
// configured.
func NewPoller(cfg config.Config, store match.SaveRepository, logger *logging.Logger) (*usecase.PollerService, func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	client := callofduty.NewClient(callofduty.ClientConfig{
		BaseURL:     cfg.API.BaseURL,
		AuthCookie:  cfg.API.AuthCookie,
		Timeout:     cfg.API.Timeout,
		MaxRetries:  cfg.API.MaxRetries,
		TrackSource: cfg.API.TrackSource,
		Logger:      logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.API.Circuit.Enabled,
			FailureThreshold: cfg.API.Circuit.FailureCount,
			OpenTimeout:      cfg.API.Circuit.OpenTimeout,
			HalfOpenMaxReq:   cfg.API.Circuit.HalfOpenMaxReq,
		},
	})

	var provider match.HistoryProvider = client
	if cfg.API.NotFoundTTL > 0 {
		provider = usecase.NewNotFoundGuard(client, cfg.API.NotFoundTTL, logger)
	}

	saver := store
	closeFn := func() error { return nil }
	if path := strings.TrimSpace(cfg.DB.LogFile); path != "" {
		fileLogger, err := logging.NewFile(path, logging.LevelInfo)
		if err != nil {
			return nil, nil, err
		}
		saver = usecase.NewMatchLogSaver(store, fileLogger)
		closeFn = fileLogger.Close
	}

	service := usecase.NewPollerService(provider, saver, usecase.PollerConfig{
		Targets:      pollTargets(cfg.Targets),
		FetchWorkers: cfg.Poller.FetchWorkers,
	}, logger)
	return service, closeFn, nil
}

func pollTargets(targets []config.Target) []usecase.PollTarget {
	out := make([]usecase.PollTarget, 0, len(targets))
	for _, target := range targets {
		out = append(out, usecase.PollTarget{Game: target.Game, Player: target.Player})
	}
	return out
}

// DescribeStore renders the store target without credentials for logs.
func DescribeStore(uri string) string {
	if strings.HasPrefix(uri, memoryScheme) {
		return memoryScheme
	}
	if name := parsePGTarget(uri).dbName(); name != "" {
		return fmt.Sprintf("postgres/%s", name)
	}
	return "postgres"
}
