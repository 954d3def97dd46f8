package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/codstats/internal/domain/match"
	"github.com/riskibarqy/codstats/internal/platform/logging"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel/attribute"
)

const defaultFetchWorkers = 1

type TargetStatus string

const (
	TargetStatusFetched TargetStatus = "fetched"
	TargetStatusSkipped TargetStatus = "skipped"
	TargetStatusFailed  TargetStatus = "failed"
	TargetStatusAborted TargetStatus = "aborted"
)

// PollTarget is one (game, player) pair of the roster.
type PollTarget struct {
	Game   match.Game
	Player match.PlayerID
}

type PollerConfig struct {
	Targets      []PollTarget
	FetchWorkers int
}

type TargetReport struct {
	Game    match.Game
	Player  match.PlayerID
	Status  TargetStatus
	Matches int
	Error   string
}

// PollReport summarizes one polling cycle.
type PollReport struct {
	CycleID      string
	StartedAt    time.Time
	FinishedAt   time.Time
	Targets      []TargetReport
	SavedPlayers int
}

func (r PollReport) Count(status TargetStatus) int {
	out := 0
	for _, item := range r.Targets {
		if item.Status == status {
			out++
		}
	}
	return out
}

type PollerService struct {
	provider match.HistoryProvider
	store    match.SaveRepository
	targets  []PollTarget
	workers  int
	logger   *logging.Logger
	now      func() time.Time
}

func NewPollerService(provider match.HistoryProvider, store match.SaveRepository, cfg PollerConfig, logger *logging.Logger) *PollerService {
	if logger == nil {
		logger = logging.Default()
	}
	workers := cfg.FetchWorkers
	if workers <= 0 {
		workers = defaultFetchWorkers
	}
	targets := make([]PollTarget, len(cfg.Targets))
	copy(targets, cfg.Targets)

	return &PollerService{
		provider: provider,
		store:    store,
		targets:  targets,
		workers:  workers,
		logger:   logger,
		now:      time.Now,
	}
}

type fetchResult struct {
	matches []match.PlayerMatch
	err     error
	aborted bool
}

// skipped reports whether the target failed in a way the cycle tolerates.
func (r fetchResult) skipped() bool {
	return r.err != nil && IsRecoverableFetch(r.err) && !IsUnrecoverableFetch(r.err)
}

func (r fetchResult) fatal() bool {
	return r.err != nil && !r.aborted && !r.skipped()
}

// Poll fetches every target, then saves the collected matches once per player
// in roster order. A recoverable fetch error skips the target. Any other fetch
// error cancels the remaining fetches and nothing is saved. A storage failure
// stops the cycle at the failing player.
func (s *PollerService) Poll(ctx context.Context) (report PollReport, err error) {
	report = PollReport{
		CycleID:   uuid.NewString(),
		StartedAt: s.now().UTC(),
		Targets:   make([]TargetReport, len(s.targets)),
	}
	ctx, span := startUsecaseSpan(ctx, "usecase.PollerService.Poll",
		attribute.String("codstats.cycle_id", report.CycleID),
		attribute.Int("codstats.targets", len(s.targets)),
	)
	defer func() {
		span.SetAttributes(attribute.Int("codstats.saved_players", report.SavedPlayers))
		endUsecaseSpan(span, err)
	}()

	logger := s.logger.With("cycle_id", report.CycleID)
	logger.InfoContext(ctx, "starting poll cycle", "targets", len(s.targets), "workers", s.workers)

	results, err := s.fetchAll(ctx, logger)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		report.FinishedAt = s.now().UTC()
		return report, err
	}

	var fatalErr error
	for i, target := range s.targets {
		result := results[i]
		item := TargetReport{Game: target.Game, Player: target.Player, Matches: len(result.matches)}
		switch {
		case result.aborted:
			item.Status = TargetStatusAborted
		case result.err == nil:
			item.Status = TargetStatusFetched
		case result.skipped():
			item.Status = TargetStatusSkipped
			item.Error = result.err.Error()
		default:
			item.Status = TargetStatusFailed
			item.Error = result.err.Error()
			if fatalErr == nil {
				fatalErr = result.err
			}
		}
		report.Targets[i] = item
	}
	if fatalErr != nil {
		logger.ErrorContext(ctx, "unrecoverable fetch error occurs, starting shutdown", "error", fatalErr)
		report.FinishedAt = s.now().UTC()
		return report, fatalErr
	}

	order, grouped := groupByPlayer(s.targets, results)
	for _, player := range order {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = s.now().UTC()
			return report, err
		}

		matches := grouped[player]
		if err := s.store.SaveMatchSeries(ctx, player, matches); err != nil {
			if IsStorageConnection(err) {
				logger.WarnContext(ctx, "storage IO error, maybe you will try later?", "player_id", player.String(), "error", err)
			} else {
				logger.ErrorContext(ctx, "save match series failed", "player_id", player.String(), "error", err)
			}
			report.FinishedAt = s.now().UTC()
			return report, err
		}
		report.SavedPlayers++
		logger.DebugContext(ctx, "player matches saved", "player_id", player.String(), "matches", len(matches))
	}

	report.FinishedAt = s.now().UTC()
	logger.InfoContext(ctx, "poll cycle finished",
		"fetched", report.Count(TargetStatusFetched),
		"skipped", report.Count(TargetStatusSkipped),
		"saved_players", report.SavedPlayers,
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)
	return report, nil
}

func (s *PollerService) fetchAll(ctx context.Context, logger *logging.Logger) ([]fetchResult, error) {
	results := make([]fetchResult, len(s.targets))
	if len(s.targets) == 0 {
		return results, nil
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool, err := ants.NewPool(minInt(s.workers, len(s.targets)))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		workers   sync.WaitGroup
		abortOnce sync.Once
	)
	for i, target := range s.targets {
		i, target := i, target
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			var catcher panics.Catcher
			catcher.Try(func() {
				results[i] = s.fetchTarget(fetchCtx, logger, target)
			})
			if recovered := catcher.Recovered(); recovered != nil {
				results[i] = fetchResult{err: fmt.Errorf("fetch %s: %w", target.Player.String(), recovered.AsError())}
			}
			if results[i].fatal() {
				abortOnce.Do(cancel)
			}
		}); err != nil {
			workers.Done()
			cancel()
			workers.Wait()
			return nil, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}
	workers.Wait()

	// Fetches interrupted by an abort are not failures of their own.
	if fetchCtx.Err() != nil && ctx.Err() == nil {
		for i := range results {
			if isCanceled(results[i].err) {
				results[i] = fetchResult{aborted: true}
			}
		}
	}
	return results, nil
}

func (s *PollerService) fetchTarget(ctx context.Context, logger *logging.Logger, target PollTarget) fetchResult {
	if ctx.Err() != nil {
		return fetchResult{aborted: true}
	}

	targetLogger := logger.With("game", target.Game.String(), "player_id", target.Player.String())
	targetLogger.InfoContext(ctx, "fetching player stats")

	matches, err := s.provider.GetRecentMatches(ctx, target.Game, target.Player, nil, nil)
	if err != nil {
		result := fetchResult{err: err}
		if result.skipped() {
			targetLogger.WarnContext(ctx, "skipping player stats due to error", "error", err)
		}
		return result
	}

	targetLogger.InfoContext(ctx, "matches info received", "num_of_matches", len(matches))
	return fetchResult{matches: matches}
}

// groupByPlayer merges the fetched matches of every game per player, keeping
// the order players first appear in the roster.
func groupByPlayer(targets []PollTarget, results []fetchResult) ([]match.PlayerID, map[match.PlayerID][]match.PlayerMatch) {
	order := make([]match.PlayerID, 0, len(targets))
	grouped := make(map[match.PlayerID][]match.PlayerMatch, len(targets))
	for i, target := range targets {
		if results[i].err != nil || results[i].aborted {
			continue
		}
		current, ok := grouped[target.Player]
		if !ok {
			order = append(order, target.Player)
			current = make([]match.PlayerMatch, 0, len(results[i].matches))
		}
		grouped[target.Player] = append(current, results[i].matches...)
	}
	return order, grouped
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
