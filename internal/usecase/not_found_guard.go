package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/codstats/internal/domain/match"
	"github.com/riskibarqy/codstats/internal/platform/cache"
	"github.com/riskibarqy/codstats/internal/platform/logging"
)

// NotFoundGuard remembers players upstream reported as unknown and answers
// for them without a request until the entry expires.
type NotFoundGuard struct {
	inner  match.HistoryProvider
	misses *cache.Store[error]
	logger *logging.Logger
}

func NewNotFoundGuard(inner match.HistoryProvider, ttl time.Duration, logger *logging.Logger) *NotFoundGuard {
	if logger == nil {
		logger = logging.Default()
	}
	return &NotFoundGuard{
		inner:  inner,
		misses: cache.NewStore[error](ttl),
		logger: logger,
	}
}

func (g *NotFoundGuard) GetRecentMatches(ctx context.Context, game match.Game, player match.PlayerID, from, until *time.Time) ([]match.PlayerMatch, error) {
	key := game.String() + "|" + player.String()
	if cached, ok := g.misses.Get(key); ok {
		g.logger.DebugContext(ctx, "player not found, cached", "game", game.String(), "player_id", player.String())
		return nil, cached
	}

	matches, err := g.inner.GetRecentMatches(ctx, game, player, from, until)
	if err != nil && IsPlayerNotFound(err) {
		g.misses.Set(key, err)
	}
	return matches, err
}
