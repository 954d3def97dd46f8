package usecase

import (
	"context"

	"github.com/riskibarqy/codstats/internal/domain/match"
	"github.com/riskibarqy/codstats/internal/platform/cache"
	"github.com/riskibarqy/codstats/internal/platform/logging"
)

// MatchLogSaver logs the source payload of tracked matches once the save
// succeeded. A match is logged at most once per process; untracked matches
// pass through silently.
type MatchLogSaver struct {
	inner  match.SaveRepository
	logger *logging.Logger
	logged *cache.Store[struct{}]
}

func NewMatchLogSaver(inner match.SaveRepository, logger *logging.Logger) *MatchLogSaver {
	if logger == nil {
		logger = logging.Default()
	}
	return &MatchLogSaver{
		inner:  inner,
		logger: logger,
		logged: cache.NewStore[struct{}](0),
	}
}

func (s *MatchLogSaver) SaveMatchSeries(ctx context.Context, player match.PlayerID, matches []match.PlayerMatch) error {
	if err := s.inner.SaveMatchSeries(ctx, player, matches); err != nil {
		return err
	}

	for _, item := range matches {
		if !item.Tracked() {
			continue
		}
		if _, seen := s.logged.Get(item.ID); seen {
			continue
		}
		s.logged.Set(item.ID, struct{}{})
		s.logger.InfoContext(ctx, "match info",
			"match_id", item.ID,
			"player_id", player.String(),
			"game", item.Game.String(),
			"source", string(item.Source.Source),
			"meta", string(item.Source.Meta),
		)
	}
	return nil
}
