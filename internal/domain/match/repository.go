package match

import (
	"context"
	"time"
)

// SaveRepository persists match series idempotently by match id.
type SaveRepository interface {
	SaveMatchSeries(ctx context.Context, player PlayerID, matches []PlayerMatch) error
}

// LoadRepository reads stored matches by natural keys.
type LoadRepository interface {
	LoadLastMatches(ctx context.Context, game Game, player PlayerID, from, until *time.Time) ([]PlayerMatch, error)
	LoadLastMatchesByOffset(ctx context.Context, game Game, player PlayerID, tailIndex, count int) ([]PlayerMatch, error)
}

type Repository interface {
	SaveRepository
	LoadRepository
}

// HistoryProvider fetches the recent matches of a player from upstream.
// Nil bounds leave the window to the upstream default.
type HistoryProvider interface {
	GetRecentMatches(ctx context.Context, game Game, player PlayerID, from, until *time.Time) ([]PlayerMatch, error)
}
