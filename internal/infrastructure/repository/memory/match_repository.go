package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/codstats/internal/domain/match"
)

type storedMatch struct {
	player match.PlayerID
	item   match.PlayerMatch
}

// MatchRepository keeps matches in process memory with the same save and
// load semantics as the postgres store.
type MatchRepository struct {
	mu        sync.RWMutex
	matchLogs bool
	players   map[match.PlayerID]struct{}
	games     map[match.Game]struct{}
	matches   map[string]storedMatch
	logs      map[string]match.SourceMetadata
}

func NewMatchRepository(matchLogs bool) *MatchRepository {
	return &MatchRepository{
		matchLogs: matchLogs,
		players:   make(map[match.PlayerID]struct{}),
		games:     make(map[match.Game]struct{}),
		matches:   make(map[string]storedMatch),
		logs:      make(map[string]match.SourceMetadata),
	}
}

func (r *MatchRepository) SaveMatchSeries(_ context.Context, player match.PlayerID, matches []match.PlayerMatch) error {
	for _, item := range matches {
		if err := item.Validate(); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.players[player] = struct{}{}
	for _, item := range matches {
		r.games[item.Game] = struct{}{}
	}

	for _, item := range matches {
		if _, ok := r.matches[item.ID]; ok {
			continue
		}
		stored := cloneMatch(item)
		stored.Source = nil
		r.matches[item.ID] = storedMatch{player: player, item: stored}

		if r.matchLogs && item.Tracked() {
			r.logs[item.ID] = match.SourceMetadata{
				Source: append([]byte(nil), item.Source.Source...),
				Meta:   append([]byte(nil), item.Source.Meta...),
			}
		}
	}

	return nil
}

func (r *MatchRepository) LoadLastMatches(_ context.Context, game match.Game, player match.PlayerID, from, until *time.Time) ([]match.PlayerMatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := r.selectLocked(game, player, func(item match.PlayerMatch) bool {
		if from != nil && item.Start.Before(*from) {
			return false
		}
		if until != nil && item.Start.After(*until) {
			return false
		}
		return true
	})
	return out, nil
}

func (r *MatchRepository) LoadLastMatchesByOffset(_ context.Context, game match.Game, player match.PlayerID, tailIndex, count int) ([]match.PlayerMatch, error) {
	if tailIndex < 0 || count < 0 {
		return nil, fmt.Errorf("%w: tail index and count must not be negative", match.ErrInvalidRange)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.selectLocked(game, player, func(match.PlayerMatch) bool { return true })
	end := len(all) - tailIndex
	if end <= 0 || count == 0 {
		return []match.PlayerMatch{}, nil
	}
	start := end - count
	if start < 0 {
		start = 0
	}
	return all[start:end], nil
}

// MatchLog returns the stored provenance of a match.
func (r *MatchRepository) MatchLog(matchID string) (match.SourceMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.logs[matchID]
	return item, ok
}

func (r *MatchRepository) selectLocked(game match.Game, player match.PlayerID, keep func(match.PlayerMatch) bool) []match.PlayerMatch {
	out := make([]match.PlayerMatch, 0)
	for _, stored := range r.matches {
		if stored.player != player || stored.item.Game != game {
			continue
		}
		if !keep(stored.item) {
			continue
		}
		out = append(out, cloneMatch(stored.item))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].ID < out[j].ID
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

func cloneMatch(item match.PlayerMatch) match.PlayerMatch {
	out := item
	out.Start = item.Start.UTC()
	out.End = item.End.UTC()
	out.Stats.KillstreaksUsed = append([]string{}, item.Stats.KillstreaksUsed...)
	out.WeaponStats = append([]match.WeaponStats{}, item.WeaponStats...)
	if item.BRStats != nil {
		br := *item.BRStats
		out.BRStats = &br
	}
	return out
}
