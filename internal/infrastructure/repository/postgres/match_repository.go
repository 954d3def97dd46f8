package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/codstats/internal/domain/match"
	qb "github.com/riskibarqy/codstats/internal/platform/querybuilder"
)

const insertChunkSize = 500

type MatchRepository struct {
	db        *sqlx.DB
	matchLogs bool
}

// NewMatchRepository returns a postgres match store. With matchLogs set the
// source payload of tracked matches is written to player_matches_logs.
func NewMatchRepository(db *sqlx.DB, matchLogs bool) *MatchRepository {
	return &MatchRepository{db: db, matchLogs: matchLogs}
}

func (r *MatchRepository) SaveMatchSeries(ctx context.Context, player match.PlayerID, matches []match.PlayerMatch) error {
	for _, item := range matches {
		if err := item.Validate(); err != nil {
			return err
		}
	}

	return r.withTx(ctx, "save match series", func(tx *sqlx.Tx) error {
		playerDBID, err := upsertPlayer(ctx, tx, player)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			return nil
		}

		gameIDs, err := upsertGames(ctx, tx, matches)
		if err != nil {
			return err
		}

		existing, err := existingMatchIDs(ctx, tx, matches)
		if err != nil {
			return err
		}

		fresh := selectNewMatches(matches, existing)
		if len(fresh) == 0 {
			return nil
		}

		if err := insertMatches(ctx, tx, fresh, playerDBID, gameIDs); err != nil {
			return err
		}
		if r.matchLogs {
			if err := insertMatchLogs(ctx, tx, fresh); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *MatchRepository) LoadLastMatches(ctx context.Context, game match.Game, player match.PlayerID, from, until *time.Time) ([]match.PlayerMatch, error) {
	conditions := naturalKeyConditions(game, player)
	if from != nil {
		conditions = append(conditions, qb.Expr("s.start >= ?", from.UTC()))
	}
	if until != nil {
		conditions = append(conditions, qb.Expr("s.start <= ?", until.UTC()))
	}

	query, args, err := qb.Select(matchSelectColumns...).
		From(matchSelectFrom).
		Where(conditions...).
		OrderBy("s.start", "s.id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select last matches query: %w", err)
	}

	return r.loadMatches(ctx, "load last matches", query, args)
}

func (r *MatchRepository) LoadLastMatchesByOffset(ctx context.Context, game match.Game, player match.PlayerID, tailIndex, count int) ([]match.PlayerMatch, error) {
	if tailIndex < 0 || count < 0 {
		return nil, fmt.Errorf("%w: tail index and count must not be negative", match.ErrInvalidRange)
	}
	if count == 0 {
		return []match.PlayerMatch{}, nil
	}

	query, args, err := qb.Select(matchSelectColumns...).
		From(matchSelectFrom).
		Where(naturalKeyConditions(game, player)...).
		OrderBy("s.start DESC", "s.id DESC").
		Limit(count).
		Offset(tailIndex).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select matches by offset query: %w", err)
	}

	out, err := r.loadMatches(ctx, "load last matches by offset", query, args)
	if err != nil {
		return nil, err
	}
	for left, right := 0, len(out)-1; left < right; left, right = left+1, right-1 {
		out[left], out[right] = out[right], out[left]
	}
	return out, nil
}

func (r *MatchRepository) loadMatches(ctx context.Context, op, query string, args []any) ([]match.PlayerMatch, error) {
	var rows []matchSelectRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, storageError(op, fmt.Errorf("select matches: %w", err))
	}
	if len(rows) == 0 {
		return []match.PlayerMatch{}, nil
	}

	out := make([]match.PlayerMatch, 0, len(rows))
	index := make(map[string]int, len(rows))
	ids := make([]any, 0, len(rows))
	for _, row := range rows {
		item, err := fromMatchSelectRow(row)
		if err != nil {
			return nil, fmt.Errorf("decode match %s: %w", row.ID, err)
		}
		index[item.ID] = len(out)
		ids = append(ids, item.ID)
		out = append(out, item)
	}

	weaponQuery, weaponArgs, err := qb.Select("match_id", "name", "hits", "kills", "deaths", "shots", "headshots").
		From(tableWeaponStats).
		Where(qb.In("match_id", ids)).
		OrderBy("match_id", "name").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select weapon stats query: %w", err)
	}
	var weapons []weaponRow
	if err := r.db.SelectContext(ctx, &weapons, weaponQuery, weaponArgs...); err != nil {
		return nil, storageError(op, fmt.Errorf("select weapon stats: %w", err))
	}
	for _, weapon := range weapons {
		pos := index[weapon.MatchID]
		out[pos].WeaponStats = append(out[pos].WeaponStats, fromWeaponRow(weapon))
	}

	brQuery, brArgs, err := qb.Select("match_id", "teams_count", "players_count", "placement").
		From(tableBRStats).
		Where(qb.In("match_id", ids)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select br stats query: %w", err)
	}
	var brRows []brStatsRow
	if err := r.db.SelectContext(ctx, &brRows, brQuery, brArgs...); err != nil {
		return nil, storageError(op, fmt.Errorf("select br stats: %w", err))
	}
	for _, row := range brRows {
		pos := index[row.MatchID]
		out[pos].BRStats = &match.BattleRoyaleStats{
			TeamsCount:   row.TeamsCount,
			PlayersCount: row.PlayersCount,
			Placement:    row.Placement,
		}
	}

	return out, nil
}

// withTx runs fn in one transaction. The deferred rollback is a no-op after
// a successful commit.
func (r *MatchRepository) withTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return storageError(op, fmt.Errorf("begin tx: %w", err))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return storageError(op, err)
	}
	if err := tx.Commit(); err != nil {
		return storageError(op, fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

func upsertPlayer(ctx context.Context, tx *sqlx.Tx, player match.PlayerID) (int64, error) {
	query, args, err := qb.InsertModel(tablePlayers, toPlayerRow(player), "ON CONFLICT (platform, id, nickname) DO NOTHING")
	if err != nil {
		return 0, fmt.Errorf("build upsert player query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("upsert player %s: %w", player, err)
	}

	query, args, err = qb.Select("db_id").From(tablePlayers).
		Where(
			qb.Eq("platform", player.Platform),
			qb.Eq("id", player.ID),
			qb.Eq("nickname", player.Nickname),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build select player query: %w", err)
	}

	var id int64
	if err := tx.GetContext(ctx, &id, query, args...); err != nil {
		return 0, fmt.Errorf("select player %s: %w", player, err)
	}
	return id, nil
}

func upsertGames(ctx context.Context, tx *sqlx.Tx, matches []match.PlayerMatch) (map[match.Game]int64, error) {
	out := make(map[match.Game]int64)
	for _, item := range matches {
		if _, ok := out[item.Game]; ok {
			continue
		}

		query, args, err := qb.InsertModel(tableGames, toGameRow(item.Game), "ON CONFLICT (name, mode) DO NOTHING")
		if err != nil {
			return nil, fmt.Errorf("build upsert game query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("upsert game %s: %w", item.Game, err)
		}

		query, args, err = qb.Select("db_id").From(tableGames).
			Where(qb.Eq("name", item.Game.Name), qb.Eq("mode", item.Game.Mode)).
			ToSQL()
		if err != nil {
			return nil, fmt.Errorf("build select game query: %w", err)
		}

		var id int64
		if err := tx.GetContext(ctx, &id, query, args...); err != nil {
			return nil, fmt.Errorf("select game %s: %w", item.Game, err)
		}
		out[item.Game] = id
	}
	return out, nil
}

func existingMatchIDs(ctx context.Context, tx *sqlx.Tx, matches []match.PlayerMatch) (map[string]struct{}, error) {
	ids := make([]any, 0, len(matches))
	for _, item := range matches {
		ids = append(ids, item.ID)
	}

	query, args, err := qb.Select("id").From(tableMatches).Where(qb.In("id", ids)).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select existing matches query: %w", err)
	}

	var found []string
	if err := tx.SelectContext(ctx, &found, query, args...); err != nil {
		return nil, fmt.Errorf("select existing matches: %w", err)
	}

	out := make(map[string]struct{}, len(found))
	for _, id := range found {
		out[id] = struct{}{}
	}
	return out, nil
}

// selectNewMatches drops stored matches and repeated ids, keeping the first
// occurrence.
func selectNewMatches(matches []match.PlayerMatch, existing map[string]struct{}) []match.PlayerMatch {
	seen := make(map[string]struct{}, len(matches))
	out := make([]match.PlayerMatch, 0, len(matches))
	for _, item := range matches {
		if _, ok := existing[item.ID]; ok {
			continue
		}
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		out = append(out, item)
	}
	return out
}

func insertMatches(ctx context.Context, tx *sqlx.Tx, matches []match.PlayerMatch, playerDBID int64, gameIDs map[match.Game]int64) error {
	factRows := make([]matchInsertModel, 0, len(matches))
	var weaponRows []weaponRow
	var brRows []brStatsRow
	for _, item := range matches {
		stats, err := toStatsRow(item.Stats)
		if err != nil {
			return fmt.Errorf("encode stats of match %s: %w", item.ID, err)
		}
		factRows = append(factRows, matchInsertModel{
			match: toMatchRow(item, playerDBID, gameIDs[item.Game]),
			stats: stats,
		})
		weaponRows = append(weaponRows, toWeaponRows(item.ID, item.WeaponStats)...)
		if item.BRStats != nil {
			brRows = append(brRows, toBRStatsRow(item.ID, *item.BRStats))
		}
	}

	if err := insertChunked(ctx, tx, tableMatches, factRows); err != nil {
		return err
	}
	if err := insertChunked(ctx, tx, tableWeaponStats, weaponRows); err != nil {
		return err
	}
	return insertChunked(ctx, tx, tableBRStats, brRows)
}

func insertMatchLogs(ctx context.Context, tx *sqlx.Tx, matches []match.PlayerMatch) error {
	rows := make([]matchLogRow, 0, len(matches))
	for _, item := range matches {
		if !item.Tracked() {
			continue
		}
		rows = append(rows, toMatchLogRow(item.ID, *item.Source))
	}
	return insertChunked(ctx, tx, tableMatchLogs, rows)
}

func insertChunked[M qb.Model](ctx context.Context, tx *sqlx.Tx, table string, rows []M) error {
	for start := 0; start < len(rows); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(rows) {
			end = len(rows)
		}

		query, args, err := qb.InsertModels(table, rows[start:end], "")
		if err != nil {
			return fmt.Errorf("build insert %s query: %w", table, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}
	return nil
}

func naturalKeyConditions(game match.Game, player match.PlayerID) []qb.Condition {
	return []qb.Condition{
		qb.Eq("g.name", game.Name),
		qb.Eq("g.mode", game.Mode),
		qb.Eq("p.platform", player.Platform),
		qb.Eq("p.nickname", player.Nickname),
		qb.Eq("p.id", player.ID),
	}
}
