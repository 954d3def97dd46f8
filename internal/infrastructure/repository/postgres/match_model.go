package postgres

import (
	"strconv"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/codstats/internal/domain/match"
)

const (
	tableGames       = "games"
	tablePlayers     = "players"
	tableMatches     = "player_matches_stats"
	tableWeaponStats = "weapon_stats"
	tableBRStats     = "br_stats"
	tableMatchLogs   = "player_matches_logs"

	emptyJSONObject = "{}"
	emptyJSONArray  = "[]"
	intervalSuffix  = " seconds"
)

type gameRow struct {
	Name string `db:"name"`
	Mode string `db:"mode"`
}

func (r gameRow) Columns() []string { return []string{"name", "mode"} }
func (r gameRow) Values() []any     { return []any{r.Name, r.Mode} }

func toGameRow(game match.Game) gameRow {
	return gameRow{Name: game.Name, Mode: game.Mode}
}

type playerRow struct {
	Platform string `db:"platform"`
	ID       string `db:"id"`
	Nickname string `db:"nickname"`
}

func (r playerRow) Columns() []string { return []string{"platform", "id", "nickname"} }
func (r playerRow) Values() []any     { return []any{r.Platform, r.ID, r.Nickname} }

func toPlayerRow(player match.PlayerID) playerRow {
	return playerRow{Platform: player.Platform, ID: player.ID, Nickname: player.Nickname}
}

type matchRow struct {
	ID       string
	PlayerID int64
	GameID   int64
	Start    time.Time
	End      time.Time
	Map      string
	IsWin    bool
}

func toMatchRow(m match.PlayerMatch, playerDBID, gameDBID int64) matchRow {
	return matchRow{
		ID:       m.ID,
		PlayerID: playerDBID,
		GameID:   gameDBID,
		Start:    m.Start.UTC(),
		End:      m.End.UTC(),
		Map:      m.Map,
		IsWin:    m.IsWin,
	}
}

type statsRow struct {
	Kills            int
	Assists          int
	Deaths           int
	KDRatio          float64
	KillstreaksUsed  string
	LongestStreak    int
	Suicides         int
	Executions       int
	DamageDealt      int
	DamageReceived   int
	PercentTimeMoved float64
	ShotsFired       int
	ShotsMissed      int
	Headshots        int
	WallBangs        int
	TimePlayed       string
	DistanceTraveled float64
	AverageSpeed     float64
}

func toStatsRow(stats match.MatchStats) (statsRow, error) {
	killstreaks := emptyJSONArray
	if len(stats.KillstreaksUsed) > 0 {
		raw, err := sonic.Marshal(stats.KillstreaksUsed)
		if err != nil {
			return statsRow{}, err
		}
		killstreaks = string(raw)
	}

	return statsRow{
		Kills:            stats.Kills,
		Assists:          stats.Assists,
		Deaths:           stats.Deaths,
		KDRatio:          stats.KDRatio,
		KillstreaksUsed:  killstreaks,
		LongestStreak:    stats.LongestStreak,
		Suicides:         stats.Suicides,
		Executions:       stats.Executions,
		DamageDealt:      stats.DamageDealt,
		DamageReceived:   stats.DamageReceived,
		PercentTimeMoved: stats.PercentTimeMoved,
		ShotsFired:       stats.ShotsFired,
		ShotsMissed:      stats.ShotsMissed,
		Headshots:        stats.Headshots,
		WallBangs:        stats.WallBangs,
		TimePlayed:       strconv.FormatInt(int64(stats.TimePlayed/time.Second), 10) + intervalSuffix,
		DistanceTraveled: stats.DistanceTraveled,
		AverageSpeed:     stats.AverageSpeed,
	}, nil
}

// matchInsertModel is one player_matches_stats row.
type matchInsertModel struct {
	match matchRow
	stats statsRow
}

func (m matchInsertModel) Columns() []string {
	return []string{
		"id", "player_id", "game_id", "start", `"end"`, "map", "is_win",
		"kills", "assists", "deaths", "kd_ratio", "killstreaks_used", "longest_streak",
		"suicides", "executions", "damage_dealt", "damage_received", "percent_time_moved",
		"shots_fired", "shots_missed", "headshots", "wall_bangs", "time_played",
		"distance_traveled", "average_speed",
	}
}

func (m matchInsertModel) Values() []any {
	return []any{
		m.match.ID, m.match.PlayerID, m.match.GameID, m.match.Start, m.match.End, m.match.Map, m.match.IsWin,
		m.stats.Kills, m.stats.Assists, m.stats.Deaths, m.stats.KDRatio, m.stats.KillstreaksUsed, m.stats.LongestStreak,
		m.stats.Suicides, m.stats.Executions, m.stats.DamageDealt, m.stats.DamageReceived, m.stats.PercentTimeMoved,
		m.stats.ShotsFired, m.stats.ShotsMissed, m.stats.Headshots, m.stats.WallBangs, m.stats.TimePlayed,
		m.stats.DistanceTraveled, m.stats.AverageSpeed,
	}
}

type weaponRow struct {
	MatchID   string `db:"match_id"`
	Name      string `db:"name"`
	Hits      int    `db:"hits"`
	Kills     int    `db:"kills"`
	Deaths    int    `db:"deaths"`
	Shots     int    `db:"shots"`
	Headshots int    `db:"headshots"`
}

func (r weaponRow) Columns() []string {
	return []string{"match_id", "name", "hits", "kills", "deaths", "shots", "headshots"}
}

func (r weaponRow) Values() []any {
	return []any{r.MatchID, r.Name, r.Hits, r.Kills, r.Deaths, r.Shots, r.Headshots}
}

func toWeaponRows(matchID string, items []match.WeaponStats) []weaponRow {
	out := make([]weaponRow, 0, len(items))
	for _, item := range items {
		out = append(out, weaponRow{
			MatchID:   matchID,
			Name:      item.Name,
			Hits:      item.Hits,
			Kills:     item.Kills,
			Deaths:    item.Deaths,
			Shots:     item.Shots,
			Headshots: item.Headshots,
		})
	}
	return out
}

type brStatsRow struct {
	MatchID      string `db:"match_id"`
	TeamsCount   int    `db:"teams_count"`
	PlayersCount int    `db:"players_count"`
	Placement    int    `db:"placement"`
}

func (r brStatsRow) Columns() []string {
	return []string{"match_id", "teams_count", "players_count", "placement"}
}

func (r brStatsRow) Values() []any {
	return []any{r.MatchID, r.TeamsCount, r.PlayersCount, r.Placement}
}

func toBRStatsRow(matchID string, stats match.BattleRoyaleStats) brStatsRow {
	return brStatsRow{
		MatchID:      matchID,
		TeamsCount:   stats.TeamsCount,
		PlayersCount: stats.PlayersCount,
		Placement:    stats.Placement,
	}
}

type matchLogRow struct {
	MatchID string
	Source  string
	Meta    string
}

func (r matchLogRow) Columns() []string { return []string{"match_id", "source", "meta"} }
func (r matchLogRow) Values() []any     { return []any{r.MatchID, r.Source, r.Meta} }

func toMatchLogRow(matchID string, source match.SourceMetadata) matchLogRow {
	meta := string(source.Meta)
	if len(source.Meta) == 0 {
		meta = emptyJSONObject
	}
	return matchLogRow{MatchID: matchID, Source: string(source.Source), Meta: meta}
}

// matchSelectRow is the joined read shape of a stored match.
type matchSelectRow struct {
	ID                string    `db:"id"`
	GameName          string    `db:"game_name"`
	GameMode          string    `db:"game_mode"`
	Start             time.Time `db:"start"`
	End               time.Time `db:"end"`
	Map               string    `db:"map"`
	IsWin             bool      `db:"is_win"`
	Kills             int       `db:"kills"`
	Assists           int       `db:"assists"`
	Deaths            int       `db:"deaths"`
	KDRatio           float64   `db:"kd_ratio"`
	KillstreaksUsed   []byte    `db:"killstreaks_used"`
	LongestStreak     int       `db:"longest_streak"`
	Suicides          int       `db:"suicides"`
	Executions        int       `db:"executions"`
	DamageDealt       int       `db:"damage_dealt"`
	DamageReceived    int       `db:"damage_received"`
	PercentTimeMoved  float64   `db:"percent_time_moved"`
	ShotsFired        int       `db:"shots_fired"`
	ShotsMissed       int       `db:"shots_missed"`
	Headshots         int       `db:"headshots"`
	WallBangs         int       `db:"wall_bangs"`
	TimePlayedSeconds int64     `db:"time_played_seconds"`
	DistanceTraveled  float64   `db:"distance_traveled"`
	AverageSpeed      float64   `db:"average_speed"`
}

var matchSelectColumns = []string{
	"s.id", "g.name AS game_name", "g.mode AS game_mode", "s.start", `s."end"`, "s.map", "s.is_win",
	"s.kills", "s.assists", "s.deaths", "s.kd_ratio", "s.killstreaks_used", "s.longest_streak",
	"s.suicides", "s.executions", "s.damage_dealt", "s.damage_received", "s.percent_time_moved",
	"s.shots_fired", "s.shots_missed", "s.headshots", "s.wall_bangs",
	"EXTRACT(EPOCH FROM s.time_played)::bigint AS time_played_seconds",
	"s.distance_traveled", "s.average_speed",
}

const matchSelectFrom = tableMatches + " s JOIN " + tableGames + " g ON g.db_id = s.game_id JOIN " + tablePlayers + " p ON p.db_id = s.player_id"

func fromMatchSelectRow(row matchSelectRow) (match.PlayerMatch, error) {
	killstreaks := []string{}
	if len(row.KillstreaksUsed) > 0 {
		if err := sonic.Unmarshal(row.KillstreaksUsed, &killstreaks); err != nil {
			return match.PlayerMatch{}, err
		}
	}

	return match.PlayerMatch{
		ID:    row.ID,
		Game:  match.Game{Name: row.GameName, Mode: row.GameMode},
		Start: row.Start.UTC(),
		End:   row.End.UTC(),
		Map:   row.Map,
		IsWin: row.IsWin,
		Stats: match.MatchStats{
			Kills:            row.Kills,
			Assists:          row.Assists,
			Deaths:           row.Deaths,
			KDRatio:          row.KDRatio,
			KillstreaksUsed:  killstreaks,
			LongestStreak:    row.LongestStreak,
			Suicides:         row.Suicides,
			Executions:       row.Executions,
			DamageDealt:      row.DamageDealt,
			DamageReceived:   row.DamageReceived,
			PercentTimeMoved: row.PercentTimeMoved,
			ShotsFired:       row.ShotsFired,
			ShotsMissed:      row.ShotsMissed,
			Headshots:        row.Headshots,
			WallBangs:        row.WallBangs,
			TimePlayed:       time.Duration(row.TimePlayedSeconds) * time.Second,
			DistanceTraveled: row.DistanceTraveled,
			AverageSpeed:     row.AverageSpeed,
		},
		WeaponStats: []match.WeaponStats{},
	}, nil
}

func fromWeaponRow(row weaponRow) match.WeaponStats {
	return match.WeaponStats{
		Name:      row.Name,
		Hits:      row.Hits,
		Kills:     row.Kills,
		Deaths:    row.Deaths,
		Shots:     row.Shots,
		Headshots: row.Headshots,
	}
}
