package callofduty

import (
	"fmt"
	"sort"
	"time"

	"github.com/riskibarqy/codstats/internal/domain/match"
	"github.com/riskibarqy/codstats/internal/usecase"
)

const unknownPlacement = -1

func normalizeMatch(resp matchResponse, game match.Game) (match.PlayerMatch, error) {
	if resp.Player == nil || resp.PlayerStats == nil {
		return match.PlayerMatch{}, fmt.Errorf("%w: match %s misses player section", usecase.ErrDecode, resp.MatchID)
	}

	out := match.PlayerMatch{
		ID:    resp.MatchID,
		Game:  game,
		Start: unixUTC(resp.UTCStartSeconds),
		End:   unixUTC(resp.UTCEndSeconds),
		Map:   resp.Map,
	}

	ps := resp.PlayerStats
	switch game.Mode {
	case match.ModeBattleRoyale:
		placement := unknownPlacement
		if ps.TeamPlacement != nil {
			placement = ps.TeamPlacement.int()
		}
		out.BRStats = &match.BattleRoyaleStats{
			TeamsCount:   resp.TeamCount.int(),
			PlayersCount: resp.PlayerCount.int(),
			Placement:    placement,
		}
		out.IsWin = placement == 1
	case match.ModeMultiplayer:
		out.IsWin = resp.WinningTeam != "" && resp.WinningTeam == resp.Player.Team
	default:
		return match.PlayerMatch{}, fmt.Errorf("%w: unknown game mode %q", usecase.ErrInvalidInput, game.Mode)
	}

	kills := countValue(ps.Kills)
	deaths := countValue(ps.Deaths)
	out.Stats = match.MatchStats{
		Kills:            kills,
		Assists:          countValue(ps.Assists),
		Deaths:           deaths,
		KDRatio:          match.KDRatio(kills, deaths),
		KillstreaksUsed:  killstreakNames(resp.Player.KillstreakUsage),
		LongestStreak:    countValue(ps.LongestStreak),
		Suicides:         ps.Suicides.int(),
		Executions:       countValue(ps.Executions),
		DamageDealt:      countValue(ps.DamageDone),
		DamageReceived:   countValue(ps.DamageTaken),
		PercentTimeMoved: floatValue(ps.PercentTimeMoving),
		ShotsFired:       ps.ShotsFired.int(),
		ShotsMissed:      ps.ShotsMissed.int(),
		Headshots:        countValue(ps.Headshots),
		WallBangs:        countValue(ps.WallBangs),
		TimePlayed:       time.Duration(countValue(ps.TimePlayed)) * time.Second,
		DistanceTraveled: floatValue(ps.DistanceTraveled),
		AverageSpeed:     ps.AverageSpeedDuringMatch,
	}
	out.WeaponStats = weaponStats(resp.WeaponStats)

	return out, nil
}

func killstreakNames(usage map[string]count) []string {
	names := make([]string, 0, len(usage))
	for name := range usage {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func weaponStats(items map[string]matchWeaponResponse) []match.WeaponStats {
	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]match.WeaponStats, 0, len(names))
	for _, name := range names {
		item := items[name]
		out = append(out, match.WeaponStats{
			Name:      name,
			Hits:      countValue(item.Hits),
			Kills:     countValue(item.Kills),
			Deaths:    countValue(item.Deaths),
			Shots:     countValue(item.Shots),
			Headshots: countValue(item.Headshots),
		})
	}
	return out
}

func unixUTC(seconds *count) time.Time {
	return time.Unix(int64(countValue(seconds)), 0).UTC()
}

func floatValue(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
