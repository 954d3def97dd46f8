package callofduty

import (
	"fmt"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/codstats/internal/domain/match"
)

func decodeMatchResponse(t *testing.T, raw string) matchResponse {
	t.Helper()

	var out matchResponse
	if err := sonic.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("decode match response: %v", err)
	}
	return out
}

const minimalMatch = `{
	"matchID": "1",
	"utcStartSeconds": 1604354327,
	"utcEndSeconds": 1604354859,
	"map": "mp_m_speed",
	"duration": 532000,
	"winningTeam": %q,
	"teamCount": 50,
	"playerCount": 150,
	"player": {"team": "allies", "killstreakUsage": {"radar_drone_overwatch": 2, "manual_turret": 1}},
	"playerStats": {
		"kills": 7, "assists": 0, "deaths": 0, "longestStreak": 7, "executions": 0,
		"damageDone": 700, "damageTaken": 0, "percentTimeMoving": 50.5,
		"headshots": 1, "wallBangs": 0, "timePlayed": 60, "distanceTraveled": 10.5
		%s
	}
}`

func TestNormalizeMatch_ZeroDeathsGuard(t *testing.T) {
	t.Parallel()

	resp := decodeMatchResponse(t, sprintfMatch("allies", ""))
	got, err := normalizeMatch(resp, match.MWMultiplayer)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got.Stats.KDRatio != 7 {
		t.Fatalf("expected kd=7 for zero deaths, got=%v", got.Stats.KDRatio)
	}
	if got.Stats.Suicides != 0 || got.Stats.ShotsFired != 0 || got.Stats.ShotsMissed != 0 || got.Stats.AverageSpeed != 0 {
		t.Fatalf("expected optional counters to default to zero, got=%+v", got.Stats)
	}
	if len(got.Stats.KillstreaksUsed) != 2 || got.Stats.KillstreaksUsed[0] != "manual_turret" || got.Stats.KillstreaksUsed[1] != "radar_drone_overwatch" {
		t.Fatalf("unexpected killstreaks: %v", got.Stats.KillstreaksUsed)
	}
}

func TestNormalizeMatch_MultiplayerWin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		winningTeam string
		want        bool
	}{
		{winningTeam: "allies", want: true},
		{winningTeam: "axis", want: false},
		{winningTeam: "", want: false},
	}

	for _, tc := range tests {
		resp := decodeMatchResponse(t, sprintfMatch(tc.winningTeam, ""))
		got, err := normalizeMatch(resp, match.MWMultiplayer)
		if err != nil {
			t.Fatalf("normalize: %v", err)
		}
		if got.IsWin != tc.want {
			t.Fatalf("winning team %q: expected is_win=%t, got=%t", tc.winningTeam, tc.want, got.IsWin)
		}
		if got.BRStats != nil {
			t.Fatalf("multiplayer match must not carry battle royale stats")
		}
	}
}

func TestNormalizeMatch_BattleRoyaleWinFromPlacement(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		extra     string
		placement int
		want      bool
	}{
		{name: "first place", extra: `, "teamPlacement": 1`, placement: 1, want: true},
		{name: "second place", extra: `, "teamPlacement": 2.0`, placement: 2, want: false},
		{name: "missing placement", extra: "", placement: unknownPlacement, want: false},
	}

	for _, tc := range tests {
		// winningTeam equals the player team, battle royale must ignore it.
		resp := decodeMatchResponse(t, sprintfMatch("allies", tc.extra))
		got, err := normalizeMatch(resp, match.MWWarzone)
		if err != nil {
			t.Fatalf("%s: normalize: %v", tc.name, err)
		}
		if got.IsWin != tc.want {
			t.Fatalf("%s: expected is_win=%t, got=%t", tc.name, tc.want, got.IsWin)
		}
		if got.BRStats == nil || got.BRStats.Placement != tc.placement {
			t.Fatalf("%s: unexpected br stats: %+v", tc.name, got.BRStats)
		}
		if got.BRStats.TeamsCount != 50 || got.BRStats.PlayersCount != 150 {
			t.Fatalf("%s: unexpected br counters: %+v", tc.name, got.BRStats)
		}
	}
}

func TestCountRejectsFractions(t *testing.T) {
	t.Parallel()

	var c count
	if err := c.UnmarshalJSON([]byte("12.0")); err != nil || c != 12 {
		t.Fatalf("expected 12, got=%d err=%v", c, err)
	}
	if err := c.UnmarshalJSON([]byte("12.5")); err == nil {
		t.Fatalf("expected error for fractional value")
	}
}

func sprintfMatch(winningTeam, extra string) string {
	return fmt.Sprintf(minimalMatch, winningTeam, extra)
}
