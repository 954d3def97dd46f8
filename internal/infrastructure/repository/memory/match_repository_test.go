package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/riskibarqy/codstats/internal/domain/match"
)

var testPlayer = match.PlayerID{Platform: "battle", Nickname: "test_user", ID: "1234"}

func testMatch(id string, game match.Game, start time.Time) match.PlayerMatch {
	item := match.PlayerMatch{
		ID:    id,
		Game:  game,
		Start: start,
		End:   start.Add(10 * time.Minute),
		Map:   "mp_m_speed",
		Stats: match.MatchStats{
			Kills:           3,
			Deaths:          0,
			KDRatio:         3,
			KillstreaksUsed: []string{},
			TimePlayed:      583 * time.Second,
		},
		WeaponStats: []match.WeaponStats{{Name: "iw8_ar_mike4", Hits: 1, Kills: 1, Shots: 2}},
	}
	if game.IsBattleRoyale() {
		item.BRStats = &match.BattleRoyaleStats{TeamsCount: 77, PlayersCount: 150, Placement: 16}
	}
	return item
}

func TestMatchRepository_SaveIsIdempotent(t *testing.T) {
	t.Parallel()

	repo := NewMatchRepository(true)
	ctx := context.Background()
	t0 := time.Date(2020, 11, 2, 20, 0, 0, 0, time.UTC)

	tracked := testMatch("m1", match.MWMultiplayer, t0)
	tracked.Source = &match.SourceMetadata{Source: json.RawMessage(`{"matchID":"m1"}`)}
	series := []match.PlayerMatch{
		tracked,
		testMatch("m2", match.MWWarzone, t0.Add(time.Hour)),
		testMatch("m1", match.MWMultiplayer, t0.Add(2*time.Hour)),
	}

	for i := 0; i < 2; i++ {
		if err := repo.SaveMatchSeries(ctx, testPlayer, series); err != nil {
			t.Fatalf("save match series round %d: %v", i, err)
		}
	}

	if len(repo.matches) != 2 {
		t.Fatalf("expected 2 matches, got=%d", len(repo.matches))
	}
	if len(repo.players) != 1 || len(repo.games) != 2 {
		t.Fatalf("expected deduplicated dimensions, players=%d games=%d", len(repo.players), len(repo.games))
	}

	got, err := repo.LoadLastMatches(ctx, match.MWMultiplayer, testPlayer, nil, nil)
	if err != nil {
		t.Fatalf("load last matches: %v", err)
	}
	if len(got) != 1 || !got[0].Start.Equal(t0) {
		t.Fatalf("expected first occurrence of m1 to win, got=%+v", got)
	}
	if got[0].Source != nil {
		t.Fatalf("loaded match must not carry source metadata")
	}

	log, ok := repo.MatchLog("m1")
	if !ok || string(log.Source) != `{"matchID":"m1"}` {
		t.Fatalf("expected match log for m1, got=%+v ok=%t", log, ok)
	}
	if _, ok := repo.MatchLog("m2"); ok {
		t.Fatalf("untracked match must not be logged")
	}
}

func TestMatchRepository_RoundTrip(t *testing.T) {
	t.Parallel()

	repo := NewMatchRepository(false)
	ctx := context.Background()
	want := testMatch("wz-1", match.MWWarzone, time.Unix(1605354410, 0).UTC())

	if err := repo.SaveMatchSeries(ctx, testPlayer, []match.PlayerMatch{want}); err != nil {
		t.Fatalf("save match series: %v", err)
	}
	got, err := repo.LoadLastMatches(ctx, match.MWWarzone, testPlayer, nil, nil)
	if err != nil {
		t.Fatalf("load last matches: %v", err)
	}
	if diff := cmp.Diff([]match.PlayerMatch{want}, got); diff != "" {
		t.Fatalf("unexpected matches (-want +got):\n%s", diff)
	}

	got[0].WeaponStats[0].Kills = 99
	again, _ := repo.LoadLastMatches(ctx, match.MWWarzone, testPlayer, nil, nil)
	if again[0].WeaponStats[0].Kills != 1 {
		t.Fatalf("loaded matches must not alias stored state")
	}
}

func TestMatchRepository_TimeWindow(t *testing.T) {
	t.Parallel()

	repo := NewMatchRepository(false)
	ctx := context.Background()
	t0 := time.Date(2020, 11, 2, 20, 0, 0, 0, time.UTC)

	var series []match.PlayerMatch
	for i, offset := range []time.Duration{40 * time.Minute, 0, 20 * time.Minute} {
		series = append(series, testMatch(fmt.Sprintf("w%d", i), match.MWMultiplayer, t0.Add(offset)))
	}
	if err := repo.SaveMatchSeries(ctx, testPlayer, series); err != nil {
		t.Fatalf("save match series: %v", err)
	}

	tests := []struct {
		name        string
		from, until time.Duration
		want        []string
	}{
		{name: "t0 to t0+10m", from: 0, until: 10 * time.Minute, want: []string{"w1"}},
		{name: "t0 to t0+30m", from: 0, until: 30 * time.Minute, want: []string{"w1", "w2"}},
		{name: "t0+20m to t0+50m", from: 20 * time.Minute, until: 50 * time.Minute, want: []string{"w2", "w0"}},
	}

	for _, tc := range tests {
		from, until := t0.Add(tc.from), t0.Add(tc.until)
		got, err := repo.LoadLastMatches(ctx, match.MWMultiplayer, testPlayer, &from, &until)
		if err != nil {
			t.Fatalf("%s: load last matches: %v", tc.name, err)
		}
		ids := make([]string, 0, len(got))
		for _, item := range got {
			ids = append(ids, item.ID)
		}
		if diff := cmp.Diff(tc.want, ids); diff != "" {
			t.Fatalf("%s (-want +got):\n%s", tc.name, diff)
		}
	}
}

func TestMatchRepository_LoadByOffset(t *testing.T) {
	t.Parallel()

	repo := NewMatchRepository(false)
	ctx := context.Background()
	t0 := time.Date(2020, 11, 2, 20, 0, 0, 0, time.UTC)

	var series []match.PlayerMatch
	for i := 0; i < 5; i++ {
		series = append(series, testMatch(fmt.Sprintf("m%d", i), match.MWMultiplayer, t0.Add(time.Duration(i)*time.Minute)))
	}
	if err := repo.SaveMatchSeries(ctx, testPlayer, series); err != nil {
		t.Fatalf("save match series: %v", err)
	}

	got, err := repo.LoadLastMatchesByOffset(ctx, match.MWMultiplayer, testPlayer, 1, 2)
	if err != nil {
		t.Fatalf("load by offset: %v", err)
	}
	if len(got) != 2 || got[0].ID != "m2" || got[1].ID != "m3" {
		t.Fatalf("unexpected page: %+v", got)
	}

	got, err = repo.LoadLastMatchesByOffset(ctx, match.MWMultiplayer, testPlayer, 4, 10)
	if err != nil {
		t.Fatalf("load by offset: %v", err)
	}
	if len(got) != 1 || got[0].ID != "m0" {
		t.Fatalf("unexpected clamped page: %+v", got)
	}

	if _, err := repo.LoadLastMatchesByOffset(ctx, match.MWMultiplayer, testPlayer, -1, 1); !errors.Is(err, match.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestMatchRepository_RejectsInvalidMatch(t *testing.T) {
	t.Parallel()

	repo := NewMatchRepository(false)
	invalid := testMatch("bad", match.MWWarzone, time.Now())
	invalid.BRStats = nil

	err := repo.SaveMatchSeries(context.Background(), testPlayer, []match.PlayerMatch{invalid})
	if !errors.Is(err, match.ErrInvalidMatch) {
		t.Fatalf("expected ErrInvalidMatch, got %v", err)
	}
	if len(repo.matches) != 0 || len(repo.players) != 0 {
		t.Fatalf("invalid batch must not write anything")
	}
}
