package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/codstats/internal/config"
	"github.com/riskibarqy/codstats/internal/domain/match"
	"github.com/riskibarqy/codstats/internal/platform/logging"
)

func TestPoller_SavesIntoMemoryStore(t *testing.T) {
	body, err := os.ReadFile(filepath.Join("..", "..", "external", "callofduty", "testdata", "success-response.json"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)

	logFile := filepath.Join(t.TempDir(), "matches.log")
	player := match.PlayerID{Platform: "battle", Nickname: "test_user", ID: "1234"}
	cfg := config.Config{
		DB: config.DBConfig{URI: "memory://", LogFile: logFile, MatchLogs: true},
		API: config.APIConfig{
			BaseURL:     server.URL,
			AuthCookie:  "secret-cookie",
			Timeout:     time.Second,
			TrackSource: true,
			Circuit:     config.CircuitConfig{FailureCount: 1, OpenTimeout: time.Second, HalfOpenMaxReq: 1},
		},
		Poller:  config.PollerConfig{FetchWorkers: 1},
		Targets: []config.Target{{Game: match.MWMultiplayer, Player: player}},
	}

	ctx := context.Background()
	store, err := OpenStore(ctx, cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	poller, closeLog, err := NewPoller(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("new poller: %v", err)
	}

	report, err := poller.Poll(ctx)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if err := closeLog(); err != nil {
		t.Fatalf("close match log: %v", err)
	}
	if report.SavedPlayers != 1 || report.Targets[0].Matches == 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	stored, err := store.LoadLastMatches(ctx, match.MWMultiplayer, player, nil, nil)
	if err != nil {
		t.Fatalf("load last matches: %v", err)
	}
	if len(stored) != report.Targets[0].Matches {
		t.Fatalf("expected %d stored matches, got=%d", report.Targets[0].Matches, len(stored))
	}

	written, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("read match log: %v", err)
	}
	if !strings.Contains(string(written), `"msg":"match info"`) {
		t.Fatalf("expected match info entries in log file, got %q", written)
	}
}
