package postgres

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/riskibarqy/codstats/internal/usecase"
)

func TestStorageError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		connection bool
	}{
		{name: "bad connection", err: fmt.Errorf("select matches: %w", driver.ErrBadConn), connection: true},
		{name: "connection failure class", err: &pq.Error{Code: "08006"}, connection: true},
		{name: "admin shutdown", err: &pq.Error{Code: "57P01"}, connection: true},
		{name: "cannot connect now", err: &pq.Error{Code: "57P03"}, connection: true},
		{name: "unique violation", err: &pq.Error{Code: "23505"}, connection: false},
		{name: "plain error", err: fakeErr("pq: relation players does not exist"), connection: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := storageError("save match series", tc.err)
			var target *usecase.StorageIOError
			if !errors.As(err, &target) {
				t.Fatalf("expected StorageIOError, got %T", err)
			}
			if target.Connection != tc.connection {
				t.Fatalf("unexpected connection flag: got=%t want=%t", target.Connection, tc.connection)
			}
			if target.Op != "save match series" {
				t.Fatalf("unexpected op: %s", target.Op)
			}
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected cause in chain")
			}
		})
	}
}

func TestStorageError_DoesNotDoubleWrap(t *testing.T) {
	t.Parallel()

	inner := storageError("load last matches", driver.ErrBadConn)
	outer := storageError("save match series", inner)
	if outer != inner {
		t.Fatalf("expected storage error to be returned unchanged")
	}
	if storageError("noop", nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}

func TestSelectNewMatches(t *testing.T) {
	t.Parallel()

	matches := testMatches()
	matches = append(matches, matches[0])
	existing := map[string]struct{}{matches[1].ID: {}}

	got := selectNewMatches(matches, existing)
	if len(got) != 1 || got[0].ID != matches[0].ID {
		t.Fatalf("unexpected new matches: %+v", got)
	}
}

func TestMatchInsertModelLayout(t *testing.T) {
	t.Parallel()

	item := testMatches()[0]
	stats, err := toStatsRow(item.Stats)
	if err != nil {
		t.Fatalf("to stats row: %v", err)
	}
	model := matchInsertModel{match: toMatchRow(item, 1, 2), stats: stats}
	if len(model.Columns()) != len(model.Values()) {
		t.Fatalf("column/value mismatch: %d != %d", len(model.Columns()), len(model.Values()))
	}
	if stats.TimePlayed != "583 seconds" {
		t.Fatalf("unexpected interval literal: %s", stats.TimePlayed)
	}
	if stats.KillstreaksUsed != `["manual_turret","radar_drone_overwatch"]` {
		t.Fatalf("unexpected killstreaks json: %s", stats.KillstreaksUsed)
	}

	logRow := toMatchLogRow(item.ID, *item.Source)
	if logRow.Meta != "{}" {
		t.Fatalf("expected empty meta to become an empty object, got=%s", logRow.Meta)
	}
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }
