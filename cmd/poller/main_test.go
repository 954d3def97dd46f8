package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/riskibarqy/codstats/internal/usecase"
)

func TestExitCode(t *testing.T) {
	t.Parallel()

	storage := &usecase.StorageIOError{Op: "save match series", Connection: true, Err: errors.New("connection refused")}
	schema := &usecase.StorageIOError{Op: "save match series", Err: errors.New(`relation "player_matches_stats" does not exist`)}
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: exitOK},
		{name: "storage io", err: storage, want: exitTempFail},
		{name: "wrapped storage io", err: fmt.Errorf("poll: %w", storage), want: exitTempFail},
		{name: "storage without connection loss", err: schema, want: exitFatal},
		{name: "unrecoverable fetch", err: &usecase.UnrecoverableFetchError{Message: "Access not authorized"}, want: exitFatal},
		{name: "config", err: errors.New("load config: validate settings"), want: exitFatal},
	}

	for _, tc := range tests {
		if got := exitCode(tc.err); got != tc.want {
			t.Fatalf("%s: expected exit code %d, got=%d", tc.name, tc.want, got)
		}
	}
}
