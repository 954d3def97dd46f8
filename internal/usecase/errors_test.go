package usecase

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsStorageConnection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "connection lost", err: &StorageIOError{Op: "save match series", Connection: true, Err: errors.New("EOF")}, want: true},
		{name: "wrapped connection lost", err: fmt.Errorf("poll: %w", &StorageIOError{Op: "ping database", Connection: true, Err: errors.New("refused")}), want: true},
		{name: "constraint violation", err: &StorageIOError{Op: "save match series", Err: errors.New("duplicate key value")}, want: false},
		{name: "fetch error", err: &FetchError{Message: "rate limited"}, want: false},
	}

	for _, tc := range tests {
		if got := IsStorageConnection(tc.err); got != tc.want {
			t.Fatalf("%s: expected %t, got=%t", tc.name, tc.want, got)
		}
		if tc.want && !IsStorageIO(tc.err) {
			t.Fatalf("%s: connection failure must also be a storage io error", tc.name)
		}
	}
}
