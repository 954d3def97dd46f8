package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/codstats/internal/domain/match"
	matchmock "github.com/riskibarqy/codstats/internal/mocks/domain/match"
	"github.com/riskibarqy/codstats/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

func TestNotFoundGuard_CachesPlayerNotFound(t *testing.T) {
	t.Parallel()

	provider := matchmock.NewHistoryProvider(t)
	provider.On("GetRecentMatches", mock.Anything, match.MWWarzone, pollerBob, (*time.Time)(nil), (*time.Time)(nil)).
		Return(nil, NewPlayerNotFoundError(pollerBob.String())).Once()

	guard := NewNotFoundGuard(provider, time.Hour, logging.NewNop())
	for i := 0; i < 3; i++ {
		_, err := guard.GetRecentMatches(context.Background(), match.MWWarzone, pollerBob, nil, nil)
		if !IsPlayerNotFound(err) || !IsRecoverableFetch(err) {
			t.Fatalf("call %d: expected player not found fetch error, got=%v", i, err)
		}
	}
}

func TestNotFoundGuard_PassesOtherResults(t *testing.T) {
	t.Parallel()

	provider := matchmock.NewHistoryProvider(t)
	item := pollerMatch("mp-1", match.MWMultiplayer)
	provider.On("GetRecentMatches", mock.Anything, match.MWMultiplayer, pollerAlice, (*time.Time)(nil), (*time.Time)(nil)).
		Return(nil, &FetchError{Message: "rate limited"}).Once()
	provider.On("GetRecentMatches", mock.Anything, match.MWMultiplayer, pollerAlice, (*time.Time)(nil), (*time.Time)(nil)).
		Return([]match.PlayerMatch{item}, nil).Once()

	guard := NewNotFoundGuard(provider, time.Hour, logging.NewNop())
	if _, err := guard.GetRecentMatches(context.Background(), match.MWMultiplayer, pollerAlice, nil, nil); !IsRecoverableFetch(err) {
		t.Fatalf("expected fetch error, got=%v", err)
	}
	got, err := guard.GetRecentMatches(context.Background(), match.MWMultiplayer, pollerAlice, nil, nil)
	if err != nil || len(got) != 1 {
		t.Fatalf("expected one match after transient error, got=%d err=%v", len(got), err)
	}
}
