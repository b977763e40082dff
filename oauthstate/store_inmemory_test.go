package oauthstate_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/go-fb-ads-gateway/internal/errors"
	"github.com/jrsteele09/go-fb-ads-gateway/oauthstate"
	"github.com/stretchr/testify/require"
)

// withClock swaps oauthstate.NowTimeFunc for the duration of the test.
func withClock(t *testing.T, now *time.Time) {
	t.Helper()
	prev := oauthstate.NowTimeFunc
	oauthstate.NowTimeFunc = func() time.Time { return *now }
	t.Cleanup(func() { oauthstate.NowTimeFunc = prev })
}

func TestInMemoryStore_IssueConsume(t *testing.T) {
	ctx := context.Background()
	s := oauthstate.NewInMemoryStore(time.Minute)

	for _, userID := range []string{"u1", "user with spaces", "ünïcödé", "42"} {
		t.Run(userID, func(t *testing.T) {
			state, err := s.Issue(ctx, userID)
			require.NoError(t, err)
			require.GreaterOrEqual(t, len(state), 43, "32 random bytes base64url encoded")

			got, err := s.Consume(ctx, state)
			require.NoError(t, err)
			require.Equal(t, userID, got)
		})
	}
}

func TestInMemoryStore_IssueRequiresUserID(t *testing.T) {
	s := oauthstate.NewInMemoryStore(time.Minute)

	_, err := s.Issue(context.Background(), "")
	require.ErrorIs(t, err, apperrors.ErrInvalidRequest)

	_, err = s.Issue(context.Background(), "   ")
	require.ErrorIs(t, err, apperrors.ErrInvalidRequest)
}

func TestInMemoryStore_UniqueStates(t *testing.T) {
	s := oauthstate.NewInMemoryStore(time.Minute)
	seen := map[string]struct{}{}
	for i := 0; i < 1000; i++ {
		state, err := s.Issue(context.Background(), "u1")
		require.NoError(t, err)
		_, dup := seen[state]
		require.False(t, dup)
		seen[state] = struct{}{}
	}
	require.Equal(t, 1000, s.Len())
}

func TestInMemoryStore_Replay(t *testing.T) {
	ctx := context.Background()
	s := oauthstate.NewInMemoryStore(time.Minute)

	state, err := s.Issue(ctx, "u1")
	require.NoError(t, err)

	_, err = s.Consume(ctx, state)
	require.NoError(t, err)

	_, err = s.Consume(ctx, state)
	require.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestInMemoryStore_UnknownAndEmpty(t *testing.T) {
	s := oauthstate.NewInMemoryStore(time.Minute)

	_, err := s.Consume(context.Background(), "forged-state")
	require.ErrorIs(t, err, apperrors.ErrInvalidState)

	_, err = s.Consume(context.Background(), "")
	require.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestInMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	withClock(t, &now)

	s := oauthstate.NewInMemoryStore(10 * time.Minute)

	fresh, err := s.Issue(ctx, "u1")
	require.NoError(t, err)
	stale, err := s.Issue(ctx, "u2")
	require.NoError(t, err)

	now = now.Add(9*time.Minute + 59*time.Second)
	got, err := s.Consume(ctx, fresh)
	require.NoError(t, err)
	require.Equal(t, "u1", got)

	now = now.Add(time.Second)
	_, err = s.Consume(ctx, stale)
	require.ErrorIs(t, err, apperrors.ErrInvalidState)

	// an expired state is still spent after the failed attempt
	_, err = s.Consume(ctx, stale)
	require.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestInMemoryStore_Sweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	withClock(t, &now)

	s := oauthstate.NewInMemoryStore(time.Minute)
	_, err := s.Issue(ctx, "old")
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	keep, err := s.Issue(ctx, "new")
	require.NoError(t, err)

	now = now.Add(31 * time.Second)
	require.Equal(t, 1, s.Sweep())
	require.Equal(t, 1, s.Len())

	got, err := s.Consume(ctx, keep)
	require.NoError(t, err)
	require.Equal(t, "new", got)
}

func TestInMemoryStore_RunSweeperStopsOnCancel(t *testing.T) {
	s := oauthstate.NewInMemoryStore(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.RunSweeper(ctx, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestInMemoryStore_ConcurrentConsume(t *testing.T) {
	ctx := context.Background()
	s := oauthstate.NewInMemoryStore(time.Minute)

	state, err := s.Issue(ctx, "u1")
	require.NoError(t, err)

	const goroutines = 50
	var wg sync.WaitGroup
	var successes, failures atomic.Int32
	start := make(chan struct{})

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := s.Consume(ctx, state); err == nil {
				successes.Add(1)
			} else {
				failures.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Equal(t, int32(1), successes.Load())
	require.Equal(t, int32(goroutines-1), failures.Load())
}
