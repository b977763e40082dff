//go:build integration

package oauthstate_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/go-fb-ads-gateway/internal/errors"
	"github.com/jrsteele09/go-fb-ads-gateway/oauthstate"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	addr, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(addr)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisStore(t *testing.T) {
	client := newRedisClient(t)
	ctx := context.Background()

	t.Run("issue and consume", func(t *testing.T) {
		s := oauthstate.NewRedisStore(client, oauthstate.WithTTL(time.Minute))
		state, err := s.Issue(ctx, "u1")
		require.NoError(t, err)

		ttl, err := client.TTL(ctx, "fbgw:oauth:state:"+state).Result()
		require.NoError(t, err)
		require.Greater(t, ttl, time.Duration(0))

		got, err := s.Consume(ctx, state)
		require.NoError(t, err)
		require.Equal(t, "u1", got)

		_, err = s.Consume(ctx, state)
		require.ErrorIs(t, err, apperrors.ErrInvalidState)
	})

	t.Run("unknown state", func(t *testing.T) {
		s := oauthstate.NewRedisStore(client)
		_, err := s.Consume(ctx, "never-issued")
		require.ErrorIs(t, err, apperrors.ErrInvalidState)
	})

	t.Run("recorded expiry is enforced", func(t *testing.T) {
		s := oauthstate.NewRedisStore(client, oauthstate.WithTTL(time.Minute))
		state, err := s.Issue(ctx, "u1")
		require.NoError(t, err)

		prev := oauthstate.NowTimeFunc
		oauthstate.NowTimeFunc = func() time.Time { return time.Now().Add(2 * time.Minute) }
		t.Cleanup(func() { oauthstate.NowTimeFunc = prev })

		_, err = s.Consume(ctx, state)
		require.ErrorIs(t, err, apperrors.ErrInvalidState)
	})

	t.Run("concurrent consume succeeds once", func(t *testing.T) {
		s := oauthstate.NewRedisStore(client)
		state, err := s.Issue(ctx, "u1")
		require.NoError(t, err)

		const goroutines = 20
		var wg sync.WaitGroup
		var successes atomic.Int32
		for i := 0; i < goroutines; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.Consume(ctx, state); err == nil {
					successes.Add(1)
				}
			}()
		}
		wg.Wait()
		require.Equal(t, int32(1), successes.Load())
	})
}
