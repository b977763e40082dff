package oauthstate

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-fb-ads-gateway/internal/errors"
	"github.com/jrsteele09/go-fb-ads-gateway/internal/metrics"
	"github.com/redis/go-redis/v9"
)

const (
	// Redis key prefix for pending OAuth states
	stateKeyPrefix = "fbgw:oauth:state:"

	issueAttempts = 3
)

var _ Store = (*RedisStore)(nil)

// RedisStore keeps pending states in Redis so several gateway instances can share
// them. Consume uses GETDEL (Redis >= 6.2), which reads and deletes in a single
// atomic command.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// RedisStoreOption configures a RedisStore instance.
type RedisStoreOption func(*RedisStore)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) RedisStoreOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewRedisStore constructs a Redis-backed state store. The client lifecycle is
// managed by the caller.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client: client,
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *RedisStore) Issue(ctx context.Context, userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", apperrors.Wrapf(apperrors.ErrInvalidRequest, "[RedisStore Issue] user id is required")
	}

	for attempt := 0; attempt < issueAttempts; attempt++ {
		auth, err := newPendingAuth(userID, s.ttl)
		if err != nil {
			return "", apperrors.Wrapf(err, "[RedisStore Issue]")
		}
		payload, err := json.Marshal(auth)
		if err != nil {
			return "", apperrors.Wrapf(err, "[RedisStore Issue] encode pending auth")
		}

		// NX keeps an existing live state from being overwritten
		stored, err := s.client.SetNX(ctx, stateKeyPrefix+auth.State, payload, s.ttl).Result()
		if err != nil {
			return "", apperrors.Wrapf(err, "[RedisStore Issue] store state")
		}
		if stored {
			return auth.State, nil
		}
	}
	return "", apperrors.Wrapf(apperrors.ErrInternal, "[RedisStore Issue] could not allocate a unique state")
}

func (s *RedisStore) Consume(ctx context.Context, state string) (string, error) {
	defer metrics.ObserveStateConsume("redis", time.Now())

	if state == "" {
		return "", apperrors.Wrapf(apperrors.ErrInvalidState, "[RedisStore Consume] empty state")
	}

	payload, err := s.client.GetDel(ctx, stateKeyPrefix+state).Bytes()
	if errors.Is(err, redis.Nil) {
		return "", apperrors.Wrapf(apperrors.ErrInvalidState, "[RedisStore Consume] unknown state")
	}
	if err != nil {
		return "", apperrors.Wrapf(err, "[RedisStore Consume] getdel")
	}

	var auth PendingAuth
	if err := json.Unmarshal(payload, &auth); err != nil {
		return "", apperrors.Wrapf(apperrors.ErrInvalidState, "[RedisStore Consume] corrupt state record")
	}
	// Redis expiry has second granularity, so check the recorded deadline too
	if auth.Expired(NowTimeFunc()) {
		return "", apperrors.Wrapf(apperrors.ErrInvalidState, "[RedisStore Consume] state expired")
	}
	return auth.UserID, nil
}
