package oauthstate

import (
	"context"
	"strings"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/go-fb-ads-gateway/internal/errors"
	"github.com/jrsteele09/go-fb-ads-gateway/internal/metrics"
	"github.com/rs/zerolog/log"
)

var _ Store = (*InMemoryStore)(nil)

// InMemoryStore is a thread-safe in-memory Store for single-process deployments.
type InMemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	pending map[string]PendingAuth
}

// NewInMemoryStore creates a store whose states live for ttl (DefaultTTL if ttl <= 0).
func NewInMemoryStore(ttl time.Duration) *InMemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &InMemoryStore{
		ttl:     ttl,
		pending: make(map[string]PendingAuth),
	}
}

func (s *InMemoryStore) Issue(_ context.Context, userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", apperrors.Wrapf(apperrors.ErrInvalidRequest, "[InMemoryStore Issue] user id is required")
	}

	auth, err := newPendingAuth(userID, s.ttl)
	if err != nil {
		return "", apperrors.Wrapf(err, "[InMemoryStore Issue]")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[auth.State] = auth
	return auth.State, nil
}

func (s *InMemoryStore) Consume(_ context.Context, state string) (string, error) {
	defer metrics.ObserveStateConsume("memory", time.Now())

	if state == "" {
		return "", apperrors.Wrapf(apperrors.ErrInvalidState, "[InMemoryStore Consume] empty state")
	}

	s.mu.Lock()
	auth, ok := s.pending[state]
	if ok {
		delete(s.pending, state)
	}
	s.mu.Unlock()

	if !ok {
		return "", apperrors.Wrapf(apperrors.ErrInvalidState, "[InMemoryStore Consume] unknown state")
	}
	if auth.Expired(NowTimeFunc()) {
		return "", apperrors.Wrapf(apperrors.ErrInvalidState, "[InMemoryStore Consume] state expired")
	}
	return auth.UserID, nil
}

// Sweep removes expired entries and returns how many were dropped.
func (s *InMemoryStore) Sweep() int {
	now := NowTimeFunc()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for state, auth := range s.pending {
		if auth.Expired(now) {
			delete(s.pending, state)
			removed++
		}
	}
	return removed
}

// Len reports the number of states held, expired ones included.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *InMemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.Sweep(); removed > 0 {
				log.Debug().Int("removed", removed).Msg("Swept expired OAuth states")
			}
		}
	}
}
