// Package oauthstate issues and redeems the single-use state tokens that bind a
// Facebook login attempt to the user who started it.
package oauthstate

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

const (
	// DefaultTTL is how long an issued state may be redeemed.
	DefaultTTL = 10 * time.Minute

	// stateTokenBytes gives 256 bits of entropy.
	stateTokenBytes = 32
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// PendingAuth is an in-flight authorization attempt.
type PendingAuth struct {
	State     string    `json:"state"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (p PendingAuth) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// Store issues state tokens and redeems them exactly once.
//
// Consume must check and delete in one indivisible step: of two concurrent
// calls with the same token exactly one gets the user id. Absent, expired and
// already redeemed tokens all fail with errors.ErrInvalidState. A redeemed token
// stays spent even if the caller's later work fails.
type Store interface {
	Issue(ctx context.Context, userID string) (string, error)
	Consume(ctx context.Context, state string) (string, error)
}

func generateStateToken() (string, error) {
	b := make([]byte, stateTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func newPendingAuth(userID string, ttl time.Duration) (PendingAuth, error) {
	state, err := generateStateToken()
	if err != nil {
		return PendingAuth{}, err
	}
	now := NowTimeFunc()
	return PendingAuth{
		State:     state,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}
