package config

import "time"

const (
	tokenEncryptionKeyVar = "TOKEN_ENCRYPTION_KEY"
	devTokenEncryptionKey = "dev-token-encryption-key-change-in-production"
)

type SecurityConfig interface {
	GetTokenEncryptionKey() []byte
	GetOAuthStateTTL() time.Duration
	GetStateSweepInterval() time.Duration
}

type Security struct {
	TokenEncryptionKey string        `env:"TOKEN_ENCRYPTION_KEY"`
	OAuthStateTTL      time.Duration `env:"OAUTH_STATE_TTL" envDefault:"10m"`
	StateSweepInterval time.Duration `env:"OAUTH_STATE_SWEEP_INTERVAL" envDefault:"1m"`
}

var _ SecurityConfig = Security{}

func (s Security) GetTokenEncryptionKey() []byte {
	return []byte(s.TokenEncryptionKey)
}

// GetOAuthStateTTL is how long a login URL's state token stays redeemable
func (s Security) GetOAuthStateTTL() time.Duration {
	return s.OAuthStateTTL
}

func (s Security) GetStateSweepInterval() time.Duration {
	return s.StateSweepInterval
}
