package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

type Config interface {
	EnvConfig
	CorsConfig
	FacebookConfig
	SecurityConfig
	RedisConfig

	// UsesDevTokenEncryptionKey reports whether tokens are sealed with the
	// built-in development key.
	UsesDevTokenEncryptionKey() bool
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Facebook
	Security
	Redis
}

var _ Config = mainConfig{}

// New loads the configuration from the process environment.
func New() (Config, error) {
	return Load(environMap(os.Environ()))
}

// Load parses the configuration from the supplied environment map. Secrets are
// only ever read from here, never from request bodies.
func Load(environ map[string]string) (Config, error) {
	c := mainConfig{}
	opts := env.Options{Environment: environ}
	for _, section := range []any{&c.EnvVars, &c.Cors, &c.Facebook, &c.Security, &c.Redis} {
		if err := env.ParseWithOptions(section, opts); err != nil {
			return nil, fmt.Errorf("[config Load] parse env: %w", err)
		}
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c mainConfig) validate() error {
	var missing []string
	if !c.IsDev() {
		if c.Security.TokenEncryptionKey == "" {
			missing = append(missing, tokenEncryptionKeyVar)
		}
		if c.Facebook.AppID == "" {
			missing = append(missing, "FACEBOOK_APP_ID")
		}
		if c.Facebook.AppSecret == "" {
			missing = append(missing, "FACEBOOK_APP_SECRET")
		}
		if c.Facebook.RedirectURI == "" {
			missing = append(missing, "FACEBOOK_REDIRECT_URI")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("[config Load] missing required settings: %s", strings.Join(missing, ", "))
	}
	if c.Security.OAuthStateTTL <= 0 {
		return fmt.Errorf("[config Load] OAUTH_STATE_TTL must be positive")
	}
	if c.Facebook.UpstreamTimeout <= 0 {
		return fmt.Errorf("[config Load] UPSTREAM_TIMEOUT must be positive")
	}
	return nil
}

// GetTokenEncryptionKey falls back to a fixed development key when running in DEV
// without TOKEN_ENCRYPTION_KEY set.
func (c mainConfig) GetTokenEncryptionKey() []byte {
	if c.UsesDevTokenEncryptionKey() {
		return []byte(devTokenEncryptionKey)
	}
	return c.Security.GetTokenEncryptionKey()
}

func (c mainConfig) UsesDevTokenEncryptionKey() bool {
	return c.Security.TokenEncryptionKey == "" && c.IsDev()
}

func environMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		m[k] = v
	}
	return m
}
