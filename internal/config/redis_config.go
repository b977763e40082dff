package config

import "time"

type RedisConfig interface {
	GetRedisURL() string
	GetRedisPoolSize() int
	GetRedisDialTimeout() time.Duration
}

// Redis backs the OAuth state store when REDIS_URL is set; an in-memory store is
// used otherwise.
type Redis struct {
	URL         string        `env:"REDIS_URL"`
	PoolSize    int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	DialTimeout time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
}

var _ RedisConfig = Redis{}

func (r Redis) GetRedisURL() string {
	return r.URL
}

func (r Redis) GetRedisPoolSize() int {
	return r.PoolSize
}

func (r Redis) GetRedisDialTimeout() time.Duration {
	return r.DialTimeout
}
