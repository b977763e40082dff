package provider

import (
	"time"

	"github.com/rs/zerolog"
)

const redacted = "[REDACTED]"

// Credential holds a cleartext Facebook access token for the duration of a single
// request. It renders as [REDACTED] through fmt, JSON and zerolog so it cannot leak
// into logs or responses by accident. Callers defer Destroy as soon as they hold one.
type Credential struct {
	accessToken []byte
	ObtainedAt  time.Time
}

// NewCredential copies token into a credential owned by the caller.
func NewCredential(token []byte, obtainedAt time.Time) *Credential {
	b := make([]byte, len(token))
	copy(b, token)
	return &Credential{accessToken: b, ObtainedAt: obtainedAt}
}

// Reveal returns the cleartext token for use on the wire.
func (c *Credential) Reveal() string {
	if c == nil {
		return ""
	}
	return string(c.accessToken)
}

// Bytes exposes the token bytes for sealing without an intermediate string copy.
func (c *Credential) Bytes() []byte {
	if c == nil {
		return nil
	}
	return c.accessToken
}

func (c *Credential) Empty() bool {
	return c == nil || len(c.accessToken) == 0
}

// Destroy zeroes the token bytes. Safe to call more than once and on nil.
func (c *Credential) Destroy() {
	if c == nil {
		return
	}
	for i := range c.accessToken {
		c.accessToken[i] = 0
	}
	c.accessToken = nil
}

func (c *Credential) String() string {
	return redacted
}

func (c *Credential) GoString() string {
	return redacted
}

func (c *Credential) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

func (c *Credential) MarshalZerologObject(e *zerolog.Event) {
	if c == nil {
		return
	}
	e.Str("access_token", redacted).Time("obtained_at", c.ObtainedAt)
}
