package portalauth

import (
	"errors"
	"time"
)

// Config holds all engine settings. Zero values fall back to the defaults
// from [DefaultConfig] during Build.
type Config struct {
	Token   TokenConfig
	Session SessionConfig
	Gate    GateConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

// TokenConfig configures the access-token codec.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
	Leeway time.Duration
}

// SessionConfig configures the Redis session store.
type SessionConfig struct {
	RedisPrefix string
	MaxPerUser  int
	// TTL of the whole per-user session set, refreshed on every login.
	// When zero it tracks the token TTL.
	TTL time.Duration
}

// GateConfig configures the HTTP auth gate.
type GateConfig struct {
	// Header is the request header carrying the access token.
	Header string
	// AllowPaths are matched exactly (no prefix matching) and bypass
	// authentication entirely.
	AllowPaths []string
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the production defaults: 14-day tokens, at most 5
// live sessions per user, the portal's AccessToken header, and the standard
// public paths bypassing the gate.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			TTL: 14 * 24 * time.Hour,
		},
		Session: SessionConfig{
			RedisPrefix: "ifp",
			MaxPerUser:  5,
		},
		Gate: GateConfig{
			Header: "AccessToken",
			AllowPaths: []string{
				"/",
				"/health",
				"/account/login",
				"/docs",
				"/redoc",
				"/openapi.json",
			},
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()

	if c.Token.TTL == 0 {
		c.Token.TTL = def.Token.TTL
	}
	if c.Session.RedisPrefix == "" {
		c.Session.RedisPrefix = def.Session.RedisPrefix
	}
	if c.Session.MaxPerUser == 0 {
		c.Session.MaxPerUser = def.Session.MaxPerUser
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = c.Token.TTL
	}
	if c.Gate.Header == "" {
		c.Gate.Header = def.Gate.Header
	}
	if c.Gate.AllowPaths == nil {
		c.Gate.AllowPaths = def.Gate.AllowPaths
	}
	if c.Audit.BufferSize == 0 {
		c.Audit.BufferSize = def.Audit.BufferSize
	}
}

func (c *Config) validate() error {
	if len(c.Token.Secret) == 0 {
		return errors.New("token secret required")
	}
	if c.Token.TTL <= 0 {
		return errors.New("token TTL must be positive")
	}
	if c.Session.MaxPerUser < 1 {
		return errors.New("session cap must be at least 1")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session TTL must be positive")
	}
	if c.Gate.Header == "" {
		return errors.New("gate header required")
	}
	return nil
}
