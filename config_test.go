package portalauth

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Token.TTL != 14*24*time.Hour {
		t.Fatalf("token ttl = %v, want 14 days", cfg.Token.TTL)
	}
	if cfg.Session.MaxPerUser != 5 {
		t.Fatalf("max per user = %d, want 5", cfg.Session.MaxPerUser)
	}
	if cfg.Session.RedisPrefix != "ifp" {
		t.Fatalf("prefix = %q, want ifp", cfg.Session.RedisPrefix)
	}
	if cfg.Gate.Header != "AccessToken" {
		t.Fatalf("header = %q, want AccessToken", cfg.Gate.Header)
	}

	wantPaths := map[string]bool{
		"/": true, "/health": true, "/account/login": true,
		"/docs": true, "/redoc": true, "/openapi.json": true,
	}
	if len(cfg.Gate.AllowPaths) != len(wantPaths) {
		t.Fatalf("allow paths = %v", cfg.Gate.AllowPaths)
	}
	for _, p := range cfg.Gate.AllowPaths {
		if !wantPaths[p] {
			t.Fatalf("unexpected allow path %q", p)
		}
	}
}

func TestApplyDefaultsSessionTTLTracksTokenTTL(t *testing.T) {
	cfg := Config{
		Token: TokenConfig{
			Secret: []byte("config-test-secret"),
			TTL:    time.Hour,
		},
	}
	cfg.applyDefaults()

	if cfg.Session.TTL != time.Hour {
		t.Fatalf("session ttl = %v, want token ttl %v", cfg.Session.TTL, time.Hour)
	}
}

func TestApplyDefaultsKeepsExplicitSessionTTL(t *testing.T) {
	cfg := Config{
		Token: TokenConfig{
			Secret: []byte("config-test-secret"),
			TTL:    time.Hour,
		},
		Session: SessionConfig{
			TTL: 30 * time.Minute,
		},
	}
	cfg.applyDefaults()

	if cfg.Session.TTL != 30*time.Minute {
		t.Fatalf("session ttl = %v, want 30m", cfg.Session.TTL)
	}
}

func TestValidateRejectsBrokenConfigs(t *testing.T) {
	base := func() Config {
		cfg := DefaultConfig()
		cfg.Token.Secret = []byte("config-test-secret")
		cfg.Session.TTL = cfg.Token.TTL
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing secret", func(c *Config) { c.Token.Secret = nil }},
		{"zero token ttl", func(c *Config) { c.Token.TTL = 0 }},
		{"zero session cap", func(c *Config) { c.Session.MaxPerUser = 0 }},
		{"zero session ttl", func(c *Config) { c.Session.TTL = 0 }},
		{"empty gate header", func(c *Config) { c.Gate.Header = "" }},
	}
	for _, tc := range cases {
		cfg := base()
		tc.mutate(&cfg)
		if err := cfg.validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}

	cfg := base()
	if err := cfg.validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}
