package main

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk shape of the daemon configuration.
// Environment variables in the form ${VAR_NAME} are expanded before
// parsing, so secrets stay out of the file itself.
type fileConfig struct {
	Server  serverConfig  `yaml:"server"`
	Redis   redisConfig   `yaml:"redis"`
	Token   tokenConfig   `yaml:"token"`
	Session sessionConfig `yaml:"session"`
	Gate    gateConfig    `yaml:"gate"`
	Users   usersConfig   `yaml:"users"`
	Audit   auditConfig   `yaml:"audit"`
	Logging loggingConfig `yaml:"logging"`
}

type serverConfig struct {
	Addr string `yaml:"addr"`

	ShutdownGrace    time.Duration `yaml:"-"`
	ShutdownGraceRaw string        `yaml:"shutdown_grace"`
}

type redisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type tokenConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`

	TTL    time.Duration `yaml:"-"`
	TTLRaw string        `yaml:"ttl"`
}

type sessionConfig struct {
	Prefix     string `yaml:"prefix"`
	MaxPerUser int    `yaml:"max_per_user"`
}

type gateConfig struct {
	Header     string   `yaml:"header"`
	AllowPaths []string `yaml:"allow_paths"`
}

type usersConfig struct {
	// Path to the JSON creator directory file.
	Path string `yaml:"path"`
}

type auditConfig struct {
	Enabled bool `yaml:"enabled"`
	// Path of the JSON-lines audit log. Empty means stdout.
	Path       string `yaml:"path"`
	BufferSize int    `yaml:"buffer_size"`
}

type loggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// loadConfig reads, expands, parses, and validates the config file.
func loadConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	var cfg fileConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.parseDurations(); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} with the environment value. Unset
// variables expand to the empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}

func (c *fileConfig) parseDurations() error {
	var err error

	if c.Token.TTLRaw != "" {
		c.Token.TTL, err = time.ParseDuration(c.Token.TTLRaw)
		if err != nil {
			return fmt.Errorf("parsing token.ttl %q: %w", c.Token.TTLRaw, err)
		}
	}

	if c.Server.ShutdownGraceRaw != "" {
		c.Server.ShutdownGrace, err = time.ParseDuration(c.Server.ShutdownGraceRaw)
		if err != nil {
			return fmt.Errorf("parsing server.shutdown_grace %q: %w", c.Server.ShutdownGraceRaw, err)
		}
	}
	if c.Server.ShutdownGrace == 0 {
		c.Server.ShutdownGrace = 10 * time.Second
	}

	return nil
}

func (c *fileConfig) validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}
	if c.Token.Secret == "" {
		return fmt.Errorf("token.secret is required")
	}
	if c.Users.Path == "" {
		return fmt.Errorf("users.path is required")
	}
	return nil
}
