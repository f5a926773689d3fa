// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BackendConfig struct {
	URL       string        `yaml:"url"`
	Token     string        `yaml:"token"`      // literal bearer credential
	TokenFile string        `yaml:"token_file"` // or a file holding it; file wins when both are set
	Timeout   time.Duration `yaml:"timeout"`    // unary calls only; streams carry no timeout
}

type BridgeConfig struct {
	Port      int           `yaml:"port"`
	APIKey    string        `yaml:"api_key"` // optional static bearer for the local socket
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit int           `yaml:"rate_limit"` // mutating requests per client per minute, 0 = off
}

type ReturnConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // session-scoped entries expire after this
}

type ContinuityConfig struct {
	Staleness time.Duration `yaml:"staleness"` // snapshots older than this are discarded
}

type AnalysisConfig struct {
	MaxComments int `yaml:"max_comments"` // per-video comment budget sent on start
}

type NotifyConfig struct {
	Provider string `yaml:"provider"` // telegram | noop
	Token    string `yaml:"token"`
	ChatID   int64  `yaml:"chat_id"`
	Workers  int    `yaml:"workers"`
}

type SecurityConfig struct {
	EncryptionKey string `yaml:"encryption_key"` // 16/24/32 bytes; empty disables sealing
}

type Config struct {
	Backend    BackendConfig    `yaml:"backend"`
	Bridge     BridgeConfig     `yaml:"bridge"`
	Return     ReturnConfig     `yaml:"return"`
	Log        LogConfig        `yaml:"log"`
	Redis      RedisConfig      `yaml:"redis"`
	Continuity ContinuityConfig `yaml:"continuity"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Notify     NotifyConfig     `yaml:"notify"`
	Security   SecurityConfig   `yaml:"security"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(dev); err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Backend.Timeout <= 0 {
		c.Backend.Timeout = 15 * time.Second
	}
	if c.Bridge.Port == 0 {
		c.Bridge.Port = 8750
	}
	if c.Bridge.Timeout <= 0 {
		c.Bridge.Timeout = 30 * time.Second
	}
	if c.Return.Port == 0 {
		c.Return.Port = 8751
	}
	if c.Return.Path == "" {
		c.Return.Path = "/billing/return"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Redis.TTL <= 0 {
		c.Redis.TTL = 24 * time.Hour
	}
	if c.Continuity.Staleness <= 0 {
		c.Continuity.Staleness = 24 * time.Hour
	}
	if c.Analysis.MaxComments <= 0 {
		c.Analysis.MaxComments = 500
	}
	if c.Notify.Provider == "" {
		c.Notify.Provider = "noop"
	}
	if c.Notify.Workers <= 0 {
		c.Notify.Workers = 2
	}
}

func (c *Config) validate(dev bool) error {
	if c.Backend.URL == "" {
		return errors.New("backend.url is required")
	}
	if c.Backend.Token == "" && c.Backend.TokenFile == "" {
		return errors.New("backend.token or backend.token_file is required")
	}
	// Dev mode swaps Redis for the in-memory store.
	if !dev && c.Redis.URL == "" {
		return errors.New("redis.url is required (or run with --dev)")
	}
	if c.Notify.Provider == "telegram" && (c.Notify.Token == "" || c.Notify.ChatID == 0) {
		return errors.New("notify.token and notify.chat_id are required for the telegram provider")
	}
	return nil
}
