// Package config loads the walletredirect configuration from a TOML file
// with environment overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Environment variables that override file values.
const (
	EnvRedisURL     = "REDIS_URL"
	EnvWalletURL    = "WALLET_URL"
	EnvNodeURL      = "NODE_URL"
	EnvNetworkID    = "NETWORK_ID"
	EnvCookieSecret = "COOKIE_SECRET"
)

const (
	defaultNetworkID       = "testnet"
	defaultRedirectTimeout = "1s"
	defaultServerAddr      = ":9000"
	defaultRedisURL        = "redis://localhost:6379/0"
	defaultRedisKeyPrefix  = "walletredirect:"
	defaultCookieName      = "walletredirect"
	defaultCookieTTL       = "720h"
	defaultLogLevel        = "info"
	defaultKeyType         = "ed25519"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr      string `toml:"addr"`       // Listen address
	PublicURL string `toml:"public_url"` // Scheme and host the browser sees, optional
}

// RedisConfig holds redis configuration
type RedisConfig struct {
	URL       string `toml:"url"`
	KeyPrefix string `toml:"key_prefix"`
	Stream    bool   `toml:"stream"` // Publish events to redis streams
}

// CookieConfig holds the session cookie configuration
type CookieConfig struct {
	Name   string `toml:"name"`
	Secret string `toml:"secret"`
	TTL    string `toml:"ttl"`
	Secure bool   `toml:"secure"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `toml:"level"`
	Pretty bool   `toml:"pretty"`
}

// Config holds all configuration parameters
type Config struct {
	NetworkID       string `toml:"network_id"`
	WalletURL       string `toml:"wallet_url"`
	NodeURL         string `toml:"node_url"`
	AppKeyPrefix    string `toml:"app_key_prefix"`
	RedirectTimeout string `toml:"redirect_timeout"`
	KeyType         string `toml:"key_type"` // Curve of generated access keys

	Server ServerConfig `toml:"server"`
	Redis  RedisConfig  `toml:"redis"`
	Cookie CookieConfig `toml:"cookie"`
	Log    LogConfig    `toml:"log"`
}

// Load reads path, applies environment overrides and validates the result.
// An empty path loads from the environment only.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}
	cfg.applyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes TOML data without consulting the environment
func Parse(data string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.Decode(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	override := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	override(&c.Redis.URL, EnvRedisURL)
	override(&c.WalletURL, EnvWalletURL)
	override(&c.NodeURL, EnvNodeURL)
	override(&c.NetworkID, EnvNetworkID)
	override(&c.Cookie.Secret, EnvCookieSecret)
}

// Validate checks required values and fills in defaults
func (c *Config) Validate() error {
	if c.NetworkID == "" {
		c.NetworkID = defaultNetworkID
	}
	if c.RedirectTimeout == "" {
		c.RedirectTimeout = defaultRedirectTimeout
	}
	if c.KeyType == "" {
		c.KeyType = defaultKeyType
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaultServerAddr
	}
	if c.Redis.URL == "" {
		c.Redis.URL = defaultRedisURL
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = defaultRedisKeyPrefix
	}
	if c.Cookie.Name == "" {
		c.Cookie.Name = defaultCookieName
	}
	if c.Cookie.TTL == "" {
		c.Cookie.TTL = defaultCookieTTL
	}
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}

	if c.WalletURL == "" {
		return errors.New("wallet_url is required")
	}
	if _, err := url.Parse(c.WalletURL); err != nil {
		return fmt.Errorf("invalid wallet_url: %w", err)
	}
	if c.NodeURL == "" {
		return errors.New("node_url is required")
	}
	if _, err := time.ParseDuration(c.RedirectTimeout); err != nil {
		return fmt.Errorf("invalid redirect_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.Cookie.TTL); err != nil {
		return fmt.Errorf("invalid cookie.ttl: %w", err)
	}
	return nil
}

// RedirectTimeoutDuration returns redirect_timeout as a duration
func (c *Config) RedirectTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.RedirectTimeout)
	return d
}

// CookieTTLDuration returns cookie.ttl as a duration
func (c *Config) CookieTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.Cookie.TTL)
	return d
}
