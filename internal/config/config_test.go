package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimal = `
wallet_url = "https://wallet.testnet.near.org"
node_url = "https://rpc.testnet.near.org"
`

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(minimal)
	require.NoError(t, err)

	assert.Equal(t, "testnet", cfg.NetworkID)
	assert.Equal(t, time.Second, cfg.RedirectTimeoutDuration())
	assert.Equal(t, "ed25519", cfg.KeyType)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, "walletredirect:", cfg.Redis.KeyPrefix)
	assert.Equal(t, "walletredirect", cfg.Cookie.Name)
	assert.Equal(t, 720*time.Hour, cfg.CookieTTLDuration())
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestParseFull(t *testing.T) {
	cfg, err := Parse(minimal + `
network_id = "mainnet"
app_key_prefix = "guest-book"
redirect_timeout = "250ms"
key_type = "secp256k1"

[server]
addr = ":8080"
public_url = "https://app.example"

[redis]
url = "redis://cache:6379/1"
stream = true

[cookie]
secret = "s3cret"
ttl = "24h"
secure = true

[log]
level = "debug"
pretty = true
`)
	require.NoError(t, err)

	assert.Equal(t, "mainnet", cfg.NetworkID)
	assert.Equal(t, "guest-book", cfg.AppKeyPrefix)
	assert.Equal(t, 250*time.Millisecond, cfg.RedirectTimeoutDuration())
	assert.Equal(t, "secp256k1", cfg.KeyType)
	assert.Equal(t, "https://app.example", cfg.Server.PublicURL)
	assert.True(t, cfg.Redis.Stream)
	assert.Equal(t, "s3cret", cfg.Cookie.Secret)
	assert.True(t, cfg.Cookie.Secure)
	assert.True(t, cfg.Log.Pretty)
}

func TestParseInvalid(t *testing.T) {
	tests := map[string]string{
		"missing wallet_url":       `node_url = "https://rpc.testnet.near.org"`,
		"missing node_url":         `wallet_url = "https://wallet.testnet.near.org"`,
		"invalid redirect_timeout": minimal + `redirect_timeout = "soon"`,
		"invalid cookie ttl":       minimal + "[cookie]\nttl = \"forever\"",
		"invalid toml":             `wallet_url = `,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(data)
			assert.Error(t, err)
		})
	}
}

func TestLoadAppliesEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "walletredirect.toml")
	require.NoError(t, os.WriteFile(path, []byte(minimal), 0o600))

	t.Setenv(EnvRedisURL, "redis://env:6379/2")
	t.Setenv(EnvWalletURL, "https://wallet.example")
	t.Setenv(EnvNodeURL, "https://rpc.example")
	t.Setenv(EnvNetworkID, "localnet")
	t.Setenv(EnvCookieSecret, "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "redis://env:6379/2", cfg.Redis.URL)
	assert.Equal(t, "https://wallet.example", cfg.WalletURL)
	assert.Equal(t, "https://rpc.example", cfg.NodeURL)
	assert.Equal(t, "localnet", cfg.NetworkID)
	assert.Equal(t, "from-env", cfg.Cookie.Secret)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
