package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alejandrodnm/polyclob/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_EmptyUsesDefaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("CLOB_WS_URL", "")

	cfg, err := config.Parse([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, "https://clob.polymarket.com", cfg.API.CLOBBase)
	assert.Equal(t, "wss://ws-subscriptions-clob.polymarket.com/ws", cfg.API.WSURL)
	assert.Equal(t, int64(137), cfg.API.ChainID)
	assert.True(t, cfg.Stream.AutoReconnect)
	assert.Equal(t, 5, cfg.Stream.MaxReconnectAttempts)
	assert.Equal(t, time.Second, cfg.Stream.ReconnectBaseDelay())
	assert.Equal(t, 30*time.Second, cfg.Stream.PingInterval())
	assert.Equal(t, 256, cfg.Stream.EventBuffer)
	assert.True(t, cfg.Events.ExcludeResolved)
	assert.Equal(t, 10000.0, cfg.Events.MinVolume)
	assert.Equal(t, 30*time.Second, cfg.EventsInterval())
	assert.Equal(t, 30*time.Second, cfg.CacheTTL())
	assert.False(t, cfg.Risk.Enabled)
	assert.Equal(t, "polyclob.db", cfg.Storage.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestParse_ExplicitValuesWin(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("CLOB_WS_URL", "")

	cfg, err := config.Parse([]byte(`
stream:
  auto_reconnect: false
  max_reconnect_attempts: 0
  reconnect_max_delay_ms: 8000
risk:
  enabled: true
  max_notional: 25
  blocked_markets: ["tok-1"]
events:
  exclude_resolved: false
`))
	require.NoError(t, err)

	assert.False(t, cfg.Stream.AutoReconnect)
	assert.Equal(t, 0, cfg.Stream.MaxReconnectAttempts)
	assert.Equal(t, 8*time.Second, cfg.Stream.ReconnectMaxDelay())
	assert.True(t, cfg.Risk.Enabled)
	assert.Equal(t, 25.0, cfg.Risk.MaxNotional)
	assert.Equal(t, []string{"tok-1"}, cfg.Risk.BlockedMarkets)
	assert.False(t, cfg.Events.ExcludeResolved)
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("CLOB_WS_URL", "ws://localhost:9000/ws")
	t.Setenv("POLY_PRIVATE_KEY", "0xabc")
	t.Setenv("POLY_FUNDER", "0xfunder")

	cfg, err := config.Parse([]byte("log:\n  level: warn\n"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "ws://localhost:9000/ws", cfg.API.WSURL)
	assert.Equal(t, "0xabc", cfg.Wallet.PrivateKey)
	assert.Equal(t, "0xfunder", cfg.Wallet.Funder)
}

func TestParse_PrivateKeyNotReadFromYAML(t *testing.T) {
	t.Setenv("POLY_PRIVATE_KEY", "")

	cfg, err := config.Parse([]byte("wallet:\n  privatekey: 0xdeadbeef\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Wallet.PrivateKey)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := config.Parse([]byte("api: [unclosed"))
	require.Error(t, err)
}

func TestLoad_File(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("events:\n  market_limit: 50\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Events.MarketLimit)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
