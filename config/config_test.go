package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"SERVER_PORT", "SNAPSHOT_URL", "SNAPSHOT_RENDER_MODE", "HTTP_TIMEOUT_SECONDS",
		"PROVIDER_BASE_URL", "NEWS_COUNT", "MOVEMENT_WATCH_INTERVAL", "KAFKA_BROKERS", "KAFKA_TOPIC",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := LoadConfig()

	assert.Equal(t, "8000", cfg.ServerPort)
	assert.Equal(t, "https://au.finance.yahoo.com/markets/stocks/most-active/", cfg.SnapshotURL)
	assert.Equal(t, "https://query2.finance.yahoo.com", cfg.ProviderBaseURL)
	assert.Equal(t, 10*time.Second, cfg.GetHTTPTimeout())
	assert.Equal(t, 20, cfg.GetNewsCount())
	assert.Equal(t, time.Duration(0), cfg.GetMovementWatchInterval())
	assert.Empty(t, cfg.GetKafkaBrokers())
	assert.Equal(t, "index_movements", cfg.KafkaTopic)
	assert.False(t, cfg.UseBrowserRendering())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SNAPSHOT_RENDER_MODE", "Browser")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "3")
	t.Setenv("PROVIDER_RATE_LIMIT_MS", "250")
	t.Setenv("NEWS_COUNT", "5")
	t.Setenv("MOVEMENT_WATCH_INTERVAL", "15m")
	t.Setenv("KAFKA_BROKERS", "broker-a:9092, broker-b:9093,")

	cfg := LoadConfig()

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.True(t, cfg.UseBrowserRendering())
	assert.Equal(t, 3*time.Second, cfg.GetHTTPTimeout())
	assert.Equal(t, 250*time.Millisecond, cfg.GetProviderRateLimit())
	assert.Equal(t, 5, cfg.GetNewsCount())
	assert.Equal(t, 15*time.Minute, cfg.GetMovementWatchInterval())
	assert.Equal(t, []string{"broker-a:9092", "broker-b:9093"}, cfg.GetKafkaBrokers())
}

func TestConfigGettersFallBackOnInvalidValues(t *testing.T) {
	cfg := &Config{
		HTTPTimeoutSeconds:    "soon",
		ProviderRateLimitMS:   "-5",
		NewsCount:             "0",
		MovementWatchInterval: "hourly",
	}

	assert.Equal(t, 10*time.Second, cfg.GetHTTPTimeout())
	assert.Equal(t, time.Duration(0), cfg.GetProviderRateLimit())
	assert.Equal(t, 20, cfg.GetNewsCount())
	assert.Equal(t, time.Duration(0), cfg.GetMovementWatchInterval())
}

func TestDefaultContentFilterConfig(t *testing.T) {
	filter := DefaultContentFilterConfig()

	assert.Equal(t, []string{"recommended reading", "related articles"}, filter.StopPhrases)
	assert.Len(t, filter.BlacklistPhrases, 11)
	assert.Contains(t, filter.BlacklistPhrases, "oops, something went wrong")
}

func TestLoadContentFilterConfigFromTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filters.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
stop_phrases = ["more from this author", "related articles"]
`), 0o600))

	filter, err := LoadContentFilterConfig(path)

	require.NoError(t, err)
	assert.Equal(t, []string{"more from this author", "related articles"}, filter.StopPhrases)
	assert.Equal(t, DefaultContentFilterConfig().BlacklistPhrases, filter.BlacklistPhrases)
}

func TestLoadContentFilterConfigErrors(t *testing.T) {
	_, err := LoadContentFilterConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte(`stop_phrases = [`), 0o600))
	_, err = LoadContentFilterConfig(path)
	assert.Error(t, err)

	filter, err := LoadContentFilterConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultContentFilterConfig(), filter)
}
