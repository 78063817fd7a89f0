package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
)

type Config struct {
	ServerPort            string
	LogLevel              string
	LogFormat             string
	SnapshotURL           string
	SnapshotRenderMode    string
	HTTPTimeoutSeconds    string
	ProviderBaseURL       string
	ProviderCookieURL     string
	ProviderRateLimitMS   string
	NewsCount             string
	ContentFilterFile     string
	MovementWatchInterval string
	KafkaBrokers          string
	KafkaTopic            string
}

// ContentFilterConfig holds the phrase lists used to clean extracted article text.
// Stop phrases are searched in order; blacklist phrases are all applied.
type ContentFilterConfig struct {
	StopPhrases      []string `toml:"stop_phrases" json:"stop_phrases"`
	BlacklistPhrases []string `toml:"blacklist_phrases" json:"blacklist_phrases"`
}

// DefaultContentFilterConfig returns the built-in phrase lists
func DefaultContentFilterConfig() *ContentFilterConfig {
	return &ContentFilterConfig{
		StopPhrases: []string{
			"recommended reading",
			"related articles",
		},
		BlacklistPhrases: []string{
			"sign in",
			"subscribe",
			"newsletter",
			"oops, something went wrong",
			"get the app",
			"read full article",
			"share this article",
			"comment",
			"privacy policy",
			"cookies",
			"login",
		},
	}
}

// LoadContentFilterConfig reads phrase lists from a TOML file.
// A list missing from the file keeps its default.
func LoadContentFilterConfig(path string) (*ContentFilterConfig, error) {
	filter := DefaultContentFilterConfig()
	if path == "" {
		return filter, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read content filter file %s: %w", path, err)
	}

	var fromFile ContentFilterConfig
	if err := toml.Unmarshal(data, &fromFile); err != nil {
		return nil, fmt.Errorf("failed to parse content filter file %s: %w", path, err)
	}

	if len(fromFile.StopPhrases) > 0 {
		filter.StopPhrases = fromFile.StopPhrases
	}
	if len(fromFile.BlacklistPhrases) > 0 {
		filter.BlacklistPhrases = fromFile.BlacklistPhrases
	}

	return filter, nil
}

// GetHTTPTimeout returns the outbound request timeout
func (c *Config) GetHTTPTimeout() time.Duration {
	seconds, err := strconv.Atoi(c.HTTPTimeoutSeconds)
	if err != nil || seconds <= 0 {
		logrus.Warnf("Invalid HTTP_TIMEOUT_SECONDS value: %s, using default 10 seconds", c.HTTPTimeoutSeconds)
		return 10 * time.Second
	}
	return time.Duration(seconds) * time.Second
}

// GetProviderRateLimit returns the minimum delay between provider requests, 0 disables throttling
func (c *Config) GetProviderRateLimit() time.Duration {
	if c.ProviderRateLimitMS == "" {
		return 0
	}
	ms, err := strconv.Atoi(c.ProviderRateLimitMS)
	if err != nil || ms < 0 {
		logrus.Warnf("Invalid PROVIDER_RATE_LIMIT_MS value: %s, throttling disabled", c.ProviderRateLimitMS)
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// GetNewsCount returns how many news results to request per index
func (c *Config) GetNewsCount() int {
	count, err := strconv.Atoi(c.NewsCount)
	if err != nil || count <= 0 {
		logrus.Warnf("Invalid NEWS_COUNT value: %s, using default 20", c.NewsCount)
		return 20
	}
	return count
}

// GetMovementWatchInterval returns the background comparison interval, 0 disables the job
func (c *Config) GetMovementWatchInterval() time.Duration {
	if c.MovementWatchInterval == "" || c.MovementWatchInterval == "0" {
		return 0
	}
	interval, err := time.ParseDuration(c.MovementWatchInterval)
	if err != nil || interval < 0 {
		logrus.Warnf("Invalid MOVEMENT_WATCH_INTERVAL value: %s, job disabled", c.MovementWatchInterval)
		return 0
	}
	return interval
}

// GetKafkaBrokers returns the configured broker list
func (c *Config) GetKafkaBrokers() []string {
	var brokers []string
	for _, broker := range strings.Split(c.KafkaBrokers, ",") {
		if trimmed := strings.TrimSpace(broker); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	return brokers
}

// UseBrowserRendering reports whether the snapshot page should be rendered with headless Chrome
func (c *Config) UseBrowserRendering() bool {
	return strings.EqualFold(c.SnapshotRenderMode, "browser")
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		logrus.Warn("Error loading .env file, using system environment variables")
	}

	return &Config{
		ServerPort:            getEnv("SERVER_PORT", "8000"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "json"),
		SnapshotURL:           getEnv("SNAPSHOT_URL", "https://au.finance.yahoo.com/markets/stocks/most-active/"),
		SnapshotRenderMode:    getEnv("SNAPSHOT_RENDER_MODE", "http"),
		HTTPTimeoutSeconds:    getEnv("HTTP_TIMEOUT_SECONDS", "10"),
		ProviderBaseURL:       getEnv("PROVIDER_BASE_URL", "https://query2.finance.yahoo.com"),
		ProviderCookieURL:     getEnv("PROVIDER_COOKIE_URL", "https://fc.yahoo.com"),
		ProviderRateLimitMS:   getEnv("PROVIDER_RATE_LIMIT_MS", "0"),
		NewsCount:             getEnv("NEWS_COUNT", "20"),
		ContentFilterFile:     getEnv("CONTENT_FILTER_FILE", ""),
		MovementWatchInterval: getEnv("MOVEMENT_WATCH_INTERVAL", "0"),
		KafkaBrokers:          getEnv("KAFKA_BROKERS", ""),
		KafkaTopic:            getEnv("KAFKA_TOPIC", "index_movements"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
