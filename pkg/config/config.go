package config

import (
	"os"
	"strconv"
	"time"
)

// Application settings
type Config struct {
	Server   ServerConfig
	Logging  LoggingConfig
	Store    StoreConfig
	Ads      AdsConfig
	Backfill BackfillConfig
	Cache    CacheConfig
}

// Server settings
type ServerConfig struct {
	Port string
}

// Store settings
type StoreConfig struct {
	Path string
}

// Ads platform client settings
type AdsConfig struct {
	MetaAPIURL     string
	GoogleAPIURL   string
	AccessToken    string
	RequestTimeout time.Duration
}

// Backfill batch settings
type BackfillConfig struct {
	FetchesPerSecond float64
	MaxRetries       int
	RetryBackoff     time.Duration
	DefaultPeriods   int
}

// Cache freshness settings
type CacheConfig struct {
	DefaultTTL time.Duration
	MetaTTL    time.Duration
	GoogleTTL  time.Duration
	Tolerance  float64
}

// Logging settings
type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Store: StoreConfig{
			Path: getEnv("STORE_PATH", "data/hotelmetrics.db"),
		},
		Ads: AdsConfig{
			MetaAPIURL:     getEnv("META_API_URL", ""),
			GoogleAPIURL:   getEnv("GOOGLE_API_URL", ""),
			AccessToken:    getEnv("ADS_ACCESS_TOKEN", ""),
			RequestTimeout: getDurationEnv("REQUEST_TIMEOUT", "30s"),
		},
		Backfill: BackfillConfig{
			FetchesPerSecond: getFloatEnv("FETCHES_PER_SECOND", 5),
			MaxRetries:       getIntEnv("MAX_RETRIES", 3),
			RetryBackoff:     getDurationEnv("RETRY_BACKOFF", "2s"),
			DefaultPeriods:   getIntEnv("DEFAULT_PERIODS", 12),
		},
		Cache: CacheConfig{
			DefaultTTL: getDurationEnv("CACHE_TTL", "3h"),
			MetaTTL:    getDurationEnv("CACHE_TTL_META", "3h"),
			GoogleTTL:  getDurationEnv("CACHE_TTL_GOOGLE", "3h"),
			Tolerance:  getFloatEnv("RECONCILE_TOLERANCE", 0.01),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
