package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
// Secrets may also come from a local .env file; the environment wins.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Outbound requests and caching.
	HTTPTimeout time.Duration
	CacheBucket time.Duration
	CacheSize   int
	RiverName   string

	// Met Office forecasts.
	MetOfficeAPIKey  string
	MetOfficeEnabled bool

	// Notice publishing (enabled when KAFKA_BROKERS is set).
	KafkaBrokers    []string
	KafkaTopic      string
	PublishInterval time.Duration
}

// DefaultEnvFile is the key-value file consulted for values missing from the environment.
const DefaultEnvFile = ".env"

// Load reads configuration from the environment and DefaultEnvFile.
func Load() (*Config, error) {
	return LoadFrom(DefaultEnvFile)
}

// LoadFrom reads configuration from the environment, falling back to the
// key-value file at path. A missing file is not an error.
func LoadFrom(path string) (*Config, error) {
	env, err := readEnvFile(path)
	if err != nil {
		return nil, err
	}
	lookup := func(key, def string) string {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
		if v := strings.TrimSpace(env[key]); v != "" {
			return v
		}
		return def
	}

	shutdownTimeout, err := parsePositiveDuration("SHUTDOWN_TIMEOUT", lookup("SHUTDOWN_TIMEOUT", "10s"))
	if err != nil {
		return nil, err
	}
	httpTimeout, err := parsePositiveDuration("HTTP_TIMEOUT", lookup("HTTP_TIMEOUT", "10s"))
	if err != nil {
		return nil, err
	}
	cacheBucket, err := parsePositiveDuration("CACHE_BUCKET", lookup("CACHE_BUCKET", "1h"))
	if err != nil {
		return nil, err
	}
	publishInterval, err := parsePositiveDuration("PUBLISH_INTERVAL", lookup("PUBLISH_INTERVAL", "15m"))
	if err != nil {
		return nil, err
	}

	cacheSize, err := strconv.Atoi(lookup("CACHE_SIZE", "256"))
	if err != nil || cacheSize <= 0 {
		return nil, errors.New("invalid CACHE_SIZE: must be a positive integer")
	}

	apiKey := lookup("METOFFICE_API_KEY", "")
	enabled := apiKey != ""
	if v := lookup("METOFFICE_ENABLED", ""); v != "" {
		enabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        lookup("HTTP_ADDR", ":8080"),
		LogLevel:        lookup("LOG_LEVEL", "info"),
		LogFormat:       lookup("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		HTTPTimeout: httpTimeout,
		CacheBucket: cacheBucket,
		CacheSize:   cacheSize,
		RiverName:   lookup("RIVER_NAME", "River Thames"),

		MetOfficeAPIKey:  apiKey,
		MetOfficeEnabled: enabled,

		KafkaBrokers:    parseBrokers(lookup("KAFKA_BROKERS", "")),
		KafkaTopic:      lookup("KAFKA_TOPIC", "thames-notices"),
		PublishInterval: publishInterval,
	}

	if cfg.MetOfficeEnabled && cfg.MetOfficeAPIKey == "" {
		return nil, errors.New("METOFFICE_ENABLED is true but METOFFICE_API_KEY is not set")
	}

	return cfg, nil
}

// PublishEnabled reports whether notices should be published to Kafka.
func (c *Config) PublishEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func readEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	env, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return env, nil
}

func parsePositiveDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, value)
	}
	return d, nil
}

func parseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
