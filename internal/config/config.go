package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Upstream weather provider.
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string
	OpenWeatherTimeout time.Duration

	// Weather cache and quota.
	WeatherCacheTTL   time.Duration
	WeatherDailyLimit int

	// Default location substituted for out-of-range coordinates.
	DefaultLatitude  float64
	DefaultLongitude float64

	// Advisory generation.
	SuppressionWindow time.Duration
	BatchGroupSize    int
	AlertCron         string

	// Persistence. Empty DBPath selects the in-memory stores.
	DBPath string

	// Optional advisory event stream for the downstream delivery gateway.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	openWeatherTimeout, err := parseDuration("OPENWEATHER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	cacheTTL, err := parseDuration("WEATHER_CACHE_TTL", "30m")
	if err != nil {
		return nil, err
	}

	suppressionWindow, err := parseDuration("SUPPRESSION_WINDOW", "24h")
	if err != nil {
		return nil, err
	}

	dailyLimit, err := parsePositiveInt("WEATHER_DAILY_LIMIT", 950)
	if err != nil {
		return nil, err
	}

	groupSize, err := parsePositiveInt("BATCH_GROUP_SIZE", 10)
	if err != nil {
		return nil, err
	}

	defaultLat, err := parseFloat("DEFAULT_LATITUDE", 23.81)
	if err != nil {
		return nil, err
	}
	defaultLon, err := parseFloat("DEFAULT_LONGITUDE", 90.41)
	if err != nil {
		return nil, err
	}

	kafkaBrokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(kafkaBrokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		OpenWeatherAPIKey:  os.Getenv("OPENWEATHER_API_KEY"),
		OpenWeatherBaseURL: envOrDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5/weather"),
		OpenWeatherTimeout: openWeatherTimeout,

		WeatherCacheTTL:   cacheTTL,
		WeatherDailyLimit: dailyLimit,

		DefaultLatitude:  defaultLat,
		DefaultLongitude: defaultLon,

		SuppressionWindow: suppressionWindow,
		BatchGroupSize:    groupSize,
		AlertCron:         envOrDefault("ALERT_CRON", "0 6 * * *"),

		DBPath: os.Getenv("DB_PATH"),

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: kafkaBrokers,
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "farm-advisories"),
	}

	if cfg.OpenWeatherAPIKey == "" {
		return nil, fmt.Errorf("OPENWEATHER_API_KEY is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return f, nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
