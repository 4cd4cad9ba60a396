package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/yukikurage/workload-dashboard/internal/constants"
	"github.com/yukikurage/workload-dashboard/internal/credentials"
)

type Config struct {
	// Server
	Port      string
	GinMode   string
	LogLevel  string
	LogFormat string

	// Wrike
	WrikeHost            string
	WrikeBaseURL         string
	WrikeClientID        string
	WrikeClientSecret    string
	WrikeAccessToken     string
	WrikeRefreshToken    string
	WrikeTokenURL        string
	PlanningContactID    string
	PlanningMentionLabel string
	CredentialsFile      string
	HTTPTimeout          time.Duration

	// Breaker
	BreakerEnabled          bool
	BreakerFailureThreshold int
	BreakerOpenTimeout      time.Duration

	// Cache and fan-out
	CacheTTL         time.Duration
	FetchConcurrency int
	RedisURL         string

	// Action log sink
	AMQPURL      string
	AMQPExchange string

	// Workload
	DefaultCapacityHours    float64
	TeamsFile               string
	CancelStatuses          []string
	CleanupMaxHours         float64
	StaleCleanupMaxHours    float64
	StaleAfterDays          int
	RescheduleCapacityRatio float64
}

// Load reads the environment after applying an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:      getEnv("PORT", "8788"),
		GinMode:   getEnv("GIN_MODE", "debug"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		WrikeHost:            getEnv(credentials.KeyHost, ""),
		WrikeBaseURL:         getEnv("WRIKE_BASE_URL", ""),
		WrikeClientID:        getEnv("WRIKE_CLIENT_ID", ""),
		WrikeClientSecret:    getEnv("WRIKE_CLIENT_SECRET", ""),
		WrikeAccessToken:     getEnv(credentials.KeyAccessToken, getEnv(credentials.KeyToken, "")),
		WrikeRefreshToken:    getEnv(credentials.KeyRefreshToken, ""),
		WrikeTokenURL:        getEnv("WRIKE_TOKEN_URL", ""),
		PlanningContactID:    getEnv("WRIKE_PLANNING_CONTACT_ID", ""),
		PlanningMentionLabel: getEnv("WRIKE_PLANNING_MENTION_LABEL", "Planning"),
		CredentialsFile:      getEnv("CREDENTIALS_FILE", ".env/.env.local"),
		HTTPTimeout:          getDurationEnv("HTTP_TIMEOUT", constants.DefaultHTTPTimeout),

		BreakerEnabled:          getBoolEnv("BREAKER_ENABLED", false),
		BreakerFailureThreshold: getIntEnv("BREAKER_FAILURE_THRESHOLD", 5),
		BreakerOpenTimeout:      getDurationEnv("BREAKER_OPEN_TIMEOUT", 30*time.Second),

		CacheTTL:         getDurationEnv("CACHE_TTL", constants.DefaultCacheTTL),
		FetchConcurrency: getIntEnv("FETCH_CONCURRENCY", constants.FetchConcurrency),
		RedisURL:         getEnv("REDIS_URL", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "workload.actions"),

		DefaultCapacityHours:    getFloatEnv("DEFAULT_CAPACITY_HOURS", constants.DefaultCapacityHours),
		TeamsFile:               getEnv("TEAMS_FILE", ""),
		CancelStatuses:          getListEnv("CANCEL_STATUSES", []string{"Cancelled", "Canceled"}),
		CleanupMaxHours:         getFloatEnv("CLEANUP_MAX_HOURS", constants.CleanupMaxHours),
		StaleCleanupMaxHours:    getFloatEnv("STALE_CLEANUP_MAX_HOURS", constants.StaleCleanupMaxHours),
		StaleAfterDays:          getIntEnv("STALE_AFTER_DAYS", constants.StaleAfterDays),
		RescheduleCapacityRatio: getFloatEnv("RESCHEDULE_CAPACITY_RATIO", constants.RescheduleCapacityRatio),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the services cannot run with.
func (c *Config) Validate() error {
	if c.DefaultCapacityHours <= 0 {
		return fmt.Errorf("DEFAULT_CAPACITY_HOURS must be positive, got %v", c.DefaultCapacityHours)
	}
	if c.FetchConcurrency <= 0 {
		return fmt.Errorf("FETCH_CONCURRENCY must be positive, got %d", c.FetchConcurrency)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}
	if c.BreakerEnabled && c.BreakerFailureThreshold <= 0 {
		return fmt.Errorf("BREAKER_FAILURE_THRESHOLD must be positive, got %d", c.BreakerFailureThreshold)
	}
	if len(c.CancelStatuses) == 0 {
		return fmt.Errorf("CANCEL_STATUSES must name at least one status")
	}
	return nil
}

// InitialCredentials are the Wrike credentials given through the
// environment. The credential file may override them at runtime.
func (c *Config) InitialCredentials() credentials.Credentials {
	return credentials.Credentials{
		Host:         c.WrikeHost,
		AccessToken:  c.WrikeAccessToken,
		RefreshToken: c.WrikeRefreshToken,
	}
}

func (c *Config) IsRelease() bool {
	return c.GinMode == "release"
}

func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntEnv(key string, defaultValue int) int {
	if value := getEnv(key, ""); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := getEnv(key, ""); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := getEnv(key, ""); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := getEnv(key, ""); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getListEnv splits a comma-separated value, dropping empty items.
func getListEnv(key string, defaultValue []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
