// ABOUTME: Centralized configuration for the recall tracker
// ABOUTME: Loads .env, an optional YAML file, then environment overrides with validation
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the tracker
type Config struct {
	// Server settings
	DatabaseURL string `yaml:"database_url"`
	HTTPAddr    string `yaml:"http_addr"`
	FrontendURL string `yaml:"frontend_url"`
	LogMode     string `yaml:"log_mode"`

	// Identity settings
	Auth0Domain   string `yaml:"auth0_domain"`
	Auth0Audience string `yaml:"auth0_audience"`
	AuthDisabled  bool   `yaml:"auth_disabled"`

	// Email settings
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	EmailFrom      string `yaml:"email_from"`
	EmailFromName  string `yaml:"email_from_name"`

	// Embedding settings
	OpenAIKey         string        `yaml:"openai_api_key"`
	OpenAIBaseURL     string        `yaml:"openai_base_url"`
	EmbeddingProvider string        `yaml:"embedding_provider"`
	EmbeddingModel    string        `yaml:"embedding_model"`
	VectorDimension   int           `yaml:"vector_dimension"`
	EmbedConcurrency  int           `yaml:"embed_concurrency"`
	Timeout           time.Duration `yaml:"openai_timeout"`
	MaxRetries        int           `yaml:"openai_max_retries"`
	RetryDelay        time.Duration `yaml:"openai_retry_delay"`
	EmbeddingCache    string        `yaml:"embedding_cache"`
	CharmHost         string        `yaml:"charm_host"`
	CharmDBName       string        `yaml:"charm_db"`
	CharmAutoSync     bool          `yaml:"charm_autosync"`

	// Recall settings
	CompareThreshold float64 `yaml:"compare_threshold"`
	MaxPoints        int     `yaml:"max_points"`
	TrendHigh        float64 `yaml:"trend_high"`
	TrendLow         float64 `yaml:"trend_low"`
	TrendWindow      int     `yaml:"trend_window"`

	// Reminder settings
	ReminderSchedule string `yaml:"reminder_schedule"`
	Timezone         string `yaml:"timezone"`
	SweepFailFast    bool   `yaml:"sweep_fail_fast"`

	// MCP settings
	MCPUserSubject string `yaml:"mcp_user_sub"`
	MCPUserEmail   string `yaml:"mcp_user_email"`
}

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	return &Config{
		DatabaseURL:       "sqlite://" + filepath.Join(DefaultDataDir(), "tracker.db"),
		HTTPAddr:          ":8000",
		FrontendURL:       "http://localhost:5173",
		LogMode:           "development",
		EmailFrom:         "no-reply@example.com",
		EmailFromName:     "123tracker",
		EmbeddingProvider: "openai",
		EmbeddingModel:    "text-embedding-3-small",
		VectorDimension:   384,
		EmbedConcurrency:  4,
		Timeout:           30 * time.Second,
		MaxRetries:        3,
		RetryDelay:        2 * time.Second,
		EmbeddingCache:    "none",
		CharmHost:         "cloud.charm.sh",
		CharmDBName:       "recall-tracker",
		CompareThreshold:  0.80,
		MaxPoints:         200,
		TrendHigh:         85,
		TrendLow:          60,
		TrendWindow:       10,
		ReminderSchedule:  "0 8 * * *",
		Timezone:          "UTC",
		MCPUserSubject:    "local|mcp",
	}
}

// Load reads configuration from .env, the optional TRACKER_CONFIG file and the environment
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("TRACKER_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	return cfg, cfg.Validate()
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	if port := os.Getenv("PORT"); port != "" && os.Getenv("HTTP_ADDR") == "" {
		c.HTTPAddr = ":" + port
	}
	c.FrontendURL = getEnv("FRONTEND_URL", c.FrontendURL)
	c.LogMode = getEnv("LOG_MODE", c.LogMode)

	c.Auth0Domain = getEnv("AUTH0_DOMAIN", c.Auth0Domain)
	c.Auth0Audience = getEnv("AUTH0_AUDIENCE", c.Auth0Audience)
	c.AuthDisabled = getEnvBool("AUTH_DISABLED", c.AuthDisabled)

	c.SendGridAPIKey = getEnv("SENDGRID_API_KEY", c.SendGridAPIKey)
	c.EmailFrom = getEnv("EMAIL_FROM", c.EmailFrom)
	c.EmailFromName = getEnv("EMAIL_FROM_NAME", c.EmailFromName)

	c.OpenAIKey = getEnv("OPENAI_API_KEY", c.OpenAIKey)
	c.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", c.OpenAIBaseURL)
	c.EmbeddingProvider = strings.ToLower(getEnv("EMBEDDING_PROVIDER", c.EmbeddingProvider))
	c.EmbeddingModel = getEnv("EMBEDDING_MODEL", c.EmbeddingModel)
	c.VectorDimension = getEnvInt("VECTOR_DIMENSION", c.VectorDimension)
	c.EmbedConcurrency = getEnvInt("EMBED_CONCURRENCY", c.EmbedConcurrency)
	c.Timeout = getEnvDuration("OPENAI_TIMEOUT", c.Timeout)
	c.MaxRetries = getEnvInt("OPENAI_MAX_RETRIES", c.MaxRetries)
	c.RetryDelay = getEnvDuration("OPENAI_RETRY_DELAY", c.RetryDelay)
	c.EmbeddingCache = strings.ToLower(getEnv("EMBEDDING_CACHE", c.EmbeddingCache))
	c.CharmHost = getEnv("CHARM_HOST", c.CharmHost)
	c.CharmDBName = getEnv("CHARM_DB", c.CharmDBName)
	c.CharmAutoSync = getEnvBool("CHARM_AUTOSYNC", c.CharmAutoSync)

	c.CompareThreshold = getEnvFloat("COMPARE_THRESHOLD", c.CompareThreshold)
	c.MaxPoints = getEnvInt("MAX_POINTS", c.MaxPoints)
	c.TrendHigh = getEnvFloat("TREND_HIGH", c.TrendHigh)
	c.TrendLow = getEnvFloat("TREND_LOW", c.TrendLow)
	c.TrendWindow = getEnvInt("TREND_WINDOW", c.TrendWindow)

	c.ReminderSchedule = getEnv("REMINDER_SCHEDULE", c.ReminderSchedule)
	c.Timezone = getEnv("TIMEZONE", c.Timezone)
	c.SweepFailFast = getEnvBool("SWEEP_FAIL_FAST", c.SweepFailFast)

	c.MCPUserSubject = getEnv("MCP_USER_SUB", c.MCPUserSubject)
	c.MCPUserEmail = getEnv("MCP_USER_EMAIL", c.MCPUserEmail)
}

func (c *Config) Validate() error {
	if c.CompareThreshold < -1 || c.CompareThreshold > 1 {
		return fmt.Errorf("COMPARE_THRESHOLD must be -1..1, got %f", c.CompareThreshold)
	}
	if c.MaxPoints <= 0 {
		return fmt.Errorf("MAX_POINTS must be positive, got %d", c.MaxPoints)
	}
	if c.TrendLow > c.TrendHigh {
		return fmt.Errorf("TREND_LOW (%g) must not exceed TREND_HIGH (%g)", c.TrendLow, c.TrendHigh)
	}
	if c.TrendWindow <= 0 {
		return fmt.Errorf("TREND_WINDOW must be positive, got %d", c.TrendWindow)
	}
	if c.VectorDimension <= 0 {
		return fmt.Errorf("VECTOR_DIMENSION must be positive, got %d", c.VectorDimension)
	}
	if c.EmbedConcurrency <= 0 {
		return fmt.Errorf("EMBED_CONCURRENCY must be positive, got %d", c.EmbedConcurrency)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("OPENAI_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	switch c.EmbeddingProvider {
	case "openai", "hash":
	default:
		return fmt.Errorf("EMBEDDING_PROVIDER must be openai or hash, got %q", c.EmbeddingProvider)
	}
	switch c.EmbeddingCache {
	case "none", "charm":
	default:
		return fmt.Errorf("EMBEDDING_CACHE must be none or charm, got %q", c.EmbeddingCache)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the timezone used to decide what "today" is
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Auth0Issuer returns the expected token issuer, empty when Auth0 is not configured
func (c *Config) Auth0Issuer() string {
	if c.Auth0Domain == "" {
		return ""
	}
	return "https://" + c.Auth0Domain + "/"
}

// DefaultDataDir returns the default data directory following the XDG spec
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ".local/share/recall-tracker"
		}
		dataHome = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataHome, "recall-tracker")
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
