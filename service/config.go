package service

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Port        string
	BaseURL     string
	LogLevel    string

	Backend struct {
		URL     string
		Timeout time.Duration
		// AdminUpdateEndpoint sends admin user edits to PUT /admin/users/:id.
		AdminUpdateEndpoint bool
	}

	Session struct {
		Secret   string
		CacheTTL time.Duration
	}

	Shell struct {
		Enabled         bool
		StartupFloor    time.Duration
		NavigationFloor time.Duration
		IdleTTL         time.Duration
	}

	// GuestGateFailClosed answers a failed session query on guest pages with
	// an error page instead of letting the visitor through.
	GuestGateFailClosed bool

	Upload struct {
		MaxSize int64
	}
}

func LoadConfig() (*Config, error) {
	// .env files are optional; real environment variables win
	for _, file := range []string{".env.local", ".env"} {
		_ = godotenv.Load(file)
	}

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Port:        getEnv("PORT", "8000"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8000"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}

	// Backend
	config.Backend.URL = getEnv("BACKEND_URL", "http://localhost:5000/api")
	config.Backend.Timeout = getDuration("BACKEND_TIMEOUT", 60*time.Second)
	config.Backend.AdminUpdateEndpoint = getBool("ADMIN_UPDATE_ENDPOINT", false)

	// Session
	config.Session.Secret = getEnv("SESSION_SECRET", "development-secret")
	config.Session.CacheTTL = getDuration("SESSION_CACHE_TTL", 5*time.Second)

	// App shell
	config.Shell.Enabled = getBool("SHELL_ENABLED", true)
	config.Shell.StartupFloor = getDuration("SHELL_STARTUP_FLOOR", 2*time.Second)
	config.Shell.NavigationFloor = getDuration("SHELL_NAVIGATION_FLOOR", time.Second)
	config.Shell.IdleTTL = getDuration("SHELL_IDLE_TTL", 30*time.Minute)

	config.GuestGateFailClosed = getBool("GUEST_GATE_FAIL_CLOSED", false)

	// Upload
	maxSize := getEnv("UPLOAD_MAX_SIZE", "10485760") // 10MB default
	if size, err := strconv.ParseInt(maxSize, 10, 64); err == nil {
		config.Upload.MaxSize = size
	} else {
		config.Upload.MaxSize = 10485760
	}

	if config.IsProduction() && config.Session.Secret == "development-secret" {
		slog.Warn("SESSION_SECRET is not set, using the development secret")
	}

	return config, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("invalid duration, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}
	return d
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		slog.Warn("invalid boolean, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}
	return b
}
