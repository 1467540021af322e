package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures the runtime configuration for the Kickstart client.
type Config struct {
	APIBaseURL     string
	RequestTimeout time.Duration
	DataDir        string
	LogLevel       string

	StreamMaxRetries  int
	StreamMaxInterval time.Duration

	RequestsPerSecond float64
	RequestBurst      int

	EnableGoogleSignIn bool
	EnableAppleSignIn  bool
	EnableGuestMode    bool

	AppName    string
	AppVersion string
}

// Load reads configuration from the environment, applying sensible defaults
// for local development while allowing overrides through environment
// variables. A .env file in the working directory is loaded first when
// present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		APIBaseURL:     getString("KICKSTART_API_BASE_URL", "https://api.kickstart.app/api/v1"),
		RequestTimeout: getDuration("KICKSTART_REQUEST_TIMEOUT", 30*time.Second),
		DataDir:        getString("KICKSTART_DATA_DIR", defaultDataDir()),
		LogLevel:       getString("KICKSTART_LOG_LEVEL", "info"),

		StreamMaxRetries:  getInt("KICKSTART_STREAM_MAX_RETRIES", 8),
		StreamMaxInterval: getDuration("KICKSTART_STREAM_MAX_INTERVAL", 2*time.Minute),

		RequestsPerSecond: getFloat("KICKSTART_REQUESTS_PER_SECOND", 10),
		RequestBurst:      getInt("KICKSTART_REQUEST_BURST", 20),

		EnableGoogleSignIn: getBool("KICKSTART_ENABLE_GOOGLE_SIGNIN", false),
		EnableAppleSignIn:  getBool("KICKSTART_ENABLE_APPLE_SIGNIN", false),
		EnableGuestMode:    getBool("KICKSTART_ENABLE_GUEST_MODE", false),

		AppName:    getString("KICKSTART_APP_NAME", "Kickstart"),
		AppVersion: getString("KICKSTART_APP_VERSION", "1.0.0"),
	}

	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	return cfg, nil
}

func defaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ".kickstart"
	}
	return filepath.Join(base, "kickstart")
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return strings.EqualFold(value, "true") || value == "1"
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
