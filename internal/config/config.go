package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the API, poller and CLI tools
type Config struct {
	// HTTP
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	StaticDir      string   `yaml:"static_dir"`

	// Dataset source: a .xlsx/.csv path or an http(s) CSV export URL.
	// When empty the API reads the latest snapshot from the database.
	SheetSource string `yaml:"sheet_source"`
	SheetName   string `yaml:"sheet_name"`

	// Storage
	DatabasePath string `yaml:"database_path"`
	DatabaseURL  string `yaml:"database_url"` // Postgres, takes precedence over SQLite when set

	// Cache window and refresh
	CacheTTL          time.Duration `yaml:"-"`
	PollInterval      time.Duration `yaml:"-"`
	RefreshInterval   time.Duration `yaml:"-"`
	SnapshotRetention int           `yaml:"snapshot_retention"`
	FetchTimeout      time.Duration `yaml:"-"`

	// Durations in the YAML file are plain integers
	CacheTTLSeconds        int `yaml:"cache_ttl_seconds"`
	PollIntervalSeconds    int `yaml:"poll_interval_seconds"`
	RefreshIntervalMinutes int `yaml:"refresh_interval_minutes"`
	FetchTimeoutSeconds    int `yaml:"fetch_timeout_seconds"`

	// Column headers of the sheet, keyed by field name (city, region, ...)
	Columns map[string]string `yaml:"columns"`
}

// Load reads configuration from .env files, an optional YAML file and
// environment variables, in that order of increasing precedence
func Load() *Config {
	// Base .env first, then .env.local overrides for local development
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			log.Printf("Warning: failed to read config file %s: %v", path, err)
		} else {
			log.Printf("Config file loaded: %s", path)
		}
	}

	cfg.applyEnv()
	return cfg
}

func defaults() *Config {
	return &Config{
		Port:                   "8081",
		AllowedOrigins:         []string{"http://localhost:5173"},
		DatabasePath:           "data/ado.db",
		CacheTTLSeconds:        600,
		PollIntervalSeconds:    300,
		RefreshIntervalMinutes: 10,
		SnapshotRetention:      5,
		FetchTimeoutSeconds:    30,
	}
}

// loadFile overlays values from a YAML file onto cfg
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	// HTTP
	c.Port = getEnv("PORT", c.Port)
	c.StaticDir = getEnv("STATIC_DIR", c.StaticDir)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.AllowedOrigins = splitList(origins)
	}

	// Dataset source
	c.SheetSource = getEnv("SHEET_SOURCE", c.SheetSource)
	c.SheetName = getEnv("SHEET_NAME", c.SheetName)

	// Storage
	c.DatabasePath = getEnv("SQLITE_DATABASE", c.DatabasePath)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)

	// Cache window and refresh
	c.CacheTTLSeconds = getEnvInt("CACHE_TTL", c.CacheTTLSeconds)
	c.PollIntervalSeconds = getEnvInt("POLL_INTERVAL", c.PollIntervalSeconds)
	c.RefreshIntervalMinutes = getEnvInt("REFRESH_INTERVAL_MINUTES", c.RefreshIntervalMinutes)
	c.SnapshotRetention = getEnvInt("SNAPSHOT_RETENTION", c.SnapshotRetention)
	c.FetchTimeoutSeconds = getEnvInt("FETCH_TIMEOUT", c.FetchTimeoutSeconds)
	c.clampIntervals()

	// Derived durations
	c.CacheTTL = time.Duration(c.CacheTTLSeconds) * time.Second
	c.PollInterval = time.Duration(c.PollIntervalSeconds) * time.Second
	c.RefreshInterval = time.Duration(c.RefreshIntervalMinutes) * time.Minute
	c.FetchTimeout = time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// clampIntervals resets non-positive windows to their defaults.
// time.NewTicker panics on a zero interval.
func (c *Config) clampIntervals() {
	d := defaults()
	positive := []struct {
		name  string
		value *int
		def   int
	}{
		{"cache TTL", &c.CacheTTLSeconds, d.CacheTTLSeconds},
		{"poll interval", &c.PollIntervalSeconds, d.PollIntervalSeconds},
		{"refresh interval", &c.RefreshIntervalMinutes, d.RefreshIntervalMinutes},
		{"snapshot retention", &c.SnapshotRetention, d.SnapshotRetention},
		{"fetch timeout", &c.FetchTimeoutSeconds, d.FetchTimeoutSeconds},
	}
	for _, p := range positive {
		if *p.value <= 0 {
			log.Printf("Warning: %s must be positive, got %d, using %d", p.name, *p.value, p.def)
			*p.value = p.def
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
