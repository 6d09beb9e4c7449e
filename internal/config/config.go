package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Property source backends.
const (
	SourceDatabase = "database"
	SourceUpstream = "upstream"
)

// Bookmark store backends.
const (
	StoreLocal  = "local"
	StoreRemote = "remote"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Source    SourceConfig
	Local     LocalConfig
	Map       MapConfig
	Report    ReportConfig
	Scheduler SchedulerConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	PoolMin  int
	PoolMax  int

	// MaxConnLifetime bounds how long a pooled connection is reused.
	MaxConnLifetime time.Duration
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// SourceConfig selects where property data comes from.
type SourceConfig struct {
	Kind        string
	UpstreamURL string
	Timeout     time.Duration
}

// LocalConfig configures the device-local key/value store.
type LocalConfig struct {
	StorePath     string
	BookmarkStore string
}

// MapConfig holds map defaults.
type MapConfig struct {
	BracketsFile    string
	DefaultLat      float64
	DefaultLng      float64
	HeatmapDivisor  float64
	DefaultZoom     int
	ClusterMediumAt int
	ClusterLargeAt  int
}

// ReportConfig configures report rendering and optional upload.
type ReportConfig struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	ChartTimeout    time.Duration
}

// UploadEnabled reports whether generated PDFs should be pushed to object storage.
func (r ReportConfig) UploadEnabled() bool {
	return r.Bucket != ""
}

// SchedulerConfig configures background jobs.
type SchedulerConfig struct {
	SweepCron      string
	SessionIdleTTL time.Duration
}

// Load reads configuration from a .env file (if present) and environment variables.
// It uses viper to read values and provides sensible defaults for development.
func Load() (*Config, error) {
	// Real environment wins over .env; a missing file is fine.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	// Set defaults for development
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("DB_HOST", "host.docker.internal")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "wealthmap")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONN_LIFETIME", "1h")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001")
	v.SetDefault("PROPERTY_SOURCE", SourceDatabase)
	v.SetDefault("UPSTREAM_TIMEOUT", "10s")
	v.SetDefault("LOCAL_STORE_PATH", "wealthmap-local.db")
	v.SetDefault("BOOKMARK_STORE", StoreLocal)
	v.SetDefault("MAP_DEFAULT_LAT", 39.8283)
	v.SetDefault("MAP_DEFAULT_LNG", -98.5795)
	v.SetDefault("MAP_DEFAULT_ZOOM", 4)
	v.SetDefault("HEATMAP_DIVISOR", 1000000.0)
	v.SetDefault("CLUSTER_MEDIUM_AT", 10)
	v.SetDefault("CLUSTER_LARGE_AT", 100)
	v.SetDefault("REPORT_CHART_TIMEOUT", "5s")
	v.SetDefault("REPORT_REGION", "us-east-1")
	v.SetDefault("SESSION_SWEEP_CRON", "@every 5m")
	v.SetDefault("SESSION_IDLE_TTL", "30m")

	// Bind environment variables
	v.AutomaticEnv()

	// Build configuration
	cfg := &Config{
		Server: ServerConfig{
			Port:     v.GetString("PORT"),
			Env:      v.GetString("ENV"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			SSLMode:  strings.ToLower(v.GetString("DB_SSLMODE")),
			PoolMin:  v.GetInt("DB_POOL_MIN"),
			PoolMax:  v.GetInt("DB_POOL_MAX"),

			MaxConnLifetime: v.GetDuration("DB_MAX_CONN_LIFETIME"),
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
		Source: SourceConfig{
			Kind:        strings.ToLower(v.GetString("PROPERTY_SOURCE")),
			UpstreamURL: v.GetString("UPSTREAM_URL"),
			Timeout:     v.GetDuration("UPSTREAM_TIMEOUT"),
		},
		Local: LocalConfig{
			StorePath:     v.GetString("LOCAL_STORE_PATH"),
			BookmarkStore: strings.ToLower(v.GetString("BOOKMARK_STORE")),
		},
		Map: MapConfig{
			DefaultLat:     v.GetFloat64("MAP_DEFAULT_LAT"),
			DefaultLng:     v.GetFloat64("MAP_DEFAULT_LNG"),
			DefaultZoom:    v.GetInt("MAP_DEFAULT_ZOOM"),
			HeatmapDivisor: v.GetFloat64("HEATMAP_DIVISOR"),
			BracketsFile:   v.GetString("BRACKETS_FILE"),

			ClusterMediumAt: v.GetInt("CLUSTER_MEDIUM_AT"),
			ClusterLargeAt:  v.GetInt("CLUSTER_LARGE_AT"),
		},
		Report: ReportConfig{
			ChartTimeout:    v.GetDuration("REPORT_CHART_TIMEOUT"),
			Bucket:          v.GetString("REPORT_BUCKET"),
			Region:          v.GetString("REPORT_REGION"),
			Endpoint:        v.GetString("REPORT_ENDPOINT"),
			AccessKeyID:     v.GetString("REPORT_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("REPORT_SECRET_ACCESS_KEY"),
		},
		Scheduler: SchedulerConfig{
			SweepCron:      v.GetString("SESSION_SWEEP_CRON"),
			SessionIdleTTL: v.GetDuration("SESSION_IDLE_TTL"),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	// Validate database config
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Database.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if c.Database.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if c.Database.PoolMin > c.Database.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}
	switch c.Database.SSLMode {
	case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
	default:
		return fmt.Errorf("DB_SSLMODE %q is not a libpq sslmode", c.Database.SSLMode)
	}
	if c.Database.MaxConnLifetime <= 0 {
		return fmt.Errorf("DB_MAX_CONN_LIFETIME must be positive")
	}

	// Validate CORS config
	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	// Validate property source
	switch c.Source.Kind {
	case SourceDatabase:
	case SourceUpstream:
		if c.Source.UpstreamURL == "" {
			return fmt.Errorf("UPSTREAM_URL is required when PROPERTY_SOURCE is %s", SourceUpstream)
		}
	default:
		return fmt.Errorf("PROPERTY_SOURCE must be %s or %s, got %q", SourceDatabase, SourceUpstream, c.Source.Kind)
	}
	if c.Source.Timeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be positive")
	}

	// Validate local store
	switch c.Local.BookmarkStore {
	case StoreLocal:
		if c.Local.StorePath == "" {
			return fmt.Errorf("LOCAL_STORE_PATH is required when BOOKMARK_STORE is %s", StoreLocal)
		}
	case StoreRemote:
	default:
		return fmt.Errorf("BOOKMARK_STORE must be %s or %s, got %q", StoreLocal, StoreRemote, c.Local.BookmarkStore)
	}

	// Validate map defaults
	if c.Map.DefaultLat < -90 || c.Map.DefaultLat > 90 {
		return fmt.Errorf("MAP_DEFAULT_LAT must be between -90 and 90")
	}
	if c.Map.DefaultLng < -180 || c.Map.DefaultLng > 180 {
		return fmt.Errorf("MAP_DEFAULT_LNG must be between -180 and 180")
	}
	if c.Map.DefaultZoom < 0 || c.Map.DefaultZoom > 22 {
		return fmt.Errorf("MAP_DEFAULT_ZOOM must be between 0 and 22")
	}
	if c.Map.HeatmapDivisor <= 0 {
		return fmt.Errorf("HEATMAP_DIVISOR must be positive")
	}
	if c.Map.ClusterMediumAt < 1 || c.Map.ClusterLargeAt <= c.Map.ClusterMediumAt {
		return fmt.Errorf("CLUSTER_LARGE_AT must exceed CLUSTER_MEDIUM_AT, and both must be positive")
	}

	// Validate report config
	if c.Report.ChartTimeout <= 0 {
		return fmt.Errorf("REPORT_CHART_TIMEOUT must be positive")
	}

	// Validate scheduler config
	if c.Scheduler.SweepCron == "" {
		return fmt.Errorf("SESSION_SWEEP_CRON is required")
	}
	if c.Scheduler.SessionIdleTTL <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL must be positive")
	}

	return nil
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
