// Package config loads the chores configuration from YAML and the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"familychores/internal/blob"
	"familychores/internal/core"

	"gopkg.in/yaml.v3"
)

// Config is the complete chores configuration.
type Config struct {
	// Mode selects the persistence adapter: rest, local, memory, sqlite or postgres.
	Mode     string         `yaml:"mode"`
	API      APIConfig      `yaml:"api"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
	Blob     BlobConfig     `yaml:"blob"`
	Server   ServerConfig   `yaml:"server"`
	// ErrorTTL is how long a failure message stays visible.
	ErrorTTL time.Duration `yaml:"error_ttl"`
	LogLevel string        `yaml:"log_level"`
}

// APIConfig configures the REST adapter.
type APIConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// SQLiteConfig configures the sqlite backend.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig configures the postgres backend.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// BlobConfig configures the blob store used by local mode.
type BlobConfig struct {
	Driver string        `yaml:"driver"`
	FSRoot string        `yaml:"fs_root"`
	S3     blob.S3Config `yaml:"s3"`
}

// ServerConfig configures `chores serve`.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	// Backend is the storage mode behind the served API; rest is not allowed.
	Backend string `yaml:"backend"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Mode: string(core.ModeLocal),
		API: APIConfig{
			URL:     "http://localhost:3001/api",
			Timeout: 10 * time.Second,
		},
		SQLite: SQLiteConfig{Path: "familychores.db"},
		Blob: BlobConfig{
			Driver: string(blob.DriverFilesystem),
			FSRoot: "blobdata",
		},
		Server: ServerConfig{
			ListenAddr: ":3001",
			Backend:    string(core.ModeMemory),
		},
		ErrorTTL: core.DefaultErrorTTL,
		LogLevel: "info",
	}
}

var modes = map[string]bool{
	string(core.ModeREST):     true,
	string(core.ModeLocal):    true,
	string(core.ModeMemory):   true,
	string(core.ModeSQLite):   true,
	string(core.ModePostgres): true,
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if !modes[c.Mode] {
		return fmt.Errorf("mode %q is not one of rest, local, memory, sqlite, postgres", c.Mode)
	}
	if c.Mode == string(core.ModeREST) && c.API.URL == "" {
		return fmt.Errorf("api.url is required in rest mode")
	}
	if c.Mode == string(core.ModePostgres) && c.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn is required in postgres mode")
	}
	switch blob.Driver(c.Blob.Driver) {
	case blob.DriverFilesystem, blob.DriverMemory, "":
	case blob.DriverS3:
		if c.Mode == string(core.ModeLocal) && c.Blob.S3.Bucket == "" {
			return fmt.Errorf("blob.s3.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("blob.driver %q is not one of fs, s3, memory", c.Blob.Driver)
	}
	if c.Server.Backend == string(core.ModeREST) || (c.Server.Backend != "" && !modes[c.Server.Backend]) {
		return fmt.Errorf("server.backend %q cannot back the API", c.Server.Backend)
	}
	if c.ErrorTTL < 0 {
		return fmt.Errorf("error_ttl must not be negative")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from CHORES_* variables found by lookup
// (os.LookupEnv in production):
//
//	CHORES_MODE, CHORES_API_URL, CHORES_API_TIMEOUT, CHORES_SQLITE_PATH,
//	CHORES_POSTGRES_DSN, CHORES_LISTEN_ADDR, CHORES_SERVER_BACKEND,
//	CHORES_ERROR_TTL, CHORES_LOG_LEVEL, CHORES_BLOB_DRIVER, CHORES_BLOB_FS_ROOT,
//	CHORES_BLOB_S3_BUCKET, CHORES_BLOB_S3_REGION, CHORES_BLOB_S3_ENDPOINT,
//	CHORES_BLOB_S3_PATH_STYLE, CHORES_BLOB_S3_ACCESS_KEY_ID, CHORES_BLOB_S3_SECRET_ACCESS_KEY
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	strs := map[string]*string{
		"CHORES_MODE":                      &c.Mode,
		"CHORES_API_URL":                   &c.API.URL,
		"CHORES_SQLITE_PATH":               &c.SQLite.Path,
		"CHORES_POSTGRES_DSN":              &c.Postgres.DSN,
		"CHORES_LISTEN_ADDR":               &c.Server.ListenAddr,
		"CHORES_SERVER_BACKEND":            &c.Server.Backend,
		"CHORES_LOG_LEVEL":                 &c.LogLevel,
		"CHORES_BLOB_DRIVER":               &c.Blob.Driver,
		"CHORES_BLOB_FS_ROOT":              &c.Blob.FSRoot,
		"CHORES_BLOB_S3_BUCKET":            &c.Blob.S3.Bucket,
		"CHORES_BLOB_S3_REGION":            &c.Blob.S3.Region,
		"CHORES_BLOB_S3_ENDPOINT":          &c.Blob.S3.Endpoint,
		"CHORES_BLOB_S3_ACCESS_KEY_ID":     &c.Blob.S3.AccessKeyID,
		"CHORES_BLOB_S3_SECRET_ACCESS_KEY": &c.Blob.S3.SecretAccessKey,
	}
	for key, field := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*field = v
		}
	}
	durations := map[string]*time.Duration{
		"CHORES_API_TIMEOUT": &c.API.Timeout,
		"CHORES_ERROR_TTL":   &c.ErrorTTL,
	}
	for key, field := range durations {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*field = d
	}
	if v, ok := lookup("CHORES_BLOB_S3_PATH_STYLE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CHORES_BLOB_S3_PATH_STYLE: %w", err)
		}
		c.Blob.S3.PathStyle = b
	}
	return nil
}

// Load reads path when non-empty and applies the environment. Callers validate after
// applying their own overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// StorageOptions maps the configuration onto core.OpenAdapter options for mode.
func (c *Config) StorageOptions(mode string) core.StorageOptions {
	return core.StorageOptions{
		Mode:        core.StorageMode(mode),
		APIURL:      c.API.URL,
		HTTPTimeout: c.API.Timeout,
		SQLitePath:  c.SQLite.Path,
		PostgresDSN: c.Postgres.DSN,
		Blob: blob.Options{
			Driver: blob.Driver(c.Blob.Driver),
			FSRoot: c.Blob.FSRoot,
			S3:     c.Blob.S3,
		},
	}
}

// ParseLevel maps debug, info, warn or error onto a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}
