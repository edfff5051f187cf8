// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Cache backends.
const (
	CacheBackendSQLite = "sqlite"
	CacheBackendBadger = "badger"
)

// Config holds the application configuration.
type Config struct {
	App    AppConfig
	Logger LoggerConfig
	Data   DataConfig
	Server ServerConfig
	GBIF   GBIFConfig
	Cache  CacheConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds on-disk storage locations.
type DataConfig struct {
	BasePath string // catalog.db, cache.badger/ and search.bleve live here
}

// DatabasePath returns the SQLite catalog path.
func (d DataConfig) DatabasePath() string {
	return filepath.Join(d.BasePath, "catalog.db")
}

// BadgerPath returns the directory of the Badger lookup cache.
func (d DataConfig) BadgerPath() string {
	return filepath.Join(d.BasePath, "cache.badger")
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port               string        // default: 8080
	ReadTimeout        time.Duration // default: 15s
	WriteTimeout       time.Duration // default: 15s
	IdleTimeout        time.Duration // default: 60s
	CORSAllowedOrigins []string      // default: *
	LookupPerMinute    int           // species lookups per client IP per minute, 0 disables
}

// GBIFConfig holds species lookup service configuration.
type GBIFConfig struct {
	BaseURL        string
	ConnectTimeout time.Duration // default: 4s
	ReadTimeout    time.Duration // default: 4s
	RateLimitRPS   float64
	RateLimitBurst int
	UserAgent      string
}

// CacheConfig holds lookup cache configuration.
type CacheConfig struct {
	Backend      string        // sqlite or badger
	CandidateTTL time.Duration // how long offered candidates stay selectable by usage key
}

// flagValues holds raw command-line values. Empty strings fall through to env.
type flagValues struct {
	env, logLevel, dataPath, envFile                   string
	port, readTimeout, writeTimeout, idleTimeout, cors string
	gbifBaseURL, gbifConnectTimeout, gbifReadTimeout   string
	gbifRPS, gbifBurst                                 string
	cacheBackend, candidateTTL                         string
	lookupPerMinute                                    string
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	var fv flagValues
	flag.StringVar(&fv.env, "env", "", "Environment (development, staging, production)")
	flag.StringVar(&fv.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&fv.dataPath, "data-path", "", "Base path for catalog data")
	flag.StringVar(&fv.envFile, "env-file", ".env", "Path to .env file")
	flag.StringVar(&fv.port, "port", "", "Server port (default: 8080)")
	flag.StringVar(&fv.readTimeout, "read-timeout", "", "HTTP read timeout (default: 15s)")
	flag.StringVar(&fv.writeTimeout, "write-timeout", "", "HTTP write timeout (default: 15s)")
	flag.StringVar(&fv.idleTimeout, "idle-timeout", "", "HTTP idle timeout (default: 60s)")
	flag.StringVar(&fv.cors, "cors-origins", "", "Comma separated CORS origins (default: *)")
	flag.StringVar(&fv.gbifBaseURL, "gbif-base-url", "", "GBIF API base URL")
	flag.StringVar(&fv.gbifConnectTimeout, "gbif-connect-timeout", "", "GBIF connect timeout (default: 4s)")
	flag.StringVar(&fv.gbifReadTimeout, "gbif-read-timeout", "", "GBIF read timeout (default: 4s)")
	flag.StringVar(&fv.gbifRPS, "gbif-rps", "", "GBIF requests per second (default: 5)")
	flag.StringVar(&fv.gbifBurst, "gbif-burst", "", "GBIF request burst (default: 5)")
	flag.StringVar(&fv.cacheBackend, "cache-backend", "", "Lookup cache backend: sqlite or badger")
	flag.StringVar(&fv.candidateTTL, "candidate-ttl", "", "How long offered candidates stay selectable (default: 30m)")
	flag.StringVar(&fv.lookupPerMinute, "lookup-per-minute", "", "Species lookups per client per minute, 0 disables (default: 60)")

	flag.Parse()

	return load(fv)
}

// LoadFromEnv loads configuration from the environment and the given .env
// file only. Used by tools that parse their own flags.
func LoadFromEnv(envFile string) (*Config, error) {
	return load(flagValues{envFile: envFile})
}

func load(fv flagValues) (*Config, error) {
	if fv.envFile != "" {
		// Missing .env is fine.
		_ = loadEnvFile(fv.envFile)
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(fv.env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(fv.logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(fv.dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Port:               getConfigValue(fv.port, "SERVER_PORT", "8080"),
			CORSAllowedOrigins: splitList(getConfigValue(fv.cors, "CORS_ALLOWED_ORIGINS", "*")),
			LookupPerMinute:    getIntConfigValue(fv.lookupPerMinute, "LOOKUP_PER_MINUTE", 60),
		},
		GBIF: GBIFConfig{
			BaseURL:        strings.TrimRight(getConfigValue(fv.gbifBaseURL, "GBIF_BASE_URL", "https://api.gbif.org/v1"), "/"),
			RateLimitRPS:   getFloatConfigValue(fv.gbifRPS, "GBIF_RATE_LIMIT_RPS", 5),
			RateLimitBurst: getIntConfigValue(fv.gbifBurst, "GBIF_RATE_LIMIT_BURST", 5),
			UserAgent:      getConfigValue("", "GBIF_USER_AGENT", "SeedCatalog/1.0"),
		},
		Cache: CacheConfig{
			Backend: strings.ToLower(getConfigValue(fv.cacheBackend, "CACHE_BACKEND", CacheBackendSQLite)),
		},
	}

	durations := []struct {
		flagValue string
		envKey    string
		def       string
		dst       *time.Duration
	}{
		{fv.readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{fv.writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", &cfg.Server.WriteTimeout},
		{fv.idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{fv.gbifConnectTimeout, "GBIF_CONNECT_TIMEOUT", "4s", &cfg.GBIF.ConnectTimeout},
		{fv.gbifReadTimeout, "GBIF_READ_TIMEOUT", "4s", &cfg.GBIF.ReadTimeout},
		{fv.candidateTTL, "CANDIDATE_TTL", "30m", &cfg.Cache.CandidateTTL},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.envKey, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	case "":
		return errors.New("ENV is required")
	default:
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	if c.Server.LookupPerMinute < 0 {
		return errors.New("lookup rate limit cannot be negative")
	}

	if c.GBIF.BaseURL == "" {
		return errors.New("GBIF base URL cannot be empty")
	}
	if c.GBIF.ConnectTimeout <= 0 || c.GBIF.ReadTimeout <= 0 {
		return errors.New("GBIF timeouts must be positive")
	}
	if c.GBIF.RateLimitRPS <= 0 || c.GBIF.RateLimitBurst < 1 {
		return errors.New("GBIF rate limit must be positive")
	}

	switch c.Cache.Backend {
	case CacheBackendSQLite, CacheBackendBadger:
	default:
		return fmt.Errorf("invalid cache backend: %s (must be sqlite or badger)", c.Cache.Backend)
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath defaults the data path to ~/SeedCatalog/data.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	expanded, err := expandPath(c.Data.BasePath, filepath.Join(homeDir, "SeedCatalog", "data"))
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(strings.TrimSpace(strValue))
	if err != nil {
		return defaultValue
	}
	return v
}

// getFloatConfigValue returns a float from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(strValue), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

// splitList splits a comma separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Real environment variables win over the file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
