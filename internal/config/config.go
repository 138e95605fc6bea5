package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the rwhplan API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Reference ReferenceConfig `yaml:"reference"`
	Models    ModelsConfig    `yaml:"models"`
	Cache     CacheConfig     `yaml:"cache"`
	Auth      AuthConfig      `yaml:"auth"`
	CORS      CORSConfig      `yaml:"cors"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// CORSConfig holds cross-origin settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"` // default: *
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// Reference data sources.
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

// ReferenceConfig selects where groundwater and soil tables are loaded from.
type ReferenceConfig struct {
	Source          string `yaml:"source"` // csv, postgres (default: csv)
	GroundwaterPath string `yaml:"groundwater_path"`
	SoilPath        string `yaml:"soil_path"`
	PostgresDSN     string `yaml:"postgres_dsn"`
	LoadTimeoutSec  int    `yaml:"load_timeout_sec"`
}

// ModelsConfig points at the serialized estimator bundle.
type ModelsConfig struct {
	BundlePath string `yaml:"bundle_path"`
	Version    string `yaml:"version"` // overrides the version stored in the bundle
}

// CacheConfig holds prediction cache settings.
type CacheConfig struct {
	Enabled          bool     `yaml:"enabled"`
	Driver           string   `yaml:"driver"` // valkey, redis (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	TTLSec           int      `yaml:"ttl_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads, expands, defaults and validates the configuration at path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 5001
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Reference.Source == "" {
		c.Reference.Source = SourceCSV
	}
	if c.Reference.GroundwaterPath == "" {
		c.Reference.GroundwaterPath = "data/groundwater.csv"
	}
	if c.Reference.SoilPath == "" {
		c.Reference.SoilPath = "data/soil.csv"
	}
	if c.Reference.LoadTimeoutSec <= 0 {
		c.Reference.LoadTimeoutSec = 10
	}
	if c.Models.BundlePath == "" {
		c.Models.BundlePath = "models/bundle.yaml"
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "valkey"
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 3600
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Reference.Source {
	case SourceCSV:
	case SourcePostgres:
		if c.Reference.PostgresDSN == "" {
			return fmt.Errorf("reference.postgres_dsn is required for source %q", SourcePostgres)
		}
	default:
		return fmt.Errorf("reference.source must be %q or %q, got %q", SourceCSV, SourcePostgres, c.Reference.Source)
	}
	if c.Cache.Enabled {
		if c.Cache.Driver != "valkey" && c.Cache.Driver != "redis" {
			return fmt.Errorf("cache.driver must be \"valkey\" or \"redis\", got %q", c.Cache.Driver)
		}
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required when cache is enabled")
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
