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

// Database drivers.
const (
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds the newsvec service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Dedup     DedupConfig     `yaml:"dedup"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds storage backend settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis (default), postgres, memory
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DSN              string   `yaml:"dsn"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	HNSWM            int      `yaml:"hnsw_m"`
	HNSWEFConstruct  int      `yaml:"hnsw_ef_construction"`
}

// EmbeddingConfig holds the embedding fallback chain settings.
type EmbeddingConfig struct {
	Remote        RemoteConfig `yaml:"remote"`
	Local         LocalConfig  `yaml:"local"`
	MaxInputChars int          `yaml:"max_input_chars"`
	Dimensions    int          `yaml:"dimensions"`
	Concurrency   int          `yaml:"concurrency"`
}

// RemoteConfig configures the hosted embedding API. An empty APIKey disables the tier.
type RemoteConfig struct {
	APIKey     string      `yaml:"api_key"`
	BaseURL    string      `yaml:"base_url"`
	Model      string      `yaml:"model"`
	TimeoutSec int         `yaml:"timeout_sec"`
	Cache      CacheConfig `yaml:"cache"`
	Quota      QuotaConfig `yaml:"quota"`
}

// CacheConfig configures the remote embedding cache.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	TTLHour int  `yaml:"ttl_hours"`
}

// QuotaConfig caps remote token usage. Over quota the remote tier is skipped.
type QuotaConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "skip" (default) | "warn"
}

// LocalConfig configures the locally hosted models.
type LocalConfig struct {
	Primary        ModelConfig `yaml:"primary"`
	Secondary      ModelConfig `yaml:"secondary"`
	InitTimeoutSec int         `yaml:"init_timeout_sec"`
	TimeoutSec     int         `yaml:"timeout_sec"`
}

// ModelConfig addresses one feature-extraction server. An empty Endpoint disables it.
type ModelConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
}

// SearchConfig holds similarity search defaults.
type SearchConfig struct {
	MinSimilarity    float64 `yaml:"min_similarity"`
	MaxResults       int     `yaml:"max_results"`
	MaxResultsCap    int     `yaml:"max_results_cap"`
	CandidateCeiling int     `yaml:"candidate_ceiling"`
}

// DedupConfig holds the semantic duplicate threshold.
type DedupConfig struct {
	Threshold float64 `yaml:"threshold"`
}

// IngestConfig holds ingestion concurrency and feed fetching settings.
type IngestConfig struct {
	SourceConcurrency int `yaml:"source_concurrency"`
	FetchTimeoutSec   int `yaml:"fetch_timeout_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
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
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DriverRedis
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.HNSWM <= 0 {
		c.Database.HNSWM = 16
	}
	if c.Database.HNSWEFConstruct <= 0 {
		c.Database.HNSWEFConstruct = 200
	}

	c.applyEmbeddingDefaults()

	if c.Search.MinSimilarity <= 0 {
		c.Search.MinSimilarity = 0.5
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = 10
	}
	if c.Search.MaxResultsCap <= 0 {
		c.Search.MaxResultsCap = 20
	}
	if c.Search.CandidateCeiling <= 0 {
		c.Search.CandidateCeiling = 50
	}

	if c.Dedup.Threshold <= 0 {
		c.Dedup.Threshold = 0.98
	}

	if c.Ingest.SourceConcurrency <= 0 {
		c.Ingest.SourceConcurrency = 4
	}
	if c.Ingest.FetchTimeoutSec <= 0 {
		c.Ingest.FetchTimeoutSec = 10
	}
}

func (c *Config) applyEmbeddingDefaults() {
	e := &c.Embedding
	if e.MaxInputChars <= 0 {
		e.MaxInputChars = 512
	}
	if e.Dimensions <= 0 {
		e.Dimensions = 384
	}
	if e.Concurrency <= 0 {
		e.Concurrency = 4
	}
	if e.Remote.Model == "" {
		e.Remote.Model = "text-embedding-3-small"
	}
	if e.Remote.TimeoutSec <= 0 {
		e.Remote.TimeoutSec = 10
	}
	if e.Remote.Cache.TTLHour <= 0 {
		e.Remote.Cache.TTLHour = 24 * 30
	}
	if e.Remote.Quota.Action == "" {
		e.Remote.Quota.Action = "skip"
	}
	if e.Local.InitTimeoutSec <= 0 {
		e.Local.InitTimeoutSec = 30
	}
	if e.Local.TimeoutSec <= 0 {
		e.Local.TimeoutSec = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Database.Driver {
	case DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %q", c.Database.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver must be redis, postgres or memory, got %q", c.Database.Driver)
	}

	if c.Embedding.Dimensions != 384 {
		return fmt.Errorf("embedding.dimensions must be 384, got %d", c.Embedding.Dimensions)
	}
	switch c.Embedding.Remote.Quota.Action {
	case "skip", "warn":
	default:
		return fmt.Errorf(
			"embedding.remote.quota.action must be \"skip\" or \"warn\", got %q",
			c.Embedding.Remote.Quota.Action,
		)
	}

	if c.Search.MinSimilarity > 1 {
		return fmt.Errorf("search.min_similarity must be within [0, 1], got %v", c.Search.MinSimilarity)
	}
	if c.Search.MaxResults > c.Search.MaxResultsCap {
		return fmt.Errorf("search.max_results (%d) exceeds search.max_results_cap (%d)",
			c.Search.MaxResults, c.Search.MaxResultsCap)
	}
	if c.Dedup.Threshold > 1 {
		return fmt.Errorf("dedup.threshold must be within (0, 1], got %v", c.Dedup.Threshold)
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
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
