package newsvec

import (
	"time"

	"go.uber.org/zap"
)

// Storage drivers.
const (
	driverRedis    = "redis"
	driverPostgres = "postgres"
	driverMemory   = "memory"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

// Model addresses a locally hosted feature-extraction server.
type Model struct {
	Endpoint string
	Name     string
}

type remoteConfig struct {
	apiKey       string
	baseURL      string
	model        string
	timeout      time.Duration
	cache        bool
	cacheTTL     time.Duration
	dailyQuota   int64
	monthlyQuota int64
	quotaWarn    bool
}

type clientConfig struct {
	driver           string
	addrs            []string
	username         string
	password         string
	dsn              string
	readinessTimeout time.Duration
	hnswM            int
	hnswEFConstruct  int

	remote           *remoteConfig
	primary          *Model
	secondary        *Model
	localInitTimeout time.Duration
	localTimeout     time.Duration
	maxInputChars    int
	embedConcurrency int

	candidateCeiling  int
	dedupThreshold    float64
	sourceConcurrency int
	fetchTimeout      time.Duration

	logger *zap.Logger
}

// WithRedis stores vectors and documents in Redis 8+ (or Redis Stack / valkey-search).
func WithRedis(password string, addrs ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverRedis
		c.addrs = addrs
		c.password = password
	})
}

// WithRedisUsername sets the ACL user for WithRedis.
func WithRedisUsername(username string) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = username
	})
}

// WithPostgres stores vectors and documents in PostgreSQL with pgvector.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverPostgres
		c.dsn = dsn
	})
}

// WithMemory keeps everything in process. Nothing survives a restart.
func WithMemory() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverMemory
	})
}

// WithReadinessTimeout bounds how long New waits for the database. Default: 10s.
func WithReadinessTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.readinessTimeout = d
	})
}

// WithHNSW configures the Redis HNSW index parameters (M and EF construction).
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithOpenAI enables the remote embedding tier. baseURL may point at any
// OpenAI-compatible endpoint; empty keeps the default.
func WithOpenAI(apiKey, model, baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		if c.remote == nil {
			c.remote = &remoteConfig{}
		}
		c.remote.apiKey = apiKey
		c.remote.model = model
		c.remote.baseURL = baseURL
	})
}

// WithOpenAITimeout bounds each remote embedding call. Default: 10s.
func WithOpenAITimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		if c.remote == nil {
			c.remote = &remoteConfig{}
		}
		c.remote.timeout = d
	})
}

// WithEmbeddingCache caches remote embeddings in Redis for ttl.
// Ignored for other drivers.
func WithEmbeddingCache(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		if c.remote == nil {
			c.remote = &remoteConfig{}
		}
		c.remote.cache = true
		c.remote.cacheTTL = ttl
	})
}

// WithQuota caps remote tokens per UTC day and month (0 = unlimited).
// Over quota the remote tier is skipped, or only logged when warnOnly is set.
func WithQuota(daily, monthly int64, warnOnly bool) Option {
	return optionFunc(func(c *clientConfig) {
		if c.remote == nil {
			c.remote = &remoteConfig{}
		}
		c.remote.dailyQuota = daily
		c.remote.monthlyQuota = monthly
		c.remote.quotaWarn = warnOnly
	})
}

// WithLocalModels enables the local embedding tiers. secondary may be nil.
func WithLocalModels(primary Model, secondary *Model) Option {
	return optionFunc(func(c *clientConfig) {
		c.primary = &primary
		c.secondary = secondary
	})
}

// WithLocalTimeouts sets the one-off model probe timeout and the per-call timeout.
func WithLocalTimeouts(initTimeout, callTimeout time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.localInitTimeout = initTimeout
		c.localTimeout = callTimeout
	})
}

// WithMaxInputChars truncates embedding input. Default: 512.
func WithMaxInputChars(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxInputChars = n
	})
}

// WithEmbeddingConcurrency bounds parallel batch embedding calls. Default: 4.
func WithEmbeddingConcurrency(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedConcurrency = n
	})
}

// WithCandidateCeiling caps nearest-neighbour candidates per search. Default: 50.
func WithCandidateCeiling(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.candidateCeiling = n
	})
}

// WithDedupThreshold sets the similarity at which ingestion treats an item as a duplicate. Default: 0.98.
func WithDedupThreshold(t float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.dedupThreshold = t
	})
}

// WithSourceConcurrency bounds how many feeds are ingested at once. Default: 4.
func WithSourceConcurrency(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.sourceConcurrency = n
	})
}

// WithFetchTimeout bounds each feed download. Default: 10s.
func WithFetchTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.fetchTimeout = d
	})
}

// WithLogger enables structured logging. Default: no logging.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}
