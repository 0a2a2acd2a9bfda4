package main

import (
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/newsvec"
	"github.com/kailas-cloud/newsvec/internal/config"
)

// clientOptions maps the service configuration onto library options.
func clientOptions(cfg *config.Config, logger *zap.Logger) []newsvec.Option {
	sec := func(n int) time.Duration { return time.Duration(n) * time.Second }

	opts := []newsvec.Option{
		newsvec.WithLogger(logger),
		newsvec.WithReadinessTimeout(sec(cfg.Database.ReadinessTimeout)),
		newsvec.WithMaxInputChars(cfg.Embedding.MaxInputChars),
		newsvec.WithEmbeddingConcurrency(cfg.Embedding.Concurrency),
		newsvec.WithCandidateCeiling(cfg.Search.CandidateCeiling),
		newsvec.WithDedupThreshold(cfg.Dedup.Threshold),
		newsvec.WithSourceConcurrency(cfg.Ingest.SourceConcurrency),
		newsvec.WithFetchTimeout(sec(cfg.Ingest.FetchTimeoutSec)),
	}

	switch db := cfg.Database; db.Driver {
	case config.DriverRedis:
		opts = append(opts,
			newsvec.WithRedis(db.Password, db.Addrs...),
			newsvec.WithRedisUsername(db.Username),
			newsvec.WithHNSW(db.HNSWM, db.HNSWEFConstruct),
		)
	case config.DriverPostgres:
		opts = append(opts, newsvec.WithPostgres(db.DSN))
	default:
		opts = append(opts, newsvec.WithMemory())
	}

	if r := cfg.Embedding.Remote; r.APIKey != "" {
		opts = append(opts,
			newsvec.WithOpenAI(r.APIKey, r.Model, r.BaseURL),
			newsvec.WithOpenAITimeout(sec(r.TimeoutSec)),
			newsvec.WithQuota(r.Quota.DailyTokenLimit, r.Quota.MonthlyTokenLimit, r.Quota.Action == "warn"),
		)
		if r.Cache.Enabled {
			opts = append(opts, newsvec.WithEmbeddingCache(time.Duration(r.Cache.TTLHour)*time.Hour))
		}
	}

	if l := cfg.Embedding.Local; l.Primary.Endpoint != "" {
		var secondary *newsvec.Model
		if l.Secondary.Endpoint != "" {
			secondary = &newsvec.Model{Endpoint: l.Secondary.Endpoint, Name: l.Secondary.Model}
		}
		opts = append(opts,
			newsvec.WithLocalModels(newsvec.Model{Endpoint: l.Primary.Endpoint, Name: l.Primary.Model}, secondary),
			newsvec.WithLocalTimeouts(sec(l.InitTimeoutSec), sec(l.TimeoutSec)),
		)
	}

	return opts
}

func httpOptions(cfg *config.Config) newsvec.HTTPOptions {
	return newsvec.HTTPOptions{
		MaxResultsCap: cfg.Search.MaxResultsCap,
		DefaultLimit:  cfg.Search.MaxResults,
		MinSimilarity: cfg.Search.MinSimilarity,
	}
}
