package newsvec

import (
	"github.com/kailas-cloud/newsvec/internal/domain/article"
	"github.com/kailas-cloud/newsvec/internal/domain/dedup"
	"github.com/kailas-cloud/newsvec/internal/domain/ingest"
	"github.com/kailas-cloud/newsvec/internal/domain/search/filter"
	"github.com/kailas-cloud/newsvec/internal/domain/search/result"
	"github.com/kailas-cloud/newsvec/internal/domain/usage"
	healthuc "github.com/kailas-cloud/newsvec/internal/usecase/health"
)

type (
	// Article is an inbound feed item.
	Article = article.Raw
	// Document is a stored article.
	Document = article.Document
	// Stats summarizes the stored corpus.
	Stats = article.Stats
	// SearchOptions restricts and sizes a search. Zero values take defaults.
	SearchOptions = filter.Params
	// Result is a scored search hit.
	Result = result.Result
	// Candidate is an item checked for duplicates.
	Candidate = dedup.Candidate
	// Verdict is the outcome of a duplicate check.
	Verdict = dedup.Verdict
	// Outcome is the result of ingesting one item.
	Outcome = ingest.Outcome
	// IngestStats counts an ingestion run.
	IngestStats = ingest.Stats
	// Feed is a source to download.
	Feed = ingest.Feed
	// HealthReport aggregates component checks.
	HealthReport = healthuc.Report
	// UsagePeriod selects the quota window.
	UsagePeriod = usage.Period
	// UsageReport is remote token usage for one window.
	UsageReport = usage.Report
)

// Quota windows for Client.Usage.
const (
	UsageDay   = usage.PeriodDay
	UsageMonth = usage.PeriodMonth
)
