package ingest

import "time"

// RunStatus is the lifecycle state of an ingestion run.
type RunStatus string

// Ingestion run states.
const (
	RunIdle       RunStatus = "idle"
	RunProcessing RunStatus = "processing"
	RunCompleted  RunStatus = "completed"
	RunError      RunStatus = "error"
)

// Stats summarises an ingestion run.
type Stats struct {
	Status           RunStatus
	StartTime        time.Time
	EndTime          time.Time
	TotalSources     int
	ProcessedSources int
	TotalItems       int
	NewItems         int
	Duplicates       int
	Errors           int
	VectorsGenerated int
	Message          string
}

// Record folds a single outcome into the counters.
func (s *Stats) Record(o Outcome) {
	s.TotalItems++
	switch o.Status() {
	case StatusStored:
		s.NewItems++
		s.VectorsGenerated++
	case StatusStoredWithoutVector:
		s.NewItems++
	case StatusDuplicate:
		s.Duplicates++
	case StatusFailed:
		s.Errors++
	}
}

// Merge adds the item counters of other into s.
func (s *Stats) Merge(other Stats) {
	s.TotalItems += other.TotalItems
	s.NewItems += other.NewItems
	s.Duplicates += other.Duplicates
	s.Errors += other.Errors
	s.VectorsGenerated += other.VectorsGenerated
}
