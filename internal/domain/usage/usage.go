// Package usage describes remote embedding token consumption per quota window.
package usage

import (
	"fmt"
	"time"
)

// Period is the quota window.
type Period string

// Quota windows. Both reset at UTC boundaries.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod validates a period name. Empty selects the day window.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case "":
		return PeriodDay, nil
	case PeriodDay, PeriodMonth:
		return p, nil
	default:
		return "", fmt.Errorf("period must be %q or %q, got %q", PeriodDay, PeriodMonth, s)
	}
}

// Bounds returns the UTC window containing t.
func (p Period) Bounds(t time.Time) (start, end time.Time) {
	t = t.UTC()
	if p == PeriodMonth {
		start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	}
	start = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// Report is a snapshot of remote token usage for one window.
// A zero limit means the window is unlimited.
type Report struct {
	period Period
	start  time.Time
	end    time.Time
	limit  int64
	used   int64
}

// NewReport creates a usage report.
func NewReport(period Period, start, end time.Time, limit, used int64) Report {
	return Report{period: period, start: start, end: end, limit: limit, used: used}
}

// Period returns the quota window.
func (r *Report) Period() Period { return r.period }

// Start returns the window start.
func (r *Report) Start() time.Time { return r.start }

// ResetsAt returns the window end.
func (r *Report) ResetsAt() time.Time { return r.end }

// Limit returns the token cap (0 = unlimited).
func (r *Report) Limit() int64 { return r.limit }

// Used returns tokens consumed in the window.
func (r *Report) Used() int64 { return r.used }

// Remaining returns tokens left, or -1 when unlimited.
func (r *Report) Remaining() int64 {
	if r.limit == 0 {
		return -1
	}
	return max(r.limit-r.used, 0)
}

// Exhausted reports whether the remote tier is over quota for this window.
func (r *Report) Exhausted() bool {
	return r.limit > 0 && r.used >= r.limit
}
