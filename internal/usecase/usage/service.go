package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/newsvec/internal/domain/usage"
)

// Service reports remote embedding usage.
type Service struct {
	qr  QuotaReader
	now func() time.Time
}

// New creates a Service. qr can be nil (no remote tier or no quota).
func New(qr QuotaReader) *Service {
	return &Service{qr: qr, now: time.Now}
}

// Report builds a usage snapshot for the window containing now.
func (s *Service) Report(_ context.Context, period domusage.Period) domusage.Report {
	start, end := period.Bounds(s.now())

	var limit, used int64
	if s.qr != nil {
		switch period {
		case domusage.PeriodMonth:
			limit, used = s.qr.MonthlyLimit(), s.qr.MonthlyUsed()
		default:
			limit, used = s.qr.DailyLimit(), s.qr.DailyUsed()
		}
	}

	return domusage.NewReport(period, start, end, limit, used)
}
