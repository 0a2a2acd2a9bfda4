package chi

import (
	"net/http"

	domusage "github.com/kailas-cloud/newsvec/internal/domain/usage"
	healthuc "github.com/kailas-cloud/newsvec/internal/usecase/health"
	"github.com/kailas-cloud/newsvec/internal/version"
)

// Stats handles GET /stats.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := s.stats.Stats(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		Total:      st.Total,
		WithVector: st.WithVector,
		BySource:   nonNil(st.BySource),
		ByCategory: nonNil(st.ByCategory),
	})
}

// Usage handles GET /usage?period=day|month. Remaining is -1 when unlimited.
func (s *Server) Usage(w http.ResponseWriter, r *http.Request) {
	period, err := domusage.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	rep := s.usage.Report(r.Context(), period)
	writeJSON(w, http.StatusOK, usageResponse{
		Period:    string(rep.Period()),
		Start:     rep.Start(),
		ResetsAt:  rep.ResetsAt(),
		Limit:     rep.Limit(),
		Used:      rep.Used(),
		Remaining: rep.Remaining(),
		Exhausted: rep.Exhausted(),
	})
}

// HealthCheck handles GET /health. A degraded embedding chain still serves
// (hash fallback), so only a failed database check returns 503.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	tiers := make([]string, len(report.Tiers))
	for i, t := range report.Tiers {
		tiers[i] = string(t)
	}

	status := http.StatusOK
	if report.Checks["database"] == healthuc.CheckError {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, healthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Tiers:   tiers,
		Vectors: report.Vectors,
		Version: version.Version,
	})
}

func nonNil(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}
