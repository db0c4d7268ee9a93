package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/nethop/internal/hopfile"
	"github.com/unkn0wn-root/nethop/internal/runner"
)

type Entry struct {
	ID         string          `json:"id"`
	ExecutedAt time.Time       `json:"executedAt"`
	Script     string          `json:"script"`
	Host       string          `json:"host"`
	Port       uint16          `json:"port"`
	Secure     bool            `json:"secure"`
	Requests   int             `json:"requests"`
	Passed     int             `json:"passed"`
	Failed     int             `json:"failed"`
	Duration   time.Duration   `json:"duration"`
	Latency    *LatencySummary `json:"latency,omitempty"`
	Error      string          `json:"error,omitempty"`
	Results    []RequestRecord `json:"results,omitempty"`
}

type RequestRecord struct {
	Method     string        `json:"method"`
	URL        string        `json:"url"`
	StatusCode int           `json:"statusCode,omitempty"`
	Duration   time.Duration `json:"duration"`
	Passed     int           `json:"passed"`
	Failed     int           `json:"failed"`
	Error      string        `json:"error,omitempty"`
}

type LatencySummary struct {
	Min    time.Duration `json:"min"`
	Max    time.Duration `json:"max"`
	Mean   time.Duration `json:"mean"`
	Median time.Duration `json:"median"`
	P95    time.Duration `json:"p95"`
	StdDev time.Duration `json:"stdDev"`
}

// NewEntry summarises one batch. runErr is the error that stopped it, if any.
func NewEntry(script string, target hopfile.Connection, report runner.Report, runErr error, at time.Time) Entry {
	entry := Entry{
		ID:         uuid.NewString(),
		ExecutedAt: at,
		Script:     script,
		Host:       target.Host,
		Port:       target.Port,
		Secure:     target.Secure,
		Requests:   len(report.Results),
		Passed:     report.Totals.Passed,
		Failed:     report.Totals.Failed,
		Duration:   report.Duration,
	}
	if runErr != nil {
		entry.Error = runErr.Error()
	}
	if lat := report.Latency; lat.Count > 0 {
		entry.Latency = &LatencySummary{
			Min:    lat.Min,
			Max:    lat.Max,
			Mean:   lat.Mean,
			Median: lat.Median,
			P95:    lat.P95,
			StdDev: lat.StdDev,
		}
	}
	for _, res := range report.Results {
		rec := RequestRecord{
			Method:   res.Request.Method,
			URL:      res.Request.URL,
			Duration: res.Duration,
			Passed:   res.Summary.Passed,
			Failed:   res.Summary.Failed,
		}
		if res.Response != nil {
			rec.StatusCode = int(res.Response.Status)
		}
		if res.Err != nil {
			rec.Error = res.Err.Error()
		}
		entry.Results = append(entry.Results, rec)
	}
	return entry
}
