// Package metrics exports batch results for consumption outside the terminal.
package metrics

import (
	"sync"
	"time"
)

// CallMetric is one capture within a batch
type CallMetric struct {
	RunID       string    `json:"run_id"`
	Variant     string    `json:"variant,omitempty"`
	Call        int       `json:"call"`
	URL         string    `json:"url"`
	StatusCode  int       `json:"status_code,omitempty"` // 0 when no response arrived
	DurationMs  float64   `json:"duration_ms"`
	Passed      bool      `json:"passed"`
	FailureKind string    `json:"failure_kind,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// AggregateMetrics summarizes every call of a batch
type AggregateMetrics struct {
	RunID           string           `json:"run_id"`
	Variant         string           `json:"variant,omitempty"`
	Mode            string           `json:"mode"`
	URL             string           `json:"url"`
	TotalRequests   int64            `json:"total_requests"`
	SuccessCount    int64            `json:"success_count"`
	FailureCount    int64            `json:"failure_count"`
	TotalDurationMs float64          `json:"total_duration_ms"`
	MinDurationMs   float64          `json:"min_duration_ms"`
	MaxDurationMs   float64          `json:"max_duration_ms"`
	AvgDurationMs   float64          `json:"avg_duration_ms"`
	P50DurationMs   float64          `json:"p50_duration_ms"`
	P95DurationMs   float64          `json:"p95_duration_ms"`
	P99DurationMs   float64          `json:"p99_duration_ms"`
	StatusCodes     map[int]int64    `json:"status_codes"`
	FailuresByKind  map[string]int64 `json:"failures_by_kind,omitempty"`
}

// Exporter is the interface for metrics exporters
type Exporter interface {
	// Export writes the batch aggregate
	Export(metrics *AggregateMetrics) error

	// ExportSingle records a single call
	ExportSingle(metric *CallMetric) error

	// Close flushes any buffered data
	Close() error
}

// Collector gathers calls from a running batch and fans them out to
// exporters. It is safe for concurrent use.
type Collector struct {
	mu        sync.Mutex
	aggregate *AggregateMetrics
	exporters []Exporter
}

// NewCollector creates a new metrics collector
func NewCollector(exporters ...Exporter) *Collector {
	return &Collector{
		exporters: exporters,
		aggregate: newAggregate(),
	}
}

func newAggregate() *AggregateMetrics {
	return &AggregateMetrics{
		StatusCodes:    make(map[int]int64),
		FailuresByKind: make(map[string]int64),
	}
}

// Record records one call
func (c *Collector) Record(m *CallMetric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	updateAggregate(c.aggregate, m)

	for _, exp := range c.exporters {
		_ = exp.ExportSingle(m)
	}
}

func updateAggregate(a *AggregateMetrics, m *CallMetric) {
	a.TotalRequests++
	a.TotalDurationMs += m.DurationMs

	if m.Passed {
		a.SuccessCount++
	} else {
		a.FailureCount++
		if m.FailureKind != "" {
			a.FailuresByKind[m.FailureKind]++
		}
	}

	if a.TotalRequests == 1 {
		a.MinDurationMs = m.DurationMs
		a.MaxDurationMs = m.DurationMs
	} else {
		if m.DurationMs < a.MinDurationMs {
			a.MinDurationMs = m.DurationMs
		}
		if m.DurationMs > a.MaxDurationMs {
			a.MaxDurationMs = m.DurationMs
		}
	}

	a.AvgDurationMs = a.TotalDurationMs / float64(a.TotalRequests)

	if m.StatusCode > 0 {
		a.StatusCodes[m.StatusCode]++
	}
}

// GetAggregate returns a copy of the aggregated metrics
func (c *Collector) GetAggregate() *AggregateMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	a := *c.aggregate
	a.StatusCodes = make(map[int]int64, len(c.aggregate.StatusCodes))
	for k, v := range c.aggregate.StatusCodes {
		a.StatusCodes[k] = v
	}
	a.FailuresByKind = make(map[string]int64, len(c.aggregate.FailuresByKind))
	for k, v := range c.aggregate.FailuresByKind {
		a.FailuresByKind[k] = v
	}
	return &a
}

// Export hands the provided aggregate to every exporter
func (c *Collector) Export(aggregate *AggregateMetrics) error {
	for _, exp := range c.exporters {
		if err := exp.Export(aggregate); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all exporters
func (c *Collector) Close() error {
	for _, exp := range c.exporters {
		if err := exp.Close(); err != nil {
			return err
		}
	}
	return nil
}
