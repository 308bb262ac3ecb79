package batch

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/abdul-hamid-achik/httprepro/packages/capture"
)

// Metrics collects latency and outcome counts for one batch
type Metrics struct {
	mu sync.Mutex

	totalRequests   atomic.Int64
	successRequests atomic.Int64
	errorRequests   atomic.Int64

	// Latency histogram (in microseconds for precision)
	histogram *hdrhistogram.Histogram

	failuresByKind map[string]int64

	startTime time.Time
	endTime   time.Time
}

// NewMetrics creates a new Metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		// Histogram: 1us to 60s range, 3 significant digits
		histogram:      hdrhistogram.New(1, 60_000_000, 3),
		failuresByKind: make(map[string]int64),
	}
}

// Start marks the beginning of the batch
func (m *Metrics) Start() {
	m.startTime = time.Now()
}

// Stop marks the end of the batch
func (m *Metrics) Stop() {
	m.endTime = time.Now()
}

// Record records one capture
func (m *Metrics) Record(duration time.Duration, err error) {
	m.totalRequests.Add(1)

	if err != nil {
		m.errorRequests.Add(1)
	} else {
		m.successRequests.Add(1)
	}

	latencyUs := duration.Microseconds()
	if latencyUs < 1 {
		latencyUs = 1
	}
	if latencyUs > 60_000_000 {
		latencyUs = 60_000_000
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	_ = m.histogram.RecordValue(latencyUs)
	if err != nil {
		m.failuresByKind[capture.KindOf(err).String()]++
	}
}

// Summary is the final metrics summary of a batch
type Summary struct {
	Duration      time.Duration
	TotalRequests int64
	SuccessCount  int64
	ErrorCount    int64

	RPS         float64
	SuccessRate float64
	ErrorRate   float64

	P50    time.Duration
	P95    time.Duration
	P99    time.Duration
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	StdDev time.Duration

	// FailuresByKind counts failures per capture.FailureKind name
	FailuresByKind map[string]int64
}

// GetSummary returns the metrics summary
func (m *Metrics) GetSummary() *Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	duration := m.endTime.Sub(m.startTime)
	if m.endTime.IsZero() {
		duration = time.Since(m.startTime)
	}

	total := m.totalRequests.Load()
	success := m.successRequests.Load()
	errors := m.errorRequests.Load()

	rps := float64(0)
	if duration.Seconds() > 0 {
		rps = float64(total) / duration.Seconds()
	}

	successRate := float64(0)
	errorRate := float64(0)
	if total > 0 {
		successRate = float64(success) / float64(total)
		errorRate = float64(errors) / float64(total)
	}

	byKind := make(map[string]int64, len(m.failuresByKind))
	for k, v := range m.failuresByKind {
		byKind[k] = v
	}

	return &Summary{
		Duration:       duration,
		TotalRequests:  total,
		SuccessCount:   success,
		ErrorCount:     errors,
		RPS:            rps,
		SuccessRate:    successRate,
		ErrorRate:      errorRate,
		P50:            time.Duration(m.histogram.ValueAtQuantile(50)) * time.Microsecond,
		P95:            time.Duration(m.histogram.ValueAtQuantile(95)) * time.Microsecond,
		P99:            time.Duration(m.histogram.ValueAtQuantile(99)) * time.Microsecond,
		Min:            time.Duration(m.histogram.Min()) * time.Microsecond,
		Max:            time.Duration(m.histogram.Max()) * time.Microsecond,
		Mean:           time.Duration(m.histogram.Mean()) * time.Microsecond,
		StdDev:         time.Duration(m.histogram.StdDev()) * time.Microsecond,
		FailuresByKind: byKind,
	}
}
