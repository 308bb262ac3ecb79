package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/httprepro/packages/capture"
	"github.com/abdul-hamid-achik/httprepro/packages/export/metrics"
	"github.com/abdul-hamid-achik/httprepro/packages/http"
	"github.com/abdul-hamid-achik/httprepro/packages/notify"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Capturer performs one capture. *capture.Capturer satisfies it.
type Capturer interface {
	Capture(ctx context.Context, req *http.Request) (*capture.Result, error)
}

// Runner executes batches
type Runner struct {
	config    *Config
	capturer  Capturer
	notifier  notify.Notifier
	reporter  *Reporter
	logger    *slog.Logger
	variant   string
	collector *metrics.Collector
}

// RunnerOption configures the runner
type RunnerOption func(*Runner)

// WithCapturer sets the capturer used for every call
func WithCapturer(c Capturer) RunnerOption {
	return func(r *Runner) {
		r.capturer = c
	}
}

// WithNotifier sets where the batch outcome is announced
func WithNotifier(n notify.Notifier) RunnerOption {
	return func(r *Runner) {
		r.notifier = n
	}
}

// WithReporter sets the reporter
func WithReporter(reporter *Reporter) RunnerOption {
	return func(r *Runner) {
		r.reporter = reporter
	}
}

// WithLogger sets the trace logger
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithVariantName labels the outcome and notifications
func WithVariantName(name string) RunnerOption {
	return func(r *Runner) {
		r.variant = name
	}
}

// WithCollector records every call and the final aggregate for export
func WithCollector(c *metrics.Collector) RunnerOption {
	return func(r *Runner) {
		r.collector = c
	}
}

// NewRunner creates a new batch runner
func NewRunner(config *Config, opts ...RunnerOption) *Runner {
	r := &Runner{
		config: config,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.capturer == nil {
		r.capturer = capture.New(http.NewClient())
	}

	if r.notifier == nil {
		r.notifier = notify.NewConsole()
	}

	if r.reporter == nil {
		r.reporter = NewReporter()
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}

	return r
}

// Outcome is the result of one batch. Failure is nil when every call
// succeeded.
type Outcome struct {
	RunID      string
	Variant    string
	URL        string
	Mode       Mode
	Count      int
	Attempted  int
	Succeeded  int
	FailedCall int // 1-based index of the call that produced Failure, 0 when no call did
	Failure    error
	Summary    *Summary
}

// OK reports whether every call succeeded
func (o *Outcome) OK() bool {
	return o.Failure == nil
}

// Run executes the batch against req. The error return is reserved for an
// invalid configuration; capture failures are reported in the Outcome.
func (r *Runner) Run(ctx context.Context, req *http.Request) (*Outcome, error) {
	if err := r.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	callReq := req
	if !r.config.ForwardOptions {
		callReq = req.URLOnly()
	}

	outcome := &Outcome{
		RunID:   uuid.NewString(),
		Variant: r.variant,
		URL:     req.URL,
		Mode:    r.config.Mode,
		Count:   r.config.Count,
	}

	r.logger.Debug("batch started",
		"run_id", outcome.RunID,
		"variant", outcome.Variant,
		"url", outcome.URL,
		"mode", outcome.Mode.String(),
		"count", outcome.Count,
		"forward_options", r.config.ForwardOptions,
	)
	r.reporter.Header(outcome)

	m := NewMetrics()
	m.Start()

	if r.config.Mode == Concurrent {
		r.runConcurrent(ctx, callReq, outcome, m)
	} else {
		r.runSequential(ctx, callReq, outcome, m)
	}

	m.Stop()
	outcome.Summary = m.GetSummary()

	r.reporter.Summary(outcome)
	r.announce(outcome)
	r.export(outcome)

	return outcome, nil
}

// runSequential issues one capture at a time and stops at the first failure
func (r *Runner) runSequential(ctx context.Context, req *http.Request, outcome *Outcome, m *Metrics) {
	for i := 1; i <= r.config.Count; i++ {
		err := r.captureOne(ctx, i, req, outcome, m)
		outcome.Attempted++
		if err != nil {
			outcome.Failure = err
			outcome.FailedCall = i
			return
		}
		outcome.Succeeded++
	}
}

// runConcurrent launches every capture, waits for all of them and keeps the
// first failure observed
func (r *Runner) runConcurrent(ctx context.Context, req *http.Request, outcome *Outcome, m *Metrics) {
	limit := rate.Inf
	if r.config.Rate > 0 {
		limit = rate.Limit(r.config.Rate)
	}
	limiter := rate.NewLimiter(limit, 1)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	for i := 1; i <= r.config.Count; i++ {
		if err := limiter.Wait(ctx); err != nil {
			// the remaining calls never launch
			mu.Lock()
			if outcome.Failure == nil {
				outcome.Failure = &capture.Failure{Kind: capture.TransportError, URL: req.URL, Err: err}
			}
			mu.Unlock()
			break
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			err := r.captureOne(ctx, i, req, outcome, m)

			mu.Lock()
			defer mu.Unlock()
			outcome.Attempted++
			if err != nil {
				if outcome.Failure == nil {
					outcome.Failure = err
					outcome.FailedCall = i
				}
				return
			}
			outcome.Succeeded++
		}(i)
	}

	wg.Wait()
}

func (r *Runner) captureOne(ctx context.Context, i int, req *http.Request, outcome *Outcome, m *Metrics) error {
	start := time.Now()
	result, err := r.capturer.Capture(ctx, req)
	duration := time.Since(start)

	m.Record(duration, err)
	r.reporter.Call(i, result, err, duration)
	if r.collector != nil {
		r.collector.Record(callMetric(outcome, i, start, duration, result, err))
	}

	if err != nil {
		r.logger.Debug("capture failed",
			"call", i,
			"url", req.URL,
			"kind", capture.KindOf(err).String(),
			"error", err,
		)
	}
	return err
}

// announce sends exactly one notification describing the outcome
func (r *Runner) announce(outcome *Outcome) {
	prefix := ""
	if outcome.Variant != "" {
		prefix = "[" + outcome.Variant + "] "
	}

	var notifyErr error
	if outcome.OK() {
		r.logger.Info("batch succeeded",
			"run_id", outcome.RunID,
			"variant", outcome.Variant,
			"url", outcome.URL,
			"count", outcome.Count,
		)
		notifyErr = r.notifier.NotifyInfo(fmt.Sprintf("%sall %d request(s) succeeded: %s", prefix, outcome.Count, outcome.URL))
	} else {
		r.logger.Error("batch failed",
			"run_id", outcome.RunID,
			"variant", outcome.Variant,
			"url", outcome.URL,
			"call", outcome.FailedCall,
			"attempted", outcome.Attempted,
			"kind", capture.KindOf(outcome.Failure).String(),
			"error", outcome.Failure,
		)
		notifyErr = r.notifier.NotifyError(fmt.Sprintf("%sfailed: %v", prefix, outcome.Failure))
	}

	if notifyErr != nil {
		r.logger.Warn("notification failed", "run_id", outcome.RunID, "error", notifyErr)
	}
}

func callMetric(outcome *Outcome, i int, start time.Time, d time.Duration, result *capture.Result, err error) *metrics.CallMetric {
	cm := &metrics.CallMetric{
		RunID:      outcome.RunID,
		Variant:    outcome.Variant,
		Call:       i,
		URL:        outcome.URL,
		DurationMs: float64(d.Microseconds()) / 1000,
		Passed:     err == nil,
		Timestamp:  start,
	}
	if err == nil {
		cm.StatusCode = result.StatusCode
		return cm
	}

	cm.FailureKind = capture.KindOf(err).String()
	var f *capture.Failure
	if errors.As(err, &f) {
		cm.StatusCode = f.StatusCode
	}
	return cm
}

// export hands the final aggregate to the collector's exporters
func (r *Runner) export(outcome *Outcome) {
	if r.collector == nil {
		return
	}

	a := r.collector.GetAggregate()
	a.RunID = outcome.RunID
	a.Variant = outcome.Variant
	a.Mode = outcome.Mode.String()
	a.URL = outcome.URL
	if s := outcome.Summary; s != nil && s.TotalRequests > 0 {
		a.P50DurationMs = float64(s.P50.Microseconds()) / 1000
		a.P95DurationMs = float64(s.P95.Microseconds()) / 1000
		a.P99DurationMs = float64(s.P99.Microseconds()) / 1000
	}

	if err := r.collector.Export(a); err != nil {
		r.logger.Warn("metrics export failed", "run_id", outcome.RunID, "error", err)
	}
}
