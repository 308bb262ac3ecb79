package batch

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/httprepro/packages/capture"
	"github.com/fatih/color"
)

// Reporter handles console output for batches
type Reporter struct {
	mu      sync.Mutex
	writer  io.Writer
	noColor bool
	verbose bool
	quiet   bool

	// Colors
	green  *color.Color
	red    *color.Color
	yellow *color.Color
	cyan   *color.Color
	bold   *color.Color
	dim    *color.Color
}

// ReporterOption configures the reporter
type ReporterOption func(*Reporter)

// WithWriter sets the output writer
func WithWriter(w io.Writer) ReporterOption {
	return func(r *Reporter) {
		r.writer = w
	}
}

// WithNoColor disables colored output
func WithNoColor(noColor bool) ReporterOption {
	return func(r *Reporter) {
		r.noColor = noColor
	}
}

// WithVerbose prints one line per capture
func WithVerbose(verbose bool) ReporterOption {
	return func(r *Reporter) {
		r.verbose = verbose
	}
}

// WithQuiet suppresses the header and summary
func WithQuiet(quiet bool) ReporterOption {
	return func(r *Reporter) {
		r.quiet = quiet
	}
}

// NewReporter creates a new reporter
func NewReporter(opts ...ReporterOption) *Reporter {
	r := &Reporter{
		writer: os.Stdout,
	}

	for _, opt := range opts {
		opt(r)
	}

	// Initialize colors
	if r.noColor {
		color.NoColor = true
	}
	r.green = color.New(color.FgGreen)
	r.red = color.New(color.FgRed)
	r.yellow = color.New(color.FgYellow)
	r.cyan = color.New(color.FgCyan)
	r.bold = color.New(color.Bold)
	r.dim = color.New(color.Faint)

	return r
}

// Header prints the batch header
func (r *Reporter) Header(o *Outcome) {
	if r.quiet {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.writer)
	r.cyan.Fprintf(r.writer, "Batch: %s\n", o.URL)

	var details []string
	if o.Variant != "" {
		details = append(details, fmt.Sprintf("Variant: %s", o.Variant))
	}
	details = append(details, fmt.Sprintf("Mode: %s", o.Mode))
	details = append(details, fmt.Sprintf("Count: %d", o.Count))
	fmt.Fprintf(r.writer, "%s\n", strings.Join(details, " | "))
	r.dim.Fprintf(r.writer, "Run: %s\n", o.RunID)
	fmt.Fprintln(r.writer)
}

// Call prints one capture when verbose output is enabled
func (r *Reporter) Call(i int, result *capture.Result, err error, d time.Duration) {
	if !r.verbose {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		r.red.Fprintf(r.writer, "  ✗ #%d ", i)
		fmt.Fprintf(r.writer, "%s ", capture.KindOf(err))
		r.dim.Fprintf(r.writer, "(%s) ", formatLatency(d))
		fmt.Fprintf(r.writer, "%v\n", err)
		return
	}

	r.green.Fprintf(r.writer, "  ✓ #%d ", i)
	fmt.Fprintf(r.writer, "%d ", result.StatusCode)
	r.dim.Fprintf(r.writer, "(%s)", formatLatency(d))
	fmt.Fprintf(r.writer, " %s bytes", formatNumber(int64(len(result.BodyRaw))))
	if result.HasParsedBody() {
		fmt.Fprint(r.writer, " json")
	}
	fmt.Fprintln(r.writer)
}

// Summary prints the final summary
func (r *Reporter) Summary(o *Outcome) {
	if r.quiet {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	s := o.Summary
	if s == nil {
		s = &Summary{}
	}

	fmt.Fprintln(r.writer)
	r.bold.Fprintln(r.writer, "BATCH SUMMARY")
	fmt.Fprintln(r.writer, strings.Repeat("─", 40))

	fmt.Fprintf(r.writer, "Duration:   %s\n", formatDuration(s.Duration))
	fmt.Fprintf(r.writer, "Attempted:  ")
	r.bold.Fprintf(r.writer, "%d", o.Attempted)
	fmt.Fprintf(r.writer, " of %d (%.1f req/s)\n", o.Count, s.RPS)

	fmt.Fprintf(r.writer, "Success:    ")
	r.green.Fprintf(r.writer, "%s\n", formatNumber(s.SuccessCount))

	fmt.Fprintf(r.writer, "Failed:     ")
	if s.ErrorCount > 0 {
		r.red.Fprintf(r.writer, "%s", formatNumber(s.ErrorCount))
		kinds := make([]string, 0, len(s.FailuresByKind))
		for k, n := range s.FailuresByKind {
			kinds = append(kinds, fmt.Sprintf("%s: %d", k, n))
		}
		sort.Strings(kinds)
		fmt.Fprintf(r.writer, " (%s)\n", strings.Join(kinds, ", "))
	} else {
		fmt.Fprintf(r.writer, "%s\n", formatNumber(s.ErrorCount))
	}

	if o.Attempted < o.Count {
		fmt.Fprintf(r.writer, "Skipped:    ")
		r.yellow.Fprintf(r.writer, "%d\n", o.Count-o.Attempted)
	}

	if s.TotalRequests > 0 {
		fmt.Fprintln(r.writer)
		r.bold.Fprintln(r.writer, "LATENCY (ms)")
		fmt.Fprintf(r.writer, "  p50: %-6s | p95: %-6s | p99: %-6s | max: %s\n",
			formatLatencyMs(s.P50),
			formatLatencyMs(s.P95),
			formatLatencyMs(s.P99),
			formatLatencyMs(s.Max))
		fmt.Fprintf(r.writer, "  min: %-6s | mean: %-5s | stddev: %s\n",
			formatLatencyMs(s.Min),
			formatLatencyMs(s.Mean),
			formatLatencyMs(s.StdDev))
	}

	if o.Failure != nil {
		fmt.Fprintln(r.writer)
		if o.FailedCall > 0 {
			r.red.Fprintf(r.writer, "First failure (call #%d): ", o.FailedCall)
		} else {
			r.red.Fprint(r.writer, "Stopped before launching every call: ")
		}
		fmt.Fprintf(r.writer, "%v\n", o.Failure)
	}

	fmt.Fprintln(r.writer)
}

// JSONSummary outputs the outcome as JSON
func (r *Reporter) JSONSummary(o *Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := o.Summary
	if s == nil {
		s = &Summary{}
	}

	output := map[string]interface{}{
		"runId":     o.RunID,
		"variant":   o.Variant,
		"url":       o.URL,
		"mode":      o.Mode.String(),
		"count":     o.Count,
		"attempted": o.Attempted,
		"succeeded": o.Succeeded,
		"ok":        o.OK(),
		"duration":  s.Duration.String(),
		"latency": map[string]interface{}{
			"p50":    s.P50.Milliseconds(),
			"p95":    s.P95.Milliseconds(),
			"p99":    s.P99.Milliseconds(),
			"min":    s.Min.Milliseconds(),
			"max":    s.Max.Milliseconds(),
			"mean":   s.Mean.Milliseconds(),
			"stddev": s.StdDev.Milliseconds(),
		},
	}

	if o.Failure != nil {
		output["failure"] = map[string]interface{}{
			"call":    o.FailedCall,
			"kind":    capture.KindOf(o.Failure).String(),
			"message": o.Failure.Error(),
		}
	}

	if len(s.FailuresByKind) > 0 {
		output["failuresByKind"] = s.FailuresByKind
	}

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// Comparison prints a strategy comparison
func (r *Reporter) Comparison(c *Comparison) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.writer)
	r.cyan.Fprintf(r.writer, "Compare: %s\n", c.URL)
	for _, side := range []Side{c.A, c.B} {
		fmt.Fprintf(r.writer, "  %-16s ", side.Name)
		if side.Err != nil {
			r.red.Fprintf(r.writer, "%s ", side.Kind)
			fmt.Fprintf(r.writer, "%v", side.Err)
		} else {
			r.green.Fprintf(r.writer, "%d ", side.StatusCode)
			fmt.Fprintf(r.writer, "%s bytes", formatNumber(int64(len(side.Body))))
		}
		r.dim.Fprintf(r.writer, " (%s)\n", formatLatency(side.Duration))
	}
	fmt.Fprintln(r.writer)

	if c.Equivalent {
		r.green.Fprintln(r.writer, "Strategies are equivalent.")
		fmt.Fprintln(r.writer)
		return
	}

	r.red.Fprintln(r.writer, "Strategies diverged:")
	for _, d := range c.Differences {
		fmt.Fprintf(r.writer, "  - %s\n", d)
	}
	if c.BodyDiff != "" {
		fmt.Fprintln(r.writer)
		r.bold.Fprintln(r.writer, "BODY DIFF")
		fmt.Fprintln(r.writer, c.BodyDiff)
	}
	fmt.Fprintln(r.writer)
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	if seconds == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dm %02ds", minutes, seconds)
}

// formatLatency formats latency for display
func formatLatency(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dμs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// formatLatencyMs formats latency in milliseconds
func formatLatencyMs(d time.Duration) string {
	ms := float64(d.Microseconds()) / 1000
	if ms < 1 {
		return fmt.Sprintf("%.2f", ms)
	}
	if ms < 10 {
		return fmt.Sprintf("%.1f", ms)
	}
	return fmt.Sprintf("%.0f", ms)
}

// formatNumber formats a number with commas
func formatNumber(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	s := fmt.Sprintf("%d", n)
	result := make([]byte, 0, len(s)+(len(s)-1)/3)

	start := len(s) % 3
	if start == 0 {
		start = 3
	}

	result = append(result, s[:start]...)
	for i := start; i < len(s); i += 3 {
		result = append(result, ',')
		result = append(result, s[i:i+3]...)
	}

	return string(result)
}
