package metrics

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// PrometheusExporter writes metrics in the Prometheus text exposition format,
// suitable for the node_exporter textfile collector
type PrometheusExporter struct {
	mu       sync.Mutex
	writer   io.Writer
	filePath string
}

// PrometheusOption is a functional option for PrometheusExporter
type PrometheusOption func(*PrometheusExporter)

// WithPrometheusWriter sets the output writer for Prometheus metrics
func WithPrometheusWriter(w io.Writer) PrometheusOption {
	return func(p *PrometheusExporter) {
		p.writer = w
	}
}

// WithPrometheusFile sets the output file for Prometheus metrics
func WithPrometheusFile(path string) PrometheusOption {
	return func(p *PrometheusExporter) {
		p.filePath = path
	}
}

// NewPrometheusExporter creates a new Prometheus metrics exporter
func NewPrometheusExporter(opts ...PrometheusOption) *PrometheusExporter {
	p := &PrometheusExporter{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Export writes the aggregate
func (p *PrometheusExporter) Export(metrics *AggregateMetrics) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var sb strings.Builder
	writeMetrics(&sb, metrics)

	if p.filePath != "" {
		if err := os.WriteFile(p.filePath, []byte(sb.String()), 0644); err != nil {
			return fmt.Errorf("failed to write metrics file: %w", err)
		}
	}
	if p.writer != nil {
		if _, err := io.WriteString(p.writer, sb.String()); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

// ExportSingle is a no-op; only aggregates are exposed
func (p *PrometheusExporter) ExportSingle(metric *CallMetric) error {
	return nil
}

// writeMetrics renders the aggregate without sample timestamps, which the
// textfile collector rejects
func writeMetrics(w io.Writer, a *AggregateMetrics) {
	labels := fmt.Sprintf("variant=\"%s\",mode=\"%s\"", sanitizeLabel(a.Variant), sanitizeLabel(a.Mode))

	fmt.Fprintf(w, "# HELP httprepro_requests_total Total number of captures attempted\n")
	fmt.Fprintf(w, "# TYPE httprepro_requests_total counter\n")
	fmt.Fprintf(w, "httprepro_requests_total{%s} %d\n", labels, a.TotalRequests)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP httprepro_requests_success_total Captures that returned 200 with a readable body\n")
	fmt.Fprintf(w, "# TYPE httprepro_requests_success_total counter\n")
	fmt.Fprintf(w, "httprepro_requests_success_total{%s} %d\n", labels, a.SuccessCount)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP httprepro_requests_failed_total Failed captures by failure kind\n")
	fmt.Fprintf(w, "# TYPE httprepro_requests_failed_total counter\n")
	kinds := make([]string, 0, len(a.FailuresByKind))
	for k := range a.FailuresByKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	if len(kinds) == 0 {
		fmt.Fprintf(w, "httprepro_requests_failed_total{%s} %d\n", labels, a.FailureCount)
	}
	for _, k := range kinds {
		fmt.Fprintf(w, "httprepro_requests_failed_total{%s,kind=\"%s\"} %d\n", labels, sanitizeLabel(k), a.FailuresByKind[k])
	}
	fmt.Fprintln(w)

	gauges := []struct {
		name, help string
		value      float64
	}{
		{"httprepro_request_duration_min_ms", "Fastest capture in milliseconds", a.MinDurationMs},
		{"httprepro_request_duration_max_ms", "Slowest capture in milliseconds", a.MaxDurationMs},
		{"httprepro_request_duration_avg_ms", "Mean capture duration in milliseconds", a.AvgDurationMs},
	}
	for _, g := range gauges {
		fmt.Fprintf(w, "# HELP %s %s\n", g.name, g.help)
		fmt.Fprintf(w, "# TYPE %s gauge\n", g.name)
		fmt.Fprintf(w, "%s{%s} %.2f\n", g.name, labels, g.value)
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "# HELP httprepro_request_duration_ms Capture duration percentiles in milliseconds\n")
	fmt.Fprintf(w, "# TYPE httprepro_request_duration_ms summary\n")
	quantiles := []struct {
		q     string
		value float64
	}{
		{"0.5", a.P50DurationMs},
		{"0.95", a.P95DurationMs},
		{"0.99", a.P99DurationMs},
	}
	for _, q := range quantiles {
		if q.value > 0 {
			fmt.Fprintf(w, "httprepro_request_duration_ms{%s,quantile=\"%s\"} %.2f\n", labels, q.q, q.value)
		}
	}
	fmt.Fprintf(w, "httprepro_request_duration_ms_sum{%s} %.2f\n", labels, a.TotalDurationMs)
	fmt.Fprintf(w, "httprepro_request_duration_ms_count{%s} %d\n", labels, a.TotalRequests)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP httprepro_requests_by_status_total Captures by HTTP status code\n")
	fmt.Fprintf(w, "# TYPE httprepro_requests_by_status_total counter\n")

	codes := make([]int, 0, len(a.StatusCodes))
	for code := range a.StatusCodes {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	for _, code := range codes {
		fmt.Fprintf(w, "httprepro_requests_by_status_total{%s,status=\"%d\"} %d\n", labels, code, a.StatusCodes[code])
	}
}

// sanitizeLabel makes a string safe for use as a Prometheus label value
func sanitizeLabel(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

// Close is a no-op
func (p *PrometheusExporter) Close() error {
	return nil
}

// NewExporter picks an exporter for format ("json" or "prometheus") writing
// to path. An empty format is inferred from the extension.
func NewExporter(format, path string) (Exporter, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".prom", ".txt":
			format = "prometheus"
		default:
			format = "json"
		}
	}

	switch strings.ToLower(format) {
	case "json":
		return NewJSONExporter(WithJSONFile(path)), nil
	case "prometheus", "prom":
		return NewPrometheusExporter(WithPrometheusFile(path)), nil
	default:
		return nil, fmt.Errorf("unknown metrics format: %s", format)
	}
}
