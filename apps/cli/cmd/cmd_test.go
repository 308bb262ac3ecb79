package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/abdul-hamid-achik/httprepro/packages/capture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--no-color"}, args...))
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

// jsonServer counts hits and answers 500 on the listed 1-based hits
func jsonServer(t *testing.T, hits *atomic.Int64, failing ...int64) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		for _, f := range failing {
			if n == f {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGet_Success(t *testing.T) {
	var hits atomic.Int64
	server := jsonServer(t, &hits)

	for _, repro := range []bool{true, false} {
		args := []string{"get"}
		if repro {
			args = append(args, "--repro")
		}
		_, stderr, err := execute(t, server.URL+"\n", args...)
		require.NoError(t, err)
		assert.Contains(t, stderr, "Provide a URL to GET.")
		if repro {
			assert.Contains(t, stderr, "Repro test? true, Request succeeded: "+server.URL)
		} else {
			assert.Contains(t, stderr, "Repro test? false, Request succeeded: "+server.URL)
		}
	}
	assert.Equal(t, int64(2), hits.Load())
}

func TestGet_Dismissed(t *testing.T) {
	var hits atomic.Int64
	jsonServer(t, &hits)

	_, stderr, err := execute(t, "", "get")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "Request succeeded")
	assert.Zero(t, hits.Load())
}

func TestGet_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, stderr, err := execute(t, server.URL+"/missing\n", "get")
	require.Error(t, err)
	assert.Equal(t, ExitTestFailure, exitCode(err))
	assert.Contains(t, err.Error(), "StatusCode: 404")
	assert.Contains(t, stderr, "Repro test? false")
	assert.NotContains(t, stderr, "Request succeeded")
}

func TestBatch_SequentialStopsAtFailure(t *testing.T) {
	var hits atomic.Int64
	server := jsonServer(t, &hits, 3)

	stdout, stderr, err := execute(t, "", "batch", server.URL, "-n", "5")
	require.Error(t, err)
	assert.Equal(t, ExitTestFailure, exitCode(err))
	assert.Contains(t, err.Error(), "call 3 of 5 failed")
	assert.Equal(t, int64(3), hits.Load())
	assert.Contains(t, stdout, "Skipped:    2")
	assert.Contains(t, stderr, "✗ failed: Error accessing URL")
}

func TestBatch_VariantJSON(t *testing.T) {
	var hits atomic.Int64
	server := jsonServer(t, &hits)

	stdout, stderr, err := execute(t, "", "batch", server.URL, "--variant", "norepro-concurrent", "-n", "4", "--json")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, "norepro-concurrent", got["variant"])
	assert.Equal(t, "concurrent", got["mode"])
	assert.Equal(t, true, got["ok"])
	assert.Equal(t, float64(4), got["succeeded"])
	assert.Equal(t, int64(4), hits.Load())
	assert.Contains(t, stderr, "[norepro-concurrent] all 4 request(s) succeeded")
}

func TestBatch_URLOnlyDropsOptions(t *testing.T) {
	var methods, headers []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		headers = append(headers, r.Header.Get("X-Trace"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, _, err := execute(t, "", "batch", server.URL, "--variant", "url-only", "-n", "1",
		"-X", "PUT", "-H", "X-Trace: 1", "-d", "payload")
	require.NoError(t, err)
	assert.Equal(t, []string{"GET"}, methods)
	assert.Equal(t, []string{""}, headers)

	methods, headers = nil, nil
	_, _, err = execute(t, "", "batch", server.URL, "-n", "1", "-X", "PUT", "-H", "X-Trace: 1", "-d", "payload")
	require.NoError(t, err)
	assert.Equal(t, []string{"PUT"}, methods)
	assert.Equal(t, []string{"1"}, headers)
}

func TestBatch_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no url", []string{"batch"}, "no URL given"},
		{"bad variant", []string{"batch", "http://127.0.0.1:1", "--variant", "bogus"}, "unknown variant"},
		{"bad mode", []string{"batch", "http://127.0.0.1:1", "--mode", "burst"}, "unknown mode"},
		{"bad header", []string{"batch", "http://127.0.0.1:1", "-H", "nocolon"}, "invalid header"},
		{"bad url", []string{"batch", "ftp://example.com"}, "ftp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, "", tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitUsageError, exitCode(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBatch_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, _, err := execute(t, "", "batch", url, "-n", "2")
	require.Error(t, err)
	assert.Equal(t, ExitNetworkError, exitCode(err))
}

func TestBatch_LogFile(t *testing.T) {
	var hits atomic.Int64
	server := jsonServer(t, &hits)
	logFile := filepath.Join(t.TempDir(), "logs", "trace.log")

	_, _, err := execute(t, "", "--log-file", logFile, "--log-level", "debug", "batch", server.URL, "-n", "2")
	require.NoError(t, err)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "batch started")
	assert.Contains(t, string(data), "batch succeeded")
}

func TestConfigFileAndEnv(t *testing.T) {
	var hits atomic.Int64
	server := jsonServer(t, &hits)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "httprepro.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("url: "+server.URL+"\ncount: 2\n"), 0644))

	_, _, err := execute(t, "", "--config", cfgPath, "batch")
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits.Load())

	t.Setenv("HTTPREPRO_COUNT", "3")
	_, _, err = execute(t, "", "--config", cfgPath, "batch")
	require.NoError(t, err)
	assert.Equal(t, int64(5), hits.Load())

	_, _, err = execute(t, "", "--config", filepath.Join(dir, "missing.json"), "batch")
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, exitCode(err))
}

func TestBatch_MaxRedirectsFromConfig(t *testing.T) {
	// /hop/2 -> /hop/1 -> /hop/0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/hop/2":
			http.Redirect(w, r, "/hop/1", http.StatusFound)
		case "/hop/1":
			http.Redirect(w, r, "/hop/0", http.StatusFound)
		default:
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			_, _ = w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer server.Close()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "httprepro.yaml")

	require.NoError(t, os.WriteFile(cfgPath, []byte("followRedirects: true\nmaxRedirects: 1\n"), 0644))
	_, _, err := execute(t, "", "--config", cfgPath, "batch", server.URL+"/hop/2", "-n", "1")
	require.Error(t, err)
	assert.Equal(t, ExitTestFailure, exitCode(err))
	assert.Contains(t, err.Error(), "StatusCode: 302")

	require.NoError(t, os.WriteFile(cfgPath, []byte("followRedirects: true\nmaxRedirects: 2\n"), 0644))
	_, _, err = execute(t, "", "--config", cfgPath, "batch", server.URL+"/hop/2", "-n", "1")
	require.NoError(t, err)
}

func TestCompare(t *testing.T) {
	var hits atomic.Int64
	server := jsonServer(t, &hits)

	stdout, _, err := execute(t, "", "compare", server.URL+"/x?y=1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "direct-url")
	assert.Contains(t, stdout, "parsed-options")
	assert.Contains(t, stdout, "Strategies are equivalent.")
	assert.Equal(t, int64(2), hits.Load())

	stdout, _, err = execute(t, "", "compare", server.URL, "--json")
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, true, got["equivalent"])
}

func TestCompare_Diverged(t *testing.T) {
	var hits atomic.Int64
	server := jsonServer(t, &hits, 2)

	stdout, _, err := execute(t, "", "compare", server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, errStrategiesDiverged)
	assert.Equal(t, ExitTestFailure, exitCode(err))
	assert.Contains(t, stdout, "Strategies diverged:")
}

func TestVariantsAndVersion(t *testing.T) {
	stdout, _, err := execute(t, "", "variants")
	require.NoError(t, err)
	for _, name := range []string{"repro", "norepro", "repro-concurrent", "norepro-concurrent", "url-only"} {
		assert.Contains(t, stdout, name)
	}
	assert.Contains(t, stdout, "forwards=URL only")

	stdout, _, err = execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "httprepro version dev")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, exitCode(nil))
	assert.Equal(t, ExitTestFailure, exitCode(errors.New("boom")))
	assert.Equal(t, ExitConfigError, exitCode(withExitCode(ExitConfigError, errors.New("bad"))))
	assert.Nil(t, withExitCode(ExitConfigError, nil))

	transport := &capture.Failure{Kind: capture.TransportError, Err: errors.New("refused")}
	assert.Equal(t, ExitNetworkError, failureExitCode(transport))
	assert.Equal(t, ExitTestFailure, failureExitCode(&capture.Failure{Kind: capture.NonOKStatus, StatusCode: 500}))
}

func TestBatch_MetricsOut(t *testing.T) {
	var hits atomic.Int64
	server := jsonServer(t, &hits)
	path := filepath.Join(t.TempDir(), "batch.prom")

	_, _, err := execute(t, "", "batch", server.URL, "--variant", "repro", "-n", "2", "--metrics-out", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `httprepro_requests_success_total{variant="repro",mode="sequential"} 2`)

	_, _, err = execute(t, "", "batch", server.URL, "--metrics-out", path, "--metrics-format", "csv")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, exitCode(err))
}

func TestBatch_WebhookNotifyOnFailure(t *testing.T) {
	var slackHits atomic.Int64
	slack := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slackHits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer slack.Close()

	var hits atomic.Int64
	server := jsonServer(t, &hits, 4)

	cfgPath := filepath.Join(t.TempDir(), ".httprepro.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"slackWebhook": "`+slack.URL+`", "notifyOn": "failure"}`), 0644))

	_, stderr, err := execute(t, "", "--config", cfgPath, "batch", server.URL, "-n", "3")
	require.NoError(t, err)
	assert.Contains(t, stderr, "all 3 request(s) succeeded")
	assert.Zero(t, slackHits.Load(), "success is filtered out for webhooks")

	_, _, err = execute(t, "", "--config", cfgPath, "batch", server.URL, "-n", "3")
	require.Error(t, err)
	assert.Equal(t, int64(1), slackHits.Load())
}
