package capture

import (
	"context"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/httprepro/packages/http"
	"github.com/tidwall/gjson"
)

// Doer performs one buffered exchange. *http.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Result is a successful capture. The body is fully materialized.
type Result struct {
	StatusCode int
	Headers    map[string]string
	BodyRaw    string
	BodyParsed any
	Duration   time.Duration

	parsed   bool
	bodyJSON gjson.Result
}

// HasParsedBody reports whether BodyParsed was populated from a JSON body.
// A body of literal null parses to a nil BodyParsed, so check this instead.
func (r *Result) HasParsedBody() bool {
	return r.parsed
}

func (r *Result) Header(name string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// Field looks up a gjson path inside a parsed body. An empty path returns
// the whole decoded value.
func (r *Result) Field(path string) (any, bool) {
	if !r.parsed {
		return nil, false
	}
	if path == "" {
		return r.BodyParsed, true
	}
	result := r.bodyJSON.Get(path)
	if !result.Exists() {
		return nil, false
	}
	return result.Value(), true
}

type Capturer struct {
	client Doer
}

func New(client Doer) *Capturer {
	return &Capturer{client: client}
}

// Capture performs a single request and classifies the response. Only a 200
// status counts as success; other 2xx codes are reported as NonOKStatus.
// A body declared as JSON that fails to parse is a DecodeError even when the
// status was 200.
func (c *Capturer) Capture(ctx context.Context, req *http.Request) (*Result, error) {
	resp, err := c.client.Do(ctx, req)
	if err != nil {
		return nil, &Failure{Kind: TransportError, URL: req.URL, Err: err}
	}

	if !resp.IsOK() {
		return nil, &Failure{Kind: NonOKStatus, URL: req.URL, StatusCode: resp.StatusCode}
	}

	result := &Result{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		BodyRaw:    resp.BodyString(),
		Duration:   resp.Duration,
	}

	if resp.IsJSON() {
		if !gjson.ValidBytes(resp.Body) {
			return nil, &Failure{Kind: DecodeError, URL: req.URL, Err: ErrDecode}
		}
		result.bodyJSON = gjson.ParseBytes(resp.Body)
		result.BodyParsed = result.bodyJSON.Value()
		result.parsed = true
	}

	return result, nil
}
