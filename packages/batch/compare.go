package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/httprepro/packages/capture"
	"github.com/abdul-hamid-achik/httprepro/packages/http"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Contender is a named capturer taking part in a comparison
type Contender struct {
	Name     string
	Capturer Capturer
}

// Side is what one contender observed
type Side struct {
	Name       string
	StatusCode int
	Kind       capture.FailureKind
	Err        error
	Body       string
	Duration   time.Duration
}

// Comparison is the result of capturing one request with two contenders
type Comparison struct {
	URL         string
	A, B        Side
	Equivalent  bool
	Differences []string
	BodyDiff    string
}

// Compare captures req once with each contender, one after the other, and
// reports whether the outcomes agree on failure kind, status and body.
func Compare(ctx context.Context, req *http.Request, a, b Contender) *Comparison {
	c := &Comparison{
		URL: req.URL,
		A:   observe(ctx, req, a),
		B:   observe(ctx, req, b),
	}

	if c.A.Kind != c.B.Kind {
		c.Differences = append(c.Differences, fmt.Sprintf("outcome: %s=%s, %s=%s",
			c.A.Name, outcomeName(c.A), c.B.Name, outcomeName(c.B)))
	}
	if c.A.StatusCode != c.B.StatusCode {
		c.Differences = append(c.Differences, fmt.Sprintf("status: %s=%d, %s=%d",
			c.A.Name, c.A.StatusCode, c.B.Name, c.B.StatusCode))
	}
	if c.A.Err == nil && c.B.Err == nil && c.A.Body != c.B.Body {
		c.Differences = append(c.Differences, fmt.Sprintf("body: %s=%d bytes, %s=%d bytes",
			c.A.Name, len(c.A.Body), c.B.Name, len(c.B.Body)))

		dmp := diffmatchpatch.New()
		diffs := dmp.DiffMain(c.A.Body, c.B.Body, false)
		diffs = dmp.DiffCleanupSemantic(diffs)
		c.BodyDiff = dmp.DiffPrettyText(diffs)
	}

	c.Equivalent = len(c.Differences) == 0
	return c
}

func observe(ctx context.Context, req *http.Request, contender Contender) Side {
	side := Side{Name: contender.Name}

	start := time.Now()
	result, err := contender.Capturer.Capture(ctx, req)
	side.Duration = time.Since(start)

	if err != nil {
		side.Err = err
		side.Kind = capture.KindOf(err)
		var f *capture.Failure
		if errors.As(err, &f) {
			side.StatusCode = f.StatusCode
		}
		return side
	}

	side.StatusCode = result.StatusCode
	side.Body = result.BodyRaw
	return side
}

func outcomeName(s Side) string {
	if s.Err == nil {
		return "success"
	}
	return s.Kind.String()
}
