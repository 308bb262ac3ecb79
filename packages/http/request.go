package http

import (
	"strings"
)

const (
	// StatusOK is the only status code a capture treats as success
	StatusOK = 200

	MethodGet  = "GET"
	MethodPost = "POST"

	HeaderContentType = "Content-Type"

	// ContentTypeJSON is the exact Content-Type value that marks a response
	// body for JSON decoding. Matching is case-sensitive and includes the
	// charset parameter.
	ContentTypeJSON = "application/json; charset=utf-8"
)

// Request describes one outbound request. It is not modified by the client.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

func NewRequest(method, requestURL string) *Request {
	return &Request{
		Method:  method,
		URL:     requestURL,
		Headers: make(map[string]string),
	}
}

func (r *Request) SetHeader(key, value string) *Request {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
	return r
}

func (r *Request) SetBody(body []byte) *Request {
	r.Body = body
	return r
}

// HasBody reports whether the request carries a non-empty payload
func (r *Request) HasBody() bool {
	return len(r.Body) > 0
}

// EffectiveMethod returns the explicit method when set, otherwise POST for
// requests with a body and GET for requests without one.
func (r *Request) EffectiveMethod() string {
	if m := strings.TrimSpace(r.Method); m != "" {
		return strings.ToUpper(m)
	}
	if r.HasBody() {
		return MethodPost
	}
	return MethodGet
}

// URLOnly returns a request for the same URL with method, headers and body
// dropped.
func (r *Request) URLOnly() *Request {
	return &Request{URL: r.URL}
}
