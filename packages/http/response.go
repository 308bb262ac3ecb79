package http

import (
	"strings"
	"time"
)

// Response is a fully buffered HTTP response
type Response struct {
	StatusCode int
	Status     string
	Headers    map[string]string
	Body       []byte
	Duration   time.Duration
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

func (r *Response) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func (r *Response) ContentType() string {
	return r.Header(HeaderContentType)
}

// IsJSON reports whether the Content-Type equals ContentTypeJSON exactly
func (r *Response) IsJSON() bool {
	return r.ContentType() == ContentTypeJSON
}

// IsOK reports whether the status is exactly 200. Other 2xx codes are not
// treated as success.
func (r *Response) IsOK() bool {
	return r.StatusCode == StatusOK
}
