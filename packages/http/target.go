package http

import (
	"fmt"
	neturl "net/url"
	"strings"
)

// Strategy selects how a request target is described to the transport
type Strategy int

const (
	// DirectURL hands the URL string to the transport as-is
	DirectURL Strategy = iota
	// ParsedOptions pre-parses the URL into protocol, host and path parts and
	// assembles the transport request from those parts
	ParsedOptions
)

func (s Strategy) String() string {
	switch s {
	case DirectURL:
		return "direct-url"
	case ParsedOptions:
		return "parsed-options"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy parses a strategy name as printed by Strategy.String
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "direct-url", "direct", "url":
		return DirectURL, nil
	case "parsed-options", "parsed", "options":
		return ParsedOptions, nil
	default:
		return DirectURL, fmt.Errorf("unknown strategy: %s", s)
	}
}

// Target holds the URL parts used by the ParsedOptions strategy
type Target struct {
	Protocol string // scheme with trailing colon, e.g. "https:"
	Host     string // host with optional port
	Path     string // path plus query string
	Auth     string // escaped userinfo, empty when absent
}

// ParseTarget splits rawURL into the parts the ParsedOptions strategy uses.
// The fragment is dropped since it is never sent on the wire.
func ParseTarget(rawURL string) (Target, error) {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return Target{}, fmt.Errorf("invalid URL: %v", err)
	}

	t := Target{
		Protocol: u.Scheme + ":",
		Host:     u.Host,
		Path:     u.RequestURI(),
	}
	if u.User != nil {
		t.Auth = u.User.String()
	}
	return t, nil
}

// URL reassembles the target. The result addresses the same scheme, host,
// port, path, query and credentials as the URL the target was parsed from.
func (t Target) URL() (*neturl.URL, error) {
	var b strings.Builder
	b.WriteString(t.Protocol)
	b.WriteString("//")
	if t.Auth != "" {
		b.WriteString(t.Auth)
		b.WriteString("@")
	}
	b.WriteString(t.Host)
	b.WriteString(t.Path)

	u, err := neturl.Parse(b.String())
	if err != nil {
		return nil, fmt.Errorf("invalid target: %v", err)
	}
	return u, nil
}
