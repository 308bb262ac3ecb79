// Package batch drives repeated captures of one request, one at a time or
// all at once, and reports the aggregate outcome. It exists to shake out
// intermittent client faults that only show up under repetition.
package batch

import (
	"fmt"
	"strings"
)

// Mode defines how a batch issues its captures
type Mode int

const (
	// Sequential waits for each capture before starting the next and stops
	// at the first failure
	Sequential Mode = iota
	// Concurrent launches every capture without waiting and collects them all
	Concurrent
)

func (m Mode) String() string {
	switch m {
	case Sequential:
		return "sequential"
	case Concurrent:
		return "concurrent"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses "sequential" or "concurrent"
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sequential", "seq", "serial":
		return Sequential, nil
	case "concurrent", "parallel", "par":
		return Concurrent, nil
	default:
		return Sequential, fmt.Errorf("unknown mode: %s", s)
	}
}

// Config holds the settings of one batch
type Config struct {
	Count int
	Mode  Mode
	Rate  float64 // launches per second in concurrent mode, 0 = no pacing

	// ForwardOptions passes method, headers and body to every capture.
	// When false only the URL is forwarded.
	ForwardOptions bool
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Count:          10,
		Mode:           Sequential,
		Rate:           0,
		ForwardOptions: true,
	}
}

// Validate checks if the config is valid
func (c *Config) Validate() error {
	if c.Count < 1 {
		return fmt.Errorf("count must be at least 1")
	}

	if c.Mode != Sequential && c.Mode != Concurrent {
		return fmt.Errorf("unknown mode: %s", c.Mode)
	}

	if c.Rate < 0 {
		return fmt.Errorf("rate cannot be negative")
	}

	return nil
}
