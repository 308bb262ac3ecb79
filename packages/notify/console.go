package notify

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Console is a terminal Surface. An empty answer selects the default value;
// end of input dismisses the prompt.
//
// A single goroutine reads the input for the lifetime of the Console, so a
// line typed after a cancelled prompt goes to the next one.
type Console struct {
	in      *bufio.Reader
	out     io.Writer
	noColor bool

	readOnce sync.Once
	lines    chan line

	green *color.Color
	red   *color.Color
	dim   *color.Color
	bold  *color.Color
}

type ConsoleOption func(*Console)

func WithInput(r io.Reader) ConsoleOption {
	return func(c *Console) {
		c.in = bufio.NewReader(r)
	}
}

func WithOutput(w io.Writer) ConsoleOption {
	return func(c *Console) {
		c.out = w
	}
}

func WithNoColor(noColor bool) ConsoleOption {
	return func(c *Console) {
		c.noColor = noColor
	}
}

func NewConsole(opts ...ConsoleOption) *Console {
	c := &Console{
		in:    bufio.NewReader(os.Stdin),
		out:   os.Stderr,
		lines: make(chan line),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.noColor {
		color.NoColor = true
	}
	c.green = color.New(color.FgGreen)
	c.red = color.New(color.FgRed)
	c.dim = color.New(color.Faint)
	c.bold = color.New(color.Bold)
	return c
}

type line struct {
	text string
	err  error
}

// readLines feeds c.lines until the input fails, then closes it
func (c *Console) readLines() {
	defer close(c.lines)
	for {
		text, err := c.in.ReadString('\n')
		c.lines <- line{text: text, err: err}
		if err != nil {
			return
		}
	}
}

func (c *Console) PromptText(ctx context.Context, placeholder, prompt, defaultValue string) (string, bool, error) {
	c.bold.Fprint(c.out, prompt)
	switch {
	case defaultValue != "":
		c.dim.Fprintf(c.out, " [%s]", defaultValue)
	case placeholder != "":
		c.dim.Fprintf(c.out, " (e.g. %s)", placeholder)
	}
	fmt.Fprint(c.out, ": ")

	c.readOnce.Do(func() { go c.readLines() })

	var l line
	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case got, ok := <-c.lines:
		if !ok {
			got = line{err: io.EOF}
		}
		l = got
	}

	if l.err != nil && !errors.Is(l.err, io.EOF) {
		return "", false, l.err
	}
	if errors.Is(l.err, io.EOF) && l.text == "" {
		fmt.Fprintln(c.out)
		return "", false, nil
	}

	value := strings.TrimSpace(l.text)
	if value == "" {
		value = defaultValue
	}
	return value, true, nil
}

func (c *Console) NotifyInfo(message string) error {
	c.green.Fprint(c.out, "✓ ")
	fmt.Fprintln(c.out, message)
	return nil
}

func (c *Console) NotifyError(message string) error {
	c.red.Fprint(c.out, "✗ ")
	fmt.Fprintln(c.out, message)
	return nil
}
