// Package notify provides the user-facing surface of httprepro: a text prompt
// and info/error notifications.
package notify

import (
	"context"
	"fmt"
	"strings"
)

// NotifyOn specifies which notifications are forwarded
type NotifyOn string

const (
	// NotifyAlways forwards every notification
	NotifyAlways NotifyOn = "always"
	// NotifyFailure forwards only error notifications
	NotifyFailure NotifyOn = "failure"
	// NotifySuccess forwards only info notifications
	NotifySuccess NotifyOn = "success"
)

// ParseNotifyOn parses a NotifyOn policy name. An empty string means always.
func ParseNotifyOn(s string) (NotifyOn, error) {
	switch NotifyOn(strings.ToLower(strings.TrimSpace(s))) {
	case "", NotifyAlways:
		return NotifyAlways, nil
	case NotifyFailure:
		return NotifyFailure, nil
	case NotifySuccess:
		return NotifySuccess, nil
	default:
		return "", fmt.Errorf("unknown notify policy: %s", s)
	}
}

// Prompter asks the user for a line of text
type Prompter interface {
	// PromptText returns ok=false when the user dismissed the prompt.
	// Dismissal is not an error.
	PromptText(ctx context.Context, placeholder, prompt, defaultValue string) (value string, ok bool, err error)
}

// Notifier shows messages to the user
type Notifier interface {
	NotifyInfo(message string) error
	NotifyError(message string) error
}

// Surface is the full user-facing surface
type Surface interface {
	Prompter
	Notifier
}

type surface struct {
	Prompter
	Notifier
}

// Compose builds a Surface out of a separate prompter and notifier
func Compose(p Prompter, n Notifier) Surface {
	return surface{Prompter: p, Notifier: n}
}

// Multi fans notifications out to several notifiers. Every notifier is
// called; the last error is returned.
type Multi []Notifier

func (m Multi) NotifyInfo(message string) error {
	var lastErr error
	for _, n := range m {
		if err := n.NotifyInfo(message); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (m Multi) NotifyError(message string) error {
	var lastErr error
	for _, n := range m {
		if err := n.NotifyError(message); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

type filtered struct {
	notifyOn NotifyOn
	next     Notifier
}

// Filter forwards notifications to next according to the NotifyOn policy
func Filter(notifyOn NotifyOn, next Notifier) Notifier {
	return &filtered{notifyOn: notifyOn, next: next}
}

func (f *filtered) NotifyInfo(message string) error {
	if f.notifyOn == NotifyFailure {
		return nil
	}
	return f.next.NotifyInfo(message)
}

func (f *filtered) NotifyError(message string) error {
	if f.notifyOn == NotifySuccess {
		return nil
	}
	return f.next.NotifyError(message)
}
