package cmd

import (
	"errors"

	"github.com/abdul-hamid-achik/httprepro/packages/capture"
)

// Exit codes for the httprepro CLI
const (
	// ExitSuccess indicates every request succeeded
	ExitSuccess = 0

	// ExitTestFailure indicates a request failed or strategies diverged
	ExitTestFailure = 1

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates the failing request never got a response
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// failureExitCode picks the exit code for a capture failure
func failureExitCode(err error) int {
	if errors.Is(err, capture.ErrTransport) {
		return ExitNetworkError
	}
	return ExitTestFailure
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var e *exitError
	if errors.As(err, &e) {
		return e.code
	}
	return ExitTestFailure
}
