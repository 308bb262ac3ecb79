package capture

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a capture did not succeed
type FailureKind int

const (
	// TransportError covers DNS, connection, TLS and read failures
	TransportError FailureKind = iota + 1
	// NonOKStatus means the exchange completed with a status other than 200
	NonOKStatus
	// DecodeError means the body was declared JSON but did not parse
	DecodeError
)

func (k FailureKind) String() string {
	switch k {
	case TransportError:
		return "transport"
	case NonOKStatus:
		return "status"
	case DecodeError:
		return "decode"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching against a *Failure
var (
	ErrTransport   = errors.New("transport error")
	ErrNonOKStatus = errors.New("non-OK status")
	ErrDecode      = errors.New("could not parse response")
)

// Failure is the error returned by every unsuccessful capture. Exactly one
// Kind is set.
type Failure struct {
	Kind       FailureKind
	URL        string
	StatusCode int   // NonOKStatus only
	Err        error // TransportError and DecodeError only
}

func (f *Failure) Error() string {
	switch f.Kind {
	case TransportError:
		if f.Err != nil {
			return f.Err.Error()
		}
		return ErrTransport.Error()
	case NonOKStatus:
		return fmt.Sprintf("Error accessing URL %s. StatusCode: %d", f.URL, f.StatusCode)
	case DecodeError:
		return ErrDecode.Error()
	default:
		return "capture failed"
	}
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func (f *Failure) Is(target error) bool {
	switch target {
	case ErrTransport:
		return f.Kind == TransportError
	case ErrNonOKStatus:
		return f.Kind == NonOKStatus
	case ErrDecode:
		return f.Kind == DecodeError
	}
	return false
}

// KindOf returns the failure kind of err, or 0 when err is not a *Failure
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return 0
}
