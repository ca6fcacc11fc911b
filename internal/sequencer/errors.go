package sequencer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// StatusError reports a non-2xx HTTP response from a provider.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// RequestError wraps the final failure of a sequenced request together with
// the number of retries that were actually attempted.
type RequestError struct {
	Retries int
	Err     error
}

func (e *RequestError) Error() string {
	if e.Retries == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s (after %d retries)", e.Err.Error(), e.Retries)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// ErrClosed is returned for requests submitted after the sequencer stopped.
var ErrClosed = errors.New("sequencer closed")

// Retryable classifies an attempt failure. Network-class errors (timeout,
// connection reset or refused, DNS failure) and HTTP 5xx server errors are
// transient; 4xx and every other status fail immediately.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED)
}
