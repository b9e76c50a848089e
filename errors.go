package errship

import (
	"errors"
	"fmt"
	"time"
)

// ErrEmptyMessage is returned by the formatter when a report carries no
// message text.
var ErrEmptyMessage = errors.New("report message is empty")

// TransportError wraps a network or client failure that prevented the sink
// from reaching its target at all.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RateLimitedError is surfaced when the platform signals rate limiting.
// Delivery is single-shot; the sink never waits out RetryAfter itself.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// RejectedError is any other non-success response from the platform. Status
// is zero when the platform rejected the message at the API level rather than
// with a transport status (e.g. an ok:false body on HTTP 200).
type RejectedError struct {
	Status int
	Body   string
}

func (e *RejectedError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("rejected by platform: %s", e.Body)
	}
	return fmt.Sprintf("rejected with status %d: %s", e.Status, e.Body)
}

// IOError wraps a filesystem failure from the file sink.
type IOError struct {
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("file sink i/o failure: %v", e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
