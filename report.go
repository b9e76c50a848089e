// Package errship delivers application error reports to a statically
// configured set of sinks: a chat channel message, a webhook invocation, or a
// local append-only file. The reporting path never raises back to the caller;
// every per-sink failure is captured in the returned outcomes.
package errship

import (
	"context"
	"time"
)

// Kind identifies which formatting a sink expects.
type Kind int

const (
	KindChannel Kind = iota
	KindWebhook
	KindFile
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindChannel:
		return "channel"
	case KindWebhook:
		return "webhook"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// Report is one raised error plus its context, constructed at the error site.
// It is treated as immutable once handed to the dispatcher.
type Report struct {
	// ID correlates log lines and delivered messages for the same report.
	// Left empty, the dispatcher fills it with a generated id.
	ID string
	// Message is the human-readable description. Required.
	Message string
	// Err is the underlying cause; its Unwrap chain is rendered
	// outermost to innermost.
	Err error
	// OccurredAt defaults to the formatting time when zero.
	OccurredAt time.Time
	// Context holds free-form key/value tags (component, request id, ...).
	Context map[string]string
}

// Sink is a delivery target for a formatted report. Implementations are
// stateless between Deliver calls and perform no internal retries.
type Sink interface {
	Name() string
	Kind() Kind
	Deliver(ctx context.Context, message string) error
}

// NewSinkFunc adapts a function to the Sink interface (useful for tests).
func NewSinkFunc(name string, kind Kind, fn func(ctx context.Context, message string) error) Sink {
	return &sinkFunc{name: name, kind: kind, fn: fn}
}

type sinkFunc struct {
	name string
	kind Kind
	fn   func(ctx context.Context, message string) error
}

func (s *sinkFunc) Name() string { return s.name }

func (s *sinkFunc) Kind() Kind { return s.kind }

func (s *sinkFunc) Deliver(ctx context.Context, message string) error {
	if s.fn == nil {
		return nil
	}
	return s.fn(ctx, message)
}

// Outcome is the per-sink result of one report. A nil Err means delivered.
type Outcome struct {
	Sink string
	Err  error
}

// Delivered reports whether the sink accepted the message.
func (o Outcome) Delivered() bool { return o.Err == nil }
