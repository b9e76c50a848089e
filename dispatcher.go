package errship

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Options configures a Dispatcher.
type Options struct {
	Logger    *slog.Logger
	Formatter Formatter
	// Sinks are attempted in slice order; the outcome slice preserves it.
	Sinks []Sink
	// Concurrent fans deliveries out in parallel. Outcome order is still
	// configuration order regardless of completion order.
	Concurrent bool
}

// Dispatcher fans error reports out to its configured sinks. The sink list is
// fixed at construction; concurrent Report calls are safe.
type Dispatcher struct {
	logger     *slog.Logger
	formatter  Formatter
	sinks      []Sink
	concurrent bool
}

// New constructs a dispatcher. Nil sinks are dropped. An empty sink list is
// legal and yields a no-op dispatcher; callers should treat that as a
// configuration warning, not an error.
func New(opts Options) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "errship")
	}

	sinks := make([]Sink, 0, len(opts.Sinks))
	for _, sink := range opts.Sinks {
		if sink != nil {
			sinks = append(sinks, sink)
		}
	}

	return &Dispatcher{
		logger:     logger,
		formatter:  opts.Formatter,
		sinks:      sinks,
		concurrent: opts.Concurrent,
	}
}

// Report formats and delivers one report to every configured sink and returns
// one Outcome per sink, in configuration order. It never panics and never
// returns an error: a failure on one sink is captured in its outcome and the
// remaining sinks are still attempted.
func (d *Dispatcher) Report(ctx context.Context, r Report) []Outcome {
	outcomes := make([]Outcome, len(d.sinks))
	if len(d.sinks) == 0 {
		return outcomes
	}

	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	if d.concurrent {
		var group errgroup.Group
		for i, sink := range d.sinks {
			i, sink := i, sink
			group.Go(func() error {
				outcomes[i] = d.deliver(ctx, sink, r)
				return nil
			})
		}
		_ = group.Wait()
	} else {
		for i, sink := range d.sinks {
			outcomes[i] = d.deliver(ctx, sink, r)
		}
	}

	return outcomes
}

// Enabled reports whether the dispatcher has any configured sinks.
func (d *Dispatcher) Enabled() bool { return len(d.sinks) > 0 }

func (d *Dispatcher) deliver(ctx context.Context, sink Sink, r Report) Outcome {
	name := sink.Name()
	if name == "" {
		name = "sink"
	}

	message, err := d.formatter.Format(r, sink.Kind())
	if err != nil {
		d.logger.WarnContext(ctx, "format report failed",
			"sink", name,
			"report_id", r.ID,
			"error", err,
		)
		return Outcome{Sink: name, Err: err}
	}

	if err := sink.Deliver(ctx, message); err != nil {
		d.logger.WarnContext(ctx, "report delivery failed",
			"sink", name,
			"report_id", r.ID,
			"error", err,
		)
		return Outcome{Sink: name, Err: err}
	}

	return Outcome{Sink: name}
}
