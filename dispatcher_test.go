package errship

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportOutcomeOrderAndPartialFailure(t *testing.T) {
	ctx := context.Background()

	var delivered []string
	var mu sync.Mutex
	record := func(name string) func(context.Context, string) error {
		return func(ctx context.Context, message string) error {
			mu.Lock()
			defer mu.Unlock()
			delivered = append(delivered, name)
			return nil
		}
	}

	dispatcher := New(Options{
		Sinks: []Sink{
			NewSinkFunc("first", KindChannel, record("first")),
			NewSinkFunc("broken", KindWebhook, func(ctx context.Context, message string) error {
				return &TransportError{Err: errors.New("connection refused")}
			}),
			NewSinkFunc("last", KindFile, record("last")),
		},
	})

	outcomes := dispatcher.Report(ctx, Report{Message: "boom"})

	require.Len(t, outcomes, 3)
	assert.Equal(t, []string{"first", "broken", "last"}, []string{outcomes[0].Sink, outcomes[1].Sink, outcomes[2].Sink})
	assert.True(t, outcomes[0].Delivered())
	assert.False(t, outcomes[1].Delivered())
	assert.True(t, outcomes[2].Delivered())

	var transportErr *TransportError
	require.ErrorAs(t, outcomes[1].Err, &transportErr)

	// The broken sink never blocked the one after it.
	assert.Equal(t, []string{"first", "last"}, delivered)
}

func TestReportOutcomeLengthStableAcrossCalls(t *testing.T) {
	calls := 0
	dispatcher := New(Options{
		Sinks: []Sink{
			NewSinkFunc("flaky", KindWebhook, func(ctx context.Context, message string) error {
				calls++
				if calls%2 == 0 {
					return &TransportError{Err: errors.New("down")}
				}
				return nil
			}),
			NewSinkFunc("steady", KindFile, nil),
		},
	})

	for i := 0; i < 4; i++ {
		outcomes := dispatcher.Report(context.Background(), Report{Message: "boom"})
		require.Len(t, outcomes, 2)
		assert.Equal(t, "flaky", outcomes[0].Sink)
		assert.Equal(t, "steady", outcomes[1].Sink)
	}
}

func TestReportEmptySinkList(t *testing.T) {
	dispatcher := New(Options{})

	assert.False(t, dispatcher.Enabled())
	outcomes := dispatcher.Report(context.Background(), Report{Message: "boom"})
	assert.Empty(t, outcomes)
}

func TestNewFiltersNilSinks(t *testing.T) {
	dispatcher := New(Options{
		Sinks: []Sink{nil, NewSinkFunc("only", KindFile, nil), nil},
	})

	assert.True(t, dispatcher.Enabled())
	outcomes := dispatcher.Report(context.Background(), Report{Message: "boom"})
	require.Len(t, outcomes, 1)
	assert.Equal(t, "only", outcomes[0].Sink)
}

func TestReportFormatFailureSkipsDelivery(t *testing.T) {
	deliveries := 0
	dispatcher := New(Options{
		Sinks: []Sink{
			NewSinkFunc("a", KindChannel, func(ctx context.Context, message string) error {
				deliveries++
				return nil
			}),
			NewSinkFunc("b", KindFile, func(ctx context.Context, message string) error {
				deliveries++
				return nil
			}),
		},
	})

	outcomes := dispatcher.Report(context.Background(), Report{Message: "   "})

	require.Len(t, outcomes, 2)
	for _, outcome := range outcomes {
		assert.ErrorIs(t, outcome.Err, ErrEmptyMessage)
	}
	assert.Zero(t, deliveries, "delivery must not be attempted when formatting fails")
}

func TestReportFormatsPerSinkKind(t *testing.T) {
	messages := map[string]string{}
	var mu sync.Mutex
	capture := func(name string) func(context.Context, string) error {
		return func(ctx context.Context, message string) error {
			mu.Lock()
			defer mu.Unlock()
			messages[name] = message
			return nil
		}
	}

	dispatcher := New(Options{
		Sinks: []Sink{
			NewSinkFunc("rich", KindChannel, capture("rich")),
			NewSinkFunc("record", KindFile, capture("record")),
		},
	})

	dispatcher.Report(context.Background(), Report{Message: "boom"})

	require.Contains(t, messages["rich"], "*boom*")
	require.True(t, strings.HasSuffix(messages["record"], "\n"))
	assert.NotEqual(t, messages["rich"], messages["record"])
}

func TestReportAssignsID(t *testing.T) {
	var captured string
	dispatcher := New(Options{
		Sinks: []Sink{
			NewSinkFunc("capture", KindFile, func(ctx context.Context, message string) error {
				captured = message
				return nil
			}),
		},
	})

	dispatcher.Report(context.Background(), Report{Message: "boom"})
	assert.Contains(t, captured, "id=")
}

func TestReportConcurrentPreservesOrder(t *testing.T) {
	delays := []time.Duration{40 * time.Millisecond, 20 * time.Millisecond, 0}
	sinks := make([]Sink, len(delays))
	names := []string{"slow", "medium", "fast"}
	for i := range delays {
		delay := delays[i]
		sinks[i] = NewSinkFunc(names[i], KindWebhook, func(ctx context.Context, message string) error {
			time.Sleep(delay)
			return nil
		})
	}

	dispatcher := New(Options{Sinks: sinks, Concurrent: true})

	outcomes := dispatcher.Report(context.Background(), Report{Message: "boom"})
	require.Len(t, outcomes, 3)
	for i, name := range names {
		assert.Equal(t, name, outcomes[i].Sink)
		assert.True(t, outcomes[i].Delivered())
	}
}

func TestReportUnnamedSinkGetsFallbackName(t *testing.T) {
	dispatcher := New(Options{
		Sinks: []Sink{NewSinkFunc("", KindFile, nil)},
	})

	outcomes := dispatcher.Report(context.Background(), Report{Message: "boom"})
	require.Len(t, outcomes, 1)
	assert.Equal(t, "sink", outcomes[0].Sink)
}
