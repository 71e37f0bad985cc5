package notify

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type flakyTransport struct {
	mu       sync.Mutex
	failures int
	calls    int
}

func (t *flakyTransport) Send(_ context.Context, _ int64, _ Kind, _ Fields) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	if t.calls <= t.failures {
		return errors.New("transport down")
	}
	return nil
}

func fastConfig(maxRetries int) Config {
	return Config{
		RatePerSecond: 1000,
		Burst:         1000,
		MaxRetries:    maxRetries,
		RetryDelays:   []time.Duration{time.Millisecond},
	}
}

func TestDispatcher_SendSucceeds(t *testing.T) {
	tr := &flakyTransport{}
	d := NewDispatcher(tr, fastConfig(3), zerolog.New(io.Discard))

	err := d.Send(context.Background(), 7, KindBookingReminder, Fields{"event": "Seminar"})
	assert.NoError(t, err)
	assert.Equal(t, 1, tr.calls)
}

func TestDispatcher_RetriesThenSucceeds(t *testing.T) {
	tr := &flakyTransport{failures: 2}
	d := NewDispatcher(tr, fastConfig(3), zerolog.New(io.Discard))

	err := d.Send(context.Background(), 7, KindWaitlistAvailable, nil)
	assert.NoError(t, err)
	assert.Equal(t, 3, tr.calls)
}

func TestDispatcher_ExhaustsRetries(t *testing.T) {
	tr := &flakyTransport{failures: 10}
	d := NewDispatcher(tr, fastConfig(2), zerolog.New(io.Discard))

	err := d.Send(context.Background(), 7, KindBookingCancelled, nil)
	assert.Error(t, err)
	assert.Equal(t, 3, tr.calls) // initial attempt plus two retries
}

func TestDispatcher_ContextCancelledDuringBackoff(t *testing.T) {
	tr := &flakyTransport{failures: 10}
	cfg := fastConfig(3)
	cfg.RetryDelays = []time.Duration{time.Minute}
	d := NewDispatcher(tr, cfg, zerolog.New(io.Discard))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := d.Send(ctx, 7, KindBookingConfirmed, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, tr.calls)
}
