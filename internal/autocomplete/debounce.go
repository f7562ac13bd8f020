// Package autocomplete serves place suggestions while the user types,
// waiting for a pause in typing before asking the vendor.
package autocomplete

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultDelay is the pause after the last keystroke before a lookup.
const DefaultDelay = 350 * time.Millisecond

// ErrSuperseded is returned to a caller whose wait was replaced by a
// newer request for the same key.
var ErrSuperseded = errors.New("autocomplete: superseded by a newer request")

type waiter struct {
	id     uint64
	cancel context.CancelCauseFunc
}

// Debouncer lets only the latest request per key through, after a fixed
// delay. It is safe for concurrent use.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	seq     uint64
	pending map[string]*waiter
}

func NewDebouncer(delay time.Duration) *Debouncer {
	if delay < 0 {
		delay = 0
	}
	return &Debouncer{
		delay:   delay,
		pending: make(map[string]*waiter),
	}
}

// Acquire waits for the debounce delay. A later Acquire with the same
// key makes this one return ErrSuperseded, and also cancels the returned
// context if the wait is already over, so an in-flight lookup stops.
// An empty key never supersedes anything. release must be called once
// the caller is done with the context.
func (d *Debouncer) Acquire(ctx context.Context, key string) (context.Context, func(), error) {
	ctx, cancel := context.WithCancelCause(ctx)

	d.mu.Lock()
	d.seq++
	id := d.seq
	if key != "" {
		if prev := d.pending[key]; prev != nil {
			prev.cancel(ErrSuperseded)
		}
		d.pending[key] = &waiter{id: id, cancel: cancel}
	}
	d.mu.Unlock()

	release := func() {
		d.mu.Lock()
		if w := d.pending[key]; w != nil && w.id == id {
			delete(d.pending, key)
		}
		d.mu.Unlock()
		cancel(nil)
	}

	timer := time.NewTimer(d.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return ctx, release, nil
	case <-ctx.Done():
		err := context.Cause(ctx)
		release()
		if errors.Is(err, ErrSuperseded) {
			return nil, nil, ErrSuperseded
		}
		return nil, nil, err
	}
}

// Pending reports how many keys currently hold a request.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
