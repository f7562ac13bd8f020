package autocomplete

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeshaw/aveiro-bus/internal/maps"
)

func TestAcquireWaitsForDelay(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)

	start := time.Now()
	ctx, release, err := d.Acquire(context.Background(), "s1")
	require.NoError(t, err)
	defer release()

	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.NoError(t, ctx.Err())
	assert.Equal(t, 1, d.Pending())
}

func TestAcquireSuperseded(t *testing.T) {
	d := NewDebouncer(100 * time.Millisecond)

	first := make(chan error, 1)
	go func() {
		_, release, err := d.Acquire(context.Background(), "s1")
		if release != nil {
			release()
		}
		first <- err
	}()

	time.Sleep(20 * time.Millisecond)
	_, release, err := d.Acquire(context.Background(), "s1")
	require.NoError(t, err)
	release()

	assert.ErrorIs(t, <-first, ErrSuperseded)
	assert.Equal(t, 0, d.Pending())
}

func TestAcquireCancelsInflightContext(t *testing.T) {
	d := NewDebouncer(5 * time.Millisecond)

	ctx, release, err := d.Acquire(context.Background(), "s1")
	require.NoError(t, err)
	defer release()

	_, release2, err := d.Acquire(context.Background(), "s1")
	require.NoError(t, err)
	defer release2()

	<-ctx.Done()
	assert.ErrorIs(t, context.Cause(ctx), ErrSuperseded)
}

func TestAcquireDistinctKeys(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i, key := range []string{"a", "b", ""} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, release, err := d.Acquire(context.Background(), key)
			if release != nil {
				release()
			}
			errs[i] = err
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestAcquireParentCancelled(t *testing.T) {
	d := NewDebouncer(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, release, err := d.Acquire(ctx, "s1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, release)
	assert.Equal(t, 0, d.Pending())
}

type fakePlaces struct {
	calls atomic.Int32
	err   error
	block chan struct{}

	mu    sync.Mutex
	input string
}

func (f *fakePlaces) Autocomplete(ctx context.Context, input string) ([]maps.PlacePrediction, error) {
	f.mu.Lock()
	f.input = input
	f.mu.Unlock()
	f.calls.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return []maps.PlacePrediction{{Description: "Universidade de Aveiro, Aveiro, Portugal", PlaceID: "ua"}}, nil
}

func TestSuggestShortInput(t *testing.T) {
	places := &fakePlaces{}
	svc := NewService(places, time.Millisecond, 3)

	for _, input := range []string{"", "  ", "Av", " Av ", "Aé"} {
		got, err := svc.Suggest(context.Background(), "s1", input)
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.NotNil(t, got)
	}
	assert.Zero(t, places.calls.Load())
}

func TestSuggest(t *testing.T) {
	places := &fakePlaces{}
	svc := NewService(places, time.Millisecond, 3)

	got, err := svc.Suggest(context.Background(), "s1", " Uni ")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ua", got[0].PlaceID)
	assert.Equal(t, "Uni", places.input)
	assert.Equal(t, int32(1), places.calls.Load())
}

func TestSuggestError(t *testing.T) {
	places := &fakePlaces{err: &maps.StatusError{Service: "autocomplete", Status: "REQUEST_DENIED"}}
	svc := NewService(places, time.Millisecond, 3)

	_, err := svc.Suggest(context.Background(), "s1", "Universidade")
	var se *maps.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "REQUEST_DENIED", se.Status)
}

func TestSuggestSupersededInflight(t *testing.T) {
	places := &fakePlaces{block: make(chan struct{})}
	svc := NewService(places, time.Millisecond, 3)

	first := make(chan error, 1)
	go func() {
		_, err := svc.Suggest(context.Background(), "s1", "Univ")
		first <- err
	}()

	require.Eventually(t, func() bool { return places.calls.Load() == 1 }, time.Second, time.Millisecond)

	second := make(chan error, 1)
	go func() {
		_, err := svc.Suggest(context.Background(), "s1", "Universidade")
		second <- err
	}()

	assert.ErrorIs(t, <-first, ErrSuperseded)
	close(places.block)
	assert.NoError(t, <-second)
}
