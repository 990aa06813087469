package terrain

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chanPoster queues posted callbacks so the test goroutine runs them.
type chanPoster chan func()

func (c chanPoster) Post(fn func()) { c <- fn }

func (c chanPoster) runOne(t *testing.T) {
	t.Helper()
	select {
	case fn := <-c:
		fn()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for posted callback")
	}
}

func TestAsync_DeliversOnLoop(t *testing.T) {
	loop := make(chanPoster, 4)
	a := NewAsync(context.Background(), Flat(123.5), loop)

	var got float64
	called := false
	a.Sample(45, 10, func(h float64, err error) {
		require.NoError(t, err)
		got = h
		called = true
	})
	assert.False(t, called, "done must not run inside Sample")

	loop.runOne(t)
	assert.True(t, called)
	assert.Equal(t, 123.5, got)
}

func TestAsync_CachesByCell(t *testing.T) {
	var calls atomic.Int32
	src := SourceFunc(func(ctx context.Context, lat, lon float64) (float64, error) {
		calls.Add(1)
		return 10, nil
	})
	loop := make(chanPoster, 4)
	a := NewAsync(context.Background(), src, loop, WithCache(16, time.Minute))

	a.Sample(45, 10, func(float64, error) {})
	loop.runOne(t)
	require.Equal(t, 1, a.CacheLen())

	var got float64
	a.Sample(45.000001, 10.000001, func(h float64, err error) { got = h })
	loop.runOne(t)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 10.0, got)
}

func TestAsync_ErrorNotCached(t *testing.T) {
	src := SourceFunc(func(ctx context.Context, lat, lon float64) (float64, error) {
		return 0, ErrNoData
	})
	loop := make(chanPoster, 4)
	a := NewAsync(context.Background(), src, loop)

	var gotErr error
	a.Sample(1, 2, func(h float64, err error) { gotErr = err })
	loop.runOne(t)

	assert.ErrorIs(t, gotErr, ErrNoData)
	assert.Equal(t, 0, a.CacheLen())
}

func TestAsync_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loop := make(chanPoster, 4)
	a := NewAsync(ctx, Flat(1), loop, WithConcurrency(1))

	var gotErr error
	a.Sample(1, 2, func(h float64, err error) { gotErr = err })
	loop.runOne(t)

	assert.True(t, errors.Is(gotErr, context.Canceled))
}

func TestManual_ResolveOutOfOrder(t *testing.T) {
	var m Manual
	var order []float64
	m.Sample(1, 1, func(h float64, err error) { order = append(order, h) })
	m.Sample(2, 2, func(h float64, err error) { order = append(order, h) })

	reqs := m.Requests()
	require.Len(t, reqs, 2)
	reqs[1].Resolve(20)
	reqs[0].Resolve(10)
	reqs[0].Resolve(99)

	assert.Equal(t, []float64{20, 10}, order)
}
