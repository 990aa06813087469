// Package terrain samples ground height asynchronously and delivers the
// result back on the event loop.
package terrain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/semaphore"
)

// ErrNoData is returned by sources that have no height for a location.
var ErrNoData = errors.New("no terrain data")

// Poster schedules fn on the event loop.
type Poster interface {
	Post(fn func())
}

// Sampler looks up the ground height at a location. done is always invoked
// later on the event loop, never from inside Sample.
type Sampler interface {
	Sample(lat, lon float64, done func(height float64, err error))
}

// Source returns the ground height above the ellipsoid in metres.
type Source interface {
	Height(ctx context.Context, lat, lon float64) (float64, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, lat, lon float64) (float64, error)

func (f SourceFunc) Height(ctx context.Context, lat, lon float64) (float64, error) {
	return f(ctx, lat, lon)
}

// Flat is a Source with the same height everywhere.
type Flat float64

func (f Flat) Height(context.Context, float64, float64) (float64, error) {
	return float64(f), nil
}

// Option configures an Async sampler.
type Option func(*config)

type config struct {
	cacheSize   int
	ttl         time.Duration
	concurrency int64
	timeout     time.Duration
	logger      *slog.Logger
}

// WithCache sets the number of cached cells and how long they live.
func WithCache(size int, ttl time.Duration) Option {
	return func(c *config) {
		c.cacheSize = size
		c.ttl = ttl
	}
}

// WithConcurrency bounds the number of in-flight source lookups.
func WithConcurrency(n int) Option {
	return func(c *config) {
		c.concurrency = int64(n)
	}
}

// WithTimeout bounds a single source lookup.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithLogger sets the logger for failed lookups.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// cell is a location rounded to ~1 m so nearby samples share a cache entry.
type cell struct {
	lat, lon int64
}

func cellOf(lat, lon float64) cell {
	return cell{lat: int64(math.Round(lat * 1e5)), lon: int64(math.Round(lon * 1e5))}
}

// Async samples a Source on background goroutines.
type Async struct {
	ctx    context.Context
	src    Source
	loop   Poster
	cache  *expirable.LRU[cell, float64]
	sem    *semaphore.Weighted
	cfg    config
	logger *slog.Logger
}

// NewAsync creates a sampler over src. Lookups stop when ctx is cancelled.
func NewAsync(ctx context.Context, src Source, loop Poster, opts ...Option) *Async {
	cfg := config{
		cacheSize:   4096,
		ttl:         10 * time.Minute,
		concurrency: 8,
		timeout:     5 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Async{
		ctx:    ctx,
		src:    src,
		loop:   loop,
		cache:  expirable.NewLRU[cell, float64](cfg.cacheSize, nil, cfg.ttl),
		sem:    semaphore.NewWeighted(cfg.concurrency),
		cfg:    cfg,
		logger: logger,
	}
}

func (a *Async) Sample(lat, lon float64, done func(height float64, err error)) {
	key := cellOf(lat, lon)
	if h, ok := a.cache.Get(key); ok {
		a.loop.Post(func() { done(h, nil) })
		return
	}

	go func() {
		h, err := a.lookup(lat, lon)
		if err == nil {
			a.cache.Add(key, h)
		} else {
			a.logger.Debug("terrain lookup failed", "lat", lat, "lon", lon, "error", err)
		}
		a.loop.Post(func() { done(h, err) })
	}()
}

func (a *Async) lookup(lat, lon float64) (float64, error) {
	if err := a.sem.Acquire(a.ctx, 1); err != nil {
		return 0, fmt.Errorf("terrain lookup: %w", err)
	}
	defer a.sem.Release(1)

	ctx, cancel := context.WithTimeout(a.ctx, a.cfg.timeout)
	defer cancel()
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("terrain lookup: %w", err)
	}
	return a.src.Height(ctx, lat, lon)
}

// CacheLen returns the number of cached cells.
func (a *Async) CacheLen() int {
	return a.cache.Len()
}
