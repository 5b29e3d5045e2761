package ratelimit

import (
	"context"
	"time"
)

// Window implements a fixed-window rate limiter: up to limit requests per
// window per key, counters reset when the window rolls over. Accuracy at
// window boundaries is traded for an O(1) counter in the store, which keeps
// the Redis implementation a single INCR.
type Window struct {
	store  Store
	limit  int
	window time.Duration
}

// NewWindow creates a fixed-window rate limiter.
func NewWindow(store Store, limit int, window time.Duration) (*Window, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if window <= 0 {
		return nil, ErrInvalidWindow
	}

	return &Window{
		store:  store,
		limit:  limit,
		window: window,
	}, nil
}

// Allow consumes one slot for the key and reports whether the request is
// within the limit.
func (w *Window) Allow(ctx context.Context, key string) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}

	count, resetAt, err := w.store.IncrementAndGet(ctx, key, w.window)
	if err != nil {
		return nil, err
	}

	remaining := w.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return &Result{
		Allowed:   count <= int64(w.limit),
		Limit:     w.limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

// Reset clears the counter for the key.
func (w *Window) Reset(ctx context.Context, key string) error {
	return w.store.Delete(ctx, key)
}
