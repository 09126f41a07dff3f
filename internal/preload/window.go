package preload

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type WindowOption func(*Window)

// WithSweepDelay sets how long after the window settles the background sweep starts.
// A negative delay disables the sweep.
func WithSweepDelay(d time.Duration) WindowOption {
	return func(w *Window) { w.sweepDelay = d }
}

// WithSweepRate paces the background sweep to perSecond loads. Zero means unpaced.
func WithSweepRate(perSecond float64) WindowOption {
	return func(w *Window) {
		if perSecond > 0 {
			w.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		} else {
			w.limiter = nil
		}
	}
}

func WithWindowLogger(logger *zap.Logger) WindowOption {
	return func(w *Window) { w.logger = logger }
}

// Window preloads the ids around a moving center of an ordered list, then
// sweeps the rest at low priority. Moving the center cancels the previous batch;
// loads that already started are left to finish.
type Window struct {
	cache      *Cache
	ids        []string
	radius     int
	sweepDelay time.Duration
	limiter    *rate.Limiter
	logger     *zap.Logger

	mu     sync.Mutex
	center int
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

func NewWindow(cache *Cache, ids []string, radius int, opts ...WindowOption) *Window {
	if radius < 0 {
		radius = 0
	}
	w := &Window{
		cache:      cache,
		ids:        append([]string(nil), ids...),
		radius:     radius,
		sweepDelay: time.Second,
		logger:     zap.NewNop(),
		center:     -1,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Window) IDs() []string { return append([]string(nil), w.ids...) }

// Center returns the current center, or -1 before the first Focus.
func (w *Window) Center() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.center
}

// Focus moves the window to center and starts a new batch. The returned channel
// closes when that batch, including its sweep, finishes or is cancelled.
// Focusing on the current center returns its batch while it is still running
// and otherwise starts over, retrying whatever failed.
func (w *Window) Focus(center int) <-chan struct{} {
	center = clamp(center, len(w.ids))

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || len(w.ids) == 0 {
		done := make(chan struct{})
		close(done)
		return done
	}
	if center == w.center && running(w.done) {
		return w.done
	}
	if w.cancel != nil {
		w.cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	w.center = center
	w.cancel = cancel
	w.done = done

	go w.run(ctx, center, done)
	return done
}

// Close cancels the running batch. Further Focus calls do nothing.
func (w *Window) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	if w.cancel != nil {
		w.cancel()
	}
}

func running(done chan struct{}) bool {
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

func (w *Window) run(ctx context.Context, center int, done chan struct{}) {
	defer close(done)

	span := Span(len(w.ids), center, w.radius)
	inWindow := make(map[int]struct{}, len(span))
	batch := make([]string, 0, len(span))
	for _, i := range span {
		inWindow[i] = struct{}{}
		batch = append(batch, w.ids[i])
	}

	w.cache.PreloadMany(ctx, batch)
	if ctx.Err() != nil || w.sweepDelay < 0 {
		return
	}

	timer := time.NewTimer(w.sweepDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	for i, id := range w.ids {
		if _, ok := inWindow[i]; ok || w.cache.IsPreloaded(id) {
			continue
		}
		if w.limiter != nil {
			if err := w.limiter.Wait(ctx); err != nil {
				return
			}
		}
		if ctx.Err() != nil {
			return
		}
		w.cache.Preload(ctx, id)
	}
	w.logger.Debug("preload sweep finished", zap.Int("center", center), zap.Int("total", len(w.ids)))
}

// Span returns the indices within radius of center in an n-long list,
// nearest first, lower index before higher at equal distance.
func Span(n, center, radius int) []int {
	if n <= 0 {
		return nil
	}
	if radius < 0 {
		radius = 0
	}
	center = clamp(center, n)

	out := []int{center}
	for d := 1; d <= radius; d++ {
		if i := center - d; i >= 0 {
			out = append(out, i)
		}
		if i := center + d; i < n {
			out = append(out, i)
		}
	}
	return out
}

func clamp(i, n int) int {
	if i < 0 || n == 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
