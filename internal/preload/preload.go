package preload

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

type Status int

const (
	NotRequested Status = iota
	InFlight
	Loaded
)

func (s Status) String() string {
	switch s {
	case InFlight:
		return "in_flight"
	case Loaded:
		return "loaded"
	default:
		return "not_requested"
	}
}

// Loader fetches a single resource. A nil error means the resource is now warm.
type Loader interface {
	Load(ctx context.Context, id string) error
}

type LoaderFunc func(ctx context.Context, id string) error

func (f LoaderFunc) Load(ctx context.Context, id string) error { return f(ctx, id) }

type Option func(*Cache)

// WithConcurrency bounds how many loads PreloadMany runs at once. Zero means unbounded.
func WithConcurrency(n int) Option {
	return func(c *Cache) { c.concurrency = n }
}

// WithTimeout caps a single underlying load.
func WithTimeout(d time.Duration) Option {
	return func(c *Cache) { c.timeout = d }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// Cache remembers which resources have been loaded and collapses concurrent
// requests for the same resource into one underlying load.
// Loaded ids are kept for the life of the cache.
type Cache struct {
	loader      Loader
	logger      *zap.Logger
	concurrency int
	timeout     time.Duration

	group singleflight.Group

	mu       sync.RWMutex
	loaded   map[string]struct{}
	inflight map[string]struct{}
}

func New(loader Loader, opts ...Option) *Cache {
	c := &Cache{
		loader:   loader,
		logger:   zap.NewNop(),
		loaded:   make(map[string]struct{}),
		inflight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) IsPreloaded(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.loaded[id]
	return ok
}

func (c *Cache) Status(id string) Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.loaded[id]; ok {
		return Loaded
	}
	if _, ok := c.inflight[id]; ok {
		return InFlight
	}
	return NotRequested
}

// Preload makes sure id is loaded, joining a pending load if one exists.
// It returns once the load settles or ctx is done. Failures are swallowed;
// check IsPreloaded afterwards. A load that has started keeps running even
// if ctx is cancelled, and a cancelled ctx never starts a new one.
func (c *Cache) Preload(ctx context.Context, id string) {
	if c.IsPreloaded(id) || ctx.Err() != nil {
		return
	}

	ch := c.group.DoChan(id, func() (any, error) {
		return nil, c.load(ctx, id)
	})

	select {
	case <-ch:
	case <-ctx.Done():
	}
}

// PreloadMany fans Preload out over ids (duplicates collapsed) and returns when
// every started operation has settled. Once ctx is cancelled no further ids are issued.
func (c *Cache) PreloadMany(ctx context.Context, ids []string) {
	var g errgroup.Group
	if c.concurrency > 0 {
		g.SetLimit(c.concurrency)
	}

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		g.Go(func() error {
			c.Preload(ctx, id)
			return nil
		})
	}
	_ = g.Wait()
}

func (c *Cache) load(ctx context.Context, id string) error {
	c.mu.Lock()
	if _, ok := c.loaded[id]; ok {
		// Another flight finished between the caller's check and this one starting.
		c.mu.Unlock()
		return nil
	}
	c.inflight[id] = struct{}{}
	c.mu.Unlock()

	loadCtx := context.WithoutCancel(ctx)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		loadCtx, cancel = context.WithTimeout(loadCtx, c.timeout)
		defer cancel()
	}

	err := c.loader.Load(loadCtx, id)

	c.mu.Lock()
	delete(c.inflight, id)
	if err == nil {
		c.loaded[id] = struct{}{}
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Debug("preload failed", zap.String("id", id), zap.Error(err))
	}
	return err
}
