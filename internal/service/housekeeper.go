package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"estatehub/bff/internal/cache"
)

// CacheSection exposes one TTL namespace to housekeeping and admin tools.
type CacheSection struct {
	Name  string
	Clear func(ctx context.Context, key string)
	Sweep func(ctx context.Context) int
}

func storeSection[V any](store *cache.Store[V], ttl time.Duration) CacheSection {
	return CacheSection{
		Name:  store.Namespace(),
		Clear: store.Clear,
		Sweep: func(ctx context.Context) int { return store.SweepExpired(ctx, ttl) },
	}
}

// SessionSweeper drops idle per-session state.
type SessionSweeper interface {
	Sweep(idle time.Duration) int
}

// Housekeeper periodically removes expired cache entries and idle sessions.
type Housekeeper struct {
	sections    map[string]CacheSection
	order       []string
	sessions    []SessionSweeper
	sessionIdle time.Duration
	interval    time.Duration
	logger      *zap.Logger
}

func NewHousekeeper(interval, sessionIdle time.Duration, logger *zap.Logger) *Housekeeper {
	return &Housekeeper{
		sections:    make(map[string]CacheSection),
		sessionIdle: sessionIdle,
		interval:    interval,
		logger:      logger,
	}
}

func (h *Housekeeper) AddSections(sections ...CacheSection) {
	for _, s := range sections {
		if _, ok := h.sections[s.Name]; !ok {
			h.order = append(h.order, s.Name)
		}
		h.sections[s.Name] = s
	}
}

func (h *Housekeeper) AddSessions(sweepers ...SessionSweeper) {
	h.sessions = append(h.sessions, sweepers...)
}

func (h *Housekeeper) Sections() []string {
	return append([]string(nil), h.order...)
}

// Clear removes one key from the named section.
func (h *Housekeeper) Clear(ctx context.Context, section, key string) error {
	s, ok := h.sections[section]
	if !ok {
		return ErrUnknownCacheSection
	}
	s.Clear(ctx, key)
	return nil
}

// Sweep runs one pass over the named sections (all when none are given) and
// returns the number of entries removed per section.
func (h *Housekeeper) Sweep(ctx context.Context, sections ...string) (map[string]int, error) {
	if len(sections) == 0 {
		sections = h.order
	}
	removed := make(map[string]int, len(sections))
	for _, name := range sections {
		s, ok := h.sections[name]
		if !ok {
			return removed, ErrUnknownCacheSection
		}
		removed[name] = s.Sweep(ctx)
	}
	return removed, nil
}

func (h *Housekeeper) SweepSessions() int {
	if h.sessionIdle <= 0 {
		return 0
	}
	total := 0
	for _, s := range h.sessions {
		total += s.Sweep(h.sessionIdle)
	}
	return total
}

// Run sweeps on every tick until ctx is done.
func (h *Housekeeper) Run(ctx context.Context) {
	if h.interval <= 0 {
		return
	}
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, _ := h.Sweep(ctx)
			sessions := h.SweepSessions()
			h.logger.Debug("housekeeping pass",
				zap.Any("removed", removed),
				zap.Int("idle_sessions", sessions),
			)
		}
	}
}
