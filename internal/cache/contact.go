package cache

import (
	"context"
	"errors"
	"time"

	"estatehub/bff/internal/repository"
)

const (
	ContactNamespace  = "contact"
	DefaultContactTTL = 14 * 24 * time.Hour
)

var errNoPhoneNumber = errors.New("phone pair has neither number")

// StoredNumbers is the revealed phone pair for a listing or project.
// Stph2 is the display number and Stph3 the WhatsApp number; either may be empty.
type StoredNumbers struct {
	Stph2   string `json:"stph2"`
	Stph3   string `json:"stph3"`
	SavedAt int64  `json:"savedAt"`
}

type phonePair struct {
	Stph2 string `json:"stph2"`
	Stph3 string `json:"stph3"`
}

func (p phonePair) Check() error {
	if p.Stph2 == "" && p.Stph3 == "" {
		return errNoPhoneNumber
	}
	return nil
}

// ContactCache remembers revealed phone numbers per context key (e.g. "listing:42").
type ContactCache struct {
	store *Store[phonePair]
}

func NewContactCache(backend repository.StateStore, opts ...Option) *ContactCache {
	return &ContactCache{store: New[phonePair](backend, ContactNamespace, opts...)}
}

// SetStoredNumbers caches the pair and returns it stamped with the write time.
func (c *ContactCache) SetStoredNumbers(ctx context.Context, contextKey, stph2, stph3 string) *StoredNumbers {
	return storedNumbers(c.store.Set(ctx, contextKey, phonePair{Stph2: stph2, Stph3: stph3}))
}

// GetStoredNumbers returns the cached pair if it was saved less than ttl ago.
func (c *ContactCache) GetStoredNumbers(ctx context.Context, contextKey string, ttl time.Duration) (*StoredNumbers, bool) {
	entry, ok := c.store.Lookup(ctx, contextKey, ttl)
	if !ok {
		return nil, false
	}
	return storedNumbers(entry), true
}

func (c *ContactCache) ClearStoredNumbers(ctx context.Context, contextKey string) {
	c.store.Clear(ctx, contextKey)
}

func (c *ContactCache) SweepExpired(ctx context.Context, ttl time.Duration) int {
	return c.store.SweepExpired(ctx, ttl)
}

func storedNumbers(e Entry[phonePair]) *StoredNumbers {
	return &StoredNumbers{
		Stph2:   e.Value.Stph2,
		Stph3:   e.Value.Stph3,
		SavedAt: e.SavedAt.UnixMilli(),
	}
}
