package cache

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"estatehub/bff/internal/repository"
)

// ErrCorruptEntry marks stored content that cannot be decoded into the expected shape.
var ErrCorruptEntry = errors.New("corrupt cache entry")

// Checker lets a payload type reject decoded values that are structurally valid JSON
// but semantically wrong.
type Checker interface {
	Check() error
}

// Entry is a live cache value together with the time it was written.
type Entry[V any] struct {
	Key     string
	Value   V
	SavedAt time.Time
}

// envelope is the wire form kept in the backend.
type envelope struct {
	Value   json.RawMessage `json:"value"`
	SavedAt int64           `json:"savedAt"` // epoch milliseconds
}

type options struct {
	now       func() time.Time
	retention time.Duration
	logger    *zap.Logger
	validate  *validator.Validate
}

type Option func(*options)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithRetention sets a backend-level expiry on every write. Read-time TTL still decides liveness.
func WithRetention(d time.Duration) Option {
	return func(o *options) { o.retention = d }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func WithValidator(v *validator.Validate) Option {
	return func(o *options) { o.validate = v }
}

// Store is a namespaced, JSON-encoded key-value cache with per-entry write timestamps.
// The TTL is supplied by the reader. Every backend or codec failure degrades to a
// miss or a skipped write; none of them reach the caller.
type Store[V any] struct {
	backend   repository.StateStore
	namespace string
	opts      options
}

func New[V any](backend repository.StateStore, namespace string, opts ...Option) *Store[V] {
	o := options{
		now:      time.Now,
		logger:   zap.NewNop(),
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[V]{
		backend:   backend,
		namespace: strings.TrimSuffix(namespace, ":"),
		opts:      o,
	}
}

func (s *Store[V]) Namespace() string { return s.namespace }

// Get returns the value stored under key if it is younger than ttl.
// A ttl <= 0 never expires.
func (s *Store[V]) Get(ctx context.Context, key string, ttl time.Duration) (V, bool) {
	entry, ok := s.Lookup(ctx, key, ttl)
	return entry.Value, ok
}

// Lookup is Get plus the entry's write time. Stale or corrupt entries are removed.
// The removal is not conditional on the value read, so a Set racing with it can
// be lost; the next reader then sees a miss and refills.
func (s *Store[V]) Lookup(ctx context.Context, key string, ttl time.Duration) (Entry[V], bool) {
	var zero Entry[V]
	full := s.fullKey(key)

	raw, err := s.backend.Get(ctx, full)
	if err != nil {
		s.opts.logger.Debug("cache read failed", zap.String("key", full), zap.Error(err))
		return zero, false
	}
	if raw == nil {
		return zero, false
	}

	entry, err := s.decode(key, raw)
	if err != nil {
		s.opts.logger.Debug("dropping corrupt cache entry", zap.String("key", full), zap.Error(err))
		s.remove(ctx, full)
		return zero, false
	}

	if s.expired(entry.SavedAt, ttl) {
		s.remove(ctx, full)
		return zero, false
	}
	return entry, true
}

// Fresh reports whether e is younger than ttl. Used with Lookup(ctx, key, 0)
// by callers that keep serving a stale entry when a refresh fails.
func (s *Store[V]) Fresh(e Entry[V], ttl time.Duration) bool {
	return !s.expired(e.SavedAt, ttl)
}

// Set replaces any existing entry under key with value stamped at the current time
// and returns the entry as a later Lookup would see it. A failed write is logged only.
func (s *Store[V]) Set(ctx context.Context, key string, value V) Entry[V] {
	full := s.fullKey(key)
	savedAt := s.opts.now().UnixMilli()
	entry := Entry[V]{Key: key, Value: value, SavedAt: time.UnixMilli(savedAt)}

	payload, err := json.Marshal(value)
	if err != nil {
		s.opts.logger.Warn("cache encode failed", zap.String("key", full), zap.Error(err))
		return entry
	}
	data, err := json.Marshal(envelope{Value: payload, SavedAt: savedAt})
	if err != nil {
		s.opts.logger.Warn("cache encode failed", zap.String("key", full), zap.Error(err))
		return entry
	}

	if err := s.backend.Set(ctx, full, data, s.opts.retention); err != nil {
		s.opts.logger.Warn("cache write failed", zap.String("key", full), zap.Error(err))
	}
	return entry
}

// Clear removes a single entry. Missing keys are ignored.
func (s *Store[V]) Clear(ctx context.Context, key string) {
	s.remove(ctx, s.fullKey(key))
}

// SweepExpired removes every entry in the namespace that is older than ttl or
// cannot be decoded, and returns how many were removed.
func (s *Store[V]) SweepExpired(ctx context.Context, ttl time.Duration) int {
	prefix := s.namespace + ":"
	keys, err := s.backend.Keys(ctx, prefix)
	if err != nil {
		s.opts.logger.Warn("cache sweep listing failed", zap.String("namespace", s.namespace), zap.Error(err))
		return 0
	}

	removed := 0
	for _, full := range keys {
		if ctx.Err() != nil {
			break
		}
		raw, err := s.backend.Get(ctx, full)
		if err != nil || raw == nil {
			continue
		}
		entry, err := s.decode(strings.TrimPrefix(full, prefix), raw)
		if err == nil && !s.expired(entry.SavedAt, ttl) {
			continue
		}
		if s.remove(ctx, full) {
			removed++
		}
	}
	return removed
}

func (s *Store[V]) fullKey(key string) string {
	return s.namespace + ":" + key
}

func (s *Store[V]) expired(savedAt time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return s.opts.now().Sub(savedAt) >= ttl
}

func (s *Store[V]) remove(ctx context.Context, full string) bool {
	if err := s.backend.Delete(ctx, full); err != nil {
		s.opts.logger.Debug("cache delete failed", zap.String("key", full), zap.Error(err))
		return false
	}
	return true
}

// decode parses the envelope and validates the payload once, at the edge.
func (s *Store[V]) decode(key string, raw []byte) (Entry[V], error) {
	var entry Entry[V]

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return entry, errors.Join(ErrCorruptEntry, err)
	}
	if env.SavedAt <= 0 || len(env.Value) == 0 || string(env.Value) == "null" {
		return entry, ErrCorruptEntry
	}

	var value V
	if err := json.Unmarshal(env.Value, &value); err != nil {
		return entry, errors.Join(ErrCorruptEntry, err)
	}
	if err := s.check(value); err != nil {
		return entry, errors.Join(ErrCorruptEntry, err)
	}

	entry.Key = key
	entry.Value = value
	entry.SavedAt = time.UnixMilli(env.SavedAt)
	return entry, nil
}

func (s *Store[V]) check(value V) error {
	if s.opts.validate != nil {
		rv := reflect.ValueOf(value)
		for rv.Kind() == reflect.Pointer && !rv.IsNil() {
			rv = rv.Elem()
		}
		if rv.Kind() == reflect.Struct {
			if err := s.opts.validate.Struct(rv.Interface()); err != nil {
				return err
			}
		}
	}
	if c, ok := any(value).(Checker); ok {
		return c.Check()
	}
	return nil
}
