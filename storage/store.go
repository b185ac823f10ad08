// Package storage provides named, durable, broadcast-synchronized state
// stores. Each store holds one JSON-serializable value under a name,
// loads it from a durable backend on open, and keeps every other
// instance of the same name in sync through a broadcast bus.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Store is a named holder of one value with durable persistence and
// last-write-wins broadcast synchronization. The zero value is not
// usable; create instances with Open.
type Store[T any] struct {
	name    string
	id      string
	backend Backend
	bus     Bus
	logger  *slog.Logger

	mu    sync.RWMutex
	value T

	watchMu  sync.Mutex
	watchers []func(T)

	unsubscribe func()
}

type options struct {
	backend Backend
	bus     Bus
	logger  *slog.Logger
}

// Option configures a store created by Open.
type Option func(*options)

// WithBackend sets the durable backend. Defaults to an in-memory backend.
func WithBackend(b Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithBus sets the broadcast bus. Defaults to a process-local bus.
func WithBus(bus Bus) Option {
	return func(o *options) {
		o.bus = bus
	}
}

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Open creates a store for name. The initial value is loaded from the
// backend; an absent or undecodable payload falls back to def without
// writing anything (the backend is populated only on the first write).
func Open[T any](ctx context.Context, name string, def T, opts ...Option) (*Store[T], error) {
	if name == "" {
		return nil, fmt.Errorf("store name required")
	}

	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	if o.backend == nil {
		o.backend = NewMemoryBackend()
	}
	if o.bus == nil {
		o.bus = NewLocalBus()
	}

	s := &Store[T]{
		name:    name,
		id:      uuid.New().String(),
		backend: o.backend,
		bus:     o.bus,
		logger:  o.logger,
		value:   def,
	}

	data, err := o.backend.Load(ctx, name)
	switch {
	case err == nil:
		var v T
		if uerr := json.Unmarshal(data, &v); uerr != nil {
			s.logger.Warn("Discarding undecodable payload, using default",
				"name", name,
				"error", uerr)
			loadsTotal.WithLabelValues(name, "corrupt").Inc()
		} else {
			s.value = v
			loadsTotal.WithLabelValues(name, "hit").Inc()
		}
	case errors.Is(err, ErrNotFound):
		loadsTotal.WithLabelValues(name, "miss").Inc()
	default:
		// Unreadable backends degrade to the default value. The session
		// keeps working; persistence resumes on the next write.
		s.logger.Warn("Backend read failed, using default",
			"name", name,
			"error", err)
		loadsTotal.WithLabelValues(name, "error").Inc()
	}

	unsubscribe, err := o.bus.Subscribe(name, s.applyBroadcast)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", name, err)
	}
	s.unsubscribe = unsubscribe

	return s, nil
}

// Name returns the store name.
func (s *Store[T]) Name() string {
	return s.name
}

// Get returns the current snapshot.
func (s *Store[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set replaces the value. Safe only when the new value does not depend
// on the previous one; use Update otherwise.
func (s *Store[T]) Set(ctx context.Context, v T) error {
	return s.Update(ctx, func(T) T { return v })
}

// Update applies fn to the current value and writes the result. The
// read-modify-write sequence runs under the store lock, so Update is the
// only safe path for writes that depend on prior state.
//
// The snapshot is always updated, even when persistence or broadcast
// fails; the returned error reports those failures so callers can decide
// whether silent in-memory-only state is acceptable.
func (s *Store[T]) Update(ctx context.Context, fn func(T) T) error {
	s.mu.Lock()
	next := fn(s.value)
	s.value = next
	data, encErr := json.Marshal(next)
	s.mu.Unlock()

	writesTotal.WithLabelValues(s.name).Inc()
	s.notify(next)

	if encErr != nil {
		writeFailuresTotal.WithLabelValues(s.name).Inc()
		return fmt.Errorf("encode %s: %w", s.name, encErr)
	}

	var errs []error
	if err := s.backend.Save(ctx, s.name, data); err != nil {
		s.logger.Error("Persist failed, snapshot kept in memory only",
			"name", s.name,
			"error", err)
		writeFailuresTotal.WithLabelValues(s.name).Inc()
		errs = append(errs, fmt.Errorf("persist %s: %w", s.name, err))
	}
	if err := s.bus.Publish(ctx, Update{Name: s.name, Value: data, Origin: s.id}); err != nil {
		s.logger.Error("Broadcast failed",
			"name", s.name,
			"error", err)
		errs = append(errs, fmt.Errorf("broadcast %s: %w", s.name, err))
	}
	return errors.Join(errs...)
}

// OnChange registers fn to run after every snapshot change, whether from
// a local write or a received broadcast. Callbacks run on the goroutine
// that performed the change and must not block.
func (s *Store[T]) OnChange(fn func(T)) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	s.watchers = append(s.watchers, fn)
}

// Close detaches the store from the bus. The last snapshot remains
// readable.
func (s *Store[T]) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// applyBroadcast overwrites the snapshot with a value received from the
// bus. Last write wins: there is no merge and no version check beyond
// arrival order.
func (s *Store[T]) applyBroadcast(u Update) {
	if u.Origin == s.id {
		return
	}

	var v T
	if err := json.Unmarshal(u.Value, &v); err != nil {
		s.logger.Warn("Dropping undecodable broadcast",
			"name", s.name,
			"error", err)
		return
	}

	s.mu.Lock()
	s.value = v
	s.mu.Unlock()

	broadcastsAppliedTotal.WithLabelValues(s.name).Inc()
	s.notify(v)
}

func (s *Store[T]) notify(v T) {
	s.watchMu.Lock()
	watchers := make([]func(T), len(s.watchers))
	copy(watchers, s.watchers)
	s.watchMu.Unlock()

	for _, fn := range watchers {
		fn(v)
	}
}
