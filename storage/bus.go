package storage

import (
	"context"
	"encoding/json"
	"sync"
)

// Update is a broadcast notification carrying the new payload for one
// named store.
type Update struct {
	// Name identifies the store the payload belongs to.
	Name string `json:"name"`

	// Value is the JSON encoding of the new value.
	Value json.RawMessage `json:"value"`

	// Origin identifies the store instance that produced the update.
	// Instances skip updates carrying their own origin.
	Origin string `json:"origin,omitempty"`
}

// Bus delivers store updates to every subscriber of the same name, in
// this process or beyond. Implementations must tolerate publishes from
// within a subscriber callback.
type Bus interface {
	// Publish delivers u to all subscribers of u.Name.
	Publish(ctx context.Context, u Update) error

	// Subscribe registers fn for updates matching name and returns an
	// unsubscribe function.
	Subscribe(name string, fn func(Update)) (func(), error)
}

// LocalBus delivers updates synchronously to subscribers in the same
// process.
type LocalBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]func(Update)
}

// NewLocalBus creates an empty in-process bus.
func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[string]map[int]func(Update))}
}

// Publish implements Bus. Handlers run on the caller's goroutine, outside
// the bus lock.
func (b *LocalBus) Publish(_ context.Context, u Update) error {
	b.mu.RLock()
	handlers := make([]func(Update), 0, len(b.subs[u.Name]))
	for _, fn := range b.subs[u.Name] {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(u)
	}
	return nil
}

// Subscribe implements Bus.
func (b *LocalBus) Subscribe(name string, fn func(Update)) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	if b.subs[name] == nil {
		b.subs[name] = make(map[int]func(Update))
	}
	b.subs[name][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[name], id)
	}, nil
}
