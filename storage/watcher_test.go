package storage

import (
	"context"
	"testing"
	"time"
)

func TestWatcherPublishesExternalWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	backend, err := NewFileBackend(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bus := NewLocalBus()

	updates := make(chan Update, 10)
	unsubscribe, err := bus.Subscribe("posts", func(u Update) { updates <- u })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer unsubscribe()

	watcher, err := NewWatcher(WatcherConfig{
		Backend:       backend,
		Bus:           bus,
		DebounceDelay: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := watcher.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer watcher.Stop()

	// Simulate another process writing to the shared directory.
	external, err := NewFileBackend(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := external.Save(ctx, "posts", []byte(`[{"id":"p1"}]`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case u := <-updates:
		if u.Name != "posts" {
			t.Errorf("expected posts update, got %s", u.Name)
		}
		if string(u.Value) != `[{"id":"p1"}]` {
			t.Errorf("unexpected payload: %s", u.Value)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watcher update")
	}
}

func TestWatcherSkipsUnchangedPayloads(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	backend, err := NewFileBackend(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bus := NewLocalBus()

	updates := make(chan Update, 10)
	unsubscribe, err := bus.Subscribe("posts", func(u Update) { updates <- u })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer unsubscribe()

	watcher, err := NewWatcher(WatcherConfig{
		Backend:       backend,
		Bus:           bus,
		DebounceDelay: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := watcher.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer watcher.Stop()

	payload := []byte(`[{"id":"p1"}]`)
	if err := backend.Save(ctx, "posts", payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case <-updates:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first update")
	}

	// Same bytes again: the hash check suppresses a duplicate publish.
	if err := backend.Save(ctx, "posts", payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case u := <-updates:
		t.Errorf("unexpected duplicate update: %s", u.Value)
	case <-time.After(200 * time.Millisecond):
	}
}
