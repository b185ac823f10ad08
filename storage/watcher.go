package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherConfig configures a file backend watcher.
type WatcherConfig struct {
	// Backend is the file backend whose directory is watched.
	Backend *FileBackend

	// Bus receives an Update for every changed payload.
	Bus Bus

	// DebounceDelay is how long to wait for more changes before
	// publishing.
	DebounceDelay time.Duration

	// Logger for logging events.
	Logger *slog.Logger
}

// Watcher observes a file backend's directory and republishes payloads
// written by other processes as bus updates, so stores in this process
// pick up out-of-band changes without polling.
type Watcher struct {
	config  WatcherConfig
	backend *FileBackend
	bus     Bus
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	// Debouncing: collect changed names before publishing
	pendingMu sync.Mutex
	pending   map[string]struct{}

	// Payload hashes suppress duplicate events for unchanged content
	hashMu sync.Mutex
	hashes map[string]string
}

// NewWatcher creates a watcher over the backend's directory.
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if config.DebounceDelay == 0 {
		config.DebounceDelay = 100 * time.Millisecond
	}

	return &Watcher{
		config:  config,
		backend: config.Backend,
		bus:     config.Bus,
		watcher: fsw,
		logger:  logger,
		pending: make(map[string]struct{}),
		hashes:  make(map[string]string),
	}, nil
}

// Start begins watching the backend directory.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.backend.Dir()); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Info("Storage watcher started",
		"dir", w.backend.Dir(),
		"debounce", w.config.DebounceDelay)

	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// processEvents handles fsnotify events with debouncing.
func (w *Watcher) processEvents(ctx context.Context) {
	ticker := time.NewTicker(w.config.DebounceDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

// handleFSEvent records a single fsnotify event for the next flush.
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return
	}

	name, ok := w.backend.NameForPath(event.Name)
	if !ok {
		return
	}

	w.pendingMu.Lock()
	w.pending[name] = struct{}{}
	w.pendingMu.Unlock()

	w.logger.Debug("Payload change detected",
		"name", name,
		"op", event.Op.String())
}

// flushPending reloads accumulated names and publishes their payloads.
func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	names := make([]string, 0, len(w.pending))
	for name := range w.pending {
		names = append(names, name)
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	for _, name := range names {
		data, err := w.backend.Load(ctx, name)
		if err != nil {
			w.logger.Warn("Skipping unreadable payload",
				"name", name,
				"error", err)
			continue
		}

		sum := sha256.Sum256(data)
		hash := hex.EncodeToString(sum[:])
		w.hashMu.Lock()
		unchanged := w.hashes[name] == hash
		w.hashes[name] = hash
		w.hashMu.Unlock()
		if unchanged {
			continue
		}

		if err := w.bus.Publish(ctx, Update{Name: name, Value: data}); err != nil {
			w.logger.Warn("Failed to publish payload change",
				"name", name,
				"error", err)
		}
	}
}
