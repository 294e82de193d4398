// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	pdlog "github.com/plugdeck/plugdeck/internal/log"
)

// Holder holds the host's current configuration with atomic reloading.
// It provides thread-safe access and supports hot reloading from file,
// either via the fsnotify watcher or a manual trigger.
type Holder struct {
	mu      sync.RWMutex
	current Global
	store   *Store
	watcher *fsnotify.Watcher
	logger  zerolog.Logger

	// Reload notifications
	listenerMu sync.RWMutex
	listeners  []chan<- Global
}

// NewHolder creates a configuration holder with an initial config.
func NewHolder(initial Global, store *Store) *Holder {
	return &Holder{
		current:   Clone(initial),
		store:     store,
		logger:    pdlog.WithComponent("config"),
		listeners: make([]chan<- Global, 0),
	}
}

// Get returns a deep copy of the current configuration.
func (h *Holder) Get() Global {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Clone(h.current)
}

// Set replaces the current configuration, persists it, and notifies
// listeners. The swap only happens if the save succeeds, so the in-memory
// copy never diverges from disk through this path.
func (h *Holder) Set(cfg Global) error {
	if err := h.store.Save(cfg); err != nil {
		return err
	}
	snapshot := Clone(cfg)
	h.mu.Lock()
	h.current = snapshot
	h.mu.Unlock()
	h.notifyListeners(snapshot)
	return nil
}

// Reload re-reads configuration from file. If loading or validation fails,
// the old configuration is kept and an error is returned.
func (h *Holder) Reload(_ context.Context) error {
	newCfg, err := h.store.Load()
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("event", "config.reload_failed").
			Msg("failed to load new configuration")
		return fmt.Errorf("load config: %w", err)
	}

	h.mu.Lock()
	h.current = newCfg
	h.mu.Unlock()

	h.notifyListeners(Clone(newCfg))

	h.logger.Info().
		Str("event", "config.reload_success").
		Int("plugins", len(newCfg.Plugins)).
		Msg("configuration reloaded")
	return nil
}

// StartWatcher starts watching the config file for changes. The watcher
// stops when ctx is cancelled.
func (h *Holder) StartWatcher(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	h.watcher = watcher

	if err := watcher.Add(h.store.Path()); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config file: %w", err)
	}

	h.logger.Info().
		Str("event", "config.watcher_started").
		Str("path", h.store.Path()).
		Msg("watching config file for changes")

	go h.watchLoop(ctx)
	return nil
}

// watchLoop is the main file watcher loop.
func (h *Holder) watchLoop(ctx context.Context) {
	// Debounce to avoid multiple reloads for rapid file changes
	var debounceTimer *time.Timer
	debounceDuration := 500 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str("event", "config.watcher_stopped").Msg("config watcher stopped")
			if h.watcher != nil {
				_ = h.watcher.Close()
			}
			return

		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}

			// Write and Create cover vim, nano, echo and atomic-rename saves
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				h.logger.Debug().
					Str("event", "config.file_changed").
					Str("op", event.Op.String()).
					Msg("config file changed")

				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDuration, func() {
					if err := h.Reload(ctx); err != nil {
						h.logger.Error().
							Err(err).
							Str("event", "config.auto_reload_failed").
							Msg("automatic config reload failed")
					}
				})
			}

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().
				Err(err).
				Str("event", "config.watcher_error").
				Msg("config watcher error")
		}
	}
}

// Stop stops the config watcher (if running).
func (h *Holder) Stop() {
	if h.watcher != nil {
		_ = h.watcher.Close()
	}
}

// RegisterListener registers a channel to receive config change
// notifications. The channel receives the new config whenever a set or
// reload succeeds. The caller owns the channel and its lifetime.
func (h *Holder) RegisterListener(ch chan<- Global) {
	h.listenerMu.Lock()
	defer h.listenerMu.Unlock()
	h.listeners = append(h.listeners, ch)
}

// notifyListeners sends the new config to all registered listeners (non-blocking).
func (h *Holder) notifyListeners(newCfg Global) {
	h.listenerMu.RLock()
	defer h.listenerMu.RUnlock()

	for _, ch := range h.listeners {
		select {
		case ch <- newCfg:
		default:
			h.logger.Warn().
				Str("event", "config.listener_skip").
				Msg("skipped notifying listener (channel full)")
		}
	}
}
