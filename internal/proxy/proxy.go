// SPDX-License-Identifier: MIT

// Package proxy keeps an in-memory mirror of the host's global
// configuration. It is the single point of read/write access for UI-side
// code: reads come from the local copy, writes mutate the local copy and
// are pushed back to the host explicitly via Commit.
package proxy

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/plugdeck/plugdeck/internal/config"
	pdlog "github.com/plugdeck/plugdeck/internal/log"
	"github.com/plugdeck/plugdeck/internal/manifest"
)

// Bridge is the remote-call surface the proxy needs from the host.
// *bridge.Client satisfies it; tests substitute fakes.
type Bridge interface {
	GetGlobalConfig(ctx context.Context) (config.Global, error)
	SetGlobalConfig(ctx context.Context, cfg config.Global) error
	GetManifest(ctx context.Context, name string) (manifest.Manifest, error)
}

// PluginEntry is one {name, config} pair of the plugin list projection.
type PluginEntry struct {
	Name   string
	Config config.Plugin
}

// Proxy mirrors the host's GlobalConfig. The host keeps the authoritative
// copy; the two may diverge if a commit fails or an external change races a
// local edit. No reconciliation is attempted; the last commit sent wins.
type Proxy struct {
	bridge Bridge
	logger zerolog.Logger

	mu      sync.RWMutex
	current config.Global

	listenerMu sync.RWMutex
	listeners  []chan<- config.Global
}

// New fetches the host's configuration once and wraps it. The call blocks
// until the host responds; a fetch failure is returned to the caller with
// no retry and no default substituted.
func New(ctx context.Context, b Bridge) (*Proxy, error) {
	cfg, err := b.GetGlobalConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch global config: %w", err)
	}
	if cfg.Plugins == nil {
		cfg.Plugins = map[string]config.Plugin{}
	}

	logger := pdlog.WithComponent("proxy")
	logger.Debug().
		Int("plugins", len(cfg.Plugins)).
		Interface("config", cfg).
		Msg("received global config from host")

	return &Proxy{
		bridge:  b,
		logger:  logger,
		current: cfg,
	}, nil
}

// GlobalConfig returns the current in-memory configuration. The copy is
// deep, so callers can mutate the result freely and apply it back through
// SetGlobalConfig.
func (p *Proxy) GlobalConfig() config.Global {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return config.Clone(p.current)
}

// SetGlobalConfig replaces the local copy and notifies subscribers. It does
// not persist; call Commit to push the new value to the host.
func (p *Proxy) SetGlobalConfig(cfg config.Global) {
	snapshot := config.Clone(cfg)
	if snapshot.Plugins == nil {
		snapshot.Plugins = map[string]config.Plugin{}
	}
	p.mu.Lock()
	p.current = snapshot
	p.mu.Unlock()
	p.notify(snapshot)
}

// Commit sends the current local configuration to the host without waiting
// for the result. It never blocks the caller and never surfaces a failure;
// a rejected save is logged and counted, nothing more. Racing commits reach
// the host in arbitrary order.
func (p *Proxy) Commit() {
	snapshot := p.GlobalConfig()
	go func() {
		if err := p.bridge.SetGlobalConfig(context.Background(), snapshot); err != nil {
			commitFailures.Inc()
			p.logger.Warn().
				Err(err).
				Str("event", "proxy.commit_failed").
				Msg("host rejected config save")
		}
	}()
}

// Plugins projects the plugin mapping into an ordered list for display and
// editing. The list is rebuilt on every call and sorted by name so the
// enumeration order is stable.
func (p *Proxy) Plugins() []PluginEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entries := make([]PluginEntry, 0, len(p.current.Plugins))
	for name, cfg := range p.current.Plugins {
		entries = append(entries, PluginEntry{Name: name, Config: config.ClonePlugin(cfg)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// SetPlugins rebuilds the plugin mapping from the given list. Entries
// absent from the list are discarded; duplicate names collapse with the
// last entry winning. The change is local only; Commit persists it.
func (p *Proxy) SetPlugins(entries []PluginEntry) {
	rebuilt := make(map[string]config.Plugin, len(entries))
	for _, e := range entries {
		rebuilt[e.Name] = config.ClonePlugin(e.Config)
	}

	p.mu.Lock()
	p.current.Plugins = rebuilt
	snapshot := config.Clone(p.current)
	p.mu.Unlock()
	p.notify(snapshot)
}

// Plugin looks up one plugin's configuration. The second return reports
// whether the name is present.
func (p *Proxy) Plugin(name string) (config.Plugin, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	cfg, ok := p.current.Plugins[name]
	if !ok {
		return config.Plugin{}, false
	}
	return config.ClonePlugin(cfg), true
}

// ManifestOf fetches the named plugin's manifest from the host. Every call
// re-fetches; failures propagate to the caller. The returned manifest is a
// private copy and safe to hold.
func (p *Proxy) ManifestOf(ctx context.Context, name string) (manifest.Manifest, error) {
	m, err := p.bridge.GetManifest(ctx, name)
	if err != nil {
		return manifest.Manifest{}, err
	}
	return m.Clone(), nil
}

// Subscribe registers a channel that receives the new configuration after
// every local mutation. Delivery is non-blocking; a full channel is skipped.
// The caller owns the channel.
func (p *Proxy) Subscribe(ch chan<- config.Global) {
	p.listenerMu.Lock()
	defer p.listenerMu.Unlock()
	p.listeners = append(p.listeners, ch)
}

func (p *Proxy) notify(cfg config.Global) {
	p.listenerMu.RLock()
	defer p.listenerMu.RUnlock()

	for _, ch := range p.listeners {
		select {
		case ch <- cfg:
		default:
			p.logger.Warn().
				Str("event", "proxy.listener_skip").
				Msg("skipped notifying subscriber (channel full)")
		}
	}
}
