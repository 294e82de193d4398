// SPDX-License-Identifier: MIT

package bridge

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/plugdeck/plugdeck/internal/config"
	"github.com/plugdeck/plugdeck/internal/manifest"
)

// MockHost is a configurable in-memory host for testing clients against the
// bridge API without a running daemon.
type MockHost struct {
	*httptest.Server

	mu          sync.RWMutex
	cfg         config.Global
	manifests   map[string]manifest.Manifest
	activations map[string]map[string]int // plugin -> title -> count

	// Counters for asserting call behavior (e.g. the no-caching contract).
	ConfigGets   int
	ConfigPuts   int
	ManifestGets int

	failNextPut bool
	failAll     bool
}

// NewMockHost starts a mock host with empty state.
func NewMockHost() *MockHost {
	m := &MockHost{
		cfg:         config.Global{Plugins: map[string]config.Plugin{}},
		manifests:   make(map[string]manifest.Manifest),
		activations: make(map[string]map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/config", m.handleConfig)
	mux.HandleFunc("/api/plugins/", m.handlePlugins)
	m.Server = httptest.NewServer(mux)
	return m
}

// SetConfig seeds the host's authoritative config.
func (m *MockHost) SetConfig(cfg config.Global) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = config.Clone(cfg)
}

// Config returns the host's current stored config.
func (m *MockHost) Config() config.Global {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return config.Clone(m.cfg)
}

// AddManifest registers a manifest served for its plugin name.
func (m *MockHost) AddManifest(mf manifest.Manifest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.manifests[mf.Name] = mf.Clone()
}

// Activations reports how often a title was recorded for a plugin.
func (m *MockHost) Activations(plugin, title string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activations[plugin][title]
}

// FailNextPut makes the next set_global_config call return HTTP 500.
func (m *MockHost) FailNextPut() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNextPut = true
}

// FailAll makes every subsequent call return HTTP 500.
func (m *MockHost) FailAll(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAll = fail
}

func (m *MockHost) handleConfig(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failAll {
		http.Error(w, "host exploded", http.StatusInternalServerError)
		return
	}

	switch r.Method {
	case http.MethodGet:
		m.ConfigGets++
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(m.cfg)
	case http.MethodPut:
		m.ConfigPuts++
		if m.failNextPut {
			m.failNextPut = false
			http.Error(w, "save failed", http.StatusInternalServerError)
			return
		}
		var cfg config.Global
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		m.cfg = cfg
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (m *MockHost) handlePlugins(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failAll {
		http.Error(w, "host exploded", http.StatusInternalServerError)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/plugins/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 {
		http.NotFound(w, r)
		return
	}
	name, tail := parts[0], parts[1]

	switch {
	case tail == "manifest" && r.Method == http.MethodGet:
		m.ManifestGets++
		mf, ok := m.manifests[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(mf)

	case tail == "activations" && r.Method == http.MethodPost:
		var body struct {
			Title string `json:"title"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		if m.activations[name] == nil {
			m.activations[name] = make(map[string]int)
		}
		m.activations[name][body.Title]++
		w.WriteHeader(http.StatusNoContent)

	case tail == "activations/rank" && r.Method == http.MethodGet:
		titles := r.URL.Query()["title"]
		out := make([]ScoredTitle, 0, len(titles))
		for _, t := range titles {
			out = append(out, ScoredTitle{Title: t, Score: float64(m.activations[name][t])})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)

	default:
		http.NotFound(w, r)
	}
}
