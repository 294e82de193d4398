// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/plugdeck/plugdeck/internal/config"
	pdlog "github.com/plugdeck/plugdeck/internal/log"
	"github.com/plugdeck/plugdeck/internal/manifest"
)

func (s *Server) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.holder.Get())
}

func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var cfg config.Global
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "malformed config body")
		return
	}
	if cfg.Plugins == nil {
		cfg.Plugins = map[string]config.Plugin{}
	}

	if err := s.holder.Set(cfg); err != nil {
		logger := pdlog.WithContext(r.Context(), s.logger)
		if verr := config.Validate(cfg); verr != nil {
			logger.Warn().Err(verr).Str("event", "api.config_rejected").Msg("rejected config update")
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		logger.Error().Err(err).Str("event", "api.config_save_failed").Msg("failed to persist config")
		writeError(w, http.StatusInternalServerError, "failed to persist config")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetManifest(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	// Manifests live as flat files; reject anything that is not a bare name.
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		writeError(w, http.StatusNotFound, "unknown plugin")
		return
	}

	m, err := manifest.Load(filepath.Join(s.pluginsDir, name+".yaml"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusNotFound, "unknown plugin")
			return
		}
		logger := pdlog.WithContext(r.Context(), s.logger)
		logger.Error().Err(err).Str("plugin", name).Str("event", "api.manifest_load_failed").Msg("failed to load manifest")
		writeError(w, http.StatusInternalServerError, "failed to load manifest")
		return
	}

	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleRecordActivation(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var body struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Title == "" {
		writeError(w, http.StatusBadRequest, "activation requires a title")
		return
	}

	if err := s.activity.Record(r.Context(), name, body.Title); err != nil {
		logger := pdlog.WithContext(r.Context(), s.logger)
		logger.Error().Err(err).Str("plugin", name).Str("event", "api.activation_failed").Msg("failed to record activation")
		writeError(w, http.StatusInternalServerError, "failed to record activation")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	titles := r.URL.Query()["title"]

	scored, err := s.activity.Rank(r.Context(), name, titles)
	if err != nil {
		logger := pdlog.WithContext(r.Context(), s.logger)
		logger.Error().Err(err).Str("plugin", name).Str("event", "api.rank_failed").Msg("failed to rank activations")
		writeError(w, http.StatusInternalServerError, "failed to rank activations")
		return
	}

	writeJSON(w, http.StatusOK, scored)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"error": detail})
}
