// SPDX-License-Identifier: MIT

// Package api provides the host daemon's HTTP surface: the config bridge
// endpoints clients talk to, plus health and metrics.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/plugdeck/plugdeck/internal/activity"
	"github.com/plugdeck/plugdeck/internal/config"
	pdlog "github.com/plugdeck/plugdeck/internal/log"
)

// Options wires the server's collaborators.
type Options struct {
	Holder      *config.Holder
	PluginsDir  string
	Activity    *activity.Store
	MutationRPM int // mutating-request budget per minute per client IP; 0 uses the default
}

// Server handles the host's HTTP API.
type Server struct {
	holder     *config.Holder
	pluginsDir string
	activity   *activity.Store
	logger     zerolog.Logger
	router     chi.Router
}

// New constructs the server and its route table.
func New(opts Options) *Server {
	s := &Server{
		holder:     opts.Holder,
		pluginsDir: opts.PluginsDir,
		activity:   opts.Activity,
		logger:     pdlog.WithComponent("api"),
	}

	mutationRPM := opts.MutationRPM
	if mutationRPM <= 0 {
		mutationRPM = 60
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/config", s.handleGetConfig)

		r.Group(func(r chi.Router) {
			r.Use(httprate.Limit(mutationRPM, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
			r.Put("/config", s.handlePutConfig)
			r.Post("/plugins/{name}/activations", s.handleRecordActivation)
		})

		r.Get("/plugins/{name}/manifest", s.handleGetManifest)
		r.Get("/plugins/{name}/activations/rank", s.handleRank)
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
