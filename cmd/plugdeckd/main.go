// SPDX-License-Identifier: MIT

// Command plugdeckd is the launcher's host process: it owns the persistent
// global configuration and answers bridge calls from UI clients.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/plugdeck/plugdeck/internal/activity"
	"github.com/plugdeck/plugdeck/internal/api"
	"github.com/plugdeck/plugdeck/internal/config"
	pdlog "github.com/plugdeck/plugdeck/internal/log"
)

var (
	version   = "v0.3.0"
	commit    = "none"
	buildDate = "unknown"
)

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	listenAddr := flag.String("listen", envOr("PLUGDECK_LISTEN", "127.0.0.1:7878"), "address to serve the bridge API on")
	dataDir := flag.String("data", envOr("PLUGDECK_DATA", defaultDataDir()), "directory for config and activation history")
	pluginsDir := flag.String("plugins", "", "directory containing plugin manifests (default: <data>/plugins)")
	logLevel := flag.String("log-level", envOr("PLUGDECK_LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	pdlog.Configure(pdlog.Config{
		Level:   *logLevel,
		Service: "plugdeckd",
	})
	logger := pdlog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	plugins := *pluginsDir
	if plugins == "" {
		plugins = filepath.Join(*dataDir, "plugins")
	}
	if err := os.MkdirAll(plugins, 0750); err != nil {
		logger.Fatal().Err(err).Str("path", plugins).Msg("failed to create plugins directory")
	}

	store := config.NewStore(filepath.Join(*dataDir, "config.yaml"))
	initial, err := store.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", store.Path()).
			Msg("failed to load configuration")
	}
	holder := config.NewHolder(initial, store)

	// Persist defaults on first run so the watcher has a file to follow.
	if _, statErr := os.Stat(store.Path()); errors.Is(statErr, os.ErrNotExist) {
		if err := store.Save(initial); err != nil {
			logger.Fatal().Err(err).Msg("failed to write initial configuration")
		}
	}
	if err := holder.StartWatcher(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to start config watcher")
	}

	act, err := activity.Open(filepath.Join(*dataDir, "activity.db"), activity.DefaultConfig())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open activation store")
	}
	defer func() { _ = act.Close() }()

	srv := &http.Server{
		Addr: *listenAddr,
		Handler: api.New(api.Options{
			Holder:     holder,
			PluginsDir: plugins,
			Activity:   act,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().
			Str("event", "daemon.listening").
			Str("addr", *listenAddr).
			Str("version", version).
			Msg("bridge API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("daemon exited with error")
	}
	logger.Info().Str("event", "daemon.stopped").Msg("shutdown complete")
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "plugdeck")
	}
	return "/tmp/plugdeck"
}
