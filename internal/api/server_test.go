// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plugdeck/plugdeck/internal/activity"
	"github.com/plugdeck/plugdeck/internal/bridge"
	"github.com/plugdeck/plugdeck/internal/config"
)

func newTestServer(t *testing.T) (*httptest.Server, *config.Holder, string) {
	t.Helper()

	dir := t.TempDir()
	store := config.NewStore(filepath.Join(dir, "config.yaml"))
	require.NoError(t, store.Save(config.Default()))
	initial, err := store.Load()
	require.NoError(t, err)
	holder := config.NewHolder(initial, store)

	pluginsDir := filepath.Join(dir, "plugins")
	require.NoError(t, os.MkdirAll(pluginsDir, 0750))

	act, err := activity.Open(filepath.Join(dir, "activity.db"), activity.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = act.Close() })

	srv := httptest.NewServer(New(Options{
		Holder:     holder,
		PluginsDir: pluginsDir,
		Activity:   act,
	}))
	t.Cleanup(srv.Close)
	return srv, holder, pluginsDir
}

func TestConfigEndpointsThroughBridgeClient(t *testing.T) {
	srv, holder, _ := newTestServer(t)
	client := bridge.New(srv.URL)
	ctx := context.Background()

	got, err := client.GetGlobalConfig(ctx)
	require.NoError(t, err)
	require.Equal(t, config.Default().Hotkey, got.Hotkey)

	got.Plugins["clock"] = config.Plugin{Prefix: "@", Enabled: true}
	require.NoError(t, client.SetGlobalConfig(ctx, got))

	require.Contains(t, holder.Get().Plugins, "clock")
}

func TestPutConfigRejectsInvalid(t *testing.T) {
	srv, holder, _ := newTestServer(t)
	client := bridge.New(srv.URL)

	bad := config.Global{Plugins: map[string]config.Plugin{" ": {}}}
	err := client.SetGlobalConfig(context.Background(), bad)
	require.ErrorIs(t, err, bridge.ErrBadResponse)
	require.NotContains(t, holder.Get().Plugins, " ")
}

func TestPutConfigRejectsMalformedBody(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/config", nil)
	require.NoError(t, err)
	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestManifestEndpoint(t *testing.T) {
	srv, _, pluginsDir := newTestServer(t)

	mf := `
name: calculator
version: 1.0.0
capabilities: [query]
`
	require.NoError(t, os.WriteFile(filepath.Join(pluginsDir, "calculator.yaml"), []byte(mf), 0600))

	client := bridge.New(srv.URL)
	got, err := client.GetManifest(context.Background(), "calculator")
	require.NoError(t, err)
	require.Equal(t, "calculator", got.Name)
	require.Equal(t, []string{"query"}, got.Capabilities)

	_, err = client.GetManifest(context.Background(), "missing")
	require.ErrorIs(t, err, bridge.ErrNotFound)
}

func TestManifestEndpointRejectsPathTraversal(t *testing.T) {
	srv, _, pluginsDir := newTestServer(t)

	// Place a file outside the plugins dir; a traversal name must not reach it.
	outside := filepath.Join(filepath.Dir(pluginsDir), "secret.yaml")
	require.NoError(t, os.WriteFile(outside, []byte("name: secret\n"), 0600))

	res, err := srv.Client().Get(srv.URL + "/api/plugins/..%2Fsecret/manifest")
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestActivationFlow(t *testing.T) {
	srv, _, _ := newTestServer(t)
	client := bridge.New(srv.URL)
	ctx := context.Background()

	require.NoError(t, client.RecordActivation(ctx, "files", "Downloads"))
	require.NoError(t, client.RecordActivation(ctx, "files", "Downloads"))
	require.NoError(t, client.RecordActivation(ctx, "files", "Music"))

	scored, err := client.Rank(ctx, "files", []string{"Music", "Downloads", "Pictures"})
	require.NoError(t, err)
	require.Len(t, scored, 3)
	require.Equal(t, "Downloads", scored[0].Title)
	require.Equal(t, "Pictures", scored[2].Title)
	require.Zero(t, scored[2].Score)
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)

	res, err := srv.Client().Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()
	require.Equal(t, http.StatusOK, res.StatusCode)
}

func TestMetricsExposed(t *testing.T) {
	srv, _, _ := newTestServer(t)

	res, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()
	require.Equal(t, http.StatusOK, res.StatusCode)
}
