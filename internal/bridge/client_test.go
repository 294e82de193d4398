// SPDX-License-Identifier: MIT

package bridge

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/plugdeck/plugdeck/internal/config"
	"github.com/plugdeck/plugdeck/internal/manifest"
)

func TestGetGlobalConfig(t *testing.T) {
	host := NewMockHost()
	defer host.Close()

	want := config.Global{
		Plugins: map[string]config.Plugin{
			"foo": {Enabled: true, Options: map[string]string{"k": "v"}},
		},
		Hotkey: "super+space",
	}
	host.SetConfig(want)

	got, err := New(host.URL).GetGlobalConfig(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestGetGlobalConfigNilPluginsNormalized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hotkey":"super+space"}`))
	}))
	defer srv.Close()

	got, err := New(srv.URL).GetGlobalConfig(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got.Plugins)
}

func TestSetGlobalConfigRoundTrip(t *testing.T) {
	host := NewMockHost()
	defer host.Close()

	cfg := config.Global{Plugins: map[string]config.Plugin{"web": {Prefix: "?"}}}
	require.NoError(t, New(host.URL).SetGlobalConfig(context.Background(), cfg))
	require.Equal(t, 1, host.ConfigPuts)

	stored := host.Config()
	require.Contains(t, stored.Plugins, "web")
}

func TestGetManifest(t *testing.T) {
	host := NewMockHost()
	defer host.Close()
	host.AddManifest(manifest.Manifest{Name: "calc", Version: "1.0.0", Capabilities: []string{"query"}})

	c := New(host.URL)
	m, err := c.GetManifest(context.Background(), "calc")
	require.NoError(t, err)
	require.Equal(t, "calc", m.Name)

	// No caching: a second fetch hits the host again.
	_, err = c.GetManifest(context.Background(), "calc")
	require.NoError(t, err)
	require.Equal(t, 2, host.ManifestGets)
}

func TestGetManifestUnknownPlugin(t *testing.T) {
	host := NewMockHost()
	defer host.Close()

	_, err := New(host.URL).GetManifest(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrNotFound)

	var berr *Error
	require.ErrorAs(t, err, &berr)
	require.Equal(t, "get_manifest", berr.Operation)
	require.Equal(t, http.StatusNotFound, berr.Status)
}

func TestHostErrorClassification(t *testing.T) {
	host := NewMockHost()
	defer host.Close()
	host.FailAll(true)

	_, err := New(host.URL).GetGlobalConfig(context.Background())
	require.ErrorIs(t, err, ErrHostError)
}

func TestUnreachableHost(t *testing.T) {
	// Port 0 is never listening.
	_, err := New("http://127.0.0.1:0").GetGlobalConfig(context.Background())
	if !errors.Is(err, ErrHostUnavailable) && !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected transport sentinel, got %v", err)
	}
}

func TestBadResponseBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is not json"))
	}))
	defer srv.Close()

	_, err := New(srv.URL).GetGlobalConfig(context.Background())
	require.ErrorIs(t, err, ErrBadResponse)
}

func TestRecordActivationAndRank(t *testing.T) {
	host := NewMockHost()
	defer host.Close()

	c := New(host.URL)
	ctx := context.Background()
	require.NoError(t, c.RecordActivation(ctx, "files", "Downloads"))
	require.NoError(t, c.RecordActivation(ctx, "files", "Downloads"))
	require.Equal(t, 2, host.Activations("files", "Downloads"))

	scored, err := c.Rank(ctx, "files", []string{"Downloads", "Music"})
	require.NoError(t, err)
	require.Len(t, scored, 2)
	require.Equal(t, "Downloads", scored[0].Title)
	require.Greater(t, scored[0].Score, scored[1].Score)
}

func TestRequestIDHeaderSet(t *testing.T) {
	var gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Request-Id")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"plugins":{}}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).GetGlobalConfig(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, gotID)
}
