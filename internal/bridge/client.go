// SPDX-License-Identifier: MIT

// Package bridge is the remote-call boundary to the host process. It speaks
// the host's JSON API and hides transport details from the proxy layer.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/plugdeck/plugdeck/internal/config"
	"github.com/plugdeck/plugdeck/internal/manifest"
)

// ScoredTitle is one ranked activation candidate returned by the host.
type ScoredTitle struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// Client talks to one host process.
type Client struct {
	base string
	http *http.Client
}

// New creates a client for the host at base (e.g. "http://127.0.0.1:7878").
func New(base string) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// GetGlobalConfig fetches the host's full configuration snapshot.
func (c *Client) GetGlobalConfig(ctx context.Context) (config.Global, error) {
	var cfg config.Global
	err := c.call(ctx, "get_global_config", http.MethodGet, "/api/config", nil, &cfg)
	if err != nil {
		return config.Global{}, err
	}
	if cfg.Plugins == nil {
		cfg.Plugins = map[string]config.Plugin{}
	}
	return cfg, nil
}

// SetGlobalConfig replaces the host's stored configuration.
func (c *Client) SetGlobalConfig(ctx context.Context, cfg config.Global) error {
	return c.call(ctx, "set_global_config", http.MethodPut, "/api/config", cfg, nil)
}

// GetManifest fetches the manifest of the named plugin. Every call goes to
// the host; nothing is cached here.
func (c *Client) GetManifest(ctx context.Context, name string) (manifest.Manifest, error) {
	var m manifest.Manifest
	path := "/api/plugins/" + url.PathEscape(name) + "/manifest"
	if err := c.call(ctx, "get_manifest", http.MethodGet, path, nil, &m); err != nil {
		return manifest.Manifest{}, err
	}
	return m, nil
}

// RecordActivation reports one activation of an item so the host can track
// usage frequency.
func (c *Client) RecordActivation(ctx context.Context, name, title string) error {
	path := "/api/plugins/" + url.PathEscape(name) + "/activations"
	body := struct {
		Title string `json:"title"`
	}{Title: title}
	return c.call(ctx, "record_activation", http.MethodPost, path, body, nil)
}

// Rank asks the host to order candidate titles by activation frecency.
func (c *Client) Rank(ctx context.Context, name string, titles []string) ([]ScoredTitle, error) {
	q := url.Values{}
	for _, t := range titles {
		q.Add("title", t)
	}
	path := "/api/plugins/" + url.PathEscape(name) + "/activations/rank?" + q.Encode()

	var out []ScoredTitle
	if err := c.call(ctx, "rank", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// call issues one request and decodes the JSON response into out (if non-nil).
func (c *Client) call(ctx context.Context, operation, method, path string, in, out any) (err error) {
	defer func() { observeCall(operation, err) }()

	var body io.Reader
	if in != nil {
		data, merr := json.Marshal(in)
		if merr != nil {
			return &Error{Sentinel: ErrBadResponse, Operation: operation, Err: merr}
		}
		body = bytes.NewReader(data)
	}

	req, rerr := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if rerr != nil {
		return &Error{Sentinel: ErrHostUnavailable, Operation: operation, Err: rerr}
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, derr := c.http.Do(req)
	if derr != nil {
		return &Error{Sentinel: classifyTransport(derr), Operation: operation, Err: derr}
	}
	defer func() { _ = res.Body.Close() }()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return &Error{Sentinel: ErrNotFound, Operation: operation, Status: res.StatusCode, Body: readSnippet(res.Body)}
	case res.StatusCode >= 500:
		return &Error{Sentinel: ErrHostError, Operation: operation, Status: res.StatusCode, Body: readSnippet(res.Body)}
	case res.StatusCode >= 400:
		return &Error{Sentinel: ErrBadResponse, Operation: operation, Status: res.StatusCode, Body: readSnippet(res.Body)}
	}

	if out == nil {
		return nil
	}
	if derr := json.NewDecoder(res.Body).Decode(out); derr != nil {
		return &Error{Sentinel: ErrBadResponse, Operation: operation, Status: res.StatusCode, Err: derr}
	}
	return nil
}

func classifyTransport(err error) error {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return ErrTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ErrHostUnavailable
}

// readSnippet captures a short prefix of an error body for diagnostics.
func readSnippet(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 256))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
