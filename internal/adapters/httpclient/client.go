// Package httpclient implements the client-side ports.ServerClient gateway
// to the aggregation server (§6), the Runner and Fallback Drainer's only
// route out of the process.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lcalzada-xor/fast/internal/core/domain"
)

// Client is an HTTP-backed ports.ServerClient.
type Client struct {
	baseURL  string
	player   string
	password string
	http     *http.Client
}

// New builds a Client targeting baseURL (e.g. "http://10.0.0.1:8080"),
// authenticating with the configured connect.password if any (§6).
func New(baseURL, player, password string) *Client {
	return &Client{
		baseURL:  baseURL,
		player:   player,
		password: password,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("httpclient: marshal body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("httpclient: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.password != "" {
		req.SetBasicAuth(c.player, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s %s: %w", method, path, err)
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("httpclient: %s %s: status %d: %s", method, path, resp.StatusCode, string(data))
	}
	return resp, nil
}

// Enqueue implements ports.ServerClient.Enqueue via POST /enqueue.
func (c *Client) Enqueue(ctx context.Context, flags []string, exploit, target, player string) (domain.EnqueueResult, error) {
	body := map[string]interface{}{
		"flags":   flags,
		"exploit": exploit,
		"target":  target,
		"player":  player,
	}
	resp, err := c.do(ctx, http.MethodPost, "/enqueue", body)
	if err != nil {
		return domain.EnqueueResult{}, err
	}
	defer resp.Body.Close()

	var result domain.EnqueueResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return domain.EnqueueResult{}, fmt.Errorf("httpclient: decode enqueue response: %w", err)
	}
	return result, nil
}

// EnqueueFallback implements ports.ServerClient.EnqueueFallback via POST
// /enqueue-fallback.
func (c *Client) EnqueueFallback(ctx context.Context, entries []domain.FallbackEntry) error {
	resp, err := c.do(ctx, http.MethodPost, "/enqueue-fallback", entries)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

// Sync implements ports.ServerClient.Sync via GET /sync, used at startup to
// phase the client's Clock and Submitter mode view (§4.9).
func (c *Client) Sync(ctx context.Context) (domain.SyncResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, "/sync", nil)
	if err != nil {
		return domain.SyncResponse{}, err
	}
	defer resp.Body.Close()

	var out domain.SyncResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.SyncResponse{}, fmt.Errorf("httpclient: decode sync response: %w", err)
	}
	return out, nil
}

// TriggerSubmit implements ports.ServerClient.TriggerSubmit via POST
// /trigger-submit (§4.8 "forced fire", used by the `fast submit` CLI verb).
func (c *Client) TriggerSubmit(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, "/trigger-submit", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

// clientConfigView is the subset of GET /config the client agent needs: the
// authoritative flag_format regex (§4.3 step 6), since the client has no
// server.yaml of its own.
type clientConfigView struct {
	Game struct {
		FlagFormat string `json:"flag_format"`
	} `json:"game"`
}

// GetConfig fetches GET /config and returns the server's flag_format.
func (c *Client) GetConfig(ctx context.Context) (flagFormat string, err error) {
	resp, err := c.do(ctx, http.MethodGet, "/config", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var view clientConfigView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return "", fmt.Errorf("httpclient: decode config response: %w", err)
	}
	return view.Game.FlagFormat, nil
}
