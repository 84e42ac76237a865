// Package network is a client of the external service that owns networks and
// routers. It is used to check that associated resources exist.
package network

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/edvin/bgpvpn/internal/config"
	"github.com/edvin/bgpvpn/internal/core"
	"github.com/edvin/bgpvpn/internal/model"
)

// Client talks to the network-resource service. It implements core.Resolver.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ core.Resolver = (*Client)(nil)

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("network API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("network API %s: %w", path, core.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("network API %s: status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// GetNetwork fetches a network by ID.
func (c *Client) GetNetwork(ctx context.Context, id string) (*Network, error) {
	var resp networkResponse
	if err := c.get(ctx, "/networks/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp.Network, nil
}

// GetRouter fetches a router by ID.
func (c *Client) GetRouter(ctx context.Context, id string) (*Router, error) {
	var resp routerResponse
	if err := c.get(ctx, "/routers/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp.Router, nil
}

// Network resolves a network reference.
func (c *Client) Network(ctx context.Context, id string) (*model.ResourceRef, error) {
	n, err := c.GetNetwork(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.ResourceRef{ID: id, Name: n.Name, TenantID: n.TenantID, Found: true}, nil
}

// Router resolves a router reference.
func (c *Client) Router(ctx context.Context, id string) (*model.ResourceRef, error) {
	r, err := c.GetRouter(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.ResourceRef{ID: id, Name: r.Name, TenantID: r.TenantID, Found: true}, nil
}

// NewResolver returns a Client for the configured network API, or nil when
// NETWORK_API_URL is unset so that references are stored unverified.
func NewResolver(cfg *config.Config) core.Resolver {
	if cfg.NetworkAPIURL == "" {
		return nil
	}
	return NewClient(cfg.NetworkAPIURL, cfg.NetworkAPIKey)
}
