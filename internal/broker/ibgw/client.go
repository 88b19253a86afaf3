package ibgw

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/jdowell/mlmbot/pkg/config"
	"github.com/jdowell/mlmbot/pkg/httputil"
	"github.com/jdowell/mlmbot/pkg/logger"
	"github.com/jdowell/mlmbot/pkg/redis"
)

// Client talks to the IB Client Portal gateway REST API.
// SSOT: all gateway calls go through this client.
//
// The gateway runs locally and owns the brokerage session; paper vs
// live is decided by which account the gateway is logged into, so the
// client is identical in both modes.
type Client struct {
	httpClient *httputil.Client
	cache      *redis.Cache
	logger     *logger.Logger
	cfg        config.GatewayConfig

	// Session state
	authenticated bool
	lastChecked   time.Time
	sessionMu     sync.Mutex
}

// sessionCheckInterval bounds how often /iserver/auth/status is polled.
const sessionCheckInterval = 1 * time.Minute

// NewClient creates a gateway client. The cache may serve daily bars
// and resolved contracts; pass a cache backed by a disabled Redis
// client to run without one.
func NewClient(cfg config.GatewayConfig, httpClient *httputil.Client, cache *redis.Cache, log *logger.Logger) *Client {
	httpClient.WithRateLimit(cfg.RateLimit, 1)
	return &Client{
		httpClient: httpClient,
		cache:      cache,
		logger:     log,
		cfg:        cfg,
	}
}

// authStatus is the gateway's session state response.
type authStatus struct {
	Authenticated bool   `json:"authenticated"`
	Connected     bool   `json:"connected"`
	Competing     bool   `json:"competing"`
	Message       string `json:"message"`
}

// EnsureSession verifies the gateway session is authenticated,
// reauthenticating once if it is not. Cached for a minute to avoid
// hammering the status endpoint on every call.
func (c *Client) EnsureSession(ctx context.Context) error {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()

	if c.authenticated && time.Since(c.lastChecked) < sessionCheckInterval {
		return nil
	}

	status, err := c.checkAuthStatus(ctx)
	if err != nil {
		return fmt.Errorf("auth status: %w", err)
	}

	if !status.Authenticated {
		c.logger.Warn("Gateway session not authenticated; reauthenticating")
		if err := c.reauthenticate(ctx); err != nil {
			return fmt.Errorf("reauthenticate: %w", err)
		}
		status, err = c.checkAuthStatus(ctx)
		if err != nil {
			return fmt.Errorf("auth status after reauth: %w", err)
		}
		if !status.Authenticated {
			return fmt.Errorf("gateway session not authenticated: %s", status.Message)
		}
	}

	c.authenticated = true
	c.lastChecked = time.Now()
	return nil
}

func (c *Client) checkAuthStatus(ctx context.Context) (*authStatus, error) {
	var status authStatus
	if err := c.postJSON(ctx, "/iserver/auth/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) reauthenticate(ctx context.Context) error {
	return c.postJSON(ctx, "/iserver/reauthenticate", nil, nil)
}

// Tickle keeps the gateway session alive. Intended to run periodically
// from the scheduler while the daemon is up.
func (c *Client) Tickle(ctx context.Context) error {
	if err := c.postJSON(ctx, "/tickle", nil, nil); err != nil {
		return fmt.Errorf("tickle: %w", err)
	}
	return nil
}

// getJSON performs an authenticated GET and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	resp, err := c.httpClient.Get(ctx, c.cfg.BaseURL+path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

// postJSON performs a POST with optional JSON body and decodes the
// response into out when out is non-nil.
func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	var resp *http.Response
	var err error

	if body != nil {
		resp, err = c.httpClient.PostJSON(ctx, c.cfg.BaseURL+path, body)
	} else {
		resp, err = c.httpClient.Post(ctx, c.cfg.BaseURL+path, "application/json", nil)
	}
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		if resp.StatusCode >= 400 {
			respBody, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("gateway error status %d: %s", resp.StatusCode, string(respBody))
		}
		return nil
	}

	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out interface{}) error {
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gateway error status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
