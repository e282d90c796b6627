// internal/backend/client.go
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"kitchen-hub/internal/common/errors"
	commonhttp "kitchen-hub/internal/common/http"
	"kitchen-hub/internal/common/logger"
	"kitchen-hub/internal/models"
)

// Backend REST endpoints. The order store itself is a black box; these five
// routes are the whole surface the agent consumes.
const (
	pathOrders          = "/orders"
	pathRegisterToken   = "/register-push-token"
	pathRegisterAdmin   = "/register-admin-token"
	pathUnregisterToken = "/unregister-push-token"
	pathPing            = "/ping"
)

// Client talks to the order backend.
type Client struct {
	baseURL    string
	fetchLimit int
	http       *commonhttp.Client
	logger     logger.Logger
}

// NewClient builds an order backend client. fetchLimit caps the orders
// returned per fetch; zero defers to the backend's default page size.
func NewClient(baseURL string, timeout time.Duration, fetchLimit int, log logger.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		fetchLimit: fetchLimit,
		http:       commonhttp.NewClient(timeout),
		logger:     log.WithFields(map[string]interface{}{"component": "backend"}),
	}
}

// Orders fetches the current order list.
func (c *Client) Orders(ctx context.Context) ([]models.Order, error) {
	target := c.baseURL + pathOrders
	if c.fetchLimit > 0 {
		target += fmt.Sprintf("?per_page=%d", c.fetchLimit)
	}
	req, err := http.NewRequest(http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build orders request: %w", err)
	}

	resp, err := c.http.DoWithContext(ctx, req)
	if err != nil {
		if isTimeout(err) {
			return nil, errors.NewBackendTimeoutError("orders")
		}
		return nil, fmt.Errorf("fetch orders: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "orders"); err != nil {
		return nil, err
	}

	var orders []models.Order
	if err := json.NewDecoder(resp.Body).Decode(&orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus issues a status-update request for one order. The returned
// order reflects the backend's view; callers must not treat a local copy as
// canonical until the next poll confirms it.
func (c *Client) UpdateStatus(ctx context.Context, orderID string, status models.Status) (*models.Order, error) {
	body, err := json.Marshal(map[string]string{"status": string(status)})
	if err != nil {
		return nil, fmt.Errorf("encode status update: %w", err)
	}

	target := fmt.Sprintf("%s%s/%s", c.baseURL, pathOrders, url.PathEscape(orderID))
	req, err := http.NewRequest(http.MethodPatch, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build status update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.DoWithContext(ctx, req)
	if err != nil {
		if isTimeout(err) {
			return nil, errors.NewBackendTimeoutError("update-status")
		}
		return nil, fmt.Errorf("update status: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "update-status"); err != nil {
		return nil, err
	}

	var order models.Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("decode updated order: %w", err)
	}
	return &order, nil
}

type tokenRegistration struct {
	Token    string `json:"token"`
	Identity string `json:"identity"`
	Platform string `json:"platform"`
}

// RegisterToken registers a push token with the backend. Admin and customer
// tokens land in distinct backend registries, so the route selection must be
// exact.
func (c *Client) RegisterToken(ctx context.Context, token models.PushToken, identity string) error {
	path := pathRegisterToken
	if token.IsAdmin {
		path = pathRegisterAdmin
	}

	body, err := json.Marshal(tokenRegistration{
		Token:    token.Value,
		Identity: identity,
		Platform: string(token.Platform),
	})
	if err != nil {
		return fmt.Errorf("encode token registration: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build token registration request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.DoWithContext(ctx, req)
	if err != nil {
		if isTimeout(err) {
			return errors.NewBackendTimeoutError("register-token")
		}
		return fmt.Errorf("register token: %w", err)
	}
	defer resp.Body.Close()

	return checkStatus(resp, "register-token")
}

// UnregisterToken asks the backend to drop a token. Best effort: callers
// proceed with local cleanup regardless of the outcome.
func (c *Client) UnregisterToken(ctx context.Context, token string) error {
	body, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return fmt.Errorf("encode token unregistration: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+pathUnregisterToken, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build token unregistration request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.DoWithContext(ctx, req)
	if err != nil {
		if isTimeout(err) {
			return errors.NewBackendTimeoutError("unregister-token")
		}
		return fmt.Errorf("unregister token: %w", err)
	}
	defer resp.Body.Close()

	return checkStatus(resp, "unregister-token")
}

// Ping probes backend reachability.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+pathPing, nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}

	resp, err := c.http.DoWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("ping backend: %w", err)
	}
	defer resp.Body.Close()

	return checkStatus(resp, "ping")
}

func checkStatus(resp *http.Response, operation string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return errors.NewBackendRejectedError(resp.StatusCode,
			fmt.Sprintf("operation: %s, body: %s", operation, string(detail)))
	}
	return fmt.Errorf("%s: backend returned %d", operation, resp.StatusCode)
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	if stderrors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return stderrors.Is(err, context.DeadlineExceeded)
}
