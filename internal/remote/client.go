// Package remote implements the HTTP client for the storefront backend: cart
// and wishlist snapshots, product lookup, order creation and the
// authentication status probe.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/abgdnv/cartsync/internal/cart"
	"github.com/abgdnv/cartsync/pkg/config"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrProductNotFound is returned by ProductByID when the backend has no
// product with the given ID.
var ErrProductNotFound = errors.New("product not found")

// AuthStatus reports whether the backend recognizes the current session.
type AuthStatus struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	UserID          string `json:"userId"`
}

// Client is the remote sync client. All calls are synchronous,
// context-bound, and return an error on any non-2xx response.
type Client struct {
	baseURL    string
	token      string
	sessionID  string
	httpClient *http.Client
	validate   *validator.Validate
	logger     *slog.Logger
}

// NewClient creates a client for the configured backend. Every client gets a
// fresh session ID so the backend can correlate anonymous cart activity.
func NewClient(cfg config.RemoteConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		sessionID:  uuid.NewString(),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		validate:   validator.New(),
		logger:     logger.With("component", "remote"),
	}
}

type cartPayload struct {
	Items []cart.LineItem `json:"items"`
}

type wishlistPayload struct {
	IDs []string `json:"ids"`
}

type orderResponse struct {
	ID string `json:"id"`
}

// LoadCart fetches the server-side cart snapshot.
func (c *Client) LoadCart(ctx context.Context) ([]cart.LineItem, error) {
	var payload cartPayload
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/cart", nil, &payload); err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return payload.Items, nil
}

// SaveCart replaces the server-side cart snapshot.
func (c *Client) SaveCart(ctx context.Context, items []cart.LineItem) error {
	if items == nil {
		items = []cart.LineItem{}
	}
	if err := c.doJSON(ctx, http.MethodPut, "/api/v1/cart", cartPayload{Items: items}, nil); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// LoadWishlist fetches the server-side wishlist snapshot.
func (c *Client) LoadWishlist(ctx context.Context) ([]string, error) {
	var payload wishlistPayload
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/wishlist", nil, &payload); err != nil {
		return nil, fmt.Errorf("failed to load wishlist: %w", err)
	}
	return payload.IDs, nil
}

// SaveWishlist replaces the server-side wishlist snapshot.
func (c *Client) SaveWishlist(ctx context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	if err := c.doJSON(ctx, http.MethodPut, "/api/v1/wishlist", wishlistPayload{IDs: ids}, nil); err != nil {
		return fmt.Errorf("failed to save wishlist: %w", err)
	}
	return nil
}

// AddToWishlist adds a single product ID to the server-side wishlist.
func (c *Client) AddToWishlist(ctx context.Context, productID string) error {
	path := "/api/v1/wishlist/" + productID
	if err := c.doJSON(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("failed to add %s to remote wishlist: %w", productID, err)
	}
	return nil
}

// RemoveFromWishlist removes a single product ID from the server-side wishlist.
func (c *Client) RemoveFromWishlist(ctx context.Context, productID string) error {
	path := "/api/v1/wishlist/" + productID
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("failed to remove %s from remote wishlist: %w", productID, err)
	}
	return nil
}

// ProductByID resolves a product from the catalog.
// Returns ErrProductNotFound if the backend reports 404.
func (c *Client) ProductByID(ctx context.Context, productID string) (*cart.Product, error) {
	var product cart.Product
	err := c.doJSON(ctx, http.MethodGet, "/api/v1/products/"+productID, nil, &product)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
		}
		return nil, fmt.Errorf("failed to fetch product %s: %w", productID, err)
	}
	if err := c.validate.Struct(&product); err != nil {
		return nil, fmt.Errorf("invalid product payload for %s: %w", productID, err)
	}
	return &product, nil
}

// CreateOrder submits the given line items as a new order and returns the
// order ID assigned by the backend.
func (c *Client) CreateOrder(ctx context.Context, items []cart.LineItem) (string, error) {
	var created orderResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/orders", cartPayload{Items: items}, &created); err != nil {
		return "", fmt.Errorf("failed to create order: %w", err)
	}
	return created.ID, nil
}

// CheckAuthStatus asks the backend whether the current session is
// authenticated.
func (c *Client) CheckAuthStatus(ctx context.Context) (*AuthStatus, error) {
	var status AuthStatus
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/auth/status", nil, &status); err != nil {
		return nil, fmt.Errorf("failed to check auth status: %w", err)
	}
	return &status, nil
}

// errNotFound distinguishes a 404 inside doJSON from other HTTP failures.
var errNotFound = errors.New("not found")

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Session-ID", c.sessionID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("unexpected status %d for %s %s", resp.StatusCode, method, path)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
