// Package app contains the application setup for the storefront session.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/abgdnv/cartsync/internal/cart"
	"github.com/abgdnv/cartsync/internal/config"
	"github.com/abgdnv/cartsync/internal/localstore"
	"github.com/abgdnv/cartsync/internal/reconcile"
	"github.com/abgdnv/cartsync/internal/remote"
	"github.com/abgdnv/cartsync/internal/wishlist"
)

// Local store keys, one per collection type.
const (
	cartKey     = "cart"
	wishlistKey = "wishlist"
)

// ErrEmptyCart is returned by Checkout when there is nothing to order.
var ErrEmptyCart = errors.New("cart is empty")

// Session wires the cart, wishlist, remote client and reconciler together
// for one storefront session.
type Session struct {
	Cart       *cart.Cart
	Wishlist   *wishlist.Wishlist
	Reconciler *reconcile.Reconciler
	Remote     *remote.Client
	Auth       remote.AuthStatus

	logger *slog.Logger
}

// NewSession builds a session from configuration. The authentication status
// is probed once here; an unreachable backend degrades to an anonymous
// session instead of failing, since local state must stay usable offline.
func NewSession(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Session, error) {
	kv, err := localstore.NewStore(cfg.Store.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	client := remote.NewClient(cfg.Remote, logger)

	auth := remote.AuthStatus{}
	if status, err := client.CheckAuthStatus(ctx); err != nil {
		logger.Warn("failed to check auth status, continuing as anonymous", "error", err)
	} else {
		auth = *status
	}

	cartStore := localstore.NewSnapshot[cart.LineItem](kv, cartKey, logger)
	wishlistStore := localstore.NewSnapshot[string](kv, wishlistKey, logger)

	c := cart.New(cartStore, logger)
	w := wishlist.New(wishlistStore, client, auth.IsAuthenticated, logger)

	return &Session{
		Cart:       c,
		Wishlist:   w,
		Reconciler: reconcile.New(c, w, client, logger),
		Remote:     client,
		Auth:       auth,
		logger:     logger.With("component", "session"),
	}, nil
}

// MoveToCart moves a wishlisted product into the cart, resolving its catalog
// data through the remote client.
func (s *Session) MoveToCart(ctx context.Context, productID string) error {
	return s.Wishlist.MoveToCart(ctx, productID, s.Remote, s.Cart)
}

// Checkout submits the current cart as an order. The cart is cleared only
// after the backend accepts the order; on failure it is left intact.
func (s *Session) Checkout(ctx context.Context) (string, error) {
	items := s.Cart.Items()
	if len(items) == 0 {
		return "", ErrEmptyCart
	}

	orderID, err := s.Remote.CreateOrder(ctx, items)
	if err != nil {
		return "", fmt.Errorf("checkout failed: %w", err)
	}

	s.Cart.Clear()
	s.logger.Info("order created", "order_id", orderID, "items", len(items))
	return orderID, nil
}
