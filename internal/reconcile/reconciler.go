// Package reconcile converges the local, pre-login cart and wishlist state
// with the authenticated user's server-side state, once per login.
package reconcile

import (
	"context"
	"log/slog"

	"github.com/abgdnv/cartsync/internal/cart"
	"github.com/abgdnv/cartsync/internal/wishlist"
	"golang.org/x/sync/errgroup"
)

// RemoteSync is the slice of the remote client the reconciler needs.
type RemoteSync interface {
	LoadCart(ctx context.Context) ([]cart.LineItem, error)
	SaveCart(ctx context.Context, items []cart.LineItem) error
	LoadWishlist(ctx context.Context) ([]string, error)
	SaveWishlist(ctx context.Context, ids []string) error
}

// Reconciler merges local and remote collection state at login time.
// It is deliberately not re-entrant: triggering a second reconciliation
// before the first completes gives no isolation, matching the last-write-wins
// policy of the collections themselves.
type Reconciler struct {
	cart     *cart.Cart
	wishlist *wishlist.Wishlist
	remote   RemoteSync
	logger   *slog.Logger
}

// New creates a reconciler over the given collections and remote client.
func New(c *cart.Cart, w *wishlist.Wishlist, remote RemoteSync, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		cart:     c,
		wishlist: w,
		remote:   remote,
		logger:   logger.With("component", "reconcile"),
	}
}

// SyncOnLogin runs the cart and wishlist reconciliation passes concurrently.
// Remote failures degrade each pass to "local wins" instead of aborting, so
// the session stays usable without the backend.
func (r *Reconciler) SyncOnLogin(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.syncCart(gCtx) })
	g.Go(func() error { return r.syncWishlist(gCtx) })
	return g.Wait()
}

func (r *Reconciler) syncCart(ctx context.Context) error {
	local := r.cart.Items()

	remoteItems, err := r.remote.LoadCart(ctx)
	if err != nil {
		r.logger.Warn("failed to load remote cart, keeping local state", "error", err)
		return nil
	}

	merged := MergeCartItems(local, remoteItems)
	r.cart.Replace(merged)

	if len(merged) == 0 && len(remoteItems) == 0 {
		// Nothing on either side, nothing to push.
		return nil
	}
	if err := r.remote.SaveCart(ctx, merged); err != nil {
		r.logger.Warn("failed to push merged cart, local state stands", "error", err)
	}
	return nil
}

func (r *Reconciler) syncWishlist(ctx context.Context) error {
	local := r.wishlist.IDs()

	remoteIDs, err := r.remote.LoadWishlist(ctx)
	if err != nil {
		r.logger.Warn("failed to load remote wishlist, keeping local state", "error", err)
		return nil
	}

	merged := MergeWishlistIDs(local, remoteIDs)
	r.wishlist.Replace(merged)

	if len(merged) == 0 && len(remoteIDs) == 0 {
		return nil
	}
	if err := r.remote.SaveWishlist(ctx, merged); err != nil {
		r.logger.Warn("failed to push merged wishlist, local state stands", "error", err)
	}
	return nil
}

// MergeCartItems merges two cart snapshots keyed by product ID. The remote
// sequence comes first; local-only items are appended in their local order.
// For items on both sides the larger quantity wins, so an addition made while
// anonymous or offline is never silently shrunk.
func MergeCartItems(local, remote []cart.LineItem) []cart.LineItem {
	merged := make([]cart.LineItem, len(remote))
	copy(merged, remote)

	index := make(map[string]int, len(merged))
	for i, it := range merged {
		index[it.ID] = i
	}

	for _, it := range local {
		if i, ok := index[it.ID]; ok {
			if it.Quantity > merged[i].Quantity {
				merged[i].Quantity = it.Quantity
			}
			continue
		}
		index[it.ID] = len(merged)
		merged = append(merged, it)
	}
	return merged
}

// MergeWishlistIDs merges two wishlist snapshots as a presence union. The
// remote sequence comes first; local-only IDs are appended in their local
// order.
func MergeWishlistIDs(local, remote []string) []string {
	merged := make([]string, len(remote))
	copy(merged, remote)

	seen := make(map[string]struct{}, len(merged))
	for _, id := range merged {
		seen[id] = struct{}{}
	}

	for _, id := range local {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		merged = append(merged, id)
	}
	return merged
}
