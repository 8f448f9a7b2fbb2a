// Package wishlist maintains the set of product IDs the user wants to
// revisit, independent of the cart. Local state is the source of truth; for
// authenticated sessions every mutation is additionally pushed to the remote
// service on a best-effort basis.
package wishlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/abgdnv/cartsync/internal/cart"
)

// ErrNotInWishlist is returned by MoveToCart for IDs not in the wishlist.
var ErrNotInWishlist = errors.New("product not in wishlist")

// ErrCartRejected is returned by MoveToCart when the cart refuses the
// resolved product.
var ErrCartRejected = errors.New("cart rejected product")

// Snapshot is the read-only view passed to observers after every mutation.
type Snapshot struct {
	IDs   []string
	Count int
}

// Observer receives a snapshot after every wishlist mutation.
type Observer func(Snapshot)

// Store persists the full ID sequence after every mutation.
// Implemented by localstore.Snapshot[string].
type Store interface {
	Load() []string
	Save(ids []string)
}

// RemoteList is the slice of the remote service the wishlist pushes to.
type RemoteList interface {
	AddToWishlist(ctx context.Context, productID string) error
	RemoveFromWishlist(ctx context.Context, productID string) error
}

// ProductResolver resolves a product ID to full catalog data.
type ProductResolver interface {
	ProductByID(ctx context.Context, productID string) (*cart.Product, error)
}

// CartAdder is the slice of the cart that MoveToCart needs.
type CartAdder interface {
	AddItem(p cart.Product, quantity int) bool
}

// Wishlist is the observable wishlist collection with set semantics:
// an ID appears at most once.
type Wishlist struct {
	mu            sync.RWMutex
	ids           []string
	observers     map[string]Observer
	store         Store
	remote        RemoteList
	authenticated bool
	logger        *slog.Logger
}

// New creates a wishlist seeded with the previously persisted snapshot.
// The authenticated flag is resolved once at wiring time and decides whether
// mutations are pushed to the remote service.
func New(store Store, remote RemoteList, authenticated bool, logger *slog.Logger) *Wishlist {
	return &Wishlist{
		ids:           store.Load(),
		observers:     make(map[string]Observer),
		store:         store,
		remote:        remote,
		authenticated: authenticated,
		logger:        logger.With("component", "wishlist"),
	}
}

// AddItem adds a product ID. An empty or already present ID is reported as a
// failed operation without any state change.
func (w *Wishlist) AddItem(ctx context.Context, productID string) bool {
	if productID == "" {
		w.logger.Warn("rejected add: empty product ID")
		return false
	}

	w.mu.Lock()
	if w.containsLocked(productID) {
		w.mu.Unlock()
		return false
	}
	w.ids = append(w.ids, productID)
	snap := w.snapshotLocked()
	w.mu.Unlock()

	w.persistAndNotify(snap)
	w.syncRemoteBestEffort(ctx, "add", productID, w.remote.AddToWishlist)
	return true
}

// RemoveItem removes a product ID if present.
// Reports whether a removal actually occurred.
func (w *Wishlist) RemoveItem(ctx context.Context, productID string) bool {
	w.mu.Lock()
	i := w.indexOf(productID)
	if i < 0 {
		w.mu.Unlock()
		return false
	}
	w.ids = append(w.ids[:i], w.ids[i+1:]...)
	snap := w.snapshotLocked()
	w.mu.Unlock()

	w.persistAndNotify(snap)
	w.syncRemoteBestEffort(ctx, "remove", productID, w.remote.RemoveFromWishlist)
	return true
}

// ToggleItem removes the ID if present, adds it otherwise.
// Returns the resulting membership state: true means now present.
func (w *Wishlist) ToggleItem(ctx context.Context, productID string) bool {
	if w.HasItem(productID) {
		w.RemoveItem(ctx, productID)
		return false
	}
	return w.AddItem(ctx, productID)
}

// HasItem reports whether the given ID is in the wishlist.
func (w *Wishlist) HasItem(productID string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.containsLocked(productID)
}

// Clear empties the wishlist unconditionally and persists the empty snapshot.
func (w *Wishlist) Clear() {
	w.mu.Lock()
	w.ids = []string{}
	snap := w.snapshotLocked()
	w.mu.Unlock()

	w.persistAndNotify(snap)
}

// Replace swaps the whole ID sequence for a converged one. Used by the
// reconciler after a login-time merge. Duplicates and empty IDs are dropped
// so the set invariant holds regardless of the source.
func (w *Wishlist) Replace(ids []string) {
	seen := make(map[string]struct{}, len(ids))
	clean := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		clean = append(clean, id)
	}

	w.mu.Lock()
	w.ids = clean
	snap := w.snapshotLocked()
	w.mu.Unlock()

	w.persistAndNotify(snap)
}

// IDs returns a defensive copy of the current ID sequence.
func (w *Wishlist) IDs() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.copyLocked()
}

// MoveToCart resolves the product behind a wishlisted ID and moves it into
// the cart. If resolution fails, neither collection changes. The cart-add and
// the wishlist-remove are two separate steps; an interruption in between
// leaves the item in both places, which both collections tolerate.
func (w *Wishlist) MoveToCart(ctx context.Context, productID string, resolver ProductResolver, dst CartAdder) error {
	if !w.HasItem(productID) {
		return ErrNotInWishlist
	}

	product, err := resolver.ProductByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to resolve product %s: %w", productID, err)
	}

	if !dst.AddItem(*product, 1) {
		return fmt.Errorf("%w: %s", ErrCartRejected, productID)
	}
	w.RemoveItem(ctx, productID)
	return nil
}

// AddObserver registers an observer under a name. Registering the same name
// again replaces the previous observer, so registration is idempotent.
func (w *Wishlist) AddObserver(name string, fn Observer) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.observers[name] = fn
}

// RemoveObserver deregisters the observer with the given name.
func (w *Wishlist) RemoveObserver(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.observers, name)
}

// syncRemoteBestEffort pushes a single mutation to the remote service for
// authenticated sessions. Failure is logged and otherwise ignored: the local
// mutation already succeeded and stays authoritative.
func (w *Wishlist) syncRemoteBestEffort(ctx context.Context, op, productID string, call func(context.Context, string) error) {
	if !w.authenticated || w.remote == nil {
		return
	}
	if err := call(ctx, productID); err != nil {
		w.logger.Warn("best-effort wishlist sync failed",
			"op", op, "id", productID, "error", err)
	}
}

func (w *Wishlist) persistAndNotify(snap Snapshot) {
	w.store.Save(snap.IDs)

	w.mu.RLock()
	observers := make(map[string]Observer, len(w.observers))
	for name, fn := range w.observers {
		observers[name] = fn
	}
	w.mu.RUnlock()

	for name, fn := range observers {
		w.invoke(name, fn, snap)
	}
}

func (w *Wishlist) invoke(name string, fn Observer, snap Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("wishlist observer panicked", "observer", name, "panic", r)
		}
	}()
	fn(snap)
}

func (w *Wishlist) containsLocked(productID string) bool {
	return w.indexOf(productID) >= 0
}

// indexOf returns the position of the ID, or -1. Callers must hold the mutex.
func (w *Wishlist) indexOf(productID string) int {
	for i, id := range w.ids {
		if id == productID {
			return i
		}
	}
	return -1
}

func (w *Wishlist) snapshotLocked() Snapshot {
	return Snapshot{
		IDs:   w.copyLocked(),
		Count: len(w.ids),
	}
}

func (w *Wishlist) copyLocked() []string {
	cp := make([]string, len(w.ids))
	copy(cp, w.ids)
	return cp
}
