// Package cart maintains the authoritative in-session view of the shopping
// cart and keeps it durable and observable.
package cart

import (
	"log/slog"
	"sync"
)

// Product represents the catalog data needed to put an item into the cart.
type Product struct {
	ID    string  `json:"id"    validate:"required"`
	Name  string  `json:"name"  validate:"required,max=200"`
	Price float64 `json:"price" validate:"gte=0"`
	Image string  `json:"image"`
}

// LineItem is a single product-plus-quantity record within the cart.
// Quantity is always >= 1; an item whose quantity drops to zero is removed.
type LineItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
	Quantity int     `json:"quantity"`
}

// Snapshot is the read-only view passed to observers after every mutation.
type Snapshot struct {
	Items      []LineItem
	TotalCount int
	Subtotal   float64
}

// Observer receives a snapshot after every cart mutation.
type Observer func(Snapshot)

// Store persists the full item sequence after every mutation.
// Implemented by localstore.Snapshot[LineItem].
type Store interface {
	Load() []LineItem
	Save(items []LineItem)
}

// Cart is the observable cart collection. All mutation goes through its
// methods; the internal sequence is never handed out.
type Cart struct {
	mu        sync.RWMutex
	items     []LineItem
	observers map[string]Observer
	store     Store
	logger    *slog.Logger
}

// New creates a cart seeded with the previously persisted snapshot.
func New(store Store, logger *slog.Logger) *Cart {
	return &Cart{
		items:     store.Load(),
		observers: make(map[string]Observer),
		store:     store,
		logger:    logger.With("component", "cart"),
	}
}

// AddItem puts quantity units of the product into the cart. If a line item
// with the same ID already exists its quantity is increased, otherwise a new
// line item is appended. A missing product ID or a non-positive quantity is
// reported as a failed operation without any state change.
func (c *Cart) AddItem(p Product, quantity int) bool {
	if p.ID == "" {
		c.logger.Warn("rejected add: product has no ID")
		return false
	}
	if quantity < 1 {
		c.logger.Warn("rejected add: invalid quantity", "id", p.ID, "quantity", quantity)
		return false
	}

	c.mu.Lock()
	if i := c.indexOf(p.ID); i >= 0 {
		c.items[i].Quantity += quantity
	} else {
		c.items = append(c.items, LineItem{
			ID:       p.ID,
			Name:     p.Name,
			Price:    p.Price,
			Image:    p.Image,
			Quantity: quantity,
		})
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.persistAndNotify(snap)
	return true
}

// RemoveItem removes the line item with the given ID.
// Reports whether a removal actually occurred.
func (c *Cart) RemoveItem(productID string) bool {
	c.mu.Lock()
	i := c.indexOf(productID)
	if i < 0 {
		c.mu.Unlock()
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.persistAndNotify(snap)
	return true
}

// UpdateQuantity sets the quantity of an existing line item. A quantity of
// zero or less removes the item. Unknown IDs are reported as a failure.
func (c *Cart) UpdateQuantity(productID string, quantity int) bool {
	if quantity <= 0 {
		return c.RemoveItem(productID)
	}

	c.mu.Lock()
	i := c.indexOf(productID)
	if i < 0 {
		c.mu.Unlock()
		c.logger.Warn("rejected quantity update: item not in cart", "id", productID)
		return false
	}
	c.items[i].Quantity = quantity
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.persistAndNotify(snap)
	return true
}

// Clear empties the cart unconditionally and persists the empty snapshot.
func (c *Cart) Clear() {
	c.mu.Lock()
	c.items = []LineItem{}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.persistAndNotify(snap)
}

// Replace swaps the whole item sequence for a converged one. Used by the
// reconciler after a login-time merge. Items with non-positive quantity are
// dropped so the quantity invariant holds regardless of the source.
func (c *Cart) Replace(items []LineItem) {
	clean := make([]LineItem, 0, len(items))
	for _, it := range items {
		if it.ID == "" || it.Quantity < 1 {
			continue
		}
		clean = append(clean, it)
	}

	c.mu.Lock()
	c.items = clean
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.persistAndNotify(snap)
}

// Items returns a defensive copy of the current line items.
func (c *Cart) Items() []LineItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.copyLocked()
}

// TotalCount returns the sum of all quantities, not the number of line items.
func (c *Cart) TotalCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return totalCount(c.items)
}

// Subtotal returns the sum of price times quantity across all line items.
func (c *Cart) Subtotal() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return subtotal(c.items)
}

// HasItem reports whether a line item with the given ID exists.
func (c *Cart) HasItem(productID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.indexOf(productID) >= 0
}

// ItemQuantity returns the quantity of the line item, or zero if absent.
func (c *Cart) ItemQuantity(productID string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexOf(productID); i >= 0 {
		return c.items[i].Quantity
	}
	return 0
}

// AddObserver registers an observer under a name. Registering the same name
// again replaces the previous observer, so registration is idempotent.
func (c *Cart) AddObserver(name string, fn Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers[name] = fn
}

// RemoveObserver deregisters the observer with the given name.
func (c *Cart) RemoveObserver(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.observers, name)
}

// persistAndNotify writes the snapshot through to the local store and then
// notifies every observer. Persistence failures are absorbed by the store;
// a panicking observer must not prevent the others from being notified.
func (c *Cart) persistAndNotify(snap Snapshot) {
	c.store.Save(snap.Items)

	c.mu.RLock()
	observers := make(map[string]Observer, len(c.observers))
	for name, fn := range c.observers {
		observers[name] = fn
	}
	c.mu.RUnlock()

	for name, fn := range observers {
		c.invoke(name, fn, snap)
	}
}

func (c *Cart) invoke(name string, fn Observer, snap Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("cart observer panicked", "observer", name, "panic", r)
		}
	}()
	fn(snap)
}

// indexOf returns the position of the line item with the given ID, or -1.
// Callers must hold the mutex.
func (c *Cart) indexOf(productID string) int {
	for i, it := range c.items {
		if it.ID == productID {
			return i
		}
	}
	return -1
}

// snapshotLocked builds a snapshot from the current sequence.
// Callers must hold the mutex.
func (c *Cart) snapshotLocked() Snapshot {
	return Snapshot{
		Items:      c.copyLocked(),
		TotalCount: totalCount(c.items),
		Subtotal:   subtotal(c.items),
	}
}

func (c *Cart) copyLocked() []LineItem {
	cp := make([]LineItem, len(c.items))
	copy(cp, c.items)
	return cp
}

func totalCount(items []LineItem) int {
	var n int
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

func subtotal(items []LineItem) float64 {
	var sum float64
	for _, it := range items {
		sum += it.Price * float64(it.Quantity)
	}
	return sum
}
