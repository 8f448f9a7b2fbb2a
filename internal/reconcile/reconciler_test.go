package reconcile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/abgdnv/cartsync/internal/cart"
	"github.com/abgdnv/cartsync/internal/wishlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRemote is a mock implementation of the RemoteSync interface. It also
// satisfies wishlist.RemoteList so the same instance can back both sides.
type mockRemote struct {
	cartItems     []cart.LineItem
	wishlistIDs   []string
	loadErr       error
	saveErr       error
	savedCart     [][]cart.LineItem
	savedWishlist [][]string
}

func (m *mockRemote) LoadCart(_ context.Context) ([]cart.LineItem, error) {
	return m.cartItems, m.loadErr
}

func (m *mockRemote) SaveCart(_ context.Context, items []cart.LineItem) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.savedCart = append(m.savedCart, items)
	return nil
}

func (m *mockRemote) LoadWishlist(_ context.Context) ([]string, error) {
	return m.wishlistIDs, m.loadErr
}

func (m *mockRemote) SaveWishlist(_ context.Context, ids []string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.savedWishlist = append(m.savedWishlist, ids)
	return nil
}

func (m *mockRemote) AddToWishlist(_ context.Context, _ string) error {
	return nil
}

func (m *mockRemote) RemoveFromWishlist(_ context.Context, _ string) error {
	return nil
}

// cartStore / wishlistStore are in-memory stand-ins for the local store.
type cartStore struct {
	items []cart.LineItem
}

func (s *cartStore) Load() []cart.LineItem      { return s.items }
func (s *cartStore) Save(items []cart.LineItem) { s.items = items }

type wishlistStore struct {
	ids []string
}

func (s *wishlistStore) Load() []string    { return s.ids }
func (s *wishlistStore) Save(ids []string) { s.ids = ids }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(localCart []cart.LineItem, localWishlist []string, remote *mockRemote) (*Reconciler, *cart.Cart, *wishlist.Wishlist) {
	logger := testLogger()
	c := cart.New(&cartStore{items: localCart}, logger)
	w := wishlist.New(&wishlistStore{ids: localWishlist}, remote, true, logger)
	return New(c, w, remote, logger), c, w
}

func Test_Reconciler_CartMerge_MaxQuantity(t *testing.T) {
	// given: local p1 qty 2; remote p1 qty 1 plus remote-only p3
	local := []cart.LineItem{{ID: "p1", Name: "Shirt", Price: 19.99, Quantity: 2}}
	remote := &mockRemote{
		cartItems: []cart.LineItem{
			{ID: "p1", Name: "Shirt", Price: 19.99, Quantity: 1},
			{ID: "p3", Name: "Hat", Price: 9.99, Quantity: 1},
		},
	}
	r, c, _ := newFixture(local, nil, remote)
	// when
	require.NoError(t, r.SyncOnLogin(context.Background()))
	// then: exactly two items, p1 with max quantity, p3 carried over
	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 2, c.ItemQuantity("p1"))
	assert.Equal(t, 1, c.ItemQuantity("p3"))

	// and the merged result was pushed back to the remote service
	require.Len(t, remote.savedCart, 1)
	assert.ElementsMatch(t, items, remote.savedCart[0])
}

func Test_Reconciler_CartPushLocal_WhenRemoteEmpty(t *testing.T) {
	// given
	local := []cart.LineItem{{ID: "p1", Price: 10, Quantity: 3}}
	remote := &mockRemote{}
	r, c, _ := newFixture(local, nil, remote)
	// when
	require.NoError(t, r.SyncOnLogin(context.Background()))
	// then: converged state is the local cart, pushed as-is
	assert.Equal(t, local, c.Items())
	require.Len(t, remote.savedCart, 1)
	assert.Equal(t, local, remote.savedCart[0])
}

func Test_Reconciler_LocalWins_OnRemoteFailure(t *testing.T) {
	// given
	local := []cart.LineItem{{ID: "p1", Price: 10, Quantity: 3}}
	remote := &mockRemote{loadErr: errors.New("service unavailable")}
	r, c, w := newFixture(local, []string{"w1"}, remote)
	// when
	err := r.SyncOnLogin(context.Background())
	// then: best-effort, no error surfaces and local state stands
	require.NoError(t, err)
	assert.Equal(t, local, c.Items())
	assert.Equal(t, []string{"w1"}, w.IDs())
	assert.Empty(t, remote.savedCart)
	assert.Empty(t, remote.savedWishlist)
}

func Test_Reconciler_PushFailure_KeepsLocalState(t *testing.T) {
	// given
	local := []cart.LineItem{{ID: "p1", Price: 10, Quantity: 3}}
	remote := &mockRemote{saveErr: errors.New("write refused")}
	r, c, _ := newFixture(local, nil, remote)
	// when
	err := r.SyncOnLogin(context.Background())
	// then
	require.NoError(t, err)
	assert.Equal(t, local, c.Items())
}

func Test_Reconciler_WishlistUnion(t *testing.T) {
	// given
	remote := &mockRemote{wishlistIDs: []string{"a", "b"}}
	r, _, w := newFixture(nil, []string{"b", "c"}, remote)
	// when
	require.NoError(t, r.SyncOnLogin(context.Background()))
	// then: presence union, remote order first
	assert.Equal(t, []string{"a", "b", "c"}, w.IDs())
	require.Len(t, remote.savedWishlist, 1)
	assert.Equal(t, []string{"a", "b", "c"}, remote.savedWishlist[0])
}

func Test_Reconciler_NothingToSync(t *testing.T) {
	// given: both sides empty
	remote := &mockRemote{}
	r, c, w := newFixture(nil, nil, remote)
	// when
	require.NoError(t, r.SyncOnLogin(context.Background()))
	// then: no pointless pushes of empty snapshots
	assert.Empty(t, c.Items())
	assert.Empty(t, w.IDs())
	assert.Empty(t, remote.savedCart)
	assert.Empty(t, remote.savedWishlist)
}

func Test_MergeCartItems(t *testing.T) {
	testCases := []struct {
		name     string
		local    []cart.LineItem
		remote   []cart.LineItem
		expected []cart.LineItem
	}{
		{
			name:     "Both empty",
			local:    []cart.LineItem{},
			remote:   []cart.LineItem{},
			expected: []cart.LineItem{},
		},
		{
			name:     "Remote only",
			local:    []cart.LineItem{},
			remote:   []cart.LineItem{{ID: "p1", Quantity: 1}},
			expected: []cart.LineItem{{ID: "p1", Quantity: 1}},
		},
		{
			name:     "Local only",
			local:    []cart.LineItem{{ID: "p1", Quantity: 2}},
			remote:   []cart.LineItem{},
			expected: []cart.LineItem{{ID: "p1", Quantity: 2}},
		},
		{
			name:   "Overlap takes max quantity per side",
			local:  []cart.LineItem{{ID: "p1", Quantity: 2}, {ID: "p2", Quantity: 1}},
			remote: []cart.LineItem{{ID: "p1", Quantity: 5}, {ID: "p3", Quantity: 1}},
			expected: []cart.LineItem{
				{ID: "p1", Quantity: 5},
				{ID: "p3", Quantity: 1},
				{ID: "p2", Quantity: 1},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			merged := MergeCartItems(tc.local, tc.remote)
			// then
			assert.Equal(t, tc.expected, merged)
		})
	}
}

func Test_MergeWishlistIDs(t *testing.T) {
	testCases := []struct {
		name     string
		local    []string
		remote   []string
		expected []string
	}{
		{
			name:     "Both empty",
			local:    []string{},
			remote:   []string{},
			expected: []string{},
		},
		{
			name:     "Disjoint",
			local:    []string{"c"},
			remote:   []string{"a", "b"},
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "Overlap deduplicated",
			local:    []string{"b", "c"},
			remote:   []string{"a", "b"},
			expected: []string{"a", "b", "c"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			merged := MergeWishlistIDs(tc.local, tc.remote)
			// then
			assert.Equal(t, tc.expected, merged)
		})
	}
}
