package cart

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/shdpixel/storefront-client/api"
	"github.com/shdpixel/storefront-client/catalog"
	"github.com/shdpixel/storefront-client/store"
)

// Reconciler maintains the local cart and keeps it converged with the server
// cart while a session is authenticated.
//
// Every local mutation is stamped with a monotonically increasing sequence
// number. A server snapshot returned by a remote call is applied only if no
// newer local mutation happened while that call was in flight; stale
// snapshots are dropped, and the next round-trip re-syncs. This makes a
// quantity update racing a remove deterministic: the latest local mutation
// wins.
type Reconciler struct {
	client *api.Client
	store  store.Store
	log    zerolog.Logger

	lock          sync.Mutex
	items         []Item
	seq           uint64
	authenticated bool

	// mergeLock serializes SyncOnLogin so the one-time merge for a user can
	// never run twice concurrently.
	mergeLock sync.Mutex
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the reconciler logger.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Reconciler) {
		r.log = log
	}
}

// NewReconciler loads the persisted local cart from s.
func NewReconciler(client *api.Client, s store.Store, options ...Option) (*Reconciler, error) {
	if client == nil {
		return nil, errors.New("[cart.NewReconciler] api client is required")
	}
	if s == nil {
		return nil, errors.New("[cart.NewReconciler] store is required")
	}

	r := &Reconciler{
		client: client,
		store:  s,
		log:    zerolog.Nop(),
	}
	for _, opt := range options {
		opt(r)
	}

	var items []Item
	ok, err := store.GetJSON(s, store.CartItemsKey, &items)
	if err != nil {
		// A corrupt cart blob should not brick the client. Start empty.
		r.log.Warn().Err(err).Msg("failed to load persisted cart, starting empty")
	} else if ok {
		r.items = items
	}
	return r, nil
}

// AddItem adds one unit of product to the cart: quantity 1 if new, otherwise
// existing quantity + 1. The local update always happens first and is never
// rolled back; a remote failure only logs.
func (r *Reconciler) AddItem(ctx context.Context, product catalog.Product) {
	seq := r.mutate(func() {
		for i := range r.items {
			if r.items[i].ProductID == product.ID {
				r.items[i].Quantity++
				return
			}
		}
		r.items = append(r.items, Item{
			ProductID: product.ID,
			Quantity:  1,
			Name:      product.Name,
			Price:     product.Price,
			Thumbnail: product.Thumbnail,
			Images:    product.Images,
		})
	})

	r.push(ctx, http.MethodPost, "/cart/items/", addItemRequest{ProductID: product.ID, Quantity: 1}, seq)
}

// RemoveItem deletes the product from the cart. A remote failure does not
// restore the local item.
func (r *Reconciler) RemoveItem(ctx context.Context, productID int) {
	seq := r.mutate(func() {
		r.deleteLocked(productID)
	})

	r.push(ctx, http.MethodDelete, fmt.Sprintf("/cart/items/%d", productID), nil, seq)
}

// UpdateQuantity sets the product's quantity. A quantity of zero or less is a
// removal; the cart never stores a non-positive quantity.
func (r *Reconciler) UpdateQuantity(ctx context.Context, productID, quantity int) {
	if quantity <= 0 {
		r.RemoveItem(ctx, productID)
		return
	}

	seq := r.mutate(func() {
		for i := range r.items {
			if r.items[i].ProductID == productID {
				r.items[i].Quantity = quantity
				return
			}
		}
	})

	r.push(ctx, http.MethodPut, fmt.Sprintf("/cart/items/%d", productID), updateItemRequest{Quantity: quantity}, seq)
}

// Clear empties the cart.
func (r *Reconciler) Clear(ctx context.Context) {
	r.mutate(func() {
		r.items = nil
	})

	if !r.isAuthenticated() {
		return
	}
	if err := r.client.Do(ctx, http.MethodDelete, "/cart/", nil, nil); err != nil {
		r.log.Warn().Err(err).Msg("failed to clear server cart")
	}
}

// Items returns a copy of the current cart lines in insertion order.
func (r *Reconciler) Items() []Item {
	r.lock.Lock()
	defer r.lock.Unlock()
	out := make([]Item, len(r.items))
	copy(out, r.items)
	return out
}

// Total is the sum of price times quantity over all lines.
func (r *Reconciler) Total() float64 {
	r.lock.Lock()
	defer r.lock.Unlock()
	var total float64
	for _, item := range r.items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// Count is the sum of quantities.
func (r *Reconciler) Count() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	var count int
	for _, item := range r.items {
		count += item.Quantity
	}
	return count
}

// SyncOnLogin merges the local cart into the server cart (at most once per
// user, guarded by the persisted sync marker), then fetches the authoritative
// server cart and replaces local state with it. The merge completes before
// the fetch so a partially merged cart is never observed.
func (r *Reconciler) SyncOnLogin(ctx context.Context, userID string) error {
	r.mergeLock.Lock()
	defer r.mergeLock.Unlock()

	r.setAuthenticated(true)

	markerKey := store.CartSyncedKey(userID)
	_, synced, err := r.store.Get(markerKey)
	if err != nil {
		return errors.Wrap(err, "[Reconciler.SyncOnLogin] read sync marker")
	}

	if !synced {
		// Additive merge: increment server quantities by the local ones. Order
		// does not matter, so a sequential pass keeps failures attributable.
		for _, item := range r.Items() {
			payload := addItemRequest{ProductID: item.ProductID, Quantity: item.Quantity}
			if err := r.client.Do(ctx, http.MethodPost, "/cart/items/", payload, nil); err != nil {
				return errors.Wrapf(err, "[Reconciler.SyncOnLogin] merge product %d", item.ProductID)
			}
		}
		// An empty local cart still marks the user synced.
		if err := r.store.Set(markerKey, "true"); err != nil {
			return errors.Wrap(err, "[Reconciler.SyncOnLogin] set sync marker")
		}
		r.log.Info().Str("user_id", userID).Msg("local cart merged into server cart")
	}

	return r.Refresh(ctx)
}

// Refresh replaces local state with the authoritative server cart.
func (r *Reconciler) Refresh(ctx context.Context) error {
	var sc serverCart
	if err := r.client.Do(ctx, http.MethodGet, "/cart/", nil, &sc); err != nil {
		return errors.Wrap(err, "[Reconciler.Refresh] fetch server cart")
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	r.seq++
	r.items = sc.toItems()
	r.persistLocked()
	return nil
}

// Logout returns the reconciler to anonymous mode. The local cart and the
// sync markers persist so a re-login by the same user does not re-merge.
func (r *Reconciler) Logout() {
	r.setAuthenticated(false)
}

// mutate applies a local mutation, persists it, and returns the resulting
// sequence number. The mutation is synchronous: callers observe the new state
// before any remote call is dispatched.
func (r *Reconciler) mutate(fn func()) uint64 {
	r.lock.Lock()
	defer r.lock.Unlock()
	fn()
	r.seq++
	r.persistLocked()
	return r.seq
}

// push issues a remote cart mutation when authenticated and applies the
// returned server snapshot unless a newer local mutation superseded it.
func (r *Reconciler) push(ctx context.Context, method, path string, body any, seq uint64) {
	if !r.isAuthenticated() {
		return
	}

	var sc serverCart
	if err := r.client.Do(ctx, method, path, body, &sc); err != nil {
		r.log.Warn().Err(err).Str("path", path).Msg("server cart update failed, local cart is the fallback")
		return
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	if r.seq != seq {
		r.log.Debug().Uint64("snapshot_seq", seq).Uint64("current_seq", r.seq).Msg("discarding stale server cart snapshot")
		return
	}
	r.items = sc.toItems()
	r.persistLocked()
}

func (r *Reconciler) deleteLocked(productID int) {
	for i := range r.items {
		if r.items[i].ProductID == productID {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return
		}
	}
}

func (r *Reconciler) persistLocked() {
	if err := store.SetJSON(r.store, store.CartItemsKey, r.items); err != nil {
		r.log.Error().Err(err).Msg("failed to persist cart")
	}
}

func (r *Reconciler) isAuthenticated() bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.authenticated
}

func (r *Reconciler) setAuthenticated(v bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.authenticated = v
}
