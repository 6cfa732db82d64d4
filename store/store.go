// Package store provides the durable local key-value capability backing the
// storefront client: the persisted access tokens, the offline cart, and the
// per-user cart sync markers. The interface is deliberately small so core
// logic can be tested against an in-memory fake (see storefakes).
package store

import (
	"encoding/json"
	"fmt"
)

// Well-known keys. The admin token lives in its own key so the storefront and
// back-office sessions never share a credential.
const (
	AccessTokenKey      = "access_token"
	AdminAccessTokenKey = "admin_access_token"
	CartItemsKey        = "cart_items"

	cartSyncedKeyPrefix = "cart_synced_user_"
)

// CartSyncedKey returns the per-user sync marker key.
func CartSyncedKey(userID string) string {
	return cartSyncedKeyPrefix + userID
}

// Store is a flat string key-value store. Get reports presence via the second
// return value; a missing key is not an error.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// GetJSON reads key and unmarshals its value into out. Returns false if the
// key is absent.
func GetJSON(s Store, key string, out any) (bool, error) {
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("store.GetJSON %q: %w", key, err)
	}
	return true, nil
}

// SetJSON marshals v and stores it under key.
func SetJSON(s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store.SetJSON %q: %w", key, err)
	}
	return s.Set(key, string(raw))
}
