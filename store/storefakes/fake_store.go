package storefakes

import (
	"sync"

	"github.com/shdpixel/storefront-client/store"
)

var _ store.Store = (*FakeStore)(nil)

// FakeStore is an in-memory Store for tests. It counts Set calls per key so
// tests can assert on persistence traffic.
type FakeStore struct {
	lock     sync.RWMutex
	data     map[string]string
	SetCalls map[string]int
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		data:     make(map[string]string),
		SetCalls: make(map[string]int),
	}
}

func (f *FakeStore) Get(key string) (string, bool, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()
	value, ok := f.data[key]
	return value, ok, nil
}

func (f *FakeStore) Set(key, value string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.data[key] = value
	f.SetCalls[key]++
	return nil
}

func (f *FakeStore) Delete(key string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	delete(f.data, key)
	return nil
}

// Snapshot returns a copy of the stored data.
func (f *FakeStore) Snapshot() map[string]string {
	f.lock.RLock()
	defer f.lock.RUnlock()
	out := make(map[string]string, len(f.data))
	for k, v := range f.data {
		out[k] = v
	}
	return out
}
