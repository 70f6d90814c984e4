package assets

// bank.go implements the Handle Bank (§3, §4.4): a mutex-guarded map from
// Asset Key to Handle Inner that serializes create/lookup/destroy so that a
// concurrent lookup returning an existing handle can never race with the
// destruction of that handle's storage (§9).
//
// © 2025 3l14 engine authors. MIT License.

import (
	"sync"

	"github.com/cobalthex/3l14/pkg/assetkey"
)

type bank struct {
	mu      sync.Mutex
	entries map[assetkey.Key]*HandleInner
}

func newBank() *bank {
	return &bank{entries: make(map[assetkey.Key]*HandleInner)}
}

// createOrUpdate implements §4.4's create_or_update_handle<T>: if key is
// present, returns the existing inner and its typed cell (preExisting=true);
// otherwise allocates a fresh HandleInner with refcount=1, stores it, and
// returns preExisting=false.
//
// Allocation happens inside the mutex precisely so that a handle returned to
// one caller cannot have its storage freed by another caller's concurrent
// drop -- the drop worker must acquire this same mutex before it may free
// anything (§4.4 rationale, §9).
func createOrUpdate[T any](b *bank, key assetkey.Key, dropper func(*HandleInner)) (inner *HandleInner, c *cell[T], preExisting bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := b.entries[key]; ok {
		existing.refCount.Add(1)
		return existing, existing.erased.(*cell[T]), true
	}

	newCell := &cell[T]{}
	newInner := &HandleInner{key: key, erased: newCell, dropper: dropper}
	newInner.refCount.Store(1)
	b.entries[key] = newInner
	return newInner, newCell, false
}

// lookup returns the live inner for key without creating one.
func (b *bank) lookup(key assetkey.Key) (*HandleInner, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	inner, ok := b.entries[key]
	return inner, ok
}

// tryRemove implements the Drop dispatch's bank-side half (§4.6): re-reads
// refcount under the bank mutex, and if it is still zero, removes the entry
// and returns true so the caller may proceed to deallocate. If a racing
// clone resurrected the handle (refcount now non-zero), the entry is left in
// place and false is returned.
func (b *bank) tryRemove(inner *HandleInner) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if inner.RefCount() != 0 {
		return false
	}
	stored, ok := b.entries[inner.Key()]
	if !ok {
		// A drop for a key not present in the bank indicates a use-after-free
		// bug in the cache itself (§7): this is not a caller-recoverable error.
		panic("assets: drop of a key not present in the handle bank")
	}
	if stored != inner {
		// The bank holds a different inner for this key than the one this
		// Drop request names; also a use-after-free-class bug.
		panic("assets: handle bank entry does not match dropped inner")
	}
	delete(b.entries, inner.Key())
	return true
}

// len reports the number of live cells, used by Cache.NumActiveAssets and
// leak detection on Close.
func (b *bank) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// snapshotKeys returns every live key, used for debug snapshots and for the
// leak-detection error message on Close.
func (b *bank) snapshotKeys() []assetkey.Key {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := make([]assetkey.Key, 0, len(b.entries))
	for k := range b.entries {
		keys = append(keys, k)
	}
	return keys
}
