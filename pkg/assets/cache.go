package assets

// cache.go implements the top-level Cache entry points (§4.4): the
// orchestration point gluing the Handle Bank, Lifecycler Registry, and
// Work Queue + Workers into the public load/shutdown surface.
//
// Load/LoadFrom are free functions rather than Cache methods because Go
// methods cannot introduce their own type parameters beyond the receiver's;
// a single Cache value serves arbitrarily many asset types T, so the type
// parameter has to live on the function, mirroring how a generic
// `Get[T](ctx, key)` free function is the idiomatic shape for a
// heterogeneously-typed registry in Go.
//
// © 2025 3l14 engine authors. MIT License.

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/cobalthex/3l14/pkg/assetkey"
)

// Cache is the asynchronous, typed, reference-counted, content-addressed
// asset cache (§2 C1-C8 assembled).
type Cache struct {
	cfg      *config
	bank     *bank
	registry *Registry
	workers  *workerPool
	notify   *notifier
	watcher  *reloadWatcher // nil unless WithFSWatcher(true)
	closed   bool
}

// New constructs a Cache rooted at assetsRoot, using reg for lifecycler
// dispatch. reg must not be mutated concurrently with cache use (register
// every lifecycler before calling New, as the teacher cache expects
// configuration to settle before construction).
func New(assetsRoot string, reg *Registry, opts ...Option) (*Cache, error) {
	cfg := defaultConfig(assetsRoot)
	if err := applyOptions(cfg, opts); err != nil {
		return nil, err
	}

	c := &Cache{
		cfg:      cfg,
		bank:     newBank(),
		registry: reg,
		notify:   newNotifier(cfg.notificationDepth),
	}
	metrics := newMetricsSink(cfg.registry)
	c.workers = newWorkerPool(cfg.numWorkers, reg, c.bank, assetsRoot, c, cfg.logger, metrics)

	if cfg.enableFSWatcher {
		w, err := newReloadWatcher(c, assetsRoot, cfg.logger)
		if err != nil {
			c.workers.shutdown()
			return nil, fmt.Errorf("assets: starting fs watcher: %w", err)
		}
		c.watcher = w
	}
	return c, nil
}

// NumActiveAssets returns the number of live cells in the handle bank.
func (c *Cache) NumActiveAssets() int { return c.bank.len() }

// Subscribe registers a listener for Reload notifications (§6). The
// returned function unsubscribes and closes the channel.
func (c *Cache) Subscribe() (<-chan Notification, func()) { return c.notify.subscribe() }

// Snapshot returns a debug view of every live cell: key, refcount and
// generation, for external tooling (cmd/asset-inspect), adapted from the
// original engine's DebugGui listing.
type Snapshot struct {
	Key        string `json:"key"`
	AssetType  uint16 `json:"asset_type"`
	RefCount   int64  `json:"ref_count"`
	Generation uint64 `json:"generation"`
}

func (c *Cache) Snapshot() []Snapshot {
	keys := c.bank.snapshotKeys()
	out := make([]Snapshot, 0, len(keys))
	for _, k := range keys {
		inner, ok := c.bank.lookup(k)
		if !ok {
			continue
		}
		out = append(out, Snapshot{
			Key:        k.String(),
			AssetType:  uint16(k.AssetType()),
			RefCount:   inner.RefCount(),
			Generation: inner.Generation(),
		})
	}
	return out
}

// Close implements §9's leak-detection-on-shutdown: it shuts the worker
// pool down (draining as in §4.6's StopWorkers), then returns an error
// naming any keys still live in the bank rather than panicking, since this
// is a library boundary and the caller may want to log and continue rather
// than crash.
func (c *Cache) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.watcher != nil {
		c.watcher.stop()
	}
	c.workers.shutdown()
	if n := c.bank.len(); n > 0 {
		return fmt.Errorf("assets: %d handle inner(s) leaked past shutdown: %v", n, c.bank.snapshotKeys())
	}
	return nil
}

// loadDependency implements dependencyLoader, the type-erased hook used by
// LoadRequest.LoadDependency / registry.go's LoadDependency free function.
func (c *Cache) loadDependency(assetType assetkey.Type, key assetkey.Key) any {
	ent := c.registry.lookup(assetType)
	if ent == nil {
		return nil
	}
	return ent.loadHandleAny(c, key)
}

// Load resolves key against T's registered lifecycler (§4.4's load<T>(key)),
// returning the live handle for key or allocating one. A fresh cell gets a
// file-backed load enqueued; a live cell that is still Pending joins the
// load already queued for it; a live cell whose payload has been published
// is re-armed and reloaded, emitting a Reload notification.
func Load[T any](c *Cache, key assetkey.Key) Handle[T] {
	return loadInto[T](c, key, nil)
}

// LoadFrom loads key's payload from an explicit in-memory reader instead of
// the assets root (§4.4's load_from<T>(key, reader)).
func LoadFrom[T any](c *Cache, key assetkey.Key, r io.ReadSeeker) Handle[T] {
	return loadInto[T](c, key, r)
}

// LoadDirectFrom is a synchronous test hook, adapted from the original
// engine's #[cfg(test)] load_direct_from: it runs the lifecycler inline on
// the calling goroutine instead of going through the worker pool, so tests
// can exercise a lifecycler deterministically without scheduling
// nondeterminism. Not for production use.
func LoadDirectFrom[T any](c *Cache, key assetkey.Key, r io.ReadSeeker) Handle[T] {
	h, preExisting, mismatched := acquireHandle[T](c, key)
	if mismatched {
		return h
	}
	if !preExisting {
		ent := c.registry.lookup(key.AssetType())
		if ent == nil {
			h.cell.publishUnavailableAny(h.inner, ErrLifecyclerNotRegistered)
			return h
		}
		ent.loadUntyped(context.Background(), h.inner, h.inner.erased, newBufferedReadSeeker(r), c, c.cfg.logger)
	}
	return h
}

func loadInto[T any](c *Cache, key assetkey.Key, r io.ReadSeeker) Handle[T] {
	h, preExisting, mismatched := acquireHandle[T](c, key)
	if mismatched {
		return h
	}

	ent := c.registry.lookup(key.AssetType())
	if ent == nil {
		h.cell.publishUnavailableAny(h.inner, ErrLifecyclerNotRegistered)
		return h
	}

	// A file-backed Load of a live cell that is still Pending joins the load
	// already queued for it instead of enqueuing a second one.
	if preExisting && r == nil && h.cell.word.Load() == nil {
		return h
	}

	// Re-arm for (re)load: publish Pending, notify subscribers if this was
	// an existing cell (§4.4).
	if preExisting {
		h.inner.isReloading.Store(true)
		h.cell.publishPendingAny(h.inner)
		c.notify.publish(Notification{Key: key})
	}

	if c.closed {
		h.cell.publishUnavailableAny(h.inner, ErrShutdown)
		return h
	}

	if r != nil {
		c.workers.enqueueLoadMemory(h.inner, r)
	} else {
		c.workers.enqueueLoadFile(h.inner)
	}
	return h
}

// acquireHandle wraps bank.createOrUpdate with the type-identity check from
// §4.4 ("Requires T::asset_type() == key.asset_type()"); a mismatch
// publishes Unavailable(MismatchedAssetType) into a standalone cell (never
// inserted into the bank, since it does not belong to the type actually
// registered for this key) and reports mismatched=true so callers skip
// dispatch entirely.
func acquireHandle[T any](c *Cache, key assetkey.Key) (h Handle[T], preExisting bool, mismatched bool) {
	ent := c.registry.lookup(key.AssetType())
	if ent != nil && !typeMatches[T](ent) {
		bad := &cell[T]{}
		badInner := &HandleInner{key: key, erased: bad, dropper: func(*HandleInner) {}}
		badInner.refCount.Store(1)
		bad.publishUnavailableAny(badInner, ErrMismatchedAssetType)
		return newHandle[T](badInner, bad), false, true
	}

	inner, c2, preExisting := createOrUpdate[T](c.bank, key, c.workers.enqueueDrop)
	return newHandle[T](inner, c2), preExisting, false
}

// bytesReadSeeker adapts a byte slice to io.ReadSeeker for callers that
// already have the payload bytes in memory (e.g. builder round-trip tests).
func bytesReadSeeker(b []byte) io.ReadSeeker { return bytes.NewReader(b) }
