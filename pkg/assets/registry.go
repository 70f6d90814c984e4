package assets

// registry.go implements the Lifecycler Registry (§4.5): a map from asset
// type to an erased lifecycler, a type-identity tag checked whenever a
// handle is acquired,
// a display name, and a per-type deallocator invoked by the Drop worker.
//
// © 2025 3l14 engine authors. MIT License.

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/cobalthex/3l14/pkg/assetkey"
)

// LoadRequest is the per-load scratch surface handed to a lifecycler (§4.7).
type LoadRequest[T any] struct {
	// AssetKey is the key being built.
	AssetKey assetkey.Key
	// Input is a seekable reader over the asset's bytes.
	Input io.ReadSeeker

	ctx     context.Context
	storage dependencyLoader
}

// Context returns the context the enclosing load was issued under.
func (r *LoadRequest[T]) Context() context.Context { return r.ctx }

// LoadDependency requests a child asset and returns its handle without
// awaiting it; dependencies are stored inside the parent value and
// Handle.IsLoadedRecursive walks them (§4.7, §9). U is the dependency's
// asset type, independent of the enclosing request's T.
func LoadDependency[T, U any](r *LoadRequest[T], key assetkey.Key) Handle[U] {
	return loadDependencyFrom[U](r.storage, key)
}

// dependencyLoader is the type-erased hook back into the cache used to
// satisfy LoadDependency without making LoadRequest itself generic over the
// cache's own type parameters.
type dependencyLoader interface {
	loadDependency(assetType assetkey.Type, key assetkey.Key) any
}

func loadDependencyFrom[U any](dl dependencyLoader, key assetkey.Key) Handle[U] {
	h := dl.loadDependency(key.AssetType(), key)
	if h == nil {
		return Handle[U]{}
	}
	return h.(Handle[U])
}

// Lifecycler parses bytes into a value of type T, optionally requesting
// dependency handles through the LoadRequest (§4.5).
type Lifecycler[T any] interface {
	Load(req *LoadRequest[T]) (T, error)
}

// registryEntry is the type-erased record stored per asset type.
type registryEntry struct {
	typeTag reflect.Type
	name    string

	loadUntyped  func(ctx context.Context, inner *HandleInner, c erasedCell, input io.ReadSeeker, dl dependencyLoader, logger *zap.Logger)
	dealloc      func(inner *HandleInner, c erasedCell)
	loadHandleAny func(c *Cache, key assetkey.Key) any
}

// Registry is the type-erased map from asset type to lifecycler. Safe for
// concurrent use; registration is expected at startup but reads happen on
// every load dispatch so the registry uses an RWMutex.
type Registry struct {
	mu      sync.RWMutex
	entries map[assetkey.Type]*registryEntry
}

// NewRegistry constructs an empty lifecycler registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[assetkey.Type]*registryEntry)}
}

// Register associates lc with assetType, under the display name. Panics if
// assetType is already registered -- this is a startup-time programming
// error, mirroring the original's debug assertion on duplicate registration.
func Register[T any](r *Registry, assetType assetkey.Type, name string, lc Lifecycler[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[assetType]; exists {
		panic(fmt.Sprintf("assets: lifecycler already registered for asset type %v", assetType))
	}
	r.entries[assetType] = &registryEntry{
		typeTag: reflect.TypeFor[T](),
		name:    name,
		loadUntyped: func(ctx context.Context, inner *HandleInner, c erasedCell, input io.ReadSeeker, dl dependencyLoader, logger *zap.Logger) {
			req := &LoadRequest[T]{AssetKey: inner.Key(), Input: input, ctx: ctx, storage: dl}
			v, err := lc.Load(req)
			if err != nil {
				if logger != nil {
					logger.Warn("asset parse failed", zap.String("key", inner.Key().String()), zap.Error(err))
				}
				c.publishUnavailableAny(inner, ErrParse)
				return
			}
			c.publishAvailableAny(inner, v)
		},
		dealloc: func(inner *HandleInner, c erasedCell) {
			c.publishPendingAny(inner)
		},
		loadHandleAny: func(c *Cache, key assetkey.Key) any {
			return Load[T](c, key)
		},
	}
}

// lookup returns the entry for assetType, or nil if none is registered.
func (r *Registry) lookup(assetType assetkey.Type) *registryEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[assetType]
}

// typeMatches reports whether the entry registered for assetType was
// registered for exactly T (§4.4's "T::asset_type() == key.asset_type()").
func typeMatches[T any](ent *registryEntry) bool {
	return ent.typeTag == reflect.TypeFor[T]()
}

// Name returns the display name registered for an asset type, or "" if
// none is registered. Used by debug tooling.
func (r *Registry) Name(assetType assetkey.Type) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ent, ok := r.entries[assetType]; ok {
		return ent.name
	}
	return ""
}
