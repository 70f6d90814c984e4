// Package bench provides reproducible micro-benchmarks for the asset cache.
// Run via:  go test ./bench -bench=. -benchmem -cpu 1,4,16
//
// The benchmarks intentionally use a single asset shape so results are
// comparable across versions:
//   - Key   - a packed Unique assetkey.Key (cheap hashing, fits a register)
//   - Value - a 64-byte struct (large enough to matter, small enough for cache)
//
// We measure:
//  1. LoadDirectFromCold      - synchronous load, no worker pool involved
//  2. HandleCloneDrop         - refcount churn on an already-published cell
//  3. PollReady               - read-side cost of an Available payload
//  4. LoadThroughWorkerPool   - single-goroutine enqueue/Wait round trip
//  5. LoadParallel            - highly concurrent re-acquire of hot keys
//
// Results are printed in ns/op + alloc/op so CI can diff via benchstat.
//
// NOTE: Unit tests live elsewhere; this file is only for performance.
//
// © 2025 3l14 engine authors. MIT License.

package bench

import (
	"bytes"
	"context"
	"math/rand"
	"testing"

	"github.com/cobalthex/3l14/pkg/assetkey"
	"github.com/cobalthex/3l14/pkg/assets"
)

/* -------------------------------------------------------------------------
   Test harness helpers
   ------------------------------------------------------------------------- */

type value64 struct {
	_ [64]byte
}

type value64Lifecycler struct{}

func (value64Lifecycler) Load(req *assets.LoadRequest[value64]) (value64, error) {
	return value64{}, nil
}

const numKeys = 1 << 14 // 16384 keys for the dataset

// global dataset reused across benches to avoid reallocating large slices.
var ds = func() []assetkey.Key {
	rnd := rand.New(rand.NewSource(42))
	arr := make([]assetkey.Key, numKeys)
	for i := range arr {
		arr[i] = assetkey.Unique(assetkey.TypeTest1, assetkey.DerivedID(i&((1<<15)-1)), assetkey.SourceID(rnd.Uint64()&((1<<36)-1)))
	}
	return arr
}()

func newBenchCache(b *testing.B) *assets.Cache {
	b.Helper()
	reg := assets.NewRegistry()
	assets.Register[value64](reg, assetkey.TypeTest1, "Value64", value64Lifecycler{})
	c, err := assets.New(b.TempDir(), reg, assets.WithWorkerCount(4))
	if err != nil {
		b.Fatalf("assets.New: %v", err)
	}
	b.Cleanup(func() { c.Close() })
	return c
}

/* -------------------------------------------------------------------------
   Benchmarks
   ------------------------------------------------------------------------- */

func BenchmarkLoadDirectFromCold(b *testing.B) {
	c := newBenchCache(b)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := ds[i&(numKeys-1)]
		h := assets.LoadDirectFrom[value64](c, key, bytes.NewReader(nil))
		h.Drop()
	}
}

func BenchmarkHandleCloneDrop(b *testing.B) {
	c := newBenchCache(b)
	key := ds[0]
	h := assets.LoadDirectFrom[value64](c, key, bytes.NewReader(nil))
	defer h.Drop()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		clone := h.Clone()
		clone.Drop()
	}
}

func BenchmarkPollReady(b *testing.B) {
	c := newBenchCache(b)
	key := ds[0]
	h := assets.LoadDirectFrom[value64](c, key, bytes.NewReader(nil))
	defer h.Drop()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p, ready := h.Poll()
		if ready && p.State == assets.Available {
			p.Release()
		}
	}
}

func BenchmarkLoadThroughWorkerPool(b *testing.B) {
	c := newBenchCache(b)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := ds[i&(numKeys-1)]
		h := assets.LoadFrom[value64](c, key, bytes.NewReader(nil))
		p, err := h.Wait(ctx)
		if err == nil && p.State == assets.Available {
			p.Release()
		}
		h.Drop()
	}
}

func BenchmarkLoadParallel(b *testing.B) {
	c := newBenchCache(b)
	ctx := context.Background()
	// Pre-populate so the parallel loop mostly re-acquires live cells
	// instead of racing the worker pool on first load.
	held := make([]assets.Handle[value64], 0, len(ds))
	for _, k := range ds {
		h := assets.LoadFrom[value64](c, k, bytes.NewReader(nil))
		h.Wait(ctx)
		held = append(held, h)
	}
	defer func() {
		for _, h := range held {
			h.Drop()
		}
	}()

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		idx := rand.Intn(numKeys)
		for pb.Next() {
			idx = (idx + 1) & (numKeys - 1)
			h := assets.Load[value64](c, ds[idx])
			if p, ready := h.Poll(); ready && p.State == assets.Available {
				p.Release()
			}
			h.Drop()
		}
	})
}
