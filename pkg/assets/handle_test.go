package assets

import (
	"context"
	"testing"
	"time"

	"github.com/cobalthex/3l14/pkg/assetkey"
)

func newStandaloneHandle[T any](key assetkey.Key) (Handle[T], *cell[T], *int) {
	c := &cell[T]{}
	dropCount := 0
	inner := &HandleInner{key: key, erased: c, dropper: func(*HandleInner) { dropCount++ }}
	inner.refCount.Store(1)
	return newHandle[T](inner, c), c, &dropCount
}

func TestHandlePollPendingThenAvailable(t *testing.T) {
	h, c, _ := newStandaloneHandle[testAsset](assetkey.Unique(assetkey.TypeTest1, 0, 1))

	if _, ready := h.Poll(); ready {
		t.Fatalf("Poll() on a fresh cell should not be ready")
	}

	c.publishAvailableAny(h.inner, testAsset{Payload: "ok"})

	p, ready := h.Poll()
	if !ready {
		t.Fatalf("Poll() should be ready after publish")
	}
	if p.State != Available || p.Value().Payload != "ok" {
		t.Fatalf("got state=%v value=%+v", p.State, p)
	}
	p.Release()
}

func TestHandleWaitUnblocksOnPublish(t *testing.T) {
	h, c, _ := newStandaloneHandle[testAsset](assetkey.Unique(assetkey.TypeTest1, 0, 2))

	resultCh := make(chan Payload[testAsset], 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		p, err := h.Wait(ctx)
		if err != nil {
			t.Errorf("Wait() error: %v", err)
			return
		}
		resultCh <- p
	}()

	time.Sleep(10 * time.Millisecond)
	c.publishAvailableAny(h.inner, testAsset{Payload: "done"})

	select {
	case p := <-resultCh:
		if p.Value().Payload != "done" {
			t.Fatalf("Wait() = %+v, want Payload{done}", p)
		}
		p.Release()
	case <-time.After(2 * time.Second):
		t.Fatalf("Wait() did not unblock after publish")
	}
}

func TestHandleWaitRespectsContextCancellation(t *testing.T) {
	h, _, _ := newStandaloneHandle[testAsset](assetkey.Unique(assetkey.TypeTest1, 0, 3))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := h.Wait(ctx); err == nil {
		t.Fatalf("Wait() should return an error once ctx is cancelled with no publish")
	}
}

func TestHandleCloneAndDropRefcounting(t *testing.T) {
	h, _, dropCount := newStandaloneHandle[testAsset](assetkey.Unique(assetkey.TypeTest1, 0, 4))
	h2 := h.Clone()
	if h.RefCount() != 2 {
		t.Fatalf("RefCount() after Clone = %d, want 2", h.RefCount())
	}

	h.Drop()
	if *dropCount != 0 {
		t.Fatalf("dropper invoked after only one of two references dropped")
	}
	h2.Drop()
	if *dropCount != 1 {
		t.Fatalf("dropper should run exactly once on the final Drop")
	}
}

// recursiveAsset implements RecursiveLoadChecker to exercise
// Handle.IsLoadedRecursive.
type recursiveAsset struct {
	loaded bool
}

func (r recursiveAsset) IsLoadedRecursive() bool { return r.loaded }

func TestIsLoadedRecursiveDelegatesToValue(t *testing.T) {
	h, c, _ := newStandaloneHandle[recursiveAsset](assetkey.Unique(assetkey.TypeTest2, 0, 5))
	c.publishAvailableAny(h.inner, recursiveAsset{loaded: false})
	if h.IsLoadedRecursive() {
		t.Fatalf("IsLoadedRecursive() should reflect the value's own false result")
	}

	c.publishAvailableAny(h.inner, recursiveAsset{loaded: true})
	if !h.IsLoadedRecursive() {
		t.Fatalf("IsLoadedRecursive() should reflect the value's own true result")
	}
}

func TestGenerationAdvancesOnEveryPublish(t *testing.T) {
	h, c, _ := newStandaloneHandle[testAsset](assetkey.Unique(assetkey.TypeTest1, 0, 6))
	g0 := h.Generation()
	c.publishAvailableAny(h.inner, testAsset{Payload: "a"})
	g1 := h.Generation()
	c.publishUnavailableAny(h.inner, ErrParse)
	g2 := h.Generation()

	if g1 <= g0 || g2 <= g1 {
		t.Fatalf("generation did not strictly advance: %d -> %d -> %d", g0, g1, g2)
	}
}
