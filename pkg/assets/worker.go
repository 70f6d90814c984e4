package assets

// worker.go implements the Work Queue + Workers component (§4.6): N
// homogeneous worker goroutines draining the unbounded queue, dispatching
// each request per the policy table in §4.6, and draining outstanding work
// on StopWorkers before exiting.
//
// Worker goroutines are managed with golang.org/x/sync/errgroup, the same
// dependency the teacher cache reaches for to coordinate goroutine
// lifetimes.
//
// © 2025 3l14 engine authors. MIT License.

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type workerPool struct {
	queue      *workQueue
	registry   *Registry
	bank       *bank
	assetsRoot string
	depLoader  dependencyLoader
	logger     *zap.Logger
	metrics    metricsSink

	eg     *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
}

func newWorkerPool(numWorkers int, registry *Registry, b *bank, assetsRoot string, dl dependencyLoader, logger *zap.Logger, m metricsSink) *workerPool {
	ctx, cancel := context.WithCancel(context.Background())
	eg, egCtx := errgroup.WithContext(ctx)
	wp := &workerPool{
		queue:      newWorkQueue(),
		registry:   registry,
		bank:       b,
		assetsRoot: assetsRoot,
		depLoader:  dl,
		logger:     logger,
		metrics:    m,
		eg:         eg,
		ctx:        egCtx,
		cancel:     cancel,
	}
	for i := 0; i < numWorkers; i++ {
		id := i
		eg.Go(func() error {
			wp.run(id)
			return nil
		})
	}
	return wp
}

func (wp *workerPool) run(id int) {
	wp.logger.Debug("asset worker started", zap.Int("worker", id))
	defer wp.logger.Debug("asset worker stopped", zap.Int("worker", id))
	for {
		req, ok := wp.queue.pop()
		if !ok {
			return
		}
		if req.kind == reqStopWorkers {
			wp.drain()
			return
		}
		wp.dispatch(req)
	}
}

// drain implements StopWorkers (§4.6): publish Unavailable(Shutdown) for
// every outstanding load, process any trailing Drop requests, then return so
// the worker's run loop exits.
func (wp *workerPool) drain() {
	wp.queue.close()
	for {
		req, ok := wp.queue.pop()
		if !ok {
			return
		}
		switch req.kind {
		case reqLoadFile, reqLoadMemory:
			req.inner.erased.publishUnavailableAny(req.inner, ErrShutdown)
		case reqDrop:
			wp.dispatchDrop(req)
		case reqStopWorkers:
			// another stop signal queued behind this one; ignore.
		}
	}
}

func (wp *workerPool) dispatch(req workRequest) {
	switch req.kind {
	case reqLoadFile:
		wp.dispatchLoadFile(req)
	case reqLoadMemory:
		wp.dispatchLoadMemory(req)
	case reqDrop:
		wp.dispatchDrop(req)
	}
}

func (wp *workerPool) dispatchLoadFile(req workRequest) {
	key := req.inner.Key()
	path := filepath.Join(wp.assetsRoot, key.AssetFilename())
	f, err := os.Open(path)
	if err != nil {
		wp.logger.Warn("asset fetch failed", zap.String("key", key.String()), zap.Error(err))
		req.inner.erased.publishUnavailableAny(req.inner, ErrFetch)
		wp.metrics.incFetchFailure()
		return
	}
	defer f.Close()
	wp.invokeLifecycler(req.inner, f)
}

func (wp *workerPool) dispatchLoadMemory(req workRequest) {
	wp.invokeLifecycler(req.inner, req.reader)
}

func (wp *workerPool) invokeLifecycler(inner *HandleInner, input io.ReadSeeker) {
	key := inner.Key()
	ent := wp.registry.lookup(key.AssetType())
	if ent == nil {
		inner.erased.publishUnavailableAny(inner, ErrLifecyclerNotRegistered)
		return
	}
	// Buffered once here so a lifecycler reading multiple ReadSized records
	// off the same source shares one bufio.Reader instead of each ReadSized
	// call wrapping (and discarding) its own (codec.go's bufferedReadSeeker).
	ent.loadUntyped(wp.ctx, inner, inner.erased, newBufferedReadSeeker(input), wp.depLoader, wp.logger)
}

func (wp *workerPool) dispatchDrop(req workRequest) {
	inner := req.inner
	if !wp.bank.tryRemove(inner) {
		return // refcount was resurrected by a racing clone
	}
	ent := wp.registry.lookup(inner.Key().AssetType())
	if ent != nil {
		ent.dealloc(inner, inner.erased)
	} else {
		inner.erased.publishPendingAny(inner)
	}
}

// enqueueLoadFile, enqueueLoadMemory, enqueueDrop are the cache's only
// producer-side entry points into the queue.
func (wp *workerPool) enqueueLoadFile(inner *HandleInner) {
	wp.queue.push(workRequest{kind: reqLoadFile, inner: inner})
}

func (wp *workerPool) enqueueLoadMemory(inner *HandleInner, r io.ReadSeeker) {
	wp.queue.push(workRequest{kind: reqLoadMemory, inner: inner, reader: r})
}

func (wp *workerPool) enqueueDrop(inner *HandleInner) {
	wp.queue.push(workRequest{kind: reqDrop, inner: inner})
}

// shutdown enqueues StopWorkers and waits for every worker to exit.
func (wp *workerPool) shutdown() {
	wp.queue.push(workRequest{kind: reqStopWorkers})
	_ = wp.eg.Wait()
	wp.cancel()
}

