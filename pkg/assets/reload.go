package assets

// reload.go implements the optional hot-reload hook (§4.8): a debounced
// filesystem watcher on assetsRoot that, for each modified asset file,
// resolves the file back to an existing key and re-issues a file-backed
// load for it.
//
// © 2025 3l14 engine authors. MIT License.

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/cobalthex/3l14/internal/debounce"
	"github.com/cobalthex/3l14/pkg/assetkey"
)

const reloadDebounceWindow = 150 * time.Millisecond

type reloadWatcher struct {
	fsw     *fsnotify.Watcher
	batcher *debounce.Batcher[assetkey.Key]
	logger  *zap.Logger
	done    chan struct{}
}

func newReloadWatcher(c *Cache, assetsRoot string, logger *zap.Logger) (*reloadWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(assetsRoot); err != nil {
		fsw.Close()
		return nil, err
	}

	rw := &reloadWatcher{fsw: fsw, logger: logger, done: make(chan struct{})}
	rw.batcher = debounce.New(reloadDebounceWindow, func(keys []assetkey.Key) {
		for _, k := range keys {
			rw.logger.Debug("asset reload triggered", zap.String("key", k.String()))
			reloadKey(c, k)
		}
	})

	go rw.run()
	return rw, nil
}

func (rw *reloadWatcher) run() {
	for {
		select {
		case ev, ok := <-rw.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Ext(ev.Name) != ".ass" {
				continue // not an asset payload file; ignore (e.g. .mass, .sork)
			}
			key, err := assetkey.ParseFilename(filepath.Base(ev.Name))
			if err != nil {
				continue
			}
			rw.batcher.Add(key)
		case err, ok := <-rw.fsw.Errors:
			if !ok {
				return
			}
			rw.logger.Warn("asset watcher error", zap.Error(err))
		case <-rw.done:
			return
		}
	}
}

func (rw *reloadWatcher) stop() {
	close(rw.done)
	rw.batcher.Stop()
	rw.fsw.Close()
}

// reloadKey re-issues a file-backed load for an already-known key, using the
// registry to recover its asset type and thus which T to instantiate Load
// with -- dispatched through the same loadHandleAny thunk dependency
// resolution uses, since both need to call the generic Load[T] without
// knowing T at this call site.
func reloadKey(c *Cache, key assetkey.Key) {
	if _, ok := c.bank.lookup(key); !ok {
		return // not a key we have ever loaded; nothing to reload
	}
	ent := c.registry.lookup(key.AssetType())
	if ent == nil {
		return
	}
	// Load hands back a counted reference; release it so the reload does not
	// keep the cell alive on its own.
	if h, ok := ent.loadHandleAny(c, key).(interface{ Drop() }); ok {
		h.Drop()
	}
}
