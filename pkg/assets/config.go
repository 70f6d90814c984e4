package assets

// config.go defines Cache configuration following the teacher's functional
// options pattern: a package-private config struct, a defaultConfig
// constructor, and Option values that mutate it before construction.
//
// © 2025 3l14 engine authors. MIT License.

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures a Cache at construction time.
type Option func(*config)

type config struct {
	assetsRoot        string
	numWorkers        int
	enableFSWatcher   bool
	notificationDepth int
	logger            *zap.Logger
	registry          *prometheus.Registry
}

func defaultConfig(assetsRoot string) *config {
	return &config{
		assetsRoot:        assetsRoot,
		numWorkers:        1,
		enableFSWatcher:   false,
		notificationDepth: 16,
		logger:            zap.NewNop(),
	}
}

// WithWorkerCount sets the number of homogeneous worker goroutines (§4.6,
// §6's num_worker_threads). Must be >= 1.
func WithWorkerCount(n int) Option {
	return func(c *config) { c.numWorkers = n }
}

// WithFSWatcher opts into the debounced hot-reload filesystem watcher
// (§4.8, §6's enable_fs_watcher).
func WithFSWatcher(enabled bool) Option {
	return func(c *config) { c.enableFSWatcher = enabled }
}

// WithNotificationBuffer sets the buffer depth of each reload notification
// subscriber channel (§6's notification channel).
func WithNotificationBuffer(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.notificationDepth = n
		}
	}
}

// WithLogger plugs an external zap.Logger. The cache never logs on handle
// clone/drop/poll hot paths; only fetch/parse failures and filesystem
// watcher errors (Warn) and worker/reload lifecycle events (Debug) are
// emitted (§7).
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics enables Prometheus metrics collection. Passing nil disables
// metrics (default), matching the teacher cache's opt-in posture.
func WithMetrics(reg *prometheus.Registry) Option {
	return func(c *config) { c.registry = reg }
}

func applyOptions(c *config, opts []Option) error {
	for _, opt := range opts {
		opt(c)
	}
	if c.assetsRoot == "" {
		return errEmptyAssetsRoot
	}
	if c.numWorkers < 1 {
		return errInvalidWorkerCount
	}
	return nil
}

var (
	errEmptyAssetsRoot    = errors.New("assets: assetsRoot must not be empty")
	errInvalidWorkerCount = errors.New("assets: numWorkers must be >= 1")
)
