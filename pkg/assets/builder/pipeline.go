package builder

// pipeline.go implements build_source (§4.9): canonicalize, look up the
// builder, read-or-create the source sidecar, hash the source for
// provenance/incremental-skip, then invoke the builder.
//
// © 2025 3l14 engine authors. MIT License.

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/cobalthex/3l14/pkg/assetkey"
)

func buildTimestampMillis() int64 { return time.Now().UnixMilli() }

// Pipeline drives build_source invocations against a Config, de-duplicating
// concurrent builds of the same source (singleflight, same pattern as the
// teacher cache's loader group) and optionally skipping unchanged sources
// via a BuildCache.
type Pipeline struct {
	cfg    *Config
	cache  *BuildCache // nil disables incremental skipping
	logger *zap.Logger

	group singleflight.Group
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithBuildCache enables incremental builds: a source whose file hash,
// builder hash, and format hash all match the last recorded build is
// skipped (SPEC_FULL.md's supplemented incremental-build feature).
func WithBuildCache(c *BuildCache) PipelineOption {
	return func(p *Pipeline) { p.cache = c }
}

// WithPipelineLogger plugs an external zap.Logger.
func WithPipelineLogger(l *zap.Logger) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPipeline constructs a Pipeline over cfg.
func NewPipeline(cfg *Config, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BuildSource canonicalizes path, locates its builder, and runs the build,
// returning every key produced (§4.9).
func (p *Pipeline) BuildSource(path string) ([]assetkey.Key, error) {
	v, err, _ := p.group.Do(path, func() (any, error) {
		return p.buildSourceOnce(path)
	})
	if err != nil {
		return nil, err
	}
	return v.([]assetkey.Key), nil
}

func (p *Pipeline) buildSourceOnce(path string) ([]assetkey.Key, error) {
	root, err := filepath.Abs(p.cfg.SourcesRoot)
	if err != nil {
		return nil, fmt.Errorf("builder: resolve sources root: %w", err)
	}
	abs, err := canonicalize(root, path)
	if err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return nil, fmt.Errorf("builder: relativize %s: %w", abs, err)
	}

	ext := filepath.Ext(abs)
	b, ok := p.cfg.lookup(ext)
	if !ok {
		return nil, fmt.Errorf("%w: extension %q", ErrNoBuilder, ext)
	}

	sourceID, buildCfg, err := readOrCreateSourceMeta(abs, nil)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("builder: open source %s: %w", abs, err)
	}
	defer f.Close()

	builderHash := hashVersionStrings(b.BuilderVersion())
	formatHash := hashVersionStrings(b.FormatVersion())

	var fileHash uint64
	if p.cache != nil {
		fileHash, err = hashReader(f)
		if err != nil {
			return nil, fmt.Errorf("builder: hash source %s: %w", abs, err)
		}
		if keys, skip := p.cache.shouldSkip(rel, fileHash, builderHash, formatHash); skip {
			p.logger.Debug("skipping unchanged source", zap.String("source", rel))
			return keys, nil
		}
		if _, err := f.Seek(0, 0); err != nil {
			return nil, fmt.Errorf("builder: rewind source %s: %w", abs, err)
		}
	}

	outputs := newOutputs(sourceID, rel, buildTimestampMillis(), p.cfg.AssetsRoot, builderHash, formatHash)
	input := SourceInput{Reader: f, Path: abs}
	if err := b.Build(buildCfg, input, outputs); err != nil {
		return nil, fmt.Errorf("builder: build %s: %w", rel, err)
	}

	if p.cache != nil {
		if err := p.cache.record(rel, fileHash, builderHash, formatHash, outputs.ProducedKeys()); err != nil {
			p.logger.Warn("failed to record build cache entry", zap.String("source", rel), zap.Error(err))
		}
	}

	return outputs.ProducedKeys(), nil
}

// canonicalize resolves path to an absolute path and rejects it if it
// escapes sourcesRoot (§4.9 step 1).
func canonicalize(sourcesRoot, path string) (string, error) {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(sourcesRoot, path)
	}
	abs = filepath.Clean(abs)
	rootAbs, err := filepath.Abs(sourcesRoot)
	if err != nil {
		return "", fmt.Errorf("builder: resolve sources root: %w", err)
	}
	if abs != rootAbs && !strings.HasPrefix(abs, rootAbs+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapesRoot, path)
	}
	return abs, nil
}
