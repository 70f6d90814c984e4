package builder

// outputs.go implements the Outputs API (§4.9): add_output, add_synthetic,
// and the per-output writer exposing depends_on, serialize, write_sized and
// finish.
//
// © 2025 3l14 engine authors. MIT License.

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cobalthex/3l14/pkg/assets"
	"github.com/cobalthex/3l14/pkg/assetkey"
)

// Outputs is the per-build-invocation context handed to a Builder (§4.9
// step 5): it holds the source id, timestamp, output directory, builder and
// format hashes, and the per-asset-type derived-id counter.
type Outputs struct {
	sourceID     assetkey.SourceID
	sourcePath   string
	timestamp    int64
	assetsRoot   string
	builderHash  uint64
	formatHash   uint64
	derivedIDs   map[assetkey.Type]assetkey.DerivedID
	produced     []assetkey.Key
}

func newOutputs(sourceID assetkey.SourceID, sourcePath string, timestamp int64, assetsRoot string, builderHash, formatHash uint64) *Outputs {
	return &Outputs{
		sourceID:    sourceID,
		sourcePath:  sourcePath,
		timestamp:   timestamp,
		assetsRoot:  assetsRoot,
		builderHash: builderHash,
		formatHash:  formatHash,
		derivedIDs:  make(map[assetkey.Type]assetkey.DerivedID),
	}
}

// ProducedKeys returns every key finished during this build invocation, in
// finish order.
func (o *Outputs) ProducedKeys() []assetkey.Key { return o.produced }

// AddOutput allocates the next derived id for assetType under this source
// and returns a writer for the resulting unique key (§4.9). Determinism
// depends on call order, by design (§4.9, §9).
func (o *Outputs) AddOutput(assetType assetkey.Type) *Output {
	id := o.derivedIDs[assetType]
	o.derivedIDs[assetType] = id + 1
	key := assetkey.Unique(assetType, id, o.sourceID)
	return newOutput(o, key)
}

// AddSynthetic returns a writer for a content-addressed key, or nil if an
// asset already exists at that key and force is false (§4.9's
// add_synthetic dedup-by-existence).
func (o *Outputs) AddSynthetic(assetType assetkey.Type, hash assetkey.ContentHash, force bool) *Output {
	key := assetkey.Synthetic(assetType, hash)
	if !force {
		if _, err := os.Stat(filepath.Join(o.assetsRoot, key.AssetFilename())); err == nil {
			return nil
		}
	}
	return newOutput(o, key)
}

// Output accumulates one asset's payload bytes and dependency list before
// Finish writes both the .ass payload and .mass metadata sidecar.
type Output struct {
	outputs *Outputs
	key     assetkey.Key
	buf     bytes.Buffer
	deps    map[assetkey.Key]struct{}
}

func newOutput(o *Outputs, key assetkey.Key) *Output {
	return &Output{outputs: o, key: key, deps: make(map[assetkey.Key]struct{})}
}

// Key returns the key this output will be written under.
func (out *Output) Key() assetkey.Key { return out.key }

// DependsOn records a single dependency.
func (out *Output) DependsOn(key assetkey.Key) *Output {
	out.deps[key] = struct{}{}
	return out
}

// DependsOnMultiple records several dependencies at once.
func (out *Output) DependsOnMultiple(keys []assetkey.Key) *Output {
	for _, k := range keys {
		out.deps[k] = struct{}{}
	}
	return out
}

// WriteSized appends a size-prefixed raw byte span to the payload.
func (out *Output) WriteSized(data []byte) error {
	return assets.WriteSized(&out.buf, data)
}

// Serialize appends v, size-prefixed and encoded via the stable binary
// codec (§4.7's serialize<T>, mirrored at build time).
func Serialize[T any](out *Output, v T) error {
	return assets.Serialize(&out.buf, v)
}

// Finish flushes the accumulated payload to "<key>.ass", sorts and
// de-duplicates the dependency list, writes "<key>.mass", and returns the
// key (§4.9, §8's dependency-list invariant).
func (out *Output) Finish() (assetkey.Key, error) {
	assPath := filepath.Join(out.outputs.assetsRoot, out.key.AssetFilename())
	if err := os.WriteFile(assPath, out.buf.Bytes(), 0o644); err != nil {
		return 0, fmt.Errorf("builder: write asset %s: %w", assPath, err)
	}

	deps := make([]string, 0, len(out.deps))
	for k := range out.deps {
		deps = append(deps, k.String())
	}
	sort.Strings(deps)

	meta := &assets.Metadata{
		Key:            out.key.String(),
		BuildTimestamp: out.outputs.timestamp,
		SourcePath:     out.outputs.sourcePath,
		BuilderHash:    fmt.Sprintf("%016x", out.outputs.builderHash),
		FormatHash:     fmt.Sprintf("%016x", out.outputs.formatHash),
		Dependencies:   deps,
	}
	metaPath := filepath.Join(out.outputs.assetsRoot, out.key.MetaFilename())
	if err := assets.WriteMetadata(metaPath, meta); err != nil {
		return 0, err
	}

	out.outputs.produced = append(out.outputs.produced, out.key)
	return out.key, nil
}
