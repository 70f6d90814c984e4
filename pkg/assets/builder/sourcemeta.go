package builder

// sourcemeta.go implements the source metadata sidecar (§4.9, §6):
// "<source>.<ext>.sork", a TOML file holding the source's stable id and its
// build configuration. Created with a freshly generated 36-bit random id on
// first build; reused on every subsequent build of the same source.
//
// © 2025 3l14 engine authors. MIT License.

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"github.com/cobalthex/3l14/pkg/assetkey"
)

const sourceMetaExtension = ".sork"

// sourceMeta is the on-disk shape of a .sork sidecar.
type sourceMeta struct {
	SourceID    string      `toml:"source_id"`
	BuildConfig BuildConfig `toml:"build_config"`
}

func sidecarPath(sourcePath string) string {
	return sourcePath + sourceMetaExtension
}

// readOrCreateSourceMeta loads the sidecar for sourcePath, creating one with
// a fresh random source id if none exists yet (§4.9 step 3).
func readOrCreateSourceMeta(sourcePath string, defaultConfig BuildConfig) (assetkey.SourceID, BuildConfig, error) {
	path := sidecarPath(sourcePath)
	data, err := os.ReadFile(path)
	if err == nil {
		var sm sourceMeta
		if err := toml.Unmarshal(data, &sm); err != nil {
			return 0, nil, fmt.Errorf("builder: parse source meta %s: %w", path, err)
		}
		id, err := strconv.ParseUint(sm.SourceID, 16, 64)
		if err != nil {
			return 0, nil, fmt.Errorf("builder: source meta %s has invalid source_id %q: %w", path, sm.SourceID, err)
		}
		return assetkey.SourceID(id), sm.BuildConfig, nil
	}
	if !os.IsNotExist(err) {
		return 0, nil, fmt.Errorf("builder: read source meta %s: %w", path, err)
	}

	id, err := assetkey.GenerateSourceID()
	if err != nil {
		return 0, nil, err
	}
	sm := sourceMeta{SourceID: fmt.Sprintf("%09x", uint64(id)), BuildConfig: defaultConfig}
	out, err := toml.Marshal(&sm)
	if err != nil {
		return 0, nil, fmt.Errorf("builder: marshal source meta: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return 0, nil, fmt.Errorf("builder: write source meta %s: %w", path, err)
	}
	return id, defaultConfig, nil
}
