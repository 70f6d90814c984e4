package assets

// metadata.go implements the Asset Metadata sidecar (§3, §6): persisted next
// to every asset payload as a ".mass" TOML file.
//
// © 2025 3l14 engine authors. MIT License.

import (
	"fmt"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/cobalthex/3l14/pkg/assetkey"
)

// Metadata is the sidecar record written alongside every built asset.
type Metadata struct {
	Key             string   `toml:"key"`
	BuildTimestamp  int64    `toml:"build_timestamp"`
	SourcePath      string   `toml:"source_path"`
	BuilderHash     string   `toml:"builder_hash"`
	FormatHash      string   `toml:"format_hash"`
	Dependencies    []string `toml:"dependencies"`
}

// NormalizeDependencies sorts and de-duplicates the dependency list in
// place, enforcing the §8 invariant that `dependencies` is sorted and
// duplicate-free.
func (m *Metadata) NormalizeDependencies() {
	m.Dependencies = sortUniqueDeps(m.Dependencies)
}

func sortUniqueDeps(deps []string) []string {
	if len(deps) == 0 {
		return deps
	}
	sorted := append([]string(nil), deps...)
	sort.Strings(sorted)
	out := sorted[:1]
	for _, d := range sorted[1:] {
		if d != out[len(out)-1] {
			out = append(out, d)
		}
	}
	return out
}

// DependencyKeys parses Dependencies back into assetkey.Key values.
func (m *Metadata) DependencyKeys() ([]assetkey.Key, error) {
	keys := make([]assetkey.Key, 0, len(m.Dependencies))
	for _, d := range m.Dependencies {
		k, err := assetkey.Parse(d)
		if err != nil {
			return nil, fmt.Errorf("assets: metadata dependency %q: %w", d, err)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// WriteMetadata marshals m as TOML and writes it to path.
func WriteMetadata(path string, m *Metadata) error {
	m.NormalizeDependencies()
	data, err := toml.Marshal(m)
	if err != nil {
		return fmt.Errorf("assets: marshal metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("assets: write metadata %s: %w", path, err)
	}
	return nil
}

// ReadMetadata reads and parses a ".mass" sidecar at path.
func ReadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("assets: read metadata %s: %w", path, err)
	}
	var m Metadata
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("assets: parse metadata %s: %w", path, err)
	}
	return &m, nil
}
