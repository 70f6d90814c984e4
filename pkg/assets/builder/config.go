// Package builder implements the offline Asset Builder Pipeline (§4.9): it
// converts source files into keyed binary asset files plus metadata,
// assigning deterministic keys and recording builder/format versions and
// dependencies.
//
// © 2025 3l14 engine authors. MIT License.
package builder

// Builder converts one kind of source file (identified by extension) into
// one or more keyed assets.
type Builder interface {
	// BuilderVersion is hashed into builder_hash; bump an element when the
	// builder's own logic changes in a way that should invalidate
	// previously-built outputs.
	BuilderVersion() []string
	// FormatVersion is hashed into format_hash; bump when the on-disk
	// payload layout changes independently of the builder's logic.
	FormatVersion() []string
	// Build parses input per cfg and writes one or more outputs via ctx.
	// Derived ids are assigned in the order Build calls ctx.AddOutput,
	// per §4.9's determinism rule.
	Build(cfg BuildConfig, input SourceInput, ctx *Outputs) error
}

// BuildConfig is builder-specific configuration, round-tripped through a
// source's .sork sidecar.
type BuildConfig map[string]any

// Config is the builder registry: which extensions map to which Builder,
// and where sources/assets live on disk.
type Config struct {
	SourcesRoot string
	AssetsRoot  string

	builders map[string]Builder
}

// NewConfig constructs an empty builder registry rooted at sourcesRoot (for
// canonicalization/escape checks) and assetsRoot (where .ass/.mass files are
// written).
func NewConfig(sourcesRoot, assetsRoot string) *Config {
	return &Config{
		SourcesRoot: sourcesRoot,
		AssetsRoot:  assetsRoot,
		builders:    make(map[string]Builder),
	}
}

// Register associates b with every file extension it declares handling,
// keyed explicitly here (rather than queried from b) so one Builder value
// can be registered under an alias extension if desired.
func (c *Config) Register(ext string, b Builder) {
	c.builders[ext] = b
}

func (c *Config) lookup(ext string) (Builder, bool) {
	b, ok := c.builders[ext]
	return b, ok
}

