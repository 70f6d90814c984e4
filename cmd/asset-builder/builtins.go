package main

// builtins.go registers the handful of concrete builders this CLI ships
// with. Format-specific parsing (glTF, texture codecs, etc.) is out of
// scope here; rawCopyBuilder demonstrates the Builder contract end to end
// by wrapping a source file's bytes into a single keyed asset unmodified.
//
// © 2025 3l14 engine authors. MIT License.

import (
	"io"

	"github.com/cobalthex/3l14/pkg/assetkey"
	"github.com/cobalthex/3l14/pkg/assets/builder"
)

type rawCopyBuilder struct {
	assetType assetkey.Type
}

func (b rawCopyBuilder) BuilderVersion() []string { return []string{"rawCopyBuilder", "v1"} }
func (b rawCopyBuilder) FormatVersion() []string   { return []string{"raw", "v1"} }

func (b rawCopyBuilder) Build(_ builder.BuildConfig, input builder.SourceInput, ctx *builder.Outputs) error {
	data, err := io.ReadAll(input)
	if err != nil {
		return err
	}
	out := ctx.AddOutput(b.assetType)
	if err := out.WriteSized(data); err != nil {
		return err
	}
	_, err = out.Finish()
	return err
}

func registerBuilders(cfg *builder.Config) {
	cfg.Register(".png", rawCopyBuilder{assetType: assetkey.TypeTexture})
	cfg.Register(".jpg", rawCopyBuilder{assetType: assetkey.TypeTexture})
	cfg.Register(".glsl", rawCopyBuilder{assetType: assetkey.TypeShader})
	cfg.Register(".hlsl", rawCopyBuilder{assetType: assetkey.TypeShader})
}
