// cmd/asset-builder is the offline build CLI: it walks a sources tree,
// invokes the registered builders, and optionally persists an incremental
// build cache so repeat invocations only rebuild changed sources.
//
// © 2025 3l14 engine authors. MIT License.
package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cobalthex/3l14/pkg/assets/builder"
)

func main() {
	root := &cobra.Command{Use: "asset-builder"}
	root.AddCommand(buildCmd())
	root.AddCommand(watchCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func sharedFlags(cmd *cobra.Command) {
	cmd.Flags().String("sources", "./sources", "sources root directory")
	cmd.Flags().String("assets", "./assets", "built assets output directory")
	cmd.Flags().String("cache", "", "path to an incremental build cache directory; empty disables it")
}

func newPipeline(cmd *cobra.Command, logger *zap.Logger) (*builder.Pipeline, *builder.BuildCache, error) {
	sourcesRoot, _ := cmd.Flags().GetString("sources")
	assetsRoot, _ := cmd.Flags().GetString("assets")
	cachePath, _ := cmd.Flags().GetString("cache")

	cfg := builder.NewConfig(sourcesRoot, assetsRoot)
	registerBuilders(cfg)

	var opts []builder.PipelineOption
	opts = append(opts, builder.WithPipelineLogger(logger))

	var cache *builder.BuildCache
	if cachePath != "" {
		c, err := builder.OpenBuildCache(cachePath)
		if err != nil {
			return nil, nil, err
		}
		cache = c
		opts = append(opts, builder.WithBuildCache(c))
	}

	return builder.NewPipeline(cfg, opts...), cache, nil
}

func buildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "build every recognized source under --sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, _ := zap.NewDevelopment()
			defer logger.Sync()

			p, cache, err := newPipeline(cmd, logger)
			if err != nil {
				return err
			}
			if cache != nil {
				defer cache.Close()
			}

			sourcesRoot, _ := cmd.Flags().GetString("sources")
			return filepath.WalkDir(sourcesRoot, func(path string, d fs.DirEntry, err error) error {
				if err != nil || d.IsDir() {
					return err
				}
				ext := filepath.Ext(path)
				if ext == ".sork" || ext == ".mass" {
					return nil
				}
				rel, err := filepath.Rel(sourcesRoot, path)
				if err != nil {
					return err
				}
				keys, err := p.BuildSource(rel)
				if err != nil {
					logger.Warn("build failed", zap.String("source", rel), zap.Error(err))
					return nil
				}
				for _, k := range keys {
					fmt.Printf("%s -> %s\n", rel, k.String())
				}
				return nil
			})
		},
	}
	sharedFlags(cmd)
	return cmd
}

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "rebuild a single source (for editor/save-hook integration)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, _ := zap.NewDevelopment()
			defer logger.Sync()

			p, cache, err := newPipeline(cmd, logger)
			if err != nil {
				return err
			}
			if cache != nil {
				defer cache.Close()
			}

			keys, err := p.BuildSource(args[0])
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Printf("%s -> %s\n", args[0], k.String())
			}
			return nil
		},
	}
	sharedFlags(cmd)
	return cmd
}
