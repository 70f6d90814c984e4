package main

// keygen.go is a tiny helper utility generating deterministic asset key
// datasets for standalone benchmarking of the asset cache (outside `go
// test`). It emits newline-separated hex keys in the canonical String()
// form, mixing unique and synthetic keys.
//
// Usage:
//
//	go run ./tools/keygen -n 1000000 -synthetic-frac=0.3 -seed=42 -out keys.txt
//
// © 2025 3l14 engine authors. MIT License.

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/cobalthex/3l14/pkg/assetkey"
)

func main() {
	var (
		n             = flag.Int("n", 1_000_000, "number of keys to generate")
		syntheticFrac = flag.Float64("synthetic-frac", 0.2, "fraction of keys that are synthetic (content-addressed)")
		seedVal       = flag.Int64("seed", 42, "PRNG seed")
		outPath       = flag.String("out", "", "output file (default stdout)")
	)
	flag.Parse()

	if *syntheticFrac < 0 || *syntheticFrac > 1 {
		fmt.Fprintln(os.Stderr, "synthetic-frac must be in [0, 1]")
		os.Exit(1)
	}

	rnd := rand.New(rand.NewSource(*seedVal))
	types := []assetkey.Type{
		assetkey.TypeTexture, assetkey.TypeShader, assetkey.TypeGeometry,
		assetkey.TypeMaterial, assetkey.TypeModel, assetkey.TypeSkeleton,
	}

	var out *os.File
	var err error
	if *outPath == "" {
		out = os.Stdout
	} else {
		out, err = os.Create(*outPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "cannot create file:", err)
			os.Exit(1)
		}
		defer out.Close()
	}

	w := bufio.NewWriterSize(out, 1<<20)
	defer w.Flush()

	for i := 0; i < *n; i++ {
		typ := types[rnd.Intn(len(types))]
		var key assetkey.Key
		if rnd.Float64() < *syntheticFrac {
			key = assetkey.Synthetic(typ, assetkey.ContentHash(rnd.Uint64()))
		} else {
			key = assetkey.Unique(typ, assetkey.DerivedID(rnd.Intn(1<<15)), assetkey.SourceID(rnd.Uint64()&((1<<36)-1)))
		}
		fmt.Fprintln(w, key.String())
	}
}
