package builder

// hash.go computes builder/format/content hashes via xxhash, the teacher's
// own (indirect, via badger) hashing dependency, promoted to a direct
// import here -- the same role the original engine's MetroHash64 plays for
// builder_hash/format_hash and for provenance hashing of a source file.
//
// © 2025 3l14 engine authors. MIT License.

import (
	"io"

	"github.com/cespare/xxhash/v2"
)

// hashVersionStrings combines a builder's declared version strings into a
// single stable 64-bit hash (builder_hash or format_hash).
func hashVersionStrings(parts []string) uint64 {
	h := xxhash.New()
	for _, p := range parts {
		h.WriteString(p)
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// hashReader consumes r fully, returning its xxhash digest -- used to
// fingerprint a source file for BuildCache's incremental-skip decision.
func hashReader(r io.Reader) (uint64, error) {
	h := xxhash.New()
	if _, err := io.Copy(h, r); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
