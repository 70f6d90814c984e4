// Package assetkey implements the 64-bit packed asset identifier described
// in the asset system's data model: a flat, hashable, filename-derivable key
// that is either *unique* (source-derived) or *synthetic* (content-addressed).
//
// The bit layout (high to low) is:
//
//	12 bits  asset type
//	 1 bit   synthetic flag
//	unique:    15 bits derived id + 36 bits source id
//	synthetic: 51 bits content hash
//
// A flat uint64 admits dense maps, cheap hashing and direct filename
// derivation; the synthetic flag lets content-addressed artifacts share the
// namespace with source-derived artifacts without collision.
//
// © 2025 3l14 engine authors. MIT License.
package assetkey

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strconv"
)

// Type names a runtime asset category. Stable across builds; values must fit
// in 12 bits (0..4095).
type Type uint16

const (
	TypeInvalid Type = iota
	TypeTexture
	TypeShader
	TypeGeometry
	TypeMaterial
	TypeModel
	TypeSkeleton

	// test-only categories, kept small and out of the way of real types.
	typeTest1 Type = 0xFFD
	typeTest2 Type = 0xFFE
)

func (t Type) String() string {
	switch t {
	case TypeInvalid:
		return "Invalid"
	case TypeTexture:
		return "Texture"
	case TypeShader:
		return "Shader"
	case TypeGeometry:
		return "Geometry"
	case TypeMaterial:
		return "Material"
	case TypeModel:
		return "Model"
	case TypeSkeleton:
		return "Skeleton"
	case typeTest1:
		return "Test1"
	case typeTest2:
		return "Test2"
	default:
		return fmt.Sprintf("Type(%d)", uint16(t))
	}
}

// TypeTest1 and TypeTest2 are exported for use by lifecycler test suites
// throughout the module (mirrors the original engine's AssetTypeId::Test1/2).
const (
	TypeTest1 = typeTest1
	TypeTest2 = typeTest2
)

const (
	typeBits        = 12
	syntheticBit    = 1
	derivedIDBits   = 15
	sourceIDBits    = 36
	contentHashBits = 51

	typeShift      = 64 - typeBits                  // 52
	syntheticShift = typeShift - syntheticBit        // 51
	derivedIDShift = syntheticShift - derivedIDBits  // 36
	// sourceID occupies bits [0, 36)
	// contentHash occupies bits [0, 51), same low range as derivedID+sourceID combined

	typeMask        uint64 = (1 << typeBits) - 1
	derivedIDMask   uint64 = (1 << derivedIDBits) - 1
	sourceIDMask    uint64 = (1 << sourceIDBits) - 1
	contentHashMask uint64 = (1 << contentHashBits) - 1
)

// DerivedID is the per-source sequence number a builder assigns to each
// output it produces for a given source file, in call order of add_output.
type DerivedID uint16

// SourceID is a 36-bit identifier generated once per source file and
// persisted in its .sork sidecar; it is the stable identity of that source
// across every asset derived from it.
type SourceID uint64

// ContentHash is the 51-bit hash of a synthetic asset's build-time payload.
type ContentHash uint64

// Key is the 64-bit packed asset identifier. Equality and hashing operate on
// the raw value only.
type Key uint64

// Unique packs a source-derived key. Panics if derivedID or sourceID don't
// fit their field widths -- this is a builder-time programming error, not a
// runtime condition callers should recover from.
func Unique(typ Type, derivedID DerivedID, sourceID SourceID) Key {
	if uint64(typ) > typeMask {
		panic("assetkey: asset type exceeds 12 bits")
	}
	if uint64(derivedID) > derivedIDMask {
		panic("assetkey: derived id exceeds 15 bits")
	}
	if uint64(sourceID) > sourceIDMask {
		panic("assetkey: source id exceeds 36 bits")
	}
	k := uint64(typ)<<typeShift | uint64(derivedID)<<derivedIDShift | uint64(sourceID)
	return Key(k)
}

// Synthetic packs a content-addressed key. The hash is masked to 51 bits.
func Synthetic(typ Type, hash ContentHash) Key {
	if uint64(typ) > typeMask {
		panic("assetkey: asset type exceeds 12 bits")
	}
	k := uint64(typ)<<typeShift | 1<<syntheticShift | (uint64(hash) & contentHashMask)
	return Key(k)
}

// AssetType returns the 12-bit type field.
func (k Key) AssetType() Type {
	return Type((uint64(k) >> typeShift) & typeMask)
}

// IsSynthetic reports whether this key carries a content hash rather than a
// source-derived id pair.
func (k Key) IsSynthetic() bool {
	return (uint64(k)>>syntheticShift)&1 == 1
}

// DerivedID returns the per-source sequence number, or 0 for synthetic keys.
func (k Key) DerivedID() DerivedID {
	if k.IsSynthetic() {
		return 0
	}
	return DerivedID((uint64(k) >> derivedIDShift) & derivedIDMask)
}

// SourceID returns the stable source identity, or 0 for synthetic keys.
func (k Key) SourceID() SourceID {
	if k.IsSynthetic() {
		return 0
	}
	return SourceID(uint64(k) & sourceIDMask)
}

// ContentHash returns the payload hash, or 0 for unique keys.
func (k Key) ContentHash() ContentHash {
	if !k.IsSynthetic() {
		return 0
	}
	return ContentHash(uint64(k) & contentHashMask)
}

// String renders the key as a zero-padded, lowercase, 16-nibble hex string --
// the canonical textual form used for both display and file naming.
func (k Key) String() string {
	return fmt.Sprintf("%016x", uint64(k))
}

// Parse reconstructs a Key from its canonical 16-nibble hex form. Round-trips
// with String for every valid Key.
func Parse(s string) (Key, error) {
	if len(s) != 16 {
		return 0, fmt.Errorf("assetkey: expected 16 hex digits, got %d", len(s))
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("assetkey: %w", err)
	}
	return Key(v), nil
}

// AssetFilename returns the payload file name for this key: "<hex>.ass".
func (k Key) AssetFilename() string { return k.String() + ".ass" }

// MetaFilename returns the metadata sidecar file name: "<hex>.mass".
func (k Key) MetaFilename() string { return k.String() + ".mass" }

// ParseFilename recovers a Key from either a ".ass" or ".mass" file name,
// verifying the round trip invariant parse(key.filename()) == key.
func ParseFilename(name string) (Key, error) {
	for _, suffix := range [...]string{".ass", ".mass"} {
		if len(name) == len(suffix)+16 && name[len(name)-len(suffix):] == suffix {
			return Parse(name[:16])
		}
	}
	return 0, fmt.Errorf("assetkey: %q is not a recognized asset or metadata file name", name)
}

// GenerateSourceID produces a fresh random 36-bit source id, used the first
// time a source file is built (no pre-existing .sork sidecar).
func GenerateSourceID() (SourceID, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("assetkey: failed to generate source id: %w", err)
	}
	return SourceID(binary.BigEndian.Uint64(buf[:]) & sourceIDMask), nil
}
