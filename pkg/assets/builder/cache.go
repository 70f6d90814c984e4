package builder

// cache.go implements BuildCache, an on-disk incremental-build record keyed
// by source path (SPEC_FULL.md's supplemented incremental-build feature).
// A source is skipped when its file hash, builder hash, and format hash all
// match the last recorded build, mirroring the teacher's disk_eject example
// use of BadgerDB as a persistent second-level store.
//
// © 2025 3l14 engine authors. MIT License.

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/cobalthex/3l14/pkg/assetkey"
)

// buildRecord is the gob-encoded value stored per source path.
type buildRecord struct {
	FileHash    uint64
	BuilderHash uint64
	FormatHash  uint64
	Produced    []assetkey.Key
}

// BuildCache persists the last-known build fingerprint for each source,
// backed by an embedded BadgerDB database.
type BuildCache struct {
	db *badger.DB
}

// OpenBuildCache opens (creating if necessary) a BuildCache at path.
func OpenBuildCache(path string) (*BuildCache, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("builder: open build cache %s: %w", path, err)
	}
	return &BuildCache{db: db}, nil
}

// Close releases the underlying database.
func (bc *BuildCache) Close() error {
	return bc.db.Close()
}

// shouldSkip reports whether sourcePath's last recorded build matches the
// given hashes, returning the keys produced by that build if so.
func (bc *BuildCache) shouldSkip(sourcePath string, fileHash, builderHash, formatHash uint64) ([]assetkey.Key, bool) {
	rec, ok, err := bc.lookup(sourcePath)
	if err != nil || !ok {
		return nil, false
	}
	if rec.FileHash != fileHash || rec.BuilderHash != builderHash || rec.FormatHash != formatHash {
		return nil, false
	}
	return rec.Produced, true
}

func (bc *BuildCache) lookup(sourcePath string) (buildRecord, bool, error) {
	var rec buildRecord
	err := bc.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sourcePath))
		if err != nil {
			return err
		}
		return item.Value(func(b []byte) error {
			return gob.NewDecoder(bytes.NewReader(b)).Decode(&rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return buildRecord{}, false, nil
	}
	if err != nil {
		return buildRecord{}, false, err
	}
	return rec, true, nil
}

// record persists the fingerprint and produced keys for sourcePath.
func (bc *BuildCache) record(sourcePath string, fileHash, builderHash, formatHash uint64, produced []assetkey.Key) error {
	rec := buildRecord{FileHash: fileHash, BuilderHash: builderHash, FormatHash: formatHash, Produced: produced}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&rec); err != nil {
		return fmt.Errorf("builder: encode build record: %w", err)
	}
	return bc.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(sourcePath), buf.Bytes())
	})
}
