package store

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cockroachdb/pebble"

	"pairchat/pkg/logger"
)

var (
	db     *pebble.DB
	dbPath string
)

// ErrNotFound is returned by Get for absent keys.
var ErrNotFound = errors.New("store: key not found")

// seq is a global counter used to break ties between records sharing the
// same nanosecond timestamp in ordered keys.
var seq uint64

// NextSeq returns the next tie-breaking sequence value.
func NextSeq() uint64 { return atomic.AddUint64(&seq, 1) }

// Open opens (or creates) a Pebble database at the given path and keeps a
// global handle for simple usage in this package.
func Open(path string) error {
	var err error
	logger.Info("opening_pebble_db", "path", path)
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return err
	}
	dbPath = path
	logger.Info("pebble_opened", "path", path)
	return nil
}

// Close closes the opened pebble DB if present.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	logger.Info("pebble_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func Ready() bool { return db != nil }

// Get returns the value for key, or ErrNotFound.
func Get(key string) ([]byte, error) {
	if db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	v, closer, err := db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	out := append([]byte(nil), v...)
	if closer != nil {
		_ = closer.Close()
	}
	return out, nil
}

// Set writes a single key/value pair synchronously.
func Set(key string, value []byte) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	if err := db.Set([]byte(key), value, pebble.Sync); err != nil {
		logger.Error("store_set_failed", "key", key, "error", err)
		return err
	}
	return nil
}

// Delete removes a single key synchronously. Deleting an absent key is a
// no-op.
func Delete(key string) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	if err := db.Delete([]byte(key), pebble.Sync); err != nil {
		logger.Error("store_delete_failed", "key", key, "error", err)
		return err
	}
	return nil
}

// NewBatch returns an empty write batch. Batches commit atomically via
// Apply; multi-record mutations must go through one batch so no partial
// state is ever visible.
func NewBatch() *pebble.Batch {
	return new(pebble.Batch)
}

// Apply commits a write batch synchronously and atomically.
func Apply(b *pebble.Batch) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	if err := db.Apply(b, pebble.Sync); err != nil {
		logger.Error("store_apply_batch_failed", "error", err)
		return err
	}
	return nil
}

// KV is a key/value pair returned by prefix scans.
type KV struct {
	Key   string
	Value []byte
}

// ScanPrefix returns all key/value pairs whose key starts with prefix, in
// key order. Ordered key schemas make this an index scan, not a table scan.
func ScanPrefix(prefix string) ([]KV, error) {
	if db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	iter, err := db.NewIter(prefixIterOptions(prefix))
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []KV
	for iter.First(); iter.Valid(); iter.Next() {
		k := append([]byte(nil), iter.Key()...)
		v := append([]byte(nil), iter.Value()...)
		out = append(out, KV{Key: string(k), Value: v})
	}
	return out, iter.Error()
}

// ScanValues returns all values under prefix in key order.
func ScanValues(prefix string) ([][]byte, error) {
	kvs, err := ScanPrefix(prefix)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, len(kvs))
	for _, kv := range kvs {
		out = append(out, kv.Value)
	}
	return out, nil
}

// ScanKeys returns all keys under prefix in key order.
func ScanKeys(prefix string) ([]string, error) {
	kvs, err := ScanPrefix(prefix)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(kvs))
	for _, kv := range kvs {
		out = append(out, kv.Key)
	}
	return out, nil
}

// prefixIterOptions bounds an iterator to keys with the given prefix.
func prefixIterOptions(prefix string) *pebble.IterOptions {
	lower := []byte(prefix)
	upper := make([]byte, len(lower))
	copy(upper, lower)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xff {
			upper[i]++
			upper = upper[:i+1]
			return &pebble.IterOptions{LowerBound: lower, UpperBound: upper}
		}
	}
	return &pebble.IterOptions{LowerBound: lower}
}
