package db

import "errors"

// ErrNotFound is returned by Get for keys that are not present.
var ErrNotFound = errors.New("kv-store: key not found")

// KVStore represents a key-value storage interface providing basic operations
// for data manipulation and iteration.
type KVStore interface {
	Reader
	Writer
	Delete(key []byte) error
	NewBatch() Batch
	NewTransaction() Transaction
	Close() error
}

type Reader interface {
	Get(key []byte) ([]byte, error)
	// NewIterator returns an iterator over [start, end) in ascending key order.
	// A nil bound is unbounded.
	NewIterator(start, end []byte) (Iterator, error)
}

type Writer interface {
	Put(key []byte, value []byte) error
}

// Batch represents an atomic batch of operations.
// All operations in a batch are performed atomically.
type Batch interface {
	Writer
	Delete(key []byte) error
	Commit() error
	Close() error
}

// Transaction is a batch that can also be read from. Reads observe the
// committed store overlaid with the transaction's own pending writes.
// Nothing is visible to other readers until Commit; Close without Commit
// discards every write.
type Transaction interface {
	Reader
	Batch
}

// Iterator provides sequential access over a range of key-value pairs.
// Iterators must be closed after use.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() ([]byte, error)
	Valid() bool
	Close() error
}
