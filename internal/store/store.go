package store

import (
	"errors"
	"fmt"

	"github.com/eigerco/computeplane/pkg/db"
	"github.com/eigerco/computeplane/pkg/serialization/codec"
)

// Backend is the slice of a db.Transaction the store needs.
type Backend interface {
	db.Reader
	db.Writer
	Delete(key []byte) error
}

// Store gives typed access to state held in one transaction. Values are
// SCALE encoded.
type Store struct {
	backend Backend
	codec   codec.Codec
}

// New wraps a backend, usually a db.Transaction.
func New(backend Backend) *Store {
	return &Store{backend: backend, codec: codec.Default}
}

// Get decodes the value stored at key. The boolean reports presence.
func Get[T any](s *Store, key []byte) (T, bool, error) {
	var v T
	raw, err := s.backend.Get(key)
	if errors.Is(err, db.ErrNotFound) {
		return v, false, nil
	}
	if err != nil {
		return v, false, fmt.Errorf("get %s key: %w", ModuleToString(key[0]), err)
	}
	if err := s.codec.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("decode %s value: %w", ModuleToString(key[0]), err)
	}
	return v, true, nil
}

// GetOr is Get with a fallback for absent keys.
func GetOr[T any](s *Store, key []byte, fallback T) (T, error) {
	v, ok, err := Get[T](s, key)
	if err != nil {
		return fallback, err
	}
	if !ok {
		return fallback, nil
	}
	return v, nil
}

// Put encodes v and stores it at key.
func Put[T any](s *Store, key []byte, v T) error {
	raw, err := s.codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s value: %w", ModuleToString(key[0]), err)
	}
	if err := s.backend.Put(key, raw); err != nil {
		return fmt.Errorf("put %s key: %w", ModuleToString(key[0]), err)
	}
	return nil
}

// Has reports whether key is present.
func (s *Store) Has(key []byte) (bool, error) {
	_, err := s.backend.Get(key)
	if errors.Is(err, db.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s key: %w", ModuleToString(key[0]), err)
	}
	return true, nil
}

// Mark stores an empty value at key. Used for set membership.
func (s *Store) Mark(key []byte) error {
	if err := s.backend.Put(key, []byte{}); err != nil {
		return fmt.Errorf("put %s key: %w", ModuleToString(key[0]), err)
	}
	return nil
}

func (s *Store) Delete(key []byte) error {
	if err := s.backend.Delete(key); err != nil {
		return fmt.Errorf("delete %s key: %w", ModuleToString(key[0]), err)
	}
	return nil
}

// Iterate visits every key with the given prefix in ascending order until fn
// returns false or an error.
func (s *Store) Iterate(prefix []byte, fn func(key, value []byte) (bool, error)) error {
	iter, err := s.backend.NewIterator(prefix, PrefixEnd(prefix))
	if err != nil {
		return fmt.Errorf("create iterator: %w", err)
	}
	defer iter.Close() //nolint:errcheck // iterator close only releases resources

	for iter.Next() {
		value, err := iter.Value()
		if err != nil {
			return err
		}
		more, err := fn(iter.Key(), value)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}

// Each decodes and visits every value with the given prefix.
func Each[T any](s *Store, prefix []byte, fn func(key []byte, v T) (bool, error)) error {
	return s.Iterate(prefix, func(key, raw []byte) (bool, error) {
		var v T
		if err := s.codec.Unmarshal(raw, &v); err != nil {
			return false, fmt.Errorf("decode %s value: %w", ModuleToString(key[0]), err)
		}
		return fn(key, v)
	})
}

// Keys collects up to limit keys with the given prefix. A limit of zero means
// no limit.
func (s *Store) Keys(prefix []byte, limit int) ([][]byte, error) {
	var keys [][]byte
	err := s.Iterate(prefix, func(key, _ []byte) (bool, error) {
		keys = append(keys, key)
		return limit == 0 || len(keys) < limit, nil
	})
	return keys, err
}

// First returns the smallest key with the given prefix.
func (s *Store) First(prefix []byte) ([]byte, bool, error) {
	keys, err := s.Keys(prefix, 1)
	if err != nil || len(keys) == 0 {
		return nil, false, err
	}
	return keys[0], true, nil
}

// Count returns the number of keys with the given prefix.
func (s *Store) Count(prefix []byte) (int, error) {
	n := 0
	err := s.Iterate(prefix, func(_, _ []byte) (bool, error) {
		n++
		return true, nil
	})
	return n, err
}

// DeletePrefix removes every key with the given prefix.
func (s *Store) DeletePrefix(prefix []byte) error {
	keys, err := s.Keys(prefix, 0)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := s.Delete(k); err != nil {
			return err
		}
	}
	return nil
}
