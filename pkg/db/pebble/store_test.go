package pebble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/computeplane/pkg/db"
)

func newStore(t *testing.T) *KVStore {
	t.Helper()
	store, err := NewKVStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func keys(t *testing.T, r db.Reader, start, end []byte) []string {
	t.Helper()
	iter, err := r.NewIterator(start, end)
	require.NoError(t, err)
	defer iter.Close() //nolint:errcheck

	var out []string
	for iter.Next() {
		out = append(out, string(iter.Key()))
	}
	return out
}

func TestKVStore_PutGetDelete(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Put([]byte{4, 1, 0, 7}, []byte("worker")))
	v, err := store.Get([]byte{4, 1, 0, 7})
	require.NoError(t, err)
	assert.Equal(t, []byte("worker"), v)

	// Mutating the returned slice leaves the store untouched
	v[0] = 'x'
	v, err = store.Get([]byte{4, 1, 0, 7})
	require.NoError(t, err)
	assert.Equal(t, []byte("worker"), v)

	require.NoError(t, store.Delete([]byte{4, 1, 0, 7}))
	_, err = store.Get([]byte{4, 1, 0, 7})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, db.ErrNotFound)

	// Deleting an absent key is fine
	assert.NoError(t, store.Delete([]byte("absent")))
}

func TestKVStore_Closed(t *testing.T) {
	store, err := NewKVStore()
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.Get([]byte("k"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, store.Put([]byte("k"), []byte("v")), ErrClosed)
	assert.ErrorIs(t, store.Delete([]byte("k")), ErrClosed)
	_, err = store.NewIterator(nil, nil)
	assert.ErrorIs(t, err, ErrClosed)

	assert.NoError(t, store.Close())
}

func TestKVStore_ReopenKeepsCommittedState(t *testing.T) {
	dir := t.TempDir()

	store, err := NewPebbleStore(dir)
	require.NoError(t, err)
	tx := store.NewTransaction()
	require.NoError(t, tx.Put([]byte("header"), []byte{1}))
	require.NoError(t, tx.Commit())
	require.NoError(t, tx.Close())

	discarded := store.NewTransaction()
	require.NoError(t, discarded.Put([]byte("lost"), []byte{2}))
	require.NoError(t, discarded.Close())
	require.NoError(t, store.Close())

	store, err = NewPebbleStore(dir)
	require.NoError(t, err)
	defer store.Close() //nolint:errcheck

	v, err := store.Get([]byte("header"))
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, v)
	_, err = store.Get([]byte("lost"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBatch_AppliesAtomically(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Put([]byte("stale"), []byte("1")))

	batch := store.NewBatch()
	require.NoError(t, batch.Put([]byte("a"), []byte("1")))
	require.NoError(t, batch.Put([]byte("b"), []byte("2")))
	require.NoError(t, batch.Delete([]byte("stale")))

	// Nothing is visible before commit
	_, err := store.Get([]byte("a"))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, batch.Commit())
	assert.Equal(t, []string{"a", "b"}, keys(t, store, nil, nil))

	assert.ErrorIs(t, batch.Put([]byte("c"), []byte("3")), ErrBatchDone)
	assert.ErrorIs(t, batch.Delete([]byte("a")), ErrBatchDone)
	assert.ErrorIs(t, batch.Commit(), ErrBatchDone)
	assert.NoError(t, batch.Close())
	assert.NoError(t, batch.Close())
}

func TestBatch_CloseWithoutCommitDiscards(t *testing.T) {
	store := newStore(t)

	batch := store.NewBatch()
	require.NoError(t, batch.Put([]byte("a"), []byte("1")))
	require.NoError(t, batch.Close())
	assert.ErrorIs(t, batch.Commit(), ErrBatchDone)

	assert.Empty(t, keys(t, store, nil, nil))
}

func TestIterator_Ranges(t *testing.T) {
	store := newStore(t)
	// A module prefix followed by big endian ids
	for _, k := range [][]byte{
		{5, 1, 0, 2},
		{5, 1, 0, 1},
		{5, 2, 0, 1},
		{4, 1, 0, 1},
	} {
		require.NoError(t, store.Put(k, []byte{k[3]}))
	}

	assert.Equal(t, []string{
		string([]byte{4, 1, 0, 1}),
		string([]byte{5, 1, 0, 1}),
		string([]byte{5, 1, 0, 2}),
		string([]byte{5, 2, 0, 1}),
	}, keys(t, store, nil, nil))

	assert.Equal(t, []string{
		string([]byte{5, 1, 0, 1}),
		string([]byte{5, 1, 0, 2}),
	}, keys(t, store, []byte{5, 1}, []byte{5, 2}))

	assert.Empty(t, keys(t, store, []byte{6}, nil))
}

func TestIterator_Validity(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Put([]byte("k1"), []byte("v1")))

	iter, err := store.NewIterator(nil, nil)
	require.NoError(t, err)
	defer iter.Close() //nolint:errcheck

	// Not positioned until the first Next
	assert.False(t, iter.Valid())

	require.True(t, iter.Next())
	assert.True(t, iter.Valid())
	v, err := iter.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)

	assert.False(t, iter.Next())
	assert.False(t, iter.Valid())
	_, err = iter.Value()
	assert.ErrorIs(t, err, ErrIteratorInvalid)
}
