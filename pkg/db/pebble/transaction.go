package pebble

import (
	"github.com/eigerco/computeplane/pkg/db"
)

// Transaction is an indexed pebble batch: reads go through the batch so they
// see its uncommitted writes on top of the database.
type Transaction struct {
	Batch
}

func (p *KVStore) NewTransaction() db.Transaction {
	tx := &Transaction{}
	tx.batch = p.db.NewIndexedBatch()
	return tx
}

func (t *Transaction) Get(key []byte) ([]byte, error) {
	if t.done.Load() {
		return nil, ErrBatchDone
	}
	return get(t.batch, key)
}

func (t *Transaction) NewIterator(start, end []byte) (db.Iterator, error) {
	if t.done.Load() {
		return nil, ErrBatchDone
	}
	return newIterator(t.batch, start, end)
}
