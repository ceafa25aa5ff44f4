package history

import (
	"github.com/dgraph-io/badger/v4"
)

// BadgerKV implements KVBackend over an embedded BadgerDB, the default
// memory.kind=kv HistoryStore backend (§1, DOMAIN STACK). Grounded on the
// teacher's examples/memory/badger.Store, adapted from the memory.Store
// four-op interface down to the Get/Set subset KV actually needs.
type BadgerKV struct {
	db *badger.DB
}

var _ KVBackend = (*BadgerKV)(nil)

// OpenBadgerKV opens (creating if absent) a BadgerDB at path.
func OpenBadgerKV(path string) (*BadgerKV, error) {
	db, err := badger.Open(badger.DefaultOptions(path))
	if err != nil {
		return nil, err
	}
	return &BadgerKV{db: db}, nil
}

func (b *BadgerKV) Get(key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = append([]byte(nil), val...)
			return nil
		})
	})
	return out, err
}

func (b *BadgerKV) Set(key string, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// Close releases the underlying database handle.
func (b *BadgerKV) Close() error {
	return b.db.Close()
}
