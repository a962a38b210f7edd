package repositories

import (
	"context"

	"github.com/dgraph-io/badger/v4"
)

// update runs fn in a read-write transaction. The transaction is discarded,
// never committed, once ctx is done.
func update(ctx context.Context, db *badger.DB, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return db.Update(func(txn *badger.Txn) error {
		if err := fn(txn); err != nil {
			return err
		}
		return ctx.Err()
	})
}

func view(ctx context.Context, db *badger.DB, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return db.View(fn)
}

// scanPrefix walks every key under prefix in ascending order.
func scanPrefix(ctx context.Context, txn *badger.Txn, prefix []byte, fn func(key, value []byte) error) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		item := it.Item()
		key := item.KeyCopy(nil)
		err := item.Value(func(value []byte) error {
			return fn(key, value)
		})
		if err != nil {
			return err
		}
	}
	return nil
}
