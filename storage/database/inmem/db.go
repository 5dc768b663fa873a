package inmemdb

import (
	"context"
	"sync"

	"github.com/trezcool/tutorbook/core"
)

// DB is a process-local key-value table.
type DB struct {
	mutex sync.RWMutex
	table map[string][]byte
}

var _ core.KVStore = (*DB)(nil)

func Open() *DB {
	return &DB{table: make(map[string][]byte)}
}

func (db *DB) Get(_ context.Context, key string) ([]byte, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	val, ok := db.table[key]
	if !ok {
		return nil, core.ErrKeyNotFound
	}
	cp := make([]byte, len(val))
	copy(cp, val)
	return cp, nil
}

func (db *DB) Set(_ context.Context, key string, value []byte) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	cp := make([]byte, len(value))
	copy(cp, value)
	db.table[key] = cp
	return nil
}

func (db *DB) Delete(_ context.Context, key string) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	delete(db.table, key)
	return nil
}

func (db *DB) Close() error { return nil }
