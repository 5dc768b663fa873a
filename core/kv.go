package core

import (
	"context"
	"errors"
)

var ErrKeyNotFound = errors.New("key not found")

type (
	// KVStore is the key-value substrate the lessons are persisted to.
	// It offers no transactions: concurrent writers on the same key race and the last write wins.
	KVStore interface {
		// Get returns ErrKeyNotFound when key was never set (or was deleted).
		Get(ctx context.Context, key string) ([]byte, error)
		Set(ctx context.Context, key string, value []byte) error
		Delete(ctx context.Context, key string) error
	}

	// KVWatcher is implemented by stores that can notify about writes made by other processes.
	KVWatcher interface {
		// Watch blocks until ctx is done, calling onChange for every external write.
		Watch(ctx context.Context, onChange func(key string)) error
	}
)
