package database

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/tutorbook/core"
	gormdb "github.com/trezcool/tutorbook/storage/database/gorm"
	inmemdb "github.com/trezcool/tutorbook/storage/database/inmem"
	redisdb "github.com/trezcool/tutorbook/storage/database/redis"
	sqlxdb "github.com/trezcool/tutorbook/storage/database/sqlx"
)

// KV is a key-value backend along with the function releasing it.
type KV struct {
	core.KVStore
	Close func() error
}

// Watcher returns the backend's change feed, if it has one.
func (kv KV) Watcher() (core.KVWatcher, bool) {
	w, ok := kv.KVStore.(core.KVWatcher)
	return w, ok
}

var watchRetryDelay = 5 * time.Second // mockable

// Follow calls onChange whenever another process writes `key`, until ctx is done.
// A broken change feed is logged and resubscribed.
func Follow(ctx context.Context, w core.KVWatcher, key string, logger core.Logger, onChange func()) {
	for {
		err := w.Watch(ctx, func(changed string) {
			if changed == key {
				onChange()
			}
		})
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			err = errors.New("change feed closed")
		}
		logger.Error("watching external writes", err, map[string]interface{}{"retryIn": watchRetryDelay.String()})

		select {
		case <-ctx.Done():
			return
		case <-time.After(watchRetryDelay):
		}
	}
}

// Open opens the key-value backend selected by conf.Storage.Driver.
func Open(ctx context.Context, conf *core.Config, logger core.Logger) (KV, error) {
	switch conf.Storage.Driver {
	case core.DriverMemory:
		db := inmemdb.Open()
		return KV{KVStore: db, Close: db.Close}, nil
	case core.DriverSQLite, "":
		db, err := gormdb.Open(conf.Storage.Path)
		if err != nil {
			return KV{}, err
		}
		return KV{KVStore: db, Close: db.Close}, nil
	case core.DriverPostgres:
		db, err := sqlxdb.Open(ctx, conf.Database)
		if err != nil {
			return KV{}, err
		}
		return KV{KVStore: db, Close: db.Close}, nil
	case core.DriverRedis:
		db, err := redisdb.Open(ctx, conf.Redis, logger)
		if err != nil {
			return KV{}, err
		}
		return KV{KVStore: db, Close: db.Close}, nil
	default:
		return KV{}, errors.Errorf("unknown storage driver %q", conf.Storage.Driver)
	}
}
