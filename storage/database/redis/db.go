package redisdb

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/trezcool/tutorbook/core"
)

// DB stores values as plain Redis strings and announces every write on a pub/sub channel,
// so that other instances sharing the server can reload.
type DB struct {
	rdb      *goredis.Client
	channel  string
	instance string
	logger   core.Logger
}

var (
	_ core.KVStore   = (*DB)(nil)
	_ core.KVWatcher = (*DB)(nil)
)

func Open(ctx context.Context, conf core.RedisConfig, logger core.Logger) (*DB, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        conf.Addr,
		Password:    conf.Password,
		DB:          conf.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "redis ping")
	}

	return newDB(rdb, conf.Channel, logger), nil
}

func newDB(rdb *goredis.Client, channel string, logger core.Logger) *DB {
	if channel == "" {
		channel = "tutorbook:changes"
	}
	return &DB{rdb: rdb, channel: channel, instance: uuid.NewString(), logger: logger}
}

func (db *DB) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := db.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, core.ErrKeyNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "getting %s", key)
	}
	return value, nil
}

func (db *DB) Set(ctx context.Context, key string, value []byte) error {
	if err := db.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return errors.Wrapf(err, "setting %s", key)
	}
	db.publish(ctx, key)
	return nil
}

func (db *DB) Delete(ctx context.Context, key string) error {
	if err := db.rdb.Del(ctx, key).Err(); err != nil {
		return errors.Wrapf(err, "deleting %s", key)
	}
	db.publish(ctx, key)
	return nil
}

// publish announces a write that already succeeded, so a failure is only logged.
func (db *DB) publish(ctx context.Context, key string) {
	if err := db.rdb.Publish(ctx, db.channel, db.instance+":"+key).Err(); err != nil {
		db.logger.Warn("publishing change", err, map[string]interface{}{"key": key, "channel": db.channel})
	}
}

// Watch calls onChange for every key written by another instance, until ctx is done.
func (db *DB) Watch(ctx context.Context, onChange func(key string)) error {
	if onChange == nil {
		return errors.New("onChange callback required")
	}
	sub := db.rdb.Subscribe(ctx, db.channel)
	defer func() { _ = sub.Close() }()

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		return errors.Wrap(err, "redis subscribe")
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			instance, key, found := strings.Cut(m.Payload, ":")
			if !found || instance == db.instance {
				continue
			}
			onChange(key)
		}
	}
}

func (db *DB) Close() error {
	return db.rdb.Close()
}
