package redisdb

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/trezcool/tutorbook/core"
	logsvc "github.com/trezcool/tutorbook/services/logger"
)

// TestDB needs a running Redis server at TEST_REDIS_ADDR.
func TestDB(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conf := core.RedisConfig{Addr: addr, Channel: "tutorbook:test"}
	db, err := Open(ctx, conf, logsvc.NewNopLogger())
	require.NoError(t, err)
	defer db.Close()
	other, err := Open(ctx, conf, logsvc.NewNopLogger())
	require.NoError(t, err)
	defer other.Close()

	changed := make(chan string, 4)
	watchCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() { _ = db.Watch(watchCtx, func(key string) { changed <- key }) }()
	time.Sleep(200 * time.Millisecond) // let the subscription start

	require.NoError(t, db.Delete(ctx, "test:lessons"))
	_, err = db.Get(ctx, "test:lessons")
	assert.Equal(t, core.ErrKeyNotFound, err)

	require.NoError(t, other.Set(ctx, "test:lessons", []byte(`[]`)))
	got, err := db.Get(ctx, "test:lessons")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	select {
	case key := <-changed:
		assert.Equal(t, "test:lessons", key)
	case <-ctx.Done():
		t.Fatal("no change notification received")
	}
	require.NoError(t, db.Delete(ctx, "test:lessons"))
}

// failingPublish answers every command locally and fails PUBLISH.
type failingPublish struct{ published int }

func (h *failingPublish) DialHook(next goredis.DialHook) goredis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, errors.New("no server")
	}
}

func (h *failingPublish) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		if cmd.Name() == "publish" {
			h.published++
			err := errors.New("connection reset by peer")
			cmd.SetErr(err)
			return err
		}
		return nil
	}
}

func (h *failingPublish) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return next
}

func TestDB_publishFailureKeepsWrite(t *testing.T) {
	rdb := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:0"})
	defer rdb.Close()
	hook := new(failingPublish)
	rdb.AddHook(hook)

	zcore, logs := observer.New(zap.WarnLevel)
	db := newDB(rdb, "", logsvc.NewRollbarLogger(zap.New(zcore), &core.Config{}))
	ctx := context.Background()

	assert.NoError(t, db.Set(ctx, "lessons", []byte(`[]`)))
	assert.NoError(t, db.Delete(ctx, "lessons"))
	assert.Equal(t, 2, hook.published)

	entries := logs.FilterMessage("publishing change").AllUntimed()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "lessons", entries[0].ContextMap()["key"])
		assert.Equal(t, "tutorbook:changes", entries[0].ContextMap()["channel"])
	}
}
