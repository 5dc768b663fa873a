package database

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tutorbook/core"
	logsvc "github.com/trezcool/tutorbook/services/logger"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		kv, err := Open(ctx, &core.Config{Storage: core.StorageConfig{Driver: core.DriverMemory}}, logsvc.NewNopLogger())
		require.NoError(t, err)
		defer kv.Close()

		require.NoError(t, kv.Set(ctx, "k", []byte("v")))
		_, watches := kv.Watcher()
		assert.False(t, watches)
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "kv.db")
		kv, err := Open(ctx, &core.Config{Storage: core.StorageConfig{Driver: core.DriverSQLite, Path: path}}, logsvc.NewNopLogger())
		require.NoError(t, err)
		defer kv.Close()

		require.NoError(t, kv.Set(ctx, "k", []byte("v")))
		got, err := kv.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "v", string(got))
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := Open(ctx, &core.Config{Storage: core.StorageConfig{Driver: "etcd"}}, logsvc.NewNopLogger())
		assert.EqualError(t, err, `unknown storage driver "etcd"`)
	})
}

// flakyWatcher fails its first subscriptions, then reports one write of each key.
type flakyWatcher struct {
	failures int32
	calls    int32
	keys     []string
}

func (w *flakyWatcher) Watch(ctx context.Context, onChange func(key string)) error {
	if atomic.AddInt32(&w.calls, 1) <= w.failures {
		return errors.New("connection refused")
	}
	for _, key := range w.keys {
		onChange(key)
	}
	<-ctx.Done()
	return nil
}

func TestFollow(t *testing.T) {
	origDelay := watchRetryDelay
	watchRetryDelay = time.Millisecond
	defer func() { watchRetryDelay = origDelay }()

	w := &flakyWatcher{failures: 2, keys: []string{"lastSync", "lessons"}}
	ctx, cancel := context.WithCancel(context.Background())
	reloaded := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		Follow(ctx, w, "lessons", logsvc.NewNopLogger(), func() { reloaded <- struct{}{} })
		close(done)
	}()

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after the feed recovered")
	}
	assert.EqualValues(t, 3, atomic.LoadInt32(&w.calls))

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Follow did not return after cancel")
	}
	assert.Empty(t, reloaded)
}
