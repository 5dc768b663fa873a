package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	dig_container "github.com/trezcool/tutorbook/apps/api/di/dig"
	echoapi "github.com/trezcool/tutorbook/apps/api/echo"
	"github.com/trezcool/tutorbook/core"
	"github.com/trezcool/tutorbook/core/lesson"
	"github.com/trezcool/tutorbook/storage/database"
)

func main() {
	c := dig_container.New()

	must(c.Invoke(func(
		conf *core.Config,
		zl *zap.Logger,
		apiLogger core.Logger,
		kvLoggerParam dig_container.KVLoggerParam,
		kv database.KV,
		store *lesson.Store,
		server *echoapi.Server,
	) {
		// =========================================================================
		// Initialize App

		apiLogger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))

		kvLogger := kvLoggerParam.Logger
		defer func() { _ = zl.Sync() }()
		defer func() {
			if err := kv.Close(); err != nil {
				kvLogger.Fatal("Failed to close", err)
			}
		}()
		defer apiLogger.Info("Application stopped")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		g, gctx := errgroup.WithContext(ctx)

		// =========================================================================
		// Start Debug Service
		//
		// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
		// /debug/vars - Added to the default mux by importing the expvar package.

		// Expose important info under /debug/vars.
		expvar.NewString("build").Set(conf.Build)
		expvar.NewString("env").Set(conf.Env)
		expvar.NewString("storage").Set(conf.Storage.Driver)

		go func() {
			if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
				apiLogger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()

		// =========================================================================
		// Watch external writes (last write wins)

		if watcher, ok := kv.Watcher(); ok {
			g.Go(func() error {
				database.Follow(gctx, watcher, store.Key(), kvLogger, func() {
					n := store.Reload(gctx)
					kvLogger.Info("lessons reloaded after an external write", map[string]interface{}{"count": n})
				})
				return nil
			})
		}

		// =========================================================================
		// Start API Service

		server.Start()

		// =========================================================================
		// Shutdown

		select {
		case err := <-server.Errors():
			apiLogger.Fatal(fmt.Sprintf("server error: %v", err), err)

		case sig := <-server.ShutdownSignal():
			apiLogger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
			shutdown(conf, apiLogger, server)
		}

		cancel()
		_ = g.Wait()
	}))
}

func shutdown(conf *core.Config, logger core.Logger, server *echoapi.Server) {
	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	// asking listener to shut down and shed load
	if err := server.Shutdown(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

		if err = server.Close(); err != nil {
			logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
		}
	}
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
