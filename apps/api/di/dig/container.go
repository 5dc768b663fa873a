package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/dig"
	"go.uber.org/zap"

	echoapi "github.com/trezcool/tutorbook/apps/api/echo"
	"github.com/trezcool/tutorbook/core"
	"github.com/trezcool/tutorbook/core/lesson"
	logsvc "github.com/trezcool/tutorbook/services/logger"
	syncsvc "github.com/trezcool/tutorbook/services/sync"
	"github.com/trezcool/tutorbook/storage/database"
)

type KVLoggerParam struct {
	dig.In
	Logger core.Logger `name:"kvLogger"`
}

func newZap(conf *core.Config) *zap.Logger {
	zl, err := logsvc.NewZap(conf)
	if err != nil {
		log.Fatalf("building zap logger: %v", err)
	}
	return zl
}

func newLogger(zl *zap.Logger, conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(zl.Named("api"), conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newKVLogger(zl *zap.Logger, conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(zl.Named("kv"), conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newValidator() *core.Validator {
	v := core.NewValidator()
	lesson.InitValidators(v)
	return v
}

func newKV(conf *core.Config, loggerParam KVLoggerParam) database.KV {
	kv, err := database.Open(context.Background(), conf, loggerParam.Logger)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up %s storage: %v", conf.Storage.Driver, err), err)
	}
	return kv
}

func newStore(conf *core.Config, kv database.KV, v *core.Validator, logger core.Logger) *lesson.Store {
	slots := lesson.NewSlotPolicy(conf.Schedule.DayStart, conf.Schedule.DayEnd, conf.Schedule.MaxSuggestions)
	return lesson.NewStore(context.Background(), lesson.StoreDeps{
		KV:         kv,
		Validator:  v,
		Logger:     logger,
		Key:        conf.Storage.LessonsKey,
		SlotPolicy: &slots,
	})
}

func newSyncService(conf *core.Config, kv database.KV, store *lesson.Store, logger core.Logger) *syncsvc.Service {
	return syncsvc.NewService(syncsvc.Deps{
		KV:      kv,
		Store:   store,
		Logger:  logger,
		Gist:    conf.Gist,
		Storage: conf.Storage,
	})
}

func newServer(
	conf *core.Config,
	logger core.Logger,
	v *core.Validator,
	store *lesson.Store,
	sync *syncsvc.Service,
) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:      conf,
		Logger:    logger,
		Validator: v,
		Store:     store,
		Sync:      sync,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newZap))
	must(c.Provide(newLogger))
	must(c.Provide(newKVLogger, dig.Name("kvLogger")))
	must(c.Provide(newValidator))
	must(c.Provide(newKV))
	must(c.Provide(newStore))
	must(c.Provide(newSyncService))
	must(c.Provide(newServer))

	if os.Getenv("DIG_VISUALIZE") != "" {
		_ = dig.Visualize(c, os.Stdout)
	}

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
