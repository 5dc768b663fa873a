package main

import (
	"context"
	"fmt"
	"os"

	"github.com/trezcool/tutorbook/core"
	"github.com/trezcool/tutorbook/core/lesson"
	logsvc "github.com/trezcool/tutorbook/services/logger"
	syncsvc "github.com/trezcool/tutorbook/services/sync"
	"github.com/trezcool/tutorbook/storage/database"
)

func main() {
	conf := core.NewConfig()

	zl, err := logsvc.NewZap(conf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "building logger: %v\n", err)
		os.Exit(1)
	}
	logger := logsvc.NewRollbarLogger(zl.Named("admin"), conf)
	logger.Enable(!conf.Debug)

	// set up storage
	ctx := context.Background()
	kv, err := database.Open(ctx, conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up %s storage: %v", conf.Storage.Driver, err), err)
	}

	v := core.NewValidator()
	lesson.InitValidators(v)
	slots := lesson.NewSlotPolicy(conf.Schedule.DayStart, conf.Schedule.DayEnd, conf.Schedule.MaxSuggestions)
	store := lesson.NewStore(ctx, lesson.StoreDeps{
		KV:         kv,
		Validator:  v,
		Logger:     logger,
		Key:        conf.Storage.LessonsKey,
		SlotPolicy: &slots,
	})

	// start CLI
	cli := commandLine{
		store: store,
		sync: syncsvc.NewService(syncsvc.Deps{
			KV:      kv,
			Store:   store,
			Logger:  logger,
			Gist:    conf.Gist,
			Storage: conf.Storage,
		}),
		out: os.Stdout,
		in:  os.Stdin,
	}
	err = cli.run(os.Args)

	_ = kv.Close()
	logger.Sync()
	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
