package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/tutorbook/core/lesson"
	exportsvc "github.com/trezcool/tutorbook/services/export"
)

func (cli *commandLine) exportCmd(args []string) error {
	fs := cli.newFlagSet("export")
	format := fs.String("format", "json", "csv or json.")
	output := fs.String("o", "", "The output file, defaults to stdout.")
	if err := parse(fs, args); err != nil {
		return err
	}

	var w io.Writer = cli.out
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return errors.Wrap(err, "creating export file")
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	lessons := lesson.SortByTime(cli.store.All())
	switch *format {
	case "csv":
		return exportsvc.WriteCSV(w, lessons, cli.now())
	case "json":
		return exportsvc.WriteJSON(w, lessons)
	default:
		fs.Usage()
		return errHelp
	}
}

func (cli *commandLine) importCmd(args []string) error {
	fs := cli.newFlagSet("import")
	input := fs.String("f", "", "The json backup file, defaults to stdin.")
	if err := parse(fs, args); err != nil {
		return err
	}

	r := cli.in
	if *input != "" {
		f, err := os.Open(*input)
		if err != nil {
			return errors.Wrap(err, "opening backup")
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	lessons, err := exportsvc.ReadJSON(r)
	if err != nil {
		return err
	}
	if err = cli.store.Replace(context.Background(), lessons); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d lesson(s) imported\n", len(lessons))
	return nil
}

func (cli *commandLine) clearDataCmd(args []string) error {
	fs := cli.newFlagSet("cleardata")
	yes := fs.Bool("yes", false, "Confirm the deletion of every lesson.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if !*yes {
		fs.Usage()
		return errHelp
	}

	n := len(cli.store.All())
	if err := cli.sync.ClearData(context.Background()); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d lesson(s) deleted\n", n)
	return nil
}
