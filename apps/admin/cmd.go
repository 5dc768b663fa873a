package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"golang.org/x/term"

	"github.com/trezcool/tutorbook/core/lesson"
	syncsvc "github.com/trezcool/tutorbook/services/sync"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp     = errors.New("help provided")
	errConflict = errors.New("scheduling conflict, use -force to book anyway")
)

type commandLine struct {
	store *lesson.Store
	sync  *syncsvc.Service
	out   io.Writer
	in    io.Reader // backups are read from here when no file is given
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  add -student NAME -date YYYY-MM-DD -time HH:MM -price PRICE [-notes NOTES] [-force] - book a lesson")
	fmt.Fprintln(cli.out, "  edit -id ID [-student NAME] [-date YYYY-MM-DD] [-time HH:MM] [-price PRICE] [-notes NOTES] [-force] - edit a lesson")
	fmt.Fprintln(cli.out, "  list [-search TERM] [-status paid|pending|overdue] [-date D] [-week D] [-month M [-year Y]] [-ordering FIELDS] - list lessons")
	fmt.Fprintln(cli.out, "  rm -id ID - delete a lesson")
	fmt.Fprintln(cli.out, "  pay -id ID [-date YYYY-MM-DD] [-method METHOD] [-notes NOTES] - mark a lesson as paid")
	fmt.Fprintln(cli.out, "  unpay -id ID - mark a lesson as pending")
	fmt.Fprintln(cli.out, "  check -date YYYY-MM-DD -time HH:MM [-exclude ID] - check a time slot")
	fmt.Fprintln(cli.out, "  slots [-date YYYY-MM-DD] - suggest free time slots")
	fmt.Fprintln(cli.out, "  day [-date YYYY-MM-DD] - lessons & income of a day")
	fmt.Fprintln(cli.out, "  stats - dashboard statistics")
	fmt.Fprintln(cli.out, "  push | pull | info - sync with the remote gist")
	fmt.Fprintln(cli.out, "  settoken | cleartoken - manage the gist token. The token will be prompted")
	fmt.Fprintln(cli.out, "  export -format csv|json [-o FILE] - export lessons")
	fmt.Fprintln(cli.out, "  import [-f FILE] - replace all lessons with a json backup")
	fmt.Fprintln(cli.out, "  cleardata -yes - delete all lessons")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

// parse parses the command flags, mapping -h to errHelp.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errHelp
		}
		return err
	}
	return nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	cmd, rest := args[1], args[2:]
	switch cmd {
	case "add":
		return cli.addCmd(rest)
	case "edit":
		return cli.editCmd(rest)
	case "list":
		return cli.listCmd(rest)
	case "rm":
		return cli.removeCmd(rest)
	case "pay":
		return cli.payCmd(rest)
	case "unpay":
		return cli.unpayCmd(rest)
	case "check":
		return cli.checkCmd(rest)
	case "slots":
		return cli.slotsCmd(rest)
	case "day":
		return cli.dayCmd(rest)
	case "stats":
		return cli.stats()
	case "push":
		return cli.push()
	case "pull":
		return cli.pull()
	case "info":
		return cli.info()
	case "settoken":
		return cli.setToken()
	case "cleartoken":
		return cli.clearToken()
	case "export":
		return cli.exportCmd(rest)
	case "import":
		return cli.importCmd(rest)
	case "cleardata":
		return cli.clearDataCmd(rest)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) now() time.Time {
	return cli.store.Now()
}
