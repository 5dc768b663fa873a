package main

import (
	"context"
	"fmt"
	"syscall"

	"github.com/trezcool/tutorbook/core/lesson"
)

func (cli *commandLine) push() error {
	at, err := cli.sync.Push(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "lessons pushed at %s\n", at.Local().Format(lesson.DateLayout+" "+lesson.TimeLayout))
	return nil
}

func (cli *commandLine) pull() error {
	n, err := cli.sync.Pull(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d lesson(s) pulled\n", n)
	return nil
}

func (cli *commandLine) info() error {
	ctx := context.Background()
	if token := cli.sync.MaskedToken(ctx); token != "" {
		fmt.Fprintf(cli.out, "token: %s\n", token)
	} else {
		fmt.Fprintln(cli.out, "token: not configured")
	}

	info, err := cli.sync.Info(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "last update: %s (%s)\n", info.UpdatedAt.Local().Format(lesson.DateLayout+" "+lesson.TimeLayout), info.Source)
	fmt.Fprintf(cli.out, "size: %.2f KB\n", float64(info.Size)/1024)
	if info.URL != "" {
		fmt.Fprintf(cli.out, "url: %s\n", info.URL)
	}
	return nil
}

func (cli *commandLine) setToken() error {
	fmt.Fprint(cli.out, "Enter token:")
	token, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return err
	}
	if len(token) == 0 {
		return errHelp
	}
	if err = cli.sync.SetToken(context.Background(), string(token)); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "token %s saved\n", cli.sync.MaskedToken(context.Background()))
	return nil
}

func (cli *commandLine) clearToken() error {
	if err := cli.sync.ClearToken(context.Background()); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "token cleared")
	return nil
}
