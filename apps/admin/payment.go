package main

import (
	"context"
	"fmt"

	"github.com/trezcool/tutorbook/core/lesson"
)

func (cli *commandLine) payCmd(args []string) error {
	fs := cli.newFlagSet("pay")
	id := fs.String("id", "", "The lesson ID.")
	date := fs.String("date", "", "The payment date (YYYY-MM-DD), defaults to today.")
	method := fs.String("method", "", "The payment method.")
	notes := fs.String("notes", "", "Payment notes.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id == "" {
		fs.Usage()
		return errHelp
	}

	l, err := cli.store.MarkPaid(context.Background(), *id, lesson.Payment{PaidAt: *date, Method: *method, Notes: *notes})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "lesson %s paid on %s (%s)\n", l.ID, l.PaidAt.Format(lesson.DateLayout), lesson.PaymentTiming(l))
	return nil
}

func (cli *commandLine) unpayCmd(args []string) error {
	fs := cli.newFlagSet("unpay")
	id := fs.String("id", "", "The lesson ID.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id == "" {
		fs.Usage()
		return errHelp
	}

	l, err := cli.store.MarkPending(context.Background(), *id)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "lesson %s is %s\n", l.ID, lesson.DerivedStatus(l, cli.now()))
	return nil
}
