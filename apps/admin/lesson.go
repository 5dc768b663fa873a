package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/trezcool/tutorbook/core/lesson"
)

func (cli *commandLine) printLessons(lessons []lesson.Lesson) {
	now := cli.now()
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTIME\tSTUDENT\tPRICE\tSTATUS")
	for _, l := range lessons {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			l.ID,
			l.ScheduledAt.Format(lesson.DateLayout),
			l.ScheduledAt.Format(lesson.TimeLayout),
			l.Student,
			l.Price.StringFixed(2),
			lesson.DerivedStatus(l, now),
		)
	}
	_ = w.Flush()
}

// checkSlot refuses a conflicting slot unless forced. Conflicts are listed either way.
func (cli *commandLine) checkSlot(date, clock, excludeID string, force bool) error {
	av, err := cli.store.CheckAvailability(date, clock, excludeID)
	if err != nil {
		return err
	}
	if av.Available {
		return nil
	}
	fmt.Fprintf(cli.out, "warning: %d lesson(s) less than %v away:\n", len(av.Conflicts), lesson.ConflictWindow)
	cli.printLessons(av.Conflicts)
	if !force {
		return errConflict
	}
	return nil
}

func (cli *commandLine) warnSimilar(student string) {
	if similar := lesson.SimilarStudents(cli.store.All(), student); len(similar) > 0 {
		fmt.Fprintf(cli.out, "warning: similar student name(s) already exist: %s\n", strings.Join(similar, ", "))
	}
}

func (cli *commandLine) addCmd(args []string) error {
	fs := cli.newFlagSet("add")
	student := fs.String("student", "", "The student's name.")
	date := fs.String("date", "", "The lesson date (YYYY-MM-DD).")
	clock := fs.String("time", "", "The lesson time (HH:MM).")
	price := fs.String("price", "", "The lesson price.")
	notes := fs.String("notes", "", "Optional notes.")
	force := fs.Bool("force", false, "Book even if the slot conflicts with another lesson.")
	if err := parse(fs, args); err != nil {
		return err
	}

	nl := lesson.NewLesson{
		Student: *student,
		Date:    *date,
		Time:    *clock,
		Price:   json.Number(*price),
		Notes:   *notes,
	}
	if nl.Date != "" && nl.Time != "" {
		if err := cli.checkSlot(nl.Date, nl.Time, "", *force); err != nil {
			return err
		}
	}
	cli.warnSimilar(nl.Student)

	l, err := cli.store.Create(context.Background(), nl)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "lesson %s booked\n", l.ID)
	return nil
}

func (cli *commandLine) editCmd(args []string) error {
	fs := cli.newFlagSet("edit")
	id := fs.String("id", "", "The lesson ID.")
	student := fs.String("student", "", "The student's name.")
	date := fs.String("date", "", "The lesson date (YYYY-MM-DD).")
	clock := fs.String("time", "", "The lesson time (HH:MM).")
	price := fs.String("price", "", "The lesson price.")
	notes := fs.String("notes", "", "Notes.")
	force := fs.Bool("force", false, "Move the lesson even if the slot conflicts with another lesson.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id == "" {
		fs.Usage()
		return errHelp
	}

	l, err := cli.store.Get(*id)
	if err != nil {
		return err
	}
	// unset flags keep the current values
	ul := lesson.UpdateLesson{
		Student: l.Student,
		Date:    l.ScheduledAt.Format(lesson.DateLayout),
		Time:    l.ScheduledAt.Format(lesson.TimeLayout),
		Price:   json.Number(l.Price.String()),
		Notes:   l.Notes,
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "student":
			ul.Student = *student
		case "date":
			ul.Date = *date
		case "time":
			ul.Time = *clock
		case "price":
			ul.Price = json.Number(*price)
		case "notes":
			ul.Notes = *notes
		}
	})

	if err = cli.checkSlot(ul.Date, ul.Time, l.ID, *force); err != nil {
		return err
	}
	if _, err = cli.store.Update(context.Background(), l.ID, ul); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "lesson %s updated\n", l.ID)
	return nil
}

func (cli *commandLine) listCmd(args []string) error {
	fs := cli.newFlagSet("list")
	var qf lesson.QueryFilter
	fs.StringVar(&qf.Search, "search", "", "Case-insensitive search on the student name.")
	fs.StringVar(&qf.Status, "status", "", "paid, pending or overdue.")
	fs.StringVar(&qf.Date, "date", "", "Lessons of a day (YYYY-MM-DD).")
	fs.StringVar(&qf.Week, "week", "", "Lessons of the week of a day (YYYY-MM-DD).")
	fs.IntVar(&qf.Month, "month", 0, "Lessons of a month (1-12), of any year unless -year is set.")
	fs.IntVar(&qf.Year, "year", 0, "The year of -month.")
	ordering := fs.String("ordering", "", "Comma separated fields (scheduledAt, student, price), prefixed by - for descending.")
	if err := parse(fs, args); err != nil {
		return err
	}
	qf.Clean()

	lessons, err := qf.Apply(cli.store.All(), cli.now())
	if err != nil {
		return err
	}
	lesson.Sort(lessons, lesson.ParseOrdering(*ordering)...)
	cli.printLessons(lessons)
	return nil
}

func (cli *commandLine) removeCmd(args []string) error {
	fs := cli.newFlagSet("rm")
	id := fs.String("id", "", "The lesson ID.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id == "" {
		fs.Usage()
		return errHelp
	}
	if err := cli.store.Remove(context.Background(), *id); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "lesson %s deleted\n", *id)
	return nil
}

func (cli *commandLine) checkCmd(args []string) error {
	fs := cli.newFlagSet("check")
	date := fs.String("date", "", "The date (YYYY-MM-DD).")
	clock := fs.String("time", "", "The time (HH:MM).")
	exclude := fs.String("exclude", "", "The lesson being moved, if any.")
	if err := parse(fs, args); err != nil {
		return err
	}

	av, err := cli.store.CheckAvailability(*date, *clock, *exclude)
	if err != nil {
		return err
	}
	if av.Available {
		fmt.Fprintf(cli.out, "%s %s is available\n", *date, *clock)
		return nil
	}
	fmt.Fprintf(cli.out, "%s %s conflicts with:\n", *date, *clock)
	cli.printLessons(av.Conflicts)
	return nil
}

// parseDay parses an optional YYYY-MM-DD flag value, defaulting to today.
func (cli *commandLine) parseDay(val string) (time.Time, error) {
	if val == "" {
		y, m, d := cli.now().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.Local), nil
	}
	return lesson.ParseDate(val)
}

func (cli *commandLine) slotsCmd(args []string) error {
	fs := cli.newFlagSet("slots")
	date := fs.String("date", "", "The day (YYYY-MM-DD), defaults to today.")
	if err := parse(fs, args); err != nil {
		return err
	}
	day, err := cli.parseDay(*date)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "free slots on %s: %s\n", day.Format(lesson.DateLayout), strings.Join(cli.store.SuggestSlots(day), " "))
	return nil
}
