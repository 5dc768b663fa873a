package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/trezcool/tutorbook/core/lesson"
)

func (cli *commandLine) stats() error {
	s := lesson.Summarize(cli.store.All(), cli.now())

	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "lessons\t%d\n", s.TotalLessons)
	fmt.Fprintf(w, "students\t%d\n", s.UniqueStudents)
	fmt.Fprintf(w, "revenue this month\t%s\n", s.MonthlyRevenue.StringFixed(2))
	fmt.Fprintf(w, "paid / pending / overdue\t%d / %d / %d\n", s.Buckets.Paid, s.Buckets.Pending, s.Buckets.Overdue)
	fmt.Fprintf(w, "today\t%d lesson(s), %s\n", s.TodayLessons, s.TodayIncome.StringFixed(2))
	_ = w.Flush()

	if len(s.TopStudents) > 0 {
		fmt.Fprintln(cli.out, "\ntop students:")
		w = tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
		for i, st := range s.TopStudents {
			fmt.Fprintf(w, "%d.\t%s\t%d lesson(s)\t%s\n", i+1, st.Student, st.LessonCount, st.TotalPaid.StringFixed(2))
		}
		_ = w.Flush()
	}
	return nil
}

func (cli *commandLine) dayCmd(args []string) error {
	fs := cli.newFlagSet("day")
	date := fs.String("date", "", "The day (YYYY-MM-DD), defaults to today.")
	if err := parse(fs, args); err != nil {
		return err
	}
	day, err := cli.parseDay(*date)
	if err != nil {
		return err
	}

	lessons := lesson.ByDate(cli.store.All(), day)
	fmt.Fprintf(cli.out, "%s: %d lesson(s), income %s\n",
		day.Format(lesson.DateLayout), len(lessons), lesson.DayIncome(lessons, day).StringFixed(2))
	if len(lessons) > 0 {
		cli.printLessons(lessons)
	}
	return nil
}
