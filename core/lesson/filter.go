package lesson

import (
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/tutorbook/core"
)

// All filters below return a new slice and never mutate their input.

func filter(lessons []Lesson, keep func(Lesson) bool) []Lesson {
	res := make([]Lesson, 0, len(lessons))
	for _, l := range lessons {
		if keep(l) {
			res = append(res, l)
		}
	}
	return res
}

// SortByTime returns a copy of lessons sorted by ascending ScheduledAt.
func SortByTime(lessons []Lesson) []Lesson {
	res := make([]Lesson, len(lessons))
	copy(res, lessons)
	sortByTime(res)
	return res
}

// ByDate returns the lessons of the calendar day of `day`, by ascending time of day.
func ByDate(lessons []Lesson, day time.Time) []Lesson {
	res := filter(lessons, func(l Lesson) bool { return sameDay(l.ScheduledAt, day) })
	sortByTime(res)
	return res
}

// WeekStart returns the local midnight of the Monday at or before t.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7 // Monday: 0 .. Sunday: 6
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

// ByWeek returns the lessons of the Monday to Sunday week containing `anchor`, ascending.
func ByWeek(lessons []Lesson, anchor time.Time) []Lesson {
	from := WeekStart(anchor)
	to := from.AddDate(0, 0, 7)
	res := filter(lessons, func(l Lesson) bool {
		return !l.ScheduledAt.Before(from) && l.ScheduledAt.Before(to)
	})
	sortByTime(res)
	return res
}

// BySearchTerm does a case-insensitive substring match of term on the student name.
func BySearchTerm(lessons []Lesson, term string) []Lesson {
	term = strings.ToLower(core.CleanString(term))
	return filter(lessons, func(l Lesson) bool {
		return strings.Contains(strings.ToLower(l.Student), term)
	})
}

// ByPaymentStatus keeps the lessons whose derived status at `now` is `status`.
func ByPaymentStatus(lessons []Lesson, status Status, now time.Time) []Lesson {
	return filter(lessons, func(l Lesson) bool { return DerivedStatus(l, now) == status })
}

// ByMonth keeps the lessons of the given calendar month, whatever their year.
// March returns the lessons of every March; use ByYearMonth to pin the year.
func ByMonth(lessons []Lesson, month time.Month) []Lesson {
	return filter(lessons, func(l Lesson) bool { return l.ScheduledAt.Month() == month })
}

// ByYearMonth keeps the lessons of the given month of the given year.
func ByYearMonth(lessons []Lesson, year int, month time.Month) []Lesson {
	return filter(lessons, func(l Lesson) bool {
		return l.ScheduledAt.Year() == year && l.ScheduledAt.Month() == month
	})
}

type QueryFilter struct {
	Search string `query:"search"`
	Status string `query:"status"`
	Date   string `query:"date"` // YYYY-MM-DD
	Week   string `query:"week"` // any date of the week
	Month  int    `query:"month"`
	Year   int    `query:"year"` // only used along with Month
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Status == "" && qf.Date == "" && qf.Week == "" && qf.Month == 0
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = core.CleanString(qf.Status, true)
	qf.Date = core.CleanString(qf.Date)
	qf.Week = core.CleanString(qf.Week)
}

// Apply applies an AND of the set criteria, the result is sorted by ascending ScheduledAt.
func (qf *QueryFilter) Apply(lessons []Lesson, now time.Time) ([]Lesson, error) {
	res := SortByTime(lessons)
	if qf.Date != "" {
		day, err := ParseDate(qf.Date)
		if err != nil {
			return nil, core.NewValidationError(errors.Wrap(err, "parsing date"), core.FieldError{Field: "date", Error: "date has an invalid format"})
		}
		res = ByDate(res, day)
	}
	if qf.Week != "" {
		anchor, err := ParseDate(qf.Week)
		if err != nil {
			return nil, core.NewValidationError(errors.Wrap(err, "parsing week"), core.FieldError{Field: "week", Error: "week has an invalid format"})
		}
		res = ByWeek(res, anchor)
	}
	if qf.Month != 0 {
		if qf.Month < 1 || qf.Month > 12 {
			return nil, core.NewValidationError(nil, core.FieldError{Field: "month", Error: "month must be between 1 and 12"})
		}
		if qf.Year != 0 {
			res = ByYearMonth(res, qf.Year, time.Month(qf.Month))
		} else {
			res = ByMonth(res, time.Month(qf.Month))
		}
	}
	if qf.Status != "" {
		status := Status(qf.Status)
		if !status.Valid() {
			return nil, core.NewValidationError(nil, core.FieldError{Field: "status", Error: "status must be one of paid, pending, overdue"})
		}
		res = ByPaymentStatus(res, status, now)
	}
	if qf.Search != "" {
		res = BySearchTerm(res, qf.Search)
	}
	return res, nil
}

// Ordering fields
const (
	OrderScheduledAt = "scheduledAt"
	OrderStudent     = "student"
	OrderPrice       = "price"
)

type Ordering struct {
	Field     string
	Ascending bool
}

// ParseOrdering reads comma separated fields, each prefixed by "-" for descending: "student,-price".
func ParseOrdering(val string) []Ordering {
	var orderings []Ordering
	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		orderings = append(orderings, Ordering{Field: field, Ascending: !descending})
	}
	return orderings
}

// Sort sorts lessons in place by the given orderings, unknown fields are ignored.
func Sort(lessons []Lesson, orderings ...Ordering) {
	if len(orderings) == 0 {
		return
	}
	sort.SliceStable(lessons, func(i, j int) bool {
		for _, ord := range orderings {
			var c int
			switch ord.Field {
			case OrderScheduledAt:
				c = compareTime(lessons[i].ScheduledAt, lessons[j].ScheduledAt)
			case OrderStudent:
				c = strings.Compare(strings.ToLower(lessons[i].Student), strings.ToLower(lessons[j].Student))
			case OrderPrice:
				c = lessons[i].Price.Cmp(lessons[j].Price)
			}
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}
