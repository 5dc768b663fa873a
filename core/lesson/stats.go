package lesson

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTopStudents is the number of students TopStudents returns when no limit is given.
const DefaultTopStudents = 5

type (
	StudentTotal struct {
		Student     string          `json:"student"`
		LessonCount int             `json:"lessonCount"`
		TotalPaid   decimal.Decimal `json:"totalPaid"`
	}

	BucketCounts struct {
		Paid    int `json:"paid"`
		Pending int `json:"pending"`
		Overdue int `json:"overdue"`
	}

	Summary struct {
		TotalLessons   int             `json:"totalLessons"`
		MonthlyRevenue decimal.Decimal `json:"monthlyRevenue"`
		UniqueStudents int             `json:"uniqueStudents"`
		Buckets        BucketCounts    `json:"buckets"`
		TopStudents    []StudentTotal  `json:"topStudents"`
		TodayLessons   int             `json:"todayLessons"`
		TodayIncome    decimal.Decimal `json:"todayIncome"`
	}
)

// MonthlyRevenue sums the price of the paid lessons of the calendar month of `now`.
// Unpaid lessons never count as realized revenue.
func MonthlyRevenue(lessons []Lesson, now time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, l := range ByYearMonth(lessons, now.Year(), now.Month()) {
		if l.IsPaid() {
			total = total.Add(l.Price)
		}
	}
	return total
}

// UniqueStudentCount counts the distinct student names (exact, case-sensitive match).
func UniqueStudentCount(lessons []Lesson) int {
	seen := make(map[string]struct{}, len(lessons))
	for _, l := range lessons {
		seen[l.Student] = struct{}{}
	}
	return len(seen)
}

// TopStudents groups lessons by student and returns the `limit` students with the highest
// paid total, ties keeping the order in which the students first appear.
func TopStudents(lessons []Lesson, limit int) []StudentTotal {
	if limit <= 0 {
		limit = DefaultTopStudents
	}
	idx := make(map[string]int)
	totals := make([]StudentTotal, 0)
	for _, l := range lessons {
		i, ok := idx[l.Student]
		if !ok {
			i = len(totals)
			idx[l.Student] = i
			totals = append(totals, StudentTotal{Student: l.Student, TotalPaid: decimal.Zero})
		}
		totals[i].LessonCount++
		if l.IsPaid() {
			totals[i].TotalPaid = totals[i].TotalPaid.Add(l.Price)
		}
	}
	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].TotalPaid.GreaterThan(totals[j].TotalPaid)
	})
	if len(totals) > limit {
		totals = totals[:limit]
	}
	return totals
}

// PaymentBucketCounts counts lessons by derived status at `now`.
func PaymentBucketCounts(lessons []Lesson, now time.Time) BucketCounts {
	var counts BucketCounts
	for _, l := range lessons {
		switch DerivedStatus(l, now) {
		case StatusPaid:
			counts.Paid++
		case StatusOverdue:
			counts.Overdue++
		default:
			counts.Pending++
		}
	}
	return counts
}

// DayIncome sums the price of every lesson of `day`, paid or not.
func DayIncome(lessons []Lesson, day time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, l := range ByDate(lessons, day) {
		total = total.Add(l.Price)
	}
	return total
}

// MonthCalendar counts the lessons of each day of the given month: {day of month: count}.
func MonthCalendar(lessons []Lesson, year int, month time.Month) map[int]int {
	days := make(map[int]int)
	for _, l := range ByYearMonth(lessons, year, month) {
		days[l.ScheduledAt.Day()]++
	}
	return days
}

// Summarize computes the dashboard statistics at `now`.
func Summarize(lessons []Lesson, now time.Time) Summary {
	today := ByDate(lessons, now)
	return Summary{
		TotalLessons:   len(lessons),
		MonthlyRevenue: MonthlyRevenue(lessons, now),
		UniqueStudents: UniqueStudentCount(lessons),
		Buckets:        PaymentBucketCounts(lessons, now),
		TopStudents:    TopStudents(lessons, DefaultTopStudents),
		TodayLessons:   len(today),
		TodayIncome:    DayIncome(today, now),
	}
}
