package lesson

import "time"

// OverdueAfterDays is the number of days an unpaid lesson stays pending before it is overdue.
// The same bound separates on-time from late payments.
const OverdueAfterDays = 7

// civilDate returns the calendar date of t (in t's location) as UTC midnight,
// so that differences between dates are exact multiples of 24h whatever the DST rules.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the number of calendar days from `from` to `to` (negative when to is before from).
func daysBetween(from, to time.Time) int {
	return int(civilDate(to).Sub(civilDate(from)) / (24 * time.Hour))
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DerivedStatus computes the display status of l at `now`:
// paid lessons are paid, unpaid lessons more than OverdueAfterDays days in the past are overdue.
func DerivedStatus(l Lesson, now time.Time) Status {
	if l.IsPaid() {
		return StatusPaid
	}
	if daysBetween(l.ScheduledAt, now) > OverdueAfterDays {
		return StatusOverdue
	}
	return StatusPending
}

// PaymentTiming classifies the payment date of l against its lesson date.
func PaymentTiming(l Lesson) Timing {
	if !l.IsPaid() || l.PaidAt == nil {
		return TimingNone
	}
	diff := daysBetween(l.ScheduledAt, *l.PaidAt)
	switch {
	case diff < 0:
		return TimingEarly
	case diff > OverdueAfterDays:
		return TimingLate
	default:
		return TimingOnTime
	}
}
