package lesson

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trezcool/tutorbook/core"
)

// Layouts of the date and time inputs (HTML date & time fields).
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// PaymentState is the stored, authoritative payment flag of a Lesson.
type PaymentState string

const (
	StatePending PaymentState = "pending"
	StatePaid    PaymentState = "paid"
)

// Status is the payment state as computed for display.
type Status string

const (
	StatusPaid    Status = "paid"
	StatusPending Status = "pending"
	StatusOverdue Status = "overdue"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPaid, StatusPending, StatusOverdue:
		return true
	}
	return false
}

// Timing classifies how early or late a payment was relative to the lesson date.
type Timing string

const (
	TimingNone   Timing = "none"
	TimingEarly  Timing = "early"
	TimingOnTime Timing = "onTime"
	TimingLate   Timing = "late"
)

type Lesson struct {
	ID            string
	Student       string
	ScheduledAt   time.Time // local time
	Price         decimal.Decimal
	Notes         string
	PaymentState  PaymentState
	PaidAt        *time.Time
	PaymentMethod string
	PaymentNotes  string
}

func (l Lesson) IsPaid() bool {
	return l.PaymentState == StatePaid
}

// Status returns the derived payment status of the Lesson at `now`.
func (l Lesson) Status(now time.Time) Status {
	return DerivedStatus(l, now)
}

// Timing returns the payment timing of the Lesson.
func (l Lesson) Timing() Timing {
	return PaymentTiming(l)
}

// markPending clears all the payment details along with the flag.
func (l *Lesson) markPending() {
	l.PaymentState = StatePending
	l.PaidAt = nil
	l.PaymentMethod = ""
	l.PaymentNotes = ""
}

// NewLesson contains information needed to create a new Lesson.
type NewLesson struct {
	Student string      `json:"student" validate:"required"`
	Date    string      `json:"date" validate:"required,datetime=2006-01-02"`
	Time    string      `json:"time" validate:"required,datetime=15:04"`
	Price   json.Number `json:"price" validate:"required,price"`
	Notes   string      `json:"notes"`
}

func (nl *NewLesson) clean() {
	nl.Student = core.CleanString(nl.Student)
	nl.Date = core.CleanString(nl.Date)
	nl.Time = core.CleanString(nl.Time)
	nl.Price = json.Number(core.CleanString(string(nl.Price)))
	nl.Notes = core.CleanString(nl.Notes)
}

func (nl *NewLesson) Validate(v *core.Validator) error {
	nl.clean()
	return v.Check(nl)
}

// UpdateLesson carries every mutable field of a Lesson: an update replaces them all.
type UpdateLesson = NewLesson

// Payment contains the details recorded when a Lesson is marked as paid.
type Payment struct {
	PaidAt string `json:"paidAt" validate:"omitempty,datetime=2006-01-02"` // defaults to today
	Method string `json:"paymentMethod"`
	Notes  string `json:"paymentNotes"`
}

func (p *Payment) Validate(v *core.Validator) error {
	p.PaidAt = core.CleanString(p.PaidAt)
	p.Method = core.CleanString(p.Method)
	p.Notes = core.CleanString(p.Notes)
	return v.Check(p)
}

// ParseDateTime combines a date and a time input into a local instant.
func ParseDateTime(date, clock string) (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+clock, time.Local)
}

// ParseDate parses a date input into local midnight of that day.
func ParseDate(date string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, date, time.Local)
}
