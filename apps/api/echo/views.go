package echoapi

import (
	"encoding/json"
	"time"

	"github.com/trezcool/tutorbook/core/lesson"
)

type (
	// LessonView is a Lesson along with its derived payment status.
	LessonView struct {
		ID            string              `json:"id"`
		Student       string              `json:"student"`
		Date          string              `json:"date"`
		Time          string              `json:"time"`
		ScheduledAt   time.Time           `json:"scheduledAt"`
		Price         json.Number         `json:"price"`
		Notes         string              `json:"notes"`
		PaymentState  lesson.PaymentState `json:"paymentState"`
		Status        lesson.Status       `json:"status"`
		Timing        lesson.Timing       `json:"timing"`
		PaidAt        string              `json:"paidAt,omitempty"`
		PaymentMethod string              `json:"paymentMethod,omitempty"`
		PaymentNotes  string              `json:"paymentNotes,omitempty"`
	}

	Warnings struct {
		Conflicts       []LessonView `json:"conflicts"`
		SimilarStudents []string     `json:"similarStudents"`
	}

	// WriteResponse is returned by create & update: the lesson and the advisory warnings.
	WriteResponse struct {
		Lesson   LessonView `json:"lesson"`
		Warnings Warnings   `json:"warnings"`
	}

	AvailabilityResponse struct {
		Available bool         `json:"available"`
		Conflicts []LessonView `json:"conflicts"`
	}
)

func newLessonView(l lesson.Lesson, now time.Time) LessonView {
	v := LessonView{
		ID:            l.ID,
		Student:       l.Student,
		Date:          l.ScheduledAt.Format(lesson.DateLayout),
		Time:          l.ScheduledAt.Format(lesson.TimeLayout),
		ScheduledAt:   l.ScheduledAt,
		Price:         json.Number(l.Price.String()),
		Notes:         l.Notes,
		PaymentState:  l.PaymentState,
		Status:        lesson.DerivedStatus(l, now),
		Timing:        lesson.PaymentTiming(l),
		PaymentMethod: l.PaymentMethod,
		PaymentNotes:  l.PaymentNotes,
	}
	if l.PaidAt != nil {
		v.PaidAt = l.PaidAt.Format(lesson.DateLayout)
	}
	return v
}

func newLessonViews(lessons []lesson.Lesson, now time.Time) []LessonView {
	views := make([]LessonView, 0, len(lessons))
	for _, l := range lessons {
		views = append(views, newLessonView(l, now))
	}
	return views
}
