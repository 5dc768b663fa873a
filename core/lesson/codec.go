package lesson

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// record is the persisted shape of a Lesson. Every field is always written, so that export,
// import and remote sync see the same field set.
type record struct {
	ID            string       `json:"id"`
	Student       string       `json:"student"`
	ScheduledAt   time.Time    `json:"scheduledAt"`
	Price         json.Number  `json:"price"`
	Notes         string       `json:"notes"`
	PaymentState  PaymentState `json:"paymentState"`
	PaidAt        *time.Time   `json:"paidAt"`
	PaymentMethod string       `json:"paymentMethod"`
	PaymentNotes  string       `json:"paymentNotes"`
}

func (l Lesson) MarshalJSON() ([]byte, error) {
	rec := record{
		ID:            l.ID,
		Student:       l.Student,
		ScheduledAt:   l.ScheduledAt,
		Price:         json.Number(l.Price.String()),
		Notes:         l.Notes,
		PaymentState:  l.PaymentState,
		PaidAt:        l.PaidAt,
		PaymentMethod: l.PaymentMethod,
		PaymentNotes:  l.PaymentNotes,
	}
	if rec.PaymentState == "" {
		rec.PaymentState = StatePending
	}
	return json.Marshal(rec)
}

func (l *Lesson) UnmarshalJSON(data []byte) error {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	if rec.ID == "" {
		return errors.New("lesson without id")
	}
	price, err := decimal.NewFromString(string(rec.Price))
	if err != nil {
		return errors.Wrapf(err, "lesson %s: parsing price", rec.ID)
	}

	*l = Lesson{
		ID:            rec.ID,
		Student:       rec.Student,
		ScheduledAt:   rec.ScheduledAt.Local(),
		Price:         price,
		Notes:         rec.Notes,
		PaymentState:  rec.PaymentState,
		PaymentMethod: rec.PaymentMethod,
		PaymentNotes:  rec.PaymentNotes,
	}
	if rec.PaidAt != nil {
		paidAt := rec.PaidAt.Local()
		l.PaidAt = &paidAt
	}
	// payment details only exist along with the paid flag
	if l.PaymentState != StatePaid {
		l.markPending()
	}
	return nil
}

// Encode serializes the collection as a JSON array.
func Encode(lessons []Lesson) ([]byte, error) {
	if lessons == nil {
		lessons = []Lesson{}
	}
	data, err := json.Marshal(lessons)
	if err != nil {
		return nil, errors.Wrap(err, "encoding lessons")
	}
	return data, nil
}

// Decode deserializes a JSON array of lessons, rejecting duplicated ids.
func Decode(data []byte) ([]Lesson, error) {
	var lessons []Lesson
	if err := json.Unmarshal(data, &lessons); err != nil {
		return nil, errors.Wrap(err, "decoding lessons")
	}
	seen := make(map[string]struct{}, len(lessons))
	for _, l := range lessons {
		if _, ok := seen[l.ID]; ok {
			return nil, errors.Errorf("decoding lessons: duplicated id %s", l.ID)
		}
		seen[l.ID] = struct{}{}
	}
	if lessons == nil {
		lessons = []Lesson{}
	}
	return lessons, nil
}
