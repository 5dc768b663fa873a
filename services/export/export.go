package exportsvc

import (
	"encoding/csv"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/tutorbook/core"
	"github.com/trezcool/tutorbook/core/lesson"
)

var csvHeader = []string{
	"id", "student", "date", "time", "price", "paymentState", "derivedStatus", "paidAt", "paymentMethod", "paymentNotes",
	"notes",
}

// WriteCSV writes one row per lesson, in the given order. The derived status is computed at `now`.
func WriteCSV(w io.Writer, lessons []lesson.Lesson, now time.Time) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return errors.Wrap(err, "writing csv header")
	}
	for _, l := range lessons {
		var paidAt string
		if l.PaidAt != nil {
			paidAt = l.PaidAt.Format(lesson.DateLayout)
		}
		row := []string{
			l.ID,
			l.Student,
			l.ScheduledAt.Format(lesson.DateLayout),
			l.ScheduledAt.Format(lesson.TimeLayout),
			l.Price.String(),
			string(l.PaymentState),
			string(l.Status(now)),
			paidAt,
			l.PaymentMethod,
			l.PaymentNotes,
			l.Notes,
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "writing lesson %s", l.ID)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing csv")
}

// WriteJSON writes a backup: the collection in its persisted format.
func WriteJSON(w io.Writer, lessons []lesson.Lesson) error {
	data, err := lesson.Encode(lessons)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return errors.Wrap(err, "writing backup")
}

// ReadJSON reads a backup written by WriteJSON (or pulled from a remote copy).
func ReadJSON(r io.Reader) ([]lesson.Lesson, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading backup")
	}
	lessons, err := lesson.Decode(data)
	if err != nil {
		return nil, core.NewValidationError(errors.Wrap(err, "invalid backup"))
	}
	return lessons, nil
}

// Filename returns the suggested file name of an export made on `now`.
func Filename(now time.Time, ext string) string {
	return "lessons-backup-" + now.Format(lesson.DateLayout) + "." + ext
}
