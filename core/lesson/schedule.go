package lesson

import (
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/tutorbook/core"
)

// ConflictWindow is the radius around a lesson within which another booking is flagged.
const ConflictWindow = 30 * time.Minute

// Availability is the advisory result of a scheduling check; conflicts never block a write.
type Availability struct {
	Available bool     `json:"available"`
	Conflicts []Lesson `json:"conflicts"`
}

// Conflicts returns every lesson (but excludeID) scheduled strictly less than ConflictWindow
// away from `at`, before or after it, in chronological order.
func Conflicts(lessons []Lesson, at time.Time, excludeID string) []Lesson {
	conflicts := make([]Lesson, 0)
	for _, l := range lessons {
		if excludeID != "" && l.ID == excludeID {
			continue
		}
		diff := l.ScheduledAt.Sub(at)
		if diff < 0 {
			diff = -diff
		}
		if diff < ConflictWindow {
			conflicts = append(conflicts, l)
		}
	}
	sortByTime(conflicts)
	return conflicts
}

// CheckAvailability checks whether a lesson can be booked on `date` at `clock`.
// excludeID is the lesson being edited, if any.
func CheckAvailability(lessons []Lesson, date, clock, excludeID string) (Availability, error) {
	at, err := ParseDateTime(core.CleanString(date), core.CleanString(clock))
	if err != nil {
		return Availability{}, core.NewValidationError(errors.Wrap(err, "parsing date and time"),
			core.FieldError{Field: "date", Error: "invalid date or time"})
	}
	conflicts := Conflicts(lessons, at, excludeID)
	return Availability{Available: len(conflicts) == 0, Conflicts: conflicts}, nil
}

// SlotPolicy describes the bookable slots of a day.
type SlotPolicy struct {
	DayStart time.Duration // offset from midnight of the first slot
	DayEnd   time.Duration // offset from midnight of the last slot (inclusive)
	Step     time.Duration
	Max      int // suggestions returned at most
}

// DefaultSlotPolicy offers half-hour slots from 08:00 to 20:00 and suggests up to 8 of them.
var DefaultSlotPolicy = SlotPolicy{
	DayStart: 8 * time.Hour,
	DayEnd:   20 * time.Hour,
	Step:     30 * time.Minute,
	Max:      8,
}

// NewSlotPolicy builds a SlotPolicy from "HH:MM" bounds; invalid or empty values keep the defaults.
func NewSlotPolicy(dayStart, dayEnd string, max int) SlotPolicy {
	p := DefaultSlotPolicy
	if d, ok := parseClock(dayStart); ok {
		p.DayStart = d
	}
	if d, ok := parseClock(dayEnd); ok && d >= p.DayStart {
		p.DayEnd = d
	}
	if max > 0 {
		p.Max = max
	}
	return p
}

func parseClock(s string) (time.Duration, bool) {
	t, err := time.Parse(TimeLayout, core.CleanString(s))
	if err != nil {
		return 0, false
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, true
}

func formatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
}

// Slots enumerates every slot of the day as "HH:MM".
func (p SlotPolicy) Slots() []string {
	if p.Step <= 0 {
		return nil
	}
	slots := make([]string, 0, int((p.DayEnd-p.DayStart)/p.Step)+1)
	for d := p.DayStart; d <= p.DayEnd; d += p.Step {
		slots = append(slots, formatClock(d))
	}
	return slots
}

// Suggest returns up to p.Max free slots of `day`, in chronological order.
// A slot is taken only when a lesson starts exactly at that time.
func (p SlotPolicy) Suggest(lessons []Lesson, day time.Time) []string {
	booked := make(map[string]struct{})
	for _, l := range lessons {
		if sameDay(l.ScheduledAt, day) {
			booked[l.ScheduledAt.Format(TimeLayout)] = struct{}{}
		}
	}
	free := make([]string, 0, p.Max)
	for _, slot := range p.Slots() {
		if len(free) >= p.Max {
			break
		}
		if _, ok := booked[slot]; !ok {
			free = append(free, slot)
		}
	}
	return free
}

// SuggestSlots returns the free slots of `day` using the DefaultSlotPolicy.
func SuggestSlots(lessons []Lesson, day time.Time) []string {
	return DefaultSlotPolicy.Suggest(lessons, day)
}

func sortByTime(lessons []Lesson) {
	sort.SliceStable(lessons, func(i, j int) bool {
		return lessons[i].ScheduledAt.Before(lessons[j].ScheduledAt)
	})
}
