package lesson

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/tutorbook/core"
)

// DefaultKey is the key the collection is stored under.
const DefaultKey = "lessons"

var (
	// errors
	ErrNotFound = errors.New("lesson not found")

	newID = uuid.NewString // mockable
)

type (
	StoreDeps struct {
		KV         core.KVStore
		Validator  *core.Validator
		Logger     core.Logger
		Key        string           // defaults to DefaultKey
		NowFunc    func() time.Time // defaults to time.Now
		SlotPolicy *SlotPolicy      // defaults to DefaultSlotPolicy
	}

	// Store exclusively owns the in-memory lesson collection.
	// Its persisted copy is a mirror written after every successful mutation.
	Store struct {
		kv       core.KVStore
		validate *core.Validator
		logger   core.Logger
		key      string
		now      func() time.Time
		slots    SlotPolicy

		mu      sync.RWMutex
		lessons []Lesson
	}
)

// NewStore builds a Store and loads the persisted collection.
func NewStore(ctx context.Context, deps StoreDeps) *Store {
	s := &Store{
		kv:       deps.KV,
		validate: deps.Validator,
		logger:   deps.Logger,
		key:      deps.Key,
		now:      deps.NowFunc,
		slots:    DefaultSlotPolicy,
	}
	if s.key == "" {
		s.key = DefaultKey
	}
	if s.now == nil {
		s.now = time.Now
	}
	if deps.SlotPolicy != nil {
		s.slots = *deps.SlotPolicy
	}
	s.lessons = s.Load(ctx)
	return s
}

func (s *Store) Key() string { return s.key }

// Now returns the current time of the Store's clock.
func (s *Store) Now() time.Time { return s.now() }

// Load reads the persisted collection. It never fails: missing data loads as an empty
// collection, corrupt or unreadable data is logged and loads as an empty collection too.
func (s *Store) Load(ctx context.Context) []Lesson {
	data, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if errors.Cause(err) != core.ErrKeyNotFound {
			s.logger.Warn("loading lessons: reading store", err)
		}
		return []Lesson{}
	}
	lessons, err := Decode(data)
	if err != nil {
		s.logger.Warn("loading lessons: corrupt data ignored", err)
		return []Lesson{}
	}
	return lessons
}

// Save persists the full collection. It returns a *core.PersistenceError on failure.
func (s *Store) Save(ctx context.Context, lessons []Lesson) error {
	data, err := Encode(lessons)
	if err != nil {
		return err
	}
	if err = s.kv.Set(ctx, s.key, data); err != nil {
		return core.NewPersistenceError("saving lessons", s.key, err)
	}
	return nil
}

// Reload replaces the in-memory collection with the persisted one (last write wins).
func (s *Store) Reload(ctx context.Context) int {
	lessons := s.Load(ctx)
	s.mu.Lock()
	s.lessons = lessons
	s.mu.Unlock()
	return len(lessons)
}

// commit persists `lessons` and, only if that succeeded, makes them the in-memory collection.
// callers hold s.mu.
func (s *Store) commit(ctx context.Context, lessons []Lesson) error {
	if err := s.Save(ctx, lessons); err != nil {
		return err
	}
	s.lessons = lessons
	return nil
}

func (s *Store) snapshot() []Lesson {
	res := make([]Lesson, len(s.lessons))
	copy(res, s.lessons)
	return res
}

func (s *Store) indexOf(id string) int {
	for i, l := range s.lessons {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// All returns a copy of the collection, in storage order.
func (s *Store) All() []Lesson {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *Store) Get(id string) (Lesson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.lessons[i], nil
	}
	return Lesson{}, ErrNotFound
}

// generateID returns an id unused by the collection. callers hold s.mu.
func (s *Store) generateID() string {
	for {
		id := newID()
		if s.indexOf(id) < 0 {
			return id
		}
	}
}

func scheduleOf(in NewLesson) (time.Time, decimal.Decimal, error) {
	at, err := ParseDateTime(in.Date, in.Time)
	if err != nil {
		return time.Time{}, decimal.Decimal{}, errors.Wrap(err, "parsing date and time")
	}
	price, err := decimal.NewFromString(string(in.Price))
	if err != nil {
		return time.Time{}, decimal.Decimal{}, errors.Wrap(err, "parsing price")
	}
	return at, price, nil
}

// Create validates the input and appends a new pending Lesson.
func (s *Store) Create(ctx context.Context, nl NewLesson) (Lesson, error) {
	if err := nl.Validate(s.validate); err != nil {
		return Lesson{}, err
	}
	at, price, err := scheduleOf(nl)
	if err != nil {
		return Lesson{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l := Lesson{
		ID:           s.generateID(),
		Student:      nl.Student,
		ScheduledAt:  at,
		Price:        price,
		Notes:        nl.Notes,
		PaymentState: StatePending,
	}
	if err = s.commit(ctx, append(s.snapshot(), l)); err != nil {
		return Lesson{}, err
	}
	return l, nil
}

// update applies fn to a copy of the lesson `id` and commits the result.
func (s *Store) update(ctx context.Context, id string, fn func(l *Lesson)) (Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Lesson{}, ErrNotFound
	}
	lessons := s.snapshot()
	fn(&lessons[i])
	if err := s.commit(ctx, lessons); err != nil {
		return Lesson{}, err
	}
	return lessons[i], nil
}

// Update replaces every mutable field of the lesson `id`. The payment details are kept.
func (s *Store) Update(ctx context.Context, id string, ul UpdateLesson) (Lesson, error) {
	if err := ul.Validate(s.validate); err != nil {
		return Lesson{}, err
	}
	at, price, err := scheduleOf(ul)
	if err != nil {
		return Lesson{}, err
	}
	return s.update(ctx, id, func(l *Lesson) {
		l.Student = ul.Student
		l.ScheduledAt = at
		l.Price = price
		l.Notes = ul.Notes
	})
}

// MarkPaid flags the lesson `id` as paid. PaidAt defaults to today.
func (s *Store) MarkPaid(ctx context.Context, id string, p Payment) (Lesson, error) {
	if err := p.Validate(s.validate); err != nil {
		return Lesson{}, err
	}
	var paidAt time.Time
	if p.PaidAt != "" {
		d, err := ParseDate(p.PaidAt)
		if err != nil {
			return Lesson{}, errors.Wrap(err, "parsing payment date")
		}
		paidAt = d
	} else {
		y, m, d := s.now().Date()
		paidAt = time.Date(y, m, d, 0, 0, 0, 0, time.Local)
	}
	return s.update(ctx, id, func(l *Lesson) {
		l.PaymentState = StatePaid
		l.PaidAt = &paidAt
		l.PaymentMethod = p.Method
		l.PaymentNotes = p.Notes
	})
}

// MarkPending reverts the lesson `id` to pending, clearing every payment detail.
func (s *Store) MarkPending(ctx context.Context, id string) (Lesson, error) {
	return s.update(ctx, id, func(l *Lesson) { l.markPending() })
}

// Remove deletes the lesson `id`. Removing an unknown id is a no-op.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil
	}
	lessons := make([]Lesson, 0, len(s.lessons)-1)
	lessons = append(lessons, s.lessons[:i]...)
	lessons = append(lessons, s.lessons[i+1:]...)
	return s.commit(ctx, lessons)
}

// Replace swaps the whole collection, e.g. when a backup is imported.
func (s *Store) Replace(ctx context.Context, lessons []Lesson) error {
	seen := make(map[string]struct{}, len(lessons))
	for _, l := range lessons {
		if l.ID == "" {
			return core.NewValidationError(errors.New("lesson without id"))
		}
		if _, ok := seen[l.ID]; ok {
			return core.NewValidationError(errors.Errorf("duplicated lesson id %s", l.ID))
		}
		seen[l.ID] = struct{}{}
	}
	cp := make([]Lesson, len(lessons))
	copy(cp, lessons)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, cp)
}

// Clear deletes the persisted collection and empties the in-memory one.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, s.key); err != nil {
		return core.NewPersistenceError("clearing lessons", s.key, err)
	}
	s.lessons = []Lesson{}
	return nil
}

// CheckAvailability checks the proposed date and time against the collection.
func (s *Store) CheckAvailability(date, clock, excludeID string) (Availability, error) {
	return CheckAvailability(s.All(), date, clock, excludeID)
}

// SuggestSlots returns the free slots of `day` according to the Store's SlotPolicy.
func (s *Store) SuggestSlots(day time.Time) []string {
	return s.slots.Suggest(s.All(), day)
}
