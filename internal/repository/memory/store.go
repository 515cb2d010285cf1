package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/centre"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/holiday"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/regularization"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
)

// Store is a process-local stand-in for the Postgres schema. Every repository
// built from the same Store shares its tables.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	employees       map[string]employee.Employee
	centres         map[string]centre.Centre
	attendances     map[string]attendance.Record
	attendanceByDay map[string]string // employee_id|date -> attendance id
	regularizations map[string]regularization.Regularization
	holidays        map[string]holiday.Holiday

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		employees:       make(map[string]employee.Employee),
		centres:         make(map[string]centre.Centre),
		attendances:     make(map[string]attendance.Record),
		attendanceByDay: make(map[string]string),
		regularizations: make(map[string]regularization.Regularization),
		holidays:        make(map[string]holiday.Holiday),
		now:             time.Now,
	}
}

// PutEmployee inserts or replaces an employee profile.
func (s *Store) PutEmployee(e employee.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[e.ID] = e
}

// PutCentre inserts or replaces a centre.
func (s *Store) PutCentre(c centre.Centre) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.centres[c.ID] = c
}

type snapshot struct {
	attendances     map[string]attendance.Record
	attendanceByDay map[string]string
	regularizations map[string]regularization.Regularization
	holidays        map[string]holiday.Holiday
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		attendances:     maps.Clone(s.attendances),
		attendanceByDay: maps.Clone(s.attendanceByDay),
		regularizations: maps.Clone(s.regularizations),
		holidays:        maps.Clone(s.holidays),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attendances = snap.attendances
	s.attendanceByDay = snap.attendanceByDay
	s.regularizations = snap.regularizations
	s.holidays = snap.holidays
}

type txKey struct{}

// lock takes the table write lock. Writers outside a transaction also wait
// for any running transaction, so a rollback never discards their rows.
func (s *Store) lock(ctx context.Context) (unlock func()) {
	inTx := ctx.Value(txKey{}) == s
	if !inTx {
		s.txMu.Lock()
	}
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		if !inTx {
			s.txMu.Unlock()
		}
	}
}

type transactor struct {
	store *Store
}

// NewTransactor serializes transactions on store and restores the writable
// tables when fn fails.
func NewTransactor(store *Store) database.Transactor {
	return &transactor{store: store}
}

func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) == t.store {
		return fn(ctx)
	}

	t.store.txMu.Lock()
	defer t.store.txMu.Unlock()

	snap := t.store.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, t.store)); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

func dayKey(employeeID string, date time.Time) string {
	return employeeID + "|" + date.UTC().Format("2006-01-02")
}
