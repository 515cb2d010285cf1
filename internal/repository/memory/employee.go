package memory

import (
	"context"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/centre"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
)

type employeeRepositoryImpl struct {
	store *Store
}

func NewEmployeeRepository(store *Store) employee.EmployeeRepository {
	return &employeeRepositoryImpl{store: store}
}

func (r *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	e, ok := r.store.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (r *employeeRepositoryImpl) GetByUserID(ctx context.Context, userID string) (employee.Employee, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, e := range r.store.employees {
		if e.UserID != nil && *e.UserID == userID {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

type centreRepositoryImpl struct {
	store *Store
}

func NewCentreRepository(store *Store) centre.CentreRepository {
	return &centreRepositoryImpl{store: store}
}

func (r *centreRepositoryImpl) GetByID(ctx context.Context, id string) (centre.Centre, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	c, ok := r.store.centres[id]
	if !ok {
		return centre.Centre{}, centre.ErrCentreNotFound
	}
	return c, nil
}
