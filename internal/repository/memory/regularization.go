package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/regularization"
)

type regularizationRepositoryImpl struct {
	store *Store
}

func NewRegularizationRepository(store *Store) regularization.RegularizationRepository {
	return &regularizationRepositoryImpl{store: store}
}

func (r *regularizationRepositoryImpl) withEmployee(reg regularization.Regularization) regularization.Regularization {
	if e, ok := r.store.employees[reg.EmployeeID]; ok {
		name := e.FullName
		reg.EmployeeName = &name
	}
	return reg
}

func (r *regularizationRepositoryImpl) Create(ctx context.Context, reg regularization.Regularization) (regularization.Regularization, error) {
	defer r.store.lock(ctx)()

	if reg.ID == "" {
		reg.ID = newID()
	}
	now := r.store.now()
	reg.Date = attendance.DayOf(reg.Date)
	reg.Status = regularization.StatusPending
	reg.CreatedAt, reg.UpdatedAt = now, now

	r.store.regularizations[reg.ID] = reg
	return r.withEmployee(reg), nil
}

func (r *regularizationRepositoryImpl) GetByID(ctx context.Context, id string) (regularization.Regularization, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	reg, ok := r.store.regularizations[id]
	if !ok {
		return regularization.Regularization{}, regularization.ErrRegularizationNotFound
	}
	return r.withEmployee(reg), nil
}

func (r *regularizationRepositoryImpl) List(ctx context.Context, filter regularization.RegularizationFilter) ([]regularization.Regularization, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := []regularization.Regularization{}
	for _, reg := range r.store.regularizations {
		if filter.EmployeeID != nil && reg.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != nil && reg.Status != *filter.Status {
			continue
		}
		out = append(out, r.withEmployee(reg))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *regularizationRepositoryImpl) ApplyReview(ctx context.Context, review regularization.Review) (regularization.Regularization, error) {
	defer r.store.lock(ctx)()

	reg, ok := r.store.regularizations[review.ID]
	if !ok {
		return regularization.Regularization{}, regularization.ErrRegularizationNotFound
	}
	if !reg.IsPending() {
		return regularization.Regularization{}, regularization.ErrAlreadyProcessed
	}

	reviewedBy, reviewedAt := review.ReviewedBy, review.ReviewedAt
	reg.Status = review.Status
	reg.ReviewedBy = &reviewedBy
	reg.ReviewedAt = &reviewedAt
	reg.ReviewRemark = review.Remark
	if review.FromTime != nil {
		reg.FromTime = review.FromTime
	}
	if review.ToTime != nil {
		reg.ToTime = review.ToTime
	}
	reg.UpdatedAt = r.store.now()

	r.store.regularizations[reg.ID] = reg
	return r.withEmployee(reg), nil
}

func (r *regularizationRepositoryImpl) Delete(ctx context.Context, id string) error {
	defer r.store.lock(ctx)()

	if _, ok := r.store.regularizations[id]; !ok {
		return regularization.ErrRegularizationNotFound
	}
	delete(r.store.regularizations, id)
	return nil
}
