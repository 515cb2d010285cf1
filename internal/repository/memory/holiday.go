package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/holiday"
)

type holidayRepositoryImpl struct {
	store *Store
}

func NewHolidayRepository(store *Store) holiday.HolidayRepository {
	return &holidayRepositoryImpl{store: store}
}

func (r *holidayRepositoryImpl) ListByRange(ctx context.Context, from, to time.Time) ([]holiday.Holiday, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := []holiday.Holiday{}
	for _, h := range r.store.holidays {
		if h.Date.Before(from) || h.Date.After(to) {
			continue
		}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *holidayRepositoryImpl) Create(ctx context.Context, h holiday.Holiday) (holiday.Holiday, error) {
	defer r.store.lock(ctx)()

	h.Date = attendance.DayOf(h.Date)
	for _, existing := range r.store.holidays {
		if existing.Date.Equal(h.Date) {
			return holiday.Holiday{}, holiday.ErrHolidayExists
		}
	}

	if h.ID == "" {
		h.ID = newID()
	}
	h.CreatedAt = r.store.now()
	r.store.holidays[h.ID] = h
	return h, nil
}

func (r *holidayRepositoryImpl) Delete(ctx context.Context, id string) error {
	defer r.store.lock(ctx)()

	if _, ok := r.store.holidays[id]; !ok {
		return holiday.ErrHolidayNotFound
	}
	delete(r.store.holidays, id)
	return nil
}
