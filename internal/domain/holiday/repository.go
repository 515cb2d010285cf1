package holiday

import (
	"context"
	"time"
)

type HolidayRepository interface {
	// ListByRange returns holidays with from <= date <= to, ordered by date.
	ListByRange(ctx context.Context, from, to time.Time) ([]Holiday, error)
	Create(ctx context.Context, h Holiday) (Holiday, error)
	Delete(ctx context.Context, id string) error
}
