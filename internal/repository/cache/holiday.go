package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/holiday"
	"github.com/redis/go-redis/v9"
)

const holidayKeyPrefix = "holidays:"

type holidayCache struct {
	next   holiday.HolidayRepository
	client *redis.Client
	ttl    time.Duration
}

// NewHolidayRepository wraps next with a read-through Redis cache of range
// queries. Writes go to next and then drop every cached range. Redis
// failures are logged and served from next.
func NewHolidayRepository(next holiday.HolidayRepository, client *redis.Client, ttl time.Duration) holiday.HolidayRepository {
	return &holidayCache{next: next, client: client, ttl: ttl}
}

type cachedHoliday struct {
	ID        string              `json:"id"`
	Date      time.Time           `json:"date"`
	Name      string              `json:"name"`
	Type      holiday.HolidayType `json:"type"`
	CreatedAt time.Time           `json:"created_at"`
}

func rangeKey(from, to time.Time) string {
	return fmt.Sprintf("%s%s:%s", holidayKeyPrefix, from.UTC().Format("2006-01-02"), to.UTC().Format("2006-01-02"))
}

func (c *holidayCache) ListByRange(ctx context.Context, from, to time.Time) ([]holiday.Holiday, error) {
	key := rangeKey(from, to)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached []cachedHoliday
		if err := json.Unmarshal(raw, &cached); err == nil {
			out := make([]holiday.Holiday, 0, len(cached))
			for _, h := range cached {
				out = append(out, holiday.Holiday(h))
			}
			return out, nil
		}
		slog.Warn("Discarding malformed holiday cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		slog.Warn("Holiday cache read failed", "key", key, "error", err)
	}

	holidays, err := c.next.ListByRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	cached := make([]cachedHoliday, 0, len(holidays))
	for _, h := range holidays {
		cached = append(cached, cachedHoliday(h))
	}
	payload, err := json.Marshal(cached)
	if err == nil {
		err = c.client.Set(ctx, key, payload, c.ttl).Err()
	}
	if err != nil {
		slog.Warn("Holiday cache write failed", "key", key, "error", err)
	}

	return holidays, nil
}

func (c *holidayCache) Create(ctx context.Context, h holiday.Holiday) (holiday.Holiday, error) {
	created, err := c.next.Create(ctx, h)
	if err != nil {
		return holiday.Holiday{}, err
	}
	c.invalidate(ctx)
	return created, nil
}

func (c *holidayCache) Delete(ctx context.Context, id string) error {
	if err := c.next.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *holidayCache) invalidate(ctx context.Context) {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, holidayKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("Holiday cache invalidation failed", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("Holiday cache invalidation failed", "error", err)
				return
			}
		}
		if next == 0 {
			return
		}
		cursor = next
	}
}
