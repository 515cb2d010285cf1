package employee

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// WeeklySchedule records, per weekday, whether the employee is expected to
// work. A weekday missing from the map is unconfigured; a nil or empty map
// means the whole week is unconfigured.
type WeeklySchedule map[time.Weekday]bool

type ScheduleSource string

const (
	ScheduleConfigured ScheduleSource = "configured" // all seven weekdays set explicitly
	SchedulePartial    ScheduleSource = "partial"    // some weekdays fall back to the weekend rule
	ScheduleDefault    ScheduleSource = "default"    // nothing configured, weekend rule only
	ScheduleUnknown    ScheduleSource = "unknown"    // no employee record to read
)

// IsWorkingDay prefers the configured value for day and falls back to
// "not Saturday or Sunday" when the weekday is unconfigured.
func (s WeeklySchedule) IsWorkingDay(day time.Weekday) bool {
	if working, ok := s[day]; ok {
		return working
	}
	return day != time.Saturday && day != time.Sunday
}

// Configured reports whether day carries an explicit value.
func (s WeeklySchedule) Configured(day time.Weekday) bool {
	_, ok := s[day]
	return ok
}

func (s WeeklySchedule) Source() ScheduleSource {
	switch n := len(s); {
	case n == 0:
		return ScheduleDefault
	case n >= 7:
		return ScheduleConfigured
	default:
		return SchedulePartial
	}
}

// Resolved returns the effective value for every weekday, keyed by lowercase
// weekday name.
func (s WeeklySchedule) Resolved() map[string]bool {
	out := make(map[string]bool, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		out[strings.ToLower(d.String())] = s.IsWorkingDay(d)
	}
	return out
}

func (s WeeklySchedule) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	out := make(map[string]bool, len(s))
	for d, v := range s {
		out[strings.ToLower(d.String())] = v
	}
	return json.Marshal(out)
}

func (s *WeeklySchedule) UnmarshalJSON(data []byte) error {
	var raw map[string]bool
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*s = nil
		return nil
	}
	parsed := make(WeeklySchedule, len(raw))
	for name, v := range raw {
		d, err := ParseWeekday(name)
		if err != nil {
			return err
		}
		parsed[d] = v
	}
	*s = parsed
	return nil
}

// ParseWeekday accepts full or three-letter English weekday names, any case.
func ParseWeekday(name string) (time.Weekday, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if n == full || n == full[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}
