package holiday

import "time"

type HolidayType string

const (
	TypePublic   HolidayType = "Public"
	TypeOffice   HolidayType = "Office"
	TypeOptional HolidayType = "Optional"
)

// Holiday applies to every centre.
type Holiday struct {
	ID        string
	Date      time.Time
	Name      string
	Type      HolidayType
	CreatedAt time.Time
}

// DateSet indexes holidays by "YYYY-MM-DD".
func DateSet(holidays []Holiday) map[string]Holiday {
	set := make(map[string]Holiday, len(holidays))
	for _, h := range holidays {
		set[h.Date.UTC().Format("2006-01-02")] = h
	}
	return set
}
