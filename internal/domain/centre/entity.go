package centre

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/geo"
)

// Centre is a campus or office site staff check in at.
type Centre struct {
	ID        string
	Name      string
	Address   *string
	Latitude  *float64
	Longitude *float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Location returns the centre's coordinates, or false when the centre has
// not been geo-configured.
func (c Centre) Location() (geo.Point, bool) {
	if c.Latitude == nil || c.Longitude == nil {
		return geo.Point{}, false
	}
	return geo.Point{Latitude: *c.Latitude, Longitude: *c.Longitude}, true
}
