package geo

import "math"

// EarthRadiusMeters is the mean Earth radius used by the Haversine formula.
const EarthRadiusMeters = 6371000.0

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func toRadians(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}

func toDegrees(rad float64) float64 {
	return rad * (180.0 / math.Pi)
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b Point) float64 {
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1)*math.Cos(lat2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// boundaryTolerance absorbs floating point error for points placed exactly
// on a geofence boundary.
const boundaryTolerance = 1e-6

// Within reports whether b lies inside the circle of radiusMeters around a.
// A point exactly on the boundary is inside.
func Within(a, b Point, radiusMeters float64) bool {
	return Distance(a, b) <= radiusMeters+boundaryTolerance
}

// Offset returns the point reached by travelling meters from p along the
// initial bearing (degrees clockwise from north).
func Offset(p Point, bearingDeg, meters float64) Point {
	delta := meters / EarthRadiusMeters
	theta := toRadians(bearingDeg)
	lat1 := toRadians(p.Latitude)
	lon1 := toRadians(p.Longitude)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) + math.Cos(lat1)*math.Sin(delta)*math.Cos(theta))
	lon2 := lon1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(lat1),
		math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2),
	)

	// normalise to [-180, 180)
	lon := math.Mod(toDegrees(lon2)+540, 360) - 180

	return Point{Latitude: toDegrees(lat2), Longitude: lon}
}
