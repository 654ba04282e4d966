package gym

import (
	"math"

	"github.com/gymcore/gym-api/internal/models"
)

const earthRadiusMeters = 6371000.0

// Geofence is the circle around the gym inside which staff shifts may be registered.
// With Enforce off the distance is only reported back as a hint.
type Geofence struct {
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
	Enforce      bool
}

// Check returns the caller's distance to the gym (nil when no position was
// sent) and, when enforcing, rejects missing or out-of-range positions.
func (g Geofence) Check(pos models.Coordinates) (*float64, error) {
	if !pos.Present() {
		if g.Enforce {
			return nil, ErrLocationRequired
		}
		return nil, nil
	}
	lat, lon := *pos.Latitude, *pos.Longitude
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, Validationf("latitud/longitud out of range")
	}

	d := Distance(g.Latitude, g.Longitude, lat, lon)
	if g.Enforce && d > g.RadiusMeters {
		return &d, ErrOutsideGeofence
	}
	return &d, nil
}

// Distance is the haversine great-circle distance in meters.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(a)))
}
