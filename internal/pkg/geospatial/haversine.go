package geospatial

import "math"

// EarthRadiusMeters is the mean Earth radius used by all distance functions.
const EarthRadiusMeters = 6371000.0

// Haversine calculates the great-circle distance in meters between two points.
// Inputs must be finite degrees; NaN propagates.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// RhumbBearing returns the constant-bearing (loxodrome) course in degrees
// from the first point to the second, in [0, 360).
func RhumbBearing(lat1, lon1, lat2, lon2 float64) float64 {
	dLon := toRad(lon2 - lon1)
	dPhi := math.Log(math.Tan(toRad(lat2)/2+math.Pi/4) / math.Tan(toRad(lat1)/2+math.Pi/4))

	// take the short way round across the antimeridian
	if math.Abs(dLon) > math.Pi {
		if dLon > 0 {
			dLon = -(2*math.Pi - dLon)
		} else {
			dLon = 2*math.Pi + dLon
		}
	}

	return NormalizeDegrees(toDeg(math.Atan2(dLon, dPhi)))
}

// NormalizeDegrees reduces an angle to [0, 360).
func NormalizeDegrees(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	if d >= 360 {
		d = 0
	}
	return d
}

// BoundingBox returns a box that contains every point within radiusMeters of
// (lat, lon) by Haversine distance.
func BoundingBox(lat, lon, radiusMeters float64) (minLat, minLon, maxLat, maxLon float64) {
	angular := radiusMeters / EarthRadiusMeters
	latDelta := toDeg(angular)
	lonDelta := 180.0
	if s := math.Sin(angular) / math.Cos(toRad(lat)); s < 1 {
		lonDelta = toDeg(math.Asin(s))
	}

	return lat - latDelta, lon - lonDelta, lat + latDelta, lon + lonDelta
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
