package navigation

import (
	"github.com/samirrijal/stepwise/internal/core/domain"
	"github.com/samirrijal/stepwise/internal/pkg/geospatial"
)

// DistanceMeters is the haversine distance between two coordinates.
// Both must have passed Coordinate.Validate; NaN is not handled here.
func DistanceMeters(a, b domain.Coordinate) float64 {
	return geospatial.Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}

// BearingDegrees is the rhumb-line bearing from one coordinate to another,
// in [0, 360).
func BearingDegrees(from, to domain.Coordinate) float64 {
	return geospatial.RhumbBearing(from.Lat, from.Lon, to.Lat, to.Lon)
}
