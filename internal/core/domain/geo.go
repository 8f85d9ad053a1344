package domain

import (
	"fmt"
	"math"
)

// Coordinate represents a geographic coordinate (WGS 84) in degrees.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Validate rejects out-of-range, NaN and infinite coordinates.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lon, 0) {
		return fmt.Errorf("%w: non-finite value (%v, %v)", ErrInvalidCoordinate, c.Lat, c.Lon)
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %v outside [-90, 90]", ErrInvalidCoordinate, c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: longitude %v outside [-180, 180]", ErrInvalidCoordinate, c.Lon)
	}
	return nil
}

// GeofencePolygon is a named closed ring of coordinates. The first point
// need not repeat as the last one; closure is implicit.
type GeofencePolygon struct {
	Name    string       `json:"name" yaml:"name"`
	Ring    []Coordinate `json:"ring" yaml:"ring"`
	Message string       `json:"message,omitempty" yaml:"message,omitempty"`
}

// Validate checks the ring has at least three valid points.
func (p GeofencePolygon) Validate() error {
	if len(p.Ring) < 3 {
		return fmt.Errorf("%w: %q has %d points", ErrMalformedPolygon, p.Name, len(p.Ring))
	}
	for i, c := range p.Ring {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("polygon %q point %d: %w", p.Name, i, err)
		}
	}
	return nil
}

// Bounds represents a geographic bounding box. Nearby queries use it as a
// coarse prefilter before the exact distance check.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}
