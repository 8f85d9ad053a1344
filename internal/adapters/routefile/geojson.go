package routefile

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/stepwise/internal/core/domain"
)

// ParseGeofences reads geofence polygons from a GeoJSON FeatureCollection.
// Polygon and MultiPolygon features are accepted; only outer rings are used.
// Feature properties "name" and "message" name the polygon and set the text
// spoken on entry.
func ParseGeofences(data []byte) ([]domain.GeofencePolygon, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("geojson: %w", err)
	}

	var out []domain.GeofencePolygon
	for i, f := range fc.Features {
		name := f.Properties.MustString("name", fmt.Sprintf("geofence-%d", i+1))
		message := f.Properties.MustString("message", "")

		var polys []orb.Polygon
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			polys = []orb.Polygon{g}
		case orb.MultiPolygon:
			polys = g
		default:
			return nil, fmt.Errorf("feature %q: unsupported geometry %s", name, f.Geometry.GeoJSONType())
		}

		for j, p := range polys {
			if len(p) == 0 {
				return nil, fmt.Errorf("feature %q: %w", name, domain.ErrMalformedPolygon)
			}
			gp := domain.GeofencePolygon{Name: name, Message: message, Ring: ringCoords(p[0])}
			if len(polys) > 1 {
				gp.Name = fmt.Sprintf("%s-%d", name, j+1)
			}
			if err := gp.Validate(); err != nil {
				return nil, err
			}
			out = append(out, gp)
		}
	}
	return out, nil
}

// ringCoords converts a GeoJSON ring ([lon, lat] points) and drops the
// closing point, since closure is implicit.
func ringCoords(r orb.Ring) []domain.Coordinate {
	if len(r) > 1 && r[0].Equal(r[len(r)-1]) {
		r = r[:len(r)-1]
	}
	out := make([]domain.Coordinate, 0, len(r))
	for _, pt := range r {
		out = append(out, domain.Coordinate{Lat: pt.Lat(), Lon: pt.Lon()})
	}
	return out
}

// EncodeGeofences writes polygons as a GeoJSON FeatureCollection with
// explicitly closed rings.
func EncodeGeofences(polys []domain.GeofencePolygon) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, p := range polys {
		ring := make(orb.Ring, 0, len(p.Ring)+1)
		for _, c := range p.Ring {
			ring = append(ring, orb.Point{c.Lon, c.Lat})
		}
		if len(ring) > 0 {
			ring = append(ring, ring[0])
		}
		f := geojson.NewFeature(orb.Polygon{ring})
		f.Properties["name"] = p.Name
		if p.Message != "" {
			f.Properties["message"] = p.Message
		}
		fc.Append(f)
	}
	return fc.MarshalJSON()
}
