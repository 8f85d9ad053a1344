package navigation

import (
	"math"

	"github.com/samirrijal/stepwise/internal/core/domain"
)

// edgeEpsilon is the tolerance, in squared degrees, for treating a point as
// lying on a polygon edge.
const edgeEpsilon = 1e-12

// Contains reports whether pt lies inside the polygon. The ring is closed
// implicitly. Points exactly on an edge or a vertex count as inside.
func Contains(poly domain.GeofencePolygon, pt domain.Coordinate) bool {
	ring := poly.Ring
	if len(ring) < 3 {
		return false
	}

	for i := range ring {
		if onSegment(pt, ring[i], ring[(i+1)%len(ring)]) {
			return true
		}
	}

	// Ray casting in the lon/lat plane with half-open edge spans so that a
	// ray through a vertex is counted once.
	inside := false
	for i := range ring {
		p0, p1 := ring[i], ring[(i+1)%len(ring)]
		if (p0.Lat <= pt.Lat && pt.Lat < p1.Lat) || (p1.Lat <= pt.Lat && pt.Lat < p0.Lat) {
			x := p0.Lon + (pt.Lat-p0.Lat)*(p1.Lon-p0.Lon)/(p1.Lat-p0.Lat)
			if x > pt.Lon {
				inside = !inside
			}
		}
	}
	return inside
}

func onSegment(p, a, b domain.Coordinate) bool {
	cross := (b.Lon-a.Lon)*(p.Lat-a.Lat) - (b.Lat-a.Lat)*(p.Lon-a.Lon)
	if math.Abs(cross) > edgeEpsilon {
		return false
	}
	return p.Lon >= math.Min(a.Lon, b.Lon)-edgeEpsilon && p.Lon <= math.Max(a.Lon, b.Lon)+edgeEpsilon &&
		p.Lat >= math.Min(a.Lat, b.Lat)-edgeEpsilon && p.Lat <= math.Max(a.Lat, b.Lat)+edgeEpsilon
}

// CheckAll returns the index of the first polygon containing pt, or -1.
func CheckAll(polys []domain.GeofencePolygon, pt domain.Coordinate) int {
	for i := range polys {
		if Contains(polys[i], pt) {
			return i
		}
	}
	return -1
}

// GeofenceMonitor turns containment results into alerts. It remembers which
// polygon, if any, contained the previous position.
type GeofenceMonitor struct {
	mode    AlertMode
	polys   []domain.GeofencePolygon
	current int
}

// NewGeofenceMonitor creates a monitor over a fixed polygon set.
func NewGeofenceMonitor(polys []domain.GeofencePolygon, mode AlertMode) *GeofenceMonitor {
	if mode == "" {
		mode = AlertEdge
	}
	return &GeofenceMonitor{mode: mode, polys: polys, current: -1}
}

// Reset forgets previous containment.
func (m *GeofenceMonitor) Reset() { m.current = -1 }

// Inside returns the polygon containing the last observed position.
func (m *GeofenceMonitor) Inside() (domain.GeofencePolygon, bool) {
	if m.current < 0 {
		return domain.GeofencePolygon{}, false
	}
	return m.polys[m.current], true
}

// Observe checks pt against the polygons and returns a geofence event or NoOp.
//
// Edge mode alerts when the containing polygon changes: entering one (or
// moving directly into another) yields Entered=true, leaving all yields
// Entered=false naming the polygon just left. Level mode additionally
// repeats Entered=true on every sample inside.
func (m *GeofenceMonitor) Observe(pt domain.Coordinate) domain.Event {
	idx := CheckAll(m.polys, pt)
	prev := m.current
	m.current = idx

	switch {
	case idx >= 0 && (m.mode == AlertLevel || idx != prev):
		p := m.polys[idx]
		return domain.Event{
			Kind:     domain.EventGeofence,
			Geofence: &domain.GeofenceAlert{PolygonName: p.Name, Entered: true, Message: p.Message},
		}
	case idx < 0 && prev >= 0:
		return domain.Event{
			Kind:     domain.EventGeofence,
			Geofence: &domain.GeofenceAlert{PolygonName: m.polys[prev].Name, Entered: false},
		}
	}
	return domain.NoOp()
}
