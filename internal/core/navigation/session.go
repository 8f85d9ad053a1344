package navigation

import (
	"fmt"
	"math"

	"github.com/samirrijal/stepwise/internal/core/domain"
)

// Session orchestrates one trip: it owns the route, the geofences and the
// single mutable progress record. Events are returned to the caller; the
// session never calls a presentation layer itself.
type Session struct {
	tuning Tuning

	route    []domain.Waypoint
	polygons []domain.GeofencePolygon

	waypoints *WaypointTracker
	alignment *AlignmentEngine
	heading   *HeadingTracker
	fences    *GeofenceMonitor

	position *domain.Coordinate
	progress domain.Progress
	started  bool
}

// NewSession creates an idle session; zero tuning fields take defaults.
func NewSession(t Tuning) *Session {
	return &Session{tuning: t.withDefaults()}
}

// Tuning returns the effective calibration.
func (s *Session) Tuning() Tuning { return s.tuning }

// Start validates the route and polygons and resets all progress. If
// validation fails the session stays inert and Ingest returns no events.
func (s *Session) Start(route []domain.Waypoint, polygons []domain.GeofencePolygon) error {
	s.started = false

	if len(route) == 0 {
		return domain.ErrEmptyRoute
	}
	for i, w := range route {
		if err := w.Position.Validate(); err != nil {
			return fmt.Errorf("waypoint %d: %w", i, err)
		}
	}
	for _, p := range polygons {
		if err := p.Validate(); err != nil {
			return err
		}
	}

	s.route = append([]domain.Waypoint(nil), route...)
	s.polygons = append([]domain.GeofencePolygon(nil), polygons...)

	s.waypoints = NewWaypointTracker(s.route, s.tuning.AdvanceThreshold)
	s.alignment = NewAlignmentEngine(s.tuning)
	s.heading = NewHeadingTracker(s.tuning.SmoothingWindow)
	s.fences = NewGeofenceMonitor(s.polygons, s.tuning.GeofenceMode)
	s.position = nil
	s.progress = domain.Progress{}
	s.started = true
	return nil
}

// Started reports whether Start succeeded.
func (s *Session) Started() bool { return s.started }

// Ingest consumes one sample and returns the events it produced, in the
// order geofence, advance, alignment. Alignment is evaluated against the
// target that is current after any advance.
//
// A sample without a position skips the geofence and waypoint checks; a
// sample without a heading does not change the heading. Alignment needs
// both, so it runs once each has been seen at least once.
func (s *Session) Ingest(sample domain.Sample) ([]domain.Event, error) {
	if !s.started {
		return nil, nil
	}

	if sample.Position != nil {
		if err := sample.Position.Validate(); err != nil {
			return nil, err
		}
	}
	if sample.Heading != nil && !finite(*sample.Heading) {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidHeading, *sample.Heading)
	}
	if sample.Heading == nil && sample.Magnetic != nil && !(finite(sample.Magnetic.X) && finite(sample.Magnetic.Y)) {
		return nil, fmt.Errorf("%w: magnetic vector (%v, %v)", domain.ErrInvalidHeading, sample.Magnetic.X, sample.Magnetic.Y)
	}

	headingPresent := true
	switch {
	case sample.Heading != nil:
		s.heading.Update(*sample.Heading)
	case sample.Magnetic != nil:
		s.heading.UpdateMagnetic(sample.Magnetic.X, sample.Magnetic.Y)
	default:
		headingPresent = false
	}

	var events []domain.Event

	if sample.Position != nil {
		pos := *sample.Position
		s.position = &pos

		if len(s.polygons) > 0 {
			if ev := s.fences.Observe(pos); !ev.IsNoOp() {
				events = append(events, ev)
			}
		}

		ev := s.waypoints.OnSample(pos)
		s.progress.LastDistanceToTarget = s.waypoints.LastDistance()
		if !ev.IsNoOp() {
			events = append(events, ev)
			s.alignment.Retarget()
			s.progress.Aligned = false
			s.measureTarget(pos)
		}
	}

	if sample.Position != nil || headingPresent {
		if ev, ok := s.evaluateAlignment(); ok {
			events = append(events, ev)
		}
	}

	s.progress.CurrentIndex = s.waypoints.Index()
	s.progress.Complete = s.waypoints.Complete()
	return events, nil
}

func (s *Session) evaluateAlignment() (domain.Event, bool) {
	target, ok := s.waypoints.Target()
	if !ok || s.position == nil {
		return domain.Event{}, false
	}
	heading, known := s.heading.Heading()
	if !known {
		return domain.Event{}, false
	}

	ev := s.alignment.Evaluate(*s.position, heading, target.Position)
	last := s.alignment.Last()
	s.progress.Aligned = last.Aligned
	s.progress.LastBearing = last.Bearing
	s.progress.LastDistanceToTarget = last.Distance

	if ev.IsNoOp() {
		return domain.Event{}, false
	}
	return ev, true
}

// measureTarget points the progress record at the target after an advance,
// or clears it when the route is complete.
func (s *Session) measureTarget(pos domain.Coordinate) {
	target, ok := s.waypoints.Target()
	if !ok {
		s.progress.LastDistanceToTarget = 0
		s.progress.LastBearing = 0
		return
	}
	s.progress.LastDistanceToTarget = DistanceMeters(pos, target.Position)
	s.progress.LastBearing = BearingDegrees(pos, target.Position)
}

// Progress returns a snapshot of the progress record.
func (s *Session) Progress() domain.Progress { return s.progress }

// Target returns the waypoint currently being walked to.
func (s *Session) Target() (domain.Waypoint, bool) {
	if !s.started {
		return domain.Waypoint{}, false
	}
	return s.waypoints.Target()
}

// RouteLength is the number of waypoints in the active route.
func (s *Session) RouteLength() int { return len(s.route) }

// Heading returns the tracked heading, if any.
func (s *Session) Heading() (float64, bool) {
	if !s.started {
		return 0, false
	}
	return s.heading.Heading()
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
