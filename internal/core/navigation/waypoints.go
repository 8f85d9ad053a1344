package navigation

import "github.com/samirrijal/stepwise/internal/core/domain"

// WaypointTracker walks an ordered route. The index only moves forward, at
// most once per sample, and stops at len(route), the terminal state.
//
// Advancement is decided from sampled distances only. A walker who passes a
// waypoint between two samples without ever reporting a distance below the
// threshold does not advance; faster sampling narrows that window.
type WaypointTracker struct {
	route        []domain.Waypoint
	index        int
	threshold    float64
	lastDistance float64
}

// NewWaypointTracker creates a tracker at index 0.
func NewWaypointTracker(route []domain.Waypoint, threshold float64) *WaypointTracker {
	if threshold <= 0 {
		threshold = DefaultAdvanceThreshold
	}
	return &WaypointTracker{route: route, threshold: threshold}
}

// OnSample checks proximity to the current waypoint and advances when the
// walker is strictly closer than the threshold.
func (t *WaypointTracker) OnSample(pos domain.Coordinate) domain.Event {
	if t.Complete() {
		return domain.NoOp()
	}

	target := t.route[t.index]
	t.lastDistance = DistanceMeters(pos, target.Position)
	if t.lastDistance >= t.threshold {
		return domain.NoOp()
	}

	t.index++
	return domain.Event{
		Kind: domain.EventAdvance,
		Advance: &domain.Advance{
			Instruction: target.Instruction,
			StepHint:    target.StepHint,
			NewIndex:    t.index,
		},
	}
}

// Target returns the waypoint currently being walked to.
func (t *WaypointTracker) Target() (domain.Waypoint, bool) {
	if t.Complete() {
		return domain.Waypoint{}, false
	}
	return t.route[t.index], true
}

// Index is the number of waypoints reached so far.
func (t *WaypointTracker) Index() int { return t.index }

// Complete reports whether every waypoint has been reached.
func (t *WaypointTracker) Complete() bool { return t.index >= len(t.route) }

// LastDistance is the distance measured by the most recent OnSample.
func (t *WaypointTracker) LastDistance() float64 { return t.lastDistance }
