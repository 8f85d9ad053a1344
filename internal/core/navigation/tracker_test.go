package navigation

import (
	"math"
	"testing"

	"github.com/samirrijal/stepwise/internal/core/domain"
	"github.com/samirrijal/stepwise/internal/pkg/geospatial"
)

const metersPerDegreeLat = geospatial.EarthRadiusMeters * math.Pi / 180

// north returns the coordinate the given number of meters due north of c.
func north(c domain.Coordinate, meters float64) domain.Coordinate {
	return domain.Coordinate{Lat: c.Lat + meters/metersPerDegreeLat, Lon: c.Lon}
}

var walkForward = domain.Coordinate{Lat: 28.5121332, Lon: 77.409751}

func TestDistanceMeters_Properties(t *testing.T) {
	pts := []domain.Coordinate{walkForward, {Lat: 43.263, Lon: -2.935}, {Lat: -45, Lon: 170}}
	for _, a := range pts {
		if d := DistanceMeters(a, a); d != 0 {
			t.Errorf("DistanceMeters(a, a) = %v; want 0", d)
		}
		for _, b := range pts {
			if math.Abs(DistanceMeters(a, b)-DistanceMeters(b, a)) > 1e-6 {
				t.Errorf("DistanceMeters not symmetric for %v, %v", a, b)
			}
			if br := BearingDegrees(a, b); br < 0 || br >= 360 {
				t.Errorf("BearingDegrees(%v, %v) = %v out of range", a, b, br)
			}
		}
	}
	if d := DistanceMeters(walkForward, north(walkForward, 3)); math.Abs(d-3) > 1e-6 {
		t.Fatalf("north helper drifted: %v", d)
	}
}

func TestNormalizeHeading(t *testing.T) {
	cases := []struct {
		name     string
		x, y     float64
		expected float64
	}{
		{"positive x", 1, 0, 0},
		{"positive y", 0, 1, 90},
		{"negative x", -1, 0, 180},
		{"negative y", 0, -1, 270},
		{"diagonal", 1, -1, 315},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeHeading(tc.x, tc.y); math.Abs(got-tc.expected) > 1e-9 {
				t.Fatalf("NormalizeHeading(%v, %v) = %v; want %v", tc.x, tc.y, got, tc.expected)
			}
		})
	}
}

func TestHeadingTracker_LatestOnly(t *testing.T) {
	h := NewHeadingTracker(1)
	if _, ok := h.Heading(); ok {
		t.Fatal("new tracker should not report a heading")
	}
	h.Update(10)
	h.Update(370)
	if got, ok := h.Heading(); !ok || math.Abs(got-10) > 1e-9 {
		t.Fatalf("Heading() = %v, %v; want 10", got, ok)
	}
	h.UpdateMagnetic(0, -1)
	if got, _ := h.Heading(); math.Abs(got-270) > 1e-9 {
		t.Fatalf("Heading() after magnetic = %v; want 270", got)
	}
	h.Reset()
	if _, ok := h.Heading(); ok {
		t.Fatal("Reset should clear the heading")
	}
}

func TestHeadingTracker_CircularMean(t *testing.T) {
	h := NewHeadingTracker(3)
	h.Update(350)
	got := h.Update(10)
	if math.Abs(got) > 1e-9 && math.Abs(got-360) > 1e-9 {
		t.Fatalf("mean of 350 and 10 = %v; want 0", got)
	}

	h.Update(90)
	h.Update(90)
	got = h.Update(90)
	if math.Abs(got-90) > 1e-9 {
		t.Fatalf("window should have dropped old samples, got %v", got)
	}
}

func sampleRoute() []domain.Waypoint {
	return []domain.Waypoint{{Instruction: "Walk forward", StepHint: 20, Position: walkForward}}
}

func TestWaypointTracker_AdvanceWithinThreshold(t *testing.T) {
	tr := NewWaypointTracker(sampleRoute(), 7)

	ev := tr.OnSample(north(walkForward, 3))
	if ev.Kind != domain.EventAdvance {
		t.Fatalf("expected advance, got %v", ev.Kind)
	}
	if ev.Advance.Instruction != "Walk forward" || ev.Advance.NewIndex != 1 {
		t.Fatalf("unexpected advance payload %+v", ev.Advance)
	}
	if !tr.Complete() {
		t.Fatal("single-waypoint route should be complete")
	}
	if ev := tr.OnSample(walkForward); !ev.IsNoOp() {
		t.Fatalf("terminal tracker must return NoOp, got %v", ev.Kind)
	}
	if tr.Index() != 1 {
		t.Fatalf("index = %d; want 1", tr.Index())
	}
}

func TestWaypointTracker_NoOpOutsideThreshold(t *testing.T) {
	tr := NewWaypointTracker(sampleRoute(), 7)
	if ev := tr.OnSample(north(walkForward, 20)); !ev.IsNoOp() {
		t.Fatalf("expected NoOp at 20 m, got %v", ev.Kind)
	}
	if math.Abs(tr.LastDistance()-20) > 1e-6 {
		t.Fatalf("LastDistance = %v; want 20", tr.LastDistance())
	}
	// exactly at the threshold is not "below" it
	if ev := tr.OnSample(north(walkForward, 7.000001)); !ev.IsNoOp() {
		t.Fatal("expected NoOp just outside the threshold")
	}
}

func TestWaypointTracker_MonotoneAndBounded(t *testing.T) {
	route := []domain.Waypoint{
		{Instruction: "a", StepHint: 10, Position: walkForward},
		{Instruction: "b", StepHint: 10, Position: north(walkForward, 50)},
		{Instruction: "c", StepHint: 0, Position: north(walkForward, 100)},
	}
	tr := NewWaypointTracker(route, DefaultAdvanceThreshold)

	// wander back and forth, including samples on waypoints out of order
	walk := []float64{0, 100, 50, 0, 0, 50, 75, 100, 100, 0, 50}
	prev := 0
	for _, m := range walk {
		tr.OnSample(north(walkForward, m))
		if tr.Index() < prev {
			t.Fatalf("index decreased from %d to %d", prev, tr.Index())
		}
		if tr.Index()-prev > 1 {
			t.Fatalf("index jumped from %d to %d in one sample", prev, tr.Index())
		}
		if tr.Index() > len(route) {
			t.Fatalf("index %d exceeds route length", tr.Index())
		}
		prev = tr.Index()
	}
	if !tr.Complete() {
		t.Fatalf("expected route complete, index %d", tr.Index())
	}
}

func TestWaypointTracker_SkippedThresholdMissesAdvance(t *testing.T) {
	tr := NewWaypointTracker(sampleRoute(), 7)
	// 10 m south, then 10 m north: passed the waypoint between samples
	tr.OnSample(north(walkForward, -10))
	if ev := tr.OnSample(north(walkForward, 10)); !ev.IsNoOp() {
		t.Fatal("sampled-only crossing must not advance")
	}
	if tr.Index() != 0 {
		t.Fatalf("index = %d; want 0", tr.Index())
	}
}
