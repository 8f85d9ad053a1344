package domain

import (
	"errors"
	"math"
	"testing"
)

func TestCoordinateValidate(t *testing.T) {
	cases := []struct {
		name  string
		coord Coordinate
		valid bool
	}{
		{"origin", Coordinate{}, true},
		{"station", Coordinate{Lat: 28.5121332, Lon: 77.409751}, true},
		{"poles and antimeridian", Coordinate{Lat: -90, Lon: 180}, true},
		{"lat too high", Coordinate{Lat: 90.0001}, false},
		{"lon too low", Coordinate{Lon: -180.5}, false},
		{"nan", Coordinate{Lat: math.NaN()}, false},
		{"inf", Coordinate{Lon: math.Inf(-1)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.coord.Validate()
			if tc.valid && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.valid && !errors.Is(err, ErrInvalidCoordinate) {
				t.Fatalf("expected ErrInvalidCoordinate, got %v", err)
			}
		})
	}
}

func TestGeofencePolygonValidate(t *testing.T) {
	tri := GeofencePolygon{Name: "tri", Ring: []Coordinate{{}, {Lat: 1}, {Lon: 1}}}
	if err := tri.Validate(); err != nil {
		t.Fatalf("triangle: %v", err)
	}

	short := GeofencePolygon{Name: "short", Ring: []Coordinate{{}, {Lat: 1}}}
	if err := short.Validate(); !errors.Is(err, ErrMalformedPolygon) {
		t.Fatalf("expected ErrMalformedPolygon, got %v", err)
	}

	bad := GeofencePolygon{Name: "bad", Ring: []Coordinate{{}, {Lat: 1}, {Lon: 181}}}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidCoordinate) {
		t.Fatalf("expected ErrInvalidCoordinate, got %v", err)
	}
}

func TestRouteValidate(t *testing.T) {
	r := Route{ID: "r1", Waypoints: []Waypoint{{Instruction: "Walk forward", StepHint: 20, Position: Coordinate{Lat: 28.5, Lon: 77.4}}}}
	if err := r.Validate(); err != nil {
		t.Fatalf("valid route: %v", err)
	}
	if r.Waypoints[0].Terminal() {
		t.Fatal("step hint 20 is not terminal")
	}

	empty := Route{ID: "r2"}
	if err := empty.Validate(); !errors.Is(err, ErrEmptyRoute) {
		t.Fatalf("expected ErrEmptyRoute, got %v", err)
	}

	neg := Route{ID: "r3", Waypoints: []Waypoint{{StepHint: -1}}}
	if err := neg.Validate(); err == nil {
		t.Fatal("expected error for negative step hint")
	}
}

func TestEventNoOp(t *testing.T) {
	if !NoOp().IsNoOp() || !(Event{}).IsNoOp() {
		t.Fatal("NoOp and zero Event should both be no-ops")
	}
	if (Event{Kind: EventAdvance, Advance: &Advance{}}).IsNoOp() {
		t.Fatal("advance is not a no-op")
	}
}
