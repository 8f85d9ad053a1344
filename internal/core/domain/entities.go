package domain

import (
	"fmt"
	"time"
)

// Waypoint is a fixed point along a pre-authored route with the instruction
// spoken when the walker reaches it. A StepHint of 0 marks a terminal waypoint.
type Waypoint struct {
	Instruction string     `json:"instruction" yaml:"instruction"`
	StepHint    float64    `json:"step_hint" yaml:"step_hint"`
	Position    Coordinate `json:"position" yaml:"position"`
}

// Terminal reports whether the waypoint ends the route.
func (w Waypoint) Terminal() bool { return w.StepHint == 0 }

// Route is an ordered, immutable list of waypoints plus the geofences that
// apply while walking it.
type Route struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Waypoints   []Waypoint        `json:"waypoints" yaml:"waypoints"`
	Geofences   []GeofencePolygon `json:"geofences,omitempty" yaml:"-"`
	CreatedAt   time.Time         `json:"created_at" yaml:"-"`
}

// Validate checks a route is usable for a navigation session.
func (r *Route) Validate() error {
	if len(r.Waypoints) == 0 {
		return ErrEmptyRoute
	}
	for i, w := range r.Waypoints {
		if err := w.Position.Validate(); err != nil {
			return fmt.Errorf("waypoint %d: %w", i, err)
		}
		if w.StepHint < 0 {
			return fmt.Errorf("waypoint %d: negative step hint %v", i, w.StepHint)
		}
	}
	for _, g := range r.Geofences {
		if err := g.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// RouteSummary is the list view of a route.
type RouteSummary struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	WaypointCount int       `json:"waypoint_count"`
	GeofenceCount int       `json:"geofence_count"`
	CreatedAt     time.Time `json:"created_at"`

	// Start and Distance are set by nearby queries only.
	Start    *Coordinate `json:"start,omitempty"`
	Distance *float64    `json:"distance_m,omitempty"`
}

// MagneticVector is a raw 2-axis magnetometer reading.
type MagneticVector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sample is one sensor tick. Any dimension may be absent: position and
// heading sources deliver at independent rates.
type Sample struct {
	Position  *Coordinate     `json:"position,omitempty"`
	Heading   *float64        `json:"heading,omitempty"`
	Magnetic  *MagneticVector `json:"magnetic,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Progress is the mutable navigation state of one session.
type Progress struct {
	CurrentIndex         int     `json:"current_index"`
	Aligned              bool    `json:"aligned"`
	LastBearing          float64 `json:"last_bearing"`
	LastDistanceToTarget float64 `json:"last_distance_to_target"`
	Complete             bool    `json:"complete"`
}
