// Package navigation is the walking-guidance state machine: it fuses
// position and heading samples, tracks progress along a pre-authored route,
// decides alignment with the next waypoint and watches geofences.
//
// Nothing in this package blocks, performs I/O or starts goroutines. A
// Session is owned by exactly one caller and is not safe for concurrent use.
package navigation

import (
	"fmt"
	"strings"
)

// Calibrated defaults. Earlier prototypes used 2, 7 and 10 meters for the
// advance threshold; 7 is the production value.
const (
	DefaultAdvanceThreshold   = 7.0  // meters
	DefaultAlignmentThreshold = 15.0 // degrees
	DefaultStepLength         = 0.75 // meters per step
	// DefaultPaceScale is an empirical fudge factor applied to step
	// estimates; walkers in crowded concourses take shorter steps.
	DefaultPaceScale       = 1.5
	DefaultSmoothingWindow = 1
)

// AlertMode selects how geofence containment is turned into alerts.
type AlertMode string

const (
	// AlertEdge alerts only when containment changes.
	AlertEdge AlertMode = "edge"
	// AlertLevel alerts on every sample taken inside a polygon.
	AlertLevel AlertMode = "level"
)

// ParseAlertMode accepts "edge" or "level" (case-insensitive); empty means edge.
func ParseAlertMode(s string) (AlertMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(AlertEdge):
		return AlertEdge, nil
	case string(AlertLevel):
		return AlertLevel, nil
	}
	return "", fmt.Errorf("unknown geofence alert mode %q", s)
}

// Tuning holds the calibration constants of a session.
type Tuning struct {
	AdvanceThreshold   float64
	AlignmentThreshold float64
	StepLength         float64
	PaceScale          float64
	SmoothingWindow    int
	GeofenceMode       AlertMode
}

// DefaultTuning returns the production calibration.
func DefaultTuning() Tuning {
	return Tuning{
		AdvanceThreshold:   DefaultAdvanceThreshold,
		AlignmentThreshold: DefaultAlignmentThreshold,
		StepLength:         DefaultStepLength,
		PaceScale:          DefaultPaceScale,
		SmoothingWindow:    DefaultSmoothingWindow,
		GeofenceMode:       AlertEdge,
	}
}

// withDefaults fills zero fields from DefaultTuning.
func (t Tuning) withDefaults() Tuning {
	d := DefaultTuning()
	if t.AdvanceThreshold <= 0 {
		t.AdvanceThreshold = d.AdvanceThreshold
	}
	if t.AlignmentThreshold <= 0 {
		t.AlignmentThreshold = d.AlignmentThreshold
	}
	if t.StepLength <= 0 {
		t.StepLength = d.StepLength
	}
	if t.PaceScale <= 0 {
		t.PaceScale = d.PaceScale
	}
	if t.SmoothingWindow <= 0 {
		t.SmoothingWindow = d.SmoothingWindow
	}
	if t.GeofenceMode == "" {
		t.GeofenceMode = d.GeofenceMode
	}
	return t
}
