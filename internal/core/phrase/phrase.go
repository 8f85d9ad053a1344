// Package phrase renders navigation events as the short sentences spoken to
// the walker. It holds no state; callers decide when and whether to speak.
package phrase

import (
	"fmt"
	"strconv"

	"github.com/samirrijal/stepwise/internal/core/domain"
)

// DefaultGeofenceMessage is spoken on entering a polygon that has no message
// of its own.
const DefaultGeofenceMessage = "You are too close to the ledge"

// Instruction renders a waypoint's instruction, followed by its step hint in
// meters unless the waypoint is terminal.
func Instruction(w domain.Waypoint) string {
	if w.Terminal() {
		return w.Instruction
	}
	return w.Instruction + " " + number(w.StepHint) + " meters"
}

// Advance renders an advance event.
func Advance(a domain.Advance) string {
	return Instruction(domain.Waypoint{Instruction: a.Instruction, StepHint: a.StepHint})
}

// Alignment renders an alignment update.
func Alignment(u domain.AlignmentUpdate) string {
	if u.Aligned {
		steps := 0
		if u.StepEstimate != nil {
			steps = *u.StepEstimate
		}
		return fmt.Sprintf("Aligned. Move forward for approximately %d steps.", steps)
	}
	switch u.TurnDirection {
	case domain.TurnLeft:
		return "Turn left slightly to align with the waypoint."
	case domain.TurnRight:
		return "Turn right slightly to align with the waypoint."
	}
	return ""
}

// Geofence renders a geofence alert.
func Geofence(g domain.GeofenceAlert) string {
	if !g.Entered {
		return fmt.Sprintf("You have moved away from %s.", g.PolygonName)
	}
	if g.Message != "" {
		return g.Message
	}
	return DefaultGeofenceMessage
}

// Event renders any event; NoOp renders as the empty string.
func Event(e domain.Event) string {
	switch {
	case e.Kind == domain.EventAdvance && e.Advance != nil:
		return Advance(*e.Advance)
	case e.Kind == domain.EventAlignment && e.Alignment != nil:
		return Alignment(*e.Alignment)
	case e.Kind == domain.EventGeofence && e.Geofence != nil:
		return Geofence(*e.Geofence)
	}
	return ""
}

func number(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
