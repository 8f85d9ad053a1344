package domain

// EventKind tags the variant carried by an Event.
type EventKind string

const (
	EventNoOp      EventKind = "noop"
	EventAdvance   EventKind = "advance"
	EventAlignment EventKind = "alignment"
	EventGeofence  EventKind = "geofence"
)

// TurnDirection is the suggested correction when the walker is misaligned.
type TurnDirection string

const (
	TurnNone  TurnDirection = ""
	TurnLeft  TurnDirection = "left"
	TurnRight TurnDirection = "right"
)

// Advance is emitted when the walker reaches the current waypoint.
type Advance struct {
	Instruction string  `json:"instruction"`
	StepHint    float64 `json:"step_hint"`
	NewIndex    int     `json:"new_index"`
}

// AlignmentUpdate reports whether the walker faces the current target.
type AlignmentUpdate struct {
	Aligned       bool          `json:"aligned"`
	TurnDirection TurnDirection `json:"turn_direction,omitempty"`
	StepEstimate  *int          `json:"step_estimate,omitempty"`
	Bearing       float64       `json:"bearing"`
	Compass       string        `json:"compass,omitempty"`
	Distance      float64       `json:"distance"`
}

// GeofenceAlert reports entering or leaving a geofence polygon.
type GeofenceAlert struct {
	PolygonName string `json:"polygon_name"`
	Entered     bool   `json:"entered"`
	Message     string `json:"message,omitempty"`
}

// Event is a navigation outcome for one sample. Exactly one payload is set,
// matching Kind; a NoOp carries none.
type Event struct {
	Kind      EventKind        `json:"kind"`
	Advance   *Advance         `json:"advance,omitempty"`
	Alignment *AlignmentUpdate `json:"alignment,omitempty"`
	Geofence  *GeofenceAlert   `json:"geofence,omitempty"`
}

// NoOp is the empty event.
func NoOp() Event { return Event{Kind: EventNoOp} }

// IsNoOp reports whether the event carries nothing.
func (e Event) IsNoOp() bool { return e.Kind == EventNoOp || e.Kind == "" }
