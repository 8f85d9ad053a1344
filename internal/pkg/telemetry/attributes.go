package telemetry

// Span attribute keys.
const (
	AttrSessionID = "stepwise.session_id"
	AttrRouteID   = "stepwise.route_id"
	AttrEvents    = "stepwise.events"
	AttrIndex     = "stepwise.waypoint_index"
)
