package domain

import "time"

// SessionInfo describes a running navigation session.
type SessionInfo struct {
	ID         string    `json:"id"`
	RouteID    string    `json:"route_id"`
	RouteName  string    `json:"route_name"`
	Waypoints  int       `json:"waypoints"`
	Progress   Progress  `json:"progress"`
	Target     *Waypoint `json:"target,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// SessionEvent is a navigation event as published to clients: the event, its
// spoken text and the session it belongs to.
type SessionEvent struct {
	SessionID string    `json:"session_id"`
	RouteID   string    `json:"route_id"`
	Seq       uint64    `json:"seq"`
	Event     Event     `json:"event"`
	Text      string    `json:"text,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SafetyAlert is raised when a walker enters a geofence and someone other
// than the walker should hear about it.
type SafetyAlert struct {
	SessionID   string     `json:"session_id"`
	RouteID     string     `json:"route_id"`
	PolygonName string     `json:"polygon_name"`
	Message     string     `json:"message"`
	Position    Coordinate `json:"position"`
	RaisedAt    time.Time  `json:"raised_at"`
}
