package domain

import "errors"

// Input and configuration errors. All are deterministic and non-retryable.
var (
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrEmptyRoute        = errors.New("route has no waypoints")
	ErrMalformedPolygon  = errors.New("geofence polygon needs at least 3 points")
	ErrInvalidHeading    = errors.New("invalid heading")
)

// Service-level lookup errors.
var (
	ErrRouteNotFound   = errors.New("route not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionLimit    = errors.New("too many active sessions")
)
