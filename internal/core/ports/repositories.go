package ports

import (
	"context"

	"github.com/samirrijal/stepwise/internal/core/domain"
)

// RouteRepository persists routes with their waypoints and geofences.
type RouteRepository interface {
	// Upsert replaces the route and all of its waypoints and geofences.
	Upsert(ctx context.Context, route *domain.Route) error
	GetByID(ctx context.Context, id string) (*domain.Route, error)
	List(ctx context.Context, limit, offset int) ([]domain.RouteSummary, error)
	Count(ctx context.Context) (int, error)
	// WithinBounds returns routes whose first waypoint lies inside b, with
	// Start set.
	WithinBounds(ctx context.Context, b domain.Bounds, limit int) ([]domain.RouteSummary, error)
	Delete(ctx context.Context, id string) error
}
