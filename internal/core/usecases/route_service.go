package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/samirrijal/stepwise/internal/core/domain"
	"github.com/samirrijal/stepwise/internal/core/ports"
	"github.com/samirrijal/stepwise/internal/pkg/geospatial"
	"github.com/samirrijal/stepwise/internal/pkg/metrics"
)

const (
	routeCacheTTL    = 10 * time.Minute
	routeLocalSize   = 256
	routeLocalTTL    = 2 * time.Minute
	routeCachePrefix = "routes:id:"

	nearbyCacheTTL   = time.Minute
	nearbyCandidates = 200
	nearbyMaxLimit   = 50
)

// RouteService handles route-related business logic. Route definitions are
// read far more often than written, so lookups go through an in-process LRU,
// then the shared cache, then the repository.
type RouteService struct {
	routes ports.RouteRepository
	cache  ports.CacheService
	local  *expirable.LRU[string, *domain.Route]
}

// NewRouteService creates a new RouteService. cache may be nil.
func NewRouteService(routes ports.RouteRepository, cache ports.CacheService) *RouteService {
	return &RouteService{
		routes: routes,
		cache:  cache,
		local:  expirable.NewLRU[string, *domain.Route](routeLocalSize, nil, routeLocalTTL),
	}
}

// List returns route summaries, newest first.
func (s *RouteService) List(ctx context.Context, limit, offset int) ([]domain.RouteSummary, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.routes.List(ctx, limit, offset)
}

// Count returns the number of stored routes.
func (s *RouteService) Count(ctx context.Context) (int, error) {
	return s.routes.Count(ctx)
}

// FindNearby returns routes starting within radiusMeters of center, nearest
// first.
func (s *RouteService) FindNearby(ctx context.Context, center domain.Coordinate, radiusMeters float64, limit int) ([]domain.RouteSummary, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > nearbyMaxLimit {
		limit = nearbyMaxLimit
	}

	cacheKey := fmt.Sprintf("routes:nearby:%.5f:%.5f:%.0f:%d", center.Lat, center.Lon, radiusMeters, limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var routes []domain.RouteSummary
			if err := json.Unmarshal(data, &routes); err == nil {
				metrics.CacheHits.WithLabelValues("valkey").Inc()
				return routes, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("valkey").Inc()
	}

	var b domain.Bounds
	b.MinLat, b.MinLon, b.MaxLat, b.MaxLon = geospatial.BoundingBox(center.Lat, center.Lon, radiusMeters)
	candidates, err := s.routes.WithinBounds(ctx, b, nearbyCandidates)
	if err != nil {
		return nil, err
	}

	routes := make([]domain.RouteSummary, 0, len(candidates))
	for _, r := range candidates {
		if r.Start == nil {
			continue
		}
		d := geospatial.Haversine(center.Lat, center.Lon, r.Start.Lat, r.Start.Lon)
		if d > radiusMeters {
			continue
		}
		r.Distance = &d
		routes = append(routes, r)
	}
	sort.SliceStable(routes, func(i, j int) bool { return *routes[i].Distance < *routes[j].Distance })
	if len(routes) > limit {
		routes = routes[:limit]
	}

	if s.cache != nil {
		if data, err := json.Marshal(routes); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, int(nearbyCacheTTL.Seconds()))
		}
	}
	return routes, nil
}

// GetByID returns a route with its waypoints and geofences.
func (s *RouteService) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	if r, ok := s.local.Get(id); ok {
		metrics.CacheHits.WithLabelValues("local").Inc()
		return r, nil
	}
	metrics.CacheMisses.WithLabelValues("local").Inc()

	cacheKey := routeCachePrefix + id
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var route domain.Route
			if err := json.Unmarshal(data, &route); err == nil {
				metrics.CacheHits.WithLabelValues("valkey").Inc()
				s.local.Add(id, &route)
				return &route, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("valkey").Inc()
	}

	route, err := s.routes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.local.Add(id, route)
	if s.cache != nil {
		if data, err := json.Marshal(route); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, int(routeCacheTTL.Seconds()))
		}
	}

	return route, nil
}

// Import validates a route and stores it, replacing any route with the same
// ID. A missing ID is generated.
func (s *RouteService) Import(ctx context.Context, route *domain.Route) error {
	if err := route.Validate(); err != nil {
		return fmt.Errorf("route %q: %w", route.ID, err)
	}
	if route.ID == "" {
		route.ID = uuid.NewString()
	}
	if route.CreatedAt.IsZero() {
		route.CreatedAt = time.Now().UTC()
	}

	if err := s.routes.Upsert(ctx, route); err != nil {
		return fmt.Errorf("upsert route %s: %w", route.ID, err)
	}
	s.invalidate(ctx, route.ID)
	return nil
}

// Delete removes a route.
func (s *RouteService) Delete(ctx context.Context, id string) error {
	if err := s.routes.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *RouteService) invalidate(ctx context.Context, id string) {
	s.local.Remove(id)
	if s.cache != nil {
		_ = s.cache.Delete(ctx, routeCachePrefix+id)
	}
}
