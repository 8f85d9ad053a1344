package usecases_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/samirrijal/stepwise/internal/core/domain"
	"github.com/samirrijal/stepwise/internal/core/usecases"
)

// --- Mock RouteRepository ---

type mockRouteRepo struct {
	getByIDFn func(ctx context.Context, id string) (*domain.Route, error)
	listFn    func(ctx context.Context, limit, offset int) ([]domain.RouteSummary, error)
	upsertFn  func(ctx context.Context, r *domain.Route) error
	deleteFn  func(ctx context.Context, id string) error
	countFn   func(ctx context.Context) (int, error)
	boundsFn  func(ctx context.Context, b domain.Bounds, limit int) ([]domain.RouteSummary, error)
}

func (m *mockRouteRepo) Upsert(ctx context.Context, r *domain.Route) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, r)
	}
	return nil
}

func (m *mockRouteRepo) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrRouteNotFound
}

func (m *mockRouteRepo) List(ctx context.Context, limit, offset int) ([]domain.RouteSummary, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockRouteRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

func (m *mockRouteRepo) WithinBounds(ctx context.Context, b domain.Bounds, limit int) ([]domain.RouteSummary, error) {
	if m.boundsFn != nil {
		return m.boundsFn(ctx, b, limit)
	}
	return nil, nil
}

func (m *mockRouteRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// --- Mock CacheService ---

type mockCache struct {
	data    map[string][]byte
	deleted []string
}

func newMockCache() *mockCache { return &mockCache{data: map[string][]byte{}} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, errors.New("miss")
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func stationRoute(id string) *domain.Route {
	return &domain.Route{
		ID:   id,
		Name: "Platform 2 to exit B",
		Waypoints: []domain.Waypoint{
			{Instruction: "Walk forward", StepHint: 20, Position: domain.Coordinate{Lat: 28.5121332, Lon: 77.409751}},
			{Instruction: "You have arrived", StepHint: 0, Position: domain.Coordinate{Lat: 28.5124, Lon: 77.409751}},
		},
	}
}

// --- Tests ---

func TestRouteService_GetByID_ReadThrough(t *testing.T) {
	calls := 0
	repo := &mockRouteRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Route, error) {
			calls++
			return stationRoute(id), nil
		},
	}
	cache := newMockCache()
	svc := usecases.NewRouteService(repo, cache)

	r, err := svc.GetByID(context.Background(), "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Name != "Platform 2 to exit B" || len(r.Waypoints) != 2 {
		t.Errorf("unexpected route %+v", r)
	}
	if _, ok := cache.data["routes:id:r1"]; !ok {
		t.Error("expected route written to shared cache")
	}

	if _, err := svc.GetByID(context.Background(), "r1"); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("expected repo hit once, got %d", calls)
	}
}

func TestRouteService_GetByID_SharedCacheHit(t *testing.T) {
	repo := &mockRouteRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Route, error) {
			t.Fatal("repository should not be called on cache hit")
			return nil, nil
		},
	}
	cache := newMockCache()
	data, _ := json.Marshal(stationRoute("r2"))
	cache.data["routes:id:r2"] = data

	svc := usecases.NewRouteService(repo, cache)
	r, err := svc.GetByID(context.Background(), "r2")
	if err != nil || r.ID != "r2" {
		t.Fatalf("GetByID = %v, %v", r, err)
	}
}

func TestRouteService_GetByID_NotFound(t *testing.T) {
	svc := usecases.NewRouteService(&mockRouteRepo{}, nil)
	if _, err := svc.GetByID(context.Background(), "missing"); !errors.Is(err, domain.ErrRouteNotFound) {
		t.Fatalf("expected ErrRouteNotFound, got %v", err)
	}
}

func TestRouteService_List_ClampLimit(t *testing.T) {
	var gotLimit, gotOffset int
	repo := &mockRouteRepo{
		listFn: func(ctx context.Context, limit, offset int) ([]domain.RouteSummary, error) {
			gotLimit, gotOffset = limit, offset
			return []domain.RouteSummary{{ID: "r1", WaypointCount: 2}}, nil
		},
	}
	svc := usecases.NewRouteService(repo, nil)

	routes, err := svc.List(context.Background(), 1000, -5)
	if err != nil || len(routes) != 1 {
		t.Fatalf("List = %v, %v", routes, err)
	}
	if gotLimit != 50 || gotOffset != 0 {
		t.Errorf("expected limit 50 offset 0, got %d %d", gotLimit, gotOffset)
	}
}

func TestRouteService_Import(t *testing.T) {
	var stored *domain.Route
	repo := &mockRouteRepo{
		upsertFn: func(ctx context.Context, r *domain.Route) error {
			stored = r
			return nil
		},
	}
	cache := newMockCache()
	svc := usecases.NewRouteService(repo, cache)

	r := stationRoute("")
	if err := svc.Import(context.Background(), r); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stored == nil || stored.ID == "" || stored.CreatedAt.IsZero() {
		t.Fatalf("expected generated ID and timestamp, got %+v", stored)
	}
	if len(cache.deleted) != 1 || cache.deleted[0] != "routes:id:"+stored.ID {
		t.Errorf("expected cache invalidation, got %v", cache.deleted)
	}
}

func TestRouteService_Import_Invalid(t *testing.T) {
	repo := &mockRouteRepo{
		upsertFn: func(ctx context.Context, r *domain.Route) error {
			t.Fatal("invalid route must not be stored")
			return nil
		},
	}
	svc := usecases.NewRouteService(repo, nil)

	if err := svc.Import(context.Background(), &domain.Route{ID: "empty"}); !errors.Is(err, domain.ErrEmptyRoute) {
		t.Fatalf("expected ErrEmptyRoute, got %v", err)
	}

	bad := stationRoute("bad")
	bad.Geofences = []domain.GeofencePolygon{{Name: "line", Ring: []domain.Coordinate{{}, {Lat: 1}}}}
	if err := svc.Import(context.Background(), bad); !errors.Is(err, domain.ErrMalformedPolygon) {
		t.Fatalf("expected ErrMalformedPolygon, got %v", err)
	}
}

func TestRouteService_Delete_Invalidates(t *testing.T) {
	calls := 0
	repo := &mockRouteRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Route, error) {
			calls++
			return stationRoute(id), nil
		},
	}
	svc := usecases.NewRouteService(repo, nil)

	_, _ = svc.GetByID(context.Background(), "r1")
	if err := svc.Delete(context.Background(), "r1"); err != nil {
		t.Fatal(err)
	}
	_, _ = svc.GetByID(context.Background(), "r1")
	if calls != 2 {
		t.Fatalf("expected local cache dropped after delete, repo calls = %d", calls)
	}
}

func TestRouteService_FindNearby(t *testing.T) {
	center := domain.Coordinate{Lat: 43.263, Lon: -2.935}
	var gotBounds domain.Bounds
	repo := &mockRouteRepo{
		boundsFn: func(ctx context.Context, b domain.Bounds, limit int) ([]domain.RouteSummary, error) {
			gotBounds = b
			return []domain.RouteSummary{
				{ID: "far", Start: &domain.Coordinate{Lat: 43.2674, Lon: -2.935}},     // ~490 m
				{ID: "corner", Start: &domain.Coordinate{Lat: 43.2670, Lon: -2.9300}}, // in the box, outside the circle
				{ID: "near", Start: &domain.Coordinate{Lat: 43.2635, Lon: -2.935}},    // ~56 m
				{ID: "nostart"},
			}, nil
		},
	}
	cache := newMockCache()
	svc := usecases.NewRouteService(repo, cache)

	routes, err := svc.FindNearby(context.Background(), center, 500, 10)
	if err != nil {
		t.Fatalf("FindNearby: %v", err)
	}
	if !(gotBounds.MinLat < center.Lat && center.Lat < gotBounds.MaxLat && gotBounds.MinLon < center.Lon && center.Lon < gotBounds.MaxLon) {
		t.Errorf("bounds %+v do not contain the center", gotBounds)
	}
	if len(routes) != 2 || routes[0].ID != "near" || routes[1].ID != "far" {
		t.Fatalf("expected [near far], got %+v", routes)
	}
	if routes[0].Distance == nil || *routes[0].Distance > 60 || *routes[0].Distance < 50 {
		t.Errorf("near distance = %v", routes[0].Distance)
	}
	if len(cache.data) != 1 {
		t.Errorf("expected nearby result cached, got %d keys", len(cache.data))
	}

	// second call is served from the shared cache
	repo.boundsFn = func(ctx context.Context, b domain.Bounds, limit int) ([]domain.RouteSummary, error) {
		t.Fatal("repository should not be called on cache hit")
		return nil, nil
	}
	again, err := svc.FindNearby(context.Background(), center, 500, 10)
	if err != nil || len(again) != 2 {
		t.Fatalf("cached FindNearby = %v, %v", again, err)
	}
}

func TestRouteService_FindNearby_InvalidCenter(t *testing.T) {
	svc := usecases.NewRouteService(&mockRouteRepo{}, nil)
	_, err := svc.FindNearby(context.Background(), domain.Coordinate{Lat: 91}, 500, 10)
	if !errors.Is(err, domain.ErrInvalidCoordinate) {
		t.Fatalf("expected ErrInvalidCoordinate, got %v", err)
	}
}
