package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/stepwise/internal/core/domain"
)

// RouteRepo implements ports.RouteRepository. A route is stored as one row in
// routes plus ordered rows in route_waypoints and route_geofences.
type RouteRepo struct {
	db *DB
}

func NewRouteRepo(db *DB) *RouteRepo { return &RouteRepo{db: db} }

// Upsert replaces the route, its waypoints and its geofences in one
// transaction.
func (r *RouteRepo) Upsert(ctx context.Context, route *domain.Route) error {
	return pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO routes (id, name, description, created_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name, description = EXCLUDED.description, updated_at = now()
		`, route.ID, route.Name, route.Description, route.CreatedAt)
		if err != nil {
			return fmt.Errorf("upsert route: %w", err)
		}

		batch := &pgx.Batch{}
		batch.Queue(`DELETE FROM route_waypoints WHERE route_id = $1`, route.ID)
		batch.Queue(`DELETE FROM route_geofences WHERE route_id = $1`, route.ID)
		for i, w := range route.Waypoints {
			batch.Queue(`
				INSERT INTO route_waypoints (route_id, seq, instruction, step_hint, lat, lon)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, route.ID, i, w.Instruction, w.StepHint, w.Position.Lat, w.Position.Lon)
		}
		for i, g := range route.Geofences {
			ring, err := json.Marshal(g.Ring)
			if err != nil {
				return fmt.Errorf("encode geofence %q: %w", g.Name, err)
			}
			batch.Queue(`
				INSERT INTO route_geofences (route_id, seq, name, message, ring)
				VALUES ($1, $2, $3, $4, $5)
			`, route.ID, i, g.Name, g.Message, ring)
		}

		br := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("batch exec: %w", err)
			}
		}
		return br.Close()
	})
}

func (r *RouteRepo) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	var rt domain.Route
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, description, created_at
		FROM routes WHERE id = $1
	`, id).Scan(&rt.ID, &rt.Name, &rt.Description, &rt.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRouteNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT instruction, step_hint, lat, lon
		FROM route_waypoints WHERE route_id = $1 ORDER BY seq
	`, id)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var w domain.Waypoint
		if err := rows.Scan(&w.Instruction, &w.StepHint, &w.Position.Lat, &w.Position.Lon); err != nil {
			rows.Close()
			return nil, err
		}
		rt.Waypoints = append(rt.Waypoints, w)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.db.Pool.Query(ctx, `
		SELECT name, message, ring
		FROM route_geofences WHERE route_id = $1 ORDER BY seq
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			g    domain.GeofencePolygon
			ring []byte
		)
		if err := rows.Scan(&g.Name, &g.Message, &ring); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(ring, &g.Ring); err != nil {
			return nil, fmt.Errorf("decode geofence %q: %w", g.Name, err)
		}
		rt.Geofences = append(rt.Geofences, g)
	}
	return &rt, rows.Err()
}

func (r *RouteRepo) List(ctx context.Context, limit, offset int) ([]domain.RouteSummary, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT r.id, r.name, r.description, r.created_at,
		       (SELECT count(*) FROM route_waypoints w WHERE w.route_id = r.id),
		       (SELECT count(*) FROM route_geofences g WHERE g.route_id = r.id)
		FROM routes r
		ORDER BY r.created_at DESC, r.id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []domain.RouteSummary
	for rows.Next() {
		var s domain.RouteSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.CreatedAt, &s.WaypointCount, &s.GeofenceCount); err != nil {
			return nil, err
		}
		routes = append(routes, s)
	}
	return routes, rows.Err()
}

func (r *RouteRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM routes`).Scan(&n)
	return n, err
}

func (r *RouteRepo) WithinBounds(ctx context.Context, b domain.Bounds, limit int) ([]domain.RouteSummary, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT r.id, r.name, r.description, r.created_at, w.lat, w.lon,
		       (SELECT count(*) FROM route_waypoints x WHERE x.route_id = r.id),
		       (SELECT count(*) FROM route_geofences g WHERE g.route_id = r.id)
		FROM routes r
		JOIN route_waypoints w ON w.route_id = r.id AND w.seq = 0
		WHERE w.lat BETWEEN $1 AND $2 AND w.lon BETWEEN $3 AND $4
		ORDER BY r.id
		LIMIT $5
	`, b.MinLat, b.MaxLat, b.MinLon, b.MaxLon, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []domain.RouteSummary
	for rows.Next() {
		var (
			s     domain.RouteSummary
			start domain.Coordinate
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.CreatedAt, &start.Lat, &start.Lon, &s.WaypointCount, &s.GeofenceCount); err != nil {
			return nil, err
		}
		s.Start = &start
		routes = append(routes, s)
	}
	return routes, rows.Err()
}

// Delete removes a route; waypoints and geofences cascade.
func (r *RouteRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM routes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRouteNotFound
	}
	return nil
}
