package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/stepwise/internal/core/domain"
	"github.com/samirrijal/stepwise/internal/core/navigation"
	"github.com/samirrijal/stepwise/internal/core/phrase"
	"github.com/samirrijal/stepwise/internal/core/ports"
	"github.com/samirrijal/stepwise/internal/pkg/metrics"
	"github.com/samirrijal/stepwise/internal/pkg/telemetry"
)

// Sample sources, used as a metric label.
const (
	SourceHTTP = "http"
	SourceNATS = "nats"
)

// RouteSource resolves route definitions for new sessions.
type RouteSource interface {
	GetByID(ctx context.Context, id string) (*domain.Route, error)
}

// SessionOptions configures a SessionService. Zero values take defaults.
type SessionOptions struct {
	Tuning      navigation.Tuning
	TTL         time.Duration
	MaxSessions int
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// SessionService runs navigation sessions in memory. Each session is guarded
// by its own lock, so samples for one session are processed in arrival order
// while different sessions proceed in parallel.
type SessionService struct {
	routes    RouteSource
	publisher ports.EventPublisher
	escalator ports.SafetyEscalator

	tuning      navigation.Tuning
	ttl         time.Duration
	maxSessions int
	now         func() time.Time
	tracer      trace.Tracer

	mu       sync.RWMutex
	sessions map[string]*activeSession
}

type activeSession struct {
	mu sync.Mutex

	id        string
	routeID   string
	routeName string
	core      *navigation.Session
	seq       uint64
	completed bool
	// fence is the polygon last reported as entered; empty when outside.
	fence     string
	startedAt time.Time
	lastSeen  time.Time
}

// NewSessionService creates a SessionService. publisher and escalator may be
// nil.
func NewSessionService(routes RouteSource, publisher ports.EventPublisher, escalator ports.SafetyEscalator, opts SessionOptions) *SessionService {
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Minute
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 10000
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &SessionService{
		routes:      routes,
		publisher:   publisher,
		escalator:   escalator,
		tuning:      opts.Tuning,
		ttl:         opts.TTL,
		maxSessions: opts.MaxSessions,
		now:         opts.Now,
		tracer:      telemetry.Tracer(),
		sessions:    make(map[string]*activeSession),
	}
}

// Start begins a session on the given route.
func (s *SessionService) Start(ctx context.Context, routeID string) (*domain.SessionInfo, error) {
	route, err := s.routes.GetByID(ctx, routeID)
	if err != nil {
		return nil, err
	}

	core := navigation.NewSession(s.tuning)
	if err := core.Start(route.Waypoints, route.Geofences); err != nil {
		return nil, fmt.Errorf("route %s: %w", routeID, err)
	}

	now := s.now()
	as := &activeSession{
		id:        uuid.NewString(),
		routeID:   route.ID,
		routeName: route.Name,
		core:      core,
		startedAt: now,
		lastSeen:  now,
	}

	s.mu.Lock()
	if len(s.sessions) >= s.maxSessions {
		s.mu.Unlock()
		return nil, domain.ErrSessionLimit
	}
	s.sessions[as.id] = as
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	slog.Info("session started", "session_id", as.id, "route_id", as.routeID, "waypoints", core.RouteLength())

	as.mu.Lock()
	defer as.mu.Unlock()
	info := as.info()
	return &info, nil
}

// Ingest feeds one sample received over HTTP into a session.
func (s *SessionService) Ingest(ctx context.Context, id string, sample domain.Sample) ([]domain.SessionEvent, error) {
	return s.ingest(ctx, id, sample, SourceHTTP)
}

// HandleSample feeds one sample received from the message broker into a
// session. It satisfies ports.SampleHandler.
func (s *SessionService) HandleSample(ctx context.Context, id string, sample domain.Sample) error {
	_, err := s.ingest(ctx, id, sample, SourceNATS)
	return err
}

func (s *SessionService) ingest(ctx context.Context, id string, sample domain.Sample, source string) ([]domain.SessionEvent, error) {
	ctx, span := s.tracer.Start(ctx, "SessionService.Ingest", trace.WithAttributes(
		attribute.String(telemetry.AttrSessionID, id),
	))
	defer span.End()

	as, err := s.lookup(id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if sample.Timestamp.IsZero() {
		sample.Timestamp = s.now()
	}

	var alerts []domain.SafetyAlert

	as.mu.Lock()
	began := time.Now()
	events, err := as.core.Ingest(sample)
	metrics.IngestDuration.Observe(time.Since(began).Seconds())
	if err != nil {
		as.mu.Unlock()
		metrics.SamplesRejected.WithLabelValues(source).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid sample")
		return nil, err
	}
	metrics.SamplesIngested.WithLabelValues(source).Inc()
	as.lastSeen = s.now()

	out := make([]domain.SessionEvent, 0, len(events))
	for _, ev := range events {
		as.seq++
		out = append(out, domain.SessionEvent{
			SessionID: as.id,
			RouteID:   as.routeID,
			Seq:       as.seq,
			Event:     ev,
			Text:      phrase.Event(ev),
			Timestamp: sample.Timestamp,
		})
		metrics.EventsEmitted.WithLabelValues(string(ev.Kind)).Inc()

		switch ev.Kind {
		case domain.EventAdvance:
			slog.Info("waypoint reached", "session_id", as.id, "index", ev.Advance.NewIndex, "instruction", ev.Advance.Instruction)
		case domain.EventGeofence:
			g := ev.Geofence
			direction := "exited"
			if g.Entered {
				direction = "entered"
			}
			metrics.GeofenceAlerts.WithLabelValues(g.PolygonName, direction).Inc()
			slog.Warn("geofence alert", "session_id", as.id, "polygon", g.PolygonName, "direction", direction)
			if !g.Entered {
				as.fence = ""
				break
			}
			if g.PolygonName == as.fence {
				break
			}
			as.fence = g.PolygonName
			if sample.Position != nil {
				alerts = append(alerts, domain.SafetyAlert{
					SessionID:   as.id,
					RouteID:     as.routeID,
					PolygonName: g.PolygonName,
					Message:     phrase.Geofence(*g),
					Position:    *sample.Position,
					RaisedAt:    sample.Timestamp,
				})
			}
		}
	}

	progress := as.core.Progress()
	if progress.Complete && !as.completed {
		as.completed = true
		metrics.SessionsCompleted.Inc()
		slog.Info("route complete", "session_id", as.id, "route_id", as.routeID)
	}

	// publish under the session lock so subscribers see events in order
	if s.publisher != nil {
		for i := range out {
			if err := s.publisher.PublishSessionEvent(ctx, &out[i]); err != nil {
				slog.Warn("publish session event", "session_id", as.id, "seq", out[i].Seq, "error", err)
			}
		}
	}
	as.mu.Unlock()

	for _, alert := range alerts {
		s.escalate(ctx, alert)
	}

	span.SetAttributes(
		attribute.String(telemetry.AttrRouteID, as.routeID),
		attribute.Int(telemetry.AttrEvents, len(out)),
		attribute.Int(telemetry.AttrIndex, progress.CurrentIndex),
	)
	return out, nil
}

func (s *SessionService) escalate(ctx context.Context, alert domain.SafetyAlert) {
	if s.escalator == nil {
		return
	}
	if err := s.escalator.Escalate(ctx, alert); err != nil {
		metrics.EscalationErrors.Inc()
		slog.Error("safety escalation failed", "session_id", alert.SessionID, "polygon", alert.PolygonName, "error", err)
	}
}

// Progress returns a snapshot of a session.
func (s *SessionService) Progress(ctx context.Context, id string) (*domain.SessionInfo, error) {
	as, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	as.mu.Lock()
	defer as.mu.Unlock()
	info := as.info()
	return &info, nil
}

// List returns snapshots of all sessions, oldest first.
func (s *SessionService) List(ctx context.Context) []domain.SessionInfo {
	s.mu.RLock()
	all := make([]*activeSession, 0, len(s.sessions))
	for _, as := range s.sessions {
		all = append(all, as)
	}
	s.mu.RUnlock()

	out := make([]domain.SessionInfo, 0, len(all))
	for _, as := range all {
		as.mu.Lock()
		out = append(out, as.info())
		as.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// End removes a session.
func (s *SessionService) End(ctx context.Context, id string) error {
	s.mu.Lock()
	as, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return domain.ErrSessionNotFound
	}
	metrics.ActiveSessions.Set(float64(n))
	slog.Info("session ended", "session_id", id, "route_id", as.routeID)
	return nil
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed.
func (s *SessionService) Sweep(now time.Time) int {
	s.mu.Lock()
	var expired []string
	for id, as := range s.sessions {
		as.mu.Lock()
		idle := now.Sub(as.lastSeen)
		as.mu.Unlock()
		if idle > s.ttl {
			expired = append(expired, id)
			delete(s.sessions, id)
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if len(expired) > 0 {
		metrics.SessionsExpired.Add(float64(len(expired)))
		metrics.ActiveSessions.Set(float64(n))
		slog.Info("idle sessions swept", "count", len(expired), "remaining", n)
	}
	return len(expired)
}

// Run sweeps idle sessions every interval until ctx is cancelled.
func (s *SessionService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(s.now())
		}
	}
}

// Count returns the number of active sessions.
func (s *SessionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionService) lookup(id string) (*activeSession, error) {
	s.mu.RLock()
	as, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return as, nil
}

// info must be called with as.mu held.
func (as *activeSession) info() domain.SessionInfo {
	info := domain.SessionInfo{
		ID:         as.id,
		RouteID:    as.routeID,
		RouteName:  as.routeName,
		Waypoints:  as.core.RouteLength(),
		Progress:   as.core.Progress(),
		StartedAt:  as.startedAt,
		LastSeenAt: as.lastSeen,
	}
	if w, ok := as.core.Target(); ok {
		info.Target = &w
	}
	return info
}
