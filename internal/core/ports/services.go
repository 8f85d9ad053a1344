package ports

import (
	"context"

	"github.com/samirrijal/stepwise/internal/core/domain"
)

// EventPublisher publishes session events to a message broker.
type EventPublisher interface {
	PublishSessionEvent(ctx context.Context, ev *domain.SessionEvent) error
}

// SampleHandler consumes one sensor sample addressed to a session.
type SampleHandler func(ctx context.Context, sessionID string, sample domain.Sample) error

// SampleSubscriber delivers sensor samples pushed by devices through a
// message broker.
type SampleSubscriber interface {
	SubscribeSamples(ctx context.Context, handler SampleHandler) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// SafetyEscalator hands geofence alerts to an out-of-band process that
// notifies a caregiver.
type SafetyEscalator interface {
	Escalate(ctx context.Context, alert domain.SafetyAlert) error
}
