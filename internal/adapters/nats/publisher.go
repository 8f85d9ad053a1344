package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/stepwise/internal/core/domain"
	"github.com/samirrijal/stepwise/internal/core/ports"
)

// Subjects. A session's events go to navigation.events.<session id>; devices
// push samples to navigation.samples.<session id>.
const (
	EventSubjectPrefix  = "navigation.events."
	SampleSubjectPrefix = "navigation.samples."
)

// EventSubject is the subject carrying one session's events.
func EventSubject(sessionID string) string { return EventSubjectPrefix + sessionID }

// SampleSubject is the subject devices publish one session's samples to.
func SampleSubject(sessionID string) string { return SampleSubjectPrefix + sessionID }

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

var _ ports.EventPublisher = (*Publisher)(nil)

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if err := ensureStreams(js); err != nil {
		return nil, err
	}

	return &Publisher{conn: conn, js: js}, nil
}

func ensureStreams(js nats.JetStreamContext) error {
	streams := []nats.StreamConfig{
		{
			Name:      "NAV_EVENTS",
			Subjects:  []string{EventSubjectPrefix + ">"},
			Retention: nats.LimitsPolicy,
			MaxAge:    1 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "NAV_SAMPLES",
			Subjects:  []string{SampleSubjectPrefix + ">"},
			Retention: nats.WorkQueuePolicy,
			MaxAge:    5 * time.Minute,
			Storage:   nats.MemoryStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}
	return nil
}

// PublishSessionEvent publishes one session event as JSON.
func (p *Publisher) PublishSessionEvent(ctx context.Context, ev *domain.SessionEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msgID := fmt.Sprintf("%s-%d", ev.SessionID, ev.Seq)
	_, err = p.js.Publish(EventSubject(ev.SessionID), data, nats.Context(ctx), nats.MsgId(msgID))
	return err
}

// PublishSample publishes a sample on behalf of a device. Used by tooling
// that replays traces through the broker.
func (p *Publisher) PublishSample(ctx context.Context, sessionID string, sample domain.Sample) error {
	data, err := json.Marshal(sample)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SampleSubject(sessionID), data, nats.Context(ctx))
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
