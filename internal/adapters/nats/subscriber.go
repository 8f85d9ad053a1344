package natsadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/stepwise/internal/core/domain"
	"github.com/samirrijal/stepwise/internal/core/ports"
)

// Subscriber implements ports.SampleSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

var _ ports.SampleSubscriber = (*Subscriber)(nil)

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
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
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeSamples consumes navigation.samples.> with a durable consumer.
// Samples that can never succeed (unknown session, invalid values) are
// terminated instead of redelivered.
func (s *Subscriber) SubscribeSamples(ctx context.Context, handler ports.SampleHandler) error {
	sub, err := s.js.Subscribe(SampleSubjectPrefix+">", func(msg *nats.Msg) {
		sessionID := strings.TrimPrefix(msg.Subject, SampleSubjectPrefix)

		var sample domain.Sample
		if err := json.Unmarshal(msg.Data, &sample); err != nil {
			slog.Warn("malformed sample", "subject", msg.Subject, "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, sessionID, sample); err != nil {
			if permanent(err) {
				_ = msg.Term()
				return
			}
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("sample-processor"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

func permanent(err error) bool {
	return errors.Is(err, domain.ErrSessionNotFound) ||
		errors.Is(err, domain.ErrInvalidCoordinate) ||
		errors.Is(err, domain.ErrInvalidHeading)
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
