// Package events provides EventPublisher adapters for the engine's
// lifecycle events. Downstream consumers (e.g. a notifier or an
// analytics pipeline) subscribe on the bus; this service only
// publishes.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"hogar360/internal/domain"
)

type natsPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to the NATS server at url and returns a
// publisher bound to that connection.
func NewNATSPublisher(url string) (*natsPublisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &natsPublisher{conn: conn}, nil
}

var _ domain.EventPublisher = (*natsPublisher)(nil)

func (p *natsPublisher) Publish(_ context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return p.conn.Publish(subject, data)
}

// Close drains the underlying connection.
func (p *natsPublisher) Close() {
	p.conn.Close()
}

type noopPublisher struct{}

// NewNoopPublisher returns a publisher that discards every event. Used
// when no event bus is configured.
func NewNoopPublisher() domain.EventPublisher { return noopPublisher{} }

func (noopPublisher) Publish(context.Context, string, any) error { return nil }
