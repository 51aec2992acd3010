// Package natsbus implements the messaging bus on NATS. Subjects map
// directly onto the routing-key scheme and NATS reply subjects carry the
// per-request reply-to address.
package natsbus

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mkrato/battleship-server/internal/messaging"
)

// Config holds NATS connection settings
type Config struct {
	URL string
	// ClientName is reported to the NATS server for monitoring
	ClientName string
}

// DefaultConfig returns connection defaults
func DefaultConfig() Config {
	return Config{
		URL:        nats.DefaultURL,
		ClientName: "battleship-server",
	}
}

// Bus is a NATS-backed messaging bus
type Bus struct {
	conn *nats.Conn
}

// Ensure Bus implements the interface
var _ messaging.Bus = (*Bus)(nil)

// Connect establishes a NATS connection with automatic reconnection
func Connect(cfg Config) (*Bus, error) {
	conn, err := nats.Connect(
		cfg.URL,
		nats.Name(cfg.ClientName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.PingInterval(20*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", cfg.URL, err)
	}
	return &Bus{conn: conn}, nil
}

// NewWithConn wraps an existing connection (for testing)
func NewWithConn(conn *nats.Conn) *Bus {
	return &Bus{conn: conn}
}

// Publish sends data on a subject
func (b *Bus) Publish(subject string, data []byte) error {
	return b.conn.Publish(subject, data)
}

// PublishReply sends data on a subject with a reply-to address attached
func (b *Bus) PublishReply(subject, reply string, data []byte) error {
	return b.conn.PublishMsg(&nats.Msg{
		Subject: subject,
		Reply:   reply,
		Data:    data,
	})
}

// Subscribe binds a handler to a subject. NATS dispatches each async
// subscription's callbacks from a single goroutine, so delivery order
// per subscription is preserved.
func (b *Bus) Subscribe(subject string, handler messaging.Handler) (messaging.Subscription, error) {
	sub, err := b.conn.Subscribe(subject, func(m *nats.Msg) {
		handler(messaging.Message{
			Subject: m.Subject,
			Reply:   m.Reply,
			Data:    m.Data,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", subject, err)
	}
	return sub, nil
}

// Close drains and closes the connection
func (b *Bus) Close() error {
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
		return err
	}
	return nil
}
