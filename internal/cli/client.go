package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/mkrato/battleship-server/internal/dependencies/random"
	"github.com/mkrato/battleship-server/internal/messaging"
	"github.com/mkrato/battleship-server/internal/messaging/natsbus"
	"github.com/mkrato/battleship-server/internal/protocol"
)

const inboxAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// ErrTimeout is returned when the server does not reply in time
var ErrTimeout = errors.New("timed out waiting for reply")

// Client is a protocol client on the message bus. It owns a private
// reply subject and performs request/reply exchanges against a server's
// routing subjects.
type Client struct {
	bus     *natsbus.Bus
	server  string
	inbox   string
	replies chan protocol.Message
	sub     messaging.Subscription
	timeout time.Duration
}

// NewClient connects to the bus and binds a private reply subject
func NewClient(natsURL, server string, timeout time.Duration) (*Client, error) {
	busCfg := natsbus.DefaultConfig()
	busCfg.URL = natsURL
	busCfg.ClientName = "bshipctl"
	bus, err := natsbus.Connect(busCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to bus: %w", err)
	}

	c := &Client{
		bus:     bus,
		server:  server,
		inbox:   "_inbox." + random.New().String(22, inboxAlphabet),
		replies: make(chan protocol.Message, 64),
		timeout: timeout,
	}

	sub, err := bus.Subscribe(c.inbox, func(msg messaging.Message) {
		decoded, err := protocol.Decode(msg.Data)
		if err != nil {
			return
		}
		select {
		case c.replies <- decoded:
		default:
		}
	})
	if err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("failed to bind reply subject: %w", err)
	}
	c.sub = sub
	return c, nil
}

// Close releases the reply subject and the bus connection
func (c *Client) Close() {
	if c.sub != nil {
		_ = c.sub.Unsubscribe()
	}
	_ = c.bus.Close()
}

// Request sends a request on subject and waits for the reply
func (c *Client) Request(subject string, tag protocol.Tag, fields ...string) (protocol.Message, error) {
	if err := c.bus.PublishReply(subject, c.inbox, protocol.Encode(tag, fields...)); err != nil {
		return protocol.Message{}, fmt.Errorf("failed to publish request: %w", err)
	}
	select {
	case reply := <-c.replies:
		return reply, nil
	case <-time.After(c.timeout):
		return protocol.Message{}, ErrTimeout
	}
}

// Subscribe attaches a raw handler to a subject, for event streaming
func (c *Client) Subscribe(subject string, handler func(protocol.Message)) (messaging.Subscription, error) {
	return c.bus.Subscribe(subject, func(msg messaging.Message) {
		decoded, err := protocol.Decode(msg.Data)
		if err != nil {
			return
		}
		handler(decoded)
	})
}

// SubscribeRaw attaches a handler that receives undecoded payloads, for
// subjects that carry bare server names rather than protocol messages
func (c *Client) SubscribeRaw(subject string, handler func([]byte)) (messaging.Subscription, error) {
	return c.bus.Subscribe(subject, func(msg messaging.Message) {
		handler(msg.Data)
	})
}

// ClientSubject is the server's connect/disconnect subject
func (c *Client) ClientSubject() string {
	return protocol.ClientSubject(c.server)
}

// GamesSubject is the server's lobby subject
func (c *Client) GamesSubject() string {
	return protocol.GamesSubject(c.server)
}

// GameSubject is a game's request subject
func (c *Client) GameSubject(game string) string {
	return protocol.GameSubject(c.server, game)
}

// GameEventsSubject is a game's broadcast subject
func (c *Client) GameEventsSubject(game string) string {
	return protocol.GameEventsSubject(c.server, game)
}
