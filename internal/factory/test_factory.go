package factory

import (
	"fmt"
	"sync"
	"time"

	"github.com/mkrato/battleship-server/internal/dependencies/mocks"
	"github.com/mkrato/battleship-server/internal/messaging"
	"github.com/mkrato/battleship-server/internal/messaging/membus"
	"github.com/mkrato/battleship-server/internal/protocol"
	"github.com/mkrato/battleship-server/internal/storage/memory"
	"github.com/mkrato/battleship-server/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// MemBus is the in-process bus the app is attached to
	MemBus *membus.Bus

	// Mocks for test control
	MockClock *mocks.MockClock
}

// NewTestApp creates an App over an in-process bus with mocked dependencies.
// The presence beacon runs slowly enough to stay quiet during tests.
func NewTestApp(serverName string) *TestApp {
	bus := membus.New()
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	app := newWithDependencies(serverName, bus, store, mockClock, time.Hour, testutil.NopLogger())
	app.ownsBus = true

	return &TestApp{
		App:       app,
		MemBus:    bus,
		MockClock: mockClock,
	}
}

// TestClient simulates a protocol client on the bus: it owns a private
// reply subject, sends requests with that reply address and collects the
// responses in arrival order.
type TestClient struct {
	Name string

	bus   *membus.Bus
	inbox string
	sub   messaging.Subscription

	mu      sync.Mutex
	replies []protocol.Message
	wake    chan struct{}
}

// NewTestClient attaches a simulated client to the bus
func (t *TestApp) NewTestClient(name string) (*TestClient, error) {
	c := &TestClient{
		Name:  name,
		bus:   t.MemBus,
		inbox: fmt.Sprintf("client.%s.inbox", name),
		wake:  make(chan struct{}, 1),
	}
	sub, err := t.MemBus.Subscribe(c.inbox, func(msg messaging.Message) {
		decoded, err := protocol.Decode(msg.Data)
		if err != nil {
			return
		}
		c.mu.Lock()
		c.replies = append(c.replies, decoded)
		c.mu.Unlock()
		select {
		case c.wake <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return nil, err
	}
	c.sub = sub
	return c, nil
}

// Close detaches the client from the bus
func (c *TestClient) Close() {
	_ = c.sub.Unsubscribe()
}

// Send publishes a request on a subject with the client's reply address
func (c *TestClient) Send(subject string, tag protocol.Tag, fields ...string) error {
	return c.bus.PublishReply(subject, c.inbox, protocol.Encode(tag, fields...))
}

// Request sends and waits for the next reply
func (c *TestClient) Request(subject string, tag protocol.Tag, fields ...string) (protocol.Message, error) {
	if err := c.Send(subject, tag, fields...); err != nil {
		return protocol.Message{}, err
	}
	return c.NextReply()
}

// NextReply pops the oldest unread reply, waiting up to a second
func (c *TestClient) NextReply() (protocol.Message, error) {
	deadline := time.After(time.Second)
	for {
		c.mu.Lock()
		if len(c.replies) > 0 {
			msg := c.replies[0]
			c.replies = c.replies[1:]
			c.mu.Unlock()
			return msg, nil
		}
		c.mu.Unlock()
		select {
		case <-c.wake:
		case <-deadline:
			return protocol.Message{}, fmt.Errorf("timed out waiting for reply to %s", c.Name)
		}
	}
}

// EventCollector records broadcast events published on a subject
type EventCollector struct {
	sub messaging.Subscription

	mu     sync.Mutex
	events []protocol.Message
	wake   chan struct{}
}

// CollectEvents subscribes a collector to a broadcast subject
func (t *TestApp) CollectEvents(subject string) (*EventCollector, error) {
	c := &EventCollector{wake: make(chan struct{}, 1)}
	sub, err := t.MemBus.Subscribe(subject, func(msg messaging.Message) {
		decoded, err := protocol.Decode(msg.Data)
		if err != nil {
			return
		}
		c.mu.Lock()
		c.events = append(c.events, decoded)
		c.mu.Unlock()
		select {
		case c.wake <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return nil, err
	}
	c.sub = sub
	return c, nil
}

// Close detaches the collector
func (c *EventCollector) Close() {
	_ = c.sub.Unsubscribe()
}

// WaitFor blocks until an event with the given tag arrives, returning it
func (c *EventCollector) WaitFor(tag protocol.Tag) (protocol.Message, error) {
	deadline := time.After(time.Second)
	seen := 0
	for {
		c.mu.Lock()
		for ; seen < len(c.events); seen++ {
			if c.events[seen].Tag == tag {
				msg := c.events[seen]
				c.mu.Unlock()
				return msg, nil
			}
		}
		c.mu.Unlock()
		select {
		case <-c.wake:
		case <-deadline:
			return protocol.Message{}, fmt.Errorf("timed out waiting for event %s", tag)
		}
	}
}

// Events returns a copy of everything collected so far
func (c *EventCollector) Events() []protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]protocol.Message(nil), c.events...)
}
