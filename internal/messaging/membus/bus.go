// Package membus implements an in-process messaging bus with the same
// semantics the server relies on from the broker: per-subscription
// ordered delivery, independent subscriptions per subject, and
// publishes that never block the publisher. It backs tests and
// single-process deployments.
package membus

import (
	"sync"

	"github.com/mkrato/battleship-server/internal/messaging"
)

// Bus is an in-memory messaging bus
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]*subscription
	closed bool
}

// Ensure Bus implements the interface
var _ messaging.Bus = (*Bus)(nil)

// New creates an empty in-memory bus
func New() *Bus {
	return &Bus{
		subs: make(map[string][]*subscription),
	}
}

type subscription struct {
	bus     *Bus
	subject string

	mu      sync.Mutex
	pending []messaging.Message

	wake chan struct{}
	done chan struct{}
	once sync.Once
}

// Subscribe binds a handler to a subject. Each subscription drains its
// own queue on a dedicated goroutine, so handlers see messages one at a
// time in publish order.
func (b *Bus) Subscribe(subject string, handler messaging.Handler) (messaging.Subscription, error) {
	sub := &subscription{
		bus:     b,
		subject: subject,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, messaging.ErrBusClosed
	}
	b.subs[subject] = append(b.subs[subject], sub)
	b.mu.Unlock()

	go sub.deliver(handler)

	return sub, nil
}

// Publish sends data on a subject
func (b *Bus) Publish(subject string, data []byte) error {
	return b.PublishReply(subject, "", data)
}

// PublishReply sends data on a subject with a reply-to address.
// Publishing never blocks on subscribers: a worker may publish to a
// subject it also consumes without wedging its own loop.
func (b *Bus) PublishReply(subject, reply string, data []byte) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return messaging.ErrBusClosed
	}
	subs := make([]*subscription, len(b.subs[subject]))
	copy(subs, b.subs[subject])
	b.mu.RUnlock()

	msg := messaging.Message{Subject: subject, Reply: reply, Data: data}
	for _, sub := range subs {
		sub.enqueue(msg)
	}
	return nil
}

// Close tears down the bus and every subscription
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, subs := range b.subs {
		for _, sub := range subs {
			sub.stop()
		}
	}
	b.subs = make(map[string][]*subscription)
	return nil
}

// enqueue appends msg to the pending queue and signals the delivery
// goroutine. The queue is unbounded, so this returns without waiting on
// the handler.
func (s *subscription) enqueue(msg messaging.Message) {
	select {
	case <-s.done:
		return
	default:
	}
	s.mu.Lock()
	s.pending = append(s.pending, msg)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// deliver drains the pending queue in batches, invoking the handler for
// one message at a time in publish order
func (s *subscription) deliver(handler messaging.Handler) {
	for {
		s.mu.Lock()
		batch := s.pending
		s.pending = nil
		s.mu.Unlock()

		for _, msg := range batch {
			select {
			case <-s.done:
				return
			default:
			}
			handler(msg)
		}

		select {
		case <-s.wake:
		case <-s.done:
			return
		}
	}
}

// Unsubscribe removes the subscription from its subject
func (s *subscription) Unsubscribe() error {
	b := s.bus
	b.mu.Lock()
	subs := b.subs[s.subject]
	for i, sub := range subs {
		if sub == s {
			b.subs[s.subject] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	b.mu.Unlock()

	s.stop()
	return nil
}

func (s *subscription) stop() {
	s.once.Do(func() {
		close(s.done)
	})
}
