// Package messaging defines the publish/subscribe bus the server is
// built against. Workers never talk to each other directly; every
// cross-component effect is a publish on a subject.
package messaging

import "errors"

// ErrBusClosed is returned by operations on a closed bus
var ErrBusClosed = errors.New("bus is closed")

// Message is a delivered bus message. Reply, when set, is the sender's
// private subject for the response.
type Message struct {
	Subject string
	Reply   string
	Data    []byte
}

// Handler processes one delivered message. Handlers for a single
// subscription are invoked sequentially in delivery order.
type Handler func(msg Message)

// Subscription is an active subject binding
type Subscription interface {
	Unsubscribe() error
}

// Bus is the messaging adapter contract
type Bus interface {
	// Publish sends data on a subject with no reply address
	Publish(subject string, data []byte) error

	// PublishReply sends data on a subject carrying a reply-to address
	PublishReply(subject, reply string, data []byte) error

	// Subscribe binds a handler to a subject
	Subscribe(subject string, handler Handler) (Subscription, error)

	// Close releases the underlying connection and all subscriptions
	Close() error
}
