// Package registry implements the two server-wide workers: the client
// registry (connected usernames) and the game registry (live game
// sessions). Each consumes its own subject serially, so registry state
// needs no cross-worker locking beyond the loop discipline.
package registry

import (
	"log/slog"
	"sync"

	"github.com/mkrato/battleship-server/internal/messaging"
	"github.com/mkrato/battleship-server/internal/model"
	"github.com/mkrato/battleship-server/internal/protocol"
)

// ClientDirectory answers connectedness checks for other workers
type ClientDirectory interface {
	IsConnected(user model.Username) bool
}

// ClientRegistry tracks connected usernames and enforces uniqueness
type ClientRegistry struct {
	serverName string
	bus        messaging.Bus
	logger     *slog.Logger

	// mu guards clients for IsConnected readers; all writes happen in
	// the registry's own loop
	mu      sync.RWMutex
	clients map[model.Username]struct{}

	inbox    chan messaging.Message
	sub      messaging.Subscription
	done     chan struct{}
	stopOnce sync.Once
}

// Ensure ClientRegistry implements the directory interface
var _ ClientDirectory = (*ClientRegistry)(nil)

// NewClientRegistry creates a client registry for the given server name
func NewClientRegistry(serverName string, bus messaging.Bus, logger *slog.Logger) *ClientRegistry {
	return &ClientRegistry{
		serverName: serverName,
		bus:        bus,
		logger:     logger.With(slog.String("component", "clients")),
		clients:    make(map[model.Username]struct{}),
		inbox:      make(chan messaging.Message, 64),
		done:       make(chan struct{}),
	}
}

// Start binds the connect/disconnect subject and launches the loop
func (r *ClientRegistry) Start() error {
	sub, err := r.bus.Subscribe(protocol.ClientSubject(r.serverName), func(msg messaging.Message) {
		select {
		case r.inbox <- msg:
		case <-r.done:
		}
	})
	if err != nil {
		return err
	}
	r.sub = sub
	go r.run()
	return nil
}

// Stop terminates the loop and releases the subject binding
func (r *ClientRegistry) Stop() {
	r.stopOnce.Do(func() {
		if r.sub != nil {
			_ = r.sub.Unsubscribe()
		}
		close(r.done)
	})
}

// IsConnected reports whether user is currently registered
func (r *ClientRegistry) IsConnected(user model.Username) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.clients[user]
	return ok
}

func (r *ClientRegistry) run() {
	for {
		select {
		case msg := <-r.inbox:
			r.handleMessage(msg)
		case <-r.done:
			return
		}
	}
}

func (r *ClientRegistry) handleMessage(raw messaging.Message) {
	msg, err := protocol.Decode(raw.Data)
	if err != nil {
		r.logger.Debug("dropping empty message")
		return
	}

	switch msg.Tag {
	case protocol.ReqConnect:
		r.handleConnect(msg, raw.Reply)
	case protocol.ReqDisconnect:
		r.handleDisconnect(msg, raw.Reply)
	default:
		r.logger.Debug("dropping unroutable message", slog.String("tag", string(msg.Tag)))
	}
}

func (r *ClientRegistry) handleConnect(msg protocol.Message, replyTo string) {
	if len(msg.Fields) != 1 || !protocol.ValidName(msg.Field(0)) {
		r.reply(replyTo, protocol.RspInvalidRequest)
		return
	}
	user := model.Username(msg.Field(0))

	r.mu.Lock()
	_, taken := r.clients[user]
	if !taken {
		r.clients[user] = struct{}{}
	}
	r.mu.Unlock()

	if taken {
		r.reply(replyTo, protocol.RspUsernameTaken)
		return
	}

	r.reply(replyTo, protocol.RspConnected, r.serverName, string(user))
	r.logger.Info("client connected", slog.String("username", string(user)))
}

// handleDisconnect removes the username if present. The reply is always
// disconnected, so retries are safe. Games the client joined are not
// touched; sessions handle their own disconnect requests.
func (r *ClientRegistry) handleDisconnect(msg protocol.Message, replyTo string) {
	if len(msg.Fields) != 1 || msg.HasBlankField(1) {
		r.reply(replyTo, protocol.RspInvalidRequest)
		return
	}
	user := model.Username(msg.Field(0))

	r.mu.Lock()
	delete(r.clients, user)
	r.mu.Unlock()

	r.reply(replyTo, protocol.RspDisconnected)
	r.logger.Info("client disconnected", slog.String("username", string(user)))
}

func (r *ClientRegistry) reply(replyTo string, tag protocol.Tag, fields ...string) {
	if replyTo == "" {
		return
	}
	if err := r.bus.Publish(replyTo, protocol.Encode(tag, fields...)); err != nil {
		r.logger.Error("failed to publish reply",
			slog.String("tag", string(tag)),
			slog.String("error", err.Error()),
		)
	}
}
