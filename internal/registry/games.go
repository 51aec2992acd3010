package registry

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mkrato/battleship-server/internal/dependencies/clock"
	"github.com/mkrato/battleship-server/internal/messaging"
	"github.com/mkrato/battleship-server/internal/model"
	"github.com/mkrato/battleship-server/internal/protocol"
	"github.com/mkrato/battleship-server/internal/session"
	"github.com/mkrato/battleship-server/internal/storage"
)

// GameSummary is a lightweight listing entry for status queries
type GameSummary struct {
	Name  model.GameName
	State model.GameState
}

type gameEntry struct {
	session *session.Session
	state   model.GameState
}

type gamesQuery struct {
	name   model.GameName // Empty for a full listing
	result chan gamesQueryResult
}

type gamesQueryResult struct {
	summaries []GameSummary
	session   *session.Session
}

// GameRegistry owns the set of active games. It validates lobby requests,
// spawns game sessions and tracks their lifecycle notices. Session
// lifetime is independent of the registry: once created, a session
// processes its own subject until the game closes or the server stops.
type GameRegistry struct {
	serverName string
	bus        messaging.Bus
	clients    ClientDirectory
	storage    storage.Storage
	clock      clock.Clock
	logger     *slog.Logger

	entries map[model.GameName]*gameEntry
	order   []model.GameName // Insertion order, for deterministic listings
	closed  []model.GameName // Ledger of finished games

	inbox    chan messaging.Message
	notices  chan session.Notice
	queries  chan gamesQuery
	sub      messaging.Subscription
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

// NewGameRegistry creates a game registry for the given server name
func NewGameRegistry(
	serverName string,
	bus messaging.Bus,
	clients ClientDirectory,
	store storage.Storage,
	clk clock.Clock,
	logger *slog.Logger,
) *GameRegistry {
	return &GameRegistry{
		serverName: serverName,
		bus:        bus,
		clients:    clients,
		storage:    store,
		clock:      clk,
		logger:     logger.With(slog.String("component", "games")),
		entries:    make(map[model.GameName]*gameEntry),
		inbox:      make(chan messaging.Message, 64),
		notices:    make(chan session.Notice, 64),
		queries:    make(chan gamesQuery),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
}

// Start binds the lobby subject and launches the loop
func (r *GameRegistry) Start() error {
	sub, err := r.bus.Subscribe(protocol.GamesSubject(r.serverName), func(msg messaging.Message) {
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

// Stop terminates the registry loop and every remaining session.
// Outstanding messages are dropped. The loop goroutine performs the
// session shutdown itself, since it owns the entries map; Stop waits
// for it to finish.
func (r *GameRegistry) Stop() {
	r.stopOnce.Do(func() {
		if r.sub != nil {
			_ = r.sub.Unsubscribe()
		}
		close(r.done)
		if r.sub != nil {
			<-r.stopped
		}
	})
}

// Games returns a listing of live games, in creation order
func (r *GameRegistry) Games(ctx context.Context) ([]GameSummary, error) {
	res, err := r.query(ctx, gamesQuery{result: make(chan gamesQueryResult, 1)})
	if err != nil {
		return nil, err
	}
	return res.summaries, nil
}

// Lookup returns the session for a live game, or ErrGameNotFound
func (r *GameRegistry) Lookup(ctx context.Context, name model.GameName) (*session.Session, error) {
	res, err := r.query(ctx, gamesQuery{name: name, result: make(chan gamesQueryResult, 1)})
	if err != nil {
		return nil, err
	}
	if res.session == nil {
		return nil, model.ErrGameNotFound
	}
	return res.session, nil
}

// query serializes a read through the registry loop
func (r *GameRegistry) query(ctx context.Context, q gamesQuery) (gamesQueryResult, error) {
	select {
	case r.queries <- q:
	case <-r.done:
		return gamesQueryResult{}, model.ErrGameNotFound
	case <-ctx.Done():
		return gamesQueryResult{}, ctx.Err()
	}
	select {
	case res := <-q.result:
		return res, nil
	case <-ctx.Done():
		return gamesQueryResult{}, ctx.Err()
	}
}

func (r *GameRegistry) run() {
	defer close(r.stopped)
	for {
		select {
		case msg := <-r.inbox:
			r.handleMessage(msg)
		case notice := <-r.notices:
			r.handleNotice(notice)
		case q := <-r.queries:
			r.handleQuery(q)
		case <-r.done:
			for _, entry := range r.entries {
				entry.session.Stop()
			}
			return
		}
	}
}

func (r *GameRegistry) handleQuery(q gamesQuery) {
	if q.name != "" {
		var sess *session.Session
		if entry, ok := r.entries[q.name]; ok {
			sess = entry.session
		}
		q.result <- gamesQueryResult{session: sess}
		return
	}
	summaries := make([]GameSummary, 0, len(r.order))
	for _, name := range r.order {
		summaries = append(summaries, GameSummary{Name: name, State: r.entries[name].state})
	}
	q.result <- gamesQueryResult{summaries: summaries}
}

// handleNotice tracks session lifecycle: phase changes update listings,
// closure removes the entry, archives the record and announces it
func (r *GameRegistry) handleNotice(notice session.Notice) {
	entry, ok := r.entries[notice.Name]
	if !ok {
		return
	}
	switch notice.Kind {
	case session.NoticeStarted:
		entry.state = model.GameStatePlaying
	case session.NoticeClosed:
		delete(r.entries, notice.Name)
		for i, name := range r.order {
			if name == notice.Name {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
		r.closed = append(r.closed, notice.Name)

		// Archive before announcing, so the record is readable as soon
		// as the closure event is observed
		if notice.Record != nil {
			if err := r.storage.SaveGameRecord(context.Background(), notice.Record); err != nil {
				r.logger.Error("failed to archive game record",
					slog.String("game", string(notice.Name)),
					slog.String("error", err.Error()),
				)
			}
		}
		r.publish(protocol.GamesSubject(r.serverName),
			protocol.Encode(protocol.EventGameClosed, string(notice.Name)))
		r.logger.Info("game closed", slog.String("game", string(notice.Name)))
	}
}

func (r *GameRegistry) handleMessage(raw messaging.Message) {
	msg, err := protocol.Decode(raw.Data)
	if err != nil {
		r.logger.Debug("dropping empty message")
		return
	}

	switch msg.Tag {
	case protocol.ReqGetListOpened:
		r.handleList(raw.Reply, protocol.RspListOpened, model.GameStateOpened)
	case protocol.ReqGetListClosed:
		r.handleListClosed(raw.Reply)
	case protocol.ReqCreateGame:
		r.handleCreate(msg, raw.Reply)
	case protocol.ReqJoinGame:
		r.handleJoin(msg, raw.Reply)
	case protocol.ReqSpectateGame:
		r.handleSpectate(msg, raw.Reply)
	default:
		// Registry-wide game-opened/game-closed events share this
		// subject and land here too; drop them silently
		r.logger.Debug("dropping unroutable message", slog.String("tag", string(msg.Tag)))
	}
}

func (r *GameRegistry) handleList(replyTo string, tag protocol.Tag, state model.GameState) {
	var names []string
	for _, name := range r.order {
		if r.entries[name].state == state {
			names = append(names, string(name))
		}
	}
	r.reply(replyTo, tag, names...)
}

func (r *GameRegistry) handleListClosed(replyTo string) {
	names := make([]string, len(r.closed))
	for i, name := range r.closed {
		names[i] = string(name)
	}
	r.reply(replyTo, protocol.RspListClosed, names...)
}

// handleCreate validates and spawns a new game session. Validation order
// is fixed: malformed request first, then name conflicts, then owner
// connectedness.
func (r *GameRegistry) handleCreate(msg protocol.Message, replyTo string) {
	if len(msg.Fields) != 4 || msg.HasBlankField(4) ||
		!protocol.ValidName(msg.Field(0)) || !protocol.ValidName(msg.Field(1)) ||
		protocol.ReservedName(msg.Field(0)) {
		r.reply(replyTo, protocol.RspInvalidRequest)
		return
	}
	width, errW := protocol.ParseDimension(msg.Field(2))
	height, errH := protocol.ParseDimension(msg.Field(3))
	if errW != nil || errH != nil {
		r.reply(replyTo, protocol.RspInvalidRequest)
		return
	}

	name := model.GameName(msg.Field(0))
	owner := model.Username(msg.Field(1))

	if _, exists := r.entries[name]; exists {
		r.reply(replyTo, protocol.RspNameExists)
		return
	}
	if !r.clients.IsConnected(owner) {
		r.reply(replyTo, protocol.RspPermissionDenied)
		return
	}

	game := model.NewGame(name, owner, width, height, r.clock.Now())

	sess := session.New(session.Config{
		ServerName: r.serverName,
		Game:       game,
		Bus:        r.bus,
		Logger:     r.logger,
		Clock:      r.clock,
		Notices:    r.notices,
	})
	if err := sess.Start(); err != nil {
		r.logger.Error("failed to start game session",
			slog.String("game", string(name)),
			slog.String("error", err.Error()),
		)
		r.reply(replyTo, protocol.RspInvalidRequest)
		return
	}

	r.entries[name] = &gameEntry{session: sess, state: model.GameStateOpened}
	r.order = append(r.order, name)

	r.reply(replyTo, protocol.RspGameEntered, string(name), protocol.FormatBool(true))
	r.publish(protocol.GamesSubject(r.serverName),
		protocol.Encode(protocol.EventGameOpened, string(name)))
	r.logger.Info("game created",
		slog.String("game", string(name)),
		slog.String("owner", string(owner)),
		slog.Int("width", width),
		slog.Int("height", height),
	)
}

// handleJoin validates and forwards the join to the game's session, which
// replies on the requester's behalf. Idempotent rejoin is the session's
// concern; the registry only checks existence, connectedness and phase.
func (r *GameRegistry) handleJoin(msg protocol.Message, replyTo string) {
	entry, user, ok := r.resolveMembershipRequest(msg, replyTo)
	if !ok {
		return
	}
	if entry.state != model.GameStateOpened {
		r.reply(replyTo, protocol.RspPermissionDenied)
		return
	}
	entry.session.Enqueue(session.Command{Kind: session.CommandJoin, User: user, Reply: replyTo})
}

func (r *GameRegistry) handleSpectate(msg protocol.Message, replyTo string) {
	entry, user, ok := r.resolveMembershipRequest(msg, replyTo)
	if !ok {
		return
	}
	entry.session.Enqueue(session.Command{Kind: session.CommandSpectate, User: user, Reply: replyTo})
}

// resolveMembershipRequest applies the shared validation ladder for
// join/spectate: arity and blanks, then game existence, then requester
// connectedness
func (r *GameRegistry) resolveMembershipRequest(msg protocol.Message, replyTo string) (*gameEntry, model.Username, bool) {
	if len(msg.Fields) != 2 || msg.HasBlankField(2) {
		r.reply(replyTo, protocol.RspInvalidRequest)
		return nil, "", false
	}
	name := model.GameName(msg.Field(0))
	user := model.Username(msg.Field(1))

	entry, exists := r.entries[name]
	if !exists {
		r.reply(replyTo, protocol.RspNameDoesntExist)
		return nil, "", false
	}
	if !r.clients.IsConnected(user) {
		r.reply(replyTo, protocol.RspPermissionDenied)
		return nil, "", false
	}
	return entry, user, true
}

func (r *GameRegistry) reply(replyTo string, tag protocol.Tag, fields ...string) {
	if replyTo == "" {
		return
	}
	r.publish(replyTo, protocol.Encode(tag, fields...))
}

func (r *GameRegistry) publish(subject string, data []byte) {
	if err := r.bus.Publish(subject, data); err != nil {
		r.logger.Error("failed to publish",
			slog.String("subject", subject),
			slog.String("error", err.Error()),
		)
	}
}
