// Package session implements the per-game worker: a single-threaded
// message loop owning one game's state machine. All mutation happens in
// the loop; other components reach it only through the bus, the command
// channel or the snapshot query channel.
package session

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/mkrato/battleship-server/internal/dependencies/clock"
	"github.com/mkrato/battleship-server/internal/messaging"
	"github.com/mkrato/battleship-server/internal/model"
	"github.com/mkrato/battleship-server/internal/protocol"
)

const inboxBuffer = 256

// NoticeKind distinguishes session lifecycle notifications
type NoticeKind string

const (
	// NoticeStarted is sent when a game leaves the opened state
	NoticeStarted NoticeKind = "started"
	// NoticeClosed is sent when a game reaches the closed state
	NoticeClosed NoticeKind = "closed"
)

// Notice is a lifecycle notification delivered to the game registry
type Notice struct {
	Name   model.GameName
	Kind   NoticeKind
	Record *model.GameRecord // Set for NoticeClosed
}

// CommandKind distinguishes registry-dispatched membership commands
type CommandKind string

const (
	CommandJoin     CommandKind = "join"
	CommandSpectate CommandKind = "spectate"
)

// Command is a membership request the registry has validated and handed
// off to the session
type Command struct {
	Kind  CommandKind
	User  model.Username
	Reply string
}

// Config holds everything a session needs to run
type Config struct {
	ServerName string
	Game       *model.Game
	Bus        messaging.Bus
	Logger     *slog.Logger
	Clock      clock.Clock
	// Notices receives lifecycle notifications; owned by the registry
	Notices chan<- Notice
}

// Session is the worker for a single game
type Session struct {
	serverName string
	game       *model.Game
	bus        messaging.Bus
	logger     *slog.Logger
	clock      clock.Clock
	notices    chan<- Notice

	inbox    chan messaging.Message
	commands chan Command
	queries  chan chan model.GameView
	sub      messaging.Subscription
	done     chan struct{}
	stopOnce sync.Once

	// winner is set when the game closes with a surviving player
	winner model.Username
}

// New creates a session for a game in the opened state
func New(cfg Config) *Session {
	return &Session{
		serverName: cfg.ServerName,
		game:       cfg.Game,
		bus:        cfg.Bus,
		logger: cfg.Logger.With(
			slog.String("component", "session"),
			slog.String("game", string(cfg.Game.Name)),
		),
		clock:    cfg.Clock,
		notices:  cfg.Notices,
		inbox:    make(chan messaging.Message, inboxBuffer),
		commands: make(chan Command, 16),
		queries:  make(chan chan model.GameView),
		done:     make(chan struct{}),
	}
}

// Subject returns the game's request subject
func (s *Session) Subject() string {
	return protocol.GameSubject(s.serverName, string(s.game.Name))
}

// EventsSubject returns the game's broadcast event subject
func (s *Session) EventsSubject() string {
	return protocol.GameEventsSubject(s.serverName, string(s.game.Name))
}

// Start binds the request subject and launches the message loop
func (s *Session) Start() error {
	sub, err := s.bus.Subscribe(s.Subject(), func(msg messaging.Message) {
		select {
		case s.inbox <- msg:
		case <-s.done:
		}
	})
	if err != nil {
		return err
	}
	s.sub = sub
	go s.run()
	s.logger.Info("game session started",
		slog.String("owner", string(s.game.Owner)),
		slog.Int("width", s.game.Width),
		slog.Int("height", s.game.Height),
	)
	return nil
}

// Stop terminates the message loop without closing the game. Unprocessed
// messages are dropped. Used during server shutdown.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
}

// Enqueue hands a validated membership command to the session
func (s *Session) Enqueue(cmd Command) {
	select {
	case s.commands <- cmd:
	case <-s.done:
	}
}

// Snapshot returns a copy of the game state, serialized through the loop
func (s *Session) Snapshot(ctx context.Context) (model.GameView, error) {
	q := make(chan model.GameView, 1)
	select {
	case s.queries <- q:
	case <-s.done:
		return model.GameView{}, model.ErrGameNotFound
	case <-ctx.Done():
		return model.GameView{}, ctx.Err()
	}
	select {
	case view := <-q:
		return view, nil
	case <-ctx.Done():
		return model.GameView{}, ctx.Err()
	}
}

func (s *Session) run() {
	defer func() {
		if s.sub != nil {
			_ = s.sub.Unsubscribe()
		}
	}()

	for {
		select {
		case msg := <-s.inbox:
			s.handleMessage(msg)
			if s.game.State == model.GameStateClosed {
				s.finish()
				return
			}
		case cmd := <-s.commands:
			s.handleCommand(cmd)
		case q := <-s.queries:
			q <- s.view()
		case <-s.done:
			return
		}
	}
}

// finish archives the closed game and notifies the registry
func (s *Session) finish() {
	record := &model.GameRecord{
		Name:      s.game.Name,
		Owner:     s.game.Owner,
		Winner:    s.winner,
		Players:   append([]model.Username(nil), s.game.Players...),
		Width:     s.game.Width,
		Height:    s.game.Height,
		CreatedAt: s.game.CreatedAt,
		ClosedAt:  s.clock.Now(),
	}
	s.notices <- Notice{Name: s.game.Name, Kind: NoticeClosed, Record: record}
	s.Stop()
	s.logger.Info("game session closed", slog.String("winner", string(s.winner)))
}

func (s *Session) view() model.GameView {
	g := s.game
	ready := make([]model.Username, 0, len(g.Ready))
	for _, p := range g.Players {
		if g.Ready[p] {
			ready = append(ready, p)
		}
	}
	return model.GameView{
		Name:       g.Name,
		State:      g.State,
		Owner:      g.Owner,
		Width:      g.Width,
		Height:     g.Height,
		Ships:      g.Ships,
		Players:    append([]model.Username(nil), g.Players...),
		Spectators: append([]model.Username(nil), g.Spectators...),
		Ready:      ready,
		Turn:       g.Turn,
		CreatedAt:  g.CreatedAt,
	}
}

// reply publishes a response to the request's reply-to subject. Requests
// without a reply address yield no response.
func (s *Session) reply(replyTo string, tag protocol.Tag, fields ...string) {
	if replyTo == "" {
		s.logger.Debug("request without reply address", slog.String("tag", string(tag)))
		return
	}
	if err := s.bus.Publish(replyTo, protocol.Encode(tag, fields...)); err != nil {
		s.logger.Error("failed to publish reply",
			slog.String("tag", string(tag)),
			slog.String("error", err.Error()),
		)
	}
}

// broadcast publishes an event on the game's event subject
func (s *Session) broadcast(tag protocol.Tag, fields ...string) {
	if err := s.bus.Publish(s.EventsSubject(), protocol.Encode(tag, fields...)); err != nil {
		s.logger.Error("failed to broadcast event",
			slog.String("tag", string(tag)),
			slog.String("error", err.Error()),
		)
	}
}

func usernames(users []model.Username) []string {
	result := make([]string, len(users))
	for i, u := range users {
		result[i] = string(u)
	}
	return result
}

func (s *Session) handleMessage(raw messaging.Message) {
	msg, err := protocol.Decode(raw.Data)
	if err != nil {
		s.logger.Debug("dropping empty message")
		return
	}

	switch msg.Tag {
	case protocol.ReqGetDimensions:
		s.reply(raw.Reply, protocol.RspDimensions,
			strconv.Itoa(s.game.Width),
			strconv.Itoa(s.game.Height),
			strconv.Itoa(s.game.Ships),
		)
	case protocol.ReqGetPlayers:
		s.reply(raw.Reply, protocol.RspListPlayers, usernames(s.game.Players)...)
	case protocol.ReqGetReady:
		s.reply(raw.Reply, protocol.RspListReady, usernames(s.view().Ready)...)
	case protocol.ReqGetOwner:
		s.reply(raw.Reply, protocol.RspOwner, string(s.game.Owner))
	case protocol.ReqGetTurn:
		if s.game.Turn == "" {
			s.reply(raw.Reply, protocol.RspTurn)
		} else {
			s.reply(raw.Reply, protocol.RspTurn, string(s.game.Turn))
		}
	case protocol.ReqGetFields:
		s.handleGetFields(msg, raw.Reply)
	case protocol.ReqSetReady:
		s.handleSetReady(msg, raw.Reply)
	case protocol.ReqStartGame:
		s.handleStartGame(msg, raw.Reply)
	case protocol.ReqShoot:
		s.handleShoot(msg, raw.Reply)
	case protocol.ReqLeaveGame:
		s.handleLeave(msg, raw.Reply)
	case protocol.ReqDisconnect:
		s.handleDisconnect(msg, raw.Reply)
	default:
		s.logger.Debug("dropping unroutable message", slog.String("tag", string(msg.Tag)))
	}
}

// handleGetFields answers with the confidentiality-filtered cell listing:
// the requester's own board in full, every other board with only resolved
// cells revealed. Spectators see every board filtered.
func (s *Session) handleGetFields(msg protocol.Message, replyTo string) {
	if len(msg.Fields) != 1 || msg.HasBlankField(1) {
		s.reply(replyTo, protocol.RspInvalidRequest)
		return
	}
	user := model.Username(msg.Field(0))
	if !s.game.IsPlayer(user) && !s.game.IsSpectator(user) {
		s.reply(replyTo, protocol.RspNotConnected)
		return
	}

	var items []string
	for _, player := range s.game.Players {
		board := s.game.Boards[player]
		var cells []model.Cell
		if player == user {
			cells = board.OwnerCells()
		} else {
			cells = board.RevealedCells()
		}
		for _, cell := range cells {
			items = append(items, protocol.FormatCell(player, cell))
		}
	}
	s.reply(replyTo, protocol.RspFields, items...)
}

func (s *Session) handleSetReady(msg protocol.Message, replyTo string) {
	if len(msg.Fields) < 1 || msg.HasBlankField(len(msg.Fields)) {
		s.reply(replyTo, protocol.RspInvalidRequest)
		return
	}
	user := model.Username(msg.Field(0))
	if !s.game.IsPlayer(user) {
		s.reply(replyTo, protocol.RspNotConnected)
		return
	}
	if s.game.State != model.GameStateOpened {
		s.reply(replyTo, protocol.RspPermissionDenied)
		return
	}
	// Idempotent re-submission: confirm without re-applying
	if s.game.Ready[user] {
		s.reply(replyTo, protocol.RspReady)
		return
	}

	coords := msg.Fields[1:]
	if len(coords) != s.game.Ships {
		s.reply(replyTo, protocol.RspInvalidRequest)
		return
	}
	board := s.game.Boards[user]
	seen := make(map[model.Position]bool, len(coords))
	positions := make([]model.Position, 0, len(coords))
	for _, field := range coords {
		pos, err := protocol.ParseCoord(field)
		if err != nil || !board.IsValidPosition(pos) || seen[pos] {
			s.reply(replyTo, protocol.RspInvalidRequest)
			return
		}
		seen[pos] = true
		positions = append(positions, pos)
	}

	for _, pos := range positions {
		_ = board.PlaceShip(pos)
	}
	s.game.Ready[user] = true

	s.reply(replyTo, protocol.RspReady)
	s.broadcast(protocol.EventPlayerReady, string(user))
	s.logger.Info("player ready", slog.String("player", string(user)))
}

func (s *Session) handleStartGame(msg protocol.Message, replyTo string) {
	if len(msg.Fields) != 1 || msg.HasBlankField(1) {
		s.reply(replyTo, protocol.RspInvalidRequest)
		return
	}
	user := model.Username(msg.Field(0))
	if user != s.game.Owner || s.game.State != model.GameStateOpened {
		s.reply(replyTo, protocol.RspPermissionDenied)
		return
	}
	if len(s.game.Players) < 2 || !s.game.AllReady() {
		s.reply(replyTo, protocol.RspPermissionDenied)
		return
	}

	// The owner always takes the first turn; rotation follows join order
	s.game.State = model.GameStatePlaying
	s.game.Turn = s.game.Owner

	s.reply(replyTo, protocol.RspOK)
	s.broadcast(protocol.EventGameStarts, string(s.game.Turn))
	s.notices <- Notice{Name: s.game.Name, Kind: NoticeStarted}
	s.logger.Info("game started", slog.String("turn", string(s.game.Turn)))
}

func (s *Session) handleShoot(msg protocol.Message, replyTo string) {
	if len(msg.Fields) != 4 || msg.HasBlankField(4) {
		s.reply(replyTo, protocol.RspInvalidRequest)
		return
	}
	shooter := model.Username(msg.Field(0))
	target := model.Username(msg.Field(1))

	if !s.game.IsPlayer(shooter) {
		s.reply(replyTo, protocol.RspNotConnected)
		return
	}
	if s.game.State != model.GameStatePlaying || shooter != s.game.Turn {
		s.reply(replyTo, protocol.RspPermissionDenied)
		return
	}
	if !s.game.IsPlayer(target) {
		s.reply(replyTo, protocol.RspNameDoesntExist)
		return
	}
	if target == shooter {
		s.reply(replyTo, protocol.RspPermissionDenied)
		return
	}

	row, errRow := strconv.Atoi(msg.Field(2))
	col, errCol := strconv.Atoi(msg.Field(3))
	if errRow != nil || errCol != nil {
		s.reply(replyTo, protocol.RspInvalidRequest)
		return
	}

	pos := model.Position{Row: row, Col: col}
	state, err := s.game.Boards[target].Resolve(pos)
	if err != nil {
		// Out of bounds or already resolved: no state change
		s.reply(replyTo, protocol.RspInvalidRequest)
		return
	}

	s.reply(replyTo, protocol.RspShot,
		string(target), msg.Field(2), msg.Field(3), string(state))
	s.broadcast(protocol.RspShot,
		string(target), msg.Field(2), msg.Field(3), string(state))

	if s.game.Boards[target].ShipsRemaining() == 0 {
		s.game.Eliminated[target] = true
		s.logger.Info("player eliminated", slog.String("player", string(target)))
	}

	if s.game.RotationCount() <= 1 {
		s.close(s.game.LastInRotation())
		return
	}

	s.game.Turn = s.game.NextTurn(shooter)
	s.broadcast(protocol.EventOnTurn, string(s.game.Turn))
}

func (s *Session) handleLeave(msg protocol.Message, replyTo string) {
	if len(msg.Fields) != 1 || msg.HasBlankField(1) {
		s.reply(replyTo, protocol.RspInvalidRequest)
		return
	}
	user := model.Username(msg.Field(0))
	if s.game.IsSpectator(user) {
		s.game.RemoveSpectator(user)
		s.reply(replyTo, protocol.RspGameLeft)
		return
	}
	if !s.game.IsPlayer(user) {
		s.reply(replyTo, protocol.RspNotConnected)
		return
	}
	s.removePlayer(user, replyTo, protocol.RspGameLeft)
}

// handleDisconnect applies the same membership effects as leaving, but is
// triggered by loss of the client connection. Always acknowledged.
func (s *Session) handleDisconnect(msg protocol.Message, replyTo string) {
	if len(msg.Fields) != 1 || msg.HasBlankField(1) {
		s.reply(replyTo, protocol.RspInvalidRequest)
		return
	}
	user := model.Username(msg.Field(0))
	if s.game.IsSpectator(user) {
		s.game.RemoveSpectator(user)
		s.reply(replyTo, protocol.RspDisconnected)
		return
	}
	if !s.game.IsPlayer(user) {
		s.reply(replyTo, protocol.RspDisconnected)
		return
	}
	s.removePlayer(user, replyTo, protocol.RspDisconnected)
}

// removePlayer takes user out of the game, transferring ownership to the
// earliest remaining joiner and closing the game when nobody is left or
// only one armed player remains.
func (s *Session) removePlayer(user model.Username, replyTo string, ack protocol.Tag) {
	wasOwner := user == s.game.Owner

	// Advance the turn before removal so rotation order is preserved
	if s.game.State == model.GameStatePlaying && s.game.Turn == user {
		s.game.Turn = s.game.NextTurn(user)
	}
	s.game.RemovePlayer(user)

	s.reply(replyTo, ack)
	s.broadcast(protocol.EventPlayerLeft, string(user))
	s.logger.Info("player left", slog.String("player", string(user)))

	if len(s.game.Players) == 0 {
		s.close("")
		return
	}

	if wasOwner {
		s.game.Owner = s.game.Players[0]
		s.broadcast(protocol.EventNewOwner, string(s.game.Owner))
		s.logger.Info("ownership transferred", slog.String("owner", string(s.game.Owner)))
	}

	if s.game.State == model.GameStatePlaying {
		if s.game.RotationCount() <= 1 {
			s.close(s.game.LastInRotation())
			return
		}
		s.broadcast(protocol.EventOnTurn, string(s.game.Turn))
	}
}

// close transitions the game to its terminal state and broadcasts the
// winner, if any. The run loop then archives and exits.
func (s *Session) close(winner model.Username) {
	s.game.State = model.GameStateClosed
	s.game.Turn = ""
	s.winner = winner
	if winner != "" {
		s.broadcast(protocol.EventGameClosed, string(winner))
	} else {
		s.broadcast(protocol.EventGameClosed)
	}
}

func (s *Session) handleCommand(cmd Command) {
	switch cmd.Kind {
	case CommandJoin:
		s.handleJoin(cmd)
	case CommandSpectate:
		s.handleSpectate(cmd)
	}
}

func (s *Session) handleJoin(cmd Command) {
	// Idempotent rejoin: confirm membership without side effects
	if s.game.IsPlayer(cmd.User) {
		s.reply(cmd.Reply, protocol.RspGameEntered,
			string(s.game.Name), protocol.FormatBool(cmd.User == s.game.Owner))
		return
	}
	if s.game.State != model.GameStateOpened || s.game.IsSpectator(cmd.User) {
		s.reply(cmd.Reply, protocol.RspPermissionDenied)
		return
	}

	s.game.AddPlayer(cmd.User)

	s.reply(cmd.Reply, protocol.RspGameEntered, string(s.game.Name), protocol.FormatBool(false))
	s.broadcast(protocol.EventNewPlayer, string(cmd.User))
	s.logger.Info("player joined", slog.String("player", string(cmd.User)))
}

func (s *Session) handleSpectate(cmd Command) {
	// Players may not also spectate
	if s.game.IsPlayer(cmd.User) {
		s.reply(cmd.Reply, protocol.RspPermissionDenied)
		return
	}
	if !s.game.IsSpectator(cmd.User) {
		s.game.Spectators = append(s.game.Spectators, cmd.User)
		s.logger.Info("spectator joined", slog.String("spectator", string(cmd.User)))
	}
	s.reply(cmd.Reply, protocol.RspGameSpectating, s.EventsSubject())
}
