package factory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mkrato/battleship-server/internal/model"
	"github.com/mkrato/battleship-server/internal/protocol"
)

const testServer = "testserver"

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp(testServer)
	s.ctx = context.Background()
	s.Require().NoError(s.app.Start())
}

func (s *IntegrationSuite) TearDownTest() {
	s.app.Stop()
}

func (s *IntegrationSuite) connect(name string) *TestClient {
	c, err := s.app.NewTestClient(name)
	s.Require().NoError(err)
	reply, err := c.Request(protocol.ClientSubject(testServer), protocol.ReqConnect, name)
	s.Require().NoError(err)
	s.Require().Equal(protocol.RspConnected, reply.Tag)
	s.Require().Equal([]string{testServer, name}, reply.Fields)
	return c
}

func (s *IntegrationSuite) gamesSubject() string {
	return protocol.GamesSubject(testServer)
}

func (s *IntegrationSuite) gameSubject(game string) string {
	return protocol.GameSubject(testServer, game)
}

func (s *IntegrationSuite) eventsSubject(game string) string {
	return protocol.GameEventsSubject(testServer, game)
}

// Test: username uniqueness across connect/disconnect
func (s *IntegrationSuite) TestConnectUniqueness() {
	alice := s.connect("alice")
	defer alice.Close()

	// A second client cannot take the same username
	impostor, err := s.app.NewTestClient("impostor")
	s.Require().NoError(err)
	defer impostor.Close()
	reply, err := impostor.Request(protocol.ClientSubject(testServer), protocol.ReqConnect, "alice")
	s.Require().NoError(err)
	s.Equal(protocol.RspUsernameTaken, reply.Tag)

	// Disconnect frees the name
	reply, err = alice.Request(protocol.ClientSubject(testServer), protocol.ReqDisconnect, "alice")
	s.Require().NoError(err)
	s.Equal(protocol.RspDisconnected, reply.Tag)

	reply, err = impostor.Request(protocol.ClientSubject(testServer), protocol.ReqConnect, "alice")
	s.Require().NoError(err)
	s.Equal(protocol.RspConnected, reply.Tag)
}

// Test: a complete two-player game on a 3x3 board (one ship each)
func (s *IntegrationSuite) TestCompleteGameFlow() {
	alice := s.connect("alice")
	defer alice.Close()
	bob := s.connect("bob")
	defer bob.Close()

	lobbyEvents, err := s.app.CollectEvents(s.gamesSubject())
	s.Require().NoError(err)
	defer lobbyEvents.Close()

	// Alice creates the game and becomes owner
	reply, err := alice.Request(s.gamesSubject(), protocol.ReqCreateGame, "duel", "alice", "3", "3")
	s.Require().NoError(err)
	s.Require().Equal(protocol.RspGameEntered, reply.Tag)
	s.Equal([]string{"duel", "true"}, reply.Fields)

	_, err = lobbyEvents.WaitFor(protocol.EventGameOpened)
	s.Require().NoError(err)

	gameEvents, err := s.app.CollectEvents(s.eventsSubject("duel"))
	s.Require().NoError(err)
	defer gameEvents.Close()

	// Bob joins as second player
	reply, err = bob.Request(s.gamesSubject(), protocol.ReqJoinGame, "duel", "bob")
	s.Require().NoError(err)
	s.Require().Equal(protocol.RspGameEntered, reply.Tag)
	s.Equal([]string{"duel", "false"}, reply.Fields)
	_, err = gameEvents.WaitFor(protocol.EventNewPlayer)
	s.Require().NoError(err)

	// A 3x3 board yields a single ship segment per player
	reply, err = alice.Request(s.gameSubject("duel"), protocol.ReqGetDimensions)
	s.Require().NoError(err)
	s.Equal(protocol.RspDimensions, reply.Tag)
	s.Equal([]string{"3", "3", "1"}, reply.Fields)

	reply, err = alice.Request(s.gameSubject("duel"), protocol.ReqGetPlayers)
	s.Require().NoError(err)
	s.Equal([]string{"alice", "bob"}, reply.Fields)

	// Starting before everyone is ready is denied
	reply, err = alice.Request(s.gameSubject("duel"), protocol.ReqStartGame, "alice")
	s.Require().NoError(err)
	s.Equal(protocol.RspPermissionDenied, reply.Tag)

	// Both players place their single ship
	reply, err = alice.Request(s.gameSubject("duel"), protocol.ReqSetReady, "alice", "0,0")
	s.Require().NoError(err)
	s.Equal(protocol.RspReady, reply.Tag)
	reply, err = bob.Request(s.gameSubject("duel"), protocol.ReqSetReady, "bob", "2,2")
	s.Require().NoError(err)
	s.Equal(protocol.RspReady, reply.Tag)

	reply, err = alice.Request(s.gameSubject("duel"), protocol.ReqGetReady)
	s.Require().NoError(err)
	s.Equal([]string{"alice", "bob"}, reply.Fields)

	// Only the owner can start
	reply, err = bob.Request(s.gameSubject("duel"), protocol.ReqStartGame, "bob")
	s.Require().NoError(err)
	s.Equal(protocol.RspPermissionDenied, reply.Tag)

	reply, err = alice.Request(s.gameSubject("duel"), protocol.ReqStartGame, "alice")
	s.Require().NoError(err)
	s.Equal(protocol.RspOK, reply.Tag)
	starts, err := gameEvents.WaitFor(protocol.EventGameStarts)
	s.Require().NoError(err)
	s.Equal([]string{"alice"}, starts.Fields)

	// Bob cannot shoot out of turn
	reply, err = bob.Request(s.gameSubject("duel"), protocol.ReqShoot, "bob", "alice", "0", "0")
	s.Require().NoError(err)
	s.Equal(protocol.RspPermissionDenied, reply.Tag)

	// Alice sinks Bob's only ship, winning the game
	reply, err = alice.Request(s.gameSubject("duel"), protocol.ReqShoot, "alice", "bob", "2", "2")
	s.Require().NoError(err)
	s.Equal(protocol.RspShot, reply.Tag)
	s.Equal([]string{"bob", "2", "2", string(model.CellHitShip)}, reply.Fields)

	closedEvent, err := gameEvents.WaitFor(protocol.EventGameClosed)
	s.Require().NoError(err)
	s.Equal([]string{"alice"}, closedEvent.Fields)

	// The registry re-announces closure on the lobby subject once it has
	// archived the game
	_, err = lobbyEvents.WaitFor(protocol.EventGameClosed)
	s.Require().NoError(err)

	// The game moves to the closed listing
	reply, err = alice.Request(s.gamesSubject(), protocol.ReqGetListClosed)
	s.Require().NoError(err)
	s.Equal(protocol.RspListClosed, reply.Tag)
	s.Equal([]string{"duel"}, reply.Fields)

	reply, err = alice.Request(s.gamesSubject(), protocol.ReqGetListOpened)
	s.Require().NoError(err)
	s.Empty(reply.Fields)

	// The archive records the winner
	records, err := s.app.Storage.ListGameRecords(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal(model.GameName("duel"), records[0].Name)
	s.Equal(model.Username("alice"), records[0].Winner)
}

// Test: get-fields hides unresolved opponent cells
func (s *IntegrationSuite) TestFieldConfidentiality() {
	alice := s.connect("alice")
	defer alice.Close()
	bob := s.connect("bob")
	defer bob.Close()

	reply, err := alice.Request(s.gamesSubject(), protocol.ReqCreateGame, "hidden", "alice", "3", "3")
	s.Require().NoError(err)
	s.Require().Equal(protocol.RspGameEntered, reply.Tag)
	reply, err = bob.Request(s.gamesSubject(), protocol.ReqJoinGame, "hidden", "bob")
	s.Require().NoError(err)
	s.Require().Equal(protocol.RspGameEntered, reply.Tag)

	reply, err = alice.Request(s.gameSubject("hidden"), protocol.ReqSetReady, "alice", "1,1")
	s.Require().NoError(err)
	s.Require().Equal(protocol.RspReady, reply.Tag)

	// Alice sees her own ship
	reply, err = alice.Request(s.gameSubject("hidden"), protocol.ReqGetFields, "alice")
	s.Require().NoError(err)
	s.Require().Equal(protocol.RspFields, reply.Tag)
	s.Equal([]string{"alice,1,1,ship"}, reply.Fields)

	// Bob sees nothing of Alice's board before any shot resolves
	reply, err = bob.Request(s.gameSubject("hidden"), protocol.ReqGetFields, "bob")
	s.Require().NoError(err)
	s.Require().Equal(protocol.RspFields, reply.Tag)
	s.Empty(reply.Fields)

	// Non-members get no cell listing at all
	outsider := s.connect("carol")
	defer outsider.Close()
	reply, err = outsider.Request(s.gameSubject("hidden"), protocol.ReqGetFields, "carol")
	s.Require().NoError(err)
	s.Equal(protocol.RspNotConnected, reply.Tag)
}

// Test: lobby validation order for create and join
func (s *IntegrationSuite) TestLobbyValidation() {
	alice := s.connect("alice")
	defer alice.Close()

	// Malformed dimensions
	reply, err := alice.Request(s.gamesSubject(), protocol.ReqCreateGame, "bad", "alice", "0", "5")
	s.Require().NoError(err)
	s.Equal(protocol.RspInvalidRequest, reply.Tag)

	// Name containing a separator
	reply, err = alice.Request(s.gamesSubject(), protocol.ReqCreateGame, "a.b", "alice", "5", "5")
	s.Require().NoError(err)
	s.Equal(protocol.RspInvalidRequest, reply.Tag)

	reply, err = alice.Request(s.gamesSubject(), protocol.ReqCreateGame, "first", "alice", "5", "5")
	s.Require().NoError(err)
	s.Require().Equal(protocol.RspGameEntered, reply.Tag)

	// Duplicate game name
	reply, err = alice.Request(s.gamesSubject(), protocol.ReqCreateGame, "first", "alice", "5", "5")
	s.Require().NoError(err)
	s.Equal(protocol.RspNameExists, reply.Tag)

	// Unconnected users cannot create or join
	stranger, err := s.app.NewTestClient("stranger")
	s.Require().NoError(err)
	defer stranger.Close()
	reply, err = stranger.Request(s.gamesSubject(), protocol.ReqCreateGame, "second", "stranger", "5", "5")
	s.Require().NoError(err)
	s.Equal(protocol.RspPermissionDenied, reply.Tag)
	reply, err = stranger.Request(s.gamesSubject(), protocol.ReqJoinGame, "first", "stranger")
	s.Require().NoError(err)
	s.Equal(protocol.RspPermissionDenied, reply.Tag)

	// Joining a game that does not exist
	reply, err = alice.Request(s.gamesSubject(), protocol.ReqJoinGame, "ghost", "alice")
	s.Require().NoError(err)
	s.Equal(protocol.RspNameDoesntExist, reply.Tag)

	// Rejoining your own game confirms membership without side effects
	reply, err = alice.Request(s.gamesSubject(), protocol.ReqJoinGame, "first", "alice")
	s.Require().NoError(err)
	s.Equal(protocol.RspGameEntered, reply.Tag)
	s.Equal([]string{"first", "true"}, reply.Fields)
}

// Test: spectators receive the event subject and cannot be players
func (s *IntegrationSuite) TestSpectate() {
	alice := s.connect("alice")
	defer alice.Close()
	carol := s.connect("carol")
	defer carol.Close()

	reply, err := alice.Request(s.gamesSubject(), protocol.ReqCreateGame, "arena", "alice", "4", "4")
	s.Require().NoError(err)
	s.Require().Equal(protocol.RspGameEntered, reply.Tag)

	reply, err = carol.Request(s.gamesSubject(), protocol.ReqSpectateGame, "arena", "carol")
	s.Require().NoError(err)
	s.Require().Equal(protocol.RspGameSpectating, reply.Tag)
	s.Equal([]string{s.eventsSubject("arena")}, reply.Fields)

	// A player cannot also spectate
	reply, err = alice.Request(s.gamesSubject(), protocol.ReqSpectateGame, "arena", "alice")
	s.Require().NoError(err)
	s.Equal(protocol.RspPermissionDenied, reply.Tag)

	// A spectator cannot join as a player
	reply, err = carol.Request(s.gamesSubject(), protocol.ReqJoinGame, "arena", "carol")
	s.Require().NoError(err)
	s.Equal(protocol.RspPermissionDenied, reply.Tag)

	// Spectators may leave and then join as players
	reply, err = carol.Request(s.gameSubject("arena"), protocol.ReqLeaveGame, "carol")
	s.Require().NoError(err)
	s.Equal(protocol.RspGameLeft, reply.Tag)
	reply, err = carol.Request(s.gamesSubject(), protocol.ReqJoinGame, "arena", "carol")
	s.Require().NoError(err)
	s.Equal(protocol.RspGameEntered, reply.Tag)
}

// Test: ownership transfer and closure when players leave
func (s *IntegrationSuite) TestLeaveTransfersOwnership() {
	alice := s.connect("alice")
	defer alice.Close()
	bob := s.connect("bob")
	defer bob.Close()

	lobbyEvents, err := s.app.CollectEvents(s.gamesSubject())
	s.Require().NoError(err)
	defer lobbyEvents.Close()

	reply, err := alice.Request(s.gamesSubject(), protocol.ReqCreateGame, "fleet", "alice", "4", "4")
	s.Require().NoError(err)
	s.Require().Equal(protocol.RspGameEntered, reply.Tag)
	reply, err = bob.Request(s.gamesSubject(), protocol.ReqJoinGame, "fleet", "bob")
	s.Require().NoError(err)
	s.Require().Equal(protocol.RspGameEntered, reply.Tag)

	gameEvents, err := s.app.CollectEvents(s.eventsSubject("fleet"))
	s.Require().NoError(err)
	defer gameEvents.Close()

	// Owner leaves: ownership passes to the earliest remaining joiner
	reply, err = alice.Request(s.gameSubject("fleet"), protocol.ReqLeaveGame, "alice")
	s.Require().NoError(err)
	s.Equal(protocol.RspGameLeft, reply.Tag)
	newOwner, err := gameEvents.WaitFor(protocol.EventNewOwner)
	s.Require().NoError(err)
	s.Equal([]string{"bob"}, newOwner.Fields)

	reply, err = bob.Request(s.gameSubject("fleet"), protocol.ReqGetOwner)
	s.Require().NoError(err)
	s.Equal([]string{"bob"}, reply.Fields)

	// Last player leaving closes the game with no winner
	reply, err = bob.Request(s.gameSubject("fleet"), protocol.ReqLeaveGame, "bob")
	s.Require().NoError(err)
	s.Equal(protocol.RspGameLeft, reply.Tag)
	closedEvent, err := gameEvents.WaitFor(protocol.EventGameClosed)
	s.Require().NoError(err)
	s.Empty(closedEvent.Fields)

	// Wait for the registry to archive before reading the record
	_, err = lobbyEvents.WaitFor(protocol.EventGameClosed)
	s.Require().NoError(err)

	records, err := s.app.Storage.ListGameRecords(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal(model.Username(""), records[0].Winner)
}

// Test: disconnect mid-game forfeits, remaining player wins
func (s *IntegrationSuite) TestDisconnectForfeitsGame() {
	alice := s.connect("alice")
	defer alice.Close()
	bob := s.connect("bob")
	defer bob.Close()

	reply, err := alice.Request(s.gamesSubject(), protocol.ReqCreateGame, "forfeit", "alice", "3", "3")
	s.Require().NoError(err)
	s.Require().Equal(protocol.RspGameEntered, reply.Tag)
	reply, err = bob.Request(s.gamesSubject(), protocol.ReqJoinGame, "forfeit", "bob")
	s.Require().NoError(err)
	s.Require().Equal(protocol.RspGameEntered, reply.Tag)

	reply, err = alice.Request(s.gameSubject("forfeit"), protocol.ReqSetReady, "alice", "0,0")
	s.Require().NoError(err)
	s.Require().Equal(protocol.RspReady, reply.Tag)
	reply, err = bob.Request(s.gameSubject("forfeit"), protocol.ReqSetReady, "bob", "1,1")
	s.Require().NoError(err)
	s.Require().Equal(protocol.RspReady, reply.Tag)
	reply, err = alice.Request(s.gameSubject("forfeit"), protocol.ReqStartGame, "alice")
	s.Require().NoError(err)
	s.Require().Equal(protocol.RspOK, reply.Tag)

	gameEvents, err := s.app.CollectEvents(s.eventsSubject("forfeit"))
	s.Require().NoError(err)
	defer gameEvents.Close()

	// Bob drops; alice is the last player armed and wins
	reply, err = bob.Request(s.gameSubject("forfeit"), protocol.ReqDisconnect, "bob")
	s.Require().NoError(err)
	s.Equal(protocol.RspDisconnected, reply.Tag)

	closedEvent, err := gameEvents.WaitFor(protocol.EventGameClosed)
	s.Require().NoError(err)
	s.Equal([]string{"alice"}, closedEvent.Fields)
}
