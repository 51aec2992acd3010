package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type GameSuite struct {
	suite.Suite
	game *Game
}

func TestGameSuite(t *testing.T) {
	suite.Run(t, new(GameSuite))
}

func (s *GameSuite) SetupTest() {
	s.game = NewGame("g", "alice", 5, 5, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
}

func (s *GameSuite) TestShipQuota() {
	s.Equal(1, ShipQuota(1, 1))
	s.Equal(1, ShipQuota(2, 2))
	s.Equal(1, ShipQuota(3, 3))
	s.Equal(5, ShipQuota(5, 5))
	s.Equal(20, ShipQuota(10, 10))
}

func (s *GameSuite) TestNewGameState() {
	s.Equal(GameStateOpened, s.game.State)
	s.Equal(Username("alice"), s.game.Owner)
	s.Equal([]Username{"alice"}, s.game.Players)
	s.Equal(5, s.game.Ships)
	s.NotNil(s.game.Boards["alice"])
	s.True(s.game.IsPlayer("alice"))
	s.False(s.game.IsSpectator("alice"))
}

func (s *GameSuite) TestAddRemovePlayer() {
	s.game.AddPlayer("bob")
	s.True(s.game.IsPlayer("bob"))
	s.NotNil(s.game.Boards["bob"])
	s.Equal([]Username{"alice", "bob"}, s.game.Players)

	s.game.RemovePlayer("bob")
	s.False(s.game.IsPlayer("bob"))
	s.Nil(s.game.Boards["bob"])
}

func (s *GameSuite) TestAllReady() {
	s.game.AddPlayer("bob")
	s.False(s.game.AllReady())
	s.game.Ready["alice"] = true
	s.False(s.game.AllReady())
	s.game.Ready["bob"] = true
	s.True(s.game.AllReady())
}

func (s *GameSuite) placeShips(players ...Username) {
	for _, p := range players {
		s.Require().NoError(s.game.Boards[p].PlaceShip(Position{Row: 0, Col: 0}))
	}
}

func (s *GameSuite) TestRotationSkipsEliminated() {
	s.game.AddPlayer("bob")
	s.game.AddPlayer("carol")
	s.placeShips("alice", "bob", "carol")
	s.Equal(3, s.game.RotationCount())

	s.Equal(Username("bob"), s.game.NextTurn("alice"))
	s.Equal(Username("carol"), s.game.NextTurn("bob"))
	s.Equal(Username("alice"), s.game.NextTurn("carol"))

	s.game.Eliminated["bob"] = true
	s.Equal(2, s.game.RotationCount())
	s.Equal(Username("carol"), s.game.NextTurn("alice"))
}

func (s *GameSuite) TestRotationRequiresShips() {
	s.game.AddPlayer("bob")
	s.placeShips("alice")
	// Bob never placed anything, so he is not in rotation
	s.False(s.game.InRotation("bob"))
	s.Equal(1, s.game.RotationCount())
	s.Equal(Username("alice"), s.game.LastInRotation())
}

func (s *GameSuite) TestLastInRotation() {
	s.game.AddPlayer("bob")
	s.placeShips("alice", "bob")
	// Two armed players: no single survivor
	s.Equal(Username(""), s.game.LastInRotation())

	s.game.Eliminated["alice"] = true
	s.Equal(Username("bob"), s.game.LastInRotation())
}

func (s *GameSuite) TestNextTurnNobodyEligible() {
	s.placeShips("alice")
	s.Equal(Username(""), s.game.NextTurn("alice"))
}

func (s *GameSuite) TestRemoveSpectator() {
	s.game.Spectators = append(s.game.Spectators, "carol")
	s.True(s.game.IsSpectator("carol"))

	s.game.RemoveSpectator("carol")
	s.False(s.game.IsSpectator("carol"))

	// Removing an unknown spectator is a no-op
	s.game.RemoveSpectator("nobody")
	s.Empty(s.game.Spectators)
}
