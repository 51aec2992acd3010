package protocol

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mkrato/battleship-server/internal/model"
)

type ProtocolSuite struct {
	suite.Suite
}

func TestProtocolSuite(t *testing.T) {
	suite.Run(t, new(ProtocolSuite))
}

func (s *ProtocolSuite) TestEncode() {
	s.Equal("connect;alice", string(Encode(ReqConnect, "alice")))
	s.Equal("ok", string(Encode(RspOK)))
	s.Equal("shoot;alice;bob;2;3", string(Encode(ReqShoot, "alice", "bob", "2", "3")))
}

func (s *ProtocolSuite) TestDecode() {
	msg, err := Decode([]byte("create-game;duel;alice;10;10"))
	s.Require().NoError(err)
	s.Equal(ReqCreateGame, msg.Tag)
	s.Equal([]string{"duel", "alice", "10", "10"}, msg.Fields)

	msg, err = Decode([]byte("ok"))
	s.Require().NoError(err)
	s.Equal(RspOK, msg.Tag)
	s.Empty(msg.Fields)

	_, err = Decode(nil)
	s.ErrorIs(err, ErrEmptyMessage)
}

func (s *ProtocolSuite) TestDecodePreservesEmptyFields() {
	msg, err := Decode([]byte("join-game;;alice"))
	s.Require().NoError(err)
	s.Equal([]string{"", "alice"}, msg.Fields)
	s.True(msg.HasBlankField(2))
}

func (s *ProtocolSuite) TestField() {
	msg := Message{Tag: ReqConnect, Fields: []string{"alice"}}
	s.Equal("alice", msg.Field(0))
	s.Equal("", msg.Field(1))
	s.Equal("", msg.Field(-1))
}

func (s *ProtocolSuite) TestHasBlankField() {
	msg := Message{Fields: []string{"a", " ", "c"}}
	s.False(msg.HasBlankField(1))
	s.True(msg.HasBlankField(2))
	// Missing fields count as blank
	s.True(msg.HasBlankField(4))
}

func (s *ProtocolSuite) TestValidName() {
	s.True(ValidName("alice"))
	s.True(ValidName("game_1"))
	s.False(ValidName(""))
	s.False(ValidName("   "))
	s.False(ValidName("a;b"))
	s.False(ValidName("a,b"))
	s.False(ValidName("a.b"))
	s.False(ValidName("a b"))
}

func (s *ProtocolSuite) TestSubjects() {
	s.Equal("srv", ClientSubject("srv"))
	s.Equal("srv.games", GamesSubject("srv"))
	s.Equal("srv.duel", GameSubject("srv", "duel"))
	s.Equal("srv.duel.events", GameEventsSubject("srv", "duel"))
}

func (s *ProtocolSuite) TestCoordRoundTrip() {
	pos := model.Position{Row: 2, Col: 7}
	s.Equal("2,7", FormatCoord(pos))

	parsed, err := ParseCoord("2,7")
	s.Require().NoError(err)
	s.Equal(pos, parsed)

	_, err = ParseCoord("2")
	s.Error(err)
	_, err = ParseCoord("a,b")
	s.Error(err)
	_, err = ParseCoord("1,2,3")
	s.Error(err)
}

func (s *ProtocolSuite) TestCellRoundTrip() {
	cell := model.Cell{Pos: model.Position{Row: 1, Col: 2}, State: model.CellHitShip}
	field := FormatCell("bob", cell)
	s.Equal("bob,1,2,hit-ship", field)

	player, parsed, err := ParseCell(field)
	s.Require().NoError(err)
	s.Equal(model.Username("bob"), player)
	s.Equal(cell, parsed)

	_, _, err = ParseCell("bob,1,2")
	s.Error(err)
	_, _, err = ParseCell("bob,x,2,shot")
	s.Error(err)
}

func (s *ProtocolSuite) TestParseDimension() {
	n, err := ParseDimension("10")
	s.Require().NoError(err)
	s.Equal(10, n)

	_, err = ParseDimension("0")
	s.Error(err)
	_, err = ParseDimension("-3")
	s.Error(err)
	_, err = ParseDimension("ten")
	s.Error(err)
}
