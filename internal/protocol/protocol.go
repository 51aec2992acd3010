// Package protocol implements the flat, separator-joined wire format
// shared by the server, its workers and clients. Messages are a tag from
// a closed vocabulary followed by positional string fields.
package protocol

import (
	"strings"
)

// Separators. FieldSep joins top-level fields; ItemSep joins the parts of
// compound fields such as coordinates and cell listings.
const (
	FieldSep = ";"
	ItemSep  = ","
)

// Tag is a request, response or event identifier
type Tag string

// Request vocabulary
const (
	ReqConnect       Tag = "connect"
	ReqDisconnect    Tag = "disconnect"
	ReqGetListOpened Tag = "get-list-opened"
	ReqGetListClosed Tag = "get-list-closed"
	ReqCreateGame    Tag = "create-game"
	ReqJoinGame      Tag = "join-game"
	ReqSpectateGame  Tag = "spectate-game"
	ReqGetDimensions Tag = "get-dimensions"
	ReqGetPlayers    Tag = "get-players"
	ReqGetReady      Tag = "get-players-ready"
	ReqGetOwner      Tag = "get-owner"
	ReqGetTurn       Tag = "get-turn"
	ReqGetFields     Tag = "get-fields"
	ReqSetReady      Tag = "set-ready"
	ReqStartGame     Tag = "start-game"
	ReqShoot         Tag = "shoot"
	ReqLeaveGame     Tag = "leave-game"
)

// Response vocabulary
const (
	RspOK               Tag = "ok"
	RspInvalidRequest   Tag = "invalid-request"
	RspNameExists       Tag = "name-exists"
	RspNameDoesntExist  Tag = "name-doesnt-exist"
	RspPermissionDenied Tag = "permission-denied"
	RspUsernameTaken    Tag = "username-taken"
	RspNotConnected     Tag = "client-not-connected"
	RspGameEntered      Tag = "game-entered"
	RspGameSpectating   Tag = "game-spectating"
	RspGameLeft         Tag = "game-left"
	RspConnected        Tag = "connected"
	RspDisconnected     Tag = "disconnected"
	RspListOpened       Tag = "list-opened"
	RspListClosed       Tag = "list-closed"
	RspDimensions       Tag = "dimensions"
	RspListPlayers      Tag = "list-players"
	RspListReady        Tag = "list-players-ready"
	RspOwner            Tag = "owner"
	RspTurn             Tag = "turn"
	RspFields           Tag = "fields"
	RspReady            Tag = "ready"
	RspShot             Tag = "shot"
)

// Event vocabulary
const (
	EventNewPlayer   Tag = "new-player"
	EventPlayerLeft  Tag = "player-left"
	EventNewOwner    Tag = "new-owner"
	EventPlayerReady Tag = "player-ready"
	EventGameStarts  Tag = "game-starts"
	EventOnTurn      Tag = "on-turn"
	EventGameOpened  Tag = "game-opened"
	EventGameClosed  Tag = "game-closed"
)

// Message is a decoded wire message
type Message struct {
	Tag    Tag
	Fields []string
}

// Encode joins a tag and fields into a wire payload
func Encode(tag Tag, fields ...string) []byte {
	if len(fields) == 0 {
		return []byte(tag)
	}
	return []byte(string(tag) + FieldSep + strings.Join(fields, FieldSep))
}

// Decode splits a wire payload into a Message. An empty payload has no
// tag and cannot be decoded.
func Decode(data []byte) (Message, error) {
	if len(data) == 0 {
		return Message{}, ErrEmptyMessage
	}
	parts := strings.Split(string(data), FieldSep)
	return Message{
		Tag:    Tag(parts[0]),
		Fields: parts[1:],
	}, nil
}

// Field returns the i-th field, or the empty string if absent
func (m Message) Field(i int) string {
	if i < 0 || i >= len(m.Fields) {
		return ""
	}
	return m.Fields[i]
}

// HasBlankField reports whether any of the first n fields is blank
// after trimming whitespace
func (m Message) HasBlankField(n int) bool {
	for i := 0; i < n; i++ {
		if strings.TrimSpace(m.Field(i)) == "" {
			return true
		}
	}
	return false
}

// ValidName reports whether s may be used as a game name or username.
// Names become part of routing subjects and wire fields, so the
// separators and the subject delimiter are forbidden.
func ValidName(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	return !strings.ContainsAny(s, FieldSep+ItemSep+". \t\r\n")
}
