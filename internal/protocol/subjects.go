package protocol

import "errors"

// Routing subjects. Requests are addressed by binding, not payload:
// each worker consumes its own subject and replies to the sender's
// private reply subject.
const (
	// SubjectAdvert carries periodic server liveness announcements
	SubjectAdvert = "server_advert"
	// SubjectStop announces server shutdown
	SubjectStop = "server_stop"

	gamesSegment  = "games"
	eventsSegment = "events"
	subjectSep    = "."
)

// ErrEmptyMessage is returned when decoding a zero-length payload
var ErrEmptyMessage = errors.New("empty message")

// ReservedName reports whether name is a subject segment games may not
// claim. A game named after the lobby segment would route its requests
// onto the lobby subject.
func ReservedName(name string) bool {
	return name == gamesSegment
}

// ClientSubject is the per-server connect/disconnect subject
func ClientSubject(server string) string {
	return server
}

// GamesSubject is the lobby subject for create/list/join/spectate
// requests and registry-wide game-opened/game-closed events
func GamesSubject(server string) string {
	return server + subjectSep + gamesSegment
}

// GameSubject is a single game's request subject
func GameSubject(server, game string) string {
	return server + subjectSep + game
}

// GameEventsSubject is a single game's broadcast event subject
func GameEventsSubject(server, game string) string {
	return GameSubject(server, game) + subjectSep + eventsSegment
}
