package model

import "time"

// GameName uniquely identifies a game for its lifetime
type GameName string

// Username is a client's unique handle while connected
type Username string

// GameState represents the current phase of a game
type GameState string

const (
	GameStateOpened  GameState = "opened"  // Lobby: ship placement
	GameStatePlaying GameState = "playing" // Alternating shots
	GameStateClosed  GameState = "closed"  // Finished or abandoned
)

// ShipQuota is the number of ship segments each player places, derived
// from the board area. Always at least one.
func ShipQuota(width, height int) int {
	quota := width * height / 5
	if quota < 1 {
		return 1
	}
	return quota
}

// Game holds the full state of one game session. It is owned exclusively
// by that session's worker and never shared.
type Game struct {
	Name   GameName
	State  GameState
	Owner  Username
	Width  int
	Height int

	// Quota of ship segments per player, fixed at creation
	Ships int

	// Players in join order; the owner is always a player
	Players []Username

	// Spectators observe events only; disjoint from Players
	Spectators []Username

	// Ready marks players who have confirmed ship placement
	Ready map[Username]bool

	// Eliminated marks players with no ships left; they stay members
	// but are skipped in the turn rotation
	Eliminated map[Username]bool

	Boards map[Username]*Board

	// Turn is the player currently allowed to shoot; empty until playing
	Turn Username

	CreatedAt time.Time
}

// NewGame creates a game in the opened state with the owner as sole player
func NewGame(name GameName, owner Username, width, height int, createdAt time.Time) *Game {
	return &Game{
		Name:       name,
		State:      GameStateOpened,
		Owner:      owner,
		Width:      width,
		Height:     height,
		Ships:      ShipQuota(width, height),
		Players:    []Username{owner},
		Ready:      make(map[Username]bool),
		Eliminated: make(map[Username]bool),
		Boards:     map[Username]*Board{owner: NewBoard(width, height)},
		CreatedAt:  createdAt,
	}
}

// IsPlayer reports whether user has joined as an active combatant
func (g *Game) IsPlayer(user Username) bool {
	for _, p := range g.Players {
		if p == user {
			return true
		}
	}
	return false
}

// IsSpectator reports whether user is observing the game
func (g *Game) IsSpectator(user Username) bool {
	for _, s := range g.Spectators {
		if s == user {
			return true
		}
	}
	return false
}

// AddPlayer joins a new player with an empty board
func (g *Game) AddPlayer(user Username) {
	g.Players = append(g.Players, user)
	g.Boards[user] = NewBoard(g.Width, g.Height)
}

// RemovePlayer removes user from players, readiness, elimination and boards.
// The turn holder and ownership are the session's responsibility.
func (g *Game) RemovePlayer(user Username) {
	for i, p := range g.Players {
		if p == user {
			g.Players = append(g.Players[:i], g.Players[i+1:]...)
			break
		}
	}
	delete(g.Ready, user)
	delete(g.Eliminated, user)
	delete(g.Boards, user)
}

// RemoveSpectator removes user from the spectator list
func (g *Game) RemoveSpectator(user Username) {
	for i, s := range g.Spectators {
		if s == user {
			g.Spectators = append(g.Spectators[:i], g.Spectators[i+1:]...)
			break
		}
	}
}

// AllReady reports whether every player has confirmed placement
func (g *Game) AllReady() bool {
	for _, p := range g.Players {
		if !g.Ready[p] {
			return false
		}
	}
	return true
}

// InRotation reports whether user still takes turns: a player that is
// not eliminated and has ships remaining
func (g *Game) InRotation(user Username) bool {
	if !g.IsPlayer(user) || g.Eliminated[user] {
		return false
	}
	board, ok := g.Boards[user]
	return ok && board.ShipsRemaining() > 0
}

// RotationCount counts players still in the turn rotation
func (g *Game) RotationCount() int {
	count := 0
	for _, p := range g.Players {
		if g.InRotation(p) {
			count++
		}
	}
	return count
}

// NextTurn returns the next rotation member after from, in join order,
// or the empty username if nobody else is eligible
func (g *Game) NextTurn(from Username) Username {
	start := 0
	for i, p := range g.Players {
		if p == from {
			start = i
			break
		}
	}
	for off := 1; off <= len(g.Players); off++ {
		candidate := g.Players[(start+off)%len(g.Players)]
		if candidate != from && g.InRotation(candidate) {
			return candidate
		}
	}
	return ""
}

// LastInRotation returns the sole remaining rotation member, or empty
// if there are zero or several
func (g *Game) LastInRotation() Username {
	var last Username
	for _, p := range g.Players {
		if g.InRotation(p) {
			if last != "" {
				return ""
			}
			last = p
		}
	}
	return last
}
