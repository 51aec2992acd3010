package model

import "time"

// GameRecord is the archived summary of a finished game. Records are
// written when a session closes; live game state is never persisted.
type GameRecord struct {
	Name    GameName   `json:"name"`
	Owner   Username   `json:"owner"`
	Winner  Username   `json:"winner,omitempty"` // Empty if the game ended without one
	Players []Username `json:"players"`
	Width   int        `json:"width"`
	Height  int        `json:"height"`

	CreatedAt time.Time `json:"created_at"`
	ClosedAt  time.Time `json:"closed_at"`
}

// GameView is a read-only snapshot of a live game, produced by its
// session worker for status queries
type GameView struct {
	Name       GameName
	State      GameState
	Owner      Username
	Width      int
	Height     int
	Ships      int
	Players    []Username
	Spectators []Username
	Ready      []Username
	Turn       Username
	CreatedAt  time.Time
}
