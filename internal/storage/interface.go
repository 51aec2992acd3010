// Package storage defines persistence for finished-game records. Live
// game state is owned by session workers and is never stored here.
package storage

import (
	"context"

	"github.com/mkrato/battleship-server/internal/model"
)

// Storage archives records of games that have reached the closed state
type Storage interface {
	// SaveGameRecord appends the record of a finished game
	SaveGameRecord(ctx context.Context, record *model.GameRecord) error

	// ListGameRecords returns archived records, most recent first
	ListGameRecords(ctx context.Context) ([]*model.GameRecord, error)
}
