package memory

import (
	"context"
	"sync"

	"github.com/mkrato/battleship-server/internal/model"
	"github.com/mkrato/battleship-server/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu      sync.RWMutex
	records []*model.GameRecord
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// SaveGameRecord appends the record of a finished game
func (s *Storage) SaveGameRecord(ctx context.Context, record *model.GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

// ListGameRecords returns archived records, most recent first
func (s *Storage) ListGameRecords(ctx context.Context) ([]*model.GameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*model.GameRecord, 0, len(s.records))
	for i := len(s.records) - 1; i >= 0; i-- {
		result = append(result, s.records[i])
	}
	return result, nil
}
