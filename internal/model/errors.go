package model

import "errors"

// Common errors used across the application. Protocol-level rejections
// travel as response tags on the wire; these errors cover the internal
// seams where Go callers need to branch.
var (
	// Request errors
	ErrInvalidRequest = errors.New("malformed request")

	// Game registry errors
	ErrGameNotFound = errors.New("game not found")

	// Board errors
	ErrOutOfBounds  = errors.New("position is out of bounds")
	ErrCellResolved = errors.New("cell has already been shot")
)
