package protocol

import (
	"strconv"
	"strings"

	"github.com/mkrato/battleship-server/internal/model"
)

// FormatCoord renders a position as "row,col"
func FormatCoord(pos model.Position) string {
	return strconv.Itoa(pos.Row) + ItemSep + strconv.Itoa(pos.Col)
}

// ParseCoord parses a "row,col" field into a position
func ParseCoord(field string) (model.Position, error) {
	parts := strings.Split(field, ItemSep)
	if len(parts) != 2 {
		return model.Position{}, model.ErrInvalidRequest
	}
	row, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return model.Position{}, model.ErrInvalidRequest
	}
	col, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return model.Position{}, model.ErrInvalidRequest
	}
	return model.Position{Row: row, Col: col}, nil
}

// FormatCell renders a field listing entry as "player,row,col,state"
func FormatCell(player model.Username, cell model.Cell) string {
	return strings.Join([]string{
		string(player),
		strconv.Itoa(cell.Pos.Row),
		strconv.Itoa(cell.Pos.Col),
		string(cell.State),
	}, ItemSep)
}

// ParseCell parses a "player,row,col,state" field listing entry
func ParseCell(field string) (model.Username, model.Cell, error) {
	parts := strings.Split(field, ItemSep)
	if len(parts) != 4 {
		return "", model.Cell{}, model.ErrInvalidRequest
	}
	row, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", model.Cell{}, model.ErrInvalidRequest
	}
	col, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", model.Cell{}, model.ErrInvalidRequest
	}
	return model.Username(parts[0]), model.Cell{
		Pos:   model.Position{Row: row, Col: col},
		State: model.CellState(parts[3]),
	}, nil
}

// FormatBool renders a boolean wire field
func FormatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// ParseDimension parses a positive integer dimension field
func ParseDimension(field string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil || n <= 0 {
		return 0, model.ErrInvalidRequest
	}
	return n, nil
}
