package model

// Position identifies a cell on a board
type Position struct {
	Row int // 0-indexed from top
	Col int // 0-indexed from left
}

// CellState is the resolution state of a single board cell
type CellState string

const (
	CellWater   CellState = "water"    // Empty, never shot
	CellShip    CellState = "ship"     // Holds an unhit ship segment
	CellHitShip CellState = "hit-ship" // Ship segment that has been hit
	CellShot    CellState = "shot"     // Empty cell that has been shot
	CellUnknown CellState = "unknown"  // Opponent view of an unresolved cell
)

// Resolved reports whether a cell has already been shot at
func (c CellState) Resolved() bool {
	return c == CellShot || c == CellHitShip
}

// Cell pairs a position with its state, for field listings
type Cell struct {
	Pos   Position
	State CellState
}

// Board is one player's grid. Cells only ever hold water/ship/hit-ship/shot;
// the unknown state exists purely in views derived for opponents.
type Board struct {
	Width  int
	Height int
	Cells  [][]CellState // Row-major: Cells[row][col]
}

// NewBoard creates an all-water board of the given dimensions
func NewBoard(width, height int) *Board {
	cells := make([][]CellState, height)
	for i := range cells {
		cells[i] = make([]CellState, width)
		for j := range cells[i] {
			cells[i][j] = CellWater
		}
	}
	return &Board{
		Width:  width,
		Height: height,
		Cells:  cells,
	}
}

// At returns the state of the cell at pos, or water if out of bounds
func (b *Board) At(pos Position) CellState {
	if !b.IsValidPosition(pos) {
		return CellWater
	}
	return b.Cells[pos.Row][pos.Col]
}

// IsValidPosition returns true if the position is within bounds
func (b *Board) IsValidPosition(pos Position) bool {
	return pos.Row >= 0 && pos.Row < b.Height && pos.Col >= 0 && pos.Col < b.Width
}

// PlaceShip marks the cell at pos as holding a ship segment
func (b *Board) PlaceShip(pos Position) error {
	if !b.IsValidPosition(pos) {
		return ErrOutOfBounds
	}
	b.Cells[pos.Row][pos.Col] = CellShip
	return nil
}

// Resolve applies a shot to the cell at pos and returns the new state.
// Ship becomes hit-ship, water becomes shot. Shooting a resolved cell
// or an out-of-bounds position is an error and changes nothing.
func (b *Board) Resolve(pos Position) (CellState, error) {
	if !b.IsValidPosition(pos) {
		return "", ErrOutOfBounds
	}
	switch b.Cells[pos.Row][pos.Col] {
	case CellShip:
		b.Cells[pos.Row][pos.Col] = CellHitShip
	case CellWater:
		b.Cells[pos.Row][pos.Col] = CellShot
	default:
		return "", ErrCellResolved
	}
	return b.Cells[pos.Row][pos.Col], nil
}

// ShipsRemaining counts unhit ship segments
func (b *Board) ShipsRemaining() int {
	count := 0
	for _, row := range b.Cells {
		for _, cell := range row {
			if cell == CellShip {
				count++
			}
		}
	}
	return count
}

// OwnerCells returns every non-water cell in row-major order. This is the
// board owner's full view; water cells are omitted since they are the
// client's default rendering.
func (b *Board) OwnerCells() []Cell {
	var cells []Cell
	for r, row := range b.Cells {
		for c, state := range row {
			if state != CellWater {
				cells = append(cells, Cell{Pos: Position{Row: r, Col: c}, State: state})
			}
		}
	}
	return cells
}

// RevealedCells returns only the cells an opponent may see: resolved shots
// and hits, in row-major order. Unhit ship positions are never included.
func (b *Board) RevealedCells() []Cell {
	var cells []Cell
	for r, row := range b.Cells {
		for c, state := range row {
			if state.Resolved() {
				cells = append(cells, Cell{Pos: Position{Row: r, Col: c}, State: state})
			}
		}
	}
	return cells
}
