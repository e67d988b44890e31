package game

const (
	MinBoardSize = 5
	MaxBoardSize = 22

	// Cells are addressed on a fixed-width grid so move indices and Zobrist
	// keys do not depend on the board size.
	gridWidth = 32
	MaxCells  = gridWidth * MaxBoardSize
)

// Color of a stone, or Empty for a free cell.
type Color int8

const (
	Empty Color = iota
	Black
	White
)

func (c Color) Opponent() Color {
	switch c {
	case Black:
		return White
	case White:
		return Black
	default:
		return Empty
	}
}

func (c Color) String() string {
	switch c {
	case Black:
		return "black"
	case White:
		return "white"
	default:
		return "empty"
	}
}

// Hash is the Zobrist key of a board, side to move included.
type Hash uint64

// Evaluates the board to a score indicating how favorable it is for the side
// to move (positive) against its opponent (negative).
type Evaluate func(b *Board) int
