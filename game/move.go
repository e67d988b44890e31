package game

import (
	"fmt"
	"strconv"
)

// Move is a single stone placement. Its color follows from the ply it is
// played at.
type Move struct {
	X int8
	Y int8
}

// NoMove marks the absence of a move (e.g. an empty table slot).
var NoMove = Move{X: -1, Y: -1}

func (m Move) IsValid(size int) bool {
	return m.X >= 0 && m.Y >= 0 && int(m.X) < size && int(m.Y) < size
}

// Index packs the move into [0, MaxCells). NoMove has no index.
func (m Move) Index() int {
	return int(m.Y)*gridWidth + int(m.X)
}

func MoveFromIndex(idx int) Move {
	return Move{X: int8(idx % gridWidth), Y: int8(idx / gridWidth)}
}

// String renders the move as column letter plus 1-based row, e.g. "h8".
func (m Move) String() string {
	if m == NoMove {
		return "none"
	}
	return string(rune('a'+m.X)) + strconv.Itoa(int(m.Y)+1)
}

// ParseMove reads one move from the front of s and returns it together with
// the number of bytes consumed.
func ParseMove(s string) (Move, int, error) {
	if len(s) < 2 {
		return NoMove, 0, fmt.Errorf("move %q is too short", s)
	}
	col := s[0]
	if col < 'a' || col >= 'a'+MaxBoardSize {
		return NoMove, 0, fmt.Errorf("move %q has invalid column %q", s, col)
	}
	n := 1
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	if n == 1 {
		return NoMove, 0, fmt.Errorf("move %q has no row", s)
	}
	row, err := strconv.Atoi(s[1:n])
	if err != nil || row < 1 || row > MaxBoardSize {
		return NoMove, 0, fmt.Errorf("move %q has invalid row", s[:n])
	}
	return Move{X: int8(col - 'a'), Y: int8(row - 1)}, n, nil
}

// Placement is a move together with the color that played it.
type Placement struct {
	Move
	Color Color
}
