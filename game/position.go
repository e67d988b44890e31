package game

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Position is an opening: the ordered placements on a board of a given size
// and rule. Colors alternate starting with black.
type Position struct {
	Size  int
	Rule  Rule
	Moves []Move
}

func (p Position) StoneCount() int {
	return len(p.Moves)
}

func (p Position) SideToMove() Color {
	if len(p.Moves)%2 == 0 {
		return Black
	}
	return White
}

// Placements lists the moves with their colors.
func (p Position) Placements() []Placement {
	return lo.Map(p.Moves, func(m Move, i int) Placement {
		c := Black
		if i%2 == 1 {
			c = White
		}
		return Placement{Move: m, Color: c}
	})
}

// BoxSide is the side of the smallest square containing every stone, i.e.
// the larger of the bounding box width and height. Zero for no stones.
func (p Position) BoxSide() int {
	if len(p.Moves) == 0 {
		return 0
	}
	minX := lo.MinBy(p.Moves, func(a, b Move) bool { return a.X < b.X }).X
	maxX := lo.MaxBy(p.Moves, func(a, b Move) bool { return a.X > b.X }).X
	minY := lo.MinBy(p.Moves, func(a, b Move) bool { return a.Y < b.Y }).Y
	maxY := lo.MaxBy(p.Moves, func(a, b Move) bool { return a.Y > b.Y }).Y
	return max(int(maxX-minX), int(maxY-minY)) + 1
}

// Board replays the position on a fresh board.
func (p Position) Board() (*Board, error) {
	if p.Size < MinBoardSize || p.Size > MaxBoardSize {
		return nil, fmt.Errorf("board size %d outside [%d,%d]", p.Size, MinBoardSize, MaxBoardSize)
	}
	b := NewBoard(p.Size, p.Rule)
	for i, m := range p.Moves {
		if !b.IsEmpty(m) {
			return nil, fmt.Errorf("move %d (%s) is off the board or occupied", i+1, m)
		}
		b.Place(m)
	}
	return b, nil
}

// String serializes the moves in order, e.g. "h8i9g7".
func (p Position) String() string {
	var sb strings.Builder
	for _, m := range p.Moves {
		sb.WriteString(m.String())
	}
	return sb.String()
}

// ParsePosition reads a position string written by Position.String.
func ParsePosition(size int, rule Rule, s string) (Position, error) {
	p := Position{Size: size, Rule: rule}
	s = strings.TrimSpace(s)
	for len(s) > 0 {
		m, n, err := ParseMove(s)
		if err != nil {
			return Position{}, err
		}
		p.Moves = append(p.Moves, m)
		s = s[n:]
	}
	if _, err := p.Board(); err != nil {
		return Position{}, err
	}
	return p, nil
}
