package game

import "fmt"

// Board is a square board with stones placed in alternating colors, black
// first. It is not safe for concurrent use; searchers work on clones.
type Board struct {
	size    int
	rule    Rule
	cells   [MaxCells]Color
	history []Move
	hash    Hash
}

// NewBoard returns an empty board. It panics on sizes outside
// [MinBoardSize, MaxBoardSize]; callers validate sizes up front.
func NewBoard(size int, rule Rule) *Board {
	if size < MinBoardSize || size > MaxBoardSize {
		panic(fmt.Sprintf("board size %d outside [%d,%d]", size, MinBoardSize, MaxBoardSize))
	}
	return &Board{
		size:    size,
		rule:    rule,
		history: make([]Move, 0, size*size),
		hash:    baseHash(size, rule),
	}
}

func (b *Board) Size() int {
	return b.size
}

func (b *Board) Rule() Rule {
	return b.rule
}

func (b *Board) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.size && y < b.size
}

func (b *Board) At(m Move) Color {
	if !m.IsValid(b.size) {
		return Empty
	}
	return b.cells[m.Index()]
}

func (b *Board) IsEmpty(m Move) bool {
	return m.IsValid(b.size) && b.cells[m.Index()] == Empty
}

func (b *Board) StoneCount() int {
	return len(b.history)
}

func (b *Board) IsFull() bool {
	return len(b.history) == b.size*b.size
}

func (b *Board) SideToMove() Color {
	if len(b.history)%2 == 0 {
		return Black
	}
	return White
}

func (b *Board) Hash() Hash {
	return b.hash
}

// History returns the moves played so far. The slice must not be modified.
func (b *Board) History() []Move {
	return b.history
}

func (b *Board) LastMove() Move {
	if len(b.history) == 0 {
		return NoMove
	}
	return b.history[len(b.history)-1]
}

// Place puts a stone of the side to move on m. m must be empty.
func (b *Board) Place(m Move) {
	c := b.SideToMove()
	idx := m.Index()
	b.cells[idx] = c
	b.history = append(b.history, m)
	b.hash ^= Hash(stoneKey(c, idx) ^ sideKey)
}

// Undo takes back the last placed stone.
func (b *Board) Undo() {
	last := len(b.history) - 1
	m := b.history[last]
	idx := m.Index()
	c := b.cells[idx]
	b.cells[idx] = Empty
	b.history = b.history[:last]
	b.hash ^= Hash(stoneKey(c, idx) ^ sideKey)
}

func (b *Board) Clone() *Board {
	clone := *b
	clone.history = make([]Move, len(b.history), cap(b.history))
	copy(clone.history, b.history)
	return &clone
}

// Position snapshots the placements made on the board.
func (b *Board) Position() Position {
	moves := make([]Move, len(b.history))
	copy(moves, b.history)
	return Position{Size: b.size, Rule: b.rule, Moves: moves}
}

// bounds returns the stones' bounding box, or ok=false on an empty board.
func (b *Board) bounds() (minX, minY, maxX, maxY int, ok bool) {
	if len(b.history) == 0 {
		return 0, 0, 0, 0, false
	}
	minX, minY = b.size, b.size
	maxX, maxY = -1, -1
	for _, m := range b.history {
		x, y := int(m.X), int(m.Y)
		minX = min(minX, x)
		minY = min(minY, y)
		maxX = max(maxX, x)
		maxY = max(maxY, y)
	}
	return minX, minY, maxX, maxY, true
}

// Candidates appends to buf the empty cells within distance two of any
// stone, in board order. An empty board yields its center.
func (b *Board) Candidates(buf []Move) []Move {
	if len(b.history) == 0 {
		return append(buf, Move{X: int8(b.size / 2), Y: int8(b.size / 2)})
	}
	var seen [MaxCells]bool
	for _, s := range b.history {
		for dy := -2; dy <= 2; dy++ {
			for dx := -2; dx <= 2; dx++ {
				x, y := int(s.X)+dx, int(s.Y)+dy
				if !b.InBounds(x, y) {
					continue
				}
				seen[y*gridWidth+x] = true
			}
		}
	}
	for y := 0; y < b.size; y++ {
		for x := 0; x < b.size; x++ {
			idx := y*gridWidth + x
			if seen[idx] && b.cells[idx] == Empty {
				buf = append(buf, Move{X: int8(x), Y: int8(y)})
			}
		}
	}
	return buf
}
