package opening

import (
	"fmt"

	"golang.org/x/exp/rand"

	"opengen/game"
	"opengen/meta"
)

// Sampler draws random legal positions whose stones fill a square area of a
// drawn size. Equal seeds yield equal sequences.
type Sampler struct {
	rng     *rand.Rand
	retries int
}

func NewSampler(seed uint64, retries int) *Sampler {
	if retries <= 0 {
		retries = meta.MAX_SAMPLE_RETRIES
	}
	return &Sampler{
		rng:     rand.New(rand.NewSource(seed)),
		retries: retries,
	}
}

// Generate draws a stone count in [minMoves, maxMoves] and an area side in
// [localSizeMin, localSizeMax], then places alternating stones inside an area
// of that side at a random spot of the board. Placements that are occupied,
// would complete a five or are forbidden to black are skipped. The draw is
// repeated until the stones span exactly the drawn side, at most retries
// times.
func (s *Sampler) Generate(boardSize int, rule game.Rule, minMoves, maxMoves, localSizeMin, localSizeMax int) (game.Position, error) {
	if boardSize < game.MinBoardSize || boardSize > game.MaxBoardSize {
		return game.Position{}, fmt.Errorf("%w: board size %d outside [%d,%d]", ErrInvalidConfig, boardSize, game.MinBoardSize, game.MaxBoardSize)
	}
	if minMoves < 1 || maxMoves < minMoves || localSizeMin < 1 || localSizeMax < localSizeMin || localSizeMax > boardSize {
		return game.Position{}, fmt.Errorf("%w: moves [%d,%d], area [%d,%d] on a board of %d",
			ErrInvalidConfig, minMoves, maxMoves, localSizeMin, localSizeMax, boardSize)
	}

	for attempt := 0; attempt < s.retries; attempt++ {
		count := minMoves + s.rng.Intn(maxMoves-minMoves+1)
		side := localSizeMin + s.rng.Intn(localSizeMax-localSizeMin+1)
		if count > side*side || (count == 1 && side > 1) {
			continue
		}

		x0 := s.rng.Intn(boardSize - side + 1)
		y0 := s.rng.Intn(boardSize - side + 1)
		board := game.NewBoard(boardSize, rule)
		if !s.fill(board, count, x0, y0, side) {
			continue
		}
		pos := board.Position()
		if pos.BoxSide() != side {
			continue
		}
		return pos, nil
	}
	return game.Position{}, fmt.Errorf("%w: %d attempts for %d-%d stones in a %d-%d area",
		ErrSamplingExhausted, s.retries, minMoves, maxMoves, localSizeMin, localSizeMax)
}

// fill places count stones inside the area, trying cells in random order for
// each stone. It fails when some stone has no legal cell left.
func (s *Sampler) fill(board *game.Board, count, x0, y0, side int) bool {
	cells := make([]game.Move, 0, side*side)
	for y := y0; y < y0+side; y++ {
		for x := x0; x < x0+side; x++ {
			cells = append(cells, game.Move{X: int8(x), Y: int8(y)})
		}
	}

	for board.StoneCount() < count {
		s.rng.Shuffle(len(cells), func(i, j int) { cells[i], cells[j] = cells[j], cells[i] })
		placed := false
		for _, m := range cells {
			if s.legal(board, m) {
				board.Place(m)
				placed = true
				break
			}
		}
		if !placed {
			return false
		}
	}
	return true
}

func (s *Sampler) legal(board *game.Board, m game.Move) bool {
	if !board.IsEmpty(m) {
		return false
	}
	color := board.SideToMove()
	if board.IsFive(m, color) {
		return false
	}
	return color != game.Black || !board.IsForbidden(m)
}
