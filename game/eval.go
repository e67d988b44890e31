package game

import "opengen/utils"

// EvalLimit bounds static evaluations so they never reach the mate range of
// a searcher.
const EvalLimit = 10000

// windowWeights scores a five-cell window holding only stones of one color,
// indexed by how many stones it holds.
var windowWeights = [6]int{0, 1, 8, 45, 300, 2000}

// tempo is credited to the side to move.
const tempo = 6

// EvaluatePatterns sums every five-cell window that one color could still
// complete, from the side to move's perspective. Windows further than four
// cells from the stones' bounding box are skipped because they are empty.
func EvaluatePatterns(b *Board) int {
	minX, minY, maxX, maxY, ok := b.bounds()
	if !ok {
		return 0
	}
	minX, minY = max(minX-4, 0), max(minY-4, 0)
	maxX, maxY = min(maxX+4, b.size-1), min(maxY+4, b.size-1)

	var score [3]int
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			for _, d := range directions {
				ex, ey := x+4*d[0], y+4*d[1]
				if !b.InBounds(ex, ey) {
					continue
				}
				var count [3]int
				for k := 0; k < 5; k++ {
					count[b.cells[(y+k*d[1])*gridWidth+x+k*d[0]]]++
				}
				switch {
				case count[Black] > 0 && count[White] == 0:
					score[Black] += windowWeights[count[Black]]
				case count[White] > 0 && count[Black] == 0:
					score[White] += windowWeights[count[White]]
				}
			}
		}
	}

	us := b.SideToMove()
	return clampEval(score[us] - score[us.Opponent()] + tempo)
}

// MoveScore estimates how interesting m is for both sides; used for move
// ordering. Longer lines through m weigh more, attack slightly above defense.
func (b *Board) MoveScore(m Move) int {
	us := b.SideToMove()
	them := us.Opponent()
	score := 0
	for d := range directions {
		own := b.lineLength(m, d, us) - 1
		opp := b.lineLength(m, d, them) - 1
		score += 3*lineWeight(own) + 2*lineWeight(opp)
	}
	return score
}

func lineWeight(n int) int {
	switch {
	case n <= 0:
		return 0
	case n >= 4:
		return 1000
	default:
		return n * n * n
	}
}

func clampEval(v int) int {
	return utils.Clamp(v, -EvalLimit, EvalLimit)
}
