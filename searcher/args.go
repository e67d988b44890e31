package searcher

import (
	"fmt"

	"opengen/game"
)

// Search limits and score scale

const MaxPly = 128   // Deepest ply a search may reach, forced lines included
const MaxDepth = 64  // Deepest nominal iteration
const MaxBranch = 24 // Widest non-forced node after move ordering

const ValueInfinite = 30001
const ValueMate = 30000
const ValueMateInMaxPly = ValueMate - MaxPly

// MateIn scores a win delivered at ply: shorter wins score higher.
func MateIn(ply int) int {
	return ValueMate - ply
}

// MatedIn scores a loss suffered at ply: longer losses score higher.
func MatedIn(ply int) int {
	return -ValueMate + ply
}

func IsMate(score int) bool {
	return score >= ValueMateInMaxPly || score <= -ValueMateInMaxPly
}

// Bound tells whether a score is exact or only one side of the truth.
type Bound uint8

const (
	BoundUnknown Bound = iota // Search was cancelled; the score means nothing
	BoundUpper                // True score <= Score
	BoundLower                // True score >= Score
	BoundExact
)

func (b Bound) String() string {
	switch b {
	case BoundUpper:
		return "upper"
	case BoundLower:
		return "lower"
	case BoundExact:
		return "exact"
	default:
		return "unknown"
	}
}

// Window is an inclusive score range the caller cares about. Scores outside
// of it are only resolved to a bound.
type Window struct {
	Lo int
	Hi int
}

// Symmetric returns [-w, w].
func Symmetric(w int) *Window {
	return &Window{Lo: -w, Hi: w}
}

func (w *Window) Contains(score int) bool {
	return w == nil || (score >= w.Lo && score <= w.Hi)
}

// Request is one search job. It must not be modified once issued.
type Request struct {
	Position game.Position
	Nodes    uint64  // Node budget shared by every worker
	Window   *Window // Nil searches the full score range
	Salt     uint64  // Mixed into table keys; distinct salts never share entries
	MaxDepth int     // Zero means MaxDepth
}

func (r Request) String() string {
	window := "full"
	if r.Window != nil {
		window = fmt.Sprintf("[%d,%d]", r.Window.Lo, r.Window.Hi)
	}
	return fmt.Sprintf("position=%s nodes=%d window=%s salt=%#x", r.Position, r.Nodes, window, r.Salt)
}

// Result of a request. Score favors the side to move when positive.
type Result struct {
	Score    int
	Bound    Bound
	Nodes    uint64
	Depth    int
	BestMove game.Move
}

// Inside reports whether the result proves the score lies within w.
func (r Result) Inside(w *Window) bool {
	return r.Bound == BoundExact && w.Contains(r.Score)
}

// Outside reports whether the result proves the score lies outside w.
func (r Result) Outside(w *Window) bool {
	if w == nil {
		return false
	}
	switch r.Bound {
	case BoundExact:
		return !w.Contains(r.Score)
	case BoundUpper:
		return r.Score < w.Lo
	case BoundLower:
		return r.Score > w.Hi
	default:
		return false
	}
}
