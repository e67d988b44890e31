package game

import (
	"fmt"
	"strings"
)

// Rule selects the winning condition and the restrictions on black.
type Rule int

const (
	Freestyle Rule = iota // Five or more in a row wins
	Standard              // Exactly five in a row wins
	Renju                 // Exactly five wins, black may not play overlines, double-fours or double-threes
	numRules
)

func (r Rule) String() string {
	switch r {
	case Freestyle:
		return "freestyle"
	case Standard:
		return "standard"
	case Renju:
		return "renju"
	default:
		return fmt.Sprintf("rule(%d)", int(r))
	}
}

func (r Rule) IsValid() bool {
	return r >= Freestyle && r < numRules
}

// ParseRule translates a rule name into a Rule.
func ParseRule(name string) (Rule, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "freestyle", "f":
		return Freestyle, nil
	case "standard", "s":
		return Standard, nil
	case "renju", "r":
		return Renju, nil
	default:
		return Freestyle, fmt.Errorf("unknown rule %q, expected one of [freestyle, standard, renju]", name)
	}
}

var directions = [4][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}}

// run counts consecutive stones of color c starting next to m in direction
// (dx, dy). m itself is not inspected.
func (b *Board) run(m Move, dx, dy int, c Color) int {
	n := 0
	x, y := int(m.X)+dx, int(m.Y)+dy
	for b.InBounds(x, y) && b.cells[y*gridWidth+x] == c {
		n++
		x += dx
		y += dy
	}
	return n
}

// lineLength is the length of the line of color c through m along direction
// d, counting m as if it held c.
func (b *Board) lineLength(m Move, d int, c Color) int {
	dx, dy := directions[d][0], directions[d][1]
	return 1 + b.run(m, dx, dy, c) + b.run(m, -dx, -dy, c)
}

func (b *Board) isFiveLength(n int, c Color) bool {
	switch b.rule {
	case Freestyle:
		return n >= 5
	case Renju:
		if c == Black {
			return n == 5
		}
		return n >= 5
	default:
		return n == 5
	}
}

// IsFive reports whether placing c on the empty cell m wins under the board's
// rule.
func (b *Board) IsFive(m Move, c Color) bool {
	for d := range directions {
		if b.isFiveLength(b.lineLength(m, d, c), c) {
			return true
		}
	}
	return false
}

func (b *Board) isFiveAlong(m Move, d int, c Color) bool {
	return b.isFiveLength(b.lineLength(m, d, c), c)
}

// IsForbidden reports whether the empty cell m is a forbidden point for black
// under renju: an overline, a double-four or a double-three. A move that
// completes exactly five is never forbidden. Threes are counted without the
// recursive check that the completing point is itself playable.
func (b *Board) IsForbidden(m Move) bool {
	if b.rule != Renju || !b.IsEmpty(m) {
		return false
	}
	if b.IsFive(m, Black) {
		return false
	}
	for d := range directions {
		if b.lineLength(m, d, Black) > 5 {
			return true
		}
	}

	idx := m.Index()
	b.cells[idx] = Black
	defer func() { b.cells[idx] = Empty }()

	fours, threes := 0, 0
	for d := range directions {
		if n := b.fourCount(m, d); n > 0 {
			fours += n
		} else if b.isOpenThree(m, d) {
			threes++
		}
	}
	return fours >= 2 || threes >= 2
}

// fivePoints collects the offsets along d of the empty cells where black
// completes exactly five through the black stone at m.
func (b *Board) fivePoints(m Move, d int) (offsets [8]int, n int) {
	dx, dy := directions[d][0], directions[d][1]
	for k := -4; k <= 4; k++ {
		if k == 0 {
			continue
		}
		p := Move{X: m.X + int8(k*dx), Y: m.Y + int8(k*dy)}
		if !b.IsEmpty(p) || !b.isFiveAlong(p, d, Black) || !b.reaches(p, d, k) {
			continue
		}
		offsets[n] = k
		n++
	}
	return offsets, n
}

// fourCount is the number of fours the black stone at m belongs to along d.
// The two ends of a straight four make one four, X.XXX.X makes two.
func (b *Board) fourCount(m Move, d int) int {
	offsets, n := b.fivePoints(m, d)
	if n == 2 && offsets[1]-offsets[0] == 5 {
		return 1
	}
	return min(n, 2)
}

// reaches reports whether the black run through p along d extends to the
// cell k steps back from p.
func (b *Board) reaches(p Move, d, k int) bool {
	dx, dy := directions[d][0], directions[d][1]
	if k > 0 {
		return b.run(p, -dx, -dy, Black) >= k
	}
	return b.run(p, dx, dy, Black) >= -k
}

// isOpenThree reports whether one more black stone on the line through m can
// make a straight four that contains m.
func (b *Board) isOpenThree(m Move, d int) bool {
	dx, dy := directions[d][0], directions[d][1]
	for k := -3; k <= 3; k++ {
		if k == 0 {
			continue
		}
		p := Move{X: m.X + int8(k*dx), Y: m.Y + int8(k*dy)}
		if !b.IsEmpty(p) || b.lineLength(p, d, Black) != 4 {
			continue
		}
		idx := p.Index()
		b.cells[idx] = Black
		offsets, n := b.fivePoints(p, d)
		straight := b.reaches(p, d, k) && n == 2 && offsets[1]-offsets[0] == 5
		b.cells[idx] = Empty
		if straight {
			return true
		}
	}
	return false
}
