package searcher

import (
	"context"

	"golang.org/x/exp/slices"

	"opengen/game"
)

// stopCheckInterval is how many nodes a worker searches between two looks at
// its context.
const stopCheckInterval = 1024

// task is one worker's share of a request. It belongs to that worker alone.
type task struct {
	request    Request
	budget     *Budget
	startDepth int
}

type scoredMove struct {
	move  game.Move
	score int
}

// worker runs iterative deepening alpha-beta on its own board against the
// shared table and budget.
type worker struct {
	id       int
	table    *Table
	evaluate game.Evaluate

	// Per-request state, reset by prepare
	ctx       context.Context
	board     *game.Board
	budget    *Budget
	salt      uint64
	nodes     uint64
	tableHits uint64
	aborted   bool
	cancelled bool
	rootBest  game.Move
	history   [2][game.MaxCells]int32

	moveBuf [MaxPly + 1][]game.Move
	scored  [MaxPly + 1][]scoredMove
}

func newWorker(id int, table *Table, evaluate game.Evaluate) *worker {
	return &worker{id: id, table: table, evaluate: evaluate}
}

func (w *worker) prepare(ctx context.Context, board *game.Board, t task) {
	w.ctx = ctx
	w.board = board
	w.budget = t.budget
	w.salt = t.request.Salt
	w.nodes = 0
	w.tableHits = 0
	w.aborted = false
	w.cancelled = false
	w.rootBest = game.NoMove
	w.history = [2][game.MaxCells]int32{}
}

// run searches until the budget runs out, a mate is proven, the depth limit
// is reached or ctx is done. It returns the deepest completed iteration and
// completed=false when no iteration finished. Whether a cancelled result is
// still usable is for the pool to decide.
func (w *worker) run(ctx context.Context, t task) (res Result, completed bool) {
	board, err := t.request.Position.Board()
	if err != nil {
		return Result{Bound: BoundUnknown}, false
	}
	w.prepare(ctx, board, t)

	maxDepth := t.request.MaxDepth
	if maxDepth <= 0 || maxDepth > MaxDepth {
		maxDepth = MaxDepth
	}
	alpha, beta := -ValueInfinite, ValueInfinite
	if win := t.request.Window; win != nil {
		alpha, beta = win.Lo-1, win.Hi+1
	}

	if t.budget.Limit() == 0 || ctx.Err() != nil {
		return Result{Bound: BoundUnknown}, false
	}

	for depth := t.startDepth; depth <= maxDepth; depth++ {
		score := w.alphabeta(alpha, beta, depth, 0)
		if w.aborted && depth == 0 && !w.cancelled {
			if w.nodes == 0 {
				// Other workers spent the whole budget first
				break
			}
			// A static estimate stands in for a depth 0 search that ran out
			// of nodes while resolving forced replies.
			score = w.staticScore()
		}
		if w.aborted && (depth > 0 || w.cancelled) {
			break
		}
		res = Result{
			Score:    score,
			Bound:    rootBound(score, alpha, beta),
			Depth:    depth,
			BestMove: w.rootBest,
		}
		completed = true
		if IsMate(score) {
			break
		}
	}
	return res, completed
}

func rootBound(score, alpha, beta int) Bound {
	switch {
	case score <= alpha:
		return BoundUpper
	case score >= beta:
		return BoundLower
	default:
		return BoundExact
	}
}

// spend claims a node from the shared budget and polls the context at
// bounded intervals.
func (w *worker) spend() bool {
	if w.aborted {
		return false
	}
	if !w.budget.Spend() {
		w.aborted = true
		return false
	}
	w.nodes++
	if w.nodes%stopCheckInterval == 0 && w.ctx.Err() != nil {
		w.aborted = true
		w.cancelled = true
		return false
	}
	return true
}

func (w *worker) alphabeta(alpha, beta, depth, ply int) int {
	if !w.spend() {
		return 0
	}

	b := w.board
	if b.IsFull() {
		return 0
	}
	if ply >= MaxPly {
		return w.evaluate(b)
	}

	// Mate distance pruning
	alpha = max(alpha, MatedIn(ply))
	beta = min(beta, MateIn(ply+1))
	if alpha >= beta {
		return alpha
	}

	us := b.SideToMove()
	moves := b.Candidates(w.moveBuf[ply][:0])
	w.moveBuf[ply] = moves

	forced, threats, score, decided := w.scanFives(moves, ply)
	if decided {
		return score
	}
	if threats == 0 && depth <= 0 {
		return w.evaluate(b)
	}

	key := uint64(b.Hash()) ^ w.salt
	ttMove := game.NoMove
	if entry, hit := w.table.Probe(key); hit {
		w.tableHits++
		ttMove = entry.Move
		if ply > 0 && entry.Depth >= depth {
			score := scoreFromTable(entry.Score, ply)
			switch {
			case entry.Bound == BoundExact,
				entry.Bound == BoundLower && score >= beta,
				entry.Bound == BoundUpper && score <= alpha:
				return score
			}
		}
	}

	var ordered []scoredMove
	if threats == 1 {
		ordered = append(w.scored[ply][:0], scoredMove{move: forced})
	} else {
		ordered = w.orderMoves(ply, moves, ttMove)
	}
	w.scored[ply] = ordered
	if len(ordered) == 0 {
		return MatedIn(ply + 1)
	}

	origAlpha := alpha
	best := -ValueInfinite
	bestMove := game.NoMove
	for i, sm := range ordered {
		m := sm.move
		b.Place(m)
		var score int
		if i == 0 {
			score = -w.alphabeta(-beta, -alpha, depth-1, ply+1)
		} else {
			// Principal variation search: prove the move is no better with a
			// null window, re-search when it is.
			score = -w.alphabeta(-alpha-1, -alpha, depth-1, ply+1)
			if score > alpha && score < beta {
				score = -w.alphabeta(-beta, -alpha, depth-1, ply+1)
			}
		}
		b.Undo()
		if w.aborted {
			return 0
		}

		if score > best {
			best = score
			bestMove = m
			if ply == 0 {
				w.rootBest = m
			}
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			w.history[us-game.Black][m.Index()] += int32(depth * depth)
			break
		}
	}

	bound := BoundExact
	switch {
	case best >= beta:
		bound = BoundLower
	case best <= origAlpha:
		bound = BoundUpper
	}
	w.table.Store(key, Entry{
		Score: scoreToTable(best, ply),
		Bound: bound,
		Depth: max(depth, 0),
		Move:  bestMove,
	})
	return best
}

// scanFives looks for a five of the side to move and for the opponent fives
// it has to block. A five ends the game at once, a single opponent four must
// be blocked and two cannot be. decided is set when score is a proven mate.
func (w *worker) scanFives(moves []game.Move, ply int) (forced game.Move, threats, score int, decided bool) {
	b := w.board
	us := b.SideToMove()
	them := us.Opponent()
	forced = game.NoMove
	for _, m := range moves {
		if b.IsFive(m, us) {
			if ply == 0 {
				w.rootBest = m
			}
			return m, 0, MateIn(ply + 1), true
		}
		if b.IsFive(m, them) {
			threats++
			forced = m
		}
	}
	if threats >= 2 || (threats == 1 && w.forbidden(forced)) {
		if ply == 0 && len(moves) > 0 {
			w.rootBest = moves[0]
			if threats == 1 {
				w.rootBest = forced
			}
		}
		return forced, threats, MatedIn(ply + 2), true
	}
	return forced, threats, 0, false
}

// staticScore scores the root without spending nodes: proven fives first,
// the evaluation otherwise.
func (w *worker) staticScore() int {
	moves := w.board.Candidates(w.moveBuf[0][:0])
	w.moveBuf[0] = moves
	if _, _, score, decided := w.scanFives(moves, 0); decided {
		return score
	}
	return w.evaluate(w.board)
}

func (w *worker) forbidden(m game.Move) bool {
	return w.board.Rule() == game.Renju && w.board.SideToMove() == game.Black && w.board.IsForbidden(m)
}

// orderMoves drops forbidden points, sorts the table move first and the rest
// by history and shape, and keeps at most MaxBranch of them.
func (w *worker) orderMoves(ply int, moves []game.Move, ttMove game.Move) []scoredMove {
	b := w.board
	side := b.SideToMove() - game.Black
	ordered := w.scored[ply][:0]
	for _, m := range moves {
		if w.forbidden(m) {
			continue
		}
		score := b.MoveScore(m) + int(w.history[side][m.Index()])
		if m == ttMove {
			score = 1 << 30
		}
		ordered = append(ordered, scoredMove{move: m, score: score})
	}
	slices.SortStableFunc(ordered, func(a, b scoredMove) int {
		return b.score - a.score
	})
	if len(ordered) > MaxBranch {
		ordered = ordered[:MaxBranch]
	}
	return ordered
}

// Mate scores are stored relative to the node so they stay valid when the
// same position is reached at another ply.
func scoreToTable(score, ply int) int {
	switch {
	case score >= ValueMateInMaxPly:
		return score + ply
	case score <= -ValueMateInMaxPly:
		return score - ply
	default:
		return score
	}
}

func scoreFromTable(score, ply int) int {
	switch {
	case score >= ValueMateInMaxPly:
		return score - ply
	case score <= -ValueMateInMaxPly:
		return score + ply
	default:
		return score
	}
}
