package opening

import (
	"errors"
	"fmt"

	"opengen/game"
	"opengen/meta"
)

var (
	ErrInvalidConfig     = errors.New("invalid opening config")
	ErrSamplingExhausted = errors.New("no legal position found within the retry limit")
)

// Hints decides what the balance2 search may learn from balance1.
type Hints int

const (
	HintsIgnore Hints = iota // Balance2 starts from an empty view of the table
	HintsReuse               // Balance2 reads the entries balance1 left behind
)

func (h Hints) String() string {
	if h == HintsReuse {
		return "reuse"
	}
	return "ignore"
}

// Config describes the openings to sample and how hard to check them.
type Config struct {
	MinMoves     int
	MaxMoves     int
	LocalSizeMin int
	LocalSizeMax int

	Balance1Nodes           uint64
	Balance1FastCheckNodes  uint64 // Zero derives it from Balance1FastCheckRatio
	Balance1FastCheckRatio  float64
	Balance1FastCheckWindow int
	Balance2Nodes           uint64
	BalanceWindow           int
	Balance2Hints           Hints

	MaxSampleRetries int
}

func DefaultConfig() Config {
	return Config{
		MinMoves:                meta.MIN_MOVES,
		MaxMoves:                meta.MAX_MOVES,
		LocalSizeMin:            meta.LOCAL_SIZE_MIN,
		LocalSizeMax:            meta.LOCAL_SIZE_MAX,
		Balance1Nodes:           meta.BALANCE1_NODES,
		Balance1FastCheckRatio:  float64(meta.BALANCE1_FAST_CHECK_NODES) / float64(meta.BALANCE1_NODES),
		Balance1FastCheckWindow: meta.BALANCE1_FAST_CHECK_WINDOW,
		Balance2Nodes:           meta.BALANCE2_NODES,
		BalanceWindow:           meta.BALANCE_WINDOW,
		Balance2Hints:           HintsIgnore,
		MaxSampleRetries:        meta.MAX_SAMPLE_RETRIES,
	}
}

// FastCheckNodes is the part of Balance1Nodes spent on the fast check, never
// more than Balance1Nodes.
func (c Config) FastCheckNodes() uint64 {
	n := c.Balance1FastCheckNodes
	if n == 0 {
		n = uint64(float64(c.Balance1Nodes) * c.Balance1FastCheckRatio)
	}
	return min(n, c.Balance1Nodes)
}

// Bypass reports whether every sampled position is accepted unchecked.
func (c Config) Bypass() bool {
	return c.BalanceWindow <= 0 || (c.Balance1Nodes == 0 && c.Balance2Nodes == 0)
}

func (c Config) Validate(boardSize int) error {
	switch {
	case boardSize < game.MinBoardSize || boardSize > game.MaxBoardSize:
		return fmt.Errorf("%w: board size %d outside [%d,%d]", ErrInvalidConfig, boardSize, game.MinBoardSize, game.MaxBoardSize)
	case c.MinMoves < 1:
		return fmt.Errorf("%w: min moves %d below 1", ErrInvalidConfig, c.MinMoves)
	case c.MaxMoves < c.MinMoves:
		return fmt.Errorf("%w: max moves %d below min moves %d", ErrInvalidConfig, c.MaxMoves, c.MinMoves)
	case c.MaxMoves > boardSize*boardSize:
		return fmt.Errorf("%w: max moves %d exceed the %d cells of the board", ErrInvalidConfig, c.MaxMoves, boardSize*boardSize)
	case c.LocalSizeMin < 1:
		return fmt.Errorf("%w: min area size %d below 1", ErrInvalidConfig, c.LocalSizeMin)
	case c.LocalSizeMax < c.LocalSizeMin:
		return fmt.Errorf("%w: max area size %d below min area size %d", ErrInvalidConfig, c.LocalSizeMax, c.LocalSizeMin)
	case c.LocalSizeMax > boardSize:
		return fmt.Errorf("%w: max area size %d exceeds board size %d", ErrInvalidConfig, c.LocalSizeMax, boardSize)
	case c.MinMoves > c.LocalSizeMax*c.LocalSizeMax:
		return fmt.Errorf("%w: %d stones never fit in a %dx%d area", ErrInvalidConfig, c.MinMoves, c.LocalSizeMax, c.LocalSizeMax)
	case c.Balance1FastCheckRatio < 0 || c.Balance1FastCheckRatio > 1:
		return fmt.Errorf("%w: fast check ratio %g outside [0,1]", ErrInvalidConfig, c.Balance1FastCheckRatio)
	case c.Balance1FastCheckWindow < 0:
		return fmt.Errorf("%w: fast check window %d is negative", ErrInvalidConfig, c.Balance1FastCheckWindow)
	case c.Balance2Hints != HintsIgnore && c.Balance2Hints != HintsReuse:
		return fmt.Errorf("%w: unknown balance2 hints mode %d", ErrInvalidConfig, c.Balance2Hints)
	case c.MaxSampleRetries < 1:
		return fmt.Errorf("%w: sample retries %d below 1", ErrInvalidConfig, c.MaxSampleRetries)
	}
	return nil
}
