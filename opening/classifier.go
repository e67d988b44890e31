package opening

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"opengen/game"
	"opengen/searcher"
)

// balance2Salt keeps balance2 table entries apart from balance1's when hints
// are ignored.
const balance2Salt = 0x9E3779B97F4A7C15

// Searcher runs one bounded search. *searcher.Pool satisfies it.
type Searcher interface {
	RunSearch(ctx context.Context, request searcher.Request) searcher.Result
}

// State is a step of the classification of one position.
type State int

const (
	StateSampled     State = iota
	StateFastChecked       // Fast check passed or skipped
	StateProvisional       // Balance1 found the position balanced
	StateAccepted
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateSampled:
		return "sampled"
	case StateFastChecked:
		return "fast-checked"
	case StateProvisional:
		return "provisional"
	case StateAccepted:
		return "accepted"
	case StateRejected:
		return "rejected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) Terminal() bool {
	return s == StateAccepted || s == StateRejected
}

// Verdict records how a position went through classification.
type Verdict struct {
	State     State
	Bypassed  bool
	FastCheck *searcher.Result
	Balance1  *searcher.Result
	Balance2  *searcher.Result
	Nodes     uint64 // Nodes spent over every phase
}

func (v Verdict) Accepted() bool {
	return v.State == StateAccepted
}

// Classifier decides whether positions are balanced with up to three bounded
// searches: a cheap fast check, the rest of the balance1 budget and an
// optional balance2 confirmation. Anything but a proven exact score inside
// the window rejects.
type Classifier struct {
	searcher Searcher
	cfg      Config
	logger   zerolog.Logger
}

func NewClassifier(s Searcher, cfg Config) *Classifier {
	return &Classifier{searcher: s, cfg: cfg, logger: log.Logger}
}

// Classify steps the position from StateSampled to a terminal state.
func (c *Classifier) Classify(ctx context.Context, pos game.Position) Verdict {
	v := Verdict{State: StateSampled}
	for !v.State.Terminal() {
		v.State = c.Step(ctx, pos, &v)
	}
	c.logger.Debug().
		Str("position", pos.String()).
		Stringer("verdict", v.State).
		Uint64("nodes", v.Nodes).
		Msg("classified")
	return v
}

// Step performs the transition out of v.State and returns the next state.
// Terminal states return themselves.
func (c *Classifier) Step(ctx context.Context, pos game.Position, v *Verdict) State {
	switch v.State {
	case StateSampled:
		return c.FastCheck(ctx, pos, v)
	case StateFastChecked:
		return c.Balance1(ctx, pos, v)
	case StateProvisional:
		return c.Balance2(ctx, pos, v)
	default:
		return v.State
	}
}

// FastCheck rejects positions whose shallow estimate already leaves the fast
// check window. The rest of the balance1 budget is then never spent.
func (c *Classifier) FastCheck(ctx context.Context, pos game.Position, v *Verdict) State {
	if c.cfg.Bypass() {
		v.Bypassed = true
		return StateAccepted
	}
	nodes := c.cfg.FastCheckNodes()
	if nodes == 0 {
		return StateFastChecked
	}
	window := searcher.Symmetric(c.cfg.Balance1FastCheckWindow)
	res := c.search(ctx, pos, v, nodes, window, 0)
	v.FastCheck = &res
	if res.Bound == searcher.BoundUnknown || res.Outside(window) {
		return StateRejected
	}
	return StateFastChecked
}

// Balance1 spends what the fast check left of the balance1 budget and keeps
// the position if the score is proven inside the balance window.
func (c *Classifier) Balance1(ctx context.Context, pos game.Position, v *Verdict) State {
	if c.cfg.Balance1Nodes == 0 {
		return StateProvisional
	}
	window := searcher.Symmetric(c.cfg.BalanceWindow)
	remaining := c.cfg.Balance1Nodes - c.cfg.FastCheckNodes()
	if remaining == 0 {
		// The fast check used the whole budget and its result is final
		if v.FastCheck != nil && v.FastCheck.Inside(window) {
			return StateProvisional
		}
		return StateRejected
	}
	res := c.search(ctx, pos, v, remaining, window, 0)
	v.Balance1 = &res
	if !res.Inside(window) {
		return StateRejected
	}
	return StateProvisional
}

// Balance2 repeats the balance check with its own budget. Its salt decides
// whether it can see what balance1 cached.
func (c *Classifier) Balance2(ctx context.Context, pos game.Position, v *Verdict) State {
	if c.cfg.Balance2Nodes == 0 {
		return StateAccepted
	}
	salt := uint64(0)
	if c.cfg.Balance2Hints == HintsIgnore {
		salt = balance2Salt
	}
	window := searcher.Symmetric(c.cfg.BalanceWindow)
	res := c.search(ctx, pos, v, c.cfg.Balance2Nodes, window, salt)
	v.Balance2 = &res
	if !res.Inside(window) {
		return StateRejected
	}
	return StateAccepted
}

func (c *Classifier) search(ctx context.Context, pos game.Position, v *Verdict, nodes uint64, window *searcher.Window, salt uint64) searcher.Result {
	res := c.searcher.RunSearch(ctx, searcher.Request{
		Position: pos,
		Nodes:    nodes,
		Window:   window,
		Salt:     salt,
	})
	v.Nodes += res.Nodes
	return res
}
