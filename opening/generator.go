package opening

import (
	"context"
	"fmt"

	"opengen/game"
)

// Generator samples openings and classifies them one at a time. It keeps
// nothing but the last position and its verdict.
type Generator struct {
	session    *Session
	boardSize  int
	rule       game.Rule
	cfg        Config
	sampler    *Sampler
	classifier *Classifier

	position game.Position
	verdict  Verdict
}

func NewGenerator(session *Session, boardSize int, rule game.Rule, cfg Config) (*Generator, error) {
	if err := cfg.Validate(boardSize); err != nil {
		return nil, err
	}
	if !rule.IsValid() {
		return nil, fmt.Errorf("%w: unknown rule %v", ErrInvalidConfig, rule)
	}
	classifier := NewClassifier(session.Pool(), cfg)
	classifier.logger = session.Logger()
	return &Generator{
		session:    session,
		boardSize:  boardSize,
		rule:       rule,
		cfg:        cfg,
		sampler:    NewSampler(session.Seed(), cfg.MaxSampleRetries),
		classifier: classifier,
	}, nil
}

// Next samples and classifies one position and reports whether it is
// balanced. Errors are fatal for the generator.
func (g *Generator) Next(ctx context.Context) (bool, error) {
	pos, err := g.sampler.Generate(g.boardSize, g.rule, g.cfg.MinMoves, g.cfg.MaxMoves, g.cfg.LocalSizeMin, g.cfg.LocalSizeMax)
	if err != nil {
		return false, err
	}
	g.position = pos
	g.verdict = g.classifier.Classify(ctx, pos)
	return g.verdict.Accepted(), nil
}

// PositionString serializes the last sampled position.
func (g *Generator) PositionString() string {
	return g.position.String()
}

func (g *Generator) Position() game.Position {
	return g.position
}

func (g *Generator) LastVerdict() Verdict {
	return g.verdict
}

func (g *Generator) Config() Config {
	return g.cfg
}
