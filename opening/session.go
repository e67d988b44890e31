package opening

import (
	"math"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"opengen/metrics"
	"opengen/meta"
	"opengen/searcher"
)

type SessionOption func(s *Session)

func WithThreads(threads int) SessionOption {
	return func(s *Session) {
		if threads > 0 {
			s.threads = threads
		}
	}
}

func WithMemoryMB(sizeMB int) SessionOption {
	return func(s *Session) {
		s.memoryMB = sizeMB
	}
}

// WithSeed fixes the sampler seed. Together with one thread it makes a
// session reproducible.
func WithSeed(seed uint64) SessionOption {
	return func(s *Session) {
		s.seed = seed
		s.seeded = true
	}
}

func WithMetrics() SessionOption {
	return func(s *Session) {
		s.metrics = metrics.NewCollector()
	}
}

func WithLogger(logger zerolog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// Session owns the table and worker pool shared by every generator built on
// it. It serves one generator at a time.
type Session struct {
	threads  int
	memoryMB int
	seed     uint64
	seeded   bool
	metrics  metrics.Collector
	logger   zerolog.Logger

	table *searcher.Table
	pool  *searcher.Pool
}

func NewSession(options ...SessionOption) (*Session, error) {
	s := &Session{ // Default values
		threads:  meta.GO_ROUTINES,
		memoryMB: meta.HASH_SIZE_MB,
		metrics:  metrics.NewDummyCollector(),
		logger:   log.Logger,
	}
	for _, option := range options {
		option(s)
	}
	if !s.seeded {
		s.seed = frand.Uint64n(math.MaxUint64)
	}

	table, err := searcher.NewTable(s.memoryMB, searcher.WithTableLogger(s.logger))
	if err != nil {
		return nil, err
	}
	s.table = table
	s.pool = searcher.NewPool(table, s.threads, searcher.WithMetrics(s.metrics), searcher.WithLogger(s.logger))
	s.logger.Info().
		Int("threads", s.threads).
		Int("hash_mb", table.SizeMB()).
		Uint64("seed", s.seed).
		Msg("session ready")
	return s, nil
}

func (s *Session) Pool() *searcher.Pool {
	return s.pool
}

func (s *Session) Seed() uint64 {
	return s.seed
}

func (s *Session) Metrics() metrics.Collector {
	return s.metrics
}

func (s *Session) Logger() zerolog.Logger {
	return s.logger
}

// Close empties the table and logs what the session searched.
func (s *Session) Close() {
	total := s.metrics.Total()
	s.logger.Info().
		Int("searches", total.Searches).
		Uint64("nodes", total.Nodes).
		Dur("search_time", total.Duration).
		Int("cancelled", total.Cancelled).
		Msg("session closed")
	s.pool.Clear(false)
}
