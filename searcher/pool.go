package searcher

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"opengen/game"
	"opengen/metrics"
)

type Option func(p *Pool)

func WithEvaluationFn(evaluate game.Evaluate) Option {
	return func(p *Pool) {
		if evaluate != nil {
			p.evaluate = evaluate
		}
	}
}

func WithMetrics(collector metrics.Collector) Option {
	return func(p *Pool) {
		if collector != nil {
			p.metrics = collector
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(p *Pool) {
		p.logger = logger
	}
}

// Pool runs each request on every worker at once against one shared table.
// Requests, memory changes and clears are serialized.
type Pool struct {
	mu       sync.Mutex
	table    *Table
	workers  []*worker
	evaluate game.Evaluate
	metrics  metrics.Collector
	logger   zerolog.Logger
}

func NewPool(table *Table, threads int, options ...Option) *Pool {
	p := &Pool{ // Default values
		table:    table,
		evaluate: game.EvaluatePatterns,
		metrics:  metrics.NewDummyCollector(),
		logger:   log.Logger,
	}
	for _, option := range options {
		option(p)
	}
	p.configure(threads)
	return p
}

// Configure replaces the worker set. Threads below one are raised to one.
func (p *Pool) Configure(threads int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.configure(threads)
}

func (p *Pool) configure(threads int) {
	threads = max(threads, 1)
	p.workers = make([]*worker, threads)
	for i := range p.workers {
		p.workers[i] = newWorker(i, p.table, p.evaluate)
	}
}

func (p *Pool) Threads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

func (p *Pool) Table() *Table {
	return p.table
}

func (p *Pool) Metrics() metrics.Collector {
	return p.metrics
}

// SetMemoryLimit resizes the table while no search is running.
func (p *Pool) SetMemoryLimit(sizeMB int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.table.Resize(sizeMB)
}

// Clear resets per-worker state and, unless keepTable is set, empties the
// table.
func (p *Pool) Clear(keepTable bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !keepTable {
		p.table.Clear()
	}
	for _, w := range p.workers {
		w.history = [2][game.MaxCells]int32{}
	}
}

// RunSearch blocks until the request's budget is spent, a result is proven
// or ctx is done. A request whose ctx ends first reports BoundUnknown.
func (p *Pool) RunSearch(ctx context.Context, request Request) Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := request.Position.Board(); err != nil {
		p.logger.Error().Err(err).Msgf("rejecting search request %v", request)
		return Result{Bound: BoundUnknown}
	}

	budget := NewBudget(request.Nodes)
	p.table.NewSearch()
	p.metrics.Start(len(p.workers))

	results := make([]Result, len(p.workers))
	completed := make([]bool, len(p.workers))

	// Helpers stop as soon as the main worker is done with the request
	helperCtx, cancelHelpers := context.WithCancel(ctx)
	defer cancelHelpers()

	var g errgroup.Group
	for i, w := range p.workers {
		g.Go(func() error {
			workerCtx := helperCtx
			startDepth := 1 + i%2
			if i == 0 {
				workerCtx = ctx
				startDepth = 0
				defer cancelHelpers()
			}
			results[i], completed[i] = w.run(workerCtx, task{
				request:    request,
				budget:     budget,
				startDepth: startDepth,
			})
			p.metrics.AddTableHits(w.tableHits)
			return nil
		})
	}
	_ = g.Wait()

	res := Result{Bound: BoundUnknown}
	best := -1
	for i := range results {
		if completed[i] && (best < 0 || results[i].Depth > results[best].Depth) {
			best = i
		}
	}
	if best >= 0 {
		res = results[best]
	}
	if ctx.Err() != nil {
		res = Result{Bound: BoundUnknown}
	}
	res.Nodes = budget.Used()

	p.metrics.SetDepth(res.Depth)
	p.metrics.SetCancelled(ctx.Err() != nil)
	metric := p.metrics.Complete(res.Nodes)
	p.logger.Debug().
		Int("workers", len(p.workers)).
		Int("depth", res.Depth).
		Int("score", res.Score).
		Stringer("bound", res.Bound).
		Uint64("nodes", res.Nodes).
		Bool("budget_exhausted", budget.Exhausted()).
		Dur("elapsed", metric.Duration).
		Int("hashfull", p.table.Hashfull()).
		Msg("search done")
	return res
}
