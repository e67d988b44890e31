package metrics

import (
	"sync/atomic"
	"time"
)

type SearchMetric struct {
	Workers   int
	Duration  time.Duration
	Nodes     uint64
	Depth     int
	TableHits uint64
	Cancelled bool
}

type Collector interface {
	Start(workers int)
	AddTableHits(n uint64)
	SetDepth(depth int)
	SetCancelled(value bool)
	Complete(nodes uint64) SearchMetric
	Total() Totals
}

// Totals accumulates every completed search of a collector.
type Totals struct {
	Searches  int
	Nodes     uint64
	Duration  time.Duration
	TableHits uint64
	Cancelled int
}

type collector struct {
	workers   int
	startTime time.Time
	tableHits atomic.Uint64
	depth     atomic.Int32
	cancelled atomic.Bool
	totals    Totals
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start(workers int) {
	m.startTime = time.Now()
	m.workers = workers
	m.tableHits.Store(0)
	m.depth.Store(0)
	m.cancelled.Store(false)
}

func (m *collector) AddTableHits(n uint64) {
	m.tableHits.Add(n)
}

func (m *collector) SetDepth(depth int) {
	m.depth.Store(int32(depth))
}

func (m *collector) SetCancelled(value bool) {
	m.cancelled.Store(value)
}

func (m *collector) Complete(nodes uint64) SearchMetric {
	metric := SearchMetric{
		Workers:   m.workers,
		Duration:  time.Since(m.startTime),
		Nodes:     nodes,
		Depth:     int(m.depth.Load()),
		TableHits: m.tableHits.Load(),
		Cancelled: m.cancelled.Load(),
	}
	m.totals.Searches++
	m.totals.Nodes += metric.Nodes
	m.totals.Duration += metric.Duration
	m.totals.TableHits += metric.TableHits
	if metric.Cancelled {
		m.totals.Cancelled++
	}
	return metric
}

func (m *collector) Total() Totals {
	return m.totals
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(workers int)                  {}
func (m *dummyCollector) AddTableHits(n uint64)              {}
func (m *dummyCollector) SetDepth(depth int)                 {}
func (m *dummyCollector) SetCancelled(value bool)            {}
func (m *dummyCollector) Complete(nodes uint64) SearchMetric { return SearchMetric{} }
func (m *dummyCollector) Total() Totals                      { return Totals{} }
