package searcher

import "sync/atomic"

// Budget is a node allowance shared by every worker of one request.
type Budget struct {
	limit uint64
	used  atomic.Uint64
}

func NewBudget(limit uint64) *Budget {
	return &Budget{limit: limit}
}

// Spend claims one node and reports whether it was still available.
func (b *Budget) Spend() bool {
	return b.used.Add(1) <= b.limit
}

func (b *Budget) Exhausted() bool {
	return b.used.Load() >= b.limit
}

// Used returns the nodes actually granted, never more than the limit.
func (b *Budget) Used() uint64 {
	return min(b.used.Load(), b.limit)
}

func (b *Budget) Limit() uint64 {
	return b.limit
}
