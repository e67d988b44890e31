package searcher

import (
	"errors"
	"fmt"
	"math/bits"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"opengen/game"
)

const (
	MinTableMB = 1
	MaxTableMB = 1 << 16 // 64 GiB

	clusterSize = 4
	slotBytes   = 16
	maxGen      = 63
)

var ErrResourceExhausted = errors.New("transposition table cannot honor memory limit")

// Entry is the cached outcome of searching one position.
type Entry struct {
	Key   uint64
	Score int
	Bound Bound
	Depth int
	Move  game.Move
}

// slot stores an entry as two words: data and key^data. A reader that sees a
// half-written slot fails the key check and treats it as a miss, so no lock
// is needed and a torn entry is never returned.
type slot struct {
	check atomic.Uint64
	data  atomic.Uint64
}

// Table is a fixed-size, clustered transposition table safe for concurrent
// probes and stores. Resize and Clear must not run concurrently with
// searches; the pool serializes them.
type Table struct {
	slots      []slot
	mask       uint64
	sizeMB     int
	generation atomic.Uint32
	logger     zerolog.Logger
}

type TableOption func(t *Table)

func WithTableLogger(logger zerolog.Logger) TableOption {
	return func(t *Table) {
		t.logger = logger
	}
}

// NewTable allocates a table of about sizeMB megabytes. Sizes below
// MinTableMB are clamped; sizes above MaxTableMB fail.
func NewTable(sizeMB int, options ...TableOption) (*Table, error) {
	t := &Table{logger: log.Logger}
	for _, option := range options {
		option(t)
	}
	if err := t.Resize(sizeMB); err != nil {
		return nil, err
	}
	return t, nil
}

// Resize reallocates the table, dropping every entry.
func (t *Table) Resize(sizeMB int) error {
	if sizeMB > MaxTableMB {
		return fmt.Errorf("%w: %d MB requested, at most %d MB", ErrResourceExhausted, sizeMB, MaxTableMB)
	}
	if sizeMB < MinTableMB {
		t.logger.Warn().Msgf("hash size %d MB below minimum, clamping to %d MB", sizeMB, MinTableMB)
		sizeMB = MinTableMB
	}
	clusters := uint64(sizeMB) << 20 / (clusterSize * slotBytes)
	clusters = 1 << (bits.Len64(clusters) - 1) // Round down to a power of two
	t.slots = make([]slot, clusters*clusterSize)
	t.mask = clusters - 1
	t.sizeMB = sizeMB
	t.generation.Store(0)
	return nil
}

func (t *Table) SizeMB() int {
	return t.sizeMB
}

// Capacity is the number of entries the table can hold.
func (t *Table) Capacity() int {
	return len(t.slots)
}

func (t *Table) Clear() {
	for i := range t.slots {
		t.slots[i].data.Store(0)
		t.slots[i].check.Store(0)
	}
	t.generation.Store(0)
}

// NewSearch ages existing entries so the replacement policy prefers
// overwriting them.
func (t *Table) NewSearch() {
	t.generation.Store((t.generation.Load() + 1) & maxGen)
}

func (t *Table) cluster(key uint64) []slot {
	base := (key & t.mask) * clusterSize
	return t.slots[base : base+clusterSize]
}

func (t *Table) Probe(key uint64) (Entry, bool) {
	cluster := t.cluster(key)
	for i := range cluster {
		s := &cluster[i]
		data := s.data.Load()
		if data == 0 || s.check.Load()^data != key {
			continue
		}
		e := unpack(data)
		e.Key = key
		return e, true
	}
	return Entry{}, false
}

// Store writes e under key. An existing entry for the key is replaced unless
// it is notably deeper and from the current search; otherwise the shallowest,
// oldest slot of the cluster is the victim.
func (t *Table) Store(key uint64, e Entry) {
	gen := uint64(t.generation.Load())
	cluster := t.cluster(key)

	victim := -1
	victimScore := 0
	for i := range cluster {
		s := &cluster[i]
		data := s.data.Load()
		if data == 0 {
			if victim < 0 || victimScore > -1000 {
				victim, victimScore = i, -1000
			}
			continue
		}
		if s.check.Load()^data == key {
			old := unpack(data)
			if e.Bound != BoundExact && e.Depth < old.Depth-2 && generationOf(data) == gen {
				return
			}
			if e.Move == game.NoMove {
				e.Move = old.Move
			}
			victim = i
			break
		}
		age := int((gen - generationOf(data)) & maxGen)
		score := unpack(data).Depth - 8*age
		if victim < 0 || score < victimScore {
			victim, victimScore = i, score
		}
	}

	data := pack(e, gen)
	cluster[victim].data.Store(data)
	cluster[victim].check.Store(key ^ data)
}

// Hashfull estimates the share of used slots in permille.
func (t *Table) Hashfull() int {
	n := min(1000, len(t.slots))
	used := 0
	for i := 0; i < n; i++ {
		if t.slots[i].data.Load() != 0 {
			used++
		}
	}
	return used * 1000 / n
}

// Data word layout:
//
//	bits  0-15 score (int16)
//	bits 16-23 depth
//	bits 24-25 bound (never zero for a stored entry)
//	bits 26-31 generation
//	bits 32-47 move index + 1 (0 = no move)
func pack(e Entry, gen uint64) uint64 {
	move := uint64(0)
	if e.Move != game.NoMove {
		move = uint64(e.Move.Index() + 1)
	}
	depth := uint64(max(0, min(e.Depth, 255)))
	return uint64(uint16(int16(e.Score))) |
		depth<<16 |
		uint64(e.Bound&3)<<24 |
		(gen&maxGen)<<26 |
		move<<32
}

func unpack(data uint64) Entry {
	e := Entry{
		Score: int(int16(uint16(data))),
		Depth: int((data >> 16) & 0xff),
		Bound: Bound((data >> 24) & 3),
		Move:  game.NoMove,
	}
	if idx := int((data >> 32) & 0xffff); idx != 0 {
		e.Move = game.MoveFromIndex(idx - 1)
	}
	return e
}

func generationOf(data uint64) uint64 {
	return (data >> 26) & maxGen
}
