package searcher

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"opengen/game"
)

func newTestTable(t *testing.T) *Table {
	t.Helper()
	table, err := NewTable(1)
	require.NoError(t, err)
	return table
}

// sameCluster returns n keys that map to the cluster of base.
func sameCluster(table *Table, base uint64, n int) []uint64 {
	keys := make([]uint64, n)
	for i := range keys {
		keys[i] = base + uint64(i)*(table.mask+1)
	}
	return keys
}

func TestTableRoundTrip(t *testing.T) {
	table := newTestTable(t)
	want := Entry{Score: -123, Bound: BoundLower, Depth: 7, Move: game.Move{X: 3, Y: 4}}
	key := uint64(0xdeadbeefcafe)

	table.Store(key, want)
	got, ok := table.Probe(key)

	require.True(t, ok, "Stored entry should be found")
	want.Key = key
	require.Equal(t, want, got, "Entry should come back unchanged")

	t.Run("mate scores and missing moves survive packing", func(t *testing.T) {
		e := Entry{Score: MatedIn(3), Bound: BoundExact, Depth: 0, Move: game.NoMove}
		table.Store(key+1, e)
		got, ok := table.Probe(key + 1)
		require.True(t, ok)
		require.Equal(t, MatedIn(3), got.Score)
		require.Equal(t, game.NoMove, got.Move)
	})

	t.Run("other keys of the cluster miss", func(t *testing.T) {
		keys := sameCluster(table, key, 2)
		_, ok := table.Probe(keys[1])
		require.False(t, ok, "A key sharing the cluster should not match")
	})
}

func TestTableTornRead(t *testing.T) {
	table := newTestTable(t)
	key := uint64(42)
	table.Store(key, Entry{Score: 10, Bound: BoundExact, Depth: 3, Move: game.NoMove})

	// Simulate a writer that replaced the data word but not yet the check word
	s := &table.cluster(key)[0]
	s.data.Store(pack(Entry{Score: 99, Bound: BoundExact, Depth: 9, Move: game.NoMove}, 0))

	_, ok := table.Probe(key)
	require.False(t, ok, "A half-written slot should read as a miss")
}

func TestTableReplacement(t *testing.T) {
	t.Run("deeper search replaces the entry", func(t *testing.T) {
		table := newTestTable(t)
		table.Store(1, Entry{Score: 5, Bound: BoundExact, Depth: 5, Move: game.NoMove})
		table.Store(1, Entry{Score: 8, Bound: BoundLower, Depth: 8, Move: game.NoMove})

		got, ok := table.Probe(1)
		require.True(t, ok)
		require.Equal(t, 8, got.Depth)
		require.Equal(t, BoundLower, got.Bound)
	})

	t.Run("much shallower bound keeps a deep entry of the current search", func(t *testing.T) {
		table := newTestTable(t)
		table.Store(1, Entry{Score: 5, Bound: BoundExact, Depth: 10, Move: game.NoMove})
		table.Store(1, Entry{Score: 9, Bound: BoundUpper, Depth: 3, Move: game.NoMove})

		got, _ := table.Probe(1)
		require.Equal(t, 10, got.Depth, "Deep entry should be preserved")

		table.NewSearch()
		table.Store(1, Entry{Score: 9, Bound: BoundUpper, Depth: 3, Move: game.NoMove})
		got, _ = table.Probe(1)
		require.Equal(t, 3, got.Depth, "Entries of an older search should be replaced")
	})

	t.Run("best move is kept when the new entry has none", func(t *testing.T) {
		table := newTestTable(t)
		move := game.Move{X: 7, Y: 7}
		table.Store(1, Entry{Score: 5, Bound: BoundExact, Depth: 2, Move: move})
		table.Store(1, Entry{Score: 6, Bound: BoundUpper, Depth: 4, Move: game.NoMove})

		got, _ := table.Probe(1)
		require.Equal(t, move, got.Move)
		require.Equal(t, 6, got.Score)
	})

	t.Run("shallowest entry of a full cluster is evicted", func(t *testing.T) {
		table := newTestTable(t)
		keys := sameCluster(table, 7, clusterSize+1)
		depths := []int{10, 2, 8, 6}
		for i, depth := range depths {
			table.Store(keys[i], Entry{Score: i, Bound: BoundExact, Depth: depth, Move: game.NoMove})
		}

		table.Store(keys[clusterSize], Entry{Score: 99, Bound: BoundExact, Depth: 1, Move: game.NoMove})

		_, ok := table.Probe(keys[1])
		require.False(t, ok, "Depth 2 entry should be the victim")
		for _, i := range []int{0, 2, 3, clusterSize} {
			_, ok := table.Probe(keys[i])
			require.True(t, ok, "Entry %d should survive", i)
		}
	})

	t.Run("stale entries are evicted before deeper current ones", func(t *testing.T) {
		table := newTestTable(t)
		keys := sameCluster(table, 7, clusterSize+1)
		table.Store(keys[0], Entry{Score: 0, Bound: BoundExact, Depth: 12, Move: game.NoMove})
		table.NewSearch()
		table.NewSearch()
		for i := 1; i < clusterSize; i++ {
			table.Store(keys[i], Entry{Score: i, Bound: BoundExact, Depth: 4, Move: game.NoMove})
		}

		table.Store(keys[clusterSize], Entry{Score: 99, Bound: BoundExact, Depth: 1, Move: game.NoMove})

		_, ok := table.Probe(keys[0])
		require.False(t, ok, "Two searches old entry should be the victim")
	})
}

func TestTableSize(t *testing.T) {
	t.Run("too large fails", func(t *testing.T) {
		_, err := NewTable(MaxTableMB + 1)
		require.ErrorIs(t, err, ErrResourceExhausted)
	})

	t.Run("too small clamps", func(t *testing.T) {
		table, err := NewTable(0)
		require.NoError(t, err)
		require.Equal(t, MinTableMB, table.SizeMB())
		require.Equal(t, (1<<20)/slotBytes, table.Capacity())
	})

	t.Run("resize and clear drop entries", func(t *testing.T) {
		table := newTestTable(t)
		table.Store(1, Entry{Score: 1, Bound: BoundExact, Depth: 1, Move: game.NoMove})
		table.Clear()
		_, ok := table.Probe(1)
		require.False(t, ok)
		require.Equal(t, 0, table.Hashfull())

		table.Store(1, Entry{Score: 1, Bound: BoundExact, Depth: 1, Move: game.NoMove})
		require.NoError(t, table.Resize(2))
		_, ok = table.Probe(1)
		require.False(t, ok)
		require.Equal(t, 2, table.SizeMB())
	})
}

func TestTableConcurrentAccess(t *testing.T) {
	table := newTestTable(t)
	entryFor := func(key uint64) Entry {
		return Entry{Score: int(key % 1000), Bound: BoundExact, Depth: int(key % 50), Move: game.MoveFromIndex(int(key % 400))}
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20000; i++ {
				key := uint64((i*7919+g)%512) * (table.mask + 1) / 64
				if i%2 == 0 {
					table.Store(key, entryFor(key))
					continue
				}
				if got, ok := table.Probe(key); ok {
					want := entryFor(key)
					want.Key = key
					require.Equal(t, want, got, "Probe should never return a mixed entry")
				}
			}
		}()
	}
	wg.Wait()
}
