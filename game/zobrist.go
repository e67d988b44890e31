package game

// Zobrist keys come from a fixed splitmix64 stream so that hashes, and with
// them single worker search order, are identical across runs.
var (
	stoneKeys [2][MaxCells]uint64
	sideKey   uint64
	sizeKeys  [MaxBoardSize + 1]uint64
	ruleKeys  [numRules]uint64
)

type splitmix64 struct {
	state uint64
}

func (s *splitmix64) next() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func init() {
	rng := splitmix64{state: 0x5eed0f0be11a}
	for c := range stoneKeys {
		for i := range stoneKeys[c] {
			stoneKeys[c][i] = rng.next()
		}
	}
	sideKey = rng.next()
	for i := range sizeKeys {
		sizeKeys[i] = rng.next()
	}
	for i := range ruleKeys {
		ruleKeys[i] = rng.next()
	}
}

func stoneKey(c Color, idx int) uint64 {
	return stoneKeys[c-Black][idx]
}

// baseHash keys the empty board so that tables shared between board sizes or
// rules never confuse positions.
func baseHash(size int, rule Rule) Hash {
	return Hash(sizeKeys[size] ^ ruleKeys[rule])
}
