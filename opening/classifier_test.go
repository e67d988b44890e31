package opening

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"opengen/game"
	"opengen/searcher"
)

// scriptedSearcher answers requests with canned results in order and records
// every request and the nodes it was granted.
type scriptedSearcher struct {
	results  []searcher.Result
	requests []searcher.Request
}

func (s *scriptedSearcher) RunSearch(ctx context.Context, request searcher.Request) searcher.Result {
	s.requests = append(s.requests, request)
	res := searcher.Result{Bound: searcher.BoundUnknown}
	if len(s.results) > 0 {
		res, s.results = s.results[0], s.results[1:]
	}
	res.Nodes = request.Nodes
	return res
}

func (s *scriptedSearcher) nodes() uint64 {
	total := uint64(0)
	for _, r := range s.requests {
		total += r.Nodes
	}
	return total
}

func exact(score int) searcher.Result {
	return searcher.Result{Score: score, Bound: searcher.BoundExact}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Balance1Nodes = 10000
	cfg.Balance1FastCheckRatio = 0.1
	cfg.Balance1FastCheckWindow = 200
	cfg.Balance2Nodes = 0
	cfg.BalanceWindow = 60
	return cfg
}

var testPosition = game.Position{Size: 15, Rule: game.Freestyle, Moves: []game.Move{{X: 7, Y: 7}}}

func TestClassifierBypass(t *testing.T) {
	for name, cfg := range map[string]Config{
		"zero window": func() Config {
			cfg := testConfig()
			cfg.BalanceWindow = 0
			return cfg
		}(),
		"negative window": func() Config {
			cfg := testConfig()
			cfg.BalanceWindow = -5
			return cfg
		}(),
		"no budgets": func() Config {
			cfg := testConfig()
			cfg.BalanceWindow = 50
			cfg.Balance1Nodes = 0
			cfg.Balance2Nodes = 0
			return cfg
		}(),
	} {
		t.Run(name, func(t *testing.T) {
			s := &scriptedSearcher{}
			v := NewClassifier(s, cfg).Classify(context.Background(), testPosition)

			require.Equal(t, StateAccepted, v.State)
			require.True(t, v.Bypassed)
			require.Empty(t, s.requests, "Bypass should not search")
		})
	}
}

func TestClassifierFastCheck(t *testing.T) {
	t.Run("estimate outside the fast window rejects cheaply", func(t *testing.T) {
		for _, res := range []searcher.Result{
			{Score: 201, Bound: searcher.BoundLower},
			{Score: -201, Bound: searcher.BoundUpper},
			exact(-1000),
		} {
			s := &scriptedSearcher{results: []searcher.Result{res}}
			cfg := testConfig()
			v := NewClassifier(s, cfg).Classify(context.Background(), testPosition)

			require.Equal(t, StateRejected, v.State)
			require.Len(t, s.requests, 1, "Balance1 should never run")
			require.LessOrEqual(t, s.nodes(), cfg.FastCheckNodes(), "Only the fast check budget may be spent")
			require.Equal(t, uint64(1000), v.Nodes)
		}
	})

	t.Run("fast check uses its own window", func(t *testing.T) {
		s := &scriptedSearcher{results: []searcher.Result{exact(150), exact(10)}}
		v := NewClassifier(s, testConfig()).Classify(context.Background(), testPosition)

		require.Equal(t, StateAccepted, v.State, "150 is inside the fast window, 10 inside the balance window")
		require.Equal(t, &searcher.Window{Lo: -200, Hi: 200}, s.requests[0].Window)
		require.Equal(t, &searcher.Window{Lo: -60, Hi: 60}, s.requests[1].Window)
	})

	t.Run("balance1 spends what the fast check left", func(t *testing.T) {
		s := &scriptedSearcher{results: []searcher.Result{exact(0), exact(0)}}
		v := NewClassifier(s, testConfig()).Classify(context.Background(), testPosition)

		require.Equal(t, StateAccepted, v.State)
		require.Equal(t, uint64(1000), s.requests[0].Nodes)
		require.Equal(t, uint64(9000), s.requests[1].Nodes)
		require.Equal(t, uint64(10000), v.Nodes)
	})

	t.Run("explicit fast check nodes override the ratio", func(t *testing.T) {
		cfg := testConfig()
		cfg.Balance1FastCheckNodes = 2500
		s := &scriptedSearcher{results: []searcher.Result{exact(0), exact(0)}}
		NewClassifier(s, cfg).Classify(context.Background(), testPosition)

		require.Equal(t, uint64(2500), s.requests[0].Nodes)
		require.Equal(t, uint64(7500), s.requests[1].Nodes)
	})

	t.Run("no fast check budget skips the fast check", func(t *testing.T) {
		cfg := testConfig()
		cfg.Balance1FastCheckRatio = 0
		s := &scriptedSearcher{results: []searcher.Result{exact(0)}}
		v := NewClassifier(s, cfg).Classify(context.Background(), testPosition)

		require.Equal(t, StateAccepted, v.State)
		require.Len(t, s.requests, 1)
		require.Equal(t, uint64(10000), s.requests[0].Nodes)
		require.Nil(t, v.FastCheck)
	})

	t.Run("fast check spending the whole budget decides balance1", func(t *testing.T) {
		cfg := testConfig()
		cfg.Balance1FastCheckRatio = 1

		s := &scriptedSearcher{results: []searcher.Result{exact(30)}}
		v := NewClassifier(s, cfg).Classify(context.Background(), testPosition)
		require.Equal(t, StateAccepted, v.State)
		require.Len(t, s.requests, 1)

		s = &scriptedSearcher{results: []searcher.Result{exact(100)}}
		v = NewClassifier(s, cfg).Classify(context.Background(), testPosition)
		require.Equal(t, StateRejected, v.State, "100 passes the fast window but not the balance window")
	})
}

func TestClassifierTwoPhases(t *testing.T) {
	cfg := testConfig()
	cfg.Balance2Nodes = 5000

	t.Run("balance2 agreement accepts", func(t *testing.T) {
		s := &scriptedSearcher{results: []searcher.Result{exact(10), exact(20), exact(-30)}}
		v := NewClassifier(s, cfg).Classify(context.Background(), testPosition)

		require.Equal(t, StateAccepted, v.State)
		require.Len(t, s.requests, 3)
		require.Equal(t, uint64(5000), s.requests[2].Nodes)
		require.Equal(t, -30, v.Balance2.Score)
	})

	t.Run("balance2 disagreement rejects", func(t *testing.T) {
		s := &scriptedSearcher{results: []searcher.Result{
			exact(10),
			exact(20),
			{Score: 61, Bound: searcher.BoundLower},
		}}
		v := NewClassifier(s, cfg).Classify(context.Background(), testPosition)

		require.Equal(t, StateRejected, v.State, "Provisional accept followed by disagreement should reject")
		require.NotNil(t, v.Balance1)
		require.NotNil(t, v.Balance2)
	})

	t.Run("balance1 outside the window never runs balance2", func(t *testing.T) {
		s := &scriptedSearcher{results: []searcher.Result{exact(10), exact(90)}}
		v := NewClassifier(s, cfg).Classify(context.Background(), testPosition)

		require.Equal(t, StateRejected, v.State)
		require.Len(t, s.requests, 2)
	})

	t.Run("hints mode picks the salt", func(t *testing.T) {
		s := &scriptedSearcher{results: []searcher.Result{exact(0), exact(0), exact(0)}}
		NewClassifier(s, cfg).Classify(context.Background(), testPosition)
		require.Equal(t, uint64(0), s.requests[1].Salt, "Balance1 shares the fast check's entries")
		require.Equal(t, uint64(balance2Salt), s.requests[2].Salt, "Ignoring hints should use a distinct salt")

		reuse := cfg
		reuse.Balance2Hints = HintsReuse
		s = &scriptedSearcher{results: []searcher.Result{exact(0), exact(0), exact(0)}}
		NewClassifier(s, reuse).Classify(context.Background(), testPosition)
		require.Equal(t, uint64(0), s.requests[2].Salt, "Reusing hints should share the table keys")
	})

	t.Run("balance2 alone", func(t *testing.T) {
		only2 := cfg
		only2.Balance1Nodes = 0
		s := &scriptedSearcher{results: []searcher.Result{exact(0)}}
		v := NewClassifier(s, only2).Classify(context.Background(), testPosition)

		require.Equal(t, StateAccepted, v.State)
		require.Len(t, s.requests, 1)
		require.Equal(t, uint64(5000), s.requests[0].Nodes)
	})
}

func TestClassifierUnknownRejects(t *testing.T) {
	cfg := testConfig()
	cfg.Balance2Nodes = 5000
	unknown := searcher.Result{Bound: searcher.BoundUnknown}

	for phase, results := range map[string][]searcher.Result{
		"fast check": {unknown},
		"balance1":   {exact(0), unknown},
		"balance2":   {exact(0), exact(0), unknown},
	} {
		t.Run(phase, func(t *testing.T) {
			s := &scriptedSearcher{results: results}
			v := NewClassifier(s, cfg).Classify(context.Background(), testPosition)
			require.Equal(t, StateRejected, v.State, "Unknown results must never accept")
		})
	}
}

func TestClassifierSteps(t *testing.T) {
	cfg := testConfig()
	cfg.Balance2Nodes = 5000
	s := &scriptedSearcher{results: []searcher.Result{exact(0), exact(0), exact(0)}}
	c := NewClassifier(s, cfg)
	ctx := context.Background()

	v := Verdict{State: StateSampled}
	v.State = c.Step(ctx, testPosition, &v)
	require.Equal(t, StateFastChecked, v.State)
	v.State = c.Step(ctx, testPosition, &v)
	require.Equal(t, StateProvisional, v.State)
	v.State = c.Step(ctx, testPosition, &v)
	require.Equal(t, StateAccepted, v.State)
	require.Equal(t, StateAccepted, c.Step(ctx, testPosition, &v), "Terminal states do not move")
	require.Len(t, s.requests, 3)
}

func TestBalance2SaltOnSharedTable(t *testing.T) {
	// Depth 1 probes the table once, at the root
	search := func(pool *searcher.Pool, salt uint64) uint64 {
		before := pool.Metrics().Total().TableHits
		pool.RunSearch(context.Background(), searcher.Request{
			Position: testPosition,
			Nodes:    5000,
			Salt:     salt,
			MaxDepth: 1,
		})
		return pool.Metrics().Total().TableHits - before
	}

	t.Run("shared keys reuse balance1 entries", func(t *testing.T) {
		pool := newTestSession(t, WithMetrics()).Pool()
		require.Zero(t, search(pool, 0), "An empty table has nothing to hit")
		require.NotZero(t, search(pool, 0), "The second search should find the first one's root")
	})

	t.Run("balance2 salt starts from an empty view", func(t *testing.T) {
		pool := newTestSession(t, WithMetrics()).Pool()
		require.Zero(t, search(pool, 0))
		require.Zero(t, search(pool, balance2Salt), "Salted keys should never see unsalted entries")
		require.NotZero(t, search(pool, balance2Salt), "Salted entries are found under the same salt")
	})
}
