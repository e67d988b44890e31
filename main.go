package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"opengen/game"
	"opengen/meta"
	"opengen/metrics"
	"opengen/opening"
	"opengen/searcher"
	"opengen/utils"
)

var hintModes = []string{opening.HintsIgnore.String(), opening.HintsReuse.String()}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	if err := newCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("opengen failed")
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	cfg := opening.DefaultConfig()
	cmd := &cobra.Command{
		Use:           "opengen",
		Short:         "Generate balanced gomoku openings",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return run(ctx, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.IntP("number", "n", 0, "Number of openings to generate")
	flags.StringP("output", "o", "", "Save openings to a text file (stdout if not set)")
	flags.BoolP("append-to-output", "a", false, "Append to the output file instead of overwriting it")
	flags.IntP("boardsize", "s", meta.BOARD_SIZE, "Board size in [5,22]")
	flags.StringP("rule", "r", meta.RULE, "One of [freestyle, standard, renju]")
	flags.IntP("thread", "t", meta.GO_ROUTINES, "Number of search threads")
	flags.Int("hashsize", meta.HASH_SIZE_MB, "Transposition table size in MB")
	flags.Int("min-move", cfg.MinMoves, "Minimal number of moves per opening")
	flags.Int("max-move", cfg.MaxMoves, "Maximal number of moves per opening")
	flags.Int("min-area-size", cfg.LocalSizeMin, "Minimal side of the local area")
	flags.Int("max-area-size", cfg.LocalSizeMax, "Maximal side of the local area")
	flags.Uint64("balance1-node", cfg.Balance1Nodes, "Maximal nodes for the balance1 search")
	flags.Float64("balance1-fast-check-ratio", cfg.Balance1FastCheckRatio, "Share of balance1 nodes spent on the fast check")
	flags.Int("balance1-fast-check-window", cfg.Balance1FastCheckWindow, "Reject at once if the fast check falls outside this window")
	flags.Uint64("balance2-node", cfg.Balance2Nodes, "Maximal nodes for the balance2 search")
	flags.Int("balance-window", cfg.BalanceWindow, "Eval in [-window, window] is balanced")
	flags.String("balance2-hints", cfg.Balance2Hints.String(), "Whether balance2 may use balance1 table entries: ignore or reuse")
	flags.Uint64("seed", 0, "Sampler seed (random if not set)")
	flags.String("stats", "", "Write a CSV record of every sampled position to this file")
	flags.BoolP("no-search-message", "q", false, "Only log warnings and errors")
	flags.Int("report-interval", meta.REPORT_INTERVAL_MS, "Milliseconds between two progress reports")

	viper.SetEnvPrefix("OPENGEN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}
	return cmd
}

// settings are the command line values once parsed and checked.
type settings struct {
	number         int
	boardSize      int
	rule           game.Rule
	threads        int
	hashMB         int
	seed           uint64
	seeded         bool
	reportInterval time.Duration
	cfg            opening.Config
}

func loadSettings() (settings, error) {
	s := settings{
		number:         viper.GetInt("number"),
		boardSize:      viper.GetInt("boardsize"),
		threads:        max(viper.GetInt("thread"), 1),
		hashMB:         viper.GetInt("hashsize"),
		seed:           viper.GetUint64("seed"),
		seeded:         viper.IsSet("seed"),
		reportInterval: time.Duration(viper.GetInt("report-interval")) * time.Millisecond,
	}
	if s.number < 1 {
		return s, fmt.Errorf("%w: there must be at least one opening to generate", opening.ErrInvalidConfig)
	}
	rule, err := game.ParseRule(viper.GetString("rule"))
	if err != nil {
		return s, fmt.Errorf("%w: %w", opening.ErrInvalidConfig, err)
	}
	s.rule = rule

	hints := utils.FindIndex(hintModes, strings.ToLower(viper.GetString("balance2-hints")))
	if hints < 0 {
		return s, fmt.Errorf("%w: balance2 hints must be one of %v", opening.ErrInvalidConfig, hintModes)
	}

	s.cfg = opening.DefaultConfig()
	s.cfg.MinMoves = viper.GetInt("min-move")
	s.cfg.MaxMoves = viper.GetInt("max-move")
	s.cfg.LocalSizeMin = viper.GetInt("min-area-size")
	s.cfg.LocalSizeMax = viper.GetInt("max-area-size")
	s.cfg.Balance1Nodes = viper.GetUint64("balance1-node")
	s.cfg.Balance1FastCheckRatio = viper.GetFloat64("balance1-fast-check-ratio")
	s.cfg.Balance1FastCheckWindow = viper.GetInt("balance1-fast-check-window")
	s.cfg.Balance2Nodes = viper.GetUint64("balance2-node")
	s.cfg.BalanceWindow = viper.GetInt("balance-window")
	s.cfg.Balance2Hints = opening.Hints(hints)
	if err := s.cfg.Validate(s.boardSize); err != nil {
		return s, err
	}
	return s, nil
}

func openOutput(stdout io.Writer) (io.Writer, func() error, error) {
	path := viper.GetString("output")
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	mode := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if viper.GetBool("append-to-output") {
		mode = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(path, mode, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: unable to open file %s: %w", opening.ErrInvalidConfig, path, err)
	}
	return f, f.Close, nil
}

// closeInto runs close and reports its failure through err unless err
// already holds an earlier one.
func closeInto(err *error, what string, close func() error) {
	if cerr := close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("failed to close %s: %w", what, cerr)
	}
}

func run(ctx context.Context, stdout io.Writer) (err error) {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	if viper.GetBool("no-search-message") {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	out, closeOut, err := openOutput(stdout)
	if err != nil {
		return err
	}
	defer closeInto(&err, "output", closeOut)

	var stats *metrics.Writer
	if path := viper.GetString("stats"); path != "" {
		if stats, err = metrics.NewWriter(path); err != nil {
			return err
		}
		defer closeInto(&err, "stats file", stats.Close)
	}

	options := []opening.SessionOption{
		opening.WithThreads(s.threads),
		opening.WithMemoryMB(s.hashMB),
		opening.WithMetrics(),
	}
	if s.seeded {
		options = append(options, opening.WithSeed(s.seed))
	}
	session, err := opening.NewSession(options...)
	if err != nil {
		return err
	}
	defer session.Close()

	gen, err := opening.NewGenerator(session, s.boardSize, s.rule, s.cfg)
	if err != nil {
		return err
	}

	startTime := time.Now()
	lastReport := startTime
	samples := 0
	for i := 0; i < s.number; {
		sampleStart := time.Now()
		accepted, err := gen.Next(ctx)
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return fmt.Errorf("interrupted after %d of %d openings: %w", i, s.number, ctx.Err())
		}
		samples++
		if stats != nil {
			if err := stats.WriteOpeningRecord(record(samples, gen, time.Since(sampleStart))); err != nil {
				return err
			}
		}
		if !accepted {
			continue
		}

		i++
		if _, err := fmt.Fprintln(out, gen.PositionString()); err != nil {
			return fmt.Errorf("failed to write opening: %w", err)
		}

		if time.Since(lastReport) >= s.reportInterval {
			perMinute := float64(i) / time.Since(startTime).Minutes()
			log.Info().Msgf("Generated %d of %d openings, opening/min = %.1f", i, s.number, perMinute)
			lastReport = time.Now()
		}
	}
	log.Info().Msgf("Completed generating %d openings from %d samples.", s.number, samples)
	return nil
}

func record(sample int, gen *opening.Generator, elapsed time.Duration) metrics.OpeningRecord {
	v := gen.LastVerdict()
	r := metrics.OpeningRecord{
		Sample:   sample,
		Position: gen.PositionString(),
		Stones:   gen.Position().StoneCount(),
		Verdict:  v.State.String(),
		Bound:    searcher.BoundUnknown.String(),
		Nodes:    v.Nodes,
		Duration: elapsed,
	}
	// The latest phase that ran decides the score
	for _, res := range []*searcher.Result{v.FastCheck, v.Balance1, v.Balance2} {
		if res != nil {
			r.Score = res.Score
			r.Bound = res.Bound.String()
		}
	}
	if v.Bypassed {
		r.Bound = ""
	}
	return r
}
