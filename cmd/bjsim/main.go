package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/domino14/blackjack/automatic"
	"github.com/domino14/blackjack/config"
	"github.com/domino14/blackjack/solver"
)

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	r := cfg.Rules()
	if err := r.Validate(); err != nil {
		log.Fatal().Err(err).Msg("bad rules")
	}

	if cfg.Compare {
		solverRes, chartRes, err := automatic.CompareStrategies(r, cfg.Rounds, cfg.CutProportion)
		if err != nil {
			log.Fatal().Err(err).Msg("comparing strategies")
		}
		printResults("solver (composition-aware)", solverRes)
		printResults("chart (static)", chartRes)
		return
	}

	s, err := solver.New(r)
	if err != nil {
		log.Fatal().Err(err).Msg("creating solver")
	}
	s.SetThreads(cfg.Threads)
	runner := automatic.NewGameRunner(r, automatic.NewSolverDecider(s), cfg.CutProportion, frand.New())
	res, err := runner.Run(cfg.Rounds)
	if err != nil {
		log.Fatal().Err(err).Msg("simulating")
	}
	printResults("solver (composition-aware)", res)
	fmt.Println()
	if err := res.Histogram(os.Stdout, 9); err != nil {
		log.Error().Err(err).Msg("printing histogram")
	}
}

func printResults(name string, res *automatic.Results) {
	fmt.Printf("%s: %d rounds, total %+.1f units\n", name, res.Rounds(), res.Total())
	fmt.Printf("  mean %+.5f  stdev %.4f  stderr %.5f\n", res.Mean(), res.StdDev(), res.StdErr())
}
