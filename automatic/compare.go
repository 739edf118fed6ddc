package automatic

import (
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"github.com/domino14/blackjack/cache"
	"github.com/domino14/blackjack/rules"
	"github.com/domino14/blackjack/solver"
	"github.com/domino14/blackjack/strategy"
)

// ChartFor returns the strategy chart for a rule set, generating it on first
// use and caching it globally by rule fingerprint.
func ChartFor(r rules.Rules) (*strategy.Chart, error) {
	obj, err := cache.Load(r, "strategy-chart:"+r.Fingerprint(),
		func(r rules.Rules, key string) (interface{}, error) {
			return strategy.Generate(r)
		})
	if err != nil {
		return nil, err
	}
	return obj.(*strategy.Chart), nil
}

// CompareStrategies runs the composition-aware solver player and the static
// chart player for the same number of rounds on independently shuffled shoes,
// concurrently. The gap between the two means is the value of watching the
// shoe.
func CompareStrategies(r rules.Rules, rounds int, cutProportion float64) (
	solverRes, chartRes *Results, err error) {

	chart, err := ChartFor(r)
	if err != nil {
		return nil, nil, err
	}
	s, err := solver.New(r)
	if err != nil {
		return nil, nil, err
	}

	var g errgroup.Group
	g.Go(func() error {
		runner := NewGameRunner(r, NewSolverDecider(s), cutProportion, frand.New())
		var err error
		solverRes, err = runner.Run(rounds)
		return err
	})
	g.Go(func() error {
		runner := NewGameRunner(r, NewChartDecider(chart, r), cutProportion, frand.New())
		var err error
		chartRes, err = runner.Run(rounds)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return solverRes, chartRes, nil
}
