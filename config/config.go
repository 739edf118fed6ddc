package config

import (
	"github.com/namsral/flag"

	"github.com/domino14/blackjack/rules"
)

type Config struct {
	Decks            int
	DealerHitsSoft17 bool
	BlackjackPayout  float64
	InsurancePayout  float64
	DoubleAfterSplit bool
	ResplitLimit     int
	HitSplitAces     bool
	DoublePolicy     int
	Surrender        bool
	CharlieNumber    int

	Threads       int
	Rounds        int
	CutProportion float64
	Debug         bool

	Hand      string
	UpCard    string
	ShowChart bool
	Compare   bool
}

func (c *Config) Load(args []string) error {
	fs := flag.NewFlagSet("blackjack", flag.ContinueOnError)
	fs.IntVar(&c.Decks, "decks", 6, "number of decks in the shoe")
	fs.BoolVar(&c.DealerHitsSoft17, "h17", false, "dealer hits soft 17")
	fs.Float64Var(&c.BlackjackPayout, "blackjack-payout", 1.5, "payout for a player natural")
	fs.Float64Var(&c.InsurancePayout, "insurance-payout", 2.0, "payout for a winning insurance bet")
	fs.BoolVar(&c.DoubleAfterSplit, "das", true, "allow doubling after a split")
	fs.IntVar(&c.ResplitLimit, "resplit-limit", 3, "maximum splits per round; 0 disables splitting")
	fs.BoolVar(&c.HitSplitAces, "hit-split-aces", false, "allow hitting split aces")
	fs.IntVar(&c.DoublePolicy, "double-policy", rules.DoubleAnyTwo, "0 any two cards, 1 totals 9-11, 2 totals 10-11")
	fs.BoolVar(&c.Surrender, "surrender", false, "allow late surrender on the initial hand")
	fs.IntVar(&c.CharlieNumber, "charlie", 0, "cards for an automatic charlie win; 0 disables")
	fs.IntVar(&c.Threads, "threads", 1, "worker threads for the solver")
	fs.IntVar(&c.Rounds, "rounds", 100000, "rounds to simulate")
	fs.Float64Var(&c.CutProportion, "cut-proportion", 0.75, "fraction of the shoe dealt before a reshuffle")
	fs.BoolVar(&c.Debug, "debug", false, "debug logging")
	fs.StringVar(&c.Hand, "hand", "", "player hand as comma-separated ranks, e.g. 8,8 or A,7")
	fs.StringVar(&c.UpCard, "up", "", "dealer up-card rank")
	fs.BoolVar(&c.ShowChart, "chart", false, "print the full strategy chart")
	fs.BoolVar(&c.Compare, "compare", false, "simulate solver play against chart play")
	err := fs.Parse(args)
	return err
}

// Rules converts the flag values into a rule set.
func (c *Config) Rules() rules.Rules {
	return rules.Rules{
		Decks:            c.Decks,
		DealerHitsSoft17: c.DealerHitsSoft17,
		BlackjackPayout:  c.BlackjackPayout,
		InsurancePayout:  c.InsurancePayout,
		DoubleAfterSplit: c.DoubleAfterSplit,
		ResplitLimit:     c.ResplitLimit,
		HitSplitAces:     c.HitSplitAces,
		DoublePolicy:     c.DoublePolicy,
		Surrender:        c.Surrender,
		CharlieNumber:    c.CharlieNumber,
	}
}
