package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/blackjack/automatic"
	"github.com/domino14/blackjack/cards"
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

	if cfg.ShowChart {
		chart, err := automatic.ChartFor(r)
		if err != nil {
			log.Fatal().Err(err).Msg("generating chart")
		}
		fmt.Println(chart)
		return
	}

	if cfg.Hand == "" || cfg.UpCard == "" {
		log.Fatal().Msg("need -hand and -up (or -chart)")
	}
	hand, err := cards.ParseHand(cfg.Hand)
	if err != nil {
		log.Fatal().Err(err).Msg("parsing hand")
	}
	up, err := cards.ParseRank(cfg.UpCard)
	if err != nil {
		log.Fatal().Err(err).Msg("parsing up-card")
	}

	shoe := cards.WithDecks(r.Decks)
	for rank := cards.Ace; rank <= cards.Ten; rank++ {
		for i := 0; i < hand.Count(rank); i++ {
			if err := shoe.Remove(rank); err != nil {
				log.Fatal().Err(err).Msg("hand does not fit the shoe")
			}
		}
	}
	if err := shoe.Remove(up); err != nil {
		log.Fatal().Err(err).Msg("up-card does not fit the shoe")
	}

	s, err := solver.New(r)
	if err != nil {
		log.Fatal().Err(err).Msg("creating solver")
	}
	s.SetThreads(cfg.Threads)

	res, err := s.Solve(hand, up, shoe)
	if err != nil {
		log.Fatal().Err(err).Msg("solving")
	}

	fmt.Printf("Hand %v vs dealer %s (%d decks)\n", hand, rankName(up), r.Decks)
	for a := solver.Stand; a <= solver.Surrender; a++ {
		ev, ok := res.EVPerAction[a]
		if !ok {
			continue
		}
		marker := " "
		if a == res.Best {
			marker = "*"
		}
		fmt.Printf("%s %-9s %+.6f\n", marker, a, ev)
	}
	if res.InsuranceOffered {
		fmt.Printf("  insurance %+.6f (side bet, per unit)\n", res.InsuranceEV)
	}
}

func rankName(rank int) string {
	if rank == cards.Ace {
		return "A"
	}
	return fmt.Sprintf("%d", rank)
}
