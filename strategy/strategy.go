// Package strategy derives whole-shoe strategy charts from the solver. The
// charts are computed, never hand-tuned: every cell is the solver's best
// action for a fresh shoe with only the hand and up-card removed.
package strategy

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/domino14/blackjack/cards"
	"github.com/domino14/blackjack/rules"
	"github.com/domino14/blackjack/solver"
)

// Chart rows. Hard totals 5-19 (two-card hard 4 and 20 only exist as the
// pairs 2,2 and 10,10), soft totals 13-20, pairs by rank.
const (
	hardMin = 5
	hardMax = 19
	softMin = 13
	softMax = 20
)

// Chart holds the best initial-hand action per (row, up-card) cell, plus
// lookup helpers for playing later decisions from the same table.
type Chart struct {
	rules rules.Rules
	hard  [hardMax + 1][cards.NumRanks]solver.Action
	soft  [softMax + 1][cards.NumRanks]solver.Action
	pairs [cards.NumRanks + 1][cards.NumRanks]solver.Action
}

// Generate computes the full chart for the rule set.
func Generate(r rules.Rules) (*Chart, error) {
	s, err := solver.New(r)
	if err != nil {
		return nil, err
	}
	c := &Chart{rules: r}
	log.Info().Str("rules", r.Fingerprint()).Msg("generating strategy chart")

	for up := cards.Ace; up <= cards.Ten; up++ {
		for total := hardMin; total <= hardMax; total++ {
			a, b := hardHandCards(total)
			best, err := cellBest(s, r, cards.HandOf(a, b), up)
			if err != nil {
				return nil, err
			}
			c.hard[total][up-1] = best
		}
		for total := softMin; total <= softMax; total++ {
			best, err := cellBest(s, r, cards.HandOf(cards.Ace, total-11), up)
			if err != nil {
				return nil, err
			}
			c.soft[total][up-1] = best
		}
		for rank := cards.Ace; rank <= cards.Ten; rank++ {
			best, err := cellBest(s, r, cards.HandOf(rank, rank), up)
			if err != nil {
				return nil, err
			}
			c.pairs[rank][up-1] = best
		}
	}
	return c, nil
}

func cellBest(s *solver.Solver, r rules.Rules, hand cards.CardCount, up int) (solver.Action, error) {
	shoe := cards.WithDecks(r.Decks)
	for rank := cards.Ace; rank <= cards.Ten; rank++ {
		for i := 0; i < hand.Count(rank); i++ {
			if err := shoe.Remove(rank); err != nil {
				return solver.Stand, err
			}
		}
	}
	if err := shoe.Remove(up); err != nil {
		return solver.Stand, err
	}
	res, err := s.Solve(hand, up, shoe)
	if err != nil {
		return solver.Stand, err
	}
	return res.Best, nil
}

// hardHandCards picks a non-pair two-card representative for a hard total.
func hardHandCards(total int) (int, int) {
	if total-2 <= 10 && total-2 != 2 {
		return 2, total - 2
	}
	return cards.Ten, total - 10
}

// Action looks up the chart decision for an arbitrary in-play hand. Later
// decisions (three or more cards, or ineligible contexts) map Double,
// Split, and Surrender down to the legal fallback.
func (c *Chart) Action(hand cards.CardCount, upCard int, initial, canSplit bool) solver.Action {
	act := c.rawAction(hand, upCard, initial && canSplit)
	if initial {
		return act
	}
	switch act {
	case solver.Double, solver.Surrender:
		return solver.Hit
	case solver.Split:
		return solver.Hit
	}
	return act
}

func (c *Chart) rawAction(hand cards.CardCount, upCard int, splitEligible bool) solver.Action {
	if hand.ActualSum() >= 21 {
		return solver.Stand
	}
	if splitEligible && hand.IsPair() {
		return c.pairs[hand.PairRank()][upCard-1]
	}
	if total, soft := hand.SoftTotal(); soft {
		switch {
		case total < softMin:
			return solver.Hit
		case total > softMax:
			return solver.Stand
		default:
			return c.soft[total][upCard-1]
		}
	}
	total := hand.Sum()
	switch {
	case total < hardMin:
		return solver.Hit
	case total > hardMax:
		return solver.Stand
	default:
		return c.hard[total][upCard-1]
	}
}

func (c *Chart) String() string {
	var sb strings.Builder
	writeHeader := func(title string) {
		sb.WriteString(title)
		sb.WriteString("\n    ")
		for up := 2; up <= cards.Ten; up++ {
			fmt.Fprintf(&sb, "%3d", up)
		}
		sb.WriteString("  A\n")
	}
	cell := func(row [cards.NumRanks]solver.Action) {
		for up := 2; up <= cards.Ten; up++ {
			fmt.Fprintf(&sb, "%3s", row[up-1].Letter())
		}
		fmt.Fprintf(&sb, "%3s\n", row[cards.Ace-1].Letter())
	}

	writeHeader("Hard totals")
	for total := hardMin; total <= hardMax; total++ {
		fmt.Fprintf(&sb, "%-4d", total)
		cell(c.hard[total])
	}
	writeHeader("\nSoft totals")
	for total := softMin; total <= softMax; total++ {
		fmt.Fprintf(&sb, "A,%-2d", total-11)
		cell(c.soft[total])
	}
	writeHeader("\nPairs")
	for rank := cards.Ace; rank <= cards.Ten; rank++ {
		if rank == cards.Ace {
			sb.WriteString("A,A ")
		} else {
			fmt.Fprintf(&sb, "%d,%-2d", rank, rank)
		}
		cell(c.pairs[rank])
	}
	return sb.String()
}
