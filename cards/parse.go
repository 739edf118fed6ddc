package cards

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidRank = errors.New("cards: invalid rank")

// ParseRank parses a single rank token: "A" or "1" for an Ace, "2" through
// "10", and "T", "J", "Q", "K" for ten-value cards.
func ParseRank(s string) (int, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return Ace, nil
	case "T", "J", "Q", "K":
		return Ten, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < Ace || n > Ten {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRank, s)
	}
	return n, nil
}

// ParseHand parses a comma-separated list of rank tokens, e.g. "A,7" or
// "8,8" or "10,6,2".
func ParseHand(s string) (CardCount, error) {
	var c CardCount
	for _, tok := range strings.Split(s, ",") {
		r, err := ParseRank(tok)
		if err != nil {
			return CardCount{}, err
		}
		c.Add(r)
	}
	return c, nil
}
