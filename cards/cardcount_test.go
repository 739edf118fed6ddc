package cards

import (
	"testing"

	"github.com/matryer/is"
)

func TestWithDecks(t *testing.T) {
	is := is.New(t)
	c := WithDecks(6)
	is.Equal(c.Total(), 312)
	is.Equal(c.Count(Ace), 24)
	is.Equal(c.Count(5), 24)
	is.Equal(c.Count(Ten), 96)
}

func TestRemoveAddRoundTrip(t *testing.T) {
	is := is.New(t)
	c := WithDecks(1)
	before := c
	for rank := Ace; rank <= Ten; rank++ {
		is.NoErr(c.Remove(rank))
		c.Add(rank)
	}
	is.Equal(c, before)
	is.Equal(c.Sum(), before.Sum())
	is.Equal(c.Total(), before.Total())
}

func TestRemoveDepleted(t *testing.T) {
	is := is.New(t)
	c := HandOf(5)
	is.NoErr(c.Remove(5))
	err := c.Remove(5)
	is.True(err != nil)
}

func TestProbability(t *testing.T) {
	is := is.New(t)
	c := WithDecks(1)
	is.Equal(c.Probability(Ten), 16.0/52.0)
	is.Equal(c.Probability(Ace), 4.0/52.0)
	var empty CardCount
	is.Equal(empty.Probability(Ace), 0.0)
}

func TestActualSum(t *testing.T) {
	is := is.New(t)
	is.Equal(HandOf(Ace, 6).ActualSum(), 17)    // soft 17
	is.Equal(HandOf(Ace, 6, 9).ActualSum(), 16) // ace forced hard
	is.Equal(HandOf(Ace, Ace, 5).ActualSum(), 17)
	is.Equal(HandOf(10, 9).ActualSum(), 19)

	_, soft := HandOf(Ace, 6).SoftTotal()
	is.True(soft)
	_, soft = HandOf(Ace, 6, 9).SoftTotal()
	is.True(!soft)
}

func TestBusted(t *testing.T) {
	is := is.New(t)
	is.True(HandOf(10, 9, 5).Busted())
	is.True(!HandOf(Ace, 10, 10).Busted())
}

func TestNaturalAndPair(t *testing.T) {
	is := is.New(t)
	is.True(HandOf(Ace, Ten).IsNatural())
	is.True(!HandOf(Ace, 5, 5).IsNatural()) // three-card 21
	is.True(!HandOf(10, 10).IsNatural())

	is.True(HandOf(8, 8).IsPair())
	is.Equal(HandOf(8, 8).PairRank(), 8)
	is.True(!HandOf(8, 9).IsPair())
	is.Equal(HandOf(8, 9).PairRank(), 0)
	is.True(!HandOf(8, 8, 8).IsPair())
}
