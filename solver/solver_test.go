package solver

import (
	"math"
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/blackjack/cards"
	"github.com/domino14/blackjack/rules"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func singleDeckRules() rules.Rules {
	r := rules.Default()
	r.Decks = 1
	return r
}

// startingShoe is a fresh shoe minus the player's hand and the up-card.
func startingShoe(r rules.Rules, hand cards.CardCount, up int) cards.CardCount {
	shoe := cards.WithDecks(r.Decks)
	for rank := cards.Ace; rank <= cards.Ten; rank++ {
		for i := 0; i < hand.Count(rank); i++ {
			if err := shoe.Remove(rank); err != nil {
				panic(err)
			}
		}
	}
	if err := shoe.Remove(up); err != nil {
		panic(err)
	}
	return shoe
}

func mustSolver(t *testing.T, r rules.Rules) *Solver {
	t.Helper()
	s, err := New(r)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSplitEightsAgainstSix(t *testing.T) {
	is := is.New(t)
	r := singleDeckRules()
	s := mustSolver(t, r)
	hand := cards.HandOf(8, 8)
	res, err := s.Solve(hand, 6, startingShoe(r, hand, 6))
	is.NoErr(err)
	is.Equal(res.Best, Split)
	is.True(res.EVPerAction[Split] > res.EVPerAction[Hit])
	is.True(res.EVPerAction[Split] > res.EVPerAction[Stand])
}

func TestDoubleElevenAgainstSix(t *testing.T) {
	is := is.New(t)
	r := singleDeckRules()
	s := mustSolver(t, r)
	hand := cards.HandOf(6, 5)
	res, err := s.Solve(hand, 6, startingShoe(r, hand, 6))
	is.NoErr(err)
	is.Equal(res.Best, Double)
	is.True(res.EVPerAction[Double] >= res.EVPerAction[Hit])
	is.True(res.EVPerAction[Double] > res.EVPerAction[Stand])
}

func TestDoubleDropsWithoutTens(t *testing.T) {
	is := is.New(t)
	r := singleDeckRules()
	s := mustSolver(t, r)
	hand := cards.HandOf(6, 5)

	full := startingShoe(r, hand, 6)
	fullEV, err := s.EVOf(hand, 6, full, Double)
	is.NoErr(err)

	stripped := full
	for stripped.Count(cards.Ten) > 0 {
		is.NoErr(stripped.Remove(cards.Ten))
	}
	strippedEV, err := s.EVOf(hand, 6, stripped, Double)
	is.NoErr(err)
	is.True(strippedEV < fullEV)
}

func TestStandOnTwenty(t *testing.T) {
	is := is.New(t)
	r := singleDeckRules()
	s := mustSolver(t, r)
	hand := cards.HandOf(10, 10)
	res, err := s.Solve(hand, 10, startingShoe(r, hand, 10))
	is.NoErr(err)
	is.Equal(res.Best, Stand)
	is.True(res.EVPerAction[Stand] > 0)
}

func TestNaturalPayout(t *testing.T) {
	is := is.New(t)
	r := singleDeckRules()
	s := mustSolver(t, r)
	hand := cards.HandOf(cards.Ace, cards.Ten)
	res, err := s.Solve(hand, 6, startingShoe(r, hand, 6))
	is.NoErr(err)
	is.Equal(res.Best, Stand)
	// The dealer cannot have a natural behind a 6, so the bonus is certain.
	is.True(math.Abs(res.EV-r.BlackjackPayout) < 1e-12)
	// No other action is offered on a natural.
	is.Equal(len(res.EVPerAction), 1)
}

func TestNaturalVersusDealerAce(t *testing.T) {
	is := is.New(t)
	r := singleDeckRules()
	s := mustSolver(t, r)
	hand := cards.HandOf(cards.Ace, cards.Ten)
	shoe := startingShoe(r, hand, cards.Ace)
	res, err := s.Solve(hand, cards.Ace, shoe)
	is.NoErr(err)
	// A dealer natural pushes, so the EV is the payout scaled by the chance
	// there is no ten in the hole. 15 tens remain among 49 unseen cards.
	want := r.BlackjackPayout * (1 - 15.0/49.0)
	is.True(math.Abs(res.EV-want) < 1e-9)
}

func TestInsuranceEV(t *testing.T) {
	is := is.New(t)
	r := singleDeckRules()
	s := mustSolver(t, r)
	hand := cards.HandOf(9, 9)
	shoe := startingShoe(r, hand, cards.Ace)
	res, err := s.Solve(hand, cards.Ace, shoe)
	is.NoErr(err)
	is.True(res.InsuranceOffered)
	pTen := shoe.Probability(cards.Ten)
	want := pTen*r.InsurancePayout - (1 - pTen)
	is.True(math.Abs(res.InsuranceEV-want) < 1e-12)

	res, err = s.Solve(hand, 10, startingShoe(r, hand, 10))
	is.NoErr(err)
	is.True(!res.InsuranceOffered)
}

func TestDeterministic(t *testing.T) {
	is := is.New(t)
	r := singleDeckRules()
	hand := cards.HandOf(9, 7)
	shoe := startingShoe(r, hand, 10)

	s1 := mustSolver(t, r)
	res1, err := s1.Solve(hand, 10, shoe)
	is.NoErr(err)
	s2 := mustSolver(t, r)
	res2, err := s2.Solve(hand, 10, shoe)
	is.NoErr(err)

	is.Equal(res1.Best, res2.Best)
	is.Equal(res1.EVPerAction, res2.EVPerAction)

	// Same solver, repeated: memoized answers must be bit-identical.
	res3, err := s1.Solve(hand, 10, shoe)
	is.NoErr(err)
	is.Equal(res1.EVPerAction, res3.EVPerAction)
}

func TestStandEVReportedExactly(t *testing.T) {
	is := is.New(t)
	r := singleDeckRules()
	s := mustSolver(t, r)
	// A hard 8 would never stand, but its reported Stand EV must still be
	// the literal expectation, not a pruning sentinel.
	hand := cards.HandOf(5, 3)
	shoe := startingShoe(r, hand, 10)
	res, err := s.Solve(hand, 10, shoe)
	is.NoErr(err)
	direct, err := s.EVOf(hand, 10, shoe, Stand)
	is.NoErr(err)
	is.Equal(res.EVPerAction[Stand], direct)
	is.True(direct > -1 && direct < 0)
	is.True(!math.IsInf(direct, -1))
}

func TestTenRichShoeHelpsTwenty(t *testing.T) {
	is := is.New(t)
	r := rules.Default()
	r.Decks = 2
	s := mustSolver(t, r)
	hand := cards.HandOf(10, 10)

	base := startingShoe(r, hand, 6)
	rich := base
	for i := 0; i < 4; i++ {
		is.NoErr(rich.Remove(5))
		rich.Add(cards.Ten)
	}
	baseEV, err := s.EVOf(hand, 6, base, Stand)
	is.NoErr(err)
	richEV, err := s.EVOf(hand, 6, rich, Stand)
	is.NoErr(err)
	is.True(richEV > baseEV)
}

func TestSurrenderSixteenAgainstTen(t *testing.T) {
	is := is.New(t)
	r := singleDeckRules()
	r.Surrender = true
	s := mustSolver(t, r)
	hand := cards.HandOf(10, 6)
	res, err := s.Solve(hand, 10, startingShoe(r, hand, 10))
	is.NoErr(err)
	is.Equal(res.EVPerAction[Surrender], -0.5)
	is.Equal(res.Best, Surrender)
}

func TestCharlieMakesHittingFree(t *testing.T) {
	is := is.New(t)
	r := singleDeckRules()
	r.CharlieNumber = 3
	s := mustSolver(t, r)
	// 2+3 plus any third card stays under 21, so the third card always
	// completes the charlie.
	hand := cards.HandOf(2, 3)
	res, err := s.Solve(hand, 10, startingShoe(r, hand, 10))
	is.NoErr(err)
	is.True(math.Abs(res.EVPerAction[Hit]-1) < 1e-12)
	// Doubling reaches the same guaranteed charlie at doubled stakes.
	is.True(math.Abs(res.EVPerAction[Double]-2) < 1e-12)
	is.Equal(res.Best, Double)
}

func TestSplitAcesOneCard(t *testing.T) {
	is := is.New(t)
	r := singleDeckRules()
	s := mustSolver(t, r)
	hand := cards.HandOf(cards.Ace, cards.Ace)
	res, err := s.Solve(hand, 6, startingShoe(r, hand, 6))
	is.NoErr(err)
	is.Equal(res.Best, Split)

	// Allowing hits on split aces can only help.
	r2 := singleDeckRules()
	r2.HitSplitAces = true
	s2 := mustSolver(t, r2)
	res2, err := s2.Solve(hand, 6, startingShoe(r2, hand, 6))
	is.NoErr(err)
	is.True(res2.EVPerAction[Split] >= res.EVPerAction[Split]-1e-12)
}

func TestIllegalActions(t *testing.T) {
	is := is.New(t)
	r := singleDeckRules()
	s := mustSolver(t, r)

	three := cards.HandOf(2, 3, 4)
	shoe := startingShoe(r, three, 10)
	_, err := s.EVOf(three, 10, shoe, Double)
	is.True(err != nil)
	_, err = s.EVOf(three, 10, shoe, Split)
	is.True(err != nil)
	_, err = s.EVOf(three, 10, shoe, Surrender)
	is.True(err != nil)

	nonPair := cards.HandOf(8, 9)
	_, err = s.EVOf(nonPair, 10, startingShoe(r, nonPair, 10), Split)
	is.True(err != nil)

	// Surrender is off in the default rules, even on the initial hand.
	sixteen := cards.HandOf(10, 6)
	_, err = s.EVOf(sixteen, 10, startingShoe(r, sixteen, 10), Surrender)
	is.True(err != nil)

	// Hitting a made 21 is never offered.
	twentyOne := cards.HandOf(cards.Ace, cards.Ten)
	_, err = s.EVOf(twentyOne, 6, startingShoe(r, twentyOne, 6), Hit)
	is.True(err != nil)
}

func TestInvalidShoe(t *testing.T) {
	is := is.New(t)
	r := singleDeckRules()
	s := mustSolver(t, r)
	hand := cards.HandOf(8, 8)

	// Five eights cannot exist in one deck.
	shoe := startingShoe(r, hand, 6)
	shoe.Add(8)
	shoe.Add(8)
	shoe.Add(8)
	_, err := s.Solve(hand, 6, shoe)
	is.True(err != nil)

	var empty cards.CardCount
	_, err = s.Solve(hand, 6, empty)
	is.True(err != nil)
}

func TestParallelMatchesSerial(t *testing.T) {
	is := is.New(t)
	r := singleDeckRules()
	hand := cards.HandOf(9, 5)
	shoe := startingShoe(r, hand, 10)

	serial := mustSolver(t, r)
	sres, err := serial.Solve(hand, 10, shoe)
	is.NoErr(err)

	parallel := mustSolver(t, r)
	parallel.SetThreads(4)
	pres, err := parallel.Solve(hand, 10, shoe)
	is.NoErr(err)

	is.Equal(sres.Best, pres.Best)
	for a, ev := range sres.EVPerAction {
		is.True(math.Abs(ev-pres.EVPerAction[a]) < 1e-12)
	}
}

func TestResetClearsState(t *testing.T) {
	is := is.New(t)
	r := singleDeckRules()
	s := mustSolver(t, r)
	hand := cards.HandOf(9, 7)
	shoe := startingShoe(r, hand, 10)
	res1, err := s.Solve(hand, 10, shoe)
	is.NoErr(err)
	s.Reset()
	res2, err := s.Solve(hand, 10, shoe)
	is.NoErr(err)
	is.Equal(res1.EVPerAction, res2.EVPerAction)
}
