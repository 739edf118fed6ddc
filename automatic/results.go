package automatic

import (
	"io"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

// Results accumulates per-round net returns, in units of the base bet.
type Results struct {
	returns []float64
}

func NewResults(capacity int) *Results {
	return &Results{returns: make([]float64, 0, capacity)}
}

func (r *Results) Add(net float64) {
	r.returns = append(r.returns, net)
}

func (r *Results) Rounds() int {
	return len(r.returns)
}

func (r *Results) Total() float64 {
	return lo.Sum(r.returns)
}

// Mean is the average return per round, i.e. the realized edge.
func (r *Results) Mean() float64 {
	if len(r.returns) == 0 {
		return 0
	}
	return stat.Mean(r.returns, nil)
}

// StdDev is the per-round standard deviation of returns.
func (r *Results) StdDev() float64 {
	if len(r.returns) < 2 {
		return 0
	}
	return stat.StdDev(r.returns, nil)
}

// StdErr is the standard error of the mean, for judging whether two
// strategies actually differ over a run.
func (r *Results) StdErr() float64 {
	if len(r.returns) < 2 {
		return 0
	}
	return stat.StdErr(r.StdDev(), float64(len(r.returns)))
}

// Histogram writes a text histogram of round returns.
func (r *Results) Histogram(w io.Writer, bins int) error {
	if len(r.returns) == 0 {
		return nil
	}
	return histogram.Fprint(w, histogram.Hist(bins, r.returns), histogram.Linear(40))
}
