package searcher

import (
	"math"
	"uct/stats"

	"github.com/samber/lo"
)

// ucb1 = mean + c * sqrt(2 * ln(N) / n), with an unvisited child counted
// as one visit so the score stays finite.
func ucb1(mean float64, visits uint64, c float64, logTotal float64) float64 {
	n := float64(max(visits, 1))
	return mean + c*math.Sqrt(2*logTotal/n)
}

// logParentVisits is ln of the summed sibling visits, a zero sum counted as one.
func logParentVisits(children []stats.Stats) float64 {
	total := lo.SumBy(children, func(s stats.Stats) uint64 {
		return s.Visits
	})
	return math.Log(float64(max(total, 1)))
}
