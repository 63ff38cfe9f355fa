package searcher

import (
	"math"
	"testing"
	"uct/stats"

	"github.com/stretchr/testify/require"
)

func TestUCB1(t *testing.T) {
	t.Run("computing UCB1 value", func(t *testing.T) {
		got := ucb1(0.5, 10, 2.0, math.Log(100))

		expected := 0.5 + 2.0*math.Sqrt(2*math.Log(100)/10.0)
		require.InDelta(t, expected, got, 0.0001,
			"Should compute mean + c*sqrt(2*ln(N)/n)")
	})

	t.Run("treating zero child visits as one", func(t *testing.T) {
		got := ucb1(0, 0, 2.0, math.Log(4))

		require.False(t, math.IsInf(got, 0), "Score should stay finite")
		require.InDelta(t, 2.0*math.Sqrt(2*math.Log(4)), got, 0.0001)
	})

	t.Run("exploration term decreases with child visits", func(t *testing.T) {
		score1 := ucb1(0.5, 10, 2.0, math.Log(100))
		score2 := ucb1(0.5, 20, 2.0, math.Log(100))

		require.Greater(t, score1, score2,
			"More child visits should decrease exploration term")
	})

	t.Run("exploration term increases with parent visits", func(t *testing.T) {
		score1 := ucb1(0.5, 10, 2.0, math.Log(100))
		score2 := ucb1(0.5, 10, 2.0, math.Log(1000))

		require.Greater(t, score2, score1,
			"More parent visits should increase exploration term")
	})

	t.Run("no exploration without an exploration constant", func(t *testing.T) {
		require.Equal(t, 0.25, ucb1(0.25, 3, 0, math.Log(9)))
	})
}

func TestLogParentVisits(t *testing.T) {
	t.Run("summing sibling visits", func(t *testing.T) {
		got := logParentVisits([]stats.Stats{{Visits: 3}, {Visits: 5}})

		require.InDelta(t, math.Log(8), got, 1e-9)
	})

	t.Run("counting a zero sum as one", func(t *testing.T) {
		require.Equal(t, 0.0, logParentVisits([]stats.Stats{{}, {}}))
	})
}
