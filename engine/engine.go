package engine

import (
	"context"
	"uct/experiments/metrics"
)

const MaxMoves = 10000

type Engine interface {
	// Run plays a game till there's a winner, no action is left or a max
	// number of moves is reached. The winner is empty on a draw.
	Run(ctx context.Context) (winner string, gameMetric metrics.GameMetric, moveMetrics []metrics.MoveMetric, err error)
}
