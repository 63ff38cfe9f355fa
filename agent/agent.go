package agent

import (
	"context"
	"uct/experiments/metrics"
	"uct/game"
	"uct/searcher"
)

// Agent is a player the engine drives through one real game at a time.
type Agent interface {
	Name() string
	// Update informs the agent of a real move: state is the position reached
	// and next the player to move in it.
	Update(state game.Key, next game.Player)
	// FindMove returns the action to play in the latest position and the
	// metrics of the search, if any.
	FindMove(ctx context.Context) (game.Action, metrics.SearchMetric, error)
	Reset()
}

type searchAgent struct {
	uct *searcher.UCT
}

// NewSearchAgent returns an agent that plays the best action found by uct.
func NewSearchAgent(uct *searcher.UCT) Agent {
	return searchAgent{uct: uct}
}

func (a searchAgent) Name() string {
	return a.uct.Name()
}

func (a searchAgent) Update(state game.Key, next game.Player) {
	a.uct.Update(state, next)
}

func (a searchAgent) FindMove(ctx context.Context) (game.Action, metrics.SearchMetric, error) {
	return a.uct.FindNextMove(ctx)
}

func (a searchAgent) Reset() {
	a.uct.Reset()
}
