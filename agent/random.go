package agent

import (
	"context"
	"time"
	"uct/experiments/metrics"
	"uct/game"
	"uct/searcher"

	"golang.org/x/exp/rand"
)

type randomAgent struct {
	name   string
	env    game.Environment
	rng    *rand.Rand
	state  game.Key
	placed bool
}

// NewRandomAgent returns an agent that picks uniformly among the legal
// actions. It is the baseline opponent of a self-play run.
func NewRandomAgent(name string, env game.Environment, seed uint64) Agent {
	return &randomAgent{
		name: name,
		env:  env,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

func (a *randomAgent) Name() string {
	return a.name
}

func (a *randomAgent) Update(state game.Key, _ game.Player) {
	a.state = state
	a.placed = true
}

func (a *randomAgent) FindMove(context.Context) (game.Action, metrics.SearchMetric, error) {
	if !a.placed {
		return game.NoAction, metrics.SearchMetric{}, searcher.ErrNoPosition
	}
	start := time.Now()
	actions := a.env.LegalActions(a.state)
	if len(actions) == 0 {
		return game.NoAction, metrics.SearchMetric{}, nil
	}
	action := actions[a.rng.Intn(len(actions))]
	return action, metrics.SearchMetric{Duration: time.Since(start)}, nil
}

func (a *randomAgent) Reset() {
	a.state = 0
	a.placed = false
}
