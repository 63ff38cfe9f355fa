package searcher

import (
	"math"
	"uct/game"
	"uct/stats"

	"github.com/samber/lo"
)

type phase int

const (
	selection phase = iota // UCB1 over a fully expanded state
	expansion              // children created, random pick
	rollout                // default policy
)

// trajectory is the outcome of one simulation.
type trajectory struct {
	visited  []game.Key
	phases   []phase // One per ply
	reward   float64
	terminal bool
}

// simulate plays one trajectory from the latest real position. At most one
// ply expands; every ply after it follows the random default policy.
func (u *UCT) simulate() trajectory {
	state := u.history[len(u.history)-1]
	player := u.player
	t := trajectory{reward: u.truncationReward}

	expand := true
	for ply := 1; ply <= u.maxActions; ply++ {
		actions := u.env.LegalActions(state)
		if len(actions) == 0 { // Stuck without an outcome
			break
		}

		var action game.Action
		if expand {
			successors := lo.Map(actions, func(a game.Action, _ int) game.Key {
				return u.env.Apply(state, a, player)
			})
			var i int
			if !u.table.Contains(successors...) {
				u.table.Ensure(successors...)
				expand = false
				u.metrics.SetDepth(ply)
				i = u.rng.Intn(len(actions))
				t.phases = append(t.phases, expansion)
			} else {
				i = u.pickChild(successors, player)
				t.phases = append(t.phases, selection)
			}
			action, state = actions[i], successors[i]
		} else {
			action = actions[u.rng.Intn(len(actions))]
			state = u.env.Apply(state, action, player)
			t.phases = append(t.phases, rollout)
		}
		t.visited = append(t.visited, state)

		if reward, terminal := u.env.Outcome(action, state, u.player); terminal {
			t.reward, t.terminal = reward, true
			break
		}

		player = u.env.NextPlayer(player)
	}
	return t
}

// pickChild returns the index of a max UCB1 successor, ties broken at random.
func (u *UCT) pickChild(successors []game.Key, player game.Player) int {
	children := lo.Map(successors, func(key game.Key, _ int) stats.Stats {
		s, _ := u.table.Get(key)
		return s
	})
	logTotal := logParentVisits(children)

	sign := 1.0
	if u.alternate && player != u.player {
		sign = -1
	}

	maxScore := math.Inf(-1)
	ties := make([]int, 0, len(children))
	for i, child := range children {
		score := ucb1(sign*child.Mean(), child.Visits, u.c, logTotal)
		switch {
		case score > maxScore:
			maxScore = score
			ties = append(ties[:0], i)
		case score == maxScore:
			ties = append(ties, i)
		}
	}
	return ties[u.rng.Intn(len(ties))]
}

// backup adds the trajectory reward to every visited state in the table.
// The reward is the same for every ply, from the searching player's view.
func (u *UCT) backup(t trajectory) {
	for _, key := range t.visited {
		u.table.Record(key, t.reward)
	}
}

// evaluate returns the root action with the best mean, the first one found
// on ties. Successors never visited count as mean 0.
func (u *UCT) evaluate(state game.Key, actions []game.Action) (game.Action, stats.Stats) {
	bestAction := game.NoAction
	var best stats.Stats
	maxMean := math.Inf(-1)
	for _, action := range actions {
		s, _ := u.table.Get(u.env.Apply(state, action, u.player))
		if mean := s.Mean(); mean > maxMean {
			maxMean = mean
			bestAction = action
			best = s
		}
	}
	return bestAction, best
}
