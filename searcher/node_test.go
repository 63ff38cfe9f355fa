package searcher

import (
	"math/bits"
	"uct/game"
)

// mockEnv is an explicit game tree: action i in a state leads to
// children[state][i]; states listed in rewards are terminal.
type mockEnv struct {
	children map[game.Key][]game.Key
	rewards  map[game.Key]float64
}

func (m mockEnv) LegalActions(state game.Key) []game.Action {
	actions := make([]game.Action, len(m.children[state]))
	for i := range actions {
		actions[i] = game.Action(i)
	}
	return actions
}

func (m mockEnv) Apply(state game.Key, action game.Action, _ game.Player) game.Key {
	return m.children[state][action]
}

func (m mockEnv) Outcome(_ game.Action, state game.Key, _ game.Player) (float64, bool) {
	reward, ok := m.rewards[state]
	return reward, ok
}

func (m mockEnv) NextPlayer(player game.Player) game.Player {
	return player.Other()
}

// binaryEnv is a complete binary tree in heap order: the children of k are
// 2k+1 and 2k+2. Leaves at the given depth are terminal with reward k%2.
type binaryEnv struct {
	depth int
}

func level(k game.Key) int {
	return bits.Len64(uint64(k)+1) - 1
}

func (b binaryEnv) LegalActions(state game.Key) []game.Action {
	if level(state) >= b.depth {
		return nil
	}
	return []game.Action{0, 1}
}

func (b binaryEnv) Apply(state game.Key, action game.Action, _ game.Player) game.Key {
	return 2*state + 1 + game.Key(action)
}

func (b binaryEnv) Outcome(_ game.Action, state game.Key, _ game.Player) (float64, bool) {
	if level(state) >= b.depth {
		return float64(state % 2), true
	}
	return 0, false
}

func (b binaryEnv) NextPlayer(player game.Player) game.Player {
	return player.Other()
}

// endlessEnv never ends: every state has two successors.
type endlessEnv struct{}

func (endlessEnv) LegalActions(game.Key) []game.Action {
	return []game.Action{0, 1}
}

func (endlessEnv) Apply(state game.Key, action game.Action, _ game.Player) game.Key {
	return 2*state + 1 + game.Key(action)
}

func (endlessEnv) Outcome(game.Action, game.Key, game.Player) (float64, bool) {
	return 0, false
}

func (endlessEnv) NextPlayer(player game.Player) game.Player {
	return player.Other()
}
