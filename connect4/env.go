package connect4

import (
	"fmt"
	"uct/game"
)

const (
	Win  = 1.0
	Loss = 0.0
	Draw = 0.5
)

// Env adapts the board to game.Environment.
type Env struct {
	codec Codec
}

var _ game.Environment = Env{}

func NewEnv() Env {
	return Env{}
}

// Initial is the key of the empty board.
func (e Env) Initial() game.Key {
	return e.codec.Encode(Board{})
}

func (e Env) Board(state game.Key) Board {
	b, err := e.codec.Decode(state)
	if err != nil {
		panic(err)
	}
	return b
}

func (e Env) LegalActions(state game.Key) []game.Action {
	b := e.Board(state)
	if _, won := b.Winner(); won || b.Full() {
		return nil
	}
	actions := make([]game.Action, 0, Width)
	for col := 0; col < Width; col++ {
		if b.CanPlay(col) {
			actions = append(actions, game.Action(col))
		}
	}
	return actions
}

func (e Env) Apply(state game.Key, action game.Action, player game.Player) game.Key {
	next, err := e.Board(state).Play(int(action), player)
	if err != nil {
		panic(fmt.Sprintf("illegal action %d on %#x: %v", action, uint64(state), err))
	}
	return e.codec.Encode(next)
}

func (e Env) Outcome(last game.Action, state game.Key, perspective game.Player) (float64, bool) {
	b := e.Board(state)

	// Only the player who just moved can have completed a line
	var winner game.Player
	var won bool
	if last >= 0 && int(last) < Width {
		if mover, ok := b.Top(int(last)); ok && connected(b.Stones(mover)) {
			winner, won = mover, true
		}
	} else {
		winner, won = b.Winner()
	}

	switch {
	case won && winner == perspective:
		return Win, true
	case won:
		return Loss, true
	case b.Full():
		return Draw, true
	}
	return 0, false
}

func (e Env) NextPlayer(player game.Player) game.Player {
	return player.Other()
}
