package game

import "errors"

// Key is the canonical encoding of a full game position. Two positions that
// are rule-equivalent encode to the same Key.
type Key uint64

// Action identifies a move among the finite set legal in a position.
type Action int

// NoAction is returned by searchers when a position has no legal action.
const NoAction Action = -1

// Player tags whose turn produced or will produce a state.
type Player int8

const (
	PlayerOne Player = 1
	PlayerTwo Player = 2
)

// Other returns the opponent of p.
func (p Player) Other() Player {
	if p == PlayerOne {
		return PlayerTwo
	}
	return PlayerOne
}

func (p Player) String() string {
	switch p {
	case PlayerOne:
		return "player1"
	case PlayerTwo:
		return "player2"
	}
	return "none"
}

// ErrMalformedKey is wrapped by every failed Decode.
var ErrMalformedKey = errors.New("malformed state key")

// Environment is the contract any game implements to be playable by a
// searcher. Implementations must be pure: no method mutates caller-visible
// state.
type Environment interface {
	// LegalActions is finite and non-empty unless state is terminal.
	LegalActions(state Key) []Action
	// Apply returns the state reached when player plays action in state.
	Apply(state Key, action Action, player Player) Key
	// Outcome reports the reward of state from perspective's point of view,
	// or terminal=false when the game continues. last is the action that
	// produced state.
	Outcome(last Action, state Key, perspective Player) (reward float64, terminal bool)
	// NextPlayer toggles between the two players.
	NextPlayer(player Player) Player
}

// Codec converts positions of type P to and from their canonical Key.
type Codec[P any] interface {
	Encode(position P) Key
	// Decode fails with an error wrapping ErrMalformedKey if key does not
	// encode any legal position.
	Decode(key Key) (P, error)
}
