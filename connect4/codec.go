package connect4

import (
	"errors"
	"fmt"
	"math/bits"
	"uct/game"
)

// Codec packs a Board into a Key: each column takes 7 bits, the bit at the
// column height is a sentinel and the bits below it are set for player one.
type Codec struct{}

var _ game.Codec[Board] = Codec{}

func (Codec) Encode(b Board) game.Key {
	return game.Key(b.one | (b.mask + bottomMask))
}

func (Codec) Decode(key game.Key) (Board, error) {
	k := uint64(key)
	if k>>keyBits != 0 {
		return Board{}, fmt.Errorf("%w: %#x has bits beyond the board", game.ErrMalformedKey, k)
	}

	var b Board
	for col := 0; col < Width; col++ {
		group := (k >> (col * stride)) & (1<<stride - 1)
		if group == 0 {
			return Board{}, fmt.Errorf("%w: %#x column %d has no height marker", game.ErrMalformedKey, k, col)
		}
		h := bits.Len64(group) - 1
		low := uint64(1)<<h - 1
		b.one |= (group & low) << (col * stride)
		b.mask |= low << (col * stride)
	}

	ones := bits.OnesCount64(b.one)
	twos := bits.OnesCount64(b.mask) - ones
	if d := ones - twos; d != 0 && d != 1 {
		return Board{}, fmt.Errorf("%w: %#x has %d/%d stones", game.ErrMalformedKey, k, ones, twos)
	}
	if err := checkFinished(b, ones, twos); err != nil {
		return Board{}, fmt.Errorf("%w: %#x %w", game.ErrMalformedKey, k, err)
	}
	return b, nil
}

// checkFinished rejects won positions that alternating play cannot reach:
// only one player may connect, the winner must have moved last, and the
// last stone must be the one completing the line.
func checkFinished(b Board, ones, twos int) error {
	winner, won := b.Winner()
	if !won {
		return nil
	}
	if connected(b.Stones(winner.Other())) {
		return errors.New("has four in a row for both players")
	}
	if (winner == game.PlayerOne) != (ones == twos+1) {
		return fmt.Errorf("is won by %s who did not move last", winner)
	}
	stones := b.Stones(winner)
	for col := 0; col < Width; col++ {
		h := b.ColumnHeight(col)
		if h == 0 {
			continue
		}
		top := uint64(1) << (col*stride + h - 1)
		if stones&top != 0 && !connected(stones&^top) {
			return nil
		}
	}
	return fmt.Errorf("is won by %s before the last move", winner)
}

// Validate is a stats table validator rejecting keys that do not decode.
func Validate(key game.Key) error {
	_, err := Codec{}.Decode(key)
	return err
}
