// Package connect4 is the reference environment for the searcher: a 7x6
// four-in-a-row board packed in a bitboard, with a 49-bit canonical key.
package connect4

import (
	"fmt"
	"math/bits"
	"strings"
	"uct/game"
)

const (
	Width  = 7
	Height = 6

	stride = Height + 1 // one spare bit per column
)

const (
	bottomMask uint64 = 1 | 1<<7 | 1<<14 | 1<<21 | 1<<28 | 1<<35 | 1<<42
	boardMask  uint64 = bottomMask * ((1 << Height) - 1)
	keyBits           = Width * stride
)

func columnMask(col int) uint64 {
	return ((1 << Height) - 1) << (col * stride)
}

func topMask(col int) uint64 {
	return 1 << (Height - 1 + col*stride)
}

// Board is an immutable position. one holds player one's stones, mask holds
// every stone on the board.
type Board struct {
	one  uint64
	mask uint64
}

// Moves is the number of stones played so far.
func (b Board) Moves() int {
	return bits.OnesCount64(b.mask)
}

// ToMove returns the player whose turn it is. Player one always starts.
func (b Board) ToMove() game.Player {
	if b.Moves()%2 == 0 {
		return game.PlayerOne
	}
	return game.PlayerTwo
}

func (b Board) Stones(p game.Player) uint64 {
	if p == game.PlayerOne {
		return b.one
	}
	return b.mask ^ b.one
}

func (b Board) CanPlay(col int) bool {
	return col >= 0 && col < Width && b.mask&topMask(col) == 0
}

func (b Board) ColumnHeight(col int) int {
	return bits.OnesCount64(b.mask & columnMask(col))
}

// Play drops a stone for p into col.
func (b Board) Play(col int, p game.Player) (Board, error) {
	if !b.CanPlay(col) {
		return b, fmt.Errorf("cannot play column %d", col)
	}
	move := (b.mask + bottomMask&columnMask(col)) & columnMask(col)
	next := Board{one: b.one, mask: b.mask | move}
	if p == game.PlayerOne {
		next.one |= move
	}
	return next, nil
}

// Top returns the owner of the highest stone in col.
func (b Board) Top(col int) (game.Player, bool) {
	h := b.ColumnHeight(col)
	if h == 0 {
		return 0, false
	}
	cell := uint64(1) << (col*stride + h - 1)
	if b.one&cell != 0 {
		return game.PlayerOne, true
	}
	return game.PlayerTwo, true
}

func (b Board) Full() bool {
	return b.mask == boardMask
}

// Winner reports the player with four in a row, if any.
func (b Board) Winner() (game.Player, bool) {
	for _, p := range []game.Player{game.PlayerOne, game.PlayerTwo} {
		if connected(b.Stones(p)) {
			return p, true
		}
	}
	return 0, false
}

// connected checks the four directions. The spare bit on top of every column
// stays empty, so shifted lines never wrap across columns.
func connected(s uint64) bool {
	for _, shift := range []uint{1, stride, stride + 1, stride - 1} {
		m := s & (s >> shift)
		if m&(m>>(2*shift)) != 0 {
			return true
		}
	}
	return false
}

func (b Board) String() string {
	var sb strings.Builder
	for row := Height - 1; row >= 0; row-- {
		for col := 0; col < Width; col++ {
			cell := uint64(1) << (col*stride + row)
			switch {
			case b.one&cell != 0:
				sb.WriteByte('X')
			case b.mask&cell != 0:
				sb.WriteByte('O')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
