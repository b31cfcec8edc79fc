// Package board holds the chess position model: attack tables built from
// magic bitboards, Zobrist keys, pseudo-legal move generation and the
// make/validate/restore move mutator.
package board

import "fmt"

// Square indexes the board rank by rank from a1 (0) to h8 (63), so file is
// the low three bits and rank the high three.
type Square uint8

const (
	A1, B1, C1, D1, E1, F1, G1, H1 Square = 0, 1, 2, 3, 4, 5, 6, 7
	A2, B2, C2, D2, E2, F2, G2, H2 Square = 8, 9, 10, 11, 12, 13, 14, 15
	A3, B3, C3, D3, E3, F3, G3, H3 Square = 16, 17, 18, 19, 20, 21, 22, 23
	A4, B4, C4, D4, E4, F4, G4, H4 Square = 24, 25, 26, 27, 28, 29, 30, 31
	A5, B5, C5, D5, E5, F5, G5, H5 Square = 32, 33, 34, 35, 36, 37, 38, 39
	A6, B6, C6, D6, E6, F6, G6, H6 Square = 40, 41, 42, 43, 44, 45, 46, 47
	A7, B7, C7, D7, E7, F7, G7, H7 Square = 48, 49, 50, 51, 52, 53, 54, 55
	A8, B8, C8, D8, E8, F8, G8, H8 Square = 56, 57, 58, 59, 60, 61, 62, 63

	// NoSquare stands for "none", e.g. no en passant target.
	NoSquare Square = 64
)

var squareNames [65]string

func init() {
	for sq := A1; sq <= H8; sq++ {
		squareNames[sq] = string([]byte{'a' + byte(sq.File()), '1' + byte(sq.Rank())})
	}
	squareNames[NoSquare] = "-"
}

// NewSquare joins a 0-based file and rank.
func NewSquare(file, rank int) Square {
	return Square(rank<<3 | file)
}

func (sq Square) File() int { return int(sq & 7) }
func (sq Square) Rank() int { return int(sq >> 3) }

// RelativeRank counts ranks from c's own back rank.
func (sq Square) RelativeRank(c Color) int {
	if c == Black {
		return 7 - sq.Rank()
	}
	return sq.Rank()
}

// String gives the coordinate name, or "-" for NoSquare.
func (sq Square) String() string {
	if sq > NoSquare {
		return "-"
	}
	return squareNames[sq]
}

// ParseSquare reads a coordinate name such as "e4".
func ParseSquare(s string) (Square, error) {
	if len(s) == 2 {
		file, rank := s[0]-'a', s[1]-'1'
		if file < 8 && rank < 8 {
			return NewSquare(int(file), int(rank)), nil
		}
	}
	return NoSquare, fmt.Errorf("%w: %q", ErrInvalidSquare, s)
}
