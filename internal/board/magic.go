package board

import (
	"encoding/binary"
	"fmt"

	"lukechampine.com/frand"
)

// Magic holds the magic bitboard data for a single square.
type Magic struct {
	Mask    Bitboard   // relevant occupancy, board edges excluded
	Magic   uint64     // multiplier
	Shift   uint8      // 64 - popcount(Mask)
	Attacks []Bitboard // indexed by (occ&Mask)*Magic >> Shift
}

// index maps an occupancy to its slot in Attacks.
func (m *Magic) index(occupied Bitboard) uint64 {
	return (uint64(occupied&m.Mask) * m.Magic) >> m.Shift
}

// magicAttempts is the number of candidates tried per square before the
// search gives up.
const magicAttempts = 1 << 22

type slider uint8

const (
	bishopSlider slider = iota
	rookSlider
)

func (s slider) String() string {
	if s == bishopSlider {
		return "bishop"
	}
	return "rook"
}

func (s slider) mask(sq Square) Bitboard {
	if s == bishopSlider {
		return bishopMask(sq)
	}
	return rookMask(sq)
}

func (s slider) attacks(sq Square, occupied Bitboard) Bitboard {
	if s == bishopSlider {
		return bishopAttacksSlow(sq, occupied)
	}
	return rookAttacksSlow(sq, occupied)
}

// magicFinder draws sparse random candidates from a seeded ChaCha stream so
// that the same seed always yields the same tables.
type magicFinder struct {
	rng      *frand.RNG
	attempts int
	buf      [8]byte
}

func newMagicFinder(seed [32]byte, attempts int) *magicFinder {
	return &magicFinder{
		rng:      frand.NewCustom(seed[:], 1024, 12),
		attempts: attempts,
	}
}

func (f *magicFinder) random() uint64 {
	f.rng.Read(f.buf[:])
	return binary.LittleEndian.Uint64(f.buf[:])
}

// candidate returns a number with few set bits; sparse multipliers produce
// far fewer collisions.
func (f *magicFinder) candidate() uint64 {
	return f.random() & f.random() & f.random()
}

// find searches for a collision-free multiplier for one square. Two
// occupancy subsets may share an index only if their attack sets agree.
func (f *magicFinder) find(sq Square, s slider) (Magic, error) {
	mask := s.mask(sq)
	bits := mask.PopCount()
	size := 1 << bits

	occupancies := make([]Bitboard, size)
	reference := make([]Bitboard, size)
	for i := range size {
		occupancies[i] = indexToOccupancy(i, mask)
		reference[i] = s.attacks(sq, occupancies[i])
	}

	used := make([]Bitboard, size)
	for range f.attempts {
		magic := f.candidate()
		if Bitboard((uint64(mask)*magic)&0xFF00000000000000).PopCount() < 6 {
			continue
		}

		clear(used)
		m := Magic{Mask: mask, Magic: magic, Shift: uint8(64 - bits)}
		ok := true
		for i := range size {
			idx := m.index(occupancies[i])
			// A slider always attacks at least one square, so zero marks a free slot.
			if used[idx] == 0 {
				used[idx] = reference[i]
			} else if used[idx] != reference[i] {
				ok = false
				break
			}
		}
		if ok {
			m.Attacks = make([]Bitboard, size)
			copy(m.Attacks, used)
			return m, nil
		}
	}

	return Magic{}, fmt.Errorf("%w: %s on %v after %d candidates", ErrMagicSearch, s, sq, f.attempts)
}

// indexToOccupancy returns the index-th subset of mask, bit i of index
// selecting the i-th lowest square of the mask.
func indexToOccupancy(index int, mask Bitboard) Bitboard {
	var occ Bitboard
	for i := 0; mask != 0; i++ {
		sq := mask.PopLSB()
		if index&(1<<i) != 0 {
			occ |= SquareBB(sq)
		}
	}
	return occ
}

// rookMask returns the relevant occupancy mask for a rook (excludes edges).
func rookMask(sq Square) Bitboard {
	var mask Bitboard
	file, rank := sq.File(), sq.Rank()

	for r := rank + 1; r < 7; r++ {
		mask |= SquareBB(NewSquare(file, r))
	}
	for r := rank - 1; r > 0; r-- {
		mask |= SquareBB(NewSquare(file, r))
	}
	for f := file + 1; f < 7; f++ {
		mask |= SquareBB(NewSquare(f, rank))
	}
	for f := file - 1; f > 0; f-- {
		mask |= SquareBB(NewSquare(f, rank))
	}
	return mask
}

// bishopMask returns the relevant occupancy mask for a bishop (excludes edges).
func bishopMask(sq Square) Bitboard {
	var mask Bitboard
	file, rank := sq.File(), sq.Rank()

	for f, r := file+1, rank+1; f < 7 && r < 7; f, r = f+1, r+1 {
		mask |= SquareBB(NewSquare(f, r))
	}
	for f, r := file-1, rank+1; f > 0 && r < 7; f, r = f-1, r+1 {
		mask |= SquareBB(NewSquare(f, r))
	}
	for f, r := file+1, rank-1; f < 7 && r > 0; f, r = f+1, r-1 {
		mask |= SquareBB(NewSquare(f, r))
	}
	for f, r := file-1, rank-1; f > 0 && r > 0; f, r = f-1, r-1 {
		mask |= SquareBB(NewSquare(f, r))
	}
	return mask
}

// ray walks from sq in direction (df, dr) until it leaves the board or
// hits an occupied square, which is included.
func ray(sq Square, df, dr int, occupied Bitboard) Bitboard {
	var attacks Bitboard
	for f, r := sq.File()+df, sq.Rank()+dr; f >= 0 && f <= 7 && r >= 0 && r <= 7; f, r = f+df, r+dr {
		s := SquareBB(NewSquare(f, r))
		attacks |= s
		if occupied&s != 0 {
			break
		}
	}
	return attacks
}

// bishopAttacksSlow computes bishop attacks by ray casting. Only table
// construction and tests use it.
func bishopAttacksSlow(sq Square, occupied Bitboard) Bitboard {
	return ray(sq, 1, 1, occupied) | ray(sq, -1, 1, occupied) |
		ray(sq, 1, -1, occupied) | ray(sq, -1, -1, occupied)
}

// rookAttacksSlow computes rook attacks by ray casting.
func rookAttacksSlow(sq Square, occupied Bitboard) Bitboard {
	return ray(sq, 0, 1, occupied) | ray(sq, 0, -1, occupied) |
		ray(sq, 1, 0, occupied) | ray(sq, -1, 0, occupied)
}
