package board

import "fmt"

// DefaultSeed seeds both the magic search and the Zobrist keys.
const DefaultSeed uint64 = 0x98F107A2BEEF1234

// Tables holds every precomputed lookup the board needs: leaper attacks,
// magic slider attacks, the castling-rights update mask and the Zobrist
// keys. It is immutable once built and may be shared between goroutines.
type Tables struct {
	pawn   [2][64]Bitboard // [Color][Square]
	knight [64]Bitboard
	king   [64]Bitboard
	bishop [64]Magic
	rook   [64]Magic

	// castleMask[sq] holds the rights that survive a move touching sq.
	castleMask [64]CastlingRights

	keys zobristKeys
}

// NewTables builds the attack tables and Zobrist keys from seed. It fails
// only if the magic search exhausts its budget on some square, in which
// case the returned error wraps ErrMagicSearch.
func NewTables(seed uint64) (*Tables, error) {
	return buildTables(seed, magicAttempts)
}

func buildTables(seed uint64, attempts int) (*Tables, error) {
	t := &Tables{}
	rng := newPRNG(seed)

	var chachaSeed [32]byte
	for i := 0; i < 32; i += 8 {
		v := rng.next()
		for j := 0; j < 8; j++ {
			chachaSeed[i+j] = byte(v >> (8 * j))
		}
	}

	t.initLeapers()
	t.initCastleMask()
	t.keys.init(rng)

	finder := newMagicFinder(chachaSeed, attempts)
	for sq := A1; sq <= H8; sq++ {
		var err error
		if t.bishop[sq], err = finder.find(sq, bishopSlider); err != nil {
			return nil, fmt.Errorf("build attack tables: %w", err)
		}
		if t.rook[sq], err = finder.find(sq, rookSlider); err != nil {
			return nil, fmt.Errorf("build attack tables: %w", err)
		}
	}
	return t, nil
}

func (t *Tables) initLeapers() {
	for sq := A1; sq <= H8; sq++ {
		bb := SquareBB(sq)

		t.pawn[White][sq] = bb.NorthEast() | bb.NorthWest()
		t.pawn[Black][sq] = bb.SouthEast() | bb.SouthWest()

		var n Bitboard
		n |= (bb << 17) & NotFileA
		n |= (bb << 15) & NotFileH
		n |= (bb >> 17) & NotFileH
		n |= (bb >> 15) & NotFileA
		n |= (bb << 10) & NotFileAB
		n |= (bb << 6) & NotFileGH
		n |= (bb >> 10) & NotFileGH
		n |= (bb >> 6) & NotFileAB
		t.knight[sq] = n

		t.king[sq] = bb.North() | bb.South() | bb.East() | bb.West() |
			bb.NorthEast() | bb.NorthWest() | bb.SouthEast() | bb.SouthWest()
	}
}

func (t *Tables) initCastleMask() {
	for sq := range t.castleMask {
		t.castleMask[sq] = AllCastling
	}
	t.castleMask[A1] &^= WhiteQueenSide
	t.castleMask[H1] &^= WhiteKingSide
	t.castleMask[E1] &^= WhiteKingSide | WhiteQueenSide
	t.castleMask[A8] &^= BlackQueenSide
	t.castleMask[H8] &^= BlackKingSide
	t.castleMask[E8] &^= BlackKingSide | BlackQueenSide
}

// PawnAttacks returns the squares a pawn of color c on sq attacks.
func (t *Tables) PawnAttacks(c Color, sq Square) Bitboard {
	return t.pawn[c][sq]
}

func (t *Tables) KnightAttacks(sq Square) Bitboard {
	return t.knight[sq]
}

func (t *Tables) KingAttacks(sq Square) Bitboard {
	return t.king[sq]
}

// BishopAttacks returns the diagonal rays from sq, each ending at the first
// occupied square.
func (t *Tables) BishopAttacks(sq Square, occupied Bitboard) Bitboard {
	m := &t.bishop[sq]
	return m.Attacks[m.index(occupied)]
}

// RookAttacks returns the orthogonal rays from sq.
func (t *Tables) RookAttacks(sq Square, occupied Bitboard) Bitboard {
	m := &t.rook[sq]
	return m.Attacks[m.index(occupied)]
}

func (t *Tables) QueenAttacks(sq Square, occupied Bitboard) Bitboard {
	return t.BishopAttacks(sq, occupied) | t.RookAttacks(sq, occupied)
}

// LeaperAttacks returns the attack set of a pawn, knight or king.
func (t *Tables) LeaperAttacks(p Piece, sq Square) Bitboard {
	switch p.Type() {
	case Pawn:
		return t.pawn[p.Color()][sq]
	case Knight:
		return t.knight[sq]
	case King:
		return t.king[sq]
	}
	return 0
}

// SliderAttacks returns the attack set of a bishop, rook or queen given the
// board occupancy.
func (t *Tables) SliderAttacks(p Piece, sq Square, occupied Bitboard) Bitboard {
	switch p.Type() {
	case Bishop:
		return t.BishopAttacks(sq, occupied)
	case Rook:
		return t.RookAttacks(sq, occupied)
	case Queen:
		return t.QueenAttacks(sq, occupied)
	}
	return 0
}

// Attacks returns the attack set of any piece kind on sq.
func (t *Tables) Attacks(p Piece, sq Square, occupied Bitboard) Bitboard {
	switch p.Type() {
	case Pawn, Knight, King:
		return t.LeaperAttacks(p, sq)
	}
	return t.SliderAttacks(p, sq, occupied)
}
