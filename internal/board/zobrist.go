package board

// zobristKeys are the random values XORed into Position.Hash.
type zobristKeys struct {
	piece     [12][64]uint64 // [Piece][Square]
	enPassant [64]uint64     // keyed by the en passant target square
	castling  [16]uint64     // all 16 castling combinations
	side      uint64         // XOR when black to move
}

// prng is xorshift64*, used for keys and for seeding the magic search.
type prng struct {
	state uint64
}

func newPRNG(seed uint64) *prng {
	if seed == 0 {
		seed = DefaultSeed
	}
	return &prng{state: seed}
}

func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

func (z *zobristKeys) init(rng *prng) {
	for pc := range z.piece {
		for sq := range z.piece[pc] {
			z.piece[pc][sq] = rng.next()
		}
	}
	for sq := range z.enPassant {
		z.enPassant[sq] = rng.next()
	}
	for i := range z.castling {
		z.castling[i] = rng.next()
	}
	z.side = rng.next()
}

// PieceKey returns the Zobrist key for piece p on sq.
func (t *Tables) PieceKey(p Piece, sq Square) uint64 {
	return t.keys.piece[p][sq]
}
