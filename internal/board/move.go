package board

// Move packs a move into 32 bits:
//
//	bits 0-5    from square
//	bits 6-11   to square
//	bits 12-15  moving piece kind
//	bits 16-19  promoted piece kind (NoPiece when none)
//	bits 20-23  flags
//
// Two moves are the same move exactly when their encodings are equal.
type Move uint32

// MoveFlag marks the special cases MakeMove has to know about.
type MoveFlag uint32

const (
	FlagCapture   MoveFlag = 1 << 20
	FlagDouble    MoveFlag = 1 << 21
	FlagEnPassant MoveFlag = 1 << 22
	FlagCastling  MoveFlag = 1 << 23
)

// NoMove is the zero move; no real move has from == to.
const NoMove Move = 0

// NewMove packs a move.
func NewMove(from, to Square, piece, promo Piece, flags MoveFlag) Move {
	return Move(from) | Move(to)<<6 | Move(piece)<<12 | Move(promo)<<16 | Move(flags)
}

func (m Move) From() Square { return Square(m & 0x3F) }
func (m Move) To() Square   { return Square((m >> 6) & 0x3F) }

// Piece returns the kind of the moving piece.
func (m Move) Piece() Piece { return Piece((m >> 12) & 0xF) }

// Promotion returns the promoted piece kind, or NoPiece.
func (m Move) Promotion() Piece { return Piece((m >> 16) & 0xF) }

func (m Move) IsPromotion() bool  { return m.Promotion() != NoPiece }
func (m Move) IsCapture() bool    { return Move(FlagCapture)&m != 0 }
func (m Move) IsDoublePush() bool { return Move(FlagDouble)&m != 0 }
func (m Move) IsEnPassant() bool  { return Move(FlagEnPassant)&m != 0 }
func (m Move) IsCastling() bool   { return Move(FlagCastling)&m != 0 }

// String returns the move in coordinate notation: e2e4, e7e8q.
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += string(pieceChars[m.Promotion().Type()+6])
	}
	return s
}

// MoveList is a fixed-capacity list; no legal position has more than 218
// moves.
type MoveList struct {
	Moves [256]Move
	Count int
}

// Add appends a move.
func (ml *MoveList) Add(m Move) {
	ml.Moves[ml.Count] = m
	ml.Count++
}

// Len returns the number of moves.
func (ml *MoveList) Len() int { return ml.Count }

// Slice returns the filled part of the list.
func (ml *MoveList) Slice() []Move { return ml.Moves[:ml.Count] }

// Contains reports whether m is in the list.
func (ml *MoveList) Contains(m Move) bool {
	for _, x := range ml.Slice() {
		if x == m {
			return true
		}
	}
	return false
}
