package board

// MakeMove applies a pseudo-legal move. If the move leaves the mover's king
// attacked, the position is restored exactly and MakeMove returns false.
// On success the caller undoes the move by restoring a Snapshot taken
// before the call.
func (p *Position) MakeMove(m Move) bool {
	saved := p.Snapshot()
	k := &p.tables.keys

	us := p.SideToMove
	them := us.Other()
	from, to, pc := m.From(), m.To(), m.Piece()

	p.pushHistory()
	p.HalfMoveClock++

	if m.IsCapture() {
		capSq := to
		if m.IsEnPassant() {
			if us == White {
				capSq = to - 8
			} else {
				capSq = to + 8
			}
		}
		if captured := p.PieceAt(capSq); captured != NoPiece && captured.Color() == them {
			p.removePiece(captured, capSq)
		}
		p.HalfMoveClock = 0
	}

	p.removePiece(pc, from)
	if promo := m.Promotion(); promo != NoPiece {
		p.addPiece(promo, to)
	} else {
		p.addPiece(pc, to)
	}
	if pc.Type() == Pawn {
		p.HalfMoveClock = 0
	}

	if p.EnPassant != NoSquare {
		p.Hash ^= k.enPassant[p.EnPassant]
		p.EnPassant = NoSquare
	}
	if m.IsDoublePush() {
		p.EnPassant = (from + to) / 2
		p.Hash ^= k.enPassant[p.EnPassant]
	}

	if m.IsCastling() {
		rook := NewPiece(Rook, us)
		switch to {
		case G1, G8:
			p.removePiece(rook, to+1)
			p.addPiece(rook, to-1)
		case C1, C8:
			p.removePiece(rook, to-2)
			p.addPiece(rook, to+1)
		}
	}

	p.Hash ^= k.castling[p.Castling]
	p.Castling &= p.tables.castleMask[from] & p.tables.castleMask[to]
	p.Hash ^= k.castling[p.Castling]

	if us == Black {
		p.FullMoveNumber++
	}
	p.SideToMove = them
	p.Hash ^= k.side

	if p.IsSquareAttacked(p.KingSquare(us), them) {
		p.Restore(saved)
		return false
	}
	return true
}

// MakeNullMove passes the turn. Undo it by restoring a Snapshot. The
// half-move clock restarts so repetitions never span a null move.
func (p *Position) MakeNullMove() {
	k := &p.tables.keys
	p.pushHistory()
	if p.EnPassant != NoSquare {
		p.Hash ^= k.enPassant[p.EnPassant]
		p.EnPassant = NoSquare
	}
	p.HalfMoveClock = 0
	p.SideToMove = p.SideToMove.Other()
	p.Hash ^= k.side
}

func (p *Position) addPiece(pc Piece, sq Square) {
	bb := SquareBB(sq)
	p.Pieces[pc] |= bb
	p.Occupied[pc.Color()] |= bb
	p.All |= bb
	p.Hash ^= p.tables.keys.piece[pc][sq]
	if pc.Type() == Pawn {
		p.PawnKey ^= p.tables.keys.piece[pc][sq]
	}
}

func (p *Position) removePiece(pc Piece, sq Square) {
	bb := SquareBB(sq)
	p.Pieces[pc] &^= bb
	p.Occupied[pc.Color()] &^= bb
	p.All &^= bb
	p.Hash ^= p.tables.keys.piece[pc][sq]
	if pc.Type() == Pawn {
		p.PawnKey ^= p.tables.keys.piece[pc][sq]
	}
}
