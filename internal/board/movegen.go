package board

// GenerateMoves fills ml with every pseudo-legal move in the position.
// Moves may leave the mover's king attacked; MakeMove rejects those.
func (p *Position) GenerateMoves(ml *MoveList) {
	ml.Count = 0
	p.generate(ml, false)
}

// GenerateCaptures fills ml with the pseudo-legal captures only, en passant
// and capturing promotions included.
func (p *Position) GenerateCaptures(ml *MoveList) {
	ml.Count = 0
	p.generate(ml, true)
}

func (p *Position) generate(ml *MoveList, capturesOnly bool) {
	us := p.SideToMove
	enemies := p.Occupied[us.Other()]
	targets := ^p.Occupied[us]
	if capturesOnly {
		targets = enemies
	}

	p.generatePawnMoves(ml, us, capturesOnly)

	for pt := Knight; pt <= King; pt++ {
		pc := NewPiece(pt, us)
		pieces := p.Pieces[pc]
		for pieces != 0 {
			from := pieces.PopLSB()
			attacks := p.tables.Attacks(pc, from, p.All) & targets
			for attacks != 0 {
				to := attacks.PopLSB()
				var flags MoveFlag
				if enemies.IsSet(to) {
					flags = FlagCapture
				}
				ml.Add(NewMove(from, to, pc, NoPiece, flags))
			}
		}
	}

	if !capturesOnly {
		p.generateCastlingMoves(ml, us)
	}
}

func (p *Position) generatePawnMoves(ml *MoveList, us Color, capturesOnly bool) {
	pawn := NewPiece(Pawn, us)
	pawns := p.Pieces[pawn]
	enemies := p.Occupied[us.Other()]
	empty := ^p.All

	var push1, push2, capWest, capEast, promotionRank Bitboard
	var dir int
	if us == White {
		push1 = pawns.North() & empty
		push2 = (push1 & Rank3).North() & empty
		capWest = pawns.NorthWest() & enemies
		capEast = pawns.NorthEast() & enemies
		promotionRank = Rank8
		dir = 8
	} else {
		push1 = pawns.South() & empty
		push2 = (push1 & Rank6).South() & empty
		capWest = pawns.SouthWest() & enemies
		capEast = pawns.SouthEast() & enemies
		promotionRank = Rank1
		dir = -8
	}

	add := func(targets Bitboard, delta int, flags MoveFlag) {
		for targets != 0 {
			to := targets.PopLSB()
			from := Square(int(to) - delta)
			if promotionRank.IsSet(to) {
				addPromotions(ml, from, to, us, flags)
			} else {
				ml.Add(NewMove(from, to, pawn, NoPiece, flags))
			}
		}
	}

	if !capturesOnly {
		add(push1, dir, 0)
		add(push2, 2*dir, FlagDouble)
	}
	add(capWest, dir-1, FlagCapture)
	add(capEast, dir+1, FlagCapture)

	if p.EnPassant != NoSquare {
		// A pawn of ours attacks the target exactly when an enemy pawn on
		// the target would attack it.
		attackers := p.tables.pawn[us.Other()][p.EnPassant] & pawns
		for attackers != 0 {
			from := attackers.PopLSB()
			ml.Add(NewMove(from, p.EnPassant, pawn, NoPiece, FlagCapture|FlagEnPassant))
		}
	}
}

// addPromotions adds the four promotions, queen first.
func addPromotions(ml *MoveList, from, to Square, us Color, flags MoveFlag) {
	pawn := NewPiece(Pawn, us)
	for _, pt := range [...]PieceType{Queen, Rook, Bishop, Knight} {
		ml.Add(NewMove(from, to, pawn, NewPiece(pt, us), flags))
	}
}

type castleRule struct {
	right    CastlingRights
	from, to Square
	empty    Bitboard
	safe     [3]Square // king start, transit and landing
}

var castleRules = [2][2]castleRule{
	White: {
		{WhiteKingSide, E1, G1, SquareBB(F1) | SquareBB(G1), [3]Square{E1, F1, G1}},
		{WhiteQueenSide, E1, C1, SquareBB(B1) | SquareBB(C1) | SquareBB(D1), [3]Square{E1, D1, C1}},
	},
	Black: {
		{BlackKingSide, E8, G8, SquareBB(F8) | SquareBB(G8), [3]Square{E8, F8, G8}},
		{BlackQueenSide, E8, C8, SquareBB(B8) | SquareBB(C8) | SquareBB(D8), [3]Square{E8, D8, C8}},
	},
}

func (p *Position) generateCastlingMoves(ml *MoveList, us Color) {
	them := us.Other()
	for _, r := range castleRules[us] {
		if p.Castling&r.right == 0 || p.All&r.empty != 0 {
			continue
		}
		if p.IsSquareAttacked(r.safe[0], them) || p.IsSquareAttacked(r.safe[1], them) || p.IsSquareAttacked(r.safe[2], them) {
			continue
		}
		ml.Add(NewMove(r.from, r.to, NewPiece(King, us), NoPiece, FlagCastling))
	}
}

// LegalMoves returns the legal moves, filtered by make-then-restore.
func (p *Position) LegalMoves() []Move {
	var ml MoveList
	p.GenerateMoves(&ml)
	legal := make([]Move, 0, ml.Count)
	for _, m := range ml.Slice() {
		s := p.Snapshot()
		if p.MakeMove(m) {
			legal = append(legal, m)
			p.Restore(s)
		}
	}
	return legal
}

// HasLegalMoves reports whether the side to move has any legal move.
func (p *Position) HasLegalMoves() bool {
	var ml MoveList
	p.GenerateMoves(&ml)
	for _, m := range ml.Slice() {
		s := p.Snapshot()
		if p.MakeMove(m) {
			p.Restore(s)
			return true
		}
	}
	return false
}
