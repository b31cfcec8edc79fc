// Package engine implements the chess search: iterative deepening over a
// fail-hard negamax with quiescence, null-move pruning, late-move
// reductions and principal-variation search, backed by a transposition
// table and killer/history move ordering.
package engine

import (
	"github.com/hailam/negachess/internal/board"
)

// Material values, indexed by piece type.
var pieceValues = [6]int{100, 300, 350, 500, 1000, 10000}

const (
	doubledPawnPenalty  = -10
	isolatedPawnPenalty = -10
	semiOpenFileScore   = 10
	openFileScore       = 15
	kingShieldBonus     = 5
)

// Passed pawn bonus by rank, counted from the pawn's own side.
var passedPawnBonus = [8]int{0, 10, 30, 50, 75, 100, 150, 200}

// Piece-square tables, written from White's point of view with rank 8 on
// the first row. A white piece on sq reads index sq^56; a black piece reads
// index sq, which is the same table seen from the other side.
var pawnPST = [64]int{
	90, 90, 90, 90, 90, 90, 90, 90,
	30, 30, 30, 40, 40, 30, 30, 30,
	20, 20, 20, 30, 30, 30, 20, 20,
	10, 10, 10, 20, 20, 10, 10, 10,
	5, 5, 10, 20, 20, 5, 5, 5,
	0, 0, 0, 5, 5, 0, 0, 0,
	0, 0, 0, -10, -10, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var knightPST = [64]int{
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 10, 10, 0, 0, -5,
	-5, 5, 20, 20, 20, 20, 5, -5,
	-5, 10, 20, 30, 30, 20, 10, -5,
	-5, 10, 20, 30, 30, 20, 10, -5,
	-5, 5, 20, 10, 10, 20, 5, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, -10, 0, 0, 0, 0, -10, -5,
}

var bishopPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 10, 10, 0, 0, 0,
	0, 0, 10, 20, 20, 10, 0, 0,
	0, 0, 10, 20, 20, 10, 0, 0,
	0, 10, 0, 0, 0, 0, 10, 0,
	0, 30, 0, 0, 0, 0, 30, 0,
	0, 0, -10, 0, 0, -10, 0, 0,
}

var rookPST = [64]int{
	50, 50, 50, 50, 50, 50, 50, 50,
	50, 50, 50, 50, 50, 50, 50, 50,
	0, 0, 10, 20, 20, 10, 0, 0,
	0, 0, 10, 20, 20, 10, 0, 0,
	0, 0, 10, 20, 20, 10, 0, 0,
	0, 0, 10, 20, 20, 10, 0, 0,
	0, 0, 10, 20, 20, 10, 0, 0,
	0, 0, 0, 20, 20, 0, 0, 0,
}

// The queen has no table; its mobility term positions it.
var queenPST [64]int

var kingPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 5, 5, 5, 5, 0, 0,
	0, 5, 5, 10, 10, 5, 5, 0,
	0, 5, 10, 20, 20, 10, 5, 0,
	0, 5, 10, 20, 20, 10, 5, 0,
	0, 0, 5, 10, 10, 5, 0, 0,
	0, 5, 5, -5, -5, 0, 5, 0,
	0, 0, 5, 0, -15, 0, 10, 0,
}

var psts = [6]*[64]int{&pawnPST, &knightPST, &bishopPST, &rookPST, &queenPST, &kingPST}

// Pawn-structure masks, indexed by square.
var (
	fileMasks     [64]board.Bitboard
	isolatedMasks [64]board.Bitboard    // the neighbouring files
	passedMasks   [2][64]board.Bitboard // own and neighbouring files ahead of the pawn
)

func init() {
	for sq := board.A1; sq <= board.H8; sq++ {
		file, rank := sq.File(), sq.Rank()
		fileMasks[sq] = board.FileMask[file]

		var adjacent board.Bitboard
		if file > 0 {
			adjacent |= board.FileMask[file-1]
		}
		if file < 7 {
			adjacent |= board.FileMask[file+1]
		}
		isolatedMasks[sq] = adjacent

		span := adjacent | board.FileMask[file]
		for r := 0; r < 8; r++ {
			switch {
			case r > rank:
				passedMasks[board.White][sq] |= span & board.RankMask[r]
			case r < rank:
				passedMasks[board.Black][sq] |= span & board.RankMask[r]
			}
		}
	}
}

// Evaluate returns the static score of the position in centipawns from the
// side to move's point of view. pawns caches the pawn-structure term and
// may be nil.
func Evaluate(pos *board.Position, pawns *PawnTable) int {
	t := pos.Tables()
	score := pawnStructure(pos, pawns)

	whitePawns := pos.Pieces[board.WhitePawn]
	blackPawns := pos.Pieces[board.BlackPawn]
	allPawns := whitePawns | blackPawns

	for pc := board.WhitePawn; pc <= board.BlackKing; pc++ {
		pt := pc.Type()
		us := pc.Color()
		sign := 1
		ownPawns := whitePawns
		if us == board.Black {
			sign = -1
			ownPawns = blackPawns
		}

		bb := pos.Pieces[pc]
		for bb != 0 {
			sq := bb.PopLSB()
			idx := sq
			if us == board.White {
				idx ^= 56
			}
			s := pieceValues[pt] + psts[pt][idx]

			switch pt {
			case board.Bishop:
				s += t.BishopAttacks(sq, pos.All).PopCount()
			case board.Queen:
				s += t.QueenAttacks(sq, pos.All).PopCount()
			case board.Rook:
				if ownPawns&fileMasks[sq] == 0 {
					s += semiOpenFileScore
				}
				if allPawns&fileMasks[sq] == 0 {
					s += openFileScore
				}
			case board.King:
				s -= kingFilePenalty(sq, ownPawns, allPawns)
				s += (t.KingAttacks(sq) & pos.Occupied[us]).PopCount() * kingShieldBonus
			}
			score += sign * s
		}
	}

	if pos.SideToMove == board.Black {
		return -score
	}
	return score
}

// kingFilePenalty charges a king for each semi-open or open file among its
// own file and the neighbouring ones.
func kingFilePenalty(sq board.Square, ownPawns, allPawns board.Bitboard) int {
	penalty := 0
	for near := fileMasks[sq] | isolatedMasks[sq]; near != 0; {
		file := fileMasks[near.PopLSB()]
		near &^= file
		if ownPawns&file == 0 {
			penalty += semiOpenFileScore
		}
		if allPawns&file == 0 {
			penalty += openFileScore
		}
	}
	return penalty
}

// pawnStructure scores doubled, isolated and passed pawns for both sides,
// from White's point of view.
func pawnStructure(pos *board.Position, pawns *PawnTable) int {
	key := pos.PawnKey
	if pawns != nil {
		if s, ok := pawns.Probe(key); ok {
			return s
		}
	}

	score := 0
	for _, us := range [2]board.Color{board.White, board.Black} {
		own := pos.Pieces[board.NewPiece(board.Pawn, us)]
		enemy := pos.Pieces[board.NewPiece(board.Pawn, us.Other())]
		sign := 1
		if us == board.Black {
			sign = -1
		}

		bb := own
		for bb != 0 {
			sq := bb.PopLSB()
			s := 0
			if n := (own & fileMasks[sq]).PopCount(); n > 1 {
				s += n * doubledPawnPenalty
			}
			if own&isolatedMasks[sq] == 0 {
				s += isolatedPawnPenalty
			}
			if enemy&passedMasks[us][sq] == 0 {
				s += passedPawnBonus[sq.RelativeRank(us)]
			}
			score += sign * s
		}
	}

	if pawns != nil {
		pawns.Store(key, score)
	}
	return score
}
