package engine

import (
	"cmp"
	"slices"

	"github.com/hailam/negachess/internal/board"
)

// Move ordering priorities
const (
	PVMoveScore   = 20000 // move from the previous iteration's best line
	CaptureBase   = 10000 // added to the MVV-LVA score
	KillerScore1  = 9000
	KillerScore2  = 8000
	maxHistoryVal = 7000 // quiet history stays below the killers
)

// mvvLva[attacker][victim]: the most valuable victim first, and among
// equal victims the least valuable attacker first.
var mvvLva [12][12]int

func init() {
	for att := range mvvLva {
		for vic := range mvvLva[att] {
			mvvLva[att][vic] = (vic%6+1)*100 + 5 - att%6
		}
	}
}

// MoveOrderer holds the killer and history tables. Both are reset at the
// start of every search.
type MoveOrderer struct {
	// Killer moves (quiet moves that caused beta cutoffs), two per ply
	killers [MaxPly][2]board.Move

	// History heuristic, indexed by [piece][to]
	history [12][64]int
}

// NewMoveOrderer creates a new move orderer.
func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Clear resets killers and history.
func (mo *MoveOrderer) Clear() {
	*mo = MoveOrderer{}
}

// ScoreMove returns the ordering score of m at ply. pvMove is the move the
// previous iteration chose here, or NoMove.
func (mo *MoveOrderer) ScoreMove(pos *board.Position, m board.Move, ply int, pvMove board.Move) int {
	if m == pvMove && pvMove != board.NoMove {
		return PVMoveScore
	}
	if m.IsCapture() {
		victim := pos.PieceAt(m.To())
		if m.IsEnPassant() {
			victim = board.NewPiece(board.Pawn, pos.SideToMove.Other())
		}
		return mvvLva[m.Piece()][victim] + CaptureBase
	}
	if mo.killers[ply][0] == m {
		return KillerScore1
	}
	if mo.killers[ply][1] == m {
		return KillerScore2
	}
	return mo.history[m.Piece()][m.To()]
}

type scoredMove struct {
	move  board.Move
	score int
}

// Sort orders ml by descending score. Ties keep generation order, so the
// result is deterministic for a given position and table state.
func (mo *MoveOrderer) Sort(pos *board.Position, ml *board.MoveList, ply int, pvMove board.Move) {
	var buf [256]scoredMove
	scored := buf[:ml.Count]
	for i, m := range ml.Slice() {
		scored[i] = scoredMove{m, mo.ScoreMove(pos, m, ply, pvMove)}
	}
	slices.SortStableFunc(scored, func(a, b scoredMove) int {
		return cmp.Compare(b.score, a.score)
	})
	for i := range scored {
		ml.Moves[i] = scored[i].move
	}
}

// UpdateKillers records a quiet move that failed high at ply.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	if ply >= MaxPly || mo.killers[ply][0] == m {
		return
	}
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// UpdateHistory rewards a quiet move that raised alpha.
func (mo *MoveOrderer) UpdateHistory(m board.Move, depth int) {
	h := &mo.history[m.Piece()][m.To()]
	*h = min(*h+depth, maxHistoryVal)
}
