package engine

import (
	"context"
	"sync/atomic"

	"github.com/hailam/negachess/internal/board"
)

// Search constants
const (
	Infinity  = 50000
	MateValue = 49000 // score of being mated at the root
	MateScore = 48000 // scores beyond this are mates
	MaxPly    = 64
)

// IsMateScore reports whether score encodes a forced mate.
func IsMateScore(score int) bool {
	return score > MateScore || score < -MateScore
}

// PVTable stores the principal variation: row ply holds the best line
// found from that ply, moves[ply][ply:length[ply]].
type PVTable struct {
	length [MaxPly + 1]int
	moves  [MaxPly + 1][MaxPly + 1]board.Move
}

// Line returns the principal variation from the root.
func (pv *PVTable) Line() []board.Move {
	out := make([]board.Move, pv.length[0])
	copy(out, pv.moves[0][:pv.length[0]])
	return out
}

func (pv *PVTable) update(ply int, m board.Move) {
	pv.moves[ply][ply] = m
	next := pv.length[ply+1]
	copy(pv.moves[ply][ply+1:next], pv.moves[ply+1][ply+1:next])
	pv.length[ply] = max(next, ply+1)
}

// searcher is the state of one search call. It owns its position copy and
// touches the shared tables from a single goroutine.
type searcher struct {
	pos     *board.Position
	opts    Options
	tt      *TranspositionTable
	pawns   *PawnTable
	orderer *MoveOrderer
	pv      PVTable

	// rootPV is the line of the last completed iteration. While followPV
	// holds, each ply orders rootPV[ply] first.
	rootPV   []board.Move
	followPV bool

	nodes    uint64
	stopFlag *atomic.Bool
	ctx      context.Context
	tm       *TimeManager
	stopped  bool
}

// poll checks the external stop conditions every NodeCheckInterval nodes.
func (s *searcher) poll() {
	if s.nodes%s.opts.NodeCheckInterval != 0 {
		return
	}
	switch {
	case s.stopFlag.Load():
		s.stopped = true
	case s.ctx.Err() != nil:
		s.stopped = true
	case s.tm.ShouldStop():
		s.stopped = true
	}
}

// pvMoveAt returns the move to try first at ply if the current line still
// follows the previous iteration's best line.
func (s *searcher) pvMoveAt(ml *board.MoveList, ply int) board.Move {
	if !s.followPV {
		return board.NoMove
	}
	s.followPV = false
	if ply < len(s.rootPV) && ml.Contains(s.rootPV[ply]) {
		s.followPV = true
		return s.rootPV[ply]
	}
	return board.NoMove
}

// negamax is a fail-hard alpha-beta search: the result is always within
// [alpha, beta]. A stopped search unwinds returning 0.
func (s *searcher) negamax(depth, ply, alpha, beta int) int {
	s.pv.length[ply] = ply
	if s.stopped {
		return 0
	}

	pos := s.pos
	pvNode := beta-alpha > 1
	flag := TTUpperBound

	if ply > 0 && (pos.IsRepetition() || pos.IsFiftyMoveDraw()) {
		return clamp(0, alpha, beta)
	}

	if ply > 0 && !pvNode {
		if score, ok := s.tt.Probe(pos.Hash, alpha, beta, depth, ply); ok {
			return clamp(score, alpha, beta)
		}
	}

	s.poll()

	if depth <= 0 {
		return s.quiescence(ply, alpha, beta)
	}
	if ply >= MaxPly-1 {
		return clamp(Evaluate(pos, s.pawns), alpha, beta)
	}

	s.nodes++

	inCheck := pos.InCheck()
	if inCheck {
		depth++
	}

	// Null move: if passing still fails high, a real move will too.
	if depth >= 3 && !inCheck && ply > 0 {
		snap := pos.Snapshot()
		pos.MakeNullMove()
		score := -s.negamax(depth-1-s.opts.NullMoveReduction, ply+1, -beta, -beta+1)
		pos.Restore(snap)
		if s.stopped {
			return 0
		}
		if score >= beta {
			return beta
		}
	}

	var ml board.MoveList
	pos.GenerateMoves(&ml)
	s.orderer.Sort(pos, &ml, ply, s.pvMoveAt(&ml, ply))

	legal := 0
	for _, m := range ml.Slice() {
		snap := pos.Snapshot()
		if !pos.MakeMove(m) {
			continue
		}
		legal++

		var score int
		if legal == 1 {
			score = -s.negamax(depth-1, ply+1, -beta, -alpha)
		} else {
			// Late moves get a reduced null-window probe first.
			if legal > s.opts.LMRFullDepthMoves && depth >= s.opts.LMRDepthLimit &&
				!inCheck && !m.IsCapture() && !m.IsPromotion() {
				score = -s.negamax(depth-2, ply+1, -alpha-1, -alpha)
			} else {
				score = alpha + 1
			}
			if score > alpha {
				score = -s.negamax(depth-1, ply+1, -alpha-1, -alpha)
				if score > alpha && score < beta {
					score = -s.negamax(depth-1, ply+1, -beta, -alpha)
				}
			}
		}
		pos.Restore(snap)

		if s.stopped {
			return 0
		}

		if score > alpha {
			flag = TTExact
			if !m.IsCapture() {
				s.orderer.UpdateHistory(m, depth)
			}
			alpha = score
			s.pv.update(ply, m)

			if score >= beta {
				s.tt.Store(pos.Hash, beta, depth, TTLowerBound, ply)
				if !m.IsCapture() {
					s.orderer.UpdateKillers(m, ply)
				}
				return beta
			}
		}
	}

	if legal == 0 {
		if inCheck {
			return clamp(-MateValue+ply, alpha, beta)
		}
		return clamp(0, alpha, beta)
	}

	s.tt.Store(pos.Hash, alpha, depth, flag, ply)
	return alpha
}

// quiescence searches captures only until the position is quiet. The
// static evaluation is a lower bound: the side to move may decline every
// capture.
func (s *searcher) quiescence(ply, alpha, beta int) int {
	if s.stopped {
		return 0
	}
	s.poll()
	s.nodes++

	pos := s.pos
	eval := Evaluate(pos, s.pawns)
	if ply >= MaxPly-1 {
		return clamp(eval, alpha, beta)
	}
	if eval >= beta {
		return beta
	}
	if eval > alpha {
		alpha = eval
	}

	var ml board.MoveList
	pos.GenerateCaptures(&ml)
	s.orderer.Sort(pos, &ml, ply, board.NoMove)

	for _, m := range ml.Slice() {
		snap := pos.Snapshot()
		if !pos.MakeMove(m) {
			continue
		}
		score := -s.quiescence(ply+1, -beta, -alpha)
		pos.Restore(snap)

		if s.stopped {
			return 0
		}
		if score > alpha {
			alpha = score
			if score >= beta {
				return beta
			}
		}
	}
	return alpha
}

func clamp(score, alpha, beta int) int {
	return min(max(score, alpha), beta)
}
