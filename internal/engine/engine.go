package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/negachess/internal/board"
)

// SearchInfo describes one completed iteration.
type SearchInfo struct {
	Depth    int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int // Permille of hash table used
}

// Limits bounds a search. The zero value searches to MaxPly until stopped.
type Limits struct {
	Depth     int              // maximum depth (0 = no limit)
	MoveTime  time.Duration    // fixed time for this move
	Time      [2]time.Duration // remaining clock per color
	Inc       [2]time.Duration // increment per color
	MovesToGo int              // moves to the next time control (0 = sudden death)
	Infinite  bool             // ignore the clock; run until stopped
}

// Result is the outcome of the deepest completed iteration.
type Result struct {
	Move    board.Move
	Score   int
	Depth   int
	Nodes   uint64
	PV      []board.Move
	Elapsed time.Duration
}

// Engine runs searches. It owns the transposition table, the ordering
// tables and the pawn cache; only one search may run at a time.
type Engine struct {
	tables  *board.Tables
	opts    Options
	tt      *TranspositionTable
	pawns   *PawnTable
	orderer *MoveOrderer
	tm      TimeManager
	stop    atomic.Bool

	// OnInfo, if set, is called after every completed iteration.
	OnInfo func(SearchInfo)
}

// NewEngine creates an engine over the given attack tables.
func NewEngine(tables *board.Tables, opts Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("engine options: %w", err)
	}
	return &Engine{
		tables:  tables,
		opts:    opts,
		tt:      NewTranspositionTable(opts.HashMB),
		pawns:   NewPawnTable(opts.PawnHashMB),
		orderer: NewMoveOrderer(),
	}, nil
}

// Options returns the current options.
func (e *Engine) Options() Options {
	return e.opts
}

// SetOptions replaces the options, reallocating the tables whose size
// changed. It must not be called during a search.
func (e *Engine) SetOptions(opts Options) error {
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("engine options: %w", err)
	}
	if opts.HashMB != e.opts.HashMB {
		e.tt = NewTranspositionTable(opts.HashMB)
	}
	if opts.PawnHashMB != e.opts.PawnHashMB {
		e.pawns = NewPawnTable(opts.PawnHashMB)
	}
	e.opts = opts
	return nil
}

// Tables returns the attack tables the engine was built with.
func (e *Engine) Tables() *board.Tables {
	return e.tables
}

// Search runs iterative deepening on a copy of pos and returns the result
// of the deepest completed iteration. It returns early when Stop is called,
// when ctx is done, or when the limits run out; an interrupted iteration is
// discarded. Log lines go to the logger carried by ctx, if any.
func (e *Engine) Search(ctx context.Context, pos *board.Position, limits Limits) Result {
	logger := zerolog.Ctx(ctx)
	e.stop.Store(false)
	e.orderer.Clear()
	e.tm.Init(limits, pos.SideToMove, 2*(pos.FullMoveNumber-1)+int(pos.SideToMove))

	s := e.newSearcher(ctx, pos)

	maxDepth := MaxPly - 1
	if limits.Depth > 0 {
		maxDepth = min(limits.Depth, maxDepth)
	}

	logger.Debug().
		Str("fen", pos.ToFEN()).
		Int("depth", limits.Depth).
		Dur("movetime", limits.MoveTime).
		Dur("optimum", e.tm.OptimumTime()).
		Dur("maximum", e.tm.MaximumTime()).
		Msg("search started")

	var res Result
	alpha, beta := -Infinity, Infinity
	for depth := 1; depth <= maxDepth; {
		s.followPV = true
		score := s.negamax(depth, 0, alpha, beta)
		if s.stopped {
			break
		}

		// Outside the aspiration window: repeat this depth at full width.
		if score <= alpha || score >= beta {
			logger.Trace().Int("depth", depth).Int("score", score).Msg("aspiration window failed")
			alpha, beta = -Infinity, Infinity
			continue
		}
		alpha, beta = score-e.opts.AspirationWindow, score+e.opts.AspirationWindow

		pv := s.pv.Line()
		s.rootPV = pv
		res = Result{Score: score, Depth: depth, Nodes: s.nodes, PV: pv, Elapsed: e.tm.Elapsed()}
		if len(pv) > 0 {
			res.Move = pv[0]
		}

		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth:    depth,
				Score:    score,
				Nodes:    s.nodes,
				Time:     res.Elapsed,
				PV:       pv,
				HashFull: e.tt.HashFull(),
			})
		}

		// No legal moves at the root, or a forced mate already in hand.
		if len(pv) == 0 || (IsMateScore(score) && !limits.Infinite) {
			break
		}
		if e.tm.PastOptimum() {
			break
		}
		depth++
	}

	// Stopped before the first iteration finished: any legal move beats none.
	if res.Move == board.NoMove {
		if moves := pos.LegalMoves(); len(moves) > 0 {
			res.Move = moves[0]
		}
	}
	res.Nodes = s.nodes
	res.Elapsed = e.tm.Elapsed()

	if ev := logger.Debug(); ev.Enabled() {
		ev.Stringer("bestmove", res.Move).
			Str("score", FormatScore(res.Score)).
			Int("depth", res.Depth).
			Uint64("nodes", res.Nodes).
			Dur("elapsed", res.Elapsed).
			Bool("stopped", s.stopped).
			Strs("pv", board.MovesToSAN(pos, res.PV)).
			Msg("search finished")
	}
	return res
}

func (e *Engine) newSearcher(ctx context.Context, pos *board.Position) *searcher {
	return &searcher{
		pos:      pos.Clone(),
		opts:     e.opts,
		tt:       e.tt,
		pawns:    e.pawns,
		orderer:  e.orderer,
		stopFlag: &e.stop,
		ctx:      ctx,
		tm:       &e.tm,
	}
}

// Stop asks a running search to return. It is safe to call from any
// goroutine.
func (e *Engine) Stop() {
	e.stop.Store(true)
}

// Clear empties the transposition table, the pawn cache and the ordering
// tables.
func (e *Engine) Clear() {
	e.tt.Clear()
	e.pawns.Clear()
	e.orderer.Clear()
}

// HashFull returns the transposition table usage in permille.
func (e *Engine) HashFull() int {
	return e.tt.HashFull()
}

// Evaluate returns the static evaluation of a position.
func (e *Engine) Evaluate(pos *board.Position) int {
	return Evaluate(pos, e.pawns)
}

// MateIn converts a mate score into moves to mate: positive when the side
// to move mates, negative when it is mated. ok is false for other scores.
func MateIn(score int) (n int, ok bool) {
	switch {
	case score > MateScore:
		return (MateValue-score)/2 + 1, true
	case score < -MateScore:
		return -(score + MateValue) / 2, true
	}
	return 0, false
}

// FormatScore renders a score the way protocol info lines expect it:
// "cp 35" or "mate 3".
func FormatScore(score int) string {
	if n, ok := MateIn(score); ok {
		return fmt.Sprintf("mate %d", n)
	}
	return fmt.Sprintf("cp %d", score)
}
