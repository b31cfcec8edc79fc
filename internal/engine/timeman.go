package engine

import (
	"time"

	"github.com/hailam/negachess/internal/board"
)

// TimeManager turns search limits into two budgets: an optimum after which
// no new iteration starts, and a maximum at which the search is stopped.
type TimeManager struct {
	optimumTime time.Duration
	maximumTime time.Duration
	startTime   time.Time
	limited     bool
}

// Init sets the budgets for a search starting now. ply is the game ply.
func (tm *TimeManager) Init(limits Limits, us board.Color, ply int) {
	*tm = TimeManager{startTime: time.Now()}

	if limits.MoveTime > 0 {
		tm.optimumTime = limits.MoveTime
		tm.maximumTime = limits.MoveTime
		tm.limited = true
		return
	}

	timeLeft := limits.Time[us]
	if limits.Infinite || timeLeft <= 0 {
		return
	}
	tm.limited = true
	inc := limits.Inc[us]

	// Sudden death: expect fewer moves as the game goes on.
	mtg := limits.MovesToGo
	if mtg <= 0 {
		mtg = min(max(50-ply/4, 10), 50)
	}

	tm.optimumTime = timeLeft/time.Duration(mtg) + inc*9/10
	if ply < 8 {
		tm.optimumTime = tm.optimumTime * 85 / 100
	}

	// Maximum: 5x optimum, but never more than 80% of what is left.
	tm.maximumTime = min(tm.optimumTime*5, timeLeft*8/10)

	tm.optimumTime = max(tm.optimumTime, 10*time.Millisecond)
	tm.maximumTime = max(tm.maximumTime, min(50*time.Millisecond, timeLeft))
	tm.optimumTime = min(tm.optimumTime, tm.maximumTime)
}

// Elapsed returns the time elapsed since search started.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.startTime)
}

// Limited reports whether the clock bounds this search at all.
func (tm *TimeManager) Limited() bool {
	return tm.limited
}

// OptimumTime returns the target time for this move.
func (tm *TimeManager) OptimumTime() time.Duration {
	return tm.optimumTime
}

// MaximumTime returns the maximum time allowed.
func (tm *TimeManager) MaximumTime() time.Duration {
	return tm.maximumTime
}

// ShouldStop reports whether the hard limit has passed.
func (tm *TimeManager) ShouldStop() bool {
	return tm.limited && tm.Elapsed() >= tm.maximumTime
}

// PastOptimum reports whether starting another iteration is unwise.
func (tm *TimeManager) PastOptimum() bool {
	return tm.limited && tm.Elapsed() >= tm.optimumTime
}
