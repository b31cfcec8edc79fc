package engine

import "fmt"

// Options are the tunable search parameters. The pruning constants are
// empirical; they are exposed so they can be adjusted without a rebuild.
type Options struct {
	HashMB     int // transposition table size
	PawnHashMB int // pawn-structure cache size

	NullMoveReduction int // R in depth-1-R for the null-move search
	LMRFullDepthMoves int // moves searched at full depth before reducing
	LMRDepthLimit     int // minimum remaining depth for a reduction
	AspirationWindow  int // half-width of the window around the last score

	// NodeCheckInterval is how many nodes pass between polls of the stop
	// flag, the context and the clock.
	NodeCheckInterval uint64
}

// DefaultOptions returns the classical settings.
func DefaultOptions() Options {
	return Options{
		HashMB:            64,
		PawnHashMB:        1,
		NullMoveReduction: 2,
		LMRFullDepthMoves: 4,
		LMRDepthLimit:     3,
		AspirationWindow:  50,
		NodeCheckInterval: 2048,
	}
}

// Validate reports options the search cannot run with.
func (o Options) Validate() error {
	switch {
	case o.HashMB < 1:
		return fmt.Errorf("hash size %d MB: must be at least 1", o.HashMB)
	case o.PawnHashMB < 0:
		return fmt.Errorf("pawn hash size %d MB: must not be negative", o.PawnHashMB)
	case o.NullMoveReduction < 0:
		return fmt.Errorf("null move reduction %d: must not be negative", o.NullMoveReduction)
	case o.LMRFullDepthMoves < 1:
		return fmt.Errorf("LMR full depth moves %d: must be at least 1", o.LMRFullDepthMoves)
	case o.LMRDepthLimit < 2:
		return fmt.Errorf("LMR depth limit %d: must be at least 2", o.LMRDepthLimit)
	case o.AspirationWindow < 1:
		return fmt.Errorf("aspiration window %d: must be positive", o.AspirationWindow)
	case o.NodeCheckInterval == 0:
		return fmt.Errorf("node check interval must be positive")
	}
	return nil
}
