package board

import "errors"

var (
	// ErrMagicSearch is returned by NewTables when no collision-free magic
	// multiplier was found for a square within the retry budget.
	ErrMagicSearch = errors.New("magic multiplier search exhausted")

	// ErrInvalidPosition marks a placement that violates a board invariant.
	ErrInvalidPosition = errors.New("invalid position")

	ErrInvalidFEN    = errors.New("invalid FEN")
	ErrInvalidSquare = errors.New("invalid square")

	// ErrUnrecognizedMove is returned by ParseMove when the text names no
	// legal move in the current position.
	ErrUnrecognizedMove = errors.New("unrecognized move")
)
