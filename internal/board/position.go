package board

import (
	"fmt"
	"strings"
)

// CastlingRights is a 4-bit set of the castling options still available.
type CastlingRights uint8

const (
	WhiteKingSide  CastlingRights = 1 << iota // K
	WhiteQueenSide                            // Q
	BlackKingSide                             // k
	BlackQueenSide                            // q

	NoCastling  CastlingRights = 0
	AllCastling                = WhiteKingSide | WhiteQueenSide | BlackKingSide | BlackQueenSide
)

// String returns the FEN castling rights string.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	var sb strings.Builder
	for i, c := range "KQkq" {
		if cr&(1<<i) != 0 {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// maxHistory bounds the hashes kept for repetition detection. The slice is
// allocated once with this capacity and never grows past it.
const maxHistory = 1024

// Position is a complete chess position. Fields are exported for reading;
// mutate only through MakeMove, MakeNullMove and Restore so that the
// occupancy and hash invariants hold.
type Position struct {
	Pieces   [12]Bitboard // one per piece kind
	Occupied [2]Bitboard  // union per color
	All      Bitboard

	SideToMove     Color
	Castling       CastlingRights
	EnPassant      Square // target square, NoSquare if none
	HalfMoveClock  int    // plies since the last capture or pawn move
	FullMoveNumber int

	Hash    uint64
	PawnKey uint64 // Zobrist hash of the pawns alone

	// history holds the hashes of the positions before this one, oldest
	// first. Restore truncates it back by restoring the slice header.
	history []uint64

	tables *Tables
}

// Snapshot is a full copy of a position's state.
type Snapshot struct {
	pos Position
}

// Placement describes a position to construct with FromPieces.
type Placement struct {
	Board          [64]Piece // NoPiece for empty squares
	SideToMove     Color
	Castling       CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	FullMoveNumber int
}

// EmptyPlacement returns a placement with no pieces and no en passant target.
func EmptyPlacement() Placement {
	var pl Placement
	for i := range pl.Board {
		pl.Board[i] = NoPiece
	}
	pl.EnPassant = NoSquare
	pl.FullMoveNumber = 1
	return pl
}

// FromPieces builds a position from an explicit placement. The hash is
// computed from scratch here and maintained incrementally afterwards.
func FromPieces(t *Tables, pl Placement) (*Position, error) {
	p := &Position{
		SideToMove:     pl.SideToMove,
		Castling:       pl.Castling & AllCastling,
		EnPassant:      pl.EnPassant,
		HalfMoveClock:  pl.HalfMoveClock,
		FullMoveNumber: max(pl.FullMoveNumber, 1),
		history:        make([]uint64, 0, maxHistory),
		tables:         t,
	}
	if p.SideToMove >= NoColor {
		return nil, fmt.Errorf("%w: side to move %d", ErrInvalidPosition, pl.SideToMove)
	}

	for sq, pc := range pl.Board {
		if pc == NoPiece {
			continue
		}
		if pc > NoPiece {
			return nil, fmt.Errorf("%w: bad piece %d on %v", ErrInvalidPosition, pc, Square(sq))
		}
		p.Pieces[pc] |= SquareBB(Square(sq))
	}
	p.updateOccupied()
	p.dropStaleRights()

	if p.EnPassant != NoSquare {
		rank, pushed := 5, int(p.EnPassant)-8
		if p.SideToMove == Black {
			rank, pushed = 2, int(p.EnPassant)+8
		}
		if p.EnPassant >= NoSquare || p.EnPassant.Rank() != rank || p.All.IsSet(p.EnPassant) ||
			!p.Pieces[NewPiece(Pawn, p.SideToMove.Other())].IsSet(Square(pushed)) {
			return nil, fmt.Errorf("%w: en passant square %v", ErrInvalidPosition, p.EnPassant)
		}
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.IsSquareAttacked(p.KingSquare(p.SideToMove.Other()), p.SideToMove) {
		return nil, fmt.Errorf("%w: side not to move is in check", ErrInvalidPosition)
	}

	p.Hash = p.ComputeHash()
	p.PawnKey = p.ComputePawnKey()
	return p, nil
}

// NewPosition returns the starting position.
func NewPosition(t *Tables) *Position {
	p, err := ParseFEN(t, StartFEN)
	if err != nil {
		panic(err)
	}
	return p
}

// dropStaleRights clears castling rights whose king or rook has left its
// home square, so every later update can rely on the mask table alone.
func (p *Position) dropStaleRights() {
	need := []struct {
		right CastlingRights
		king  Square
		rook  Square
		color Color
	}{
		{WhiteKingSide, E1, H1, White},
		{WhiteQueenSide, E1, A1, White},
		{BlackKingSide, E8, H8, Black},
		{BlackQueenSide, E8, A8, Black},
	}
	for _, n := range need {
		if !p.Pieces[NewPiece(King, n.color)].IsSet(n.king) || !p.Pieces[NewPiece(Rook, n.color)].IsSet(n.rook) {
			p.Castling &^= n.right
		}
	}
}

func (p *Position) updateOccupied() {
	p.Occupied[White] = 0
	p.Occupied[Black] = 0
	for pc := WhitePawn; pc <= WhiteKing; pc++ {
		p.Occupied[White] |= p.Pieces[pc]
	}
	for pc := BlackPawn; pc <= BlackKing; pc++ {
		p.Occupied[Black] |= p.Pieces[pc]
	}
	p.All = p.Occupied[White] | p.Occupied[Black]
}

// Tables returns the attack tables the position was built with.
func (p *Position) Tables() *Tables {
	return p.tables
}

// PieceAt returns the piece at the given square, or NoPiece if empty.
func (p *Position) PieceAt(sq Square) Piece {
	bb := SquareBB(sq)
	if p.All&bb == 0 {
		return NoPiece
	}
	first := WhitePawn
	if p.Occupied[Black]&bb != 0 {
		first = BlackPawn
	}
	for pc := first; pc < first+6; pc++ {
		if p.Pieces[pc]&bb != 0 {
			return pc
		}
	}
	return NoPiece
}

// KingSquare returns the square of c's king.
func (p *Position) KingSquare(c Color) Square {
	return p.Pieces[NewPiece(King, c)].LSB()
}

// IsSquareAttacked reports whether any piece of color by attacks sq.
// Cheap tests run first and the first hit returns.
func (p *Position) IsSquareAttacked(sq Square, by Color) bool {
	t := p.tables
	if t.pawn[by.Other()][sq]&p.Pieces[NewPiece(Pawn, by)] != 0 {
		return true
	}
	if t.knight[sq]&p.Pieces[NewPiece(Knight, by)] != 0 {
		return true
	}
	if t.king[sq]&p.Pieces[NewPiece(King, by)] != 0 {
		return true
	}
	queens := p.Pieces[NewPiece(Queen, by)]
	if t.BishopAttacks(sq, p.All)&(p.Pieces[NewPiece(Bishop, by)]|queens) != 0 {
		return true
	}
	return t.RookAttacks(sq, p.All)&(p.Pieces[NewPiece(Rook, by)]|queens) != 0
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool {
	return p.IsSquareAttacked(p.KingSquare(p.SideToMove), p.SideToMove.Other())
}

// Snapshot captures the full position state.
func (p *Position) Snapshot() Snapshot {
	return Snapshot{pos: *p}
}

// Restore returns the position to a previously captured state.
func (p *Position) Restore(s Snapshot) {
	*p = s.pos
}

// Clone returns an independent copy, history included.
func (p *Position) Clone() *Position {
	c := *p
	c.history = make([]uint64, len(p.history), maxHistory)
	copy(c.history, p.history)
	return &c
}

// historyKeep is how many hashes survive when the history fills up. It
// exceeds the 100 plies any repetition can span before the fifty-move rule.
const historyKeep = maxHistory / 2

func (p *Position) pushHistory() {
	if len(p.history) == cap(p.history) {
		// Snapshots still reference the old array, so the newest entries
		// move to a fresh one instead of shifting in place.
		h := make([]uint64, historyKeep, maxHistory)
		copy(h, p.history[len(p.history)-historyKeep:])
		p.history = h
	}
	p.history = append(p.history, p.Hash)
}

// IsRepetition reports whether the current position occurred earlier with
// the same side to move. Entries older than the half-move clock are
// skipped since an irreversible move separates them from the present.
func (p *Position) IsRepetition() bool {
	n := len(p.history)
	limit := min(p.HalfMoveClock, n)
	for i := n - 2; i >= n-limit; i -= 2 {
		if p.history[i] == p.Hash {
			return true
		}
	}
	return false
}

// IsFiftyMoveDraw reports whether 100 plies passed without a capture or
// pawn move.
func (p *Position) IsFiftyMoveDraw() bool {
	return p.HalfMoveClock >= 100
}

// ComputeHash computes the Zobrist hash for the position from scratch.
func (p *Position) ComputeHash() uint64 {
	k := &p.tables.keys
	var hash uint64
	for pc := WhitePawn; pc <= BlackKing; pc++ {
		bb := p.Pieces[pc]
		for bb != 0 {
			hash ^= k.piece[pc][bb.PopLSB()]
		}
	}
	if p.SideToMove == Black {
		hash ^= k.side
	}
	hash ^= k.castling[p.Castling]
	if p.EnPassant != NoSquare {
		hash ^= k.enPassant[p.EnPassant]
	}
	return hash
}

// ComputePawnKey computes the pawn-only Zobrist key from scratch.
func (p *Position) ComputePawnKey() uint64 {
	k := &p.tables.keys
	var key uint64
	for _, pc := range [2]Piece{WhitePawn, BlackPawn} {
		bb := p.Pieces[pc]
		for bb != 0 {
			key ^= k.piece[pc][bb.PopLSB()]
		}
	}
	return key
}

// Validate checks the board invariants: disjoint piece sets, consistent
// occupancy, one king per side, no pawns on the back ranks and material
// reachable from the starting position.
func (p *Position) Validate() error {
	var union Bitboard
	for pc := WhitePawn; pc <= BlackKing; pc++ {
		if union&p.Pieces[pc] != 0 {
			return fmt.Errorf("%w: squares shared by several piece kinds", ErrInvalidPosition)
		}
		union |= p.Pieces[pc]
	}
	if union != p.All || p.Occupied[White]|p.Occupied[Black] != p.All || p.Occupied[White]&p.Occupied[Black] != 0 {
		return fmt.Errorf("%w: occupancy out of sync", ErrInvalidPosition)
	}
	for c := White; c <= Black; c++ {
		if n := p.Pieces[NewPiece(King, c)].PopCount(); n != 1 {
			return fmt.Errorf("%w: %v has %d kings", ErrInvalidPosition, c, n)
		}
	}
	if (p.Pieces[WhitePawn]|p.Pieces[BlackPawn])&(Rank1|Rank8) != 0 {
		return fmt.Errorf("%w: pawn on a back rank", ErrInvalidPosition)
	}
	for c := White; c <= Black; c++ {
		if err := p.validateMaterial(c); err != nil {
			return err
		}
	}
	return nil
}

// validateMaterial rejects piece counts no game can reach: every piece
// beyond the initial set must be a promoted pawn. This also bounds the
// pseudo-legal move count below MoveList's capacity.
func (p *Position) validateMaterial(c Color) error {
	if n := p.Occupied[c].PopCount(); n > 16 {
		return fmt.Errorf("%w: %v has %d pieces", ErrInvalidPosition, c, n)
	}
	pawns := p.Pieces[NewPiece(Pawn, c)].PopCount()
	if pawns > 8 {
		return fmt.Errorf("%w: %v has %d pawns", ErrInvalidPosition, c, pawns)
	}

	promoted := 0
	for _, set := range [...]struct {
		pt      PieceType
		initial int
	}{{Knight, 2}, {Bishop, 2}, {Rook, 2}, {Queen, 1}} {
		promoted += max(p.Pieces[NewPiece(set.pt, c)].PopCount()-set.initial, 0)
	}
	if pawns+promoted > 8 {
		return fmt.Errorf("%w: %v has %d pawns and %d promoted pieces", ErrInvalidPosition, c, pawns, promoted)
	}
	return nil
}

// String renders the board, rank 8 first, followed by the FEN.
func (p *Position) String() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, " %d  ", rank+1)
		for file := 0; file < 8; file++ {
			sb.WriteString(p.PieceAt(NewSquare(file, rank)).String())
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("\n    a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Fen: %s\nKey: %016X\n", p.ToFEN(), p.Hash)
	return sb.String()
}
