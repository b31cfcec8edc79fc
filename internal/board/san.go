package board

import (
	"strings"
)

// SAN renders m in Standard Algebraic Notation for the position it is
// played from. m must be legal in pos.
func (m Move) SAN(pos *Position) string {
	if m == NoMove {
		return "-"
	}

	var sb strings.Builder
	from, to := m.From(), m.To()
	pt := m.Piece().Type()

	switch {
	case m.IsCastling() && to > from:
		sb.WriteString("O-O")
	case m.IsCastling():
		sb.WriteString("O-O-O")
	default:
		if pt != Pawn {
			sb.WriteByte("PNBRQK"[pt])
			sb.WriteString(disambiguation(pos, m))
		}
		if m.IsCapture() {
			if pt == Pawn {
				sb.WriteByte('a' + byte(from.File()))
			}
			sb.WriteByte('x')
		}
		sb.WriteString(to.String())
		if m.IsPromotion() {
			sb.WriteByte('=')
			sb.WriteByte("PNBRQK"[m.Promotion().Type()])
		}
	}

	s := pos.Snapshot()
	if pos.MakeMove(m) {
		switch {
		case pos.InCheck() && !pos.HasLegalMoves():
			sb.WriteByte('#')
		case pos.InCheck():
			sb.WriteByte('+')
		}
		pos.Restore(s)
	}
	return sb.String()
}

// disambiguation returns the origin file, rank, or square needed when
// another piece of the same kind can also reach m's target.
func disambiguation(pos *Position, m Move) string {
	from := m.From()
	ambiguous, sameFile, sameRank := false, false, false
	for _, other := range pos.LegalMoves() {
		if other.To() != m.To() || other.Piece() != m.Piece() || other.From() == from {
			continue
		}
		ambiguous = true
		sameFile = sameFile || other.From().File() == from.File()
		sameRank = sameRank || other.From().Rank() == from.Rank()
	}

	switch {
	case !ambiguous:
		return ""
	case !sameFile:
		return string(rune('a' + from.File()))
	case !sameRank:
		return string(rune('1' + from.Rank()))
	}
	return from.String()
}

// MovesToSAN renders a line of moves played from pos. pos is unchanged.
func MovesToSAN(pos *Position, moves []Move) []string {
	p := pos.Clone()
	out := make([]string, 0, len(moves))
	for _, m := range moves {
		out = append(out, m.SAN(p))
		if !p.MakeMove(m) {
			break
		}
	}
	return out
}
