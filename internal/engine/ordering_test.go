package engine

import (
	"testing"

	"github.com/hailam/negachess/internal/board"
)

func TestMVVLVA(t *testing.T) {
	if !(mvvLva[board.WhitePawn][board.BlackQueen] > mvvLva[board.WhiteQueen][board.BlackQueen]) {
		t.Error("cheaper attacker on the same victim should come first")
	}
	if !(mvvLva[board.WhiteQueen][board.BlackQueen] > mvvLva[board.WhitePawn][board.BlackRook]) {
		t.Error("more valuable victim should come first")
	}
	if mvvLva[board.BlackKnight][board.WhiteBishop] != mvvLva[board.WhiteKnight][board.BlackBishop] {
		t.Error("table differs by color")
	}
}

func TestSortOrder(t *testing.T) {
	pos := mustFEN(t, kiwipete)
	var ml board.MoveList
	pos.GenerateMoves(&ml)

	var quiets []board.Move
	for _, m := range ml.Slice() {
		if !m.IsCapture() && !m.IsPromotion() {
			quiets = append(quiets, m)
		}
	}
	pv, killer, rewarded := quiets[0], quiets[1], quiets[2]

	mo := NewMoveOrderer()
	mo.UpdateKillers(killer, 3)
	mo.UpdateHistory(rewarded, 5)
	mo.Sort(pos, &ml, 3, pv)

	moves := ml.Slice()
	if moves[0] != pv {
		t.Fatalf("first move = %s, want PV move %s", moves[0], pv)
	}

	rank := func(m board.Move) int {
		switch {
		case m == pv:
			return 4
		case m.IsCapture():
			return 3
		case m == killer:
			return 2
		case m == rewarded:
			return 1
		}
		return 0
	}
	for i := 1; i < len(moves); i++ {
		if rank(moves[i]) > rank(moves[i-1]) {
			t.Errorf("%s (rank %d) after %s (rank %d)", moves[i], rank(moves[i]), moves[i-1], rank(moves[i-1]))
		}
		if moves[i].IsCapture() && moves[i-1].IsCapture() &&
			mo.ScoreMove(pos, moves[i], 3, pv) > mo.ScoreMove(pos, moves[i-1], 3, pv) {
			t.Errorf("capture %s ordered after weaker %s", moves[i], moves[i-1])
		}
	}

	// Killers belong to their ply only.
	if got := mo.ScoreMove(pos, killer, 4, board.NoMove); got == KillerScore1 {
		t.Error("killer scored at another ply")
	}
}

func TestKillerSlots(t *testing.T) {
	pos := mustFEN(t, board.StartFEN)
	a, _ := pos.ParseMove("g1f3")
	b, _ := pos.ParseMove("e2e4")
	c, _ := pos.ParseMove("d2d4")

	mo := NewMoveOrderer()
	mo.UpdateKillers(a, 0)
	mo.UpdateKillers(a, 0)
	if mo.killers[0][1] != board.NoMove {
		t.Error("repeated killer filled the second slot")
	}
	mo.UpdateKillers(b, 0)
	mo.UpdateKillers(c, 0)
	if mo.killers[0][0] != c || mo.killers[0][1] != b {
		t.Errorf("killers = %s %s, want %s %s", mo.killers[0][0], mo.killers[0][1], c, b)
	}

	if got := mo.ScoreMove(pos, c, 0, board.NoMove); got != KillerScore1 {
		t.Errorf("first killer scored %d", got)
	}
	if got := mo.ScoreMove(pos, b, 0, board.NoMove); got != KillerScore2 {
		t.Errorf("second killer scored %d", got)
	}
}

func TestHistoryIsCapped(t *testing.T) {
	pos := mustFEN(t, board.StartFEN)
	m, _ := pos.ParseMove("b1c3")

	mo := NewMoveOrderer()
	for range 10000 {
		mo.UpdateHistory(m, 10)
	}
	if got := mo.ScoreMove(pos, m, 0, board.NoMove); got != maxHistoryVal {
		t.Errorf("history = %d, want cap %d", got, maxHistoryVal)
	}
	if maxHistoryVal >= KillerScore2 {
		t.Error("history can outrank killers")
	}

	mo.Clear()
	if got := mo.ScoreMove(pos, m, 0, board.NoMove); got != 0 {
		t.Errorf("history after Clear = %d", got)
	}
}
